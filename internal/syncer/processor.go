// Package syncer composes change detection with history persistence and
// notification dispatch. The engine stays pure; every side effect lives here.
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/obata/taskwatch/internal/engine"
	"github.com/obata/taskwatch/internal/models"
	"github.com/obata/taskwatch/internal/notify"
)

// Storage is the persistence contract the processor needs. *store.Store
// satisfies it; tests use an in-memory fake.
type Storage interface {
	SubjectByExternalID(ctx context.Context, companyID string, kind models.Kind, externalID string) (*models.Subject, error)
	CreateSubject(ctx context.Context, subject *models.Subject) error
	SaveSubject(ctx context.Context, subject *models.Subject) error
	AppendEvent(ctx context.Context, event *models.Event) error
	LatestEvent(ctx context.Context, subjectID string, property models.Property) (*models.Event, error)
	HasHistory(ctx context.Context, subjectID string) (bool, error)
	Integrations(ctx context.Context, companyID string) ([]models.ChatToolIntegration, error)
}

// LivenessChecker verifies a subject still exists at the external source
// before a notification goes out. Implementations call the source system's
// API; the default treats everything as live.
type LivenessChecker interface {
	Live(ctx context.Context, subject *models.Subject, integration models.ChatToolIntegration) (bool, error)
}

type alwaysLive struct{}

func (alwaysLive) Live(context.Context, *models.Subject, models.ChatToolIntegration) (bool, error) {
	return true, nil
}

// EditorResolver maps the editing user to their identity within a chat tool.
type EditorResolver interface {
	Resolve(ctx context.Context, editor models.User, integration models.ChatToolIntegration) (string, error)
}

type nameResolver struct{}

func (nameResolver) Resolve(_ context.Context, editor models.User, _ models.ChatToolIntegration) (string, error) {
	return editor.Name, nil
}

// Options tunes a Processor. Zero values select working defaults.
type Options struct {
	Liveness LivenessChecker
	Resolver EditorResolver
	Logger   *slog.Logger
	Now      func() time.Time

	// FanOut caps how many subjects sync concurrently in a batch.
	FanOut int
}

// Processor runs the sync pipeline for one or many subjects.
type Processor struct {
	store     Storage
	notifiers notify.Registry
	liveness  LivenessChecker
	resolver  EditorResolver
	log       *slog.Logger
	now       func() time.Time
	fanOut    int
}

// New creates a Processor.
func New(store Storage, notifiers notify.Registry, opts Options) *Processor {
	p := &Processor{
		store:     store,
		notifiers: notifiers,
		liveness:  opts.Liveness,
		resolver:  opts.Resolver,
		log:       opts.Logger,
		now:       opts.Now,
		fanOut:    opts.FanOut,
	}
	if p.liveness == nil {
		p.liveness = alwaysLive{}
	}
	if p.resolver == nil {
		p.resolver = nameResolver{}
	}
	if p.log == nil {
		p.log = slog.Default()
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.fanOut <= 0 {
		p.fanOut = 4
	}
	return p
}

// ProcessBatch syncs a batch of snapshots for one company. Subjects run
// concurrently up to the fan-out limit, each behind its own error boundary:
// one failing subject is logged and the rest continue. History rows for a
// subject are written sequentially in detection order, and each row is written
// before its own notification fires. ProcessBatch returns once all writes and
// all notification attempts have finished.
//
// Overlapping batches that contain the same external id are not serialized
// against each other; callers own that scheduling.
func (p *Processor) ProcessBatch(ctx context.Context, companyID string, kind models.Kind, snapshots []engine.Snapshot, notifyFlag bool) {
	var dispatches sync.WaitGroup
	g := new(errgroup.Group)
	g.SetLimit(p.fanOut)
	for _, snapshot := range snapshots {
		snapshot := snapshot
		g.Go(func() error {
			if err := p.syncOne(ctx, companyID, kind, snapshot, notifyFlag, &dispatches); err != nil {
				p.log.Error("subject sync failed",
					"company_id", companyID,
					"kind", kind,
					"external_id", snapshot.ExternalID,
					"error", err)
			}
			return nil
		})
	}
	g.Wait()
	dispatches.Wait()
}

// SyncOne syncs a single snapshot and waits for its notifications.
func (p *Processor) SyncOne(ctx context.Context, companyID string, kind models.Kind, snapshot engine.Snapshot, notifyFlag bool) error {
	var dispatches sync.WaitGroup
	err := p.syncOne(ctx, companyID, kind, snapshot, notifyFlag, &dispatches)
	dispatches.Wait()
	return err
}

func (p *Processor) syncOne(ctx context.Context, companyID string, kind models.Kind, snapshot engine.Snapshot, notifyFlag bool, dispatches *sync.WaitGroup) error {
	subject, err := p.store.SubjectByExternalID(ctx, companyID, kind, snapshot.ExternalID)
	if err != nil {
		return fmt.Errorf("load subject: %w", err)
	}

	var stored *engine.Stored
	if subject == nil {
		subject = subjectFromSnapshot(companyID, kind, snapshot)
		if err := p.store.CreateSubject(ctx, subject); err != nil {
			return fmt.Errorf("create subject: %w", err)
		}
	} else {
		stored = &engine.Stored{
			Deadline:  subject.Deadline,
			IsDone:    subject.IsDone,
			IsClosed:  subject.IsClosed,
			Assignees: subject.Assignees,
		}
	}

	hasHistory, err := p.store.HasHistory(ctx, subject.ID)
	if err != nil {
		return fmt.Errorf("check history: %w", err)
	}
	latestDelayed, err := p.store.LatestEvent(ctx, subject.ID, models.PropertyIsDelayed)
	if err != nil {
		return fmt.Errorf("latest delayed: %w", err)
	}
	latestRecovered, err := p.store.LatestEvent(ctx, subject.ID, models.PropertyIsRecovered)
	if err != nil {
		return fmt.Errorf("latest recovered: %w", err)
	}

	drafts := engine.Detect(engine.Input{
		Stored:          stored,
		Observed:        snapshot,
		HistoryExists:   hasHistory,
		LatestDelayed:   eventAction(latestDelayed),
		LatestRecovered: eventAction(latestRecovered),
		Now:             p.now(),
		Notify:          notifyFlag,
	})

	if err := p.persistAndNotify(ctx, subject, snapshot, drafts, dispatches); err != nil {
		return err
	}

	applySnapshot(subject, snapshot)
	if err := p.store.SaveSubject(ctx, subject); err != nil {
		return fmt.Errorf("save subject: %w", err)
	}
	return nil
}

// persistAndNotify writes each draft in order and, for drafts flagged notify,
// fans out one fire-and-forget dispatch per enabled integration. A failed
// write aborts the subject; a failed notification only logs.
func (p *Processor) persistAndNotify(ctx context.Context, subject *models.Subject, snapshot engine.Snapshot, drafts []engine.Draft, dispatches *sync.WaitGroup) error {
	var integrations []models.ChatToolIntegration
	loaded := false

	for _, draft := range drafts {
		event := eventFromDraft(subject.ID, draft, snapshot.EditedBy)
		if err := p.store.AppendEvent(ctx, event); err != nil {
			return fmt.Errorf("append %s/%s: %w", draft.Property, draft.Action, err)
		}
		if !draft.Notify {
			continue
		}
		if !loaded {
			loaded = true
			var err error
			integrations, err = p.store.Integrations(ctx, subject.CompanyID)
			if err != nil {
				// History is already safe; losing this cycle's notifications
				// is acceptable per the error contract.
				p.log.Error("load integrations failed",
					"company_id", subject.CompanyID, "error", err)
				integrations = nil
			}
		}
		for _, integration := range integrations {
			notifier, ok := p.notifiers.For(integration.ChatTool)
			if !ok {
				// No credentials configured for this tool: expected steady
				// state, not an error.
				continue
			}
			dispatches.Add(1)
			go func(integration models.ChatToolIntegration, notifier notify.Notifier, draft engine.Draft) {
				defer dispatches.Done()
				p.dispatch(ctx, subject, snapshot, integration, notifier, draft)
			}(integration, notifier, draft)
		}
	}
	return nil
}

func (p *Processor) dispatch(ctx context.Context, subject *models.Subject, snapshot engine.Snapshot, integration models.ChatToolIntegration, notifier notify.Notifier, draft engine.Draft) {
	live, err := p.liveness.Live(ctx, subject, integration)
	if err != nil {
		p.log.Error("liveness check failed",
			"subject_id", subject.ID, "chat_tool", integration.ChatTool, "error", err)
		return
	}
	if !live {
		return
	}

	editorName := ""
	if snapshot.EditedBy != nil && !derivedProperty(draft.Property) {
		editorName, err = p.resolver.Resolve(ctx, *snapshot.EditedBy, integration)
		if err != nil {
			p.log.Error("editor resolution failed",
				"subject_id", subject.ID, "chat_tool", integration.ChatTool, "error", err)
			editorName = snapshot.EditedBy.Name
		}
	}

	n := notify.Notification{
		SubjectName: snapshot.Name,
		SubjectKind: subject.Kind,
		Property:    draft.Property,
		Action:      draft.Action,
		Deadline:    draft.Deadline,
		DaysDiff:    draft.DaysDiff,
		Channel:     integration.Channel,
		EditorName:  editorName,
	}
	if draft.Assignee != nil {
		n.AssigneeName = draft.Assignee.Name
	}
	if err := notifier.Notify(ctx, n); err != nil {
		p.log.Error("notification failed",
			"subject_id", subject.ID,
			"chat_tool", integration.ChatTool,
			"property", draft.Property,
			"action", draft.Action,
			"error", err)
	}
}

func subjectFromSnapshot(companyID string, kind models.Kind, snapshot engine.Snapshot) *models.Subject {
	return &models.Subject{
		Kind:       kind,
		CompanyID:  companyID,
		ExternalID: snapshot.ExternalID,
		Name:       snapshot.Name,
		Deadline:   snapshot.Deadline,
		StartDate:  snapshot.StartDate,
		IsDone:     snapshot.IsDone,
		IsClosed:   snapshot.IsClosed,
		Assignees:  snapshot.Assignees,
	}
}

func applySnapshot(subject *models.Subject, snapshot engine.Snapshot) {
	subject.Name = snapshot.Name
	subject.Deadline = snapshot.Deadline
	subject.StartDate = snapshot.StartDate
	subject.IsDone = snapshot.IsDone
	subject.IsClosed = snapshot.IsClosed
	subject.Assignees = snapshot.Assignees
}

func eventFromDraft(subjectID string, draft engine.Draft, editor *models.User) *models.Event {
	event := &models.Event{
		SubjectID: subjectID,
		Property:  draft.Property,
		Action:    draft.Action,
		Deadline:  draft.Deadline,
		DaysDiff:  draft.DaysDiff,
	}
	if draft.Assignee != nil {
		id := draft.Assignee.ID
		event.AssigneeID = &id
	}
	// Derived flags are the engine's own doing; they carry no editor.
	if editor != nil && !derivedProperty(draft.Property) {
		id := editor.ID
		event.EditorID = &id
	}
	return event
}

func derivedProperty(property models.Property) bool {
	return property == models.PropertyIsDelayed || property == models.PropertyIsRecovered
}

func eventAction(event *models.Event) *models.Action {
	if event == nil {
		return nil
	}
	action := event.Action
	return &action
}
