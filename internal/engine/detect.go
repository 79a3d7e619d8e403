// Package engine computes history events from a stored subject state and a
// freshly observed snapshot. Detection is a pure function: no I/O, no clock
// access, no injected dependencies. Callers load state, call Detect, then hand
// the drafts to the syncer for persistence and notification.
package engine

import (
	"time"

	"github.com/obata/taskwatch/internal/models"
	"github.com/obata/taskwatch/internal/temporal"
)

// Snapshot is the normalized state of a subject as just fetched from an
// external task tool. Integrations map their own payloads to this shape.
type Snapshot struct {
	ExternalID string
	Name       string
	Deadline   *time.Time
	StartDate  *time.Time
	IsDone     bool
	IsClosed   bool
	Assignees  []models.User
	EditedBy   *models.User
}

// Stored is the last persisted state of a subject, the baseline the snapshot
// is compared against.
type Stored struct {
	Deadline  *time.Time
	IsDone    bool
	IsClosed  bool
	Assignees []models.User
}

// Draft is one detected change, not yet persisted. Notify marks whether the
// syncer should attempt an outbound notification for it.
type Draft struct {
	Property models.Property
	Action   models.Action
	Deadline *time.Time
	Assignee *models.User
	DaysDiff *int
	Notify   bool
}

// Input carries everything Detect needs. HistoryExists, not a nil Stored, is
// the authoritative first-sync signal: a subject row can exist before any
// history has been written for it.
type Input struct {
	Stored        *Stored
	Observed      Snapshot
	HistoryExists bool

	// Actions of the most recent IS_DELAYED / IS_RECOVERED rows, nil if none.
	LatestDelayed   *models.Action
	LatestRecovered *models.Action

	Now    time.Time
	Notify bool
}

// Detect compares stored state against the observed snapshot and returns the
// ordered list of history events to record.
func Detect(in Input) []Draft {
	if !in.HistoryExists {
		return detectFirstSync(in)
	}
	return detectUpdate(in)
}

// detectFirstSync handles a subject seen for the first time. Only the name and
// done/closed assertions honor the caller's notify flag; initial assignees and
// deadline are recorded silently to avoid a notification storm on import.
func detectFirstSync(in Input) []Draft {
	obs := in.Observed
	drafts := []Draft{{
		Property: models.PropertyName,
		Action:   models.ActionCreate,
		Notify:   in.Notify,
	}}

	for i := range obs.Assignees {
		assignee := obs.Assignees[i]
		drafts = append(drafts, Draft{
			Property: models.PropertyAssignee,
			Action:   models.ActionCreate,
			Assignee: &assignee,
		})
	}

	if obs.Deadline != nil {
		drafts = append(drafts, Draft{
			Property: models.PropertyDeadline,
			Action:   models.ActionCreate,
			Deadline: obs.Deadline,
		})
		if temporal.IsPastDay(*obs.Deadline, in.Now) && !obs.IsDone && !obs.IsClosed {
			drafts = append(drafts, Draft{
				Property: models.PropertyIsDelayed,
				Action:   models.ActionCreate,
			})
		}
	}

	if obs.IsDone {
		drafts = append(drafts, Draft{
			Property: models.PropertyIsDone,
			Action:   models.ActionCreate,
			Notify:   in.Notify,
		})
	}
	if obs.IsClosed {
		drafts = append(drafts, Draft{
			Property: models.PropertyIsClosed,
			Action:   models.ActionCreate,
			Notify:   in.Notify,
		})
	}
	return drafts
}

// detectUpdate handles every sync after the first.
func detectUpdate(in Input) []Draft {
	stored := in.Stored
	if stored == nil {
		stored = &Stored{}
	}
	obs := in.Observed
	var drafts []Draft

	// Track the latest flag actions locally so a row emitted earlier in this
	// pass suppresses a duplicate later in the same pass.
	delayed := in.LatestDelayed
	recovered := in.LatestRecovered

	// Deadline.
	if changed, action, daysDiff := deadlineChange(stored.Deadline, obs.Deadline); changed {
		drafts = append(drafts, Draft{
			Property: models.PropertyDeadline,
			Action:   action,
			Deadline: obs.Deadline,
			DaysDiff: daysDiff,
			Notify:   in.Notify,
		})
		// The deadline itself moved, so a standing "recovered" flag no longer
		// describes anything and is cleared.
		if recovered != nil && *recovered == models.ActionCreate {
			drafts = append(drafts, Draft{
				Property: models.PropertyIsRecovered,
				Action:   models.ActionDelete,
				Notify:   in.Notify,
			})
			recovered = actionPtr(models.ActionDelete)
		}
	}

	// Assignees, diffed by user id. Each added or removed assignee is its own
	// event and its own notification.
	added, removed := diffAssignees(stored.Assignees, obs.Assignees)
	for i := range added {
		assignee := added[i]
		drafts = append(drafts, Draft{
			Property: models.PropertyAssignee,
			Action:   models.ActionCreate,
			Assignee: &assignee,
			Notify:   in.Notify,
		})
	}
	for i := range removed {
		assignee := removed[i]
		drafts = append(drafts, Draft{
			Property: models.PropertyAssignee,
			Action:   models.ActionDelete,
			Assignee: &assignee,
			Notify:   in.Notify,
		})
	}

	// Done / closed transitions.
	if stored.IsDone != obs.IsDone {
		drafts = append(drafts, Draft{
			Property: models.PropertyIsDone,
			Action:   presenceAction(obs.IsDone),
			Notify:   in.Notify,
		})
	}
	if stored.IsClosed != obs.IsClosed {
		drafts = append(drafts, Draft{
			Property: models.PropertyIsClosed,
			Action:   presenceAction(obs.IsClosed),
			Notify:   in.Notify,
		})
	}

	// Delayed / recovered derivation, keyed off the deadline the subject has
	// after this sync. The latest row's action is checked first so repeated
	// syncs with no real change never write the same flag twice in a row.
	isDelayed := obs.Deadline != nil && temporal.IsPastDay(*obs.Deadline, in.Now)
	if isDelayed {
		if !obs.IsDone && !is(delayed, models.ActionCreate) {
			drafts = append(drafts, Draft{
				Property: models.PropertyIsDelayed,
				Action:   models.ActionCreate,
				Notify:   in.Notify,
			})
		}
	} else {
		if delayed != nil && !is(delayed, models.ActionDelete) {
			drafts = append(drafts, Draft{
				Property: models.PropertyIsDelayed,
				Action:   models.ActionDelete,
				Notify:   in.Notify,
			})
		}
		if recovered != nil && !is(recovered, models.ActionDelete) {
			drafts = append(drafts, Draft{
				Property: models.PropertyIsRecovered,
				Action:   models.ActionDelete,
				Notify:   in.Notify,
			})
		}
	}

	return drafts
}

// deadlineChange classifies a deadline transition. A change is a null-to-value
// creation, a value-to-null removal, or a move of one calendar day or more;
// intra-day clock drift is not a change.
func deadlineChange(stored, observed *time.Time) (bool, models.Action, *int) {
	switch {
	case stored == nil && observed == nil:
		return false, "", nil
	case stored == nil:
		return true, models.ActionCreate, nil
	case observed == nil:
		return true, models.ActionDelete, nil
	}
	diff := temporal.DiffDays(*observed, *stored)
	if diff == 0 {
		return false, "", nil
	}
	return true, models.ActionModified, &diff
}

func diffAssignees(stored, observed []models.User) (added, removed []models.User) {
	storedIDs := make(map[string]bool, len(stored))
	for _, u := range stored {
		storedIDs[u.ID] = true
	}
	observedIDs := make(map[string]bool, len(observed))
	for _, u := range observed {
		observedIDs[u.ID] = true
	}
	for _, u := range observed {
		if !storedIDs[u.ID] {
			added = append(added, u)
		}
	}
	for _, u := range stored {
		if !observedIDs[u.ID] {
			removed = append(removed, u)
		}
	}
	return added, removed
}

func presenceAction(present bool) models.Action {
	if present {
		return models.ActionCreate
	}
	return models.ActionDelete
}

func is(a *models.Action, want models.Action) bool {
	return a != nil && *a == want
}

func actionPtr(a models.Action) *models.Action {
	return &a
}
