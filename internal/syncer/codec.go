package syncer

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/obata/taskwatch/internal/engine"
	"github.com/obata/taskwatch/internal/models"
	"github.com/obata/taskwatch/internal/temporal"
)

// Batch is the normalized snapshot document the sync command consumes.
// Integration fetchers (Notion, Backlog, Trello, Planner) produce this shape.
type Batch struct {
	CompanyID string            `json:"company_id"`
	Kind      models.Kind       `json:"kind"`
	Subjects  []SubjectSnapshot `json:"subjects"`
}

// SubjectSnapshot is the wire form of one observed subject.
type SubjectSnapshot struct {
	ExternalID string    `json:"external_id"`
	Name       string    `json:"name"`
	Deadline   *string   `json:"deadline,omitempty"`
	StartDate  *string   `json:"start_date,omitempty"`
	IsDone     bool      `json:"is_done"`
	IsClosed   bool      `json:"is_closed"`
	Assignees  []UserRef `json:"assignees,omitempty"`
	EditedBy   *UserRef  `json:"edited_by,omitempty"`
}

// UserRef names a user in a snapshot.
type UserRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ParseBatch decodes and validates a snapshot document.
func ParseBatch(r io.Reader) (*Batch, []engine.Snapshot, error) {
	var batch Batch
	if err := json.NewDecoder(r).Decode(&batch); err != nil {
		return nil, nil, fmt.Errorf("decode batch: %w", err)
	}
	if batch.CompanyID == "" {
		return nil, nil, fmt.Errorf("batch is missing company_id")
	}
	switch batch.Kind {
	case models.KindTodo, models.KindProject:
	case "":
		batch.Kind = models.KindTodo
	default:
		return nil, nil, fmt.Errorf("unknown subject kind %q", batch.Kind)
	}

	snapshots := make([]engine.Snapshot, 0, len(batch.Subjects))
	for i, subject := range batch.Subjects {
		snapshot, err := subject.toSnapshot()
		if err != nil {
			return nil, nil, fmt.Errorf("subject %d (%s): %w", i, subject.ExternalID, err)
		}
		snapshots = append(snapshots, snapshot)
	}
	return &batch, snapshots, nil
}

func (s SubjectSnapshot) toSnapshot() (engine.Snapshot, error) {
	if s.ExternalID == "" {
		return engine.Snapshot{}, fmt.Errorf("missing external_id")
	}
	if s.Name == "" {
		return engine.Snapshot{}, fmt.Errorf("missing name")
	}
	deadline, err := parseDay(s.Deadline)
	if err != nil {
		return engine.Snapshot{}, fmt.Errorf("deadline: %w", err)
	}
	startDate, err := parseDay(s.StartDate)
	if err != nil {
		return engine.Snapshot{}, fmt.Errorf("start_date: %w", err)
	}

	snapshot := engine.Snapshot{
		ExternalID: s.ExternalID,
		Name:       s.Name,
		Deadline:   deadline,
		StartDate:  startDate,
		IsDone:     s.IsDone,
		IsClosed:   s.IsClosed,
	}
	for _, ref := range s.Assignees {
		snapshot.Assignees = append(snapshot.Assignees, models.User{ID: ref.ID, Name: ref.Name})
	}
	if s.EditedBy != nil {
		snapshot.EditedBy = &models.User{ID: s.EditedBy.ID, Name: s.EditedBy.Name}
	}
	return snapshot, nil
}

// parseDay accepts RFC 3339 timestamps or plain dates; plain dates are read as
// midnight in the reference timezone.
func parseDay(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, *s); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", *s, temporal.Reference)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q", *s)
	}
	return &t, nil
}
