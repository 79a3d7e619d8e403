package models

import "time"

// Property identifies which aspect of a subject a history event describes.
type Property string

const (
	PropertyName        Property = "NAME"
	PropertyAssignee    Property = "ASSIGNEE"
	PropertyDeadline    Property = "DEADLINE"
	PropertyIsDone      Property = "IS_DONE"
	PropertyIsClosed    Property = "IS_CLOSED"
	PropertyIsDelayed   Property = "IS_DELAYED"
	PropertyIsRecovered Property = "IS_RECOVERED"
)

// Action describes what happened to a property.
type Action string

const (
	ActionCreate Action = "CREATE"
	ActionDelete Action = "DELETE"
	// ActionModified marks a value change, e.g. a deadline that moved.
	ActionModified Action = "MODIFIED"
	// ActionUserChange / ActionSystemChange appear in older rows to mark who
	// triggered an edit; the engine itself emits only CREATE/DELETE/MODIFIED.
	ActionUserChange   Action = "USER_CHANGE"
	ActionSystemChange Action = "SYSTEM_CHANGE"
)

// Event is one append-only history row describing a detected change.
// Rows are never updated or deleted once written.
type Event struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	SubjectID string   `gorm:"not null;index:idx_events_subject_property" json:"subject_id"`
	Property  Property `gorm:"not null;index:idx_events_subject_property" json:"property"`
	Action    Action   `gorm:"not null" json:"action"`

	// Optional payload, present depending on Property.
	Deadline   *time.Time `json:"deadline,omitempty"`
	AssigneeID *string    `json:"assignee_id,omitempty"`
	DaysDiff   *int       `json:"days_diff,omitempty"`

	// EditorID is empty for events the engine derived itself (delayed/recovered).
	EditorID *string `json:"editor_id,omitempty"`
}

// IsSystemEvent reports whether the row was derived by the engine rather than
// caused by a user edit.
func (e *Event) IsSystemEvent() bool {
	return e.EditorID == nil
}
