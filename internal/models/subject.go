package models

import (
	"time"

	"gorm.io/gorm"
)

// Kind distinguishes the two trackable subject shapes. They are structurally
// identical for history purposes, so both share one table and one engine.
type Kind string

const (
	KindTodo    Kind = "todo"
	KindProject Kind = "project"
)

// Subject is a todo or project synced from an external task tool.
//
// Deadline, IsDone, IsClosed and Assignees hold the values from the last
// completed sync; the change engine compares the next snapshot against them.
type Subject struct {
	ID        string         `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Kind       Kind   `gorm:"not null;index:idx_subjects_external,unique" json:"kind"`
	CompanyID  string `gorm:"not null;index:idx_subjects_external,unique" json:"company_id"`
	ExternalID string `gorm:"not null;index:idx_subjects_external,unique" json:"external_id"`

	Name      string     `gorm:"not null" json:"name"`
	Deadline  *time.Time `json:"deadline"`
	StartDate *time.Time `json:"start_date"`
	IsDone    bool       `gorm:"default:false" json:"is_done"`
	IsClosed  bool       `gorm:"default:false" json:"is_closed"`

	// Relationships
	Assignees []User `gorm:"many2many:subject_assignees;" json:"assignees"`
}

// User is a member of a company, referenced as assignee or editor.
type User struct {
	ID         string `gorm:"primarykey" json:"id"`
	CompanyID  string `gorm:"index" json:"company_id"`
	Name       string `gorm:"not null" json:"name"`
	ExternalID string `json:"external_id"`

	// Relationships
	Subjects []Subject `gorm:"many2many:subject_assignees;" json:"-"`
}

// SubjectAssignee is the join table for the many-to-many relationship
type SubjectAssignee struct {
	SubjectID string `gorm:"primaryKey"`
	UserID    string `gorm:"primaryKey"`
}
