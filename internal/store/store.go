// Package store persists subjects and their append-only history with gorm.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/obata/taskwatch/internal/models"
)

// Store wraps a gorm handle. History rows are append-only: Store exposes no
// way to update or delete an Event once written.
type Store struct {
	db *gorm.DB
}

// New creates a Store around an open database handle.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// SubjectByExternalID looks up a subject by its stable external key. Returns
// (nil, nil) when the subject has never been observed.
func (s *Store) SubjectByExternalID(ctx context.Context, companyID string, kind models.Kind, externalID string) (*models.Subject, error) {
	var subject models.Subject
	err := s.db.WithContext(ctx).
		Preload("Assignees").
		Where("company_id = ? AND kind = ? AND external_id = ?", companyID, kind, externalID).
		First(&subject).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &subject, nil
}

// CreateSubject inserts a newly observed subject, assigning an id if the
// caller did not.
func (s *Store) CreateSubject(ctx context.Context, subject *models.Subject) error {
	if subject.ID == "" {
		subject.ID = uuid.NewString()
	}
	if err := s.ensureUsers(ctx, subject.Assignees); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Create(subject).Error
}

// SaveSubject updates a subject's denormalized fields and replaces its
// assignee set with the one on the struct.
func (s *Store) SaveSubject(ctx context.Context, subject *models.Subject) error {
	if err := s.ensureUsers(ctx, subject.Assignees); err != nil {
		return err
	}
	db := s.db.WithContext(ctx)
	if err := db.Omit("Assignees").Save(subject).Error; err != nil {
		return err
	}
	assignees := make([]models.User, len(subject.Assignees))
	copy(assignees, subject.Assignees)
	return db.Model(subject).Association("Assignees").Replace(assignees)
}

// SoftDeleteSubject marks a subject deleted at the source. History survives.
func (s *Store) SoftDeleteSubject(ctx context.Context, subjectID string) error {
	return s.db.WithContext(ctx).Delete(&models.Subject{}, "id = ?", subjectID).Error
}

// ensureUsers upserts assignee/editor users so association rows have a target.
func (s *Store) ensureUsers(ctx context.Context, users []models.User) error {
	for i := range users {
		if users[i].ID == "" {
			return fmt.Errorf("user %q has no id", users[i].Name)
		}
		user := users[i]
		err := s.db.WithContext(ctx).
			Where("id = ?", user.ID).
			FirstOrCreate(&user).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// AppendEvent writes one history row.
func (s *Store) AppendEvent(ctx context.Context, event *models.Event) error {
	return s.db.WithContext(ctx).Create(event).Error
}

// LatestEvent returns the most recent history row for a subject and property,
// or (nil, nil) if none exists.
func (s *Store) LatestEvent(ctx context.Context, subjectID string, property models.Property) (*models.Event, error) {
	var event models.Event
	err := s.db.WithContext(ctx).
		Where("subject_id = ? AND property = ?", subjectID, property).
		Order("id DESC").
		First(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// HasHistory reports whether a NAME/CREATE row has ever been recorded for the
// subject. This, not the existence of the subject row, decides first-sync.
func (s *Store) HasHistory(ctx context.Context, subjectID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Event{}).
		Where("subject_id = ? AND property = ? AND action = ?",
			subjectID, models.PropertyName, models.ActionCreate).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// EventsForSubject returns a subject's history, most recent first.
func (s *Store) EventsForSubject(ctx context.Context, subjectID string, limit int) ([]models.Event, error) {
	q := s.db.WithContext(ctx).
		Where("subject_id = ?", subjectID).
		Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var events []models.Event
	if err := q.Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// Integrations returns a company's enabled chat tool integrations.
func (s *Store) Integrations(ctx context.Context, companyID string) ([]models.ChatToolIntegration, error) {
	var integrations []models.ChatToolIntegration
	err := s.db.WithContext(ctx).
		Where("company_id = ? AND enabled = ?", companyID, true).
		Find(&integrations).Error
	if err != nil {
		return nil, err
	}
	return integrations, nil
}

// Companies lists all tenants with their integrations.
func (s *Store) Companies(ctx context.Context) ([]models.Company, error) {
	var companies []models.Company
	err := s.db.WithContext(ctx).
		Preload("Integrations").
		Find(&companies).Error
	if err != nil {
		return nil, err
	}
	return companies, nil
}
