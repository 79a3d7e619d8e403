package store

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/obata/taskwatch/internal/models"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	if err := migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return New(db)
}

func TestSubjectLifecycle(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	got, err := s.SubjectByExternalID(ctx, "c1", models.KindTodo, "ext-1")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for unknown subject, got %+v", got)
	}

	deadline := time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC)
	subject := &models.Subject{
		Kind:       models.KindTodo,
		CompanyID:  "c1",
		ExternalID: "ext-1",
		Name:       "write report",
		Deadline:   &deadline,
		Assignees:  []models.User{{ID: "u1", CompanyID: "c1", Name: "aoki"}},
	}
	if err := s.CreateSubject(ctx, subject); err != nil {
		t.Fatalf("create: %v", err)
	}
	if subject.ID == "" {
		t.Fatal("expected generated id")
	}

	got, err = s.SubjectByExternalID(ctx, "c1", models.KindTodo, "ext-1")
	if err != nil {
		t.Fatalf("lookup after create: %v", err)
	}
	if got == nil || got.Name != "write report" || len(got.Assignees) != 1 {
		t.Fatalf("unexpected subject: %+v", got)
	}

	// Replace the assignee set and flip done.
	got.IsDone = true
	got.Assignees = []models.User{{ID: "u2", CompanyID: "c1", Name: "sato"}}
	if err := s.SaveSubject(ctx, got); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err = s.SubjectByExternalID(ctx, "c1", models.KindTodo, "ext-1")
	if err != nil {
		t.Fatalf("lookup after save: %v", err)
	}
	if !got.IsDone || len(got.Assignees) != 1 || got.Assignees[0].ID != "u2" {
		t.Fatalf("save did not replace state: %+v", got)
	}
}

func TestHistoryAppendAndLatest(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	hasHistory, err := s.HasHistory(ctx, "s1")
	if err != nil {
		t.Fatalf("has history: %v", err)
	}
	if hasHistory {
		t.Fatal("expected no history for fresh subject")
	}

	rows := []models.Event{
		{SubjectID: "s1", Property: models.PropertyName, Action: models.ActionCreate},
		{SubjectID: "s1", Property: models.PropertyIsDelayed, Action: models.ActionCreate},
		{SubjectID: "s1", Property: models.PropertyIsDelayed, Action: models.ActionDelete},
		{SubjectID: "s2", Property: models.PropertyIsDelayed, Action: models.ActionCreate},
	}
	for i := range rows {
		if err := s.AppendEvent(ctx, &rows[i]); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	hasHistory, err = s.HasHistory(ctx, "s1")
	if err != nil {
		t.Fatalf("has history: %v", err)
	}
	if !hasHistory {
		t.Fatal("expected history after NAME/CREATE")
	}

	latest, err := s.LatestEvent(ctx, "s1", models.PropertyIsDelayed)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest == nil || latest.Action != models.ActionDelete {
		t.Fatalf("expected latest IS_DELAYED to be DELETE, got %+v", latest)
	}

	latest, err = s.LatestEvent(ctx, "s1", models.PropertyIsRecovered)
	if err != nil {
		t.Fatalf("latest recovered: %v", err)
	}
	if latest != nil {
		t.Fatalf("expected nil for property with no rows, got %+v", latest)
	}

	events, err := s.EventsForSubject(ctx, "s1", 0)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 rows for s1, got %d", len(events))
	}
	if events[0].Action != models.ActionDelete {
		t.Fatalf("expected most recent first, got %+v", events[0])
	}
}

func TestSoftDeleteKeepsHistory(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	subject := &models.Subject{Kind: models.KindProject, CompanyID: "c1", ExternalID: "p-1", Name: "launch"}
	if err := s.CreateSubject(ctx, subject); err != nil {
		t.Fatalf("create: %v", err)
	}
	event := &models.Event{SubjectID: subject.ID, Property: models.PropertyName, Action: models.ActionCreate}
	if err := s.AppendEvent(ctx, event); err != nil {
		t.Fatalf("append: %v", err)
	}

	if err := s.SoftDeleteSubject(ctx, subject.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	got, err := s.SubjectByExternalID(ctx, "c1", models.KindProject, "p-1")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got != nil {
		t.Fatalf("soft-deleted subject should not be returned, got %+v", got)
	}

	events, err := s.EventsForSubject(ctx, subject.ID, 0)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("history must survive subject deletion, got %d rows", len(events))
	}
}

func TestIntegrationsFiltersDisabled(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	company := &models.Company{ID: "c1", Name: "acme"}
	if err := s.db.WithContext(ctx).Create(company).Error; err != nil {
		t.Fatalf("create company: %v", err)
	}
	rows := []models.ChatToolIntegration{
		{CompanyID: "c1", ChatTool: models.ChatToolSlack, Channel: "#general", Enabled: true},
		{CompanyID: "c1", ChatTool: models.ChatToolLine, Channel: "line-room", Enabled: false},
		{CompanyID: "c2", ChatTool: models.ChatToolSlack, Channel: "#other", Enabled: true},
	}
	for i := range rows {
		if err := s.db.WithContext(ctx).Create(&rows[i]).Error; err != nil {
			t.Fatalf("create integration: %v", err)
		}
	}

	integrations, err := s.Integrations(ctx, "c1")
	if err != nil {
		t.Fatalf("integrations: %v", err)
	}
	if len(integrations) != 1 || integrations[0].ChatTool != models.ChatToolSlack {
		t.Fatalf("expected only the enabled slack integration, got %+v", integrations)
	}
}
