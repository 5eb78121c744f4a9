package apply

import (
	"context"
	"strings"
	"testing"

	"intern-hub/internal/model"
)

func TestApplyCreatesPendingApplication(t *testing.T) {
	t.Parallel()

	store := &stubStore{internships: map[uint]model.Internship{100: {ID: 100, Title: "Backend Intern"}}}
	svc := NewService(store)

	app, err := svc.Apply(context.Background(), 5, 100)
	if err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	if app.StudentID != 5 || app.InternshipID != 100 || app.Status != model.ApplicationPending {
		t.Fatalf("unexpected application: %+v", app)
	}
	if len(store.created) != 1 {
		t.Fatalf("expected one created application, got %d", len(store.created))
	}
}

func TestApplyRejectsUnknownInternship(t *testing.T) {
	t.Parallel()

	svc := NewService(&stubStore{})
	if _, err := svc.Apply(context.Background(), 5, 999); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestApplyRejectsDuplicate(t *testing.T) {
	t.Parallel()

	store := &stubStore{
		internships: map[uint]model.Internship{100: {ID: 100}},
		existing:    map[uint]bool{100: true},
	}
	svc := NewService(store)

	if _, err := svc.Apply(context.Background(), 5, 100); err == nil || !strings.Contains(err.Error(), "already applied") {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	if len(store.created) != 0 {
		t.Fatalf("duplicate must not create a row")
	}
}

// --- stubs ---

type stubStore struct {
	internships map[uint]model.Internship
	existing    map[uint]bool
	created     []model.Application
}

func (s *stubStore) InternshipByID(ctx context.Context, id uint) (*model.Internship, error) {
	if i, ok := s.internships[id]; ok {
		return &i, nil
	}
	return nil, nil
}

func (s *stubStore) HasApplication(ctx context.Context, studentID, internshipID uint) (bool, error) {
	return s.existing[internshipID], nil
}

func (s *stubStore) CreateApplication(ctx context.Context, app *model.Application) error {
	app.ID = uint(len(s.created) + 1)
	s.created = append(s.created, *app)
	return nil
}
