package emergency

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCreateStartsActive(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	e, err := s.Create(ctx, "resident-b", TypeFire, "Garage")
	if err != nil {
		t.Fatal(err)
	}
	if e.Status != StatusActive {
		t.Fatalf("expected active, got %s", e.Status)
	}
	if e.RespondingAdminID != "" {
		t.Fatalf("fresh emergency must have no responder: %+v", e)
	}
	if e.ResolvedAt != nil {
		t.Fatalf("fresh emergency must have no resolved_at: %+v", e)
	}
}

func TestCreateValidation(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	if _, err := s.Create(ctx, "resident-b", "", "Garage"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty type, got %v", err)
	}
	if _, err := s.Create(ctx, "resident-b", "tsunami", "Garage"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown type, got %v", err)
	}
	if _, err := s.Create(ctx, "resident-b", TypeFire, "  "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank location, got %v", err)
	}
}

func TestResponderBindingAndResolution(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	e, err := s.Create(ctx, "resident-b", TypeFire, "Garage")
	if err != nil {
		t.Fatal(err)
	}

	// Admin X responds: responder binds to X.
	responded, err := s.Transition(ctx, e.ID, "admin-x", StatusResponded, "On the way")
	if err != nil {
		t.Fatal(err)
	}
	if responded.RespondingAdminID != "admin-x" {
		t.Fatalf("responder not bound: %+v", responded)
	}
	if responded.ResolvedAt != nil {
		t.Fatalf("resolved_at stamped before resolution: %+v", responded)
	}

	// Admin Y resolves: allowed, but the binding stays with X.
	resolved, err := s.Transition(ctx, e.ID, "admin-y", StatusResolved, "")
	if err != nil {
		t.Fatal(err)
	}
	if resolved.RespondingAdminID != "admin-x" {
		t.Fatalf("responder overwritten: %+v", resolved)
	}
	if resolved.ResolvedAt == nil {
		t.Fatal("resolved_at not stamped")
	}
	if resolved.ResponseNotes != "On the way" {
		t.Fatalf("notes overwritten by empty value: %q", resolved.ResponseNotes)
	}

	// Resolved is terminal.
	for _, to := range []Status{StatusActive, StatusResponded, StatusResolved} {
		if _, err := s.Transition(ctx, e.ID, "admin-x", to, ""); !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("resolved -> %s should fail, got %v", to, err)
		}
	}
}

func TestSkippingRespondedIsRejected(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	e, _ := s.Create(ctx, "resident-b", TypeMedical, "Unit 3C")
	if _, err := s.Transition(ctx, e.ID, "admin-x", StatusResolved, ""); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("active -> resolved should fail, got %v", err)
	}
	got, _ := s.Get(ctx, e.ID)
	if got.Status != StatusActive || got.RespondingAdminID != "" {
		t.Fatalf("state changed after rejected transition: %+v", got)
	}
}

func TestResolvedAtStampedOnce(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	step := 0
	s.now = func() time.Time {
		step++
		return base.Add(time.Duration(step) * time.Minute)
	}

	e, _ := s.Create(ctx, "resident-b", TypeFire, "Garage")
	if _, err := s.Transition(ctx, e.ID, "admin-x", StatusResponded, ""); err != nil {
		t.Fatal(err)
	}
	resolved, err := s.Transition(ctx, e.ID, "admin-x", StatusResolved, "")
	if err != nil {
		t.Fatal(err)
	}
	want := base.Add(3 * time.Minute)
	if resolved.ResolvedAt == nil || !resolved.ResolvedAt.Equal(want) {
		t.Fatalf("unexpected resolved_at: %v, want %v", resolved.ResolvedAt, want)
	}
}

func TestActiveAndResponderViews(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	first, _ := s.Create(ctx, "resident-a", TypeGeneral, "Gate")
	second, _ := s.Create(ctx, "resident-b", TypeFire, "Garage")

	if _, err := s.Transition(ctx, second.ID, "admin-x", StatusResponded, ""); err != nil {
		t.Fatal(err)
	}

	active, err := s.ListActive(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 1 || active[0].ID != first.ID {
		t.Fatalf("unexpected active set: %+v", active)
	}

	mine, err := s.ListByResponder(ctx, "admin-x")
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 1 || mine[0].ID != second.ID {
		t.Fatalf("unexpected responder set: %+v", mine)
	}

	if none, _ := s.ListByResponder(ctx, ""); len(none) != 0 {
		t.Fatalf("empty responder id must match nothing: %+v", none)
	}
}

func TestListByAuthorIsolatesAuthors(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	if _, err := s.Create(ctx, "resident-a", TypeGeneral, "Gate"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Create(ctx, "resident-b", TypeFire, "Garage"); err != nil {
		t.Fatal(err)
	}

	own, err := s.ListByAuthor(ctx, "resident-a")
	if err != nil {
		t.Fatal(err)
	}
	if len(own) != 1 || own[0].AuthorID != "resident-a" {
		t.Fatalf("author isolation violated: %+v", own)
	}
}
