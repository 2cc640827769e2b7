package feedback

import (
	"context"
	"errors"
	"testing"
)

func TestCreateAndList(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	first, err := s.Create(ctx, "resident-a", "Gate light is broken", 3, "maintenance")
	if err != nil {
		t.Fatal(err)
	}
	if first.Rating != 3 || first.Category != "maintenance" {
		t.Fatalf("unexpected entry: %+v", first)
	}

	// Unrated feedback is allowed.
	if _, err := s.Create(ctx, "resident-b", "Thanks for the quick response", 0, ""); err != nil {
		t.Fatal(err)
	}

	all, err := s.ListAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(all))
	}
}

func TestValidation(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	if _, err := s.Create(ctx, "", "msg", 0, ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for missing author, got %v", err)
	}
	if _, err := s.Create(ctx, "resident-a", "   ", 0, ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank message, got %v", err)
	}
	for _, rating := range []int{-1, 6, 100} {
		if _, err := s.Create(ctx, "resident-a", "msg", rating, ""); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput for rating %d, got %v", rating, err)
		}
	}
}
