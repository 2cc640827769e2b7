package emergency

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"securegate.org/internal/ids"
)

// Service defines emergency lifecycle operations.
type Service interface {
	Create(ctx context.Context, authorID string, typ Type, location string) (Emergency, error)
	Get(ctx context.Context, id string) (Emergency, error)
	ListByAuthor(ctx context.Context, authorID string) ([]Emergency, error)
	ListActive(ctx context.Context) ([]Emergency, error)
	ListAll(ctx context.Context) ([]Emergency, error)
	ListByResponder(ctx context.Context, adminID string) ([]Emergency, error)
	Transition(ctx context.Context, id, actingAdminID string, to Status, notes string) (Emergency, error)
}

// ValidateCreate normalizes and checks the alert payload.
func ValidateCreate(typ *Type, location *string) error {
	*typ = Type(strings.TrimSpace(strings.ToLower(string(*typ))))
	*location = strings.TrimSpace(*location)
	if *typ == "" {
		return fmt.Errorf("%w: type is required", ErrInvalidInput)
	}
	if !typ.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidInput, *typ)
	}
	if *location == "" {
		return fmt.Errorf("%w: location is required", ErrInvalidInput)
	}
	return nil
}

// CheckTransition validates a requested status change against the forward
// graph active → responded → resolved.
func CheckTransition(from, to Status) error {
	if !to.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, to)
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// Apply mutates e in place for a validated transition by actingAdminID.
// The first admin action binds the responder; later transitions by a
// different admin are allowed but never overwrite the binding. Shared by the
// in-memory and Postgres implementations.
func Apply(e *Emergency, actingAdminID string, to Status, notes string, now time.Time) {
	e.Status = to
	if e.RespondingAdminID == "" {
		e.RespondingAdminID = actingAdminID
	}
	if strings.TrimSpace(notes) != "" {
		e.ResponseNotes = notes
	}
	if to == StatusResolved && e.ResolvedAt == nil {
		ts := now.UTC()
		e.ResolvedAt = &ts
	}
}

// InMemory implements Service with in-process concurrency safety.
type InMemory struct {
	mu          sync.RWMutex
	emergencies map[string]*Emergency
	now         func() time.Time
}

var _ Service = (*InMemory)(nil)

// NewInMemory creates an empty emergency store.
func NewInMemory() *InMemory {
	return &InMemory{
		emergencies: make(map[string]*Emergency),
		now:         time.Now,
	}
}

func (s *InMemory) Create(ctx context.Context, authorID string, typ Type, location string) (Emergency, error) {
	if strings.TrimSpace(authorID) == "" {
		return Emergency{}, fmt.Errorf("%w: author id is required", ErrInvalidInput)
	}
	if err := ValidateCreate(&typ, &location); err != nil {
		return Emergency{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e := &Emergency{
		ID:        ids.New(),
		AuthorID:  authorID,
		Type:      typ,
		Location:  location,
		Status:    StatusActive,
		CreatedAt: s.now().UTC(),
	}
	s.emergencies[e.ID] = e
	return *e, nil
}

func (s *InMemory) Get(ctx context.Context, id string) (Emergency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.emergencies[id]
	if !ok {
		return Emergency{}, ErrNotFound
	}
	return *e, nil
}

func (s *InMemory) ListByAuthor(ctx context.Context, authorID string) ([]Emergency, error) {
	return s.filter(func(e *Emergency) bool { return e.AuthorID == authorID }), nil
}

func (s *InMemory) ListActive(ctx context.Context) ([]Emergency, error) {
	return s.filter(func(e *Emergency) bool { return e.Status == StatusActive }), nil
}

func (s *InMemory) ListAll(ctx context.Context) ([]Emergency, error) {
	return s.filter(func(e *Emergency) bool { return true }), nil
}

func (s *InMemory) ListByResponder(ctx context.Context, adminID string) ([]Emergency, error) {
	return s.filter(func(e *Emergency) bool { return e.RespondingAdminID == adminID && adminID != "" }), nil
}

func (s *InMemory) Transition(ctx context.Context, id, actingAdminID string, to Status, notes string) (Emergency, error) {
	if strings.TrimSpace(actingAdminID) == "" {
		return Emergency{}, fmt.Errorf("%w: acting admin id is required", ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.emergencies[id]
	if !ok {
		return Emergency{}, ErrNotFound
	}
	if err := CheckTransition(e.Status, to); err != nil {
		return Emergency{}, err
	}
	Apply(e, actingAdminID, to, notes, s.now())
	return *e, nil
}

func (s *InMemory) filter(keep func(*Emergency) bool) []Emergency {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []Emergency
	for _, e := range s.emergencies {
		if keep(e) {
			res = append(res, *e)
		}
	}
	sort.Slice(res, func(i, j int) bool {
		if !res[i].CreatedAt.Equal(res[j].CreatedAt) {
			return res[i].CreatedAt.After(res[j].CreatedAt)
		}
		return res[i].ID > res[j].ID
	})
	return res
}
