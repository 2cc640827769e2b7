package report

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"securegate.org/internal/ids"
)

// Service defines report lifecycle operations. Access control happens at the
// gate before any of these are invoked; the service itself only owns state.
type Service interface {
	Create(ctx context.Context, authorID string, in CreateInput) (Report, error)
	Get(ctx context.Context, id string) (Report, error)
	ListByAuthor(ctx context.Context, authorID string) ([]Report, error)
	ListAll(ctx context.Context) ([]Report, error)
	ListByStatus(ctx context.Context, status Status) ([]Report, error)
	Transition(ctx context.Context, id string, to Status, adminResponse string) (Report, error)
}

// ValidateCreate normalizes and checks a create payload. Shared by every
// Service implementation so the validation rules cannot drift.
func ValidateCreate(in *CreateInput) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Location = strings.TrimSpace(in.Location)
	in.Category = Category(strings.TrimSpace(strings.ToLower(string(in.Category))))

	if in.Category == "" {
		return fmt.Errorf("%w: category is required", ErrInvalidInput)
	}
	if !in.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidInput, in.Category)
	}
	if in.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if in.Description == "" {
		return fmt.Errorf("%w: description is required", ErrInvalidInput)
	}
	if in.Location == "" {
		return fmt.Errorf("%w: location is required", ErrInvalidInput)
	}
	return nil
}

// CheckTransition validates a requested status change against the forward-only
// graph. Returns ErrInvalidTransition for anything not reachable in one step.
func CheckTransition(from, to Status) error {
	if !to.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, to)
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// InMemory implements Service with in-process concurrency safety. Backs tests
// and DSN-less development runs; production uses the Postgres store.
type InMemory struct {
	mu      sync.RWMutex
	reports map[string]*Report
	now     func() time.Time
}

var _ Service = (*InMemory)(nil)

// NewInMemory creates an empty report store.
func NewInMemory() *InMemory {
	return &InMemory{
		reports: make(map[string]*Report),
		now:     time.Now,
	}
}

func (s *InMemory) Create(ctx context.Context, authorID string, in CreateInput) (Report, error) {
	if strings.TrimSpace(authorID) == "" {
		return Report{}, fmt.Errorf("%w: author id is required", ErrInvalidInput)
	}
	if err := ValidateCreate(&in); err != nil {
		return Report{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	r := &Report{
		ID:            ids.New(),
		AuthorID:      authorID,
		Category:      in.Category,
		Title:         in.Title,
		Description:   in.Description,
		Location:      in.Location,
		EvidenceRef:   in.EvidenceRef,
		VictimName:    in.VictimName,
		VictimContact: in.VictimContact,
		Status:        StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s.reports[r.ID] = r
	return *r, nil
}

func (s *InMemory) Get(ctx context.Context, id string) (Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reports[id]
	if !ok {
		return Report{}, ErrNotFound
	}
	return *r, nil
}

func (s *InMemory) ListByAuthor(ctx context.Context, authorID string) ([]Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []Report
	for _, r := range s.reports {
		if r.AuthorID == authorID {
			res = append(res, *r)
		}
	}
	sortNewestFirst(res)
	return res, nil
}

func (s *InMemory) ListAll(ctx context.Context) ([]Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]Report, 0, len(s.reports))
	for _, r := range s.reports {
		res = append(res, *r)
	}
	sortNewestFirst(res)
	return res, nil
}

func (s *InMemory) ListByStatus(ctx context.Context, status Status) ([]Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []Report
	for _, r := range s.reports {
		if r.Status == status {
			res = append(res, *r)
		}
	}
	// Status views serve the admin history, which orders by last touch.
	sort.Slice(res, func(i, j int) bool {
		if !res[i].UpdatedAt.Equal(res[j].UpdatedAt) {
			return res[i].UpdatedAt.After(res[j].UpdatedAt)
		}
		return res[i].ID > res[j].ID
	})
	return res, nil
}

func (s *InMemory) Transition(ctx context.Context, id string, to Status, adminResponse string) (Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[id]
	if !ok {
		return Report{}, ErrNotFound
	}
	if err := CheckTransition(r.Status, to); err != nil {
		return Report{}, err
	}
	r.Status = to
	if strings.TrimSpace(adminResponse) != "" {
		r.AdminResponse = adminResponse
	}
	r.UpdatedAt = s.now().UTC()
	return *r, nil
}

func sortNewestFirst(res []Report) {
	sort.Slice(res, func(i, j int) bool {
		if !res[i].CreatedAt.Equal(res[j].CreatedAt) {
			return res[i].CreatedAt.After(res[j].CreatedAt)
		}
		return res[i].ID > res[j].ID
	})
}
