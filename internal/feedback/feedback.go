// Package feedback stores resident feedback. Entries are append-only: there
// is no lifecycle and no mutation after submission.
package feedback

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"securegate.org/internal/ids"
)

// Entry is a single piece of submitted feedback. Rating is optional; zero
// means unrated.
type Entry struct {
	ID          string    `json:"id"`
	AuthorID    string    `json:"author_id"`
	Message     string    `json:"message"`
	Rating      int       `json:"rating,omitempty"`
	Category    string    `json:"category,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}

var ErrInvalidInput = errors.New("feedback: invalid input")

// Service defines feedback operations.
type Service interface {
	Create(ctx context.Context, authorID, message string, rating int, category string) (Entry, error)
	ListAll(ctx context.Context) ([]Entry, error)
}

// Validate checks the submission payload. Shared by implementations.
func Validate(authorID, message string, rating int) error {
	if strings.TrimSpace(authorID) == "" {
		return fmt.Errorf("%w: author id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(message) == "" {
		return fmt.Errorf("%w: message is required", ErrInvalidInput)
	}
	if rating != 0 && (rating < 1 || rating > 5) {
		return fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalidInput)
	}
	return nil
}

// InMemory implements Service with in-process concurrency safety.
type InMemory struct {
	mu      sync.RWMutex
	entries []Entry
	now     func() time.Time
}

var _ Service = (*InMemory)(nil)

// NewInMemory creates an empty feedback store.
func NewInMemory() *InMemory {
	return &InMemory{now: time.Now}
}

func (s *InMemory) Create(ctx context.Context, authorID, message string, rating int, category string) (Entry, error) {
	if err := Validate(authorID, message, rating); err != nil {
		return Entry{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	e := Entry{
		ID:          ids.New(),
		AuthorID:    authorID,
		Message:     strings.TrimSpace(message),
		Rating:      rating,
		Category:    strings.TrimSpace(category),
		SubmittedAt: s.now().UTC(),
	}
	s.entries = append(s.entries, e)
	return e, nil
}

func (s *InMemory) ListAll(ctx context.Context) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]Entry, len(s.entries))
	copy(res, s.entries)
	sort.Slice(res, func(i, j int) bool {
		if !res[i].SubmittedAt.Equal(res[j].SubmittedAt) {
			return res[i].SubmittedAt.After(res[j].SubmittedAt)
		}
		return res[i].ID > res[j].ID
	})
	return res, nil
}
