package pg

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"securegate.org/internal/feedback"
	"securegate.org/internal/ids"
)

// FeedbackStore is the feedback view of the shared connection pool.
type FeedbackStore struct {
	db *sql.DB
}

var _ feedback.Service = (*FeedbackStore)(nil)

// Feedback returns the feedback.Service backed by this store.
func (s *Store) Feedback() *FeedbackStore { return &FeedbackStore{db: s.db} }

const feedbackColumns = `id, author_id, message, coalesce(rating,0), coalesce(category,''), submitted_at`

func (s *FeedbackStore) Create(ctx context.Context, authorID, message string, rating int, category string) (feedback.Entry, error) {
	if err := feedback.Validate(authorID, message, rating); err != nil {
		return feedback.Entry{}, err
	}

	row := s.db.QueryRowContext(ctx, `
		insert into feedback (id, author_id, message, rating, category, submitted_at)
		values ($1, $2, $3, nullif($4,0), nullif($5,''), $6)
		returning `+feedbackColumns,
		ids.New(), authorID, strings.TrimSpace(message), rating, strings.TrimSpace(category), time.Now().UTC())

	var e feedback.Entry
	err := row.Scan(&e.ID, &e.AuthorID, &e.Message, &e.Rating, &e.Category, &e.SubmittedAt)
	if err != nil {
		return feedback.Entry{}, err
	}
	return e, nil
}

func (s *FeedbackStore) ListAll(ctx context.Context) ([]feedback.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `select `+feedbackColumns+` from feedback order by submitted_at desc, id desc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []feedback.Entry
	for rows.Next() {
		var e feedback.Entry
		if err := rows.Scan(&e.ID, &e.AuthorID, &e.Message, &e.Rating, &e.Category, &e.SubmittedAt); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}
