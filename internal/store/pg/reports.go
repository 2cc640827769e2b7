package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"securegate.org/internal/ids"
	"securegate.org/internal/report"
)

// ReportStore is the reports view of the shared connection pool.
type ReportStore struct {
	db *sql.DB
}

var _ report.Service = (*ReportStore)(nil)

// Reports returns the report.Service backed by this store.
func (s *Store) Reports() *ReportStore { return &ReportStore{db: s.db} }

const reportColumns = `id, author_id, category, title, description, location,
	coalesce(evidence_ref,''), coalesce(victim_name,''), coalesce(victim_contact,''),
	status, coalesce(admin_response,''), created_at, updated_at`

func scanReport(row interface{ Scan(...any) error }) (report.Report, error) {
	var r report.Report
	var category, status string
	err := row.Scan(&r.ID, &r.AuthorID, &category, &r.Title, &r.Description, &r.Location,
		&r.EvidenceRef, &r.VictimName, &r.VictimContact,
		&status, &r.AdminResponse, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return report.Report{}, report.ErrNotFound
	}
	if err != nil {
		return report.Report{}, err
	}
	r.Category = report.Category(category)
	r.Status = report.Status(status)
	return r, nil
}

func (s *ReportStore) Create(ctx context.Context, authorID string, in report.CreateInput) (report.Report, error) {
	if strings.TrimSpace(authorID) == "" {
		return report.Report{}, fmt.Errorf("%w: author id is required", report.ErrInvalidInput)
	}
	if err := report.ValidateCreate(&in); err != nil {
		return report.Report{}, err
	}

	id := ids.New()
	now := time.Now().UTC()
	row := s.db.QueryRowContext(ctx, `
		insert into reports (id, author_id, category, title, description, location,
			evidence_ref, victim_name, victim_contact, status, created_at, updated_at)
		values ($1, $2, $3, $4, $5, $6, nullif($7,''), nullif($8,''), nullif($9,''), $10, $11, $11)
		returning `+reportColumns,
		id, authorID, string(in.Category), in.Title, in.Description, in.Location,
		in.EvidenceRef, in.VictimName, in.VictimContact, string(report.StatusPending), now)
	return scanReport(row)
}

func (s *ReportStore) Get(ctx context.Context, id string) (report.Report, error) {
	return scanReport(s.db.QueryRowContext(ctx, `select `+reportColumns+` from reports where id=$1`, id))
}

func (s *ReportStore) query(ctx context.Context, query string, args ...any) ([]report.Report, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []report.Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *ReportStore) ListByAuthor(ctx context.Context, authorID string) ([]report.Report, error) {
	return s.query(ctx, `select `+reportColumns+` from reports where author_id=$1 order by created_at desc, id desc`, authorID)
}

func (s *ReportStore) ListAll(ctx context.Context) ([]report.Report, error) {
	return s.query(ctx, `select `+reportColumns+` from reports order by created_at desc, id desc`)
}

func (s *ReportStore) ListByStatus(ctx context.Context, status report.Status) ([]report.Report, error) {
	return s.query(ctx, `select `+reportColumns+` from reports where status=$1 order by updated_at desc, id desc`, string(status))
}

// Transition performs the forward-only status change as a single conditional
// update keyed by id and the observed status. A concurrent transition makes
// the update match zero rows, which surfaces as ErrInvalidTransition.
func (s *ReportStore) Transition(ctx context.Context, id string, to report.Status, adminResponse string) (report.Report, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return report.Report{}, err
	}
	if err := report.CheckTransition(current.Status, to); err != nil {
		return report.Report{}, err
	}

	row := s.db.QueryRowContext(ctx, `
		update reports set
			status = $3,
			admin_response = coalesce(nullif($4,''), admin_response),
			updated_at = now()
		where id = $1 and status = $2
		returning `+reportColumns,
		id, string(current.Status), string(to), adminResponse)
	r, err := scanReport(row)
	if errors.Is(err, report.ErrNotFound) {
		return report.Report{}, fmt.Errorf("%w: concurrent update on %s", report.ErrInvalidTransition, id)
	}
	return r, err
}
