package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"securegate.org/internal/emergency"
	"securegate.org/internal/ids"
)

// EmergencyStore is the emergencies view of the shared connection pool.
type EmergencyStore struct {
	db *sql.DB
}

var _ emergency.Service = (*EmergencyStore)(nil)

// Emergencies returns the emergency.Service backed by this store.
func (s *Store) Emergencies() *EmergencyStore { return &EmergencyStore{db: s.db} }

const emergencyColumns = `id, author_id, type, location, status,
	coalesce(responding_admin_id,''), coalesce(response_notes,''), created_at, resolved_at`

func scanEmergency(row interface{ Scan(...any) error }) (emergency.Emergency, error) {
	var e emergency.Emergency
	var typ, status string
	var resolvedAt sql.NullTime
	err := row.Scan(&e.ID, &e.AuthorID, &typ, &e.Location, &status,
		&e.RespondingAdminID, &e.ResponseNotes, &e.CreatedAt, &resolvedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return emergency.Emergency{}, emergency.ErrNotFound
	}
	if err != nil {
		return emergency.Emergency{}, err
	}
	e.Type = emergency.Type(typ)
	e.Status = emergency.Status(status)
	if resolvedAt.Valid {
		ts := resolvedAt.Time
		e.ResolvedAt = &ts
	}
	return e, nil
}

func (s *EmergencyStore) Create(ctx context.Context, authorID string, typ emergency.Type, location string) (emergency.Emergency, error) {
	if strings.TrimSpace(authorID) == "" {
		return emergency.Emergency{}, fmt.Errorf("%w: author id is required", emergency.ErrInvalidInput)
	}
	if err := emergency.ValidateCreate(&typ, &location); err != nil {
		return emergency.Emergency{}, err
	}

	row := s.db.QueryRowContext(ctx, `
		insert into emergencies (id, author_id, type, location, status, created_at)
		values ($1, $2, $3, $4, $5, $6)
		returning `+emergencyColumns,
		ids.New(), authorID, string(typ), location, string(emergency.StatusActive), time.Now().UTC())
	return scanEmergency(row)
}

func (s *EmergencyStore) Get(ctx context.Context, id string) (emergency.Emergency, error) {
	return scanEmergency(s.db.QueryRowContext(ctx, `select `+emergencyColumns+` from emergencies where id=$1`, id))
}

func (s *EmergencyStore) query(ctx context.Context, query string, args ...any) ([]emergency.Emergency, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []emergency.Emergency
	for rows.Next() {
		e, err := scanEmergency(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *EmergencyStore) ListByAuthor(ctx context.Context, authorID string) ([]emergency.Emergency, error) {
	return s.query(ctx, `select `+emergencyColumns+` from emergencies where author_id=$1 order by created_at desc, id desc`, authorID)
}

func (s *EmergencyStore) ListActive(ctx context.Context) ([]emergency.Emergency, error) {
	return s.query(ctx, `select `+emergencyColumns+` from emergencies where status=$1 order by created_at desc, id desc`, string(emergency.StatusActive))
}

func (s *EmergencyStore) ListAll(ctx context.Context) ([]emergency.Emergency, error) {
	return s.query(ctx, `select `+emergencyColumns+` from emergencies order by created_at desc, id desc`)
}

func (s *EmergencyStore) ListByResponder(ctx context.Context, adminID string) ([]emergency.Emergency, error) {
	if adminID == "" {
		return nil, nil
	}
	return s.query(ctx, `select `+emergencyColumns+` from emergencies where responding_admin_id=$1 order by created_at desc, id desc`, adminID)
}

// Transition mirrors the report transition: validate against the snapshot,
// then one conditional update. The responder binding and the resolved_at
// stamp are guarded in SQL so neither can be overwritten.
func (s *EmergencyStore) Transition(ctx context.Context, id, actingAdminID string, to emergency.Status, notes string) (emergency.Emergency, error) {
	if strings.TrimSpace(actingAdminID) == "" {
		return emergency.Emergency{}, fmt.Errorf("%w: acting admin id is required", emergency.ErrInvalidInput)
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return emergency.Emergency{}, err
	}
	if err := emergency.CheckTransition(current.Status, to); err != nil {
		return emergency.Emergency{}, err
	}

	row := s.db.QueryRowContext(ctx, `
		update emergencies set
			status = $3,
			responding_admin_id = coalesce(responding_admin_id, $4),
			response_notes = coalesce(nullif($5,''), response_notes),
			resolved_at = case when $3 = 'resolved' then coalesce(resolved_at, now()) else resolved_at end
		where id = $1 and status = $2
		returning `+emergencyColumns,
		id, string(current.Status), string(to), actingAdminID, notes)
	e, err := scanEmergency(row)
	if errors.Is(err, emergency.ErrNotFound) {
		return emergency.Emergency{}, fmt.Errorf("%w: concurrent update on %s", emergency.ErrInvalidTransition, id)
	}
	return e, err
}
