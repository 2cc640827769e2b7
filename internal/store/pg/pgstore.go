// Package pg persists users, reports, emergencies and feedback in PostgreSQL.
// Every lifecycle transition is a single conditional update keyed by primary
// id; read-committed semantics are sufficient for the polling contract.
package pg

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"securegate.org/internal/auth"
)

// Store owns the connection pool. The domain-specific views returned by
// Reports, Emergencies and Feedback share it; Store itself is the user store.
type Store struct {
	db *sql.DB
}

var _ auth.UserStore = (*Store)(nil)

// Open connects to PostgreSQL via the pgx stdlib driver.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Tuned pool defaults; adjust under load tests
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// NewWithDB wraps an existing connection. Used by tests.
func NewWithDB(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

const pgErrUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgErrUniqueViolation
	}
	// sqlmock cannot produce a PgError; fall back to the SQLSTATE text.
	return strings.Contains(err.Error(), pgErrUniqueViolation)
}

// --- auth.UserStore ---

func (s *Store) CreateUser(ctx context.Context, u *auth.User) error {
	_, err := s.db.ExecContext(ctx, `
		insert into users (id, name, email, password_hash, role, unit_number, phone_number, created_at)
		values ($1, $2, $3, $4, $5, nullif($6,''), nullif($7,''), $8)
	`, u.ID, u.Name, u.Email, u.PasswordHash, string(u.Role), u.UnitNumber, u.PhoneNumber, u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return auth.ErrConflict
		}
		return err
	}
	return nil
}

const userColumns = `id, name, email, password_hash, role, coalesce(unit_number,''), coalesce(phone_number,''), created_at`

func scanUser(row *sql.Row) (*auth.User, error) {
	var u auth.User
	var role string
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &u.UnitNumber, &u.PhoneNumber, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u.Role = auth.Role(role)
	return &u, nil
}

func (s *Store) FindUser(ctx context.Context, id string) (*auth.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `select `+userColumns+` from users where id=$1`, id))
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*auth.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `select `+userColumns+` from users where email=$1`, strings.ToLower(email)))
}

func (s *Store) UpdateUser(ctx context.Context, id string, upd auth.UserUpdate) (*auth.User, error) {
	row := s.db.QueryRowContext(ctx, `
		update users set
			name = coalesce($2, name),
			unit_number = coalesce($3, unit_number),
			phone_number = coalesce($4, phone_number)
		where id = $1
		returning `+userColumns, id, upd.Name, upd.UnitNumber, upd.PhoneNumber)
	return scanUser(row)
}
