// Package migrate applies the embedded schema migrations. Each migration is a
// pair of NNNN_name.up.sql / NNNN_name.down.sql files compiled into the binary,
// applied in lexical order and recorded in schema_migrations.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"
)

//go:embed sql/*.sql
var embedded embed.FS

const defaultTable = "schema_migrations"

// Record is one applied migration.
type Record struct {
	Name      string
	AppliedAt time.Time
}

// Runner applies and rolls back migrations against a single database.
type Runner struct {
	db    *sql.DB
	src   fs.FS
	table string
}

// Option configures Runner.
type Option func(*Runner)

// WithSource overrides the embedded migration files. Used by tests.
func WithSource(src fs.FS) Option {
	return func(r *Runner) { r.src = src }
}

// WithTable overrides the bookkeeping table name.
func WithTable(name string) Option {
	return func(r *Runner) {
		if name != "" {
			r.table = name
		}
	}
}

// NewRunner constructs a Runner over the embedded migrations.
func NewRunner(db *sql.DB, opts ...Option) *Runner {
	r := &Runner{db: db, src: embedded, table: defaultTable}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Up applies every pending migration and returns the names applied.
func (r *Runner) Up(ctx context.Context) ([]string, error) {
	if err := r.ensureTable(ctx); err != nil {
		return nil, err
	}
	done, err := r.applied(ctx)
	if err != nil {
		return nil, err
	}
	names, err := r.collect(".up.sql")
	if err != nil {
		return nil, err
	}
	var ran []string
	for _, name := range names {
		if done[name] {
			continue
		}
		if err := r.execFile(ctx, name); err != nil {
			return ran, fmt.Errorf("apply %s: %w", name, err)
		}
		if _, err := r.db.ExecContext(ctx,
			fmt.Sprintf(`insert into %s(name, applied_at) values ($1, $2)`, r.table),
			name, time.Now().UTC()); err != nil {
			return ran, err
		}
		ran = append(ran, name)
	}
	return ran, nil
}

// Down rolls back the most recently applied migration and returns its name.
func (r *Runner) Down(ctx context.Context) (string, error) {
	if err := r.ensureTable(ctx); err != nil {
		return "", err
	}
	history, err := r.Status(ctx)
	if err != nil {
		return "", err
	}
	if len(history) == 0 {
		return "", errors.New("no migrations applied")
	}
	last := history[len(history)-1].Name
	downName := strings.TrimSuffix(last, ".up.sql") + ".down.sql"
	if _, err := fs.Stat(r.src, "sql/"+downName); err != nil {
		return "", fmt.Errorf("missing down migration for %s", last)
	}
	if err := r.execFile(ctx, downName); err != nil {
		return "", fmt.Errorf("rollback %s: %w", last, err)
	}
	if _, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`delete from %s where name = $1`, r.table), last); err != nil {
		return "", err
	}
	return last, nil
}

// Status returns applied migrations in application order.
func (r *Runner) Status(ctx context.Context) ([]Record, error) {
	if err := r.ensureTable(ctx); err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx,
		fmt.Sprintf(`select name, applied_at from %s order by applied_at asc, name asc`, r.table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.Name, &rec.AppliedAt); err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}

// Pending returns migrations present in the source but not yet applied.
func (r *Runner) Pending(ctx context.Context) ([]string, error) {
	if err := r.ensureTable(ctx); err != nil {
		return nil, err
	}
	done, err := r.applied(ctx)
	if err != nil {
		return nil, err
	}
	names, err := r.collect(".up.sql")
	if err != nil {
		return nil, err
	}
	var res []string
	for _, name := range names {
		if !done[name] {
			res = append(res, name)
		}
	}
	return res, nil
}

func (r *Runner) ensureTable(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, fmt.Sprintf(`
		create table if not exists %s (
			name text primary key,
			applied_at timestamptz not null default now()
		)`, r.table))
	return err
}

func (r *Runner) applied(ctx context.Context) (map[string]bool, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`select name from %s`, r.table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		res[name] = true
	}
	return res, rows.Err()
}

func (r *Runner) collect(suffix string) ([]string, error) {
	entries, err := fs.ReadDir(r.src, "sql")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), suffix) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func (r *Runner) execFile(ctx context.Context, name string) error {
	raw, err := fs.ReadFile(r.src, "sql/"+name)
	if err != nil {
		return err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for _, stmt := range splitStatements(string(raw)) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// splitStatements splits a migration file on semicolons, honoring single-quoted
// strings and dropping line comments and blank statements.
func splitStatements(src string) []string {
	var stmts []string
	var cur strings.Builder
	inString := false
	lines := strings.Split(src, "\n")
	for _, line := range lines {
		if !inString && strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		for _, r := range line {
			switch r {
			case '\'':
				inString = !inString
				cur.WriteRune(r)
			case ';':
				if inString {
					cur.WriteRune(r)
					continue
				}
				if s := strings.TrimSpace(cur.String()); s != "" {
					stmts = append(stmts, s)
				}
				cur.Reset()
			default:
				cur.WriteRune(r)
			}
		}
		cur.WriteRune('\n')
	}
	if s := strings.TrimSpace(cur.String()); s != "" {
		stmts = append(stmts, s)
	}
	return stmts
}
