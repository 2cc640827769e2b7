// Command migrate manages the database schema and bootstraps the first
// administrator account.
//
// Usage:
//
//	migrate [-dsn ...] up|down|status|pending
//	migrate [-dsn ...] seed-admin -email ... -name ...
//
// seed-admin reads the password from SECUREGATE_ADMIN_PASSWORD so it never
// appears in shell history.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"securegate.org/internal/auth"
	"securegate.org/internal/ids"
	"securegate.org/internal/migrate"
	"securegate.org/internal/store/pg"
)

func main() {
	log.SetFlags(0)
	_ = godotenv.Load()

	var (
		dsn        = flag.String("dsn", os.Getenv("SECUREGATE_PG_DSN"), "PostgreSQL DSN")
		adminEmail = flag.String("email", "", "admin email for seed-admin")
		adminName  = flag.String("name", "Site Administrator", "admin display name for seed-admin")
	)
	flag.Parse()

	if *dsn == "" {
		log.Fatal("missing DSN: provide via -dsn or SECUREGATE_PG_DSN")
	}
	if len(flag.Args()) == 0 {
		log.Fatal("usage: migrate [up|down|status|pending|seed-admin]")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	runner := migrate.NewRunner(db)

	switch cmd := flag.Arg(0); cmd {
	case "up":
		ran, err := runner.Up(ctx)
		if err != nil {
			log.Fatalf("migrate up: %v", err)
		}
		for _, name := range ran {
			fmt.Println("applied", name)
		}
		if len(ran) == 0 {
			fmt.Println("nothing to apply")
		}
	case "down":
		name, err := runner.Down(ctx)
		if err != nil {
			log.Fatalf("migrate down: %v", err)
		}
		fmt.Println("rolled back", name)
	case "status":
		history, err := runner.Status(ctx)
		if err != nil {
			log.Fatalf("migrate status: %v", err)
		}
		for _, rec := range history {
			fmt.Printf("%s\t%s\n", rec.Name, rec.AppliedAt.Format(time.RFC3339))
		}
	case "pending":
		names, err := runner.Pending(ctx)
		if err != nil {
			log.Fatalf("migrate pending: %v", err)
		}
		for _, name := range names {
			fmt.Println(name)
		}
	case "seed-admin":
		if err := seedAdmin(ctx, db, *adminEmail, *adminName); err != nil {
			log.Fatalf("seed-admin: %v", err)
		}
	default:
		log.Fatalf("unknown command %q", cmd)
	}
}

func seedAdmin(ctx context.Context, db *sql.DB, email, name string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return errors.New("-email is required")
	}
	password := os.Getenv("SECUREGATE_ADMIN_PASSWORD")
	if len(password) < 8 {
		return errors.New("SECUREGATE_ADMIN_PASSWORD must be at least 8 characters")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	store := pg.NewWithDB(db)
	err = store.CreateUser(ctx, &auth.User{
		ID:           ids.New(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         auth.RoleAdmin,
		CreatedAt:    time.Now().UTC(),
	})
	if errors.Is(err, auth.ErrConflict) {
		return fmt.Errorf("account %s already exists", email)
	}
	if err != nil {
		return err
	}
	fmt.Println("created admin account", email)
	return nil
}
