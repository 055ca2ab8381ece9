// Package repo contains all database access logic for the Railway Commuter API.
// Each resource has its own file with an interface and a Postgres implementation.
// Only SQL, type mapping, and error classification live here.
package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/schhatbar/Railway-Commuter/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test. Begin on a
// pgx.Tx opens a savepoint, so multi-statement writes nest cleanly.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// scanner is satisfied by both pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// SQLSTATE codes the repo layer translates into domain errors.
const (
	codeInsufficientPrivilege = "42501"
	codeForeignKeyViolation   = "23503"
	codeUniqueViolation       = "23505"
)

// permissionHint is the operator-facing remedy attached to ErrPermissionDenied.
const permissionHint = "database grants are not applied for this role; run the migrations as the owner and grant the app role access to the schema"

// classify translates driver errors into the domain error taxonomy so no
// caller above this package inspects SQLSTATE codes. Unknown errors are
// returned unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeInsufficientPrivilege:
			return fmt.Errorf("%w: %s (%s)", domain.ErrPermissionDenied, permissionHint, pgErr.Message)
		case codeForeignKeyViolation:
			return fmt.Errorf("%w: %s", domain.ErrNotFound, pgErr.ConstraintName)
		case codeUniqueViolation:
			return fmt.Errorf("%w: %s", domain.ErrConflict, pgErr.ConstraintName)
		}
	}
	return err
}

// inTx runs fn inside a transaction on d, committing on success.
func inTx(ctx context.Context, d db, fn func(tx pgx.Tx) error) error {
	tx, err := d.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
