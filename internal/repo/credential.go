package repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/schhatbar/Railway-Commuter/internal/domain"
)

// CredentialRepo stores email/password logins. Emails are compared
// case-insensitively by storing them lowercased.
type CredentialRepo interface {
	// Create inserts a credential. Returns domain.ErrConflict if the email is taken.
	Create(ctx context.Context, c domain.Credential) error

	// GetByEmail returns the credential for email, or domain.ErrNotFound.
	GetByEmail(ctx context.Context, email string) (domain.Credential, error)
}

type pgCredentialRepo struct {
	db db
}

// NewCredentialRepo constructs a CredentialRepo backed by the provided db connection.
func NewCredentialRepo(db db) CredentialRepo {
	return &pgCredentialRepo{db: db}
}

func (r *pgCredentialRepo) Create(ctx context.Context, c domain.Credential) error {
	const q = `
		INSERT INTO credentials (email, user_id, password_hash)
		VALUES (@email, @user_id, @password_hash)`

	args := pgx.NamedArgs{
		"email":         normalizeEmail(c.Email),
		"user_id":       c.UserID,
		"password_hash": c.PasswordHash,
	}
	if _, err := r.db.Exec(ctx, q, args); err != nil {
		return fmt.Errorf("repo.CredentialRepo.Create: %w", classify(err))
	}
	return nil
}

func (r *pgCredentialRepo) GetByEmail(ctx context.Context, email string) (domain.Credential, error) {
	const q = `
		SELECT user_id, email, password_hash, created_at
		FROM credentials
		WHERE email = @email`

	var c domain.Credential
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"email": normalizeEmail(email)}).
		Scan(&c.UserID, &c.Email, &c.PasswordHash, &c.CreatedAt)
	if err != nil {
		return domain.Credential{}, fmt.Errorf("repo.CredentialRepo.GetByEmail: %w", classify(err))
	}
	return c, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
