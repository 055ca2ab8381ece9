package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/schhatbar/Railway-Commuter/internal/domain"
)

// DeviceRepo stores push registration tokens.
type DeviceRepo interface {
	// Upsert registers the token, moving it to userID if another user held it.
	Upsert(ctx context.Context, d domain.DeviceToken) (domain.DeviceToken, error)

	// Delete removes the user's token. Returns domain.ErrNotFound if absent.
	Delete(ctx context.Context, userID, token string) error

	// TokensForUser returns every token registered to userID.
	TokensForUser(ctx context.Context, userID string) ([]string, error)

	// DeleteTokens removes tokens regardless of owner. Used to prune tokens the
	// push provider rejected.
	DeleteTokens(ctx context.Context, tokens []string) error
}

type pgDeviceRepo struct {
	db db
}

// NewDeviceRepo constructs a DeviceRepo backed by the provided db connection.
func NewDeviceRepo(db db) DeviceRepo {
	return &pgDeviceRepo{db: db}
}

func (r *pgDeviceRepo) Upsert(ctx context.Context, d domain.DeviceToken) (domain.DeviceToken, error) {
	const q = `
		INSERT INTO device_tokens (token, user_id, device_info)
		VALUES (@token, @user_id, @device_info)
		ON CONFLICT (token) DO UPDATE
		SET user_id = EXCLUDED.user_id, device_info = EXCLUDED.device_info
		RETURNING token, user_id, device_info, created_at`

	args := pgx.NamedArgs{"token": d.Token, "user_id": d.UserID, "device_info": d.DeviceInfo}

	var out domain.DeviceToken
	if err := r.db.QueryRow(ctx, q, args).Scan(&out.Token, &out.UserID, &out.DeviceInfo, &out.CreatedAt); err != nil {
		return domain.DeviceToken{}, fmt.Errorf("repo.DeviceRepo.Upsert: %w", classify(err))
	}
	return out, nil
}

func (r *pgDeviceRepo) Delete(ctx context.Context, userID, token string) error {
	const q = `DELETE FROM device_tokens WHERE token = @token AND user_id = @user_id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"token": token, "user_id": userID})
	if err != nil {
		return fmt.Errorf("repo.DeviceRepo.Delete: %w", classify(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.DeviceRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgDeviceRepo) TokensForUser(ctx context.Context, userID string) ([]string, error) {
	const q = `SELECT token FROM device_tokens WHERE user_id = @user_id ORDER BY created_at`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("repo.DeviceRepo.TokensForUser: %w", classify(err))
	}
	tokens, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("repo.DeviceRepo.TokensForUser: %w", classify(err))
	}
	return tokens, nil
}

func (r *pgDeviceRepo) DeleteTokens(ctx context.Context, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}
	const q = `DELETE FROM device_tokens WHERE token = ANY(@tokens)`

	if _, err := r.db.Exec(ctx, q, pgx.NamedArgs{"tokens": tokens}); err != nil {
		return fmt.Errorf("repo.DeviceRepo.DeleteTokens: %w", classify(err))
	}
	return nil
}
