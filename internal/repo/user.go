package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/schhatbar/Railway-Commuter/internal/domain"
)

// UserRepo defines the persistence operations for user profiles.
type UserRepo interface {
	// GetByID returns the profile for userID, or domain.ErrNotFound.
	GetByID(ctx context.Context, userID string) (domain.User, error)

	// Create inserts a new profile. Returns domain.ErrConflict if one exists.
	Create(ctx context.Context, u domain.User) (domain.User, error)

	// Update applies the non-nil fields of upd and returns the stored profile.
	Update(ctx context.Context, userID string, upd domain.ProfileUpdate) (domain.User, error)
}

type pgUserRepo struct {
	db db
}

// NewUserRepo constructs a UserRepo backed by the provided db connection.
func NewUserRepo(db db) UserRepo {
	return &pgUserRepo{db: db}
}

const userColumns = `user_id, email, display_name, phone_number, frequent_routes, created_at`

func (r *pgUserRepo) GetByID(ctx context.Context, userID string) (domain.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE user_id = @user_id`

	u, err := scanUser(r.db.QueryRow(ctx, q, pgx.NamedArgs{"user_id": userID}))
	if err != nil {
		return domain.User{}, fmt.Errorf("repo.UserRepo.GetByID: %w", classify(err))
	}
	return u, nil
}

func (r *pgUserRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	const q = `
		INSERT INTO users (user_id, email, display_name, phone_number, frequent_routes)
		VALUES (@user_id, @email, @display_name, @phone_number, @frequent_routes)
		RETURNING ` + userColumns

	routes, err := marshalRoutes(u.FrequentRoutes)
	if err != nil {
		return domain.User{}, fmt.Errorf("repo.UserRepo.Create: %w", err)
	}

	args := pgx.NamedArgs{
		"user_id":         u.UserID,
		"email":           u.Email,
		"display_name":    u.DisplayName,
		"phone_number":    u.PhoneNumber,
		"frequent_routes": routes,
	}

	created, err := scanUser(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.User{}, fmt.Errorf("repo.UserRepo.Create: %w", classify(err))
	}
	return created, nil
}

func (r *pgUserRepo) Update(ctx context.Context, userID string, upd domain.ProfileUpdate) (domain.User, error) {
	const q = `
		UPDATE users
		SET display_name    = COALESCE(@display_name, display_name),
		    phone_number    = COALESCE(@phone_number, phone_number),
		    frequent_routes = COALESCE(@frequent_routes::jsonb, frequent_routes)
		WHERE user_id = @user_id
		RETURNING ` + userColumns

	var routes []byte
	if upd.FrequentRoutes != nil {
		b, err := marshalRoutes(*upd.FrequentRoutes)
		if err != nil {
			return domain.User{}, fmt.Errorf("repo.UserRepo.Update: %w", err)
		}
		routes = b
	}

	args := pgx.NamedArgs{
		"user_id":         userID,
		"display_name":    upd.DisplayName, // nil keeps the stored value
		"phone_number":    upd.PhoneNumber,
		"frequent_routes": routes,
	}

	updated, err := scanUser(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.User{}, fmt.Errorf("repo.UserRepo.Update: %w", classify(err))
	}
	return updated, nil
}

func marshalRoutes(routes []domain.FrequentRoute) ([]byte, error) {
	if routes == nil {
		routes = []domain.FrequentRoute{}
	}
	return json.Marshal(routes)
}

func scanUser(s scanner) (domain.User, error) {
	var (
		u      domain.User
		routes []byte
	)
	if err := s.Scan(&u.UserID, &u.Email, &u.DisplayName, &u.PhoneNumber, &routes, &u.CreatedAt); err != nil {
		return domain.User{}, err
	}
	u.FrequentRoutes = []domain.FrequentRoute{}
	if len(routes) > 0 {
		if err := json.Unmarshal(routes, &u.FrequentRoutes); err != nil {
			return domain.User{}, fmt.Errorf("decode frequent_routes: %w", err)
		}
	}
	return u, nil
}
