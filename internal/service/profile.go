package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/schhatbar/Railway-Commuter/internal/domain"
	"github.com/schhatbar/Railway-Commuter/internal/repo"
)

// ProfileService manages commuter profiles.
type ProfileService struct {
	users repo.UserRepo
	log   *slog.Logger
	now   func() time.Time
}

// NewProfileService constructs a ProfileService backed by the provided UserRepo.
func NewProfileService(users repo.UserRepo, log *slog.Logger) *ProfileService {
	return &ProfileService{users: users, log: log, now: time.Now}
}

// Bootstrap returns the stored profile for a freshly signed-in identity,
// creating it on first sign-in. If the profile can be neither read nor
// created, it logs a warning and returns an unpersisted profile built from
// the identity with Degraded set, so sign-in still succeeds. It never retries.
func (s *ProfileService) Bootstrap(ctx context.Context, id domain.Identity) domain.User {
	u, err := s.users.GetByID(ctx, id.UserID)
	if err == nil {
		return u
	}
	if errors.Is(err, domain.ErrNotFound) {
		u, err = s.create(ctx, id)
		if err == nil {
			return u
		}
	}

	s.log.WarnContext(ctx, "profile bootstrap failed; using in-memory profile",
		"user_id", id.UserID,
		"error", err,
	)
	fallback := domain.NewUserFromIdentity(id)
	fallback.CreatedAt = s.now().UTC()
	fallback.Degraded = true
	return fallback
}

// create inserts the initial profile and re-reads it. A concurrent first
// sign-in that wins the insert is treated as success.
func (s *ProfileService) create(ctx context.Context, id domain.Identity) (domain.User, error) {
	if _, err := s.users.Create(ctx, domain.NewUserFromIdentity(id)); err != nil && !errors.Is(err, domain.ErrConflict) {
		return domain.User{}, err
	}
	return s.users.GetByID(ctx, id.UserID)
}

// Get returns the stored profile. Returns domain.ErrNotFound if absent.
func (s *ProfileService) Get(ctx context.Context, userID string) (domain.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return domain.User{}, fmt.Errorf("service.ProfileService.Get: %w", err)
	}
	return u, nil
}

// Update applies a partial update and returns the stored profile.
// A display name, when given, must not be blank.
func (s *ProfileService) Update(ctx context.Context, userID string, upd domain.ProfileUpdate) (domain.User, error) {
	if upd.DisplayName != nil {
		name := strings.TrimSpace(*upd.DisplayName)
		if name == "" {
			return domain.User{}, fmt.Errorf("%w: display_name must not be blank", domain.ErrValidation)
		}
		upd.DisplayName = &name
	}
	if upd.PhoneNumber != nil {
		phone := strings.TrimSpace(*upd.PhoneNumber)
		upd.PhoneNumber = &phone
	}

	u, err := s.users.Update(ctx, userID, upd)
	if err != nil {
		return domain.User{}, fmt.Errorf("service.ProfileService.Update: %w", err)
	}
	return u, nil
}

// AddFrequentRoute saves a route to the profile, replacing any entry for the
// same train number.
func (s *ProfileService) AddFrequentRoute(ctx context.Context, userID string, route domain.FrequentRoute) (domain.User, error) {
	route.TrainNumber = strings.TrimSpace(route.TrainNumber)
	if route.TrainNumber == "" {
		return domain.User{}, fmt.Errorf("%w: train_number is required", domain.ErrValidation)
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return domain.User{}, fmt.Errorf("service.ProfileService.AddFrequentRoute: %w", err)
	}

	routes := withoutRoute(u.FrequentRoutes, route.TrainNumber)
	routes = append(routes, route)
	return s.saveRoutes(ctx, userID, routes, "AddFrequentRoute")
}

// RemoveFrequentRoute drops the entry for trainNumber. Removing a route that
// is not saved is a no-op.
func (s *ProfileService) RemoveFrequentRoute(ctx context.Context, userID, trainNumber string) (domain.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return domain.User{}, fmt.Errorf("service.ProfileService.RemoveFrequentRoute: %w", err)
	}
	return s.saveRoutes(ctx, userID, withoutRoute(u.FrequentRoutes, trainNumber), "RemoveFrequentRoute")
}

func (s *ProfileService) saveRoutes(ctx context.Context, userID string, routes []domain.FrequentRoute, op string) (domain.User, error) {
	u, err := s.users.Update(ctx, userID, domain.ProfileUpdate{FrequentRoutes: &routes})
	if err != nil {
		return domain.User{}, fmt.Errorf("service.ProfileService.%s: %w", op, err)
	}
	return u, nil
}

func withoutRoute(routes []domain.FrequentRoute, trainNumber string) []domain.FrequentRoute {
	out := make([]domain.FrequentRoute, 0, len(routes))
	for _, r := range routes {
		if r.TrainNumber != trainNumber {
			out = append(out, r)
		}
	}
	return out
}
