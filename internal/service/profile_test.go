package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schhatbar/Railway-Commuter/internal/domain"
	"github.com/schhatbar/Railway-Commuter/internal/service"
)

func identityFixture() domain.Identity {
	return domain.Identity{UserID: "u-1", Email: "asha@example.com", DisplayName: "Asha"}
}

// memUserRepo is a mockUserRepo backed by a map.
func memUserRepo() *mockUserRepo {
	rows := map[string]domain.User{}
	return &mockUserRepo{
		getByID: func(_ context.Context, id string) (domain.User, error) {
			u, ok := rows[id]
			if !ok {
				return domain.User{}, domain.ErrNotFound
			}
			return u, nil
		},
		create: func(_ context.Context, u domain.User) (domain.User, error) {
			if _, ok := rows[u.UserID]; ok {
				return domain.User{}, domain.ErrConflict
			}
			rows[u.UserID] = u
			return u, nil
		},
		update: func(_ context.Context, id string, upd domain.ProfileUpdate) (domain.User, error) {
			u, ok := rows[id]
			if !ok {
				return domain.User{}, domain.ErrNotFound
			}
			if upd.DisplayName != nil {
				u.DisplayName = *upd.DisplayName
			}
			if upd.PhoneNumber != nil {
				u.PhoneNumber = *upd.PhoneNumber
			}
			if upd.FrequentRoutes != nil {
				u.FrequentRoutes = *upd.FrequentRoutes
			}
			rows[id] = u
			return u, nil
		},
	}
}

func TestProfileService_Bootstrap_Existing(t *testing.T) {
	users := memUserRepo()
	_, err := users.create(context.Background(), domain.User{UserID: "u-1", DisplayName: "Stored Name"})
	require.NoError(t, err)
	svc := service.NewProfileService(users, discardLogger())

	got := svc.Bootstrap(context.Background(), identityFixture())

	assert.Equal(t, "Stored Name", got.DisplayName, "existing profile wins over identity fields")
	assert.False(t, got.Degraded)
}

func TestProfileService_Bootstrap_CreatesOnFirstSignIn(t *testing.T) {
	users := memUserRepo()
	svc := service.NewProfileService(users, discardLogger())

	got := svc.Bootstrap(context.Background(), identityFixture())

	assert.Equal(t, "u-1", got.UserID)
	assert.Equal(t, "asha@example.com", got.Email)
	assert.Equal(t, "Asha", got.DisplayName)
	assert.Empty(t, got.PhoneNumber)
	assert.NotNil(t, got.FrequentRoutes)
	assert.False(t, got.Degraded)

	stored, err := users.getByID(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, "Asha", stored.DisplayName)
}

func TestProfileService_Bootstrap_CreateFailsFallsBack(t *testing.T) {
	calls := 0
	users := &mockUserRepo{
		getByID: func(context.Context, string) (domain.User, error) { return domain.User{}, domain.ErrNotFound },
		create: func(context.Context, domain.User) (domain.User, error) {
			calls++
			return domain.User{}, domain.ErrPermissionDenied
		},
	}
	svc := service.NewProfileService(users, discardLogger())

	got := svc.Bootstrap(context.Background(), identityFixture())

	assert.True(t, got.Degraded)
	assert.Equal(t, "u-1", got.UserID)
	assert.Equal(t, "Asha", got.DisplayName)
	assert.False(t, got.CreatedAt.IsZero())
	assert.Equal(t, 1, calls, "creation is never retried")
}

func TestProfileService_Bootstrap_ReadFailsFallsBack(t *testing.T) {
	users := &mockUserRepo{
		getByID: func(context.Context, string) (domain.User, error) { return domain.User{}, errors.New("timeout") },
	}
	svc := service.NewProfileService(users, discardLogger())

	got := svc.Bootstrap(context.Background(), identityFixture())

	assert.True(t, got.Degraded)
}

func TestProfileService_Update_BlankNameRejected(t *testing.T) {
	svc := service.NewProfileService(memUserRepo(), discardLogger())
	blank := "   "

	_, err := svc.Update(context.Background(), "u-1", domain.ProfileUpdate{DisplayName: &blank})

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestProfileService_FrequentRoutes(t *testing.T) {
	users := memUserRepo()
	svc := service.NewProfileService(users, discardLogger())
	ctx := context.Background()
	svc.Bootstrap(ctx, identityFixture())

	_, err := svc.AddFrequentRoute(ctx, "u-1", domain.FrequentRoute{TrainNumber: "12301", TrainName: "Rajdhani Express"})
	require.NoError(t, err)
	_, err = svc.AddFrequentRoute(ctx, "u-1", domain.FrequentRoute{TrainNumber: "12951"})
	require.NoError(t, err)
	got, err := svc.AddFrequentRoute(ctx, "u-1", domain.FrequentRoute{TrainNumber: "12301", TrainName: "Rajdhani"})
	require.NoError(t, err)

	require.Len(t, got.FrequentRoutes, 2, "re-adding replaces the existing entry")
	assert.Equal(t, "12951", got.FrequentRoutes[0].TrainNumber)
	assert.Equal(t, "Rajdhani", got.FrequentRoutes[1].TrainName)

	got, err = svc.RemoveFrequentRoute(ctx, "u-1", "12951")
	require.NoError(t, err)
	require.Len(t, got.FrequentRoutes, 1)
	assert.Equal(t, "12301", got.FrequentRoutes[0].TrainNumber)
}

func TestProfileService_AddFrequentRoute_RequiresTrain(t *testing.T) {
	svc := service.NewProfileService(memUserRepo(), discardLogger())

	_, err := svc.AddFrequentRoute(context.Background(), "u-1", domain.FrequentRoute{})

	assert.ErrorIs(t, err, domain.ErrValidation)
}
