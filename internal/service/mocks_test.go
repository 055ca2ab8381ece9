package service_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/schhatbar/Railway-Commuter/internal/domain"
	"github.com/schhatbar/Railway-Commuter/internal/repo"
)

// Hand-written test doubles. Each method is a function field; set only the
// ones a test needs.

type mockTrainRepo struct {
	getByNumber func(ctx context.Context, number string) (domain.Train, error)
	list        func(ctx context.Context) ([]domain.Train, error)
}

func (m *mockTrainRepo) GetByNumber(ctx context.Context, number string) (domain.Train, error) {
	return m.getByNumber(ctx, number)
}
func (m *mockTrainRepo) List(ctx context.Context) ([]domain.Train, error) {
	return m.list(ctx)
}

var _ repo.TrainRepo = (*mockTrainRepo)(nil)

type mockUserRepo struct {
	getByID func(ctx context.Context, userID string) (domain.User, error)
	create  func(ctx context.Context, u domain.User) (domain.User, error)
	update  func(ctx context.Context, userID string, upd domain.ProfileUpdate) (domain.User, error)
}

func (m *mockUserRepo) GetByID(ctx context.Context, userID string) (domain.User, error) {
	return m.getByID(ctx, userID)
}
func (m *mockUserRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	return m.create(ctx, u)
}
func (m *mockUserRepo) Update(ctx context.Context, userID string, upd domain.ProfileUpdate) (domain.User, error) {
	return m.update(ctx, userID, upd)
}

var _ repo.UserRepo = (*mockUserRepo)(nil)

type mockCredentialRepo struct {
	create     func(ctx context.Context, c domain.Credential) error
	getByEmail func(ctx context.Context, email string) (domain.Credential, error)
}

func (m *mockCredentialRepo) Create(ctx context.Context, c domain.Credential) error {
	return m.create(ctx, c)
}
func (m *mockCredentialRepo) GetByEmail(ctx context.Context, email string) (domain.Credential, error) {
	return m.getByEmail(ctx, email)
}

var _ repo.CredentialRepo = (*mockCredentialRepo)(nil)

type mockGroupRepo struct {
	create              func(ctx context.Context, g domain.Group) (domain.Group, error)
	getByID             func(ctx context.Context, id uuid.UUID) (domain.Group, error)
	getByCode           func(ctx context.Context, code string, activeOnly bool) (domain.Group, error)
	listActiveForMember func(ctx context.Context, userID string) ([]domain.Group, error)
	addMember           func(ctx context.Context, groupID uuid.UUID, m domain.GroupMember) (bool, error)
	removeMember        func(ctx context.Context, groupID uuid.UUID, userID string) error
	updateMemberSeat    func(ctx context.Context, groupID uuid.UUID, userID, coach, seat string) error
	delete              func(ctx context.Context, id uuid.UUID) (int64, error)
}

func (m *mockGroupRepo) Create(ctx context.Context, g domain.Group) (domain.Group, error) {
	return m.create(ctx, g)
}
func (m *mockGroupRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Group, error) {
	return m.getByID(ctx, id)
}
func (m *mockGroupRepo) GetByCode(ctx context.Context, code string, activeOnly bool) (domain.Group, error) {
	return m.getByCode(ctx, code, activeOnly)
}
func (m *mockGroupRepo) ListActiveForMember(ctx context.Context, userID string) ([]domain.Group, error) {
	return m.listActiveForMember(ctx, userID)
}
func (m *mockGroupRepo) AddMember(ctx context.Context, groupID uuid.UUID, mem domain.GroupMember) (bool, error) {
	return m.addMember(ctx, groupID, mem)
}
func (m *mockGroupRepo) RemoveMember(ctx context.Context, groupID uuid.UUID, userID string) error {
	return m.removeMember(ctx, groupID, userID)
}
func (m *mockGroupRepo) UpdateMemberSeat(ctx context.Context, groupID uuid.UUID, userID, coach, seat string) error {
	return m.updateMemberSeat(ctx, groupID, userID, coach, seat)
}
func (m *mockGroupRepo) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	return m.delete(ctx, id)
}

var _ repo.GroupRepo = (*mockGroupRepo)(nil)

// memGroupRepo returns a mockGroupRepo whose functions share an in-memory
// table, for tests that exercise several operations in sequence.
func memGroupRepo() (*mockGroupRepo, map[uuid.UUID]*domain.Group) {
	var mu sync.Mutex
	rows := map[uuid.UUID]*domain.Group{}

	get := func(id uuid.UUID) (domain.Group, error) {
		g, ok := rows[id]
		if !ok {
			return domain.Group{}, domain.ErrNotFound
		}
		out := *g
		out.Members = append([]domain.GroupMember(nil), g.Members...)
		return out, nil
	}

	m := &mockGroupRepo{
		create: func(_ context.Context, g domain.Group) (domain.Group, error) {
			mu.Lock()
			defer mu.Unlock()
			g.ID = uuid.New()
			g.CreatedAt = time.Now()
			rows[g.ID] = &g
			return get(g.ID)
		},
		getByID: func(_ context.Context, id uuid.UUID) (domain.Group, error) {
			mu.Lock()
			defer mu.Unlock()
			return get(id)
		},
		getByCode: func(_ context.Context, code string, activeOnly bool) (domain.Group, error) {
			mu.Lock()
			defer mu.Unlock()
			for id, g := range rows {
				if g.Code == code && (g.IsActive || !activeOnly) {
					return get(id)
				}
			}
			return domain.Group{}, domain.ErrNotFound
		},
		addMember: func(_ context.Context, id uuid.UUID, mem domain.GroupMember) (bool, error) {
			mu.Lock()
			defer mu.Unlock()
			g, ok := rows[id]
			if !ok {
				return false, domain.ErrNotFound
			}
			if g.HasMember(mem.UserID) {
				return false, nil
			}
			g.Members = append(g.Members, mem)
			return true, nil
		},
		removeMember: func(_ context.Context, id uuid.UUID, userID string) error {
			mu.Lock()
			defer mu.Unlock()
			if g, ok := rows[id]; ok {
				kept := g.Members[:0]
				for _, mem := range g.Members {
					if mem.UserID != userID {
						kept = append(kept, mem)
					}
				}
				g.Members = kept
			}
			return nil
		},
		updateMemberSeat: func(_ context.Context, id uuid.UUID, userID, coach, seat string) error {
			mu.Lock()
			defer mu.Unlock()
			if g, ok := rows[id]; ok {
				for i := range g.Members {
					if g.Members[i].UserID == userID {
						g.Members[i].CoachNumber = coach
						g.Members[i].SeatNumber = seat
						g.Members[i].JoiningFromNextStation = false
					}
				}
			}
			return nil
		},
		delete: func(_ context.Context, id uuid.UUID) (int64, error) {
			mu.Lock()
			defer mu.Unlock()
			if _, ok := rows[id]; !ok {
				return 0, domain.ErrNotFound
			}
			delete(rows, id)
			return 0, nil
		},
	}
	return m, rows
}

type mockMessageRepo struct {
	create        func(ctx context.Context, m domain.ChatMessage) (domain.ChatMessage, error)
	listOrdered   func(ctx context.Context, groupID uuid.UUID) ([]domain.ChatMessage, error)
	listUnordered func(ctx context.Context, groupID uuid.UUID) ([]domain.ChatMessage, error)
}

func (m *mockMessageRepo) Create(ctx context.Context, msg domain.ChatMessage) (domain.ChatMessage, error) {
	return m.create(ctx, msg)
}
func (m *mockMessageRepo) ListOrdered(ctx context.Context, groupID uuid.UUID) ([]domain.ChatMessage, error) {
	return m.listOrdered(ctx, groupID)
}
func (m *mockMessageRepo) ListUnordered(ctx context.Context, groupID uuid.UUID) ([]domain.ChatMessage, error) {
	return m.listUnordered(ctx, groupID)
}

var _ repo.MessageRepo = (*mockMessageRepo)(nil)

type mockReminderRepo struct {
	create     func(ctx context.Context, r domain.JourneyReminder) (domain.JourneyReminder, error)
	listByUser func(ctx context.Context, userID string) ([]domain.JourneyReminder, error)
	setActive  func(ctx context.Context, userID string, id uuid.UUID, active bool) (domain.JourneyReminder, error)
	delete     func(ctx context.Context, userID string, id uuid.UUID) error
	claimDue   func(ctx context.Context, now time.Time, limit int) ([]domain.JourneyReminder, error)
}

func (m *mockReminderRepo) Create(ctx context.Context, r domain.JourneyReminder) (domain.JourneyReminder, error) {
	return m.create(ctx, r)
}
func (m *mockReminderRepo) ListByUser(ctx context.Context, userID string) ([]domain.JourneyReminder, error) {
	return m.listByUser(ctx, userID)
}
func (m *mockReminderRepo) SetActive(ctx context.Context, userID string, id uuid.UUID, active bool) (domain.JourneyReminder, error) {
	return m.setActive(ctx, userID, id, active)
}
func (m *mockReminderRepo) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	return m.delete(ctx, userID, id)
}
func (m *mockReminderRepo) ClaimDue(ctx context.Context, now time.Time, limit int) ([]domain.JourneyReminder, error) {
	return m.claimDue(ctx, now, limit)
}

var _ repo.ReminderRepo = (*mockReminderRepo)(nil)

type mockDeviceRepo struct {
	upsert        func(ctx context.Context, d domain.DeviceToken) (domain.DeviceToken, error)
	delete        func(ctx context.Context, userID, token string) error
	tokensForUser func(ctx context.Context, userID string) ([]string, error)
	deleteTokens  func(ctx context.Context, tokens []string) error
}

func (m *mockDeviceRepo) Upsert(ctx context.Context, d domain.DeviceToken) (domain.DeviceToken, error) {
	return m.upsert(ctx, d)
}
func (m *mockDeviceRepo) Delete(ctx context.Context, userID, token string) error {
	return m.delete(ctx, userID, token)
}
func (m *mockDeviceRepo) TokensForUser(ctx context.Context, userID string) ([]string, error) {
	return m.tokensForUser(ctx, userID)
}
func (m *mockDeviceRepo) DeleteTokens(ctx context.Context, tokens []string) error {
	return m.deleteTokens(ctx, tokens)
}

var _ repo.DeviceRepo = (*mockDeviceRepo)(nil)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// sampleTrains mirrors part of the seeded catalog.
func sampleTrains() []domain.Train {
	return []domain.Train{
		{Number: "12301", Name: "Rajdhani Express", Route: "New Delhi - Howrah", Coaches: []domain.Coach{{Type: domain.CoachAC, Number: "A1", TotalSeats: 64, PlatformPosition: 100}}},
		{Number: "12951", Name: "Mumbai Rajdhani", Route: "Mumbai Central - New Delhi"},
		{Number: "12273", Name: "Duronto Express", Route: "New Delhi - Howrah"},
		{Number: "12423", Name: "Dibrugarh Rajdhani", Route: "New Delhi - Dibrugarh"},
		{Number: "12626", Name: "Kerala Express", Route: "New Delhi - Trivandrum"},
	}
}

func catalogRepo() *mockTrainRepo {
	return &mockTrainRepo{
		getByNumber: func(_ context.Context, number string) (domain.Train, error) {
			for _, t := range sampleTrains() {
				if t.Number == number {
					return t, nil
				}
			}
			return domain.Train{}, domain.ErrNotFound
		},
		list: func(context.Context) ([]domain.Train, error) { return sampleTrains(), nil },
	}
}
