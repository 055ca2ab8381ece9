package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/schhatbar/Railway-Commuter/internal/auth"
	"github.com/schhatbar/Railway-Commuter/internal/domain"
	"github.com/schhatbar/Railway-Commuter/internal/handler"
	"github.com/schhatbar/Railway-Commuter/internal/service"
)

// Test doubles for the handler.XServicer interfaces.
// Set only the method fields your test needs.

type mockAuthServicer struct {
	register  func(ctx context.Context, in service.RegisterInput) (service.AuthResult, error)
	login     func(ctx context.Context, email, password string) (service.AuthResult, error)
	federated func(ctx context.Context, idToken string) (service.AuthResult, error)
}

func (m *mockAuthServicer) Register(ctx context.Context, in service.RegisterInput) (service.AuthResult, error) {
	return m.register(ctx, in)
}
func (m *mockAuthServicer) Login(ctx context.Context, email, password string) (service.AuthResult, error) {
	return m.login(ctx, email, password)
}
func (m *mockAuthServicer) FederatedLogin(ctx context.Context, idToken string) (service.AuthResult, error) {
	return m.federated(ctx, idToken)
}

type mockProfileServicer struct {
	bootstrap   func(ctx context.Context, id domain.Identity) domain.User
	update      func(ctx context.Context, userID string, upd domain.ProfileUpdate) (domain.User, error)
	addRoute    func(ctx context.Context, userID string, route domain.FrequentRoute) (domain.User, error)
	removeRoute func(ctx context.Context, userID, trainNumber string) (domain.User, error)
}

func (m *mockProfileServicer) Bootstrap(ctx context.Context, id domain.Identity) domain.User {
	return m.bootstrap(ctx, id)
}
func (m *mockProfileServicer) Update(ctx context.Context, userID string, upd domain.ProfileUpdate) (domain.User, error) {
	return m.update(ctx, userID, upd)
}
func (m *mockProfileServicer) AddFrequentRoute(ctx context.Context, userID string, route domain.FrequentRoute) (domain.User, error) {
	return m.addRoute(ctx, userID, route)
}
func (m *mockProfileServicer) RemoveFrequentRoute(ctx context.Context, userID, trainNumber string) (domain.User, error) {
	return m.removeRoute(ctx, userID, trainNumber)
}

type mockTrainServicer struct {
	getByNumber func(ctx context.Context, number string) (domain.Train, error)
	search      func(ctx context.Context, term string) ([]domain.Train, error)
}

func (m *mockTrainServicer) GetByNumber(ctx context.Context, number string) (domain.Train, error) {
	return m.getByNumber(ctx, number)
}
func (m *mockTrainServicer) Search(ctx context.Context, term string) ([]domain.Train, error) {
	return m.search(ctx, term)
}

type mockGroupServicer struct {
	create      func(ctx context.Context, in service.GroupInput) (domain.Group, error)
	join        func(ctx context.Context, code string, member domain.GroupMember) (domain.Group, error)
	leave       func(ctx context.Context, groupID uuid.UUID, userID string) error
	delete      func(ctx context.Context, groupID uuid.UUID, requester string) (int64, error)
	updateSeat  func(ctx context.Context, groupID uuid.UUID, userID, coach, seat string) error
	get         func(ctx context.Context, groupID uuid.UUID) (domain.Group, error)
	getByCode   func(ctx context.Context, code string) (domain.Group, error)
	listForUser func(ctx context.Context, userID string) ([]domain.Group, error)
	subscribe   func(ctx context.Context, groupID uuid.UUID, onUpdate func(domain.Group), onError func(error)) (*service.Subscription, error)
}

func (m *mockGroupServicer) Create(ctx context.Context, in service.GroupInput) (domain.Group, error) {
	return m.create(ctx, in)
}
func (m *mockGroupServicer) Join(ctx context.Context, code string, member domain.GroupMember) (domain.Group, error) {
	return m.join(ctx, code, member)
}
func (m *mockGroupServicer) Leave(ctx context.Context, groupID uuid.UUID, userID string) error {
	return m.leave(ctx, groupID, userID)
}
func (m *mockGroupServicer) Delete(ctx context.Context, groupID uuid.UUID, requester string) (int64, error) {
	return m.delete(ctx, groupID, requester)
}
func (m *mockGroupServicer) UpdateMemberSeat(ctx context.Context, groupID uuid.UUID, userID, coach, seat string) error {
	return m.updateSeat(ctx, groupID, userID, coach, seat)
}
func (m *mockGroupServicer) Get(ctx context.Context, groupID uuid.UUID) (domain.Group, error) {
	return m.get(ctx, groupID)
}
func (m *mockGroupServicer) GetByCode(ctx context.Context, code string) (domain.Group, error) {
	return m.getByCode(ctx, code)
}
func (m *mockGroupServicer) ListForUser(ctx context.Context, userID string) ([]domain.Group, error) {
	return m.listForUser(ctx, userID)
}
func (m *mockGroupServicer) SubscribeToGroup(ctx context.Context, groupID uuid.UUID, onUpdate func(domain.Group), onError func(error)) (*service.Subscription, error) {
	return m.subscribe(ctx, groupID, onUpdate, onError)
}

type mockChatServicer struct {
	send      func(ctx context.Context, groupID uuid.UUID, sender domain.Identity, text string) (domain.ChatMessage, error)
	list      func(ctx context.Context, groupID uuid.UUID, viewerID string) ([]domain.ChatMessage, error)
	subscribe func(ctx context.Context, groupID uuid.UUID, viewerID string, onUpdate func([]domain.ChatMessage), onError func(error)) (*service.Subscription, error)
}

func (m *mockChatServicer) Send(ctx context.Context, groupID uuid.UUID, sender domain.Identity, text string) (domain.ChatMessage, error) {
	return m.send(ctx, groupID, sender, text)
}
func (m *mockChatServicer) List(ctx context.Context, groupID uuid.UUID, viewerID string) ([]domain.ChatMessage, error) {
	return m.list(ctx, groupID, viewerID)
}
func (m *mockChatServicer) SubscribeToMessages(ctx context.Context, groupID uuid.UUID, viewerID string, onUpdate func([]domain.ChatMessage), onError func(error)) (*service.Subscription, error) {
	return m.subscribe(ctx, groupID, viewerID, onUpdate, onError)
}

type mockReminderServicer struct {
	create    func(ctx context.Context, userID string, in service.ReminderInput) (domain.JourneyReminder, error)
	list      func(ctx context.Context, userID string) ([]domain.JourneyReminder, error)
	setActive func(ctx context.Context, userID string, id uuid.UUID, active bool) (domain.JourneyReminder, error)
	delete    func(ctx context.Context, userID string, id uuid.UUID) error
}

func (m *mockReminderServicer) Create(ctx context.Context, userID string, in service.ReminderInput) (domain.JourneyReminder, error) {
	return m.create(ctx, userID, in)
}
func (m *mockReminderServicer) List(ctx context.Context, userID string) ([]domain.JourneyReminder, error) {
	return m.list(ctx, userID)
}
func (m *mockReminderServicer) SetActive(ctx context.Context, userID string, id uuid.UUID, active bool) (domain.JourneyReminder, error) {
	return m.setActive(ctx, userID, id, active)
}
func (m *mockReminderServicer) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	return m.delete(ctx, userID, id)
}

type mockDeviceServicer struct {
	register   func(ctx context.Context, userID, token, deviceInfo string) (domain.DeviceToken, error)
	unregister func(ctx context.Context, userID, token string) error
}

func (m *mockDeviceServicer) Register(ctx context.Context, userID, token, deviceInfo string) (domain.DeviceToken, error) {
	return m.register(ctx, userID, token, deviceInfo)
}
func (m *mockDeviceServicer) Unregister(ctx context.Context, userID, token string) error {
	return m.unregister(ctx, userID, token)
}

// compile-time checks: every mock must satisfy its handler interface.
var (
	_ handler.AuthServicer     = (*mockAuthServicer)(nil)
	_ handler.ProfileServicer  = (*mockProfileServicer)(nil)
	_ handler.TrainServicer    = (*mockTrainServicer)(nil)
	_ handler.GroupServicer    = (*mockGroupServicer)(nil)
	_ handler.ChatServicer     = (*mockChatServicer)(nil)
	_ handler.ReminderServicer = (*mockReminderServicer)(nil)
	_ handler.DeviceServicer   = (*mockDeviceServicer)(nil)
)

// ---- helpers ---------------------------------------------------------------

const testToken = "good"

// alice is the identity behind testToken.
var alice = domain.Identity{UserID: "alice", Email: "alice@example.com", DisplayName: "Alice"}

// stubTokens accepts only testToken.
type stubTokens struct{}

func (stubTokens) Validate(token string) (*auth.Claims, error) {
	if token != testToken {
		return nil, auth.ErrInvalidToken
	}
	return &auth.Claims{
		Email:            alice.Email,
		DisplayName:      alice.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{Subject: alice.UserID},
	}, nil
}

// newRouter wires a Server with the given mocks exactly as main.go does,
// minus the outer middleware stack.
// newRouter builds the API over svcs. Without a Profiles mock every caller's
// profile mirrors their token.
func newRouter(svcs handler.Services) http.Handler {
	if svcs.Profiles == nil {
		svcs.Profiles = &mockProfileServicer{
			bootstrap: func(_ context.Context, id domain.Identity) domain.User { return domain.NewUserFromIdentity(id) },
		}
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return handler.NewServer(svcs, log).Routes(stubTokens{})
}

// do sends an authenticated request. body may be nil, a raw string, or any
// value to encode as JSON.
func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = bytes.NewBufferString(b)
	default:
		buf, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewBuffer(buf)
	}

	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+testToken)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) handler.ErrorDetail {
	t.Helper()
	return decode[handler.ErrorResponse](t, rec).Error
}
