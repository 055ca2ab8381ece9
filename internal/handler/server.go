// Package handler implements the HTTP API of the Railway Commuter server.
// All handlers are methods on Server. Routes are registered on a chi router
// in Routes; the methods are split into domain-specific files (group.go,
// chat.go, etc.) but share the same Server struct and its dependencies.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/schhatbar/Railway-Commuter/internal/domain"
	"github.com/schhatbar/Railway-Commuter/internal/middleware"
	"github.com/schhatbar/Railway-Commuter/internal/service"
)

// The Servicer interfaces below are declared here, in the consumer package,
// so handler tests can inject mocks without a database or service layer.

// AuthServicer signs commuters up and in.
type AuthServicer interface {
	Register(ctx context.Context, in service.RegisterInput) (service.AuthResult, error)
	Login(ctx context.Context, email, password string) (service.AuthResult, error)
	FederatedLogin(ctx context.Context, idToken string) (service.AuthResult, error)
}

// ProfileServicer manages the signed-in user's profile.
type ProfileServicer interface {
	Bootstrap(ctx context.Context, id domain.Identity) domain.User
	Update(ctx context.Context, userID string, upd domain.ProfileUpdate) (domain.User, error)
	AddFrequentRoute(ctx context.Context, userID string, route domain.FrequentRoute) (domain.User, error)
	RemoveFrequentRoute(ctx context.Context, userID, trainNumber string) (domain.User, error)
}

// TrainServicer reads the train catalog.
type TrainServicer interface {
	GetByNumber(ctx context.Context, number string) (domain.Train, error)
	Search(ctx context.Context, term string) ([]domain.Train, error)
}

// GroupServicer is the group lifecycle.
type GroupServicer interface {
	Create(ctx context.Context, in service.GroupInput) (domain.Group, error)
	Join(ctx context.Context, code string, member domain.GroupMember) (domain.Group, error)
	Leave(ctx context.Context, groupID uuid.UUID, userID string) error
	Delete(ctx context.Context, groupID uuid.UUID, requester string) (int64, error)
	UpdateMemberSeat(ctx context.Context, groupID uuid.UUID, userID, coachNumber, seatNumber string) error
	Get(ctx context.Context, groupID uuid.UUID) (domain.Group, error)
	GetByCode(ctx context.Context, code string) (domain.Group, error)
	ListForUser(ctx context.Context, userID string) ([]domain.Group, error)
	SubscribeToGroup(ctx context.Context, groupID uuid.UUID, onUpdate func(domain.Group), onError func(error)) (*service.Subscription, error)
}

// ChatServicer is group chat.
type ChatServicer interface {
	Send(ctx context.Context, groupID uuid.UUID, sender domain.Identity, text string) (domain.ChatMessage, error)
	List(ctx context.Context, groupID uuid.UUID, viewerID string) ([]domain.ChatMessage, error)
	SubscribeToMessages(ctx context.Context, groupID uuid.UUID, viewerID string, onUpdate func([]domain.ChatMessage), onError func(error)) (*service.Subscription, error)
}

// ReminderServicer manages journey reminders.
type ReminderServicer interface {
	Create(ctx context.Context, userID string, in service.ReminderInput) (domain.JourneyReminder, error)
	List(ctx context.Context, userID string) ([]domain.JourneyReminder, error)
	SetActive(ctx context.Context, userID string, id uuid.UUID, active bool) (domain.JourneyReminder, error)
	Delete(ctx context.Context, userID string, id uuid.UUID) error
}

// DeviceServicer registers push tokens.
type DeviceServicer interface {
	Register(ctx context.Context, userID, token, deviceInfo string) (domain.DeviceToken, error)
	Unregister(ctx context.Context, userID, token string) error
}

// Services bundles the Server's dependencies.
type Services struct {
	Auth      AuthServicer
	Profiles  ProfileServicer
	Trains    TrainServicer
	Groups    GroupServicer
	Chat      ChatServicer
	Reminders ReminderServicer
	Devices   DeviceServicer
}

// Server handles every API endpoint.
type Server struct {
	auth      AuthServicer
	profiles  ProfileServicer
	trains    TrainServicer
	groups    GroupServicer
	chat      ChatServicer
	reminders ReminderServicer
	devices   DeviceServicer
	log       *slog.Logger

	// heartbeat is the idle interval after which streams send a keep-alive.
	heartbeat time.Duration

	// closing ends every open event stream once closed.
	closing   chan struct{}
	closeOnce sync.Once
}

// NewServer constructs the Server with all its dependencies.
func NewServer(svcs Services, log *slog.Logger) *Server {
	return &Server{
		auth:      svcs.Auth,
		profiles:  svcs.Profiles,
		trains:    svcs.Trains,
		groups:    svcs.Groups,
		chat:      svcs.Chat,
		reminders: svcs.Reminders,
		devices:   svcs.Devices,
		log:       log,
		heartbeat: 25 * time.Second,
		closing:   make(chan struct{}),
	}
}

// CloseStreams ends every open event stream. http.Server.Shutdown waits for
// active requests, so register this with RegisterOnShutdown.
func (s *Server) CloseStreams() {
	s.closeOnce.Do(func() { close(s.closing) })
}

// Routes returns the API router. Everything except health, metrics, the
// OpenAPI document and sign-in requires a session token accepted by tokens.
func (s *Server) Routes(tokens middleware.TokenValidator) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", s.Register)
		r.Post("/login", s.Login)
		r.Post("/federated", s.FederatedLogin)
		r.Post("/logout", s.Logout)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(tokens))

		r.Route("/me", func(r chi.Router) {
			r.Get("/", s.GetProfile)
			r.Patch("/", s.UpdateProfile)
			r.Post("/routes", s.AddFrequentRoute)
			r.Delete("/routes/{trainNumber}", s.RemoveFrequentRoute)
		})

		r.Route("/trains", func(r chi.Router) {
			r.Get("/", s.ListTrains)
			r.Get("/{number}", s.GetTrain)
			r.Get("/{number}/platform", s.GetPlatform)
		})

		r.Route("/groups", func(r chi.Router) {
			r.Get("/", s.ListGroups)
			r.Post("/", s.CreateGroup)
			r.Post("/join", s.JoinGroup)
			r.Get("/code/{code}", s.GetGroupByCode)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.GetGroup)
				r.Delete("/", s.DeleteGroup)
				r.Post("/leave", s.LeaveGroup)
				r.Put("/seat", s.UpdateSeat)
				r.Get("/stream", s.StreamGroup)
				r.Get("/messages", s.ListMessages)
				r.Post("/messages", s.SendMessage)
				r.Get("/messages/stream", s.StreamMessages)
				r.Get("/messages/export", s.ExportMessages)
			})
		})

		r.Route("/reminders", func(r chi.Router) {
			r.Get("/", s.ListReminders)
			r.Post("/", s.CreateReminder)
			r.Patch("/{id}", s.UpdateReminder)
			r.Delete("/{id}", s.DeleteReminder)
		})

		r.Post("/devices", s.RegisterDevice)
		r.Delete("/devices/{token}", s.UnregisterDevice)
	})

	return r
}
