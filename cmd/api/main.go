// Package main is the entry point for the Railway Commuter API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	firebase "firebase.google.com/go/v4"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"google.golang.org/api/option"

	"github.com/schhatbar/Railway-Commuter/internal/auth"
	"github.com/schhatbar/Railway-Commuter/internal/config"
	"github.com/schhatbar/Railway-Commuter/internal/handler"
	"github.com/schhatbar/Railway-Commuter/internal/logging"
	"github.com/schhatbar/Railway-Commuter/internal/middleware"
	"github.com/schhatbar/Railway-Commuter/internal/notify"
	"github.com/schhatbar/Railway-Commuter/internal/realtime"
	"github.com/schhatbar/Railway-Commuter/internal/repo"
	"github.com/schhatbar/Railway-Commuter/internal/scheduler"
	"github.com/schhatbar/Railway-Commuter/internal/service"
	"github.com/schhatbar/Railway-Commuter/migrations"
)

func main() {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		// Use plain stderr before the logger is configured.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	ctx := context.Background()

	// --- Database ---------------------------------------------------------
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	slog.Info("database connection established")

	if cfg.MigrateOnStart {
		sqlDB := stdlib.OpenDBFromPool(pool)
		applied, err := migrations.Up(ctx, sqlDB)
		_ = sqlDB.Close()
		if err != nil {
			slog.Error("failed to apply migrations", "error", err)
			os.Exit(1)
		}
		slog.Info("migrations applied", "count", applied)
	}

	// --- Change feed --------------------------------------------------------
	var feed realtime.Feed
	if cfg.NATSURL != "" {
		nf, err := realtime.DialNATS(cfg.NATSURL, logger)
		if err != nil {
			slog.Error("failed to connect to nats", "error", err)
			os.Exit(1)
		}
		feed = nf
		slog.Info("using nats change feed", "url", cfg.NATSURL)
	} else {
		feed = realtime.NewMemoryFeed()
		slog.Warn("NATS_URL not set, using in-process change feed; run a single instance only")
	}
	defer feed.Close()

	// --- Firebase -----------------------------------------------------------
	// Interface-typed so a disabled integration stays a nil interface.
	var (
		verifier service.IdentityVerifier
		sender   scheduler.Sender
	)
	if cfg.FirebaseEnabled() {
		app, err := newFirebaseApp(ctx, cfg)
		if err != nil {
			slog.Error("failed to initialise firebase", "error", err)
			os.Exit(1)
		}
		v, err := auth.NewFirebaseVerifier(ctx, app)
		if err != nil {
			slog.Error("failed to initialise firebase auth", "error", err)
			os.Exit(1)
		}
		s, err := notify.NewFCMSender(ctx, app, logger)
		if err != nil {
			slog.Error("failed to initialise firebase messaging", "error", err)
			os.Exit(1)
		}
		verifier, sender = v, s
		slog.Info("firebase enabled", "project_id", cfg.FirebaseProjectID)
	} else {
		slog.Info("firebase not configured; Google sign-in and push reminders are off")
	}

	// --- Services -----------------------------------------------------------
	trainRepo := repo.NewTrainRepo(pool)
	groupRepo := repo.NewGroupRepo(pool)
	reminderRepo := repo.NewReminderRepo(pool)
	deviceRepo := repo.NewDeviceRepo(pool)

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)
	profiles := service.NewProfileService(repo.NewUserRepo(pool), logger)

	srv := handler.NewServer(handler.Services{
		Auth:      service.NewAuthService(repo.NewCredentialRepo(pool), profiles, jwtManager, verifier),
		Profiles:  profiles,
		Trains:    service.NewTrainService(trainRepo),
		Groups:    service.NewGroupService(groupRepo, trainRepo, feed, logger),
		Chat:      service.NewChatService(repo.NewMessageRepo(pool), groupRepo, feed, logger),
		Reminders: service.NewReminderService(reminderRepo, trainRepo),
		Devices:   service.NewDeviceService(deviceRepo),
	}, logger)

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → Logger → Recoverer
	// → CORS → body limit → metrics.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))
	r.Use(middleware.Metrics)
	r.Mount("/", srv.Routes(jwtManager))

	// --- Reminder dispatcher ------------------------------------------------
	dispatchCtx, stopDispatch := context.WithCancel(ctx)
	dispatcher := scheduler.NewReminderDispatcher(reminderRepo, deviceRepo, sender, cfg.ReminderInterval, logger)
	dispatchDone := make(chan struct{})
	go func() {
		defer close(dispatchDone)
		dispatcher.Run(dispatchCtx)
	}()

	// --- HTTP Server ------------------------------------------------------
	// Event streams lift the write deadline for their own connection.
	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	httpSrv.RegisterOnShutdown(srv.CloseStreams)

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	stopDispatch()
	<-dispatchDone

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// newFirebaseApp builds the Firebase app from a service-account file, or
// from application default credentials when only a project id is set.
func newFirebaseApp(ctx context.Context, cfg config.Config) (*firebase.App, error) {
	var opts []option.ClientOption
	if cfg.FirebaseCredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.FirebaseCredentialsFile))
	}
	var fbCfg *firebase.Config
	if cfg.FirebaseProjectID != "" {
		fbCfg = &firebase.Config{ProjectID: cfg.FirebaseProjectID}
	}
	return firebase.NewApp(ctx, fbCfg, opts...)
}
