package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coach-schedule/internal/config"
	availBulk "coach-schedule/internal/http-server/handlers/availability/bulk"
	availRules "coach-schedule/internal/http-server/handlers/availability/rules"
	availSet "coach-schedule/internal/http-server/handlers/availability/set"
	availWeek "coach-schedule/internal/http-server/handlers/availability/week"
	calendarFeed "coach-schedule/internal/http-server/handlers/calendar/feed"
	calendarToken "coach-schedule/internal/http-server/handlers/calendar/token"
	dashConfirm "coach-schedule/internal/http-server/handlers/dashboard/confirm"
	dashDecline "coach-schedule/internal/http-server/handlers/dashboard/decline"
	dashGet "coach-schedule/internal/http-server/handlers/dashboard/get"
	linkConfirm "coach-schedule/internal/http-server/handlers/links/confirm"
	linkDecline "coach-schedule/internal/http-server/handlers/links/decline"
	ruleCreate "coach-schedule/internal/http-server/handlers/rules/create"
	ruleGet "coach-schedule/internal/http-server/handlers/rules/get"
	ruleList "coach-schedule/internal/http-server/handlers/rules/list"
	ruleUpdate "coach-schedule/internal/http-server/handlers/rules/update"
	sessionCancel "coach-schedule/internal/http-server/handlers/sessions/cancel"
	sessionCreate "coach-schedule/internal/http-server/handlers/sessions/create"
	sessionDelete "coach-schedule/internal/http-server/handlers/sessions/delete"
	sessionGenerate "coach-schedule/internal/http-server/handlers/sessions/generate"
	sessionList "coach-schedule/internal/http-server/handlers/sessions/list"
	sessionStatus "coach-schedule/internal/http-server/handlers/sessions/status"
	staffAssign "coach-schedule/internal/http-server/handlers/staffing/assign"
	staffGet "coach-schedule/internal/http-server/handlers/staffing/get"
	staffHead "coach-schedule/internal/http-server/handlers/staffing/headcoach"
	staffUnassign "coach-schedule/internal/http-server/handlers/staffing/unassign"
	staffWeek "coach-schedule/internal/http-server/handlers/staffing/week"
	"coach-schedule/internal/http-server/middleware/auth"
	"coach-schedule/internal/http-server/middleware/ratelimit"
	"coach-schedule/internal/events"
	"coach-schedule/internal/lock"
	svc "coach-schedule/internal/service"
	"coach-schedule/internal/storage/postgres"
	"coach-schedule/internal/token"
	slogpretty "coach-schedule/pkg/handlers/slogPretty"
	"coach-schedule/pkg/middleware/mwLogger"
	"coach-schedule/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

type closingLocker interface {
	lock.Locker
	io.Closer
}

type closingPublisher interface {
	events.Publisher
	io.Closer
}

type noopCloser struct {
	events.Publisher
}

func (noopCloser) Close() error { return nil }

func main() {

	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("Starting API", slog.String("env", cfg.Env))
	log.Debug("Debug messages are enabled")

	loc, err := cfg.Scheduling.Location()
	if err != nil {
		log.Error("Failed to load timezone", sl.Err(err))
		os.Exit(1)
	}

	storage, err := postgres.New(cfg.StoragePath)
	if err != nil {
		log.Error("Failed to init storage", sl.Err(err))
		os.Exit(1)
	}

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	err = storage.Migrate(migrateCtx)
	cancelMigrate()
	if err != nil {
		log.Error("Failed to migrate storage", sl.Err(err))
		os.Exit(1)
	}

	var locker closingLocker
	redisLock, err := lock.NewRedisLock(cfg.RedisAddr)
	if err != nil {
		log.Warn("Redis unavailable, using in-process lock", sl.Err(err))
		locker = lock.NewMemoryLock()
	} else {
		locker = redisLock
	}

	var publisher closingPublisher = noopCloser{events.NewNoopPublisher(log)}
	if cfg.NatsURL != "" {
		nats, err := events.NewNatsPublisher(cfg.NatsURL, log)
		if err != nil {
			log.Error("Failed to connect to NATS", sl.Err(err))
			os.Exit(1)
		}
		publisher = nats
	}

	tokens := token.New(token.Options{
		Secret:        cfg.Tokens.Secret,
		SessionMaxAge: cfg.Tokens.ActionMaxAge,
		DayMaxAge:     cfg.Tokens.DayActionMaxAge,
	})

	service := svc.NewService(storage, storage, locker, tokens, publisher, log, svc.Options{
		Location:     loc,
		TravelTime:   time.Duration(cfg.Scheduling.TravelTimeMinutes) * time.Minute,
		FeedLookback: time.Duration(cfg.Scheduling.FeedLookbackDays) * 24 * time.Hour,
		FeedDomain:   cfg.Scheduling.FeedDomain,
		SiteURL:      cfg.Email.SiteURL,
	})

	limiter := ratelimit.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst, log)

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(mwLogger.New(log))
	router.Use(middleware.Recoverer)
	router.Use(cors.New(cors.Options{
		AllowedOrigins: []string{cfg.Email.SiteURL},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", auth.HeaderCoachID, auth.HeaderRole},
	}).Handler)

	// Admin
	router.Group(func(r chi.Router) {
		r.Use(auth.Require(log, auth.RoleAdmin))

		r.Post("/rules", ruleCreate.New(log, service))
		r.Get("/rules", ruleList.New(log, service))
		r.Get("/rules/{id}", ruleGet.New(log, service))
		r.Put("/rules/{id}", ruleUpdate.New(log, service))

		r.Post("/sessions/generate", sessionGenerate.New(log, service))
		r.Post("/sessions", sessionCreate.New(log, service))
		r.Get("/sessions", sessionList.New(log, service))
		r.Put("/sessions/{id}/cancel", sessionCancel.New(log, service))
		r.Put("/sessions/{id}/status", sessionStatus.New(log, service))
		r.Delete("/sessions/{id}", sessionDelete.New(log, service))

		r.Get("/sessions/{id}/coaches", staffGet.New(log, service))
		r.Post("/sessions/{id}/coaches", staffAssign.New(log, service))
		r.Delete("/sessions/{id}/coaches/{coachID}", staffUnassign.New(log, service))
		r.Put("/sessions/{id}/head-coach", staffHead.New(log, service))
		r.Get("/staffing", staffWeek.New(log, service))
	})

	// Coach
	router.Route("/me", func(r chi.Router) {
		r.Use(auth.Require(log, auth.RoleCoach, auth.RoleAdmin))

		r.Get("/availability", availWeek.New(log, service))
		r.Put("/availability/sessions/{id}", availSet.New(log, service))
		r.Get("/availability/rules", availRules.New(log, service))
		r.Put("/availability/rules", availBulk.New(log, service))

		r.Post("/sessions/{id}/confirm", dashConfirm.New(log, service))
		r.Post("/sessions/{id}/decline", dashDecline.New(log, service))
		r.Get("/dashboard", dashGet.New(log, service))
		r.Get("/calendar-token", calendarToken.New(log, service))
	})

	// Token links
	router.Group(func(r chi.Router) {
		r.Use(limiter.Limit)

		r.Get("/links/sessions/{id}/confirm/{token}", linkConfirm.NewSession(log, service))
		r.Get("/links/sessions/{id}/decline/{token}", linkDecline.NewSession(log, service))
		r.Post("/links/sessions/{id}/decline/{token}", linkDecline.NewSession(log, service))
		r.Get("/links/days/{date}/confirm/{token}", linkConfirm.NewDay(log, service))
		r.Get("/links/days/{date}/decline/{token}", linkDecline.NewDay(log, service))
		r.Post("/links/days/{date}/decline/{token}", linkDecline.NewDay(log, service))

		r.Get("/calendar/{token}", calendarFeed.New(log, service))
	})

	serv := &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	serverErrCh := make(chan error, 1)

	go func() {
		log.Info("Starting HTTP server", slog.String("addr", cfg.Address))
		if err := serv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		} else {
			serverErrCh <- nil
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Received shutdown signal", slog.String("signal", sig.String()))
	case err := <-serverErrCh:
		if err != nil {
			log.Error("HTTP server stopped unexpectedly", sl.Err(err))
		} else {
			log.Info("HTTP server stopped gracefully")
		}
	}

	shutdownTimeout := cfg.HTTPServer.ShutdownTimeout

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	log.Info("Shutting down HTTP server", slog.String("timeout", shutdownTimeout.String()))

	if err := serv.Shutdown(ctx); err != nil {
		log.Error("Server shutdown failed", sl.Err(err))
	} else {
		log.Info("Server shutdown complete")
	}

	if err := publisher.Close(); err != nil {
		log.Error("Failed to close publisher", sl.Err(err))
	}

	if err := storage.Close(); err != nil {
		log.Error("Failed to close storage", sl.Err(err))
	} else {
		log.Info("Storage closed")
	}

	if err := locker.Close(); err != nil {
		log.Error("Failed to close locker", sl.Err(err))
	} else {
		log.Info("Locker closed")
	}

	log.Info("Shutdown finished, server stopped")

}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger
	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}
