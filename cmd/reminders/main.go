// Command reminders emails coaches who have not answered for their sessions
// on a given day. It is meant to be run once a day by cron.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"coach-schedule/internal/config"
	"coach-schedule/internal/email"
	"coach-schedule/internal/events"
	"coach-schedule/internal/lock"
	"coach-schedule/internal/models"
	"coach-schedule/internal/reminder"
	svc "coach-schedule/internal/service"
	"coach-schedule/internal/storage/postgres"
	"coach-schedule/internal/token"
	slogpretty "coach-schedule/pkg/handlers/slogPretty"
	"coach-schedule/pkg/sl"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	dateFlag := flag.String("date", "", "day to remind about (YYYY-MM-DD), defaults to tomorrow")
	flag.Parse()

	cfg := config.MustLoad()

	log := setupLogger(cfg.Env).With(slog.String("job", "reminders"))

	loc, err := cfg.Scheduling.Location()
	if err != nil {
		log.Error("Failed to load timezone", sl.Err(err))
		os.Exit(1)
	}

	day, err := targetDay(*dateFlag, time.Now(), loc)
	if err != nil {
		log.Error("Invalid date", slog.String("date", *dateFlag), sl.Err(err))
		os.Exit(1)
	}

	storage, err := postgres.New(cfg.StoragePath)
	if err != nil {
		log.Error("Failed to init storage", sl.Err(err))
		os.Exit(1)
	}
	defer storage.Close()

	tokens := token.New(token.Options{
		Secret:        cfg.Tokens.Secret,
		SessionMaxAge: cfg.Tokens.ActionMaxAge,
		DayMaxAge:     cfg.Tokens.DayActionMaxAge,
	})

	service := svc.NewService(storage, storage, lock.NewMemoryLock(), tokens, events.NewNoopPublisher(log), log, svc.Options{
		Location:   loc,
		FeedDomain: cfg.Scheduling.FeedDomain,
		SiteURL:    cfg.Email.SiteURL,
	})

	var sender email.Sender
	if cfg.Email.ResendAPIKey != "" {
		sender = email.NewResendSender(cfg.Email.ResendAPIKey, cfg.Email.From, log)
	} else {
		log.Warn("No Resend API key configured, emails will only be logged")
		sender = email.NewNoopSender(log)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	sum, err := reminder.New(service, sender, log).Run(ctx, day)
	if err != nil {
		log.Error("Reminder sweep failed", sl.Err(err))
		os.Exit(1)
	}

	log.Info("Reminder sweep finished",
		slog.String("date", day.Format(models.DateLayout)),
		slog.Int("sent", sum.Sent),
		slog.Int("failed", sum.Failed),
	)
}

// targetDay parses value as a calendar date, or returns tomorrow in loc.
func targetDay(value string, now time.Time, loc *time.Location) (time.Time, error) {
	if value != "" {
		return time.Parse(models.DateLayout, value)
	}

	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, time.UTC), nil
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger
	switch env {
	case envLocal:
		opts := slogpretty.PrettyHandlerOptions{
			SlogOpts: &slog.HandlerOptions{Level: slog.LevelDebug},
		}
		log = slog.New(opts.NewPrettyHandler(os.Stdout))
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}
