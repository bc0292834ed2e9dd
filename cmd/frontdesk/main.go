package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/MikeSquared-Agency/frontdesk/internal/anthropic"
	"github.com/MikeSquared-Agency/frontdesk/internal/api"
	"github.com/MikeSquared-Agency/frontdesk/internal/archive"
	"github.com/MikeSquared-Agency/frontdesk/internal/calendar"
	"github.com/MikeSquared-Agency/frontdesk/internal/config"
	"github.com/MikeSquared-Agency/frontdesk/internal/controller"
	"github.com/MikeSquared-Agency/frontdesk/internal/dispatch"
	"github.com/MikeSquared-Agency/frontdesk/internal/intent"
	"github.com/MikeSquared-Agency/frontdesk/internal/notify"
	"github.com/MikeSquared-Agency/frontdesk/internal/observability"
	"github.com/MikeSquared-Agency/frontdesk/internal/session"
)

// sweepInterval is how often ended and abandoned call records are purged.
const (
	sweepInterval = 5 * time.Minute
	recordMaxAge  = 30 * time.Minute
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("frontdesk starting", "port", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		slog.Error("invalid timezone", "timezone", cfg.Timezone, "error", err)
		os.Exit(1)
	}

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)

	// Intent oracle (optional — without a key the keyword fallback decides)
	var oracle intent.Oracle
	if cfg.AnthropicAPIKey != "" {
		llm := anthropic.NewClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
		oracle = intent.NewAnthropicOracle(llm)
		slog.Info("intent oracle ready", "model", cfg.AnthropicModel)
	} else {
		slog.Warn("ANTHROPIC_API_KEY not set — classifying intents by keyword only")
	}
	classifier := intent.NewClassifier(oracle, slog.Default())
	classifier.OnFallback(metrics.OracleFallbacks.Inc)

	// Calendar
	cal := calendar.NewClient(cfg.CalendarURL, cfg.CalendarAPIKey, cfg.CalendarEventType, loc, slog.Default())
	slog.Info("calendar client ready", "url", cfg.CalendarURL, "event_type", cfg.CalendarEventType)

	// NATS
	notifyClient, err := notify.NewClient(cfg.NatsURL, cfg.NatsToken, slog.Default())
	if err != nil {
		slog.Error("failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer notifyClient.Close()
	slog.Info("NATS connected", "url", cfg.NatsURL)

	// Archive (optional — without a database completed calls live only in events)
	var archiver dispatch.Archiver
	if cfg.DatabaseURL != "" {
		arc, err := archive.New(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer arc.Close()
		archiver = arc
		slog.Info("archive connected")
	} else {
		slog.Warn("DATABASE_URL not set — running without call archive")
	}

	sessions := session.NewStore()
	dispatcher := dispatch.New(cal, notifyClient, archiver, metrics, slog.Default())
	ctrl := controller.New(sessions, classifier, cal, dispatcher, metrics, loc, slog.Default())

	// Purge finished calls so duplicate terminal turns keep hitting their
	// one-shot flags for a while, but records never pile up.
	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := sessions.Sweep(recordMaxAge); n > 0 {
					slog.Debug("swept call records", "removed", n)
				}
			}
		}
	}()

	srv := api.NewServer(cfg.Port, ctrl, sessions, slog.Default())
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	if err := notifyClient.Publish(notify.SubjectStarted, map[string]any{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"port":      cfg.Port,
	}); err != nil {
		slog.Warn("failed to publish startup event", "error", err)
	}

	slog.Info("frontdesk ready", "port", cfg.Port)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP shutdown error", "error", err)
	}
	cancel()
	slog.Info("frontdesk stopped")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
