// Command auditor consumes workflow events from RabbitMQ and appends them to
// an audit log, one JSON object per line.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/iliyamo/cinema-programs/internal/config"
	"github.com/iliyamo/cinema-programs/internal/logger"
	"github.com/iliyamo/cinema-programs/internal/queue"
)

func main() {
	cfg, err := config.LoadAuditor()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Env, cfg.LogLevel)

	if err := os.MkdirAll(filepath.Dir(cfg.AuditLog), 0o755); err != nil {
		log.Fatal().Err(err).Str("path", cfg.AuditLog).Msg("create audit log directory")
	}
	f, err := os.OpenFile(cfg.AuditLog, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.AuditLog).Msg("open audit log")
	}
	defer f.Close()
	audit := zerolog.New(f).With().Timestamp().Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("audit_log", cfg.AuditLog).Msg("auditor started")
	if err := queue.NewConsumer(cfg.RabbitMQURL, log, audit).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("auditor stopped")
		return
	}
	log.Info().Msg("auditor stopped")
}
