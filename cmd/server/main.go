package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/iliyamo/cinema-programs/internal/config"
	"github.com/iliyamo/cinema-programs/internal/handler"
	"github.com/iliyamo/cinema-programs/internal/identity"
	"github.com/iliyamo/cinema-programs/internal/logger"
	"github.com/iliyamo/cinema-programs/internal/middleware"
	"github.com/iliyamo/cinema-programs/internal/queue"
	"github.com/iliyamo/cinema-programs/internal/ratelimit"
	"github.com/iliyamo/cinema-programs/internal/router"
	"github.com/iliyamo/cinema-programs/internal/service"
	"github.com/iliyamo/cinema-programs/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Env, cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cfg config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close()

	if cfg.SeedDemoUsers {
		n, err := identity.SeedDemoUsers(ctx, st.users, func(pw string) (string, error) {
			return utils.HashPassword(pw, cfg.BcryptCost)
		})
		if err != nil {
			return fmt.Errorf("seed demo users: %w", err)
		}
		log.Info().Int("created", n).Msg("demo users seeded")
	}

	events, closeEvents := newPublisher(cfg, log)
	defer closeEvents()

	ident := identity.NewProvider(st.users)
	deps := service.Deps{
		Users:      st.users,
		Programs:   st.programs,
		Screenings: st.screenings,
		Tx:         st.tx,
		Identity:   ident,
		Events:     events,
		Log:        log.With().Str("component", "service").Logger(),
	}
	limits := router.Limits{Limiter: newLimiter(ctx, cfg, log), Config: cfg.RateLimit, Log: log}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.ErrorHandler(log)
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(log))

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(st.users, ident, cfg.JWTSecret, cfg.AccessTTLMin, log), cfg.JWTSecret, limits)
	router.RegisterPrograms(e,
		handler.NewProgramHandler(service.NewProgramService(deps), ident),
		handler.NewScreeningHandler(service.NewScreeningService(deps)),
		cfg.JWTSecret, limits)

	addr := ":" + cfg.Port
	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Str("env", cfg.Env).Str("store", cfg.StoreDriver).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// newPublisher returns the RabbitMQ publisher, or a discarding one when no
// broker is configured.
func newPublisher(cfg config.Config, log zerolog.Logger) (service.EventPublisher, func()) {
	if cfg.RabbitMQURL == "" {
		log.Info().Msg("RABBITMQ_URL not set, workflow events are discarded")
		return queue.Discard{}, func() {}
	}
	p := queue.NewPublisher(cfg.RabbitMQURL, log)
	return p, func() {
		if err := p.Close(); err != nil {
			log.Warn().Err(err).Msg("close publisher")
		}
	}
}

// newLimiter picks the rate limit backend. An unreachable Redis falls back
// to the in-process window.
func newLimiter(ctx context.Context, cfg config.Config, log zerolog.Logger) ratelimit.Limiter {
	if !cfg.RateLimit.Enabled {
		return nil
	}
	if cfg.RateLimit.Backend == config.BackendRedis {
		rdb, err := config.NewRedisClient(ctx)
		if err == nil {
			log.Info().Str("prefix", cfg.RateLimit.Prefix).Msg("rate limiting backed by redis")
			return ratelimit.NewRedisWindow(rdb, cfg.RateLimit.Prefix)
		}
		log.Warn().Err(err).Msg("redis unavailable, rate limiting in memory")
	}
	return ratelimit.NewWindow()
}
