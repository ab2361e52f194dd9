package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/iliyamo/cinema-programs/internal/config"
	"github.com/iliyamo/cinema-programs/internal/database"
	"github.com/iliyamo/cinema-programs/internal/repository"
	"github.com/iliyamo/cinema-programs/internal/repository/memory"
	"github.com/iliyamo/cinema-programs/internal/service"
)

type storage struct {
	users      service.UserStore
	programs   service.ProgramStore
	screenings service.ScreeningStore
	tx         service.TxRunner
	close      func()
}

func openStorage(ctx context.Context, cfg config.Config, log zerolog.Logger) (*storage, error) {
	if cfg.StoreDriver == config.DriverMemory {
		log.Warn().Msg("using in-memory store, data is lost on exit")
		m := memory.New()
		return &storage{
			users: m.Users(), programs: m.Programs(), screenings: m.Screenings(),
			tx: m, close: func() {},
		}, nil
	}

	dsn := database.DSN(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if cfg.DBMigrate {
		if err := database.Migrate(dsn, log); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	db, err := database.Open(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	s := repository.NewStore(db)
	return &storage{
		users: s.Users(), programs: s.Programs(), screenings: s.Screenings(),
		tx: s,
		close: func() {
			if err := db.Close(); err != nil {
				log.Warn().Err(err).Msg("close database")
			}
		},
	}, nil
}
