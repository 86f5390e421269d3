package storage

import (
	"fmt"

	"github.com/ivey1207/supperapp/internal/config"
	"github.com/ivey1207/supperapp/internal/core/services"
	"github.com/ivey1207/supperapp/internal/infrastructure/db"
	"github.com/ivey1207/supperapp/internal/infrastructure/logger"
	"github.com/ivey1207/supperapp/internal/infrastructure/memory"
	"gorm.io/gorm"
)

// Backend is an opened storage driver. Deps carries its repositories and
// transactor; the caller fills in the remaining service dependencies.
type Backend struct {
	Driver string
	Deps   services.Dependencies
	db     *gorm.DB
}

// Open connects the configured driver. Postgres is migrated on open.
func Open(cfg config.DatabaseConfig, log *logger.Logger) (*Backend, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		store := memory.NewStore()
		log.Warnw("storage_memory_driver", "detail", "state is lost on restart")
		return &Backend{
			Driver: cfg.Driver,
			Deps: services.Dependencies{
				Kiosks:      store.Kiosks(),
				Programs:    store.Programs(),
				Controllers: store.Controllers(),
				Commands:    store.Commands(),
				Sessions:    store.WashSessions(),
				Payments:    store.Payments(),
				Timeline:    store.Timeline(),
				Tx:          store.Transactor(),
			},
		}, nil
	case config.DriverPostgres, "":
		database, err := db.NewPostgresConnection(cfg)
		if err != nil {
			return nil, err
		}
		log.Infow("database_connected", "host", cfg.Host, "name", cfg.Name)
		if err := db.RunMigrations(database); err != nil {
			_ = db.Close(database)
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Infow("database_migrated")
		return &Backend{
			Driver: config.DriverPostgres,
			db:     database,
			Deps: services.Dependencies{
				Kiosks:      db.NewKioskRepository(database, log),
				Programs:    db.NewProgramRepository(database, log),
				Controllers: db.NewControllerRepository(database, log),
				Commands:    db.NewCommandRepository(database, log),
				Sessions:    db.NewWashSessionRepository(database, log),
				Payments:    db.NewPaymentRepository(database, log),
				Timeline:    db.NewTimelineRepository(database, log),
				Tx:          db.NewTransactor(database),
			},
		}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func (b *Backend) Close() error {
	if b.db == nil {
		return nil
	}
	return db.Close(b.db)
}
