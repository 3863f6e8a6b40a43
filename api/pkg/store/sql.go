package store

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/awslabs/osml-model-runner-sub000/api/pkg/config"
	"github.com/awslabs/osml-model-runner-sub000/api/pkg/types"
)

// SQLStore is the gorm-backed implementation of Store. Postgres in
// production, sqlite for tests and single-node deployments.
type SQLStore struct {
	cfg config.Store
	gdb *gorm.DB
}

var _ Store = &SQLStore{}

func NewSQLStore(cfg config.Store) (*SQLStore, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		sslMode := "disable"
		if cfg.SSL {
			sslMode = "require"
		}
		dsn := fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Database, sslMode,
		)
		dialector = postgres.Open(dsn)
	case "sqlite":
		// WAL plus a busy timeout so concurrent conditional writers queue up
		// instead of failing with a locked database.
		dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000", cfg.Path)
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to job store: %w", err)
	}

	s := &SQLStore{cfg: cfg, gdb: gdb}

	if cfg.AutoMigrate {
		err = gdb.AutoMigrate(
			&types.JobRecord{},
			&types.DeadLetterRecord{},
		)
		if err != nil {
			return nil, fmt.Errorf("failed to migrate job store: %w", err)
		}
	}

	log.Info().Str("driver", cfg.Driver).Msg("job store connected")

	return s, nil
}

func (s *SQLStore) Close() error {
	sqlDB, err := s.gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
