package database

import (
	"context"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rpupo63/devfolio-backend/config"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/dbresolver"
)

type Database struct {
	db             *gorm.DB
	projectRepo    *ProjectRepo
	projectTagRepo *ProjectTagRepo
	skillRepo      *SkillRepo
}

type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces the timestamp source used for createdAt and updatedAt.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New initializes a new Database struct with each repository using a shared GORM database instance
func New(db *gorm.DB, opts ...Option) Database {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	clock := func() time.Time { return o.now().UTC().Truncate(time.Microsecond) }

	tags := NewProjectTagRepo(db)
	return Database{
		db:             db,
		projectRepo:    NewProjectRepo(db, tags, clock),
		projectTagRepo: tags,
		skillRepo:      NewSkillRepo(db, clock),
	}
}

func (d Database) ProjectRepo() *ProjectRepo {
	return d.projectRepo
}

func (d Database) ProjectTagRepo() *ProjectTagRepo {
	return d.projectTagRepo
}

func (d Database) SkillRepo() *SkillRepo {
	return d.skillRepo
}

func (d Database) DB() *gorm.DB {
	return d.db
}

// Open connects to the configured backend. Replica DSNs are registered as
// read sources; writes and transactions always go to the primary.
func Open(cfg config.Config, log zerolog.Logger) (*gorm.DB, error) {
	dial, err := dialector(cfg.DBType, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	gormLog := log.With().Str("component", "gorm").Logger()
	newLogger := logger.New(
		&gormLog,
		logger.Config{
			SlowThreshold:             cfg.DBSlowThreshold,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(dial, &gorm.Config{
		PrepareStmt:    false,
		Logger:         newLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.DBType, err)
	}

	if replicas := cfg.Replicas(); len(replicas) > 0 {
		sources := make([]gorm.Dialector, 0, len(replicas))
		for _, dsn := range replicas {
			d, err := dialector(cfg.DBType, dsn)
			if err != nil {
				return nil, err
			}
			sources = append(sources, d)
		}
		err := db.Use(dbresolver.Register(dbresolver.Config{
			Replicas: sources,
			Policy:   dbresolver.RandomPolicy{},
		}))
		if err != nil {
			return nil, fmt.Errorf("register read replicas: %w", err)
		}
		log.Info().Int("replicas", len(sources)).Msg("read replicas registered")
	}

	return db, nil
}

func dialector(dbType, dsn string) (gorm.Dialector, error) {
	switch dbType {
	case config.DBPostgres:
		return postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		}), nil
	case config.DBSQLite:
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported DB_TYPE %q", dbType)
	}
}

// Ping runs a round trip against the primary.
func Ping(ctx context.Context, db *gorm.DB) error {
	var result int
	return db.WithContext(ctx).Raw("SELECT 1").Scan(&result).Error
}

// Wait pings until the backend answers or timeout elapses. Retries back off
// from 100ms up to 2s.
func Wait(ctx context.Context, db *gorm.DB, timeout time.Duration, log zerolog.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	delay := 100 * time.Millisecond
	for attempt := 1; ; attempt++ {
		err := Ping(ctx, db)
		if err == nil {
			return nil
		}
		log.Warn().Err(err).Int("attempt", attempt).Dur("retryIn", delay).Msg("database not ready")

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return fmt.Errorf("database not reachable after %s: %w", timeout, err)
		case <-t.C:
		}
		delay = min(delay*2, 2*time.Second)
	}
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
