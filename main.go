package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rpupo63/devfolio-backend/config"
	"github.com/rpupo63/devfolio-backend/database"
	"github.com/rpupo63/devfolio-backend/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

func main() {
	// Listen for interrupt signals to gracefully shutdown the server
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// cfg is loaded once, before any command runs.
var cfg config.Config

func loadConfig() error {
	c, err := config.Load()
	if err != nil {
		return err
	}
	cfg = c
	setupLogger(cfg)
	return nil
}

// setupLogger configures the global zerolog logger every package logs through.
func setupLogger(c config.Config) {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	var out io.Writer = os.Stdout
	if c.LogFormat == "console" {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
}

// openDatabase connects, waits for the backend to answer and makes sure the
// tables exist. Callers close the returned handle.
func openDatabase(ctx context.Context) (*gorm.DB, database.Database, error) {
	log.Info().Str("dbType", cfg.DBType).Msg("Connecting to database...")

	db, err := database.Open(cfg, log.Logger)
	if err != nil {
		return nil, database.Database{}, err
	}
	if err := database.Wait(ctx, db, cfg.DBWaitTimeout, log.Logger); err != nil {
		_ = database.Close(db)
		return nil, database.Database{}, err
	}
	if err := models.EnsureSchema(db.WithContext(ctx)); err != nil {
		_ = database.Close(db)
		return nil, database.Database{}, fmt.Errorf("bootstrap schema: %w", err)
	}
	return db, database.New(db), nil
}
