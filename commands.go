package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rpupo63/devfolio-backend/api"
	"github.com/rpupo63/devfolio-backend/database"
	"github.com/rpupo63/devfolio-backend/ratelimit"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var rootCmd = &cobra.Command{
	Use:   "devfolio",
	Short: "Portfolio projects and skills API",
	Long: `devfolio serves the portfolio projects and skills API and carries the
maintenance tasks that operate on the same database.

Without a subcommand it runs the HTTP server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig()
	},
	RunE: runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API until interrupted",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var waitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Block until the database answers or DB_WAIT_TIMEOUT elapses",
	Args:  cobra.NoArgs,
	RunE:  runWait,
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Replace all projects and skills with the bundled sample data",
	Args:  cobra.NoArgs,
	RunE:  runSeed,
}

var backupCmd = &cobra.Command{
	Use:   "backup [file]",
	Short: "Write a compressed snapshot of all projects and skills",
	Long: `Writes every project and skill to a zstd-compressed JSON snapshot.

Without a file argument the snapshot goes to
<BACKUP_DIR>/backup-<timestamp>.json.zst.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBackup,
}

var restoreCmd = &cobra.Command{
	Use:   "restore <file>",
	Short: "Replace all projects and skills with a snapshot's contents",
	Args:  cobra.ExactArgs(1),
	RunE:  runRestore,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every project and skill",
	Args:  cobra.NoArgs,
	RunE:  runReset,
}

var resetConfirmed bool

func init() {
	resetCmd.Flags().BoolVar(&resetConfirmed, "yes", false, "confirm deleting all records")

	rootCmd.AddCommand(serveCmd, waitCmd, seedCmd, backupCmd, restoreCmd, resetCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log.Info().Msg("Initializing app...")

	db, currentDB, err := openDatabase(cmd.Context())
	if err != nil {
		return err
	}
	defer database.Close(db)

	g, ctx := errgroup.WithContext(cmd.Context())

	var opts []api.RouterOption
	if cfg.RedisAddr != "" {
		store := ratelimit.NewRedisStore(redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}))
		defer store.Close()
		if err := store.Ping(ctx); err != nil {
			return fmt.Errorf("rate limit redis %s: %w", cfg.RedisAddr, err)
		}
		log.Info().Str("addr", cfg.RedisAddr).Msg("rate limit counters in redis")
		opts = append(opts, api.WithRateLimitStore(store))
	} else {
		store := ratelimit.NewMemoryStore()
		g.Go(func() error {
			store.RunJanitor(ctx)
			return nil
		})
		opts = append(opts, api.WithRateLimitStore(store))
	}

	server := api.NewServer(cfg, currentDB, opts...)
	g.Go(func() error {
		return server.Run(ctx, cfg.ShutdownTimeout)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Closing server")
		return err
	}
	return nil
}

func runWait(cmd *cobra.Command, args []string) error {
	db, _, err := openDatabase(cmd.Context())
	if err != nil {
		return err
	}
	log.Info().Msg("database is ready")
	return database.Close(db)
}

func runSeed(cmd *cobra.Command, args []string) error {
	db, currentDB, err := openDatabase(cmd.Context())
	if err != nil {
		return err
	}
	defer database.Close(db)

	counts, err := currentDB.Seed(cmd.Context())
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	log.Info().Int("projects", counts.Projects).Int("skills", counts.Skills).Msg("database seeded")
	return nil
}

func runBackup(cmd *cobra.Command, args []string) error {
	path := filepath.Join(cfg.BackupDir, fmt.Sprintf("backup-%s.json.zst", time.Now().UTC().Format("20060102-150405")))
	if len(args) == 1 {
		path = args[0]
	}

	db, currentDB, err := openDatabase(cmd.Context())
	if err != nil {
		return err
	}
	defer database.Close(db)

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}
	counts, err := writeBackup(cmd.Context(), currentDB, path)
	if err != nil {
		return err
	}
	log.Info().Str("file", path).Int("projects", counts.Projects).Int("skills", counts.Skills).Msg("backup written")
	return nil
}

// writeBackup removes a partially written file when the snapshot fails.
func writeBackup(ctx context.Context, d database.Database, path string) (database.Counts, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return database.Counts{}, fmt.Errorf("create backup file: %w", err)
	}
	counts, err := d.Backup(ctx, f)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return database.Counts{}, fmt.Errorf("backup: %w", err)
	}
	return counts, nil
}

func runRestore(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	db, currentDB, err := openDatabase(cmd.Context())
	if err != nil {
		return err
	}
	defer database.Close(db)

	counts, err := currentDB.Restore(cmd.Context(), f)
	if err != nil {
		return fmt.Errorf("restore %s: %w", args[0], err)
	}
	log.Info().Str("file", args[0]).Int("projects", counts.Projects).Int("skills", counts.Skills).Msg("snapshot restored")
	return nil
}

func runReset(cmd *cobra.Command, args []string) error {
	if !resetConfirmed {
		return errors.New("reset deletes every project and skill; rerun with --yes")
	}

	db, currentDB, err := openDatabase(cmd.Context())
	if err != nil {
		return err
	}
	defer database.Close(db)

	if err := currentDB.Reset(cmd.Context()); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	log.Warn().Msg("all projects and skills deleted")
	return nil
}
