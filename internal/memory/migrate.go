package memory

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/hollowtree/drey/internal/postgres"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const (
	migrateAttempts   = 5
	migrateBackoff    = 2 * time.Second
	migrateMaxBackoff = 10 * time.Second
)

// Migrate applies all pending schema migrations. It runs at startup,
// which is exactly when a suspended database is most likely to still be
// waking, so transient failures are retried with backoff before giving
// up. Each migration runs in its own transaction.
func Migrate(ctx context.Context, connString string, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}

	db, err := sql.Open("pgx", connString)
	if err != nil {
		return fmt.Errorf("memory: migrate: open: %w", err)
	}
	defer func() { _ = db.Close() }()

	sub, err := fs.Sub(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("memory: migrate: migrations fs: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectPostgres, db, sub)
	if err != nil {
		return fmt.Errorf("memory: migrate: provider: %w", err)
	}

	backoff := migrateBackoff
	var lastErr error
	for attempt := 1; attempt <= migrateAttempts; attempt++ {
		results, err := provider.Up(ctx)
		if err == nil {
			for _, r := range results {
				log.Info("applied migration", "version", r.Source.Version, "path", r.Source.Path)
			}
			return nil
		}
		if !postgres.IsTransient(err) {
			return fmt.Errorf("memory: migrate: %w", err)
		}
		lastErr = err
		if attempt == migrateAttempts {
			break
		}

		log.Warn("migration attempt failed, database may be waking",
			"attempt", attempt, "max_attempts", migrateAttempts, "error", err)
		select {
		case <-ctx.Done():
			return fmt.Errorf("memory: migrate canceled: %w", ctx.Err())
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, migrateMaxBackoff)
	}
	return fmt.Errorf("memory: migrate: %w: %v", postgres.ErrColdStart, lastErr)
}
