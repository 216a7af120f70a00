package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/lock"
)

//go:embed sql/migrations/*.sql
var migrationsFS embed.FS

// MigrateUp применяет up-миграции.
// steps=0 означает "применить все доступные".
func (s *Store) MigrateUp(ctx context.Context, steps int) error {
	provider, err := s.migrationProvider()
	if err != nil {
		return err
	}

	if steps <= 0 {
		if _, err := provider.Up(ctx); err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
		return nil
	}

	for i := 0; i < steps; i++ {
		if _, err := provider.UpByOne(ctx); err != nil {
			if errors.Is(err, goose.ErrNoNextVersion) {
				return nil
			}
			return fmt.Errorf("migrate up by one: %w", err)
		}
	}
	return nil
}

// MigrateDown откатывает миграции.
// steps<=0 интерпретируется как 1 шаг для безопасного поведения.
func (s *Store) MigrateDown(ctx context.Context, steps int) error {
	provider, err := s.migrationProvider()
	if err != nil {
		return err
	}
	if steps <= 0 {
		steps = 1
	}

	for i := 0; i < steps; i++ {
		if _, err := provider.Down(ctx); err != nil {
			if errors.Is(err, goose.ErrNoNextVersion) {
				return nil
			}
			return fmt.Errorf("migrate down: %w", err)
		}
	}
	return nil
}

// MigrationStatus возвращает текущую версию схемы и количество применённых миграций.
func (s *Store) MigrationStatus(ctx context.Context) (int64, int, error) {
	provider, err := s.migrationProvider()
	if err != nil {
		return 0, 0, err
	}

	version, err := provider.GetDBVersion(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("query migration version: %w", err)
	}

	statuses, err := provider.Status(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("query migration status: %w", err)
	}

	applied := 0
	for _, st := range statuses {
		if st.State == goose.StateApplied {
			applied++
		}
	}
	return version, applied, nil
}

func (s *Store) migrationProvider() (*goose.Provider, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("postgres store is not initialized")
	}

	migrations, err := fs.Sub(migrationsFS, "sql/migrations")
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}

	locker, err := lock.NewPostgresSessionLocker()
	if err != nil {
		return nil, fmt.Errorf("create migration locker: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectPostgres, s.db, migrations, goose.WithSessionLocker(locker))
	if err != nil {
		return nil, fmt.Errorf("create migration provider: %w", err)
	}
	return provider, nil
}
