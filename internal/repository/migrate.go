package repository

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"carz-auction/utils"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Migrate applies every pending schema migration to db
func Migrate(ctx context.Context, db *sql.DB) error {
	fsys, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return fmt.Errorf("create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	for _, r := range results {
		utils.Info("migration applied", map[string]any{
			"version":  r.Source.Version,
			"path":     r.Source.Path,
			"duration": r.Duration.String(),
		})
	}
	return nil
}
