package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migration is one numbered schema change.
type Migration struct {
	Version string
	Up      string
	Down    string
}

// Migrations returns the embedded migrations in version order.
func Migrations() ([]Migration, error) {
	entries, err := fs.ReadDir(migrationFS, "migrations")
	if err != nil {
		return nil, err
	}
	byVersion := map[string]*Migration{}
	for _, e := range entries {
		name := e.Name()
		version, kind, ok := splitMigrationName(name)
		if !ok {
			return nil, fmt.Errorf("unexpected migration file %s", name)
		}
		data, err := migrationFS.ReadFile("migrations/" + name)
		if err != nil {
			return nil, err
		}
		m := byVersion[version]
		if m == nil {
			m = &Migration{Version: version}
			byVersion[version] = m
		}
		if kind == "up" {
			m.Up = string(data)
		} else {
			m.Down = string(data)
		}
	}

	out := make([]Migration, 0, len(byVersion))
	for _, m := range byVersion {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// splitMigrationName parses "001_streams.up.sql" into ("001_streams", "up").
func splitMigrationName(name string) (version, kind string, ok bool) {
	base, found := strings.CutSuffix(name, ".sql")
	if !found {
		return "", "", false
	}
	for _, k := range []string{"up", "down"} {
		if v, found := strings.CutSuffix(base, "."+k); found {
			return v, k, true
		}
	}
	return "", "", false
}

// MigrateUp applies every migration not yet recorded in schema_migrations.
func MigrateUp(ctx context.Context, db *DB) error {
	migrations, err := Migrations()
	if err != nil {
		return err
	}
	if _, err := db.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    text PRIMARY KEY,
			applied_at timestamptz NOT NULL DEFAULT now()
		)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	for _, m := range migrations {
		err := pgx.BeginFunc(ctx, db.Pool, func(tx pgx.Tx) error {
			var exists bool
			if err := tx.QueryRow(ctx,
				`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)`, m.Version,
			).Scan(&exists); err != nil {
				return err
			}
			if exists {
				return nil
			}
			if _, err := tx.Exec(ctx, m.Up); err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, m.Version); err != nil {
				return err
			}
			slog.Info("migration applied", "version", m.Version)
			return nil
		})
		if err != nil {
			return fmt.Errorf("migrate up %s: %w", m.Version, err)
		}
	}
	return nil
}

// MigrateDown reverts the most recently applied migration.
func MigrateDown(ctx context.Context, db *DB) error {
	migrations, err := Migrations()
	if err != nil {
		return err
	}
	return pgx.BeginFunc(ctx, db.Pool, func(tx pgx.Tx) error {
		var version string
		err := tx.QueryRow(ctx,
			`SELECT version FROM schema_migrations ORDER BY version DESC LIMIT 1`,
		).Scan(&version)
		if err == pgx.ErrNoRows {
			slog.Info("no migrations to revert")
			return nil
		}
		if err != nil {
			return err
		}
		for _, m := range migrations {
			if m.Version != version {
				continue
			}
			if _, err := tx.Exec(ctx, m.Down); err != nil {
				return fmt.Errorf("migrate down %s: %w", version, err)
			}
			if _, err := tx.Exec(ctx, `DELETE FROM schema_migrations WHERE version = $1`, version); err != nil {
				return err
			}
			slog.Info("migration reverted", "version", version)
			return nil
		}
		return fmt.Errorf("applied migration %s has no down script", version)
	})
}
