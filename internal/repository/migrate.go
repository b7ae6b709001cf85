package repository

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"daily_quest/internal/repository/migrations"
	"daily_quest/pkg/logger"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const migrationTable = "schema_migrations"

// migrate applies every embedded migration that has not been recorded yet.
func (r *Repository) migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
    name TEXT PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
)`, migrationTable))
	if err != nil {
		return fmt.Errorf("ensure migration table: %w", err)
	}

	entries, err := fs.ReadDir(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	for _, file := range files {
		content, err := fs.ReadFile(migrations.FS, file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}

		err = r.Transaction(ctx, func(tx *sqlx.Tx) error {
			applied, err := r.isApplied(ctx, tx, file)
			if err != nil || applied {
				return err
			}

			for _, stmt := range splitStatements(string(content)) {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return errors.Wrapf(err, "exec migration %s", file)
				}
			}

			query, args, err := squirrel.
				Insert(migrationTable).
				SetMap(map[string]interface{}{
					"name":       file,
					"applied_at": time.Now().UTC(),
				}).
				PlaceholderFormat(r.placeholder).
				ToSql()
			if err != nil {
				return err
			}

			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return errors.Wrapf(err, "record migration %s", file)
			}

			logger.Logger().Info("applied migration", zap.String("name", file))
			return nil
		})
		if err != nil {
			return err
		}
	}

	return nil
}

func (r *Repository) isApplied(ctx context.Context, tx *sqlx.Tx, name string) (bool, error) {
	query, args, err := squirrel.
		Select("COUNT(*)").
		From(migrationTable).
		Where(squirrel.Eq{"name": name}).
		PlaceholderFormat(r.placeholder).
		ToSql()
	if err != nil {
		return false, err
	}

	var count int
	if err := tx.GetContext(ctx, &count, query, args...); err != nil {
		return false, fmt.Errorf("check migration %s: %w", name, err)
	}
	return count > 0, nil
}

// splitStatements breaks a migration file into single statements. Migration
// files must not contain semicolons inside string literals.
func splitStatements(content string) []string {
	var stmts []string
	for _, part := range strings.Split(content, ";") {
		if stmt := strings.TrimSpace(part); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}
