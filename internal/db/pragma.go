package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rs/zerolog"
)

// applySQLitePragmas tunes a SQLite connection. WAL only makes sense for a
// file-backed database. Failures are logged, not fatal.
func applySQLitePragmas(ctx context.Context, conn *sql.DB, fileBacked bool, log zerolog.Logger) {
	pragmas := []string{
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	if fileBacked {
		pragmas = append(pragmas,
			"PRAGMA journal_mode=WAL;",
			"PRAGMA synchronous=NORMAL;",
			"PRAGMA wal_autocheckpoint=1000;",
		)
	}

	for _, pragma := range pragmas {
		value, err := applyPragma(ctx, conn, pragma)
		if err != nil {
			log.Warn().Err(err).Str("pragma", pragma).Msg("sqlite pragma failed")
			continue
		}
		log.Debug().Str("pragma", pragma).Interface("value", value).Msg("sqlite pragma")
	}
}

func applyPragma(ctx context.Context, conn *sql.DB, pragma string) (any, error) {
	var value any
	if err := conn.QueryRowContext(ctx, pragma).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if _, execErr := conn.ExecContext(ctx, pragma); execErr != nil {
				return nil, execErr
			}
			return "ok", nil
		}
		return nil, err
	}
	return value, nil
}
