package db

import (
	"context"
	"database/sql"
	"embed"
	"sort"
	"strconv"
	"strings"

	"cardtracker/internal/logger"

	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// DB is the SQL-backed store. It satisfies the collection, ledger and grace
// storage ports on both PostgreSQL and SQLite.
type DB struct {
	conn    *sql.DB
	dialect Dialect
	log     zerolog.Logger
}

// Connect opens a PostgreSQL database.
func Connect(dsn string) (*DB, error) {
	return Open(context.Background(), Postgres, dsn)
}

// OpenSQLite opens (or creates) a SQLite database file. ":memory:" gives a
// private in-memory database.
func OpenSQLite(path string) (*DB, error) {
	return Open(context.Background(), SQLite, path)
}

func Open(ctx context.Context, dialect Dialect, dsn string) (*DB, error) {
	conn, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", dialect)
	}
	d := &DB{conn: conn, dialect: dialect, log: logger.Component("db")}
	if dialect == SQLite {
		// Each connection to ":memory:" is its own database.
		conn.SetMaxOpenConns(1)
		applySQLitePragmas(ctx, conn, dsn != ":memory:", d.log)
	}
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, errors.Wrapf(err, "ping %s", dialect)
	}
	d.log.Info().Str("dialect", string(dialect)).Msg("connected")
	return d, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) Ping(ctx context.Context) error {
	return d.conn.PingContext(ctx)
}

// Migrate applies every embedded migration for the dialect in file name
// order. Migrations are written to be re-runnable.
func (d *DB) Migrate(ctx context.Context) error {
	dir := "migrations/" + string(d.dialect)
	entries, err := migrationsFS.ReadDir(dir)
	if err != nil {
		return errors.Wrap(err, "reading migrations dir")
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		content, err := migrationsFS.ReadFile(dir + "/" + name)
		if err != nil {
			return errors.Wrapf(err, "reading migration %s", name)
		}
		for _, stmt := range splitStatements(string(content)) {
			if _, err := d.conn.ExecContext(ctx, stmt); err != nil {
				return errors.Wrapf(err, "executing migration %s", name)
			}
		}
		d.log.Debug().Str("migration", name).Msg("applied")
	}
	return nil
}

func splitStatements(script string) []string {
	var out []string
	for _, s := range strings.Split(script, ";") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// rebind turns "?" placeholders into "$n" for PostgreSQL.
func (d *DB) rebind(query string) string {
	if d.dialect != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (d *DB) exec(ctx context.Context, q querier, query string, args ...any) (sql.Result, error) {
	return q.ExecContext(ctx, d.rebind(query), args...)
}

func (d *DB) query(ctx context.Context, q querier, query string, args ...any) (*sql.Rows, error) {
	return q.QueryContext(ctx, d.rebind(query), args...)
}

func (d *DB) queryRow(ctx context.Context, q querier, query string, args ...any) *sql.Row {
	return q.QueryRowContext(ctx, d.rebind(query), args...)
}

// inTx runs fn in a transaction, committing when it returns nil.
func (d *DB) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer tx.Rollback()
	if err := fn(tx); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}
