package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// DB is the storage handle shared by a whole run, it is not safe for concurrent writers
// since ingredient dedup relies on lookup-before-insert.
type DB struct {
	*sql.DB
	Dialect Dialect
}

func (d *DB) Queries() *Queries {
	return New(d.DB, d.Dialect)
}

func wrapOpenDB(err error) error {
	return fmt.Errorf("open db: %w", err)
}

type target struct {
	driver  string
	dsn     string
	dialect Dialect
}

// parseUrl resolves a connection url into a driver and dsn.
//
//   - sqlite://            in-memory sqlite
//   - sqlite://rel.db      sqlite file relative to the cwd (also sqlite:///rel.db)
//   - sqlite:////abs.db    sqlite file with an absolute path
//   - libsql://...         remote libsql (turso) database
//   - postgres://...       postgres through pgx
//
// anything without a known scheme is treated as a sqlite file path.
func parseUrl(dbUrl string) (target, error) {
	switch {
	case dbUrl == "":
		return target{}, fmt.Errorf("a connection url was not specified")
	case strings.HasPrefix(dbUrl, "postgres://"), strings.HasPrefix(dbUrl, "postgresql://"):
		return target{driver: "pgx", dsn: dbUrl, dialect: DIALECT_POSTGRES}, nil
	case strings.HasPrefix(dbUrl, "libsql://"),
		strings.HasPrefix(dbUrl, "https://"),
		strings.HasPrefix(dbUrl, "wss://"):
		return target{driver: "libsql", dsn: dbUrl, dialect: DIALECT_SQLITE}, nil
	case strings.HasPrefix(dbUrl, "sqlite://"):
		path := strings.TrimPrefix(dbUrl, "sqlite://")
		path = strings.TrimPrefix(path, "/")
		if path == "" {
			path = ":memory:"
		}
		return target{driver: "sqlite", dsn: path, dialect: DIALECT_SQLITE}, nil
	case strings.Contains(dbUrl, "://"):
		return target{}, fmt.Errorf("unsupported connection url scheme: %s", dbUrl)
	default:
		return target{driver: "sqlite", dsn: dbUrl, dialect: DIALECT_SQLITE}, nil
	}
}

func openSqlite(path string) (*sql.DB, error) {
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		err := os.MkdirAll(filepath.Dir(path), 0777)
		if err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// see this stackoverflow post for information on why the following
	// lines exist: https://stackoverflow.com/questions/35804884/sqlite-concurrent-writing-performance
	// one connection also keeps an in-memory database alive for the whole run.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)
	_, err = db.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		db.Close()
		return nil, err
	}
	_, err = db.Exec("PRAGMA foreign_keys=ON")
	if err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Open opens the database at `dbUrl` and creates the schema if it doesn't exist yet.
func Open(ctx context.Context, dbUrl string) (*DB, error) {
	t, err := parseUrl(dbUrl)
	if err != nil {
		return nil, wrapOpenDB(err)
	}

	var sqldb *sql.DB
	switch t.driver {
	case "sqlite":
		sqldb, err = openSqlite(t.dsn)
	default:
		sqldb, err = sql.Open(t.driver, t.dsn)
	}
	if err != nil {
		return nil, wrapOpenDB(err)
	}

	err = sqldb.PingContext(ctx)
	if err != nil {
		sqldb.Close()
		return nil, wrapOpenDB(err)
	}

	out := &DB{DB: sqldb, Dialect: t.dialect}
	err = out.Migrate(ctx)
	if err != nil {
		sqldb.Close()
		return nil, wrapOpenDB(err)
	}
	return out, nil
}

// Migrate creates all tables that don't exist yet, it is safe to call more than once.
func (d *DB) Migrate(ctx context.Context) error {
	schema := Schema
	if d.Dialect == DIALECT_POSTGRES {
		schema = PostgresSchema
	}
	for _, stmt := range statements(schema) {
		_, err := d.ExecContext(ctx, stmt)
		if err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// MakeTx is a function that creates a db transaction
type MakeTx = func(ctx context.Context) (tx *Queries, discard, commit func() error, err error)

func NewMakeTx(d *DB) MakeTx {
	return func(ctx context.Context) (tx *Queries, discard, commit func() error, err error) {
		sqltx, err := d.BeginTx(ctx, nil)
		if err != nil {
			return nil, nil, nil, err
		}
		txqry := New(sqltx, d.Dialect)
		return txqry,
			func() error {
				err := sqltx.Rollback()
				if errors.Is(err, sql.ErrTxDone) {
					return nil
				}
				return err
			},
			func() error {
				return sqltx.Commit()
			},
			nil
	}
}

// IsIntegrityError reports whether err is a constraint violation (unique, primary key,
// foreign key, not null, check) of any of the supported databases.
func IsIntegrityError(err error) bool {
	if err == nil {
		return false
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, "23")
	}

	// the libsql remote client only hands back the message
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_CONSTRAINT") ||
		strings.Contains(msg, "constraint failed")
}
