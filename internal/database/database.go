package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/dukerupert/notesapi/internal/config"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrations embed.FS

// Dialect names the SQL flavour spoken by the backend.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// Rebind rewrites ? placeholders into the dialect's form.
func (d Dialect) Rebind(query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// DB is the connection pool plus the dialect it speaks.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// Open opens the configured database, verifies the connection and runs migrations.
func Open(ctx context.Context, cfg config.DBConfig) (*DB, error) {
	var (
		driverName string
		dsn        string
		dialect    Dialect
	)
	switch cfg.Driver {
	case config.DriverSQLite:
		driverName, dialect = "sqlite", SQLite
		dsn = sqliteDSN(cfg.Path)
	case config.DriverPostgres:
		driverName, dialect = "pgx", Postgres
		dsn = cfg.DSN()
	default:
		return nil, fmt.Errorf("unsupported driver %q", cfg.Driver)
	}

	sqlDB, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if dialect == SQLite && cfg.Path == ":memory:" {
		// every connection to :memory: is a separate database
		sqlDB.SetMaxOpenConns(1)
	} else {
		if cfg.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		}
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	db := &DB{DB: sqlDB, Dialect: dialect}
	if err := db.migrate(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return db, nil
}

const sqlitePragmas = "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

// sqliteDSN appends the connection pragmas, keeping any query the path
// already carries.
func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + sqlitePragmas
}

// OpenSQLite opens a SQLite database at path with default pool settings.
func OpenSQLite(path string) (*DB, error) {
	return Open(context.Background(), config.DBConfig{Driver: config.DriverSQLite, Path: path})
}

func (db *DB) migrate(ctx context.Context) error {
	var (
		gooseDialect goose.Dialect
		dir          string
	)
	switch db.Dialect {
	case Postgres:
		gooseDialect, dir = goose.DialectPostgres, "migrations/postgres"
	default:
		gooseDialect, dir = goose.DialectSQLite3, "migrations/sqlite"
	}

	fsys, err := fs.Sub(migrations, dir)
	if err != nil {
		return fmt.Errorf("migrations fs: %w", err)
	}

	provider, err := goose.NewProvider(gooseDialect, db.DB, fsys)
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}

	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}

	return nil
}
