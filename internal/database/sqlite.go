package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/dimspell/labyrinth/internal/app/logger/logging"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

type SQLite struct {
	Writer *sql.DB
	Reader *sql.DB
	Read   *Queries
	Write  *Queries
}

func NewMemory() (*SQLite, error) {
	slog.Debug("Connecting to in-memory SQLite database")

	conn, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, err
	}

	// Every connection to ":memory:" is a separate database, so keep one.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		return nil, errors.Join(err, conn.Close())
	}
	if err := Migrate(conn); err != nil {
		return nil, errors.Join(err, conn.Close())
	}

	queries, err := Prepare(context.Background(), conn)
	if err != nil {
		return nil, errors.Join(err, conn.Close())
	}

	return &SQLite{
		Reader: conn,
		Read:   queries,
		Writer: conn,
		Write:  queries,
	}, nil
}

func NewLocal(pathToDatabase string) (*SQLite, error) {
	pragmas := "_pragma=busy_timeout(5000)&" +
		"_pragma=journal_mode(WAL)&" +
		"_pragma=synchronous(NORMAL)&" +
		"_pragma=temp_store(MEMORY)"
	uri := fmt.Sprintf("file:%s?%s", pathToDatabase, pragmas)
	slog.Debug("Connecting to local SQLite database", "uri", uri)

	writer, err := sql.Open("sqlite", uri)
	if err != nil {
		return nil, err
	}

	// Writes are serialised on a single connection.
	writer.SetMaxOpenConns(1)

	if err := writer.Ping(); err != nil {
		return nil, errors.Join(err, writer.Close())
	}
	if err := Migrate(writer); err != nil {
		return nil, errors.Join(err, writer.Close())
	}

	reader, err := sql.Open("sqlite", uri)
	if err != nil {
		return nil, errors.Join(err, writer.Close())
	}
	reader.SetMaxOpenConns(min(runtime.NumCPU(), 4))

	if err := reader.Ping(); err != nil {
		return nil, errors.Join(err, reader.Close(), writer.Close())
	}

	queriesRead, err := Prepare(context.Background(), reader)
	if err != nil {
		return nil, errors.Join(err, reader.Close(), writer.Close())
	}
	queriesWrite, err := Prepare(context.Background(), writer)
	if err != nil {
		return nil, errors.Join(err, queriesRead.Close(), reader.Close(), writer.Close())
	}

	return &SQLite{
		Reader: reader,
		Read:   queriesRead,
		Writer: writer,
		Write:  queriesWrite,
	}, nil
}

// Migrate brings the schema up to the latest embedded version. Running it
// against an up-to-date database is a no-op.
func Migrate(conn *sql.DB) error {
	migrationSource, err := iofs.New(migrations, "migrations")
	if err != nil {
		return err
	}
	driver, err := sqlite.WithInstance(conn, &sqlite.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithInstance("iofs", migrationSource, "sqlite", driver)
	if err != nil {
		return err
	}

	{
		version, dirty, err := m.Version()
		if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
			slog.Warn("Could not read migration status", logging.Error(err))
		}
		slog.Debug("Migration status", "version", version, "dirty", dirty)
	}
	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return fmt.Errorf("migration: %w", err)
	}
	{
		version, dirty, _ := m.Version()
		slog.Info("Migration complete", "version", version, "dirty", dirty)
	}

	return nil
}

func (db *SQLite) Ping() error {
	return db.Reader.Ping()
}

func (db *SQLite) PingContext(ctx context.Context) error {
	return db.Reader.PingContext(ctx)
}

func (db *SQLite) WithTx(ctx context.Context) (*sql.Tx, *Queries, error) {
	tx, err := db.Writer.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, nil, err
	}
	return tx, db.Write.WithTx(tx), nil
}

func (db *SQLite) Close() error {
	if db.Reader == db.Writer {
		return errors.Join(db.Write.Close(), db.Writer.Close())
	}
	return errors.Join(
		db.Write.Close(),
		db.Read.Close(),
		db.Writer.Close(),
		db.Reader.Close(),
	)
}
