package repository

import (
	"context"
	"fmt"
	"strings"

	"daily_quest/pkg/logger"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrQuestNotFound    = errors.New("quest not found")
	ErrSessionNotFound  = errors.New("session not found")
	ErrAlreadyCompleted = errors.New("quest already completed")
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	// MemoryDSN opens a private in-memory SQLite database.
	MemoryDSN = ":memory:"

	pgUniqueViolation = "23505"
)

type Repository struct {
	db          *sqlx.DB
	driver      string
	placeholder squirrel.PlaceholderFormat
}

type Config struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`

	// Used to build a Postgres URL when DSN is empty.
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) Transaction(ctx context.Context, t func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	err = t(tx)
	if err != nil {
		txErr := tx.Rollback()
		if txErr != nil {
			return errors.Wrapf(err, "rollback error: %v", txErr)
		}
		return err
	}
	return tx.Commit()
}

func New(cfg Config) (*Repository, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" {
		driver = DriverSQLite
	}

	var (
		db          *sqlx.DB
		err         error
		placeholder squirrel.PlaceholderFormat
	)

	switch driver {
	case DriverSQLite:
		dsn := cfg.GetSQLiteDSN()
		db, err = sqlx.Connect("sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if isMemoryDSN(dsn) {
			// every new connection would see an empty database
			db.SetMaxOpenConns(1)
		}
		placeholder = squirrel.Question
	case DriverPostgres:
		db, err = sqlx.Connect("pgx", cfg.GetDatabaseURL())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		placeholder = squirrel.Dollar
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	r := &Repository{
		db:          db,
		driver:      driver,
		placeholder: placeholder,
	}

	if err := r.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Logger().Info("Connected to database successfully", zap.String("driver", driver))

	return r, nil
}

func (c *Config) GetSQLiteDSN() string {
	dsn := strings.TrimSpace(c.DSN)
	if dsn == "" {
		return MemoryDSN
	}
	if isMemoryDSN(dsn) || strings.Contains(dsn, "?") {
		return dsn
	}
	return dsn + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

func (c *Config) GetDatabaseURL() string {
	if c.DSN != "" {
		return c.DSN
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Name,
	)
}

func isMemoryDSN(dsn string) bool {
	return dsn == MemoryDSN || strings.Contains(dsn, "mode=memory")
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint")
}
