package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

const (
	defaultConnTimeout   = 5 * time.Second
	defaultMaxRetries    = 3
	defaultRetryInterval = time.Second
)

type DBConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	User         string `toml:"user"`
	Password     string `toml:"password"`
	Database     string `toml:"database"`
	PoolSize     int    `toml:"pool_size"`
	MaxIdleConns int    `toml:"max_idle_conns"`
	MaxLifetime  int    `toml:"max_lifetime"`
}

// DB bundles the bun handle used by the repositories with, on Postgres, a
// pgx pool used for health checks and pool statistics.
type DB struct {
	pool   *pgxpool.Pool
	bunDB  *bun.DB
	driver string
}

// New connects to Postgres.
func New(ctx context.Context, cfg DBConfig) (*DB, error) {
	var conn net.Conn
	var err error

	addr := net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", cfg.Port))
	for i := 0; i < defaultMaxRetries; i++ {
		conn, err = net.DialTimeout("tcp", addr, defaultConnTimeout)
		if err == nil {
			break
		}
		slog.Warn("Database not reachable, retrying",
			slog.String("type", "db"),
			slog.String("addr", addr),
			slog.Int("attempt", i+1),
			slog.Any("error", err))
		time.Sleep(defaultRetryInterval)
	}
	if err != nil {
		return nil, fmt.Errorf("database server unreachable after %d attempts: %w", defaultMaxRetries, err)
	}
	conn.Close()

	poolConfig, err := pgxpool.ParseConfig(buildConnString(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	if cfg.PoolSize > 0 {
		poolConfig.MaxConns = int32(cfg.PoolSize)
	}
	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = int32(cfg.MaxIdleConns)
	}
	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = time.Duration(cfg.MaxLifetime) * time.Second
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	bunDB := newBunDB(cfg)
	bunDB.AddQueryHook(NewQueryHook(false))
	return &DB{pool: pool, bunDB: bunDB, driver: "postgres"}, nil
}

// NewSQLite opens an embedded database. path ":memory:" yields a private
// in-memory database, which is what the tests use.
func NewSQLite(path string) (*DB, error) {
	dsn := path
	if path == ":memory:" {
		// a unique name keeps concurrently opened in-memory databases apart
		dsn = fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	} else if !strings.Contains(path, "?") {
		dsn = "file:" + path + "?_foreign_keys=on&_busy_timeout=5000"
	}

	sqldb, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// sqlite serializes writers anyway; one connection also keeps a shared
	// in-memory database alive for the lifetime of the handle.
	sqldb.SetMaxOpenConns(1)
	sqldb.SetMaxIdleConns(1)
	sqldb.SetConnMaxLifetime(0)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	bunDB.AddQueryHook(NewQueryHook(false))
	return &DB{bunDB: bunDB, driver: "sqlite"}, nil
}

func buildConnString(cfg DBConfig) string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?connect_timeout=5",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database,
	)
}

func newBunDB(cfg DBConfig) *bun.DB {
	sslMode := os.Getenv("PG_SSLMODE")
	if sslMode == "" {
		sslMode = "disable"
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, sslMode)

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	if cfg.PoolSize > 0 {
		sqldb.SetMaxOpenConns(cfg.PoolSize)
	}
	return bun.NewDB(sqldb, pgdialect.New())
}

func (db *DB) BunDB() *bun.DB {
	return db.bunDB
}

func (db *DB) Driver() string {
	return db.driver
}

func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
	if db.bunDB != nil {
		db.bunDB.Close()
	}
}

// PoolStats reports the pgx pool counters; nil on sqlite.
func (db *DB) PoolStats() map[string]int64 {
	if db.pool == nil {
		return nil
	}
	st := db.pool.Stat()
	return map[string]int64{
		"total_conns":    int64(st.TotalConns()),
		"idle_conns":     int64(st.IdleConns()),
		"acquired_conns": int64(st.AcquiredConns()),
		"max_conns":      int64(st.MaxConns()),
	}
}

// Ping verifies every open connection is working.
func (db *DB) Ping(ctx context.Context) error {
	if db.pool != nil {
		if err := db.pool.Ping(ctx); err != nil {
			return fmt.Errorf("pgxpool ping failed: %w", err)
		}
	}

	if err := db.bunDB.PingContext(ctx); err != nil {
		return fmt.Errorf("bun ping failed: %w", err)
	}

	return nil
}
