package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/archivio-maledetto/archivio/archivio/database/models"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	_ "modernc.org/sqlite"
)

const (
	defaultConnTimeout   = 5 * time.Second
	defaultMaxRetries    = 3
	defaultRetryInterval = time.Second
	schemaVersion        = 1 // bump when schema changes

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type DBConfig struct {
	Driver       string `toml:"driver"`
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	User         string `toml:"user"`
	Password     string `toml:"password"`
	Database     string `toml:"database"`
	PoolSize     int    `toml:"pool_size"`
	MaxIdleConns int    `toml:"max_idle_conns"`
	MaxLifetime  int    `toml:"max_lifetime"`
	Path         string `toml:"path"`
}

// DB bundles the bun handle used by repositories with the pgx pool used for
// administrative queries. The pool is nil in SQLite mode.
type DB struct {
	pool  *pgxpool.Pool
	bunDB *bun.DB
}

// appTables lists every application table in creation order.
var appTables = []any{
	(*models.User)(nil),
	(*models.Background)(nil),
	(*models.FollowerSpend)(nil),
	(*models.ResourceItem)(nil),
	(*models.ResourceLock)(nil),
	(*models.Challenge)(nil),
	(*models.ChallengeAttempt)(nil),
	(*models.Aid)(nil),
	(*models.AidUse)(nil),
	(*models.HistoryEntry)(nil),
}

// appTableNames lists the tables behind appTables, children first.
var appTableNames = []string{
	"history_entries",
	"aid_uses",
	"aids",
	"challenge_attempts",
	"challenges",
	"resource_locks",
	"resource_items",
	"follower_spends",
	"backgrounds",
	"users",
}

var appIndexes = []string{
	"CREATE UNIQUE INDEX IF NOT EXISTS ux_challenge_attempts_user_challenge ON challenge_attempts(user_id, challenge_id);",
	"CREATE UNIQUE INDEX IF NOT EXISTS ux_aid_uses_user_aid_level ON aid_uses(user_id, aid_id, level);",
	"CREATE INDEX IF NOT EXISTS idx_challenge_attempts_user ON challenge_attempts(user_id, created_at);",
	"CREATE INDEX IF NOT EXISTS idx_aid_uses_user ON aid_uses(user_id, created_at);",
	"CREATE INDEX IF NOT EXISTS idx_follower_spends_user_month ON follower_spends(user_id, month_key);",
	"CREATE INDEX IF NOT EXISTS idx_resource_locks_user_unlock ON resource_locks(user_id, unlock_at);",
	"CREATE INDEX IF NOT EXISTS idx_history_entries_user_created ON history_entries(user_id, created_at);",
	"CREATE INDEX IF NOT EXISTS idx_aids_event_date ON aids(event_date);",
	"CREATE INDEX IF NOT EXISTS idx_challenges_name ON challenges(name);",
}

// New opens the database named by cfg.Driver. An empty driver means Postgres.
func New(ctx context.Context, cfg DBConfig) (*DB, error) {
	switch strings.ToLower(cfg.Driver) {
	case DriverSQLite:
		return NewSQLite(ctx, cfg.Path)
	case "", DriverPostgres:
		return newPostgres(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func newPostgres(ctx context.Context, cfg DBConfig) (*DB, error) {
	var conn net.Conn
	var err error

	tryDial := func() (net.Conn, error) {
		addr := net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", cfg.Port))
		if os.Getenv("DB_DIAL_FORCE_IPV6") == "1" {
			return net.DialTimeout("tcp6", addr, defaultConnTimeout)
		}
		if c, e := net.DialTimeout("tcp4", addr, defaultConnTimeout); e == nil {
			return c, nil
		}
		return net.DialTimeout("tcp6", addr, defaultConnTimeout)
	}

	for i := 0; i < defaultMaxRetries; i++ {
		conn, err = tryDial()
		if err == nil {
			break
		}
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

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(bunDSN(cfg))))
	if cfg.PoolSize > 0 {
		sqldb.SetMaxOpenConns(cfg.PoolSize)
	}
	return &DB{pool: pool, bunDB: bun.NewDB(sqldb, pgdialect.New())}, nil
}

// NewSQLite opens a SQLite database at path. An empty path or ":memory:"
// yields a private in-memory database.
func NewSQLite(ctx context.Context, path string) (*DB, error) {
	path = strings.TrimSpace(path)
	var dsn string
	if path == "" || path == ":memory:" {
		dsn = ":memory:"
	} else {
		dsn = filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	sqldb, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// A single connection serialises writers and keeps an in-memory database
	// alive across queries.
	sqldb.SetMaxOpenConns(1)
	sqldb.SetConnMaxLifetime(0)

	if err := sqldb.PingContext(ctx); err != nil {
		_ = sqldb.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	return &DB{bunDB: bun.NewDB(sqldb, sqlitedialect.New())}, nil
}

func buildConnString(cfg DBConfig) string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?connect_timeout=5",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database,
	)
}

func bunDSN(cfg DBConfig) string {
	sslMode := os.Getenv("PG_SSLMODE")
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, sslMode)
}

func (db *DB) BunDB() *bun.DB {
	return db.bunDB
}

func (db *DB) IsPostgres() bool {
	return db.bunDB.Dialect().Name() == dialect.PG
}

// ExecWithLog runs a statement through bun, logging its duration. Use "?"
// placeholders.
func (db *DB) ExecWithLog(ctx context.Context, query string, args ...any) (int64, error) {
	start := time.Now()
	result, err := db.bunDB.ExecContext(ctx, query, args...)
	duration := time.Since(start)

	if err != nil {
		slog.Error("Query failed",
			slog.String("type", "db"),
			slog.String("operation", "exec"),
			slog.String("query", query),
			slog.Any("args", args),
			slog.Duration("took", duration),
			slog.Any("error", err),
		)
		return 0, err
	}

	affected, _ := result.RowsAffected()
	slog.Debug("Query executed",
		slog.String("type", "db"),
		slog.String("operation", "exec"),
		slog.String("query", query),
		slog.Duration("took", duration),
		slog.Int64("affected_rows", affected),
	)
	return affected, nil
}

func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
	if db.bunDB != nil {
		db.bunDB.Close()
	}
}

// InitializeSchema creates all tables and indexes. With DB_FAST_INIT=1 it is
// skipped when the stored schema version matches.
func (db *DB) InitializeSchema(ctx context.Context) error {
	if os.Getenv("DB_FAST_INIT") == "1" {
		if err := db.ensureAppMeta(ctx); err == nil {
			if v, _ := db.getAppMeta(ctx, "schema_version"); v == fmt.Sprintf("%d", schemaVersion) {
				slog.Info("Fast DB init: schema up-to-date, skipping initialization",
					slog.String("mode", "DB_FAST_INIT"),
					slog.Int("schema_version", schemaVersion))
				return nil
			}
		}
	}

	if db.IsPostgres() {
		if err := db.ensureUTF8Encoding(ctx); err != nil {
			return fmt.Errorf("failed to ensure UTF-8 encoding: %w", err)
		}
	}

	for _, model := range appTables {
		if _, err := db.bunDB.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	for _, idx := range appIndexes {
		if _, err := db.ExecWithLog(ctx, idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	if err := db.ensureAppMeta(ctx); err != nil {
		return fmt.Errorf("failed to create app_meta: %w", err)
	}
	if err := db.setAppMeta(ctx, "schema_version", fmt.Sprintf("%d", schemaVersion)); err != nil {
		return fmt.Errorf("failed to store schema version: %w", err)
	}
	return nil
}

// SchemaVersion returns the stored schema version, or "" when the schema was
// never initialised.
func (db *DB) SchemaVersion(ctx context.Context) string {
	if err := db.ensureAppMeta(ctx); err != nil {
		return ""
	}
	v, _ := db.getAppMeta(ctx, "schema_version")
	return v
}

func (db *DB) ensureAppMeta(ctx context.Context) error {
	_, err := db.ExecWithLog(ctx, `CREATE TABLE IF NOT EXISTS app_meta (key TEXT PRIMARY KEY, value TEXT)`)
	return err
}

func (db *DB) getAppMeta(ctx context.Context, key string) (string, error) {
	var v string
	if err := db.bunDB.QueryRowContext(ctx, `SELECT value FROM app_meta WHERE key = ?`, key).Scan(&v); err != nil {
		return "", err
	}
	return v, nil
}

func (db *DB) setAppMeta(ctx context.Context, key, value string) error {
	_, err := db.ExecWithLog(ctx, `INSERT INTO app_meta(key, value) VALUES(?, ?)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`, key, value)
	return err
}

// ResetAppTables empties every application table. Definitions, players and
// ledgers are all removed.
func (db *DB) ResetAppTables(ctx context.Context) error {
	names := appTableNames

	if db.IsPostgres() {
		present, err := db.presentTables(ctx)
		if err != nil {
			return err
		}
		var toTruncate []string
		for _, n := range names {
			if present[n] {
				toTruncate = append(toTruncate, n)
			}
		}
		if len(toTruncate) == 0 {
			slog.Warn("No app tables found to reset")
			return nil
		}
		stmt := "TRUNCATE TABLE " + joinIdentifiers(toTruncate) + " RESTART IDENTITY CASCADE;"
		if _, err := db.ExecWithLog(ctx, stmt); err != nil {
			return fmt.Errorf("failed to truncate tables: %w", err)
		}
		slog.Info("App tables truncated successfully", "tables", toTruncate)
		return nil
	}

	for _, n := range names {
		if _, err := db.ExecWithLog(ctx, "DELETE FROM "+joinIdentifiers([]string{n})); err != nil {
			return fmt.Errorf("failed to clear %s: %w", n, err)
		}
	}
	slog.Info("App tables cleared successfully", "tables", names)
	return nil
}

func (db *DB) presentTables(ctx context.Context) (map[string]bool, error) {
	rows, err := db.pool.Query(ctx, `SELECT table_name FROM information_schema.tables WHERE table_schema = 'public'`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	present := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err == nil {
			present[name] = true
		}
	}
	return present, rows.Err()
}

func joinIdentifiers(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = fmt.Sprintf("\"%s\"", n)
	}
	return strings.Join(quoted, ", ")
}

// Ping verifies every open connection.
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

func (db *DB) ensureUTF8Encoding(ctx context.Context) error {
	var encoding string
	if err := db.pool.QueryRow(ctx, "SHOW server_encoding;").Scan(&encoding); err != nil {
		return fmt.Errorf("failed to check database encoding: %w", err)
	}
	if encoding != "UTF8" {
		slog.Warn("Database is not using UTF-8 encoding, this may cause character encoding issues",
			"current_encoding", encoding,
			"recommended", "UTF8")
	}
	return nil
}
