package archivio

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/archivio-maledetto/archivio/archivio/config"
	"github.com/archivio-maledetto/archivio/archivio/database"
	"github.com/disgoorg/snowflake/v2"
	"github.com/pelletier/go-toml/v2"
)

func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	cfg := DefaultConfig()
	if err = toml.NewDecoder(file).Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultConfig holds the values used for keys missing from the file.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{Level: slog.LevelInfo, Format: "text"},
		DB: database.DBConfig{
			Driver:   "postgres",
			Host:     "localhost",
			Port:     5432,
			PoolSize: 10,
			Path:     "archivio.db",
		},
		Game: GameConfig{
			DefaultMaxActions: config.DefaultMaxActions,
			Timezone:          "UTC",
			HistoryLimit:      config.DefaultHistoryLimit,
			CacheSize:         config.CacheSize,
		},
		Legacy: LegacyConfig{MongoDatabase: "archivio"},
	}
}

type Config struct {
	Log    LogConfig         `toml:"log"`
	Bot    BotConfig         `toml:"bot"`
	DB     database.DBConfig `toml:"db"`
	Game   GameConfig        `toml:"game"`
	Legacy LegacyConfig      `toml:"legacy"`
}

type BotConfig struct {
	DevGuilds    []snowflake.ID `toml:"dev_guilds"`
	AdminRoleIDs []snowflake.ID `toml:"admin_role_ids"`
	Token        string         `toml:"token"`
}

type LogConfig struct {
	Level     slog.Level `toml:"level"`
	Format    string     `toml:"format"`
	AddSource bool       `toml:"add_source"`
}

type GameConfig struct {
	DefaultMaxActions    int    `toml:"default_max_actions"`
	Timezone             string `toml:"timezone"`
	OracleFallbackAnswer string `toml:"oracle_fallback_answer"`
	HistoryLimit         int    `toml:"history_limit"`
	CacheSize            int    `toml:"cache_size"`
}

// LegacyConfig points at the MongoDB deployment imported by archivioctl.
type LegacyConfig struct {
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
}

func (c *Config) Validate() error {
	switch c.DB.Driver {
	case "", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported db driver %q", c.DB.Driver)
	}
	if c.Game.DefaultMaxActions < 0 {
		return fmt.Errorf("game.default_max_actions must not be negative")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location is the zone aid windows are authored in.
func (c *Config) Location() (*time.Location, error) {
	if c.Game.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Game.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid game.timezone %q: %w", c.Game.Timezone, err)
	}
	return loc, nil
}
