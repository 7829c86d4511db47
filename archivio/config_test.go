package archivio

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/archivio-maledetto/archivio/archivio/config"
	"github.com/archivio-maledetto/archivio/archivio/database/models"
	"github.com/disgoorg/snowflake/v2"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeFile(t, "[bot]\ntoken = \"abc\"\n"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Bot.Token != "abc" {
		t.Errorf("token = %q", cfg.Bot.Token)
	}
	if cfg.DB.Driver != "postgres" || cfg.DB.Port != 5432 {
		t.Errorf("db defaults = %+v", cfg.DB)
	}
	if cfg.Game.DefaultMaxActions != config.DefaultMaxActions || cfg.Game.HistoryLimit != config.DefaultHistoryLimit {
		t.Errorf("game defaults = %+v", cfg.Game)
	}
	if cfg.Log.Level != slog.LevelInfo {
		t.Errorf("log level = %v", cfg.Log.Level)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	cfg, err := LoadConfig(writeFile(t, `
[log]
level = "DEBUG"

[bot]
admin_role_ids = [1100000000000000001]

[db]
driver = "sqlite"
path = "test.db"

[game]
default_max_actions = 4
timezone = "Europe/Rome"
`))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Log.Level != slog.LevelDebug {
		t.Errorf("log level = %v", cfg.Log.Level)
	}
	if len(cfg.Bot.AdminRoleIDs) != 1 || cfg.Bot.AdminRoleIDs[0] != snowflake.ID(1100000000000000001) {
		t.Errorf("admin roles = %v", cfg.Bot.AdminRoleIDs)
	}
	if cfg.DB.Driver != "sqlite" || cfg.DB.Path != "test.db" {
		t.Errorf("db = %+v", cfg.DB)
	}
	loc, err := cfg.Location()
	if err != nil || loc.String() != "Europe/Rome" {
		t.Errorf("Location = %v, %v", loc, err)
	}
}

func TestLoadConfigRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown driver", "[db]\ndriver = \"mysql\"\n"},
		{"negative actions", "[game]\ndefault_max_actions = -1\n"},
		{"bad timezone", "[game]\ntimezone = \"Mars/Olympus\"\n"},
		{"malformed toml", "[game\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfig(writeFile(t, tt.body)); err == nil {
				t.Error("expected an error")
			}
		})
	}

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestIsAdmin(t *testing.T) {
	b := New(Config{Bot: BotConfig{AdminRoleIDs: []snowflake.ID{42}}}, "test", "")

	tests := []struct {
		name  string
		user  *models.User
		roles []snowflake.ID
		want  bool
	}{
		{"stored admin role", &models.User{Role: models.RoleAdmin}, nil, true},
		{"discord admin role", &models.User{Role: models.RolePlayer}, []snowflake.ID{7, 42}, true},
		{"plain player", &models.User{Role: models.RolePlayer}, []snowflake.ID{7}, false},
		{"unknown user", nil, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := b.IsAdmin(tt.user, tt.roles); got != tt.want {
				t.Errorf("IsAdmin = %v, want %v", got, tt.want)
			}
		})
	}
}
