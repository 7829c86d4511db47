package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := "[db]\ndriver = \"sqlite\"\npath = \"" + filepath.ToSlash(filepath.Join(dir, "archivio.db")) + "\"\n\n[game]\ndefault_max_actions = 7\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestUserCommands(t *testing.T) {
	path := writeConfig(t)

	out, err := run(t, "--config", path, "promote", "555", "bianca")
	if err != nil {
		t.Fatalf("promote: %v", err)
	}
	if !strings.Contains(out, "bianca (555) is now admin") {
		t.Errorf("promote output = %q", out)
	}

	out, err = run(t, "--config", path, "set-actions", "555", "12")
	if err != nil {
		t.Fatalf("set-actions: %v", err)
	}
	if !strings.Contains(out, "max actions 12") {
		t.Errorf("set-actions output = %q", out)
	}

	out, err = run(t, "--config", path, "users")
	if err != nil {
		t.Fatalf("users: %v", err)
	}
	if !strings.Contains(out, "555") || !strings.Contains(out, "0/12") {
		t.Errorf("users output = %q", out)
	}

	if _, err := run(t, "--config", path, "set-actions", "555", "dodici"); err == nil {
		t.Error("expected an error for a non numeric max")
	}
	if _, err := run(t, "--config", path, "reset-actions", "999"); err == nil {
		t.Error("expected an error for an unknown user")
	}
}

func TestResetRequiresConfirmation(t *testing.T) {
	path := writeConfig(t)
	resetYes = false

	_, err := run(t, "--config", path, "reset")
	if err == nil || !strings.Contains(err.Error(), "--yes") {
		t.Fatalf("reset without --yes: %v", err)
	}
}

func TestMigrateNeedsMongoURI(t *testing.T) {
	path := writeConfig(t)

	_, err := run(t, "--config", path, "migrate")
	if err == nil || !strings.Contains(err.Error(), "mongo uri") {
		t.Fatalf("migrate without uri: %v", err)
	}
}
