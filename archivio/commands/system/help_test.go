package system

import (
	"strings"
	"testing"

	"github.com/archivio-maledetto/archivio/archivio/commands/admin"
	"github.com/archivio-maledetto/archivio/archivio/commands/player"
)

func TestDescribeListsSubcommands(t *testing.T) {
	out := describe(admin.ManageChallenges)
	for _, want := range []string{"`/gestisci-sfide`", "`crea`", "`prova`", "`elimina`"} {
		if !strings.Contains(out, want) {
			t.Errorf("describe output missing %s:\n%s", want, out)
		}
	}

	if got := describe(player.Status); strings.Count(got, "\n") != 1 {
		t.Errorf("command without subcommands should be one line, got %q", got)
	}
}

func TestCommandNamesUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, c := range categories() {
		for _, cmd := range c.Commands {
			if seen[cmd.CommandName()] {
				t.Errorf("duplicate command %s", cmd.CommandName())
			}
			seen[cmd.CommandName()] = true
		}
	}
	for _, cmd := range Commands {
		if seen[cmd.CommandName()] {
			t.Errorf("duplicate command %s", cmd.CommandName())
		}
	}
}
