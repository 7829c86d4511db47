package commands

import (
	"github.com/archivio-maledetto/archivio/archivio/commands/admin"
	"github.com/archivio-maledetto/archivio/archivio/commands/player"
	"github.com/archivio-maledetto/archivio/archivio/commands/system"
	"github.com/disgoorg/disgo/discord"
)

var Commands = []discord.ApplicationCommandCreate{}

func init() {
	Commands = append(Commands, player.Commands...)
	Commands = append(Commands, admin.Commands...)
	Commands = append(Commands, system.Commands...)
}
