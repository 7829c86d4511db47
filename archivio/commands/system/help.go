package system

import (
	"fmt"
	"strings"

	"github.com/archivio-maledetto/archivio/archivio/commands/admin"
	"github.com/archivio-maledetto/archivio/archivio/commands/player"
	"github.com/archivio-maledetto/archivio/archivio/config"
	"github.com/archivio-maledetto/archivio/archivio/utils"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
)

var Help = discord.SlashCommandCreate{
	Name:        "guida",
	Description: "📖 Elenca i comandi disponibili",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionString{
			Name:        "categoria",
			Description: "Filtra per categoria",
			Required:    false,
			Choices: []discord.ApplicationCommandOptionChoiceString{
				{Name: "Giocatore", Value: "player"},
				{Name: "Admin", Value: "admin"},
			},
		},
	},
}

type category struct {
	Key      string
	Name     string
	Emoji    string
	Commands []discord.ApplicationCommandCreate
}

func categories() []category {
	return []category{
		{Key: "player", Name: "Giocatore", Emoji: "🎭", Commands: player.Commands},
		{Key: "admin", Name: "Admin", Emoji: "🛠️", Commands: admin.Commands},
	}
}

// describe lists a command and its subcommands, one per line.
func describe(cmd discord.ApplicationCommandCreate) string {
	slash, ok := cmd.(discord.SlashCommandCreate)
	if !ok {
		return fmt.Sprintf("`/%s`", cmd.CommandName())
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("`/%s` %s\n", slash.Name, slash.Description))
	for _, opt := range slash.Options {
		if sub, ok := opt.(discord.ApplicationCommandOptionSubCommand); ok {
			sb.WriteString(fmt.Sprintf("> `%s` %s\n", sub.Name, sub.Description))
		}
	}
	return sb.String()
}

func HelpHandler(e *handler.CommandEvent) error {
	filter, _ := e.SlashCommandInteractionData().OptString("categoria")

	embed := discord.NewEmbedBuilder().
		SetTitle("📖 Guida dell'Archivio").
		SetColor(config.EmbedDefaultColor)

	total := 0
	for _, c := range categories() {
		if filter != "" && filter != c.Key {
			continue
		}
		var sb strings.Builder
		for _, cmd := range c.Commands {
			sb.WriteString(describe(cmd))
		}
		total += len(c.Commands)
		embed.AddField(fmt.Sprintf("%s %s", c.Emoji, c.Name), utils.Truncate(sb.String(), 1024), false)
	}
	embed.SetFooter(fmt.Sprintf("%d comandi", total), "")

	return e.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{embed.Build()},
		Flags:  discord.MessageFlagEphemeral,
	})
}
