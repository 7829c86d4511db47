package player

import (
	"context"
	"fmt"
	"strings"

	"github.com/archivio-maledetto/archivio/archivio"
	"github.com/archivio-maledetto/archivio/archivio/config"
	"github.com/archivio-maledetto/archivio/archivio/database/models"
	"github.com/archivio-maledetto/archivio/archivio/utils"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
)

var Aid = discord.SlashCommandCreate{
	Name:        "aiuto",
	Description: "Usa un livello di un aiuto attivo",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionString{
			Name:         "aiuto",
			Description:  "L'aiuto da usare",
			Required:     true,
			Autocomplete: true,
		},
		discord.ApplicationCommandOptionInt{
			Name:        "livello",
			Description: "Il livello richiesto",
			Required:    true,
			MinValue:    utils.Ptr(1),
		},
		discord.ApplicationCommandOptionInt{
			Name:        "valore",
			Description: "Il tuo valore nell'attributo dell'aiuto",
			Required:    true,
			MinValue:    utils.Ptr(0),
		},
	},
}

var Aids = discord.SlashCommandCreate{
	Name:        "aiuti",
	Description: "Mostra gli aiuti attivi e quelli che hai già usato",
}

func AidHandler(b *archivio.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), config.HandlerTimeout)
		defer cancel()

		user, err := b.ResolveCaller(ctx, e.User())
		if err != nil {
			return utils.EH.HandleServiceError(e, err)
		}

		data := e.SlashCommandInteractionData()
		res, err := b.Aids.Use(ctx, user.ID, data.String("aiuto"), data.Int("livello"), data.Int("valore"))
		if err != nil {
			return utils.EH.HandleServiceError(e, err)
		}

		embed := discord.NewEmbedBuilder().
			SetTitle(fmt.Sprintf("%s · %s", res.AidName, res.LevelName)).
			SetDescription(res.Text).
			AddField("Attributo", res.Attribute, true).
			AddField("Livello", fmt.Sprintf("%d", res.Level), true).
			SetColor(levelColor(res.LevelName)).
			Build()
		return e.CreateMessage(discord.MessageCreate{Embeds: []discord.Embed{embed}})
	}
}

func levelColor(levelName string) int {
	switch strings.ToLower(levelName) {
	case "minore":
		return config.AidMinoreColor
	case "medio":
		return config.AidMedioColor
	case "maggiore":
		return config.AidMaggioreColor
	default:
		return config.EmbedDefaultColor
	}
}

func AidAutocomplete(b *archivio.Bot) handler.AutocompleteHandler {
	return func(e *handler.AutocompleteEvent) error {
		name, query := utils.Focused(e)
		if name != "aiuto" {
			return e.AutocompleteResult(nil)
		}

		ctx, cancel := context.WithTimeout(context.Background(), config.SearchTimeout)
		defer cancel()

		active, err := b.Aids.ListActive(ctx)
		if err != nil {
			return e.AutocompleteResult(nil)
		}
		query = strings.ToLower(query)
		choices := make([]utils.Choice, 0, len(active))
		for _, a := range active {
			if query != "" && !strings.Contains(strings.ToLower(a.Name), query) {
				continue
			}
			choices = append(choices, utils.Choice{
				Name:  fmt.Sprintf("%s (%s)", a.Name, a.Attribute),
				Value: a.ID,
			})
		}
		return e.AutocompleteResult(utils.AutocompleteChoices(choices))
	}
}

func AidsHandler(b *archivio.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), config.HandlerTimeout)
		defer cancel()

		user, err := b.ResolveCaller(ctx, e.User())
		if err != nil {
			return utils.EH.HandleServiceError(e, err)
		}
		active, err := b.Aids.ListActive(ctx)
		if err != nil {
			return utils.EH.HandleServiceError(e, err)
		}
		used, err := b.Aids.ListUsed(ctx, user.ID)
		if err != nil {
			return utils.EH.HandleServiceError(e, err)
		}

		embed := discord.NewEmbedBuilder().
			SetTitle("Aiuti").
			SetColor(config.InfoColor).
			AddField("Attivi ora", formatActiveAids(active, used), false).
			AddField("Già usati", formatUsedAids(used), false).
			Build()
		return e.CreateMessage(discord.MessageCreate{
			Embeds: []discord.Embed{embed},
			Flags:  discord.MessageFlagEphemeral,
		})
	}
}

func formatActiveAids(active []*models.Aid, used []*models.AidUse) string {
	if len(active) == 0 {
		return "Nessun aiuto attivo in questo momento"
	}
	usedLevels := make(map[string]map[int]bool)
	for _, u := range used {
		if usedLevels[u.AidID] == nil {
			usedLevels[u.AidID] = make(map[int]bool)
		}
		usedLevels[u.AidID][u.Level] = true
	}

	var sb strings.Builder
	for _, a := range active {
		sb.WriteString(fmt.Sprintf("**%s** · %s (%s-%s)\n", a.Name, a.Attribute, a.StartTime, a.EndTime))
		for _, l := range a.Levels {
			mark := "▫️"
			if usedLevels[a.ID][l.Level] {
				mark = "✅"
			}
			sb.WriteString(fmt.Sprintf("> %s %d %s\n", mark, l.Level, l.LevelName))
		}
	}
	return utils.Truncate(sb.String(), 1024)
}

func formatUsedAids(used []*models.AidUse) string {
	if len(used) == 0 {
		return "Nessuno"
	}
	var sb strings.Builder
	for _, u := range used {
		sb.WriteString(fmt.Sprintf("• %s · %s (%d) <t:%d:d>\n", u.AidName, u.LevelName, u.Level, u.CreatedAt.Unix()))
	}
	return utils.Truncate(sb.String(), 1024)
}
