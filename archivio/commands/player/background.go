package player

import (
	"context"
	"fmt"

	"github.com/archivio-maledetto/archivio/archivio"
	"github.com/archivio-maledetto/archivio/archivio/background"
	"github.com/archivio-maledetto/archivio/archivio/config"
	"github.com/archivio-maledetto/archivio/archivio/database/models"
	"github.com/archivio-maledetto/archivio/archivio/utils"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
)

// SheetOptions are the fields of a background sheet, shared with the admin
// override command.
func SheetOptions() []discord.ApplicationCommandOption {
	return []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionInt{
			Name:        "risorse",
			Description: "RISORSE (0-20)",
			Required:    true,
			MinValue:    utils.Ptr(0),
			MaxValue:    utils.Ptr(background.MaxRisorse),
		},
		discord.ApplicationCommandOptionInt{
			Name:        "seguaci",
			Description: "SEGUACI (0-5)",
			Required:    true,
			MinValue:    utils.Ptr(0),
			MaxValue:    utils.Ptr(background.MaxSeguaci),
		},
		discord.ApplicationCommandOptionInt{
			Name:        "rifugio",
			Description: "RIFUGIO (1-5)",
			Required:    true,
			MinValue:    utils.Ptr(config.MinAttribute),
			MaxValue:    utils.Ptr(config.MaxAttribute),
		},
		discord.ApplicationCommandOptionInt{
			Name:        "mentore",
			Description: "MENTORE (0-5)",
			Required:    false,
			MinValue:    utils.Ptr(0),
			MaxValue:    utils.Ptr(config.MaxAttribute),
		},
		discord.ApplicationCommandOptionInt{
			Name:        "notorieta",
			Description: "NOTORIETÀ (0-5)",
			Required:    false,
			MinValue:    utils.Ptr(0),
			MaxValue:    utils.Ptr(config.MaxAttribute),
		},
		discord.ApplicationCommandOptionString{
			Name:        "contatti",
			Description: "Contatti nel formato Nome:valore, separati da virgola",
			Required:    false,
		},
	}
}

// SheetFromData reads the sheet options of a slash command.
func SheetFromData(data discord.SlashCommandInteractionData) (background.Sheet, error) {
	contacts, err := utils.ParseContacts(data.String("contatti"))
	if err != nil {
		return background.Sheet{}, err
	}
	return background.Sheet{
		Risorse:   data.Int("risorse"),
		Seguaci:   data.Int("seguaci"),
		Rifugio:   data.Int("rifugio"),
		Mentor:    data.Int("mentore"),
		Notoriety: data.Int("notorieta"),
		Contacts:  contacts,
	}, nil
}

var Background = discord.SlashCommandCreate{
	Name:        "background",
	Description: "Consulta o compila il tuo background",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionSubCommand{
			Name:        "mostra",
			Description: "Mostra il tuo background",
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "compila",
			Description: "Compila il background (una sola volta, poi viene bloccato)",
			Options:     SheetOptions(),
		},
	},
}

func BackgroundShowHandler(b *archivio.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), config.HandlerTimeout)
		defer cancel()

		user, err := b.ResolveCaller(ctx, e.User())
		if err != nil {
			return utils.EH.HandleServiceError(e, err)
		}
		bg, err := b.Background.Get(ctx, user.ID)
		if err != nil {
			return utils.EH.HandleServiceError(e, err)
		}
		return e.CreateMessage(discord.MessageCreate{
			Embeds: []discord.Embed{BackgroundEmbed(user.Username, bg)},
			Flags:  discord.MessageFlagEphemeral,
		})
	}
}

func BackgroundSubmitHandler(b *archivio.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), config.HandlerTimeout)
		defer cancel()

		user, err := b.ResolveCaller(ctx, e.User())
		if err != nil {
			return utils.EH.HandleServiceError(e, err)
		}
		sheet, err := SheetFromData(e.SlashCommandInteractionData())
		if err != nil {
			return utils.EH.HandleServiceError(e, err)
		}
		bg, err := b.Background.Submit(ctx, user.ID, sheet)
		if err != nil {
			return utils.EH.HandleServiceError(e, err)
		}
		return e.CreateMessage(discord.MessageCreate{
			Content: "✅ Background salvato. Da ora solo un admin può modificarlo.",
			Embeds:  []discord.Embed{BackgroundEmbed(user.Username, bg)},
			Flags:   discord.MessageFlagEphemeral,
		})
	}
}

// BackgroundEmbed renders a sheet.
func BackgroundEmbed(owner string, bg *models.Background) discord.Embed {
	state := "🔓 modificabile"
	if bg.LockedForPlayer {
		state = "🔒 bloccato"
	}
	return discord.NewEmbedBuilder().
		SetTitle("Background di "+owner).
		SetColor(config.EmbedDefaultColor).
		AddField("RISORSE", fmt.Sprintf("%d", bg.Risorse), true).
		AddField("SEGUACI", fmt.Sprintf("%d", bg.Seguaci), true).
		AddField("RIFUGIO", fmt.Sprintf("%d", bg.Rifugio), true).
		AddField("MENTORE", fmt.Sprintf("%d", bg.Mentor), true).
		AddField("NOTORIETÀ", fmt.Sprintf("%d", bg.Notoriety), true).
		AddField("Contatti", fmt.Sprintf("%s (totale %d/%d)", utils.FormatContacts(bg.Contacts), bg.ContactsTotal(), background.MaxContactsSum), false).
		SetFooter(state, "").
		Build()
}
