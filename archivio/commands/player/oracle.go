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
	"github.com/disgoorg/paginator"
)

var Oracle = discord.SlashCommandCreate{
	Name:        "oracolo",
	Description: "Fai una domanda all'archivio (consuma un'azione)",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionString{
			Name:        "domanda",
			Description: "La tua domanda",
			Required:    true,
			MaxLength:   utils.Ptr(1500),
		},
	},
}

var History = discord.SlashCommandCreate{
	Name:        "storico",
	Description: "Mostra le tue domande, sfide e aiuti",
}

func OracleHandler(b *archivio.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		if err := e.DeferCreateMessage(false); err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), config.OracleHandlerTimeout)
		defer cancel()

		user, err := b.ResolveCaller(ctx, e.User())
		if err != nil {
			return utils.EH.UpdateWithServiceError(e, err)
		}
		question := e.SlashCommandInteractionData().String("domanda")
		entry, err := b.Oracle.Send(ctx, user.ID, question)
		if err != nil {
			return utils.EH.UpdateWithServiceError(e, err)
		}

		embed := discord.NewEmbedBuilder().
			SetTitle("🔮 Oracolo").
			AddField("Domanda", utils.Truncate(entry.Question, 1024), false).
			SetDescription(utils.Truncate(entry.Answer, 4000)).
			SetColor(config.OracleColor).
			SetFooter(user.Username, "").
			Build()
		_, err = e.UpdateInteractionResponse(discord.MessageUpdate{
			Embeds: &[]discord.Embed{embed},
		})
		return err
	}
}

func HistoryHandler(b *archivio.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), config.HandlerTimeout)
		defer cancel()

		user, err := b.ResolveCaller(ctx, e.User())
		if err != nil {
			return utils.EH.HandleServiceError(e, err)
		}
		entries, err := b.Oracle.History(ctx, user.ID)
		if err != nil {
			return utils.EH.HandleServiceError(e, err)
		}
		if len(entries) == 0 {
			return utils.EH.CreateInfoEmbed(e, "Il tuo storico è vuoto")
		}

		totalPages := utils.PageCount(len(entries), config.HistoryPerPage)
		return b.Paginator.Create(e.Respond, paginator.Pages{
			ID:      e.ID().String(),
			Creator: e.User().ID,
			PageFunc: func(page int, embed *discord.EmbedBuilder) {
				start, end := utils.PageBounds(page, config.HistoryPerPage, len(entries))

				var description strings.Builder
				for _, h := range entries[start:end] {
					description.WriteString(fmt.Sprintf("%s <t:%d:f>\n**%s**\n%s\n\n",
						historyIcon(h.Kind), h.CreatedAt.Unix(),
						utils.Truncate(h.Question, 200), utils.Truncate(h.Answer, 400)))
				}

				embed.
					SetTitle("Storico di "+user.Username).
					SetDescription(description.String()).
					SetColor(config.EmbedDefaultColor).
					SetFooter(fmt.Sprintf("Pagina %d/%d • %d voci", page+1, totalPages, len(entries)), "")
			},
			Pages:      totalPages,
			ExpireMode: paginator.ExpireModeAfterLastUsage,
		}, true)
	}
}

func historyIcon(kind string) string {
	switch kind {
	case models.HistoryChallenge:
		return "⚔️"
	case models.HistoryAid:
		return "🤝"
	default:
		return "🔮"
	}
}
