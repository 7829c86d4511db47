package player

import (
	"context"
	"fmt"
	"strings"

	"github.com/archivio-maledetto/archivio/archivio"
	"github.com/archivio-maledetto/archivio/archivio/challenges"
	"github.com/archivio-maledetto/archivio/archivio/config"
	"github.com/archivio-maledetto/archivio/archivio/database/models"
	"github.com/archivio-maledetto/archivio/archivio/utils"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/paginator"
)

var Challenge = discord.SlashCommandCreate{
	Name:        "sfida",
	Description: "Affronta una sfida (una sola volta per sfida)",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionString{
			Name:         "sfida",
			Description:  "La sfida da affrontare",
			Required:     true,
			Autocomplete: true,
		},
		discord.ApplicationCommandOptionInt{
			Name:        "valore",
			Description: "Il tuo valore nell'attributo richiesto",
			Required:    true,
			MinValue:    utils.Ptr(config.MinChallengeValue),
			MaxValue:    utils.Ptr(config.MaxChallengeValue),
		},
		discord.ApplicationCommandOptionInt{
			Name:        "prova",
			Description: "Quale prova affrontare (default: la prima)",
			Required:    false,
			MinValue:    utils.Ptr(1),
		},
		discord.ApplicationCommandOptionBool{
			Name:        "rifugio",
			Description: "Usa il RIFUGIO per ridurre la difficoltà, se la sfida lo consente",
			Required:    false,
		},
		discord.ApplicationCommandOptionInt{
			Name:        "seguaci",
			Description: "Quanti SEGUACI impiegare (ognuno riduce la difficoltà e le azioni del mese)",
			Required:    false,
			MinValue:    utils.Ptr(0),
			MaxValue:    utils.Ptr(5),
		},
	},
}

var Challenges = discord.SlashCommandCreate{
	Name:        "sfide",
	Description: "Elenca le sfide disponibili",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionString{
			Name:        "cerca",
			Description: "Filtra per nome o parola chiave",
			Required:    false,
		},
	},
}

func ChallengeHandler(b *archivio.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), config.HandlerTimeout)
		defer cancel()

		user, err := b.ResolveCaller(ctx, e.User())
		if err != nil {
			return utils.EH.HandleServiceError(e, err)
		}

		data := e.SlashCommandInteractionData()
		req := challenges.AttemptRequest{
			UserID:      user.ID,
			ChallengeID: data.String("sfida"),
			PlayerValue: data.Int("valore"),
			UseRefuge:   data.Bool("rifugio"),
		}
		if prova, ok := data.OptInt("prova"); ok {
			req.TestIndex = prova - 1
		}
		if seguaci, ok := data.OptInt("seguaci"); ok {
			req.FollowersRequested = seguaci
		}

		res, err := b.Challenges.Attempt(ctx, req)
		if err != nil {
			return utils.EH.HandleServiceError(e, err)
		}

		return e.CreateMessage(discord.MessageCreate{
			Embeds: []discord.Embed{challengeEmbed(res)},
		})
	}
}

func challengeEmbed(res *challenges.Result) discord.Embed {
	a := res.Attempt
	color := config.ChallengeColor
	switch a.Outcome {
	case models.OutcomeSuccess:
		color = config.SuccessColor
	case models.OutcomeTie:
		color = config.WarningColor
	}

	var mods []string
	if a.RefugeBonus > 0 {
		mods = append(mods, fmt.Sprintf("Rifugio -%d", a.RefugeBonus))
	}
	if a.FollowersUsed > 0 {
		mods = append(mods, fmt.Sprintf("Seguaci -%d", a.FollowersUsed))
	}
	modifiers := "nessuno"
	if len(mods) > 0 {
		modifiers = strings.Join(mods, ", ")
	}

	return discord.NewEmbedBuilder().
		SetTitle(fmt.Sprintf("%s · %s", a.ChallengeName, res.Label)).
		SetDescription(fmt.Sprintf("```\n%s\n```\n%s", strings.SplitN(res.Message, ": ", 2)[0], res.Text)).
		AddField("Attributo", a.Attribute, true).
		AddField("Difficoltà", fmt.Sprintf("%d", a.Difficulty), true).
		AddField("Modificatori", modifiers, true).
		SetColor(color).
		Build()
}

func ChallengeAutocomplete(b *archivio.Bot) handler.AutocompleteHandler {
	return func(e *handler.AutocompleteEvent) error {
		name, query := utils.Focused(e)
		if name != "sfida" {
			return e.AutocompleteResult(nil)
		}

		ctx, cancel := context.WithTimeout(context.Background(), config.SearchTimeout)
		defer cancel()

		list, err := b.Challenges.Search(ctx, query)
		if err != nil {
			return e.AutocompleteResult(nil)
		}
		choices := make([]utils.Choice, 0, len(list))
		for _, ch := range list {
			choices = append(choices, utils.Choice{Name: ch.Name, Value: ch.ID})
		}
		return e.AutocompleteResult(utils.AutocompleteChoices(choices))
	}
}

func ChallengesHandler(b *archivio.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), config.SearchTimeout)
		defer cancel()

		user, err := b.ResolveCaller(ctx, e.User())
		if err != nil {
			return utils.EH.HandleServiceError(e, err)
		}

		query := strings.TrimSpace(e.SlashCommandInteractionData().String("cerca"))
		list, err := b.Challenges.Search(ctx, query)
		if err != nil {
			return utils.EH.HandleServiceError(e, err)
		}
		if len(list) == 0 {
			return utils.EH.CreateInfoEmbed(e, "Nessuna sfida trovata")
		}
		attempted, err := b.Challenges.Attempted(ctx, user.ID)
		if err != nil {
			return utils.EH.HandleServiceError(e, err)
		}

		totalPages := utils.PageCount(len(list), config.ChallengesPerPage)
		return b.Paginator.Create(e.Respond, paginator.Pages{
			ID:      e.ID().String(),
			Creator: e.User().ID,
			PageFunc: func(page int, embed *discord.EmbedBuilder) {
				start, end := utils.PageBounds(page, config.ChallengesPerPage, len(list))

				var description strings.Builder
				for _, ch := range list[start:end] {
					mark := "▫️"
					if attempted[ch.ID] {
						mark = "✅"
					}
					description.WriteString(fmt.Sprintf("%s **%s**", mark, ch.Name))
					if ch.AllowRefugeDefense {
						description.WriteString(" 🏠")
					}
					description.WriteString("\n")
					for i, t := range ch.Tests {
						description.WriteString(fmt.Sprintf("> %d. %s (difficoltà %d)\n", i+1, t.Attribute, t.Difficulty))
					}
				}

				embed.
					SetTitle("Sfide").
					SetDescription(description.String()).
					SetColor(config.ChallengeColor).
					SetFooter(fmt.Sprintf("Pagina %d/%d • %d sfide", page+1, totalPages, len(list)), "")
			},
			Pages:      totalPages,
			ExpireMode: paginator.ExpireModeAfterLastUsage,
		}, true)
	}
}
