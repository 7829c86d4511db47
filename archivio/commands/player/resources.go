package player

import (
	"context"
	"fmt"
	"strings"

	"github.com/archivio-maledetto/archivio/archivio"
	"github.com/archivio-maledetto/archivio/archivio/config"
	"github.com/archivio-maledetto/archivio/archivio/economy"
	"github.com/archivio-maledetto/archivio/archivio/utils"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
)

var Resources = discord.SlashCommandCreate{
	Name:        "risorse",
	Description: "Mostra le tue RISORSE, quelle impegnate e gli oggetti acquistabili",
}

var Purchase = discord.SlashCommandCreate{
	Name:        "acquista",
	Description: "Impegna RISORSE per un oggetto",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionString{
			Name:         "oggetto",
			Description:  "L'oggetto da acquistare",
			Required:     true,
			Autocomplete: true,
		},
	},
}

func ResourcesHandler(b *archivio.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), config.HandlerTimeout)
		defer cancel()

		user, err := b.ResolveCaller(ctx, e.User())
		if err != nil {
			return utils.EH.HandleServiceError(e, err)
		}
		overview, err := b.Economy.Resources(ctx, user.ID)
		if err != nil {
			return utils.EH.HandleServiceError(e, err)
		}
		return e.CreateMessage(discord.MessageCreate{
			Embeds: []discord.Embed{resourcesEmbed(overview)},
			Flags:  discord.MessageFlagEphemeral,
		})
	}
}

func PurchaseHandler(b *archivio.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), config.HandlerTimeout)
		defer cancel()

		user, err := b.ResolveCaller(ctx, e.User())
		if err != nil {
			return utils.EH.HandleServiceError(e, err)
		}
		res, err := b.Economy.Purchase(ctx, user.ID, e.SlashCommandInteractionData().String("oggetto"))
		if err != nil {
			return utils.EH.HandleServiceError(e, err)
		}

		embed := discord.NewEmbedBuilder().
			SetTitle("Acquisto completato").
			SetDescription(fmt.Sprintf("Hai impegnato **%d RISORSE** per **%s**.\nTorneranno disponibili <t:%d:f>.",
				res.Lock.Amount, res.Item.Name, res.Lock.UnlockAt.Unix())).
			AddField("Disponibili", fmt.Sprintf("%d/%d", res.Overview.Available, res.Overview.Total), true).
			SetColor(config.SuccessColor).
			Build()
		return e.CreateMessage(discord.MessageCreate{
			Embeds: []discord.Embed{embed},
			Flags:  discord.MessageFlagEphemeral,
		})
	}
}

func PurchaseAutocomplete(b *archivio.Bot) handler.AutocompleteHandler {
	return func(e *handler.AutocompleteEvent) error {
		name, query := utils.Focused(e)
		if name != "oggetto" {
			return e.AutocompleteResult(nil)
		}

		ctx, cancel := context.WithTimeout(context.Background(), config.SearchTimeout)
		defer cancel()

		items, err := b.Economy.ListItems(ctx)
		if err != nil {
			return e.AutocompleteResult(nil)
		}
		query = strings.ToLower(query)
		choices := make([]utils.Choice, 0, len(items))
		for _, it := range items {
			if query != "" && !strings.Contains(strings.ToLower(it.Name), query) {
				continue
			}
			choices = append(choices, utils.Choice{
				Name:  fmt.Sprintf("%s (%d RISORSE)", it.Name, it.CostResources),
				Value: it.ID,
			})
		}
		return e.AutocompleteResult(utils.AutocompleteChoices(choices))
	}
}

func resourcesEmbed(o *economy.ResourcesOverview) discord.Embed {
	var locks strings.Builder
	for _, l := range o.Locks {
		locks.WriteString(fmt.Sprintf("• %s: %d fino a <t:%d:d>\n", l.ItemName, l.Amount, l.UnlockAt.Unix()))
	}
	if locks.Len() == 0 {
		locks.WriteString("Nessuna")
	}

	var items strings.Builder
	for _, it := range o.Items {
		mark := "🟢"
		if it.CostResources > o.Available {
			mark = "🔴"
		}
		items.WriteString(fmt.Sprintf("%s **%s** · %d\n", mark, it.Name, it.CostResources))
	}
	if items.Len() == 0 {
		items.WriteString("Nessun oggetto disponibile")
	}

	return discord.NewEmbedBuilder().
		SetTitle("RISORSE").
		SetDescription(fmt.Sprintf("%s **%d** disponibili su %d",
			utils.ProgressBar(o.Available, o.Total, 10), o.Available, o.Total)).
		AddField("Impegnate", utils.Truncate(locks.String(), 1024), false).
		AddField("Oggetti", utils.Truncate(items.String(), 1024), false).
		SetColor(config.InfoColor).
		Build()
}
