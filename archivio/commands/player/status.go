package player

import (
	"context"
	"fmt"

	"github.com/archivio-maledetto/archivio/archivio"
	"github.com/archivio-maledetto/archivio/archivio/config"
	"github.com/archivio-maledetto/archivio/archivio/database/models"
	"github.com/archivio-maledetto/archivio/archivio/players"
	"github.com/archivio-maledetto/archivio/archivio/utils"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
)

var Status = discord.SlashCommandCreate{
	Name:        "azioni",
	Description: "Mostra le azioni del mese, i SEGUACI e il riepilogo del personaggio",
}

func StatusHandler(b *archivio.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		if err := e.DeferCreateMessage(true); err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), config.StatusQueryTimeout)
		defer cancel()

		user, err := b.ResolveCaller(ctx, e.User())
		if err != nil {
			return utils.EH.UpdateWithServiceError(e, err)
		}
		st, err := b.Players.Status(ctx, user)
		if err != nil {
			return utils.EH.UpdateWithServiceError(e, err)
		}

		_, err = e.UpdateInteractionResponse(discord.MessageUpdate{
			Embeds: &[]discord.Embed{statusEmbed(st)},
		})
		return err
	}
}

func statusEmbed(st *players.Status) discord.Embed {
	f := st.Followers
	actions := fmt.Sprintf("%s %d/%d usate\nRimanenti: **%d**",
		utils.ProgressBar(f.UsedActions, f.EffectiveMaxActions, 10),
		f.UsedActions, f.EffectiveMaxActions, f.RemainingActionsBefore)
	followers := fmt.Sprintf("%d SEGUACI, %d impiegati questo mese, %d disponibili",
		f.Seguaci, f.SpentThisMonth, f.AvailableFollowers)

	outcomes := map[string]int{}
	for _, a := range st.Attempts {
		outcomes[a.Outcome]++
	}

	return discord.NewEmbedBuilder().
		SetTitle(fmt.Sprintf("%s · %s", st.User.Username, f.MonthKey)).
		SetColor(config.InfoColor).
		AddField("Azioni", actions, false).
		AddField("Seguaci", followers, false).
		AddField("Base / effettivo", fmt.Sprintf("%d / %d", f.BaseMaxActions, f.EffectiveMaxActions), true).
		AddField("RISORSE", fmt.Sprintf("%d/%d disponibili", st.Resources.Available, st.Resources.Total), true).
		AddField("RIFUGIO", fmt.Sprintf("%d", st.Background.Rifugio), true).
		AddField("Sfide", fmt.Sprintf("%d affrontate (%d successi, %d parità, %d fallimenti)",
			len(st.Attempts), outcomes[models.OutcomeSuccess], outcomes[models.OutcomeTie], outcomes[models.OutcomeFailure]), false).
		AddField("Aiuti usati", fmt.Sprintf("%d", len(st.UsedAids)), true).
		Build()
}
