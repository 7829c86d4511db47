package admin

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/archivio-maledetto/archivio/archivio"
	"github.com/archivio-maledetto/archivio/archivio/commands/player"
	"github.com/archivio-maledetto/archivio/archivio/config"
	"github.com/archivio-maledetto/archivio/archivio/database/models"
	"github.com/archivio-maledetto/archivio/archivio/utils"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/paginator"
)

func targetOption() discord.ApplicationCommandOptionUser {
	return discord.ApplicationCommandOptionUser{
		Name:        "utente",
		Description: "Il giocatore",
		Required:    true,
	}
}

var Users = discord.SlashCommandCreate{
	Name:        "utenti",
	Description: "Gestione dei giocatori (admin)",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionSubCommand{
			Name:        "elenco",
			Description: "Elenca i giocatori registrati",
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "azioni",
			Description: "Imposta le azioni mensili di base",
			Options: []discord.ApplicationCommandOption{
				targetOption(),
				discord.ApplicationCommandOptionInt{
					Name:        "massimo",
					Description: "Azioni mensili di base",
					Required:    true,
					MinValue:    utils.Ptr(0),
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "ruolo",
			Description: "Cambia il ruolo di un giocatore",
			Options: []discord.ApplicationCommandOption{
				targetOption(),
				discord.ApplicationCommandOptionString{
					Name:        "ruolo",
					Description: "Il nuovo ruolo",
					Required:    true,
					Choices: []discord.ApplicationCommandOptionChoiceString{
						{Name: "Giocatore", Value: models.RolePlayer},
						{Name: "Admin", Value: models.RoleAdmin},
					},
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "reset",
			Description: "Azzera le azioni usate questo mese",
			Options:     []discord.ApplicationCommandOption{targetOption()},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "background",
			Description: "Sovrascrive il background di un giocatore",
			Options:     append([]discord.ApplicationCommandOption{targetOption()}, player.SheetOptions()...),
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "sblocca",
			Description: "Permette al giocatore di compilare di nuovo il background",
			Options:     []discord.ApplicationCommandOption{targetOption()},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "stato",
			Description: "Mostra il riepilogo di un giocatore",
			Options:     []discord.ApplicationCommandOption{targetOption()},
		},
	},
}

func UsersListHandler(b *archivio.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), config.HandlerTimeout)
		defer cancel()

		users, err := b.Players.List(ctx)
		if err != nil {
			return utils.EH.HandleServiceError(e, err)
		}
		if len(users) == 0 {
			return utils.EH.CreateInfoEmbed(e, "Nessun giocatore registrato")
		}

		const perPage = 10
		totalPages := utils.PageCount(len(users), perPage)
		return b.Paginator.Create(e.Respond, paginator.Pages{
			ID:      e.ID().String(),
			Creator: e.User().ID,
			PageFunc: func(page int, embed *discord.EmbedBuilder) {
				start, end := utils.PageBounds(page, perPage, len(users))
				var sb strings.Builder
				for _, u := range users[start:end] {
					role := ""
					if u.IsAdmin() {
						role = " 🛡️"
					}
					sb.WriteString(fmt.Sprintf("**%s**%s <@%s>\n> azioni %d/%d\n", u.Username, role, u.DiscordID, u.UsedActions, u.MaxActions))
				}
				embed.
					SetTitle("Giocatori").
					SetDescription(sb.String()).
					SetColor(config.InfoColor).
					SetFooter(fmt.Sprintf("Pagina %d/%d • %d giocatori", page+1, totalPages, len(users)), "")
			},
			Pages:      totalPages,
			ExpireMode: paginator.ExpireModeAfterLastUsage,
		}, true)
	}
}

func SetMaxActionsHandler(b *archivio.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), config.HandlerTimeout)
		defer cancel()

		user, target, err := resolveTarget(ctx, b, e, "utente")
		if err != nil {
			return utils.EH.HandleServiceError(e, err)
		}
		maxActions := e.SlashCommandInteractionData().Int("massimo")
		if err := b.Players.SetMaxActions(ctx, user.ID, maxActions); err != nil {
			return utils.EH.HandleServiceError(e, err)
		}
		slog.Info("Max actions updated",
			slog.String("type", "cmd"),
			slog.String("admin_id", e.User().ID.String()),
			slog.String("target_user_id", target.ID.String()),
			slog.Int("max_actions", maxActions),
		)
		return utils.EH.CreateSuccessEmbed(e, fmt.Sprintf("Azioni mensili di **%s** impostate a %d", target.Username, maxActions))
	}
}

func SetRoleHandler(b *archivio.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), config.HandlerTimeout)
		defer cancel()

		user, target, err := resolveTarget(ctx, b, e, "utente")
		if err != nil {
			return utils.EH.HandleServiceError(e, err)
		}
		role := e.SlashCommandInteractionData().String("ruolo")
		if err := b.Players.SetRole(ctx, user.ID, role); err != nil {
			return utils.EH.HandleServiceError(e, err)
		}
		slog.Info("Role updated",
			slog.String("type", "cmd"),
			slog.String("admin_id", e.User().ID.String()),
			slog.String("target_user_id", target.ID.String()),
			slog.String("role", role),
		)
		return utils.EH.CreateSuccessEmbed(e, fmt.Sprintf("Ruolo di **%s** impostato a %s", target.Username, role))
	}
}

func ResetActionsHandler(b *archivio.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), config.HandlerTimeout)
		defer cancel()

		user, target, err := resolveTarget(ctx, b, e, "utente")
		if err != nil {
			return utils.EH.HandleServiceError(e, err)
		}
		if err := b.Players.ResetActions(ctx, user.ID); err != nil {
			return utils.EH.HandleServiceError(e, err)
		}
		slog.Info("Actions reset",
			slog.String("type", "cmd"),
			slog.String("admin_id", e.User().ID.String()),
			slog.String("target_user_id", target.ID.String()),
		)
		return utils.EH.CreateSuccessEmbed(e, fmt.Sprintf("Azioni di **%s** azzerate", target.Username))
	}
}

func OverrideBackgroundHandler(b *archivio.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), config.HandlerTimeout)
		defer cancel()

		user, target, err := resolveTarget(ctx, b, e, "utente")
		if err != nil {
			return utils.EH.HandleServiceError(e, err)
		}
		sheet, err := player.SheetFromData(e.SlashCommandInteractionData())
		if err != nil {
			return utils.EH.HandleServiceError(e, err)
		}
		bg, err := b.Background.AdminSubmit(ctx, user.ID, sheet)
		if err != nil {
			return utils.EH.HandleServiceError(e, err)
		}
		return e.CreateMessage(discord.MessageCreate{
			Content: "✅ Background aggiornato",
			Embeds:  []discord.Embed{player.BackgroundEmbed(target.Username, bg)},
			Flags:   discord.MessageFlagEphemeral,
		})
	}
}

func UnlockBackgroundHandler(b *archivio.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), config.HandlerTimeout)
		defer cancel()

		user, target, err := resolveTarget(ctx, b, e, "utente")
		if err != nil {
			return utils.EH.HandleServiceError(e, err)
		}
		if err := b.Background.Unlock(ctx, user.ID); err != nil {
			return utils.EH.HandleServiceError(e, err)
		}
		return utils.EH.CreateSuccessEmbed(e, fmt.Sprintf("**%s** può compilare di nuovo il background", target.Username))
	}
}

func UserStatusHandler(b *archivio.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), config.StatusQueryTimeout)
		defer cancel()

		user, target, err := resolveTarget(ctx, b, e, "utente")
		if err != nil {
			return utils.EH.HandleServiceError(e, err)
		}
		bg, err := b.Background.Get(ctx, user.ID)
		if err != nil {
			return utils.EH.HandleServiceError(e, err)
		}
		followers, err := b.Economy.FollowerStatus(ctx, user.ID)
		if err != nil {
			return utils.EH.HandleServiceError(e, err)
		}

		embed := player.BackgroundEmbed(target.Username, bg)
		embed.Fields = append(embed.Fields, discord.EmbedField{
			Name: "Azioni",
			Value: fmt.Sprintf("%d/%d usate (base %d), %d SEGUACI disponibili",
				followers.UsedActions, followers.EffectiveMaxActions, followers.BaseMaxActions, followers.AvailableFollowers),
		})
		return e.CreateMessage(discord.MessageCreate{
			Embeds: []discord.Embed{embed},
			Flags:  discord.MessageFlagEphemeral,
		})
	}
}
