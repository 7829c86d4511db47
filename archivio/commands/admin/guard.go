package admin

import (
	"context"
	"log/slog"

	"github.com/archivio-maledetto/archivio/archivio"
	"github.com/archivio-maledetto/archivio/archivio/config"
	"github.com/archivio-maledetto/archivio/archivio/database/models"
	"github.com/archivio-maledetto/archivio/archivio/utils"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/snowflake/v2"
)

// RequireAdmin runs h only for callers with the admin role or a configured
// admin Discord role.
func RequireAdmin(b *archivio.Bot, h handler.CommandHandler) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), config.AdminCheckTimeout)
		defer cancel()

		caller, err := b.ResolveCaller(ctx, e.User())
		if err != nil {
			return utils.EH.HandleServiceError(e, err)
		}
		var roles []snowflake.ID
		if m := e.Member(); m != nil {
			roles = m.RoleIDs
		}
		if !b.IsAdmin(caller, roles) {
			slog.Warn("Admin command refused",
				slog.String("type", "cmd"),
				slog.String("user_id", e.User().ID.String()),
				slog.String("command", e.Data.CommandName()),
			)
			return utils.EH.CreatePermissionError(e)
		}
		return h(e)
	}
}

// resolveTarget returns the player behind a user option, creating it on
// first reference.
func resolveTarget(ctx context.Context, b *archivio.Bot, e *handler.CommandEvent, option string) (*models.User, discord.User, error) {
	target := e.SlashCommandInteractionData().User(option)
	user, err := b.Players.Resolve(ctx, target.ID.String(), target.Username)
	return user, target, err
}
