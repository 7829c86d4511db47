package archivio

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/archivio-maledetto/archivio/archivio/aids"
	"github.com/archivio-maledetto/archivio/archivio/background"
	"github.com/archivio-maledetto/archivio/archivio/catalog"
	"github.com/archivio-maledetto/archivio/archivio/challenges"
	"github.com/archivio-maledetto/archivio/archivio/database"
	"github.com/archivio-maledetto/archivio/archivio/database/models"
	"github.com/archivio-maledetto/archivio/archivio/database/repositories"
	"github.com/archivio-maledetto/archivio/archivio/dice"
	"github.com/archivio-maledetto/archivio/archivio/economy"
	"github.com/archivio-maledetto/archivio/archivio/oracle"
	"github.com/archivio-maledetto/archivio/archivio/players"
	"github.com/disgoorg/disgo"
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/cache"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/gateway"
	"github.com/disgoorg/paginator"
	"github.com/disgoorg/snowflake/v2"
)

func New(cfg Config, version string, commit string) *Bot {
	return &Bot{
		Cfg:       cfg,
		Paginator: paginator.New(),
		Version:   version,
		Commit:    commit,
	}
}

type Bot struct {
	Cfg        Config
	Client     bot.Client
	Paginator  *paginator.Manager
	Version    string
	Commit     string
	DB         *database.DB
	Store      *repositories.Store
	Catalog    *catalog.Catalog
	Players    *players.Service
	Economy    *economy.Service
	Background *background.Manager
	Aids       *aids.Service
	Challenges *challenges.Service
	Oracle     *oracle.Service
}

// InitServices builds the rules engine on top of db.
func (b *Bot) InitServices(db *database.DB, answerer oracle.Answerer) error {
	loc, err := b.Cfg.Location()
	if err != nil {
		return err
	}
	roller, err := dice.NewSeededRoller()
	if err != nil {
		return err
	}
	if answerer == nil {
		answerer = oracle.StaticAnswerer{Text: b.Cfg.Game.OracleFallbackAnswer}
	}

	b.DB = db
	b.Store = repositories.NewStore(db.BunDB())
	b.Catalog, err = catalog.New(b.Store, b.Cfg.Game.CacheSize)
	if err != nil {
		return fmt.Errorf("create catalog: %w", err)
	}

	b.Economy = economy.NewService(b.Store)
	b.Background = background.NewManager(b.Store)
	b.Aids = aids.NewService(b.Store, b.Catalog, aids.WithLocation(loc))
	b.Challenges = challenges.NewService(b.Store, b.Catalog, roller)
	b.Oracle = oracle.NewService(b.Store, answerer, oracle.WithHistoryLimit(b.Cfg.Game.HistoryLimit))
	b.Players = players.NewService(b.Store, b.Economy, b.Background, b.Aids, b.Challenges,
		players.WithDefaultMaxActions(b.Cfg.Game.DefaultMaxActions))
	return nil
}

func (b *Bot) SetupBot(listeners ...bot.EventListener) error {
	client, err := disgo.New(b.Cfg.Bot.Token,
		bot.WithGatewayConfigOpts(gateway.WithIntents(gateway.IntentGuilds, gateway.IntentGuildMembers)),
		bot.WithCacheConfigOpts(cache.WithCaches(cache.FlagGuilds, cache.FlagMembers)),
		bot.WithEventListeners(b.Paginator),
		bot.WithEventListeners(listeners...),
	)
	if err != nil {
		return err
	}

	b.Client = client
	return nil
}

// ResolveCaller maps the Discord user behind an interaction to a player,
// applying the monthly reset.
func (b *Bot) ResolveCaller(ctx context.Context, user discord.User) (*models.User, error) {
	return b.Players.Resolve(ctx, user.ID.String(), user.Username)
}

// IsAdmin reports whether the caller may use admin commands: either the
// stored role is admin or the member holds a configured admin role.
func (b *Bot) IsAdmin(user *models.User, memberRoles []snowflake.ID) bool {
	if user != nil && user.IsAdmin() {
		return true
	}
	for _, id := range memberRoles {
		if slices.Contains(b.Cfg.Bot.AdminRoleIDs, id) {
			return true
		}
	}
	return false
}

func (b *Bot) OnReady(_ *events.Ready) {
	slog.Info("Archivio bot is now ready",
		slog.String("type", "sys"),
		slog.String("version", b.Version),
		slog.String("commit", b.Commit))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := b.Client.SetPresence(ctx,
		gateway.WithListeningActivity("le domande dei giocatori"),
		gateway.WithOnlineStatus(discord.OnlineStatusOnline)); err != nil {
		slog.Error("Failed to set presence", slog.String("type", "sys"), slog.Any("error", err))
	}
}
