package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/archivio-maledetto/archivio/archivio"
	"github.com/archivio-maledetto/archivio/archivio/commands"
	"github.com/archivio-maledetto/archivio/archivio/commands/admin"
	"github.com/archivio-maledetto/archivio/archivio/commands/player"
	"github.com/archivio-maledetto/archivio/archivio/commands/system"
	"github.com/archivio-maledetto/archivio/archivio/config"
	"github.com/archivio-maledetto/archivio/archivio/database"
	"github.com/archivio-maledetto/archivio/archivio/handlers"
	"github.com/archivio-maledetto/archivio/archivio/logger"
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/handler"
)

var (
	version = "dev"
	commit  = "unknown"
)

func setupLogger(cfg archivio.LogConfig) {
	var h slog.Handler
	switch cfg.Format {
	case "json":
		h = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level, AddSource: cfg.AddSource})
	default:
		h = logger.NewHandler(cfg.Level)
	}
	slog.SetDefault(slog.New(h))
}

func main() {
	shouldSyncCommands := flag.Bool("sync-commands", false, "Whether to sync commands to discord")
	path := flag.String("config", "config.toml", "path to config")
	flag.Parse()

	cfg, err := archivio.LoadConfig(*path)
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(-1)
	}
	setupLogger(cfg.Log)

	slog.Info("Starting Archivio Discord Bot",
		slog.String("version", version),
		slog.String("commit", commit))

	slog.Info("Initializing database connection...",
		slog.String("type", "sys"),
		slog.String("driver", cfg.DB.Driver))
	dbStartTime := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := database.New(ctx, cfg.DB)
	if err != nil {
		slog.Error("Database connection failed",
			slog.String("error", err.Error()),
			slog.Duration("attempted_for", time.Since(dbStartTime)))
		os.Exit(-1)
	}
	defer db.Close()

	if err := db.InitializeSchema(ctx); err != nil {
		slog.Error("Failed to initialize database schema",
			slog.String("error", err.Error()),
			slog.Duration("attempted_for", time.Since(dbStartTime)))
		os.Exit(-1)
	}
	slog.Info("Database ready",
		slog.String("type", "sys"),
		slog.String("schema_version", db.SchemaVersion(ctx)),
		slog.Duration("took", time.Since(dbStartTime)))

	b := archivio.New(*cfg, version, commit)
	if err := b.InitServices(db, nil); err != nil {
		slog.Error("Failed to initialize services", slog.Any("error", err))
		os.Exit(-1)
	}

	h := handler.New()

	// Player commands
	h.Command("/sfida", handlers.WrapWithLogging("sfida", player.ChallengeHandler(b)))
	h.Autocomplete("/sfida", player.ChallengeAutocomplete(b))
	h.Command("/sfide", handlers.WrapWithLogging("sfide", player.ChallengesHandler(b)))
	h.Command("/aiuto", handlers.WrapWithLogging("aiuto", player.AidHandler(b)))
	h.Autocomplete("/aiuto", player.AidAutocomplete(b))
	h.Command("/aiuti", handlers.WrapWithLogging("aiuti", player.AidsHandler(b)))
	h.Command("/background/mostra", handlers.WrapWithLogging("background-mostra", player.BackgroundShowHandler(b)))
	h.Command("/background/compila", handlers.WrapWithLogging("background-compila", player.BackgroundSubmitHandler(b)))
	h.Command("/risorse", handlers.WrapWithLogging("risorse", player.ResourcesHandler(b)))
	h.Command("/acquista", handlers.WrapWithLogging("acquista", player.PurchaseHandler(b)))
	h.Autocomplete("/acquista", player.PurchaseAutocomplete(b))
	h.Command("/azioni", handlers.WrapWithLogging("azioni", player.StatusHandler(b)))
	h.Command("/oracolo", handlers.WrapWithTimeout("oracolo", config.OracleCommandTimeout, player.OracleHandler(b)))
	h.Command("/storico", handlers.WrapWithLogging("storico", player.HistoryHandler(b)))

	// Admin commands
	h.Command("/utenti/elenco", handlers.WrapWithLogging("utenti-elenco", admin.RequireAdmin(b, admin.UsersListHandler(b))))
	h.Command("/utenti/azioni", handlers.WrapWithLogging("utenti-azioni", admin.RequireAdmin(b, admin.SetMaxActionsHandler(b))))
	h.Command("/utenti/ruolo", handlers.WrapWithLogging("utenti-ruolo", admin.RequireAdmin(b, admin.SetRoleHandler(b))))
	h.Command("/utenti/reset", handlers.WrapWithLogging("utenti-reset", admin.RequireAdmin(b, admin.ResetActionsHandler(b))))
	h.Command("/utenti/background", handlers.WrapWithLogging("utenti-background", admin.RequireAdmin(b, admin.OverrideBackgroundHandler(b))))
	h.Command("/utenti/sblocca", handlers.WrapWithLogging("utenti-sblocca", admin.RequireAdmin(b, admin.UnlockBackgroundHandler(b))))
	h.Command("/utenti/stato", handlers.WrapWithLogging("utenti-stato", admin.RequireAdmin(b, admin.UserStatusHandler(b))))
	h.Command("/gestisci-sfide/crea", handlers.WrapWithLogging("sfide-crea", admin.RequireAdmin(b, admin.CreateChallengeHandler(b))))
	h.Command("/gestisci-sfide/prova", handlers.WrapWithLogging("sfide-prova", admin.RequireAdmin(b, admin.AddChallengeTestHandler(b))))
	h.Command("/gestisci-sfide/elimina", handlers.WrapWithLogging("sfide-elimina", admin.RequireAdmin(b, admin.DeleteChallengeHandler(b))))
	h.Autocomplete("/gestisci-sfide/prova", player.ChallengeAutocomplete(b))
	h.Autocomplete("/gestisci-sfide/elimina", player.ChallengeAutocomplete(b))
	h.Command("/gestisci-aiuti/crea", handlers.WrapWithLogging("aiuti-crea", admin.RequireAdmin(b, admin.CreateAidHandler(b))))
	h.Command("/gestisci-aiuti/elimina", handlers.WrapWithLogging("aiuti-elimina", admin.RequireAdmin(b, admin.DeleteAidHandler(b))))
	h.Command("/gestisci-aiuti/elenco", handlers.WrapWithLogging("aiuti-elenco", admin.RequireAdmin(b, admin.ListAidsHandler(b))))
	h.Autocomplete("/gestisci-aiuti/elimina", admin.AidAutocomplete(b))
	h.Command("/gestisci-oggetti/crea", handlers.WrapWithLogging("oggetti-crea", admin.RequireAdmin(b, admin.CreateItemHandler(b))))
	h.Command("/gestisci-oggetti/elimina", handlers.WrapWithLogging("oggetti-elimina", admin.RequireAdmin(b, admin.DeleteItemHandler(b))))
	h.Autocomplete("/gestisci-oggetti/elimina", player.PurchaseAutocomplete(b))

	// System commands
	h.Command("/versione", system.VersionHandler(b))
	h.Command("/guida", handlers.WrapWithLogging("guida", system.HelpHandler))

	if err = b.SetupBot(h, bot.NewListenerFunc(b.OnReady)); err != nil {
		slog.Error("Failed to setup bot",
			slog.String("type", "sys"),
			slog.Any("error", err),
			slog.String("error_details", fmt.Sprintf("%+v", err)),
			slog.String("component", "bot_setup"),
			slog.String("status", "failed"),
		)
		os.Exit(-1)
	}

	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		b.Client.Close(ctx)
	}()

	if *shouldSyncCommands {
		slog.Info("Syncing commands",
			slog.String("type", "sys"),
			slog.Any("guild_ids", cfg.Bot.DevGuilds),
		)
		if err = handler.SyncCommands(b.Client, commands.Commands, cfg.Bot.DevGuilds); err != nil {
			slog.Error("Failed to sync commands",
				slog.String("type", "sys"),
				slog.Any("error", err),
				slog.String("component", "command_sync"),
				slog.String("status", "failed"),
			)
		}
	}

	gatewayCtx, gatewayCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer gatewayCancel()
	if err = b.Client.OpenGateway(gatewayCtx); err != nil {
		slog.Error("Failed to open gateway",
			slog.String("type", "sys"),
			slog.Any("error", err),
			slog.String("component", "gateway"),
			slog.String("status", "failed"),
		)
		os.Exit(-1)
	}

	slog.Info("Bot is running. Press CTRL-C to exit.")
	s := make(chan os.Signal, 1)
	signal.Notify(s, syscall.SIGINT, syscall.SIGTERM)
	<-s
	slog.Info("Shutting down bot...")
}
