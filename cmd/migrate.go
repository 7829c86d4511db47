package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/archivio-maledetto/archivio/archivio/config"
	"github.com/archivio-maledetto/archivio/archivio/migration"
	"github.com/spf13/cobra"
)

var migrateOpts struct {
	mongoURI  string
	mongoDB   string
	batchSize int
	parallel  int
	dryRun    bool
}

var migrateCMD = &cobra.Command{
	Use:   "migrate",
	Short: "Import the legacy MongoDB collections into the configured database",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), config.MigrationTimeout)
		defer cancel()

		uri := migrateOpts.mongoURI
		if uri == "" {
			uri = cfg.Legacy.MongoURI
		}
		dbName := migrateOpts.mongoDB
		if dbName == "" {
			dbName = cfg.Legacy.MongoDatabase
		}
		if uri == "" {
			return fmt.Errorf("no mongo uri: set legacy.mongo_uri or --mongo-uri")
		}

		source, err := migration.ConnectMongo(ctx, uri, dbName)
		if err != nil {
			slog.Error("Failed to connect to legacy database", "error", err)
			return err
		}
		defer source.Close(ctx)

		if migrateOpts.dryRun {
			counts, err := source.Count(ctx, migration.Collections()...)
			if err != nil {
				return err
			}
			for _, name := range migration.Collections() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-20s %d\n", name, counts[name])
			}
			return nil
		}

		db, err := openDB(ctx)
		if err != nil {
			slog.Error("Failed to connect to database", "error", err)
			return err
		}
		defer db.Close()

		importer := migration.NewImporter(db.BunDB(), source,
			migration.WithBatchSize(migrateOpts.batchSize),
			migration.WithParallelism(migrateOpts.parallel),
			migration.WithDefaultMaxActions(cfg.Game.DefaultMaxActions),
			migration.WithNow(time.Now()),
		)
		stats, err := importer.Run(ctx)
		if err != nil {
			slog.Error("Migration failed", "error", err)
			return err
		}

		names := make([]string, 0, len(stats.Tables))
		for name := range stats.Tables {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			ts := stats.Tables[name]
			fmt.Fprintf(cmd.OutOrStdout(), "%-20s read=%d inserted=%d skipped=%d invalid=%d\n",
				name, ts.Read, ts.Inserted, ts.Skipped, ts.Invalid)
		}
		slog.Info("Migration completed successfully!")
		return nil
	},
}

func init() {
	f := migrateCMD.Flags()
	f.StringVar(&migrateOpts.mongoURI, "mongo-uri", "", "legacy MongoDB uri (defaults to legacy.mongo_uri)")
	f.StringVar(&migrateOpts.mongoDB, "mongo-db", "", "legacy database name (defaults to legacy.mongo_database)")
	f.IntVar(&migrateOpts.batchSize, "batch-size", 500, "rows per insert")
	f.IntVar(&migrateOpts.parallel, "parallel", 4, "collections copied at once")
	f.BoolVar(&migrateOpts.dryRun, "dry-run", false, "only count the legacy documents")
	rootCmd.AddCommand(migrateCMD)
}
