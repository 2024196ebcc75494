package cmd

import (
	"context"
	"time"

	"NovaFM/cache"
	"NovaFM/config"
	"NovaFM/core/catalog"
	sync "NovaFM/core/sync"
	"NovaFM/db"
	"NovaFM/logger"
	"NovaFM/repository"
	"NovaFM/storage"

	"github.com/spf13/cobra"
)

var healCmd = &cobra.Command{
	Use:   "heal",
	Short: "Run the download-state self-heal once and exit",
	Long: `Repairs download state across the local cache, the settings store and the
flat-file backup, then audits downloaded files against the filesystem.
The same sequence runs automatically at server startup.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		logger.InitLogger(logger.Config{
			Level:      cfg.LogLevel,
			OutputPath: cfg.LogPath,
			MaxSize:    cfg.LogMaxSize,
		})

		if err := db.ConnectGormDB(cfg); err != nil {
			logger.Fatal("failed to open local cache", logger.ErrorField(err))
		}
		defer db.CloseGormDB()
		if err := db.Migrate(db.GormDB); err != nil {
			logger.Fatal("schema migration failed", logger.ErrorField(err))
		}
		if err := db.ConnectRedis(cfg); err != nil {
			logger.Fatal("failed to connect to redis", logger.ErrorField(err))
		}
		defer db.CloseRedis()

		remote, err := storage.NewMinioStore(cfg)
		if err != nil {
			logger.Fatal("failed to connect to sync backend", logger.ErrorField(err))
		}

		engine := sync.NewEngine(
			repository.NewTrackRepository(db.GormDB),
			repository.NewPlaylistRepository(db.GormDB),
			repository.NewRecentRepository(db.GormDB),
			cache.NewRedisSettingsStore(db.RedisClient),
			cache.NewBackupFile(cfg.DownloadBackupFile),
			remote,
			catalog.NewClient(cfg.CatalogBaseURL),
		)
		defer engine.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := engine.Heal(ctx); err != nil {
			logger.Fatal("self-heal failed", logger.ErrorField(err))
		}
		logger.Info("self-heal complete")
	},
}

func init() {
	rootCmd.AddCommand(healCmd)
}
