package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"NovaFM/cache"
	"NovaFM/config"
	"NovaFM/core/auth"
	"NovaFM/core/catalog"
	sync "NovaFM/core/sync"
	"NovaFM/db"
	"NovaFM/logger"
	"NovaFM/repository"
	"NovaFM/storage"

	"github.com/gorilla/mux"
)

// Start wires the engine and serves the HTTP surface until SIGINT/SIGTERM.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      cfg.LogLevel,
		OutputPath: cfg.LogPath,
		MaxSize:    cfg.LogMaxSize,
		MaxBackups: 3,
		MaxAge:     30,
		Compress:   true,
	})
	auth.Init(cfg.JWTSecret)

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

	ensureDirExists(cfg.DownloadDir)

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

	// Download-state reads are not served before the heal completes.
	healCtx, healCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	if err := engine.Heal(healCtx); err != nil {
		logger.Fatal("startup self-heal failed", logger.ErrorField(err))
	}
	healCancel()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	go func() {
		if err := engine.WatchDownloads(watchCtx, cfg.DownloadDir); err != nil {
			logger.Warn("download watcher stopped", logger.ErrorField(err))
		}
	}()

	handler := NewAPIHandler(engine, cfg)

	router := mux.NewRouter()
	router.Use(CORSMiddleware)
	router.Use(RequestIDMiddleware)
	router.Use(SessionMiddleware)

	router.HandleFunc("/api/songs/{id}/like", handler.LikeSongHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/songs/{id}/like", handler.UnlikeSongHandler).Methods(http.MethodDelete)
	router.HandleFunc("/api/songs/{id}/download", handler.MarkDownloadedHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/songs/{id}/download", handler.UnmarkDownloadedHandler).Methods(http.MethodDelete)
	router.HandleFunc("/api/songs/{id}/play", handler.RecordPlayHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/songs/{id}/stream", handler.StreamURLHandler).Methods(http.MethodGet)

	router.HandleFunc("/api/playlists", handler.CreatePlaylistHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/playlists/{id}", handler.RenamePlaylistHandler).Methods(http.MethodPut)
	router.HandleFunc("/api/playlists/{id}", handler.DeletePlaylistHandler).Methods(http.MethodDelete)
	router.HandleFunc("/api/playlists/{id}/songs", handler.AddToPlaylistHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/playlists/{id}/songs/{track_id}", handler.RemoveFromPlaylistHandler).Methods(http.MethodDelete)

	router.HandleFunc("/api/search", handler.SearchHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/trending", handler.TrendingHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/featured", handler.FeaturedHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/searches/recent", handler.RecentSearchesHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/searches/recent", handler.AddRecentSearchHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/searches/recent", handler.RemoveRecentSearchHandler).Methods(http.MethodDelete)

	router.HandleFunc("/api/refresh", handler.RefreshHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/subscribe/{stream}", handler.SubscribeHandler).Methods(http.MethodGet)

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", logger.String("addr", cfg.ListenAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", logger.ErrorField(err))
		}
	}()

	<-stop
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", logger.ErrorField(err))
	}

	// Let queued remote writes finish before the process exits.
	engine.DrainTasks()
	logger.Info("server stopped")
}

func ensureDirExists(path string) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(path, 0755); err != nil {
			logger.Fatal("failed to create directory", logger.String("path", path), logger.ErrorField(err))
		}
	}
}
