package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sukalov/cifrabot/internal/api"
	"github.com/sukalov/cifrabot/internal/bot"
	"github.com/sukalov/cifrabot/internal/bot/admin"
	"github.com/sukalov/cifrabot/internal/bot/client"
	"github.com/sukalov/cifrabot/internal/config"
	"github.com/sukalov/cifrabot/internal/db"
	"github.com/sukalov/cifrabot/internal/favorites"
	"github.com/sukalov/cifrabot/internal/logger"
	"github.com/sukalov/cifrabot/internal/lyrics"
	"github.com/sukalov/cifrabot/internal/redis"
	"github.com/sukalov/cifrabot/internal/sheets"
	"github.com/sukalov/cifrabot/internal/state"
	"github.com/sukalov/cifrabot/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, cfg.TursoURL, cfg.TursoToken)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer database.Close()

	if err := db.Migrate(ctx, database); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	songs := db.NewSongbook(database)
	if err := songs.Load(ctx); err != nil {
		log.Fatalf("failed to load songbook: %v", err)
	}

	store, err := redis.NewDBManager(cfg.RedisURL, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("failed to create redis client: %v", err)
	}
	defer store.Close()
	if err := store.Ping(ctx); err != nil {
		log.Printf("redis is not reachable, sheets will be cached in memory only: %v", err)
	}

	sessions := state.NewStateManager(store)
	if err := sessions.Init(ctx); err != nil {
		log.Printf("failed to restore sessions: %v", err)
	}

	clientBot, err := bot.New("client", cfg.BotToken)
	if err != nil {
		log.Fatalf("failed to create client bot: %v", err)
	}
	adminBot, err := bot.New("admin", cfg.AdminBotToken)
	if err != nil {
		log.Fatalf("failed to create admin bot: %v", err)
	}
	logger.Init(adminBot, cfg.LogChannelID)

	sheetService := sheets.NewService(store, cfg.ParseCacheTTL, cfg.SheetCacheSize)

	clientHandlers := client.SetupHandlers(ctx, clientBot, client.Deps{
		Songs:     songs,
		Users:     db.NewUsers(database),
		Playlists: db.NewPlaylists(database),
		Sheets:    sheetService,
		Sessions:  sessions,
		Favorites: favorites.NewService(store),
		History:   favorites.NewHistory(store, cfg.HistoryLimit),
		Counter:   store,
		Tick:      cfg.PlaybackTick,
	})
	admin.SetupHandlers(ctx, adminBot, admin.Deps{
		Songs:    songs,
		Sheets:   sheetService,
		Importer: lyrics.NewService(cfg.ImportConcurrency),
	}, cfg.AdminUsernames)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.NewServer(songs, sheetService, slog.New(slog.NewJSONHandler(os.Stdout, nil)), cfg.APIKey),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("api listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(fmt.Sprintf("api server stopped: %v", err))
		}
	}()

	logger.Info(fmt.Sprintf("cifrabot started at %s with %d songs",
		utils.FormatClock(time.Now(), cfg.Timezone), len(songs.All())))

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientHandlers.Close()
	clientBot.Stop()
	adminBot.Stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("failed to stop api server: %v", err)
	}
	if err := sessions.Sync(shutdownCtx); err != nil {
		log.Printf("failed to save sessions: %v", err)
	}
}
