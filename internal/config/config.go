package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sukalov/cifrabot/internal/utils"
)

// Secrets are the variables the bot cannot start without.
var Secrets = []string{
	"BOT_TOKEN",
	"ADMIN_BOT_TOKEN",
	"TURSO_DATABASE_URL",
	"TURSO_AUTH_TOKEN",
	"REDIS_URL",
	"REDIS_PASSWORD",
	"LOG_CHANNEL_ID",
}

type Config struct {
	BotToken      string
	AdminBotToken string

	TursoURL   string
	TursoToken string

	RedisURL      string
	RedisPassword string

	LogChannelID int64

	HTTPPort          string
	APIKey            string
	AdminUsernames    []string
	HistoryLimit      int
	PlaybackTick      time.Duration
	ParseCacheTTL     time.Duration
	SheetCacheSize    int
	ImportConcurrency int
	Timezone          *time.Location
}

// Load reads the required secrets through utils.LoadEnv and fills the rest
// from optional variables with defaults.
func Load() (Config, error) {
	env, err := utils.LoadEnv(Secrets)
	if err != nil {
		return Config{}, err
	}

	channelID, err := strconv.ParseInt(env["LOG_CHANNEL_ID"], 10, 64)
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse LOG_CHANNEL_ID: %w", err)
	}

	cfg := Config{
		BotToken:      env["BOT_TOKEN"],
		AdminBotToken: env["ADMIN_BOT_TOKEN"],
		TursoURL:      env["TURSO_DATABASE_URL"],
		TursoToken:    env["TURSO_AUTH_TOKEN"],
		RedisURL:      env["REDIS_URL"],
		RedisPassword: env["REDIS_PASSWORD"],
		LogChannelID:  channelID,

		HTTPPort:          envOr("HTTP_PORT", "8090"),
		APIKey:            os.Getenv("CIFRA_API_KEY"),
		AdminUsernames:    utils.SplitList(os.Getenv("ADMIN_USERNAMES")),
		HistoryLimit:      envInt("HISTORY_LIMIT", 20),
		PlaybackTick:      envDuration("PLAYBACK_TICK", 2*time.Second),
		ParseCacheTTL:     envDuration("PARSE_CACHE_TTL", 24*time.Hour),
		SheetCacheSize:    envInt("SHEET_CACHE_SIZE", 512),
		ImportConcurrency: envInt("IMPORT_CONCURRENCY", 4),
		Timezone:          envLocation("TZ_NAME", "America/Sao_Paulo"),
	}

	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 20
	}
	if cfg.PlaybackTick < 500*time.Millisecond {
		cfg.PlaybackTick = 500 * time.Millisecond
	}
	if cfg.ImportConcurrency <= 0 {
		cfg.ImportConcurrency = 4
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envLocation(key, fallback string) *time.Location {
	loc, err := time.LoadLocation(envOr(key, fallback))
	if err != nil {
		return time.UTC
	}
	return loc
}
