package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/mcoot/scoutbook/internal/api"
	"github.com/mcoot/scoutbook/internal/factory"
	"github.com/mcoot/scoutbook/internal/services/identity"
	"github.com/mcoot/scoutbook/internal/services/session"
	redisstorage "github.com/mcoot/scoutbook/internal/storage/redis"
)

// loadConfig builds the factory and server config from the environment
func loadConfig() (factory.Config, api.ServerConfig, error) {
	cfg := factory.Config{
		StorageType:          os.Getenv("STORAGE_TYPE"),
		SQLitePath:           os.Getenv("SQLITE_PATH"),
		PasscodeHash:         os.Getenv("SCOUT_PASSCODE_HASH"),
		FederatedTokenSecret: os.Getenv("FEDERATED_TOKEN_SECRET"),
		Identity: identity.Config{
			FallbackAdminEmail:    os.Getenv("FALLBACK_ADMIN_EMAIL"),
			FallbackAdminPassword: os.Getenv("FALLBACK_ADMIN_PASSWORD"),
		},
	}
	serverCfg := api.DefaultServerConfig()
	serverCfg.Host = os.Getenv("HOST")

	// Configure Redis if storage type is redis
	if cfg.StorageType == factory.StorageTypeRedis {
		redisURL := os.Getenv("REDIS_URL")
		if redisURL == "" {
			return cfg, serverCfg, fmt.Errorf("REDIS_URL required when STORAGE_TYPE=redis")
		}
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = redisURL
		if prefix := os.Getenv("REDIS_KEY_PREFIX"); prefix != "" {
			redisCfg.KeyPrefix = prefix
		}
		cfg.RedisConfig = &redisCfg
	}

	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return cfg, serverCfg, fmt.Errorf("invalid PORT %q: %w", port, err)
		}
		serverCfg.Port = p
	}

	if raw := os.Getenv("NETWORK_DELAY"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return cfg, serverCfg, fmt.Errorf("invalid NETWORK_DELAY %q: %w", raw, err)
		}
		sessionCfg := session.DefaultConfig()
		sessionCfg.NetworkDelay = d
		cfg.Session = &sessionCfg
	}

	return cfg, serverCfg, nil
}
