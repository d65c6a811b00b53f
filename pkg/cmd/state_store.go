package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/modelflow/modelflow/pkg/orchestration"
)

// NewStateStore creates an orchestration state store from a URL. A
// redis:// URL selects the Redis store, everything else the in-memory
// one.
func NewStateStore(storeURL string, logger *slog.Logger) orchestration.Store {
	if strings.HasPrefix(storeURL, "redis://") || strings.HasPrefix(storeURL, "rediss://") {
		options, err := redis.ParseURL(storeURL)
		if err != nil {
			panic(fmt.Errorf("failed to parse Redis URL: %w", err))
		}

		logger.Info("Using Redis orchestration state store", "addr", options.Addr)

		return orchestration.NewRedisStore(redis.NewClient(options))
	}

	return orchestration.NewMemoryStore()
}
