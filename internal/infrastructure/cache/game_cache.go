// Package cache provides Redis-backed read-through caches for upstream
// game lookups, keeping repeat autocomplete traffic off the Twitch API.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"vodsearch/internal/infrastructure/metrics"
	"vodsearch/internal/twitch"
)

const (
	autocompleteKeyPrefix = "games:autocomplete:"
	gameIDKeyPrefix       = "games:id:"
)

// GameCache caches autocomplete results and game name -> ID resolutions.
type GameCache struct {
	client *redis.Client
}

// NewGameCache creates a Redis-backed game cache.
func NewGameCache(client *redis.Client) *GameCache {
	return &GameCache{client: client}
}

// GetGames retrieves cached autocomplete results for a query.
// Returns nil, nil on cache miss.
func (c *GameCache) GetGames(ctx context.Context, query string) ([]twitch.Game, error) {
	data, err := c.client.Get(ctx, autocompleteKey(query)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.CacheOperationsTotal.WithLabelValues("get", metrics.CacheStatusMiss, metrics.CacheTypeRedis).Inc()
			return nil, nil
		}
		metrics.CacheOperationsTotal.WithLabelValues("get", metrics.CacheStatusError, metrics.CacheTypeRedis).Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var games []twitch.Game
	if err := json.Unmarshal(data, &games); err != nil {
		return nil, fmt.Errorf("deserialize games: %w", err)
	}

	metrics.CacheOperationsTotal.WithLabelValues("get", metrics.CacheStatusHit, metrics.CacheTypeRedis).Inc()
	return games, nil
}

// SetGames stores autocomplete results for a query with the given TTL.
func (c *GameCache) SetGames(ctx context.Context, query string, games []twitch.Game, ttl time.Duration) error {
	data, err := json.Marshal(games)
	if err != nil {
		return fmt.Errorf("serialize games: %w", err)
	}

	if err := c.client.Set(ctx, autocompleteKey(query), data, ttl).Err(); err != nil {
		metrics.CacheOperationsTotal.WithLabelValues("set", metrics.CacheStatusError, metrics.CacheTypeRedis).Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	metrics.CacheOperationsTotal.WithLabelValues("set", metrics.CacheStatusSuccess, metrics.CacheTypeRedis).Inc()
	return nil
}

// GetGameID retrieves a cached game name -> ID resolution.
// Returns "", false on cache miss. A cached empty string is a valid entry:
// it remembers that the name resolved to no category.
func (c *GameCache) GetGameID(ctx context.Context, name string) (string, bool, error) {
	id, err := c.client.Get(ctx, gameIDKey(name)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.CacheOperationsTotal.WithLabelValues("get", metrics.CacheStatusMiss, metrics.CacheTypeRedis).Inc()
			return "", false, nil
		}
		metrics.CacheOperationsTotal.WithLabelValues("get", metrics.CacheStatusError, metrics.CacheTypeRedis).Inc()
		return "", false, fmt.Errorf("redis get: %w", err)
	}

	metrics.CacheOperationsTotal.WithLabelValues("get", metrics.CacheStatusHit, metrics.CacheTypeRedis).Inc()
	return id, true, nil
}

// SetGameID stores a game name -> ID resolution with the given TTL.
func (c *GameCache) SetGameID(ctx context.Context, name, id string, ttl time.Duration) error {
	if err := c.client.Set(ctx, gameIDKey(name), id, ttl).Err(); err != nil {
		metrics.CacheOperationsTotal.WithLabelValues("set", metrics.CacheStatusError, metrics.CacheTypeRedis).Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	metrics.CacheOperationsTotal.WithLabelValues("set", metrics.CacheStatusSuccess, metrics.CacheTypeRedis).Inc()
	return nil
}

func autocompleteKey(query string) string {
	return autocompleteKeyPrefix + strings.ToLower(query)
}

func gameIDKey(name string) string {
	return gameIDKeyPrefix + strings.ToLower(name)
}
