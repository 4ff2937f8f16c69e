/*
Copyright (C) 2026 Dayblock Labs

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package cache provides a Redis-based caching layer for frequently accessed data.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/dayblock/dayblock/internal/scheduling"
)

// Default TTL values for different cache types
const (
	DefaultPreferencesTTL = 1 * time.Hour
	DefaultAgendaTTL      = 5 * time.Minute
)

// Key prefixes for Redis cache
const (
	KeyPreferences = "dayblock:cache:preferences"
	KeyAgendaDay   = "dayblock:cache:agenda:" // + date (2006-01-02)
)

// Config contains cache configuration.
type Config struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// TTL overrides
	PreferencesTTL time.Duration
	AgendaTTL      time.Duration

	// Fallback behavior
	DisableOnError bool // If true, disable caching on Redis errors
}

// DefaultConfig returns default cache configuration.
func DefaultConfig() Config {
	return Config{
		RedisAddr:      "localhost:6379",
		PreferencesTTL: DefaultPreferencesTTL,
		AgendaTTL:      DefaultAgendaTTL,
		DisableOnError: true,
	}
}

// Cache provides Redis-backed caching with graceful fallback.
type Cache struct {
	client *redis.Client
	logger zerolog.Logger
	config Config

	mu       sync.RWMutex
	disabled bool // Circuit breaker state
}

// New creates a new cache instance. When Redis is unreachable the cache
// runs disabled and every lookup is a miss.
func New(cfg Config, logger zerolog.Logger) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Msg("Redis cache unavailable, running without caching")
		return &Cache{
			logger:   logger.With().Str("component", "cache").Logger(),
			config:   cfg,
			disabled: true,
		}, nil
	}

	logger.Info().Str("addr", cfg.RedisAddr).Msg("Redis cache initialized")

	return &Cache{
		client: client,
		logger: logger.With().Str("component", "cache").Logger(),
		config: cfg,
	}, nil
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// IsAvailable returns true if the cache is operational.
func (c *Cache) IsAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.disabled && c.client != nil
}

// handleError handles Redis errors with circuit breaker logic.
func (c *Cache) handleError(err error, operation string) {
	if err == nil || err == redis.Nil {
		return
	}

	c.logger.Debug().Err(err).Str("operation", operation).Msg("cache operation failed")

	if c.config.DisableOnError {
		c.mu.Lock()
		c.disabled = true
		c.mu.Unlock()
		c.logger.Warn().Msg("disabling cache due to Redis error")
	}
}

// get retrieves a value from cache and unmarshals it.
func (c *Cache) get(ctx context.Context, key string, dest any) (bool, error) {
	if !c.IsAvailable() {
		return false, nil
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		c.handleError(err, "get")
		return false, err
	}

	if err := json.Unmarshal(data, dest); err != nil {
		c.logger.Debug().Err(err).Str("key", key).Msg("failed to unmarshal cached value")
		return false, nil
	}

	return true, nil
}

// set stores a value in cache with TTL.
func (c *Cache) set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if !c.IsAvailable() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		c.handleError(err, "set")
		return err
	}

	return nil
}

// delete removes a key from cache.
func (c *Cache) delete(ctx context.Context, key string) error {
	if !c.IsAvailable() {
		return nil
	}

	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.handleError(err, "delete")
		return err
	}

	return nil
}

// deletePattern deletes all keys matching a pattern.
func (c *Cache) deletePattern(ctx context.Context, pattern string) error {
	if !c.IsAvailable() {
		return nil
	}

	// SCAN instead of KEYS so a large keyspace does not block Redis
	var cursor uint64
	for {
		keys, nextCursor, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			c.handleError(err, "scan")
			return err
		}

		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				c.handleError(err, "delete_batch")
				return err
			}
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	return nil
}

// Preference caching methods

// GetPreferences retrieves the cached scheduling preferences.
func (c *Cache) GetPreferences(ctx context.Context) (*scheduling.Preferences, bool) {
	var prefs scheduling.Preferences
	found, err := c.get(ctx, KeyPreferences, &prefs)
	if err != nil || !found {
		return nil, false
	}
	c.logger.Debug().Msg("preferences cache hit")
	return &prefs, true
}

// SetPreferences caches the scheduling preferences.
func (c *Cache) SetPreferences(ctx context.Context, prefs scheduling.Preferences) error {
	c.logger.Debug().Msg("caching preferences")
	return c.set(ctx, KeyPreferences, prefs, c.config.PreferencesTTL)
}

// InvalidatePreferences removes the preferences from cache.
func (c *Cache) InvalidatePreferences(ctx context.Context) error {
	c.logger.Debug().Msg("invalidating preferences cache")
	return c.delete(ctx, KeyPreferences)
}

// Agenda caching methods

// GetDayAgenda retrieves cached busy events for a date.
func (c *Cache) GetDayAgenda(ctx context.Context, date string) ([]scheduling.BusyEvent, bool) {
	var events []scheduling.BusyEvent
	found, err := c.get(ctx, KeyAgendaDay+date, &events)
	if err != nil || !found {
		return nil, false
	}
	c.logger.Debug().Str("date", date).Int("count", len(events)).Msg("agenda cache hit")
	return events, true
}

// SetDayAgenda caches busy events for a date.
func (c *Cache) SetDayAgenda(ctx context.Context, date string, events []scheduling.BusyEvent) error {
	c.logger.Debug().Str("date", date).Int("count", len(events)).Msg("caching day agenda")
	return c.set(ctx, KeyAgendaDay+date, events, c.config.AgendaTTL)
}

// InvalidateDayAgenda removes a single day's agenda from cache.
func (c *Cache) InvalidateDayAgenda(ctx context.Context, date string) error {
	c.logger.Debug().Str("date", date).Msg("invalidating day agenda cache")
	return c.delete(ctx, KeyAgendaDay+date)
}

// InvalidateAgenda removes all cached agenda days. Called after batch
// scheduling commits new events across the horizon.
func (c *Cache) InvalidateAgenda(ctx context.Context) error {
	c.logger.Debug().Msg("invalidating all agenda caches")
	return c.deletePattern(ctx, KeyAgendaDay+"*")
}

// FlushAll removes all cached data (use sparingly).
func (c *Cache) FlushAll(ctx context.Context) error {
	c.logger.Warn().Msg("flushing all cache data")
	return c.deletePattern(ctx, "dayblock:cache:*")
}
