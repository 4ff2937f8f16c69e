/*
Copyright (C) 2026 Dayblock Labs

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Database backend selection.
type DatabaseBackend string

const (
	DatabasePostgres DatabaseBackend = "postgres"
	DatabaseMySQL    DatabaseBackend = "mysql"
	DatabaseSQLite   DatabaseBackend = "sqlite"
)

// Config covers process level configuration read from environment variables.
type Config struct {
	Environment string
	HTTPBind    string
	HTTPPort    int

	DBBackend DatabaseBackend
	DBDSN     string

	// Decision advisor (OpenAI-compatible chat completion endpoint)
	AdvisorEnabled bool
	AdvisorAPIKey  string
	AdvisorBaseURL string
	AdvisorModel   string
	AdvisorTimeout time.Duration

	// Default scheduling preferences, overridable per request and per
	// stored preference row
	WorkHoursStart       int
	WorkHoursEnd         int
	BufferMinutes        int
	MaxHoursPerDay       int
	PreferMorningForHard bool

	// Redis cache configuration
	CacheEnabled  bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Google Calendar busy-time source (optional)
	GoogleCalendarEnabled bool
	GoogleCredentialsFile string
	GoogleTokenFile       string
	GoogleCalendarID      string
}

// Load reads environment variables, applies defaults, and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnv("DAYBLOCK_ENV", "development"),
		HTTPBind:    getEnv("DAYBLOCK_HTTP_BIND", "0.0.0.0"),
		HTTPPort:    getEnvInt("DAYBLOCK_HTTP_PORT", 8080),

		DBBackend: DatabaseBackend(getEnv("DAYBLOCK_DB_BACKEND", string(DatabaseSQLite))),
		DBDSN:     getEnv("DAYBLOCK_DB_DSN", ""),

		AdvisorEnabled: getEnvBool("DAYBLOCK_ADVISOR_ENABLED", true),
		AdvisorAPIKey:  getEnv("DAYBLOCK_ADVISOR_API_KEY", ""),
		AdvisorBaseURL: getEnv("DAYBLOCK_ADVISOR_BASE_URL", ""),
		AdvisorModel:   getEnv("DAYBLOCK_ADVISOR_MODEL", "gpt-4o-mini"),
		AdvisorTimeout: time.Duration(getEnvInt("DAYBLOCK_ADVISOR_TIMEOUT_SECONDS", 15)) * time.Second,

		WorkHoursStart:       getEnvInt("DAYBLOCK_WORK_HOURS_START", 9),
		WorkHoursEnd:         getEnvInt("DAYBLOCK_WORK_HOURS_END", 18),
		BufferMinutes:        getEnvInt("DAYBLOCK_BUFFER_MINUTES", 15),
		MaxHoursPerDay:       getEnvInt("DAYBLOCK_MAX_HOURS_PER_DAY", 6),
		PreferMorningForHard: getEnvBool("DAYBLOCK_PREFER_MORNING_FOR_HARD", true),

		CacheEnabled:  getEnvBool("DAYBLOCK_CACHE_ENABLED", false),
		RedisAddr:     getEnv("DAYBLOCK_REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("DAYBLOCK_REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("DAYBLOCK_REDIS_DB", 0),

		GoogleCalendarEnabled: getEnvBool("DAYBLOCK_GOOGLE_CALENDAR_ENABLED", false),
		GoogleCredentialsFile: getEnv("DAYBLOCK_GOOGLE_CREDENTIALS_FILE", ""),
		GoogleTokenFile:       getEnv("DAYBLOCK_GOOGLE_TOKEN_FILE", ""),
		GoogleCalendarID:      getEnv("DAYBLOCK_GOOGLE_CALENDAR_ID", "primary"),
	}

	if cfg.DBBackend != DatabasePostgres && cfg.DBBackend != DatabaseMySQL && cfg.DBBackend != DatabaseSQLite {
		return nil, fmt.Errorf("unsupported database backend %q", cfg.DBBackend)
	}

	if cfg.DBDSN == "" {
		if cfg.DBBackend == DatabaseSQLite {
			cfg.DBDSN = "dayblock.db"
		} else {
			return nil, fmt.Errorf("DAYBLOCK_DB_DSN must be provided for backend %q", cfg.DBBackend)
		}
	}

	if cfg.WorkHoursStart >= cfg.WorkHoursEnd {
		return nil, fmt.Errorf("DAYBLOCK_WORK_HOURS_START (%d) must be earlier than DAYBLOCK_WORK_HOURS_END (%d)", cfg.WorkHoursStart, cfg.WorkHoursEnd)
	}

	if cfg.AdvisorEnabled && cfg.AdvisorAPIKey == "" {
		// Missing credentials silently disable the advisor path; the
		// deterministic fallback keeps scheduling functional.
		cfg.AdvisorEnabled = false
	}

	if cfg.GoogleCalendarEnabled && cfg.GoogleCredentialsFile == "" {
		return nil, fmt.Errorf("DAYBLOCK_GOOGLE_CREDENTIALS_FILE must be provided when Google Calendar sync is enabled")
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if val := os.Getenv(key); val != "" {
		val = strings.ToLower(strings.TrimSpace(val))
		if val == "true" || val == "1" || val == "yes" {
			return true
		}
		if val == "false" || val == "0" || val == "no" {
			return false
		}
	}
	return def
}
