/*
Copyright (C) 2026 Dayblock Labs

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Environment != "development" {
		t.Errorf("expected development environment, got %q", cfg.Environment)
	}
	if cfg.DBBackend != DatabaseSQLite {
		t.Errorf("expected sqlite backend, got %q", cfg.DBBackend)
	}
	if cfg.DBDSN != "dayblock.db" {
		t.Errorf("expected default sqlite DSN, got %q", cfg.DBDSN)
	}
	if cfg.WorkHoursStart != 9 || cfg.WorkHoursEnd != 18 {
		t.Errorf("unexpected default work hours %d-%d", cfg.WorkHoursStart, cfg.WorkHoursEnd)
	}
	if cfg.AdvisorEnabled {
		t.Error("advisor must be disabled without an API key")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DAYBLOCK_ENV", "production")
	t.Setenv("DAYBLOCK_HTTP_PORT", "9090")
	t.Setenv("DAYBLOCK_DB_BACKEND", "postgres")
	t.Setenv("DAYBLOCK_DB_DSN", "host=localhost user=dayblock dbname=dayblock")
	t.Setenv("DAYBLOCK_ADVISOR_API_KEY", "sk-test")
	t.Setenv("DAYBLOCK_ADVISOR_TIMEOUT_SECONDS", "30")
	t.Setenv("DAYBLOCK_PREFER_MORNING_FOR_HARD", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.HTTPPort != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.HTTPPort)
	}
	if cfg.DBBackend != DatabasePostgres {
		t.Errorf("expected postgres backend, got %q", cfg.DBBackend)
	}
	if !cfg.AdvisorEnabled {
		t.Error("advisor should be enabled when a key is set")
	}
	if cfg.AdvisorTimeout != 30*time.Second {
		t.Errorf("expected 30s advisor timeout, got %s", cfg.AdvisorTimeout)
	}
	if cfg.PreferMorningForHard {
		t.Error("expected morning preference disabled")
	}
}

func TestLoadRejectsBadBackend(t *testing.T) {
	t.Setenv("DAYBLOCK_DB_BACKEND", "oracle")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unsupported backend")
	}
}

func TestLoadRequiresDSNForPostgres(t *testing.T) {
	t.Setenv("DAYBLOCK_DB_BACKEND", "postgres")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when postgres has no DSN")
	}
}

func TestLoadRejectsInvertedWorkHours(t *testing.T) {
	t.Setenv("DAYBLOCK_WORK_HOURS_START", "20")
	t.Setenv("DAYBLOCK_WORK_HOURS_END", "8")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for inverted work hours")
	}
}

func TestLoadRequiresGoogleCredentials(t *testing.T) {
	t.Setenv("DAYBLOCK_GOOGLE_CALENDAR_ENABLED", "true")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when Google sync lacks credentials")
	}
}
