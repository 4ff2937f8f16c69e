/*
Copyright (C) 2026 Dayblock Labs

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dayblock/dayblock/internal/agenda"
	"github.com/dayblock/dayblock/internal/events"
	"github.com/dayblock/dayblock/internal/models"
	"github.com/dayblock/dayblock/internal/scheduling"
	"github.com/dayblock/dayblock/internal/tasks"
)

func setupTestAPI(t *testing.T) (*chi.Mux, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	err = db.AutoMigrate(&models.TaskList{}, &models.Task{}, &models.Tag{}, &models.TaskTagLink{}, &models.CalendarEvent{}, &models.SchedulingPreferences{})
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	logger := zerolog.Nop()
	bus := events.NewBus()
	selector := scheduling.NewChainSelector(nil, scheduling.FallbackSelector{}, logger)
	scheduler := scheduling.NewScheduler(selector, logger)
	source := agenda.NewSource(db, nil, nil, logger)
	taskSvc := tasks.NewService(db, scheduler, source, bus, nil, scheduling.DefaultPreferences(), logger)

	r := chi.NewRouter()
	New(db, taskSvc, source, bus, logger).Routes(r)
	return r, db
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := setupTestAPI(t)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestTaskCreateAndList(t *testing.T) {
	router, _ := setupTestAPI(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/tasks/", map[string]any{
		"title":             "Write report",
		"estimated_minutes": 60,
		"priority":          "high",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodGet, "/api/v1/tasks/?status=unscheduled", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var listed []models.Task
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(listed) != 1 || listed[0].Title != "Write report" {
		t.Errorf("unexpected task list: %+v", listed)
	}
}

func TestTaskCreateValidation(t *testing.T) {
	router, _ := setupTestAPI(t)

	tests := []struct {
		name string
		body map[string]any
		code string
	}{
		{"missing title", map[string]any{"estimated_minutes": 30}, "title_required"},
		{"zero duration", map[string]any{"title": "x"}, "estimated_minutes_required"},
		{"bad priority", map[string]any{"title": "x", "estimated_minutes": 30, "priority": "asap"}, "invalid_priority"},
		{"bad rrule", map[string]any{"title": "x", "estimated_minutes": 30, "recurrence_rule": "FREQ=SOMETIMES"}, "invalid_recurrence_rule"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost, "/api/v1/tasks/", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			var resp map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if resp["error"] != tt.code {
				t.Errorf("expected error %q, got %q", tt.code, resp["error"])
			}
		})
	}
}

func TestScheduleAutoEndpoint(t *testing.T) {
	router, db := setupTestAPI(t)

	task := models.Task{
		ID:               uuid.NewString(),
		Title:            "Plan sprint",
		EstimatedMinutes: 45,
		Priority:         models.PriorityHigh,
	}
	if err := db.Create(&task).Error; err != nil {
		t.Fatalf("insert task: %v", err)
	}

	rec := doJSON(t, router, http.MethodPost, "/api/v1/schedule/auto", map[string]any{})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Scheduled []scheduling.Slot        `json:"scheduled"`
		Failures  []scheduling.TaskFailure `json:"failures"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Scheduled) != 1 || len(resp.Failures) != 0 {
		t.Fatalf("unexpected schedule result: %+v", resp)
	}
	if resp.Scheduled[0].TaskID != task.ID {
		t.Errorf("slot assigned to wrong task: %+v", resp.Scheduled[0])
	}

	var reloaded models.Task
	if err := db.First(&reloaded, "id = ?", task.ID).Error; err != nil {
		t.Fatalf("reload task: %v", err)
	}
	if !reloaded.Scheduled() {
		t.Error("task should be scheduled after the endpoint call")
	}
}

func TestScheduleAutoRejectsBadPreferences(t *testing.T) {
	router, _ := setupTestAPI(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/schedule/auto", map[string]any{
		"preferences": map[string]any{
			"work_hours_start": 20,
			"work_hours_end":   8,
		},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAgendaEndpoint(t *testing.T) {
	router, db := setupTestAPI(t)

	event := models.CalendarEvent{
		ID:        uuid.NewString(),
		Date:      "2026-03-02",
		StartTime: "10:00",
		EndTime:   "11:00",
		Title:     "Standup",
		Source:    models.EventSourceManual,
	}
	if err := db.Create(&event).Error; err != nil {
		t.Fatalf("insert event: %v", err)
	}

	rec := doJSON(t, router, http.MethodGet, "/api/v1/agenda/2026-03-02", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Date   string                 `json:"date"`
		Events []scheduling.BusyEvent `json:"events"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Events) != 1 || resp.Events[0].Title != "Standup" {
		t.Errorf("unexpected agenda payload: %+v", resp)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/v1/agenda/tomorrow", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed date, got %d", rec.Code)
	}
}

func TestPreferencesEndpoints(t *testing.T) {
	router, _ := setupTestAPI(t)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/preferences/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var prefs scheduling.Preferences
	if err := json.Unmarshal(rec.Body.Bytes(), &prefs); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if prefs != scheduling.DefaultPreferences() {
		t.Errorf("expected defaults, got %+v", prefs)
	}

	prefs.WorkHoursStart = 8
	rec = doJSON(t, router, http.MethodPut, "/api/v1/preferences/", prefs)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	prefs.WorkHoursEnd = 7 // before start
	rec = doJSON(t, router, http.MethodPut, "/api/v1/preferences/", prefs)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for inverted hours, got %d", rec.Code)
	}
}
