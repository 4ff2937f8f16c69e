/*
Copyright (C) 2026 Dayblock Labs

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dayblock/dayblock/internal/scheduling"
	"github.com/dayblock/dayblock/internal/tasks"
)

func (a *API) handleScheduleAuto(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TaskIDs   []string                `json:"task_ids"`
		Overrides *scheduling.Preferences `json:"preferences"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json")
			return
		}
	}

	if req.Overrides != nil {
		if err := req.Overrides.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_preferences")
			return
		}
	}

	result, err := a.tasks.AutoSchedule(r.Context(), tasks.AutoScheduleRequest{
		TaskIDs:   req.TaskIDs,
		Overrides: req.Overrides,
	})
	if err != nil {
		if errors.Is(err, scheduling.ErrInvalidPreferences) {
			writeError(w, http.StatusBadRequest, "invalid_preferences")
			return
		}
		a.logger.Error().Err(err).Msg("auto-schedule failed")
		writeError(w, http.StatusInternalServerError, "schedule_failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"scheduled": result.Slots,
		"failures":  result.Failures,
	})
}

func (a *API) handleAgendaDay(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "date")
	date, err := time.Parse(scheduling.DayFormat, raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date")
		return
	}

	events, err := a.source.DayAgenda(r.Context(), date)
	if err != nil {
		a.logger.Error().Err(err).Str("date", raw).Msg("load day agenda failed")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"date":   raw,
		"events": events,
	})
}

func (a *API) handlePreferencesGet(w http.ResponseWriter, r *http.Request) {
	prefs, err := a.tasks.Preferences(r.Context())
	if err != nil {
		a.logger.Error().Err(err).Msg("load preferences failed")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

func (a *API) handlePreferencesUpdate(w http.ResponseWriter, r *http.Request) {
	var prefs scheduling.Preferences
	if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}

	if err := a.tasks.SavePreferences(r.Context(), prefs); err != nil {
		if errors.Is(err, scheduling.ErrInvalidPreferences) {
			writeError(w, http.StatusBadRequest, "invalid_preferences")
			return
		}
		a.logger.Error().Err(err).Msg("save preferences failed")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}
