/*
Copyright (C) 2026 Dayblock Labs

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package api exposes the HTTP surface: task and list CRUD, the
// auto-schedule endpoint, agenda queries, and preference management.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/dayblock/dayblock/internal/agenda"
	"github.com/dayblock/dayblock/internal/events"
	"github.com/dayblock/dayblock/internal/tasks"
)

// API exposes HTTP handlers.
type API struct {
	db     *gorm.DB
	tasks  *tasks.Service
	source *agenda.Source
	bus    *events.Bus
	logger zerolog.Logger
}

// New creates the API router wrapper.
func New(db *gorm.DB, taskSvc *tasks.Service, source *agenda.Source, bus *events.Bus, logger zerolog.Logger) *API {
	return &API{
		db:     db,
		tasks:  taskSvc,
		source: source,
		bus:    bus,
		logger: logger,
	}
}

// Routes registers all API routes on the router.
func (a *API) Routes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", a.handleHealth)

		r.Route("/lists", func(r chi.Router) {
			r.Get("/", a.handleListsList)
			r.Post("/", a.handleListsCreate)
			r.Route("/{listID}", func(r chi.Router) {
				r.Put("/", a.handleListsUpdate)
				r.Delete("/", a.handleListsDelete)
			})
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", a.handleTasksList)
			r.Post("/", a.handleTasksCreate)
			r.Route("/{taskID}", func(r chi.Router) {
				r.Get("/", a.handleTasksGet)
				r.Put("/", a.handleTasksUpdate)
				r.Delete("/", a.handleTasksDelete)
				r.Post("/complete", a.handleTasksComplete)
			})
		})

		r.Route("/tags", func(r chi.Router) {
			r.Get("/", a.handleTagsList)
			r.Post("/", a.handleTagsCreate)
			r.Delete("/{tagID}", a.handleTagsDelete)
		})

		r.Route("/schedule", func(r chi.Router) {
			r.Post("/auto", a.handleScheduleAuto)
		})

		r.Get("/agenda/{date}", a.handleAgendaDay)

		r.Route("/preferences", func(r chi.Router) {
			r.Get("/", a.handlePreferencesGet)
			r.Put("/", a.handlePreferencesUpdate)
		})
	})
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}
