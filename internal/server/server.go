/*
Copyright (C) 2026 Dayblock Labs

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package server wires configuration, storage, caching, the scheduling
// engine, and the HTTP API into a runnable process.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/dayblock/dayblock/internal/agenda"
	"github.com/dayblock/dayblock/internal/api"
	"github.com/dayblock/dayblock/internal/cache"
	"github.com/dayblock/dayblock/internal/config"
	"github.com/dayblock/dayblock/internal/db"
	"github.com/dayblock/dayblock/internal/events"
	"github.com/dayblock/dayblock/internal/oracle"
	"github.com/dayblock/dayblock/internal/scheduling"
	"github.com/dayblock/dayblock/internal/tasks"
	"github.com/dayblock/dayblock/internal/telemetry"
	"github.com/dayblock/dayblock/internal/version"
)

// Server bundles HTTP and supporting services.
type Server struct {
	cfg        *config.Config
	logger     zerolog.Logger
	router     chi.Router
	httpServer *http.Server
	closers    []func() error

	db      *gorm.DB
	cache   *cache.Cache
	bus     *events.Bus
	source  *agenda.Source
	taskSvc *tasks.Service
	api     *api.API

	bgCancel context.CancelFunc
	bgWG     sync.WaitGroup
}

// New constructs the server and wires dependencies.
func New(cfg *config.Config, logger zerolog.Logger) (*Server, error) {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(telemetry.MetricsMiddleware)
	router.Use(middleware.Timeout(60 * time.Second))

	srv := &Server{
		cfg:    cfg,
		logger: logger,
		router: router,
		bus:    events.NewBus(),
	}

	if err := srv.initDependencies(); err != nil {
		return nil, err
	}

	srv.configureRoutes()
	srv.startBackgroundWorkers()

	addr := fmt.Sprintf("%s:%d", cfg.HTTPBind, cfg.HTTPPort)
	srv.httpServer = &http.Server{
		Addr:              addr,
		Handler:           srv.router,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return srv, nil
}

func (s *Server) initDependencies() error {
	database, err := db.Connect(s.cfg)
	if err != nil {
		return err
	}
	if err := db.Migrate(database); err != nil {
		return err
	}
	s.db = database
	s.DeferClose(func() error { return db.Close(database) })

	if s.cfg.CacheEnabled {
		cacheCfg := cache.DefaultConfig()
		cacheCfg.RedisAddr = s.cfg.RedisAddr
		cacheCfg.RedisPassword = s.cfg.RedisPassword
		cacheCfg.RedisDB = s.cfg.RedisDB
		entityCache, err := cache.New(cacheCfg, s.logger)
		if err != nil {
			s.logger.Warn().Err(err).Msg("cache initialization failed, continuing without cache")
		} else {
			s.cache = entityCache
			s.DeferClose(func() error { return s.cache.Close() })
		}
	}

	var external agenda.BusySource
	if s.cfg.GoogleCalendarEnabled {
		googleSrc, err := agenda.NewGoogleSource(context.Background(), agenda.GoogleConfig{
			CredentialsFile: s.cfg.GoogleCredentialsFile,
			TokenFile:       s.cfg.GoogleTokenFile,
			CalendarID:      s.cfg.GoogleCalendarID,
		}, s.logger)
		if err != nil {
			s.logger.Warn().Err(err).Msg("Google Calendar source unavailable, continuing without it")
		} else {
			external = googleSrc
			s.logger.Info().Str("calendar_id", s.cfg.GoogleCalendarID).Msg("Google Calendar source enabled")
		}
	}
	s.source = agenda.NewSource(database, s.cache, external, s.logger)

	var primary scheduling.SlotSelector
	if s.cfg.AdvisorEnabled {
		advisor, err := oracle.New(oracle.Config{
			APIKey:  s.cfg.AdvisorAPIKey,
			BaseURL: s.cfg.AdvisorBaseURL,
			Model:   s.cfg.AdvisorModel,
		}, s.logger)
		if err != nil {
			s.logger.Warn().Err(err).Msg("advisor initialization failed, using deterministic selection only")
		} else {
			primary = scheduling.NewAdvisorSelector(advisor, s.cfg.AdvisorTimeout, s.logger)
			s.logger.Info().Str("model", s.cfg.AdvisorModel).Msg("slot advisor enabled")
		}
	}
	selector := scheduling.NewChainSelector(primary, scheduling.FallbackSelector{}, s.logger)
	scheduler := scheduling.NewScheduler(selector, s.logger)

	defaults := scheduling.Preferences{
		WorkHoursStart:       s.cfg.WorkHoursStart,
		WorkHoursEnd:         s.cfg.WorkHoursEnd,
		BufferMinutes:        s.cfg.BufferMinutes,
		MaxHoursPerDay:       s.cfg.MaxHoursPerDay,
		PreferMorningForHard: s.cfg.PreferMorningForHard,
	}
	if err := defaults.Validate(); err != nil {
		return fmt.Errorf("configured preference defaults: %w", err)
	}

	s.taskSvc = tasks.NewService(database, scheduler, s.source, s.bus, s.cache, defaults, s.logger)
	s.api = api.New(database, s.taskSvc, s.source, s.bus, s.logger)

	return nil
}

func (s *Server) configureRoutes() {
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok","version":"` + version.Version + `"}`))
	})

	s.router.Handle("/metrics", telemetry.Handler())

	s.api.Routes(s.router)
}

func (s *Server) startBackgroundWorkers() {
	if s.cache == nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.bgCancel = cancel

	s.bgWG.Add(1)
	go func() {
		defer s.bgWG.Done()
		s.runCacheInvalidationListener(ctx)
	}()
}

// runCacheInvalidationListener drops cached agenda days whenever task
// mutations outside the batch path change the calendar.
func (s *Server) runCacheInvalidationListener(ctx context.Context) {
	taskUpdated := s.bus.Subscribe(events.EventTaskUpdated)
	taskDeleted := s.bus.Subscribe(events.EventTaskDeleted)
	taskCompleted := s.bus.Subscribe(events.EventTaskCompleted)

	defer func() {
		s.bus.Unsubscribe(events.EventTaskUpdated, taskUpdated)
		s.bus.Unsubscribe(events.EventTaskDeleted, taskDeleted)
		s.bus.Unsubscribe(events.EventTaskCompleted, taskCompleted)
	}()

	s.logger.Info().Msg("cache invalidation listener started")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("cache invalidation listener stopped")
			return

		case <-taskUpdated:
			s.cache.InvalidateAgenda(ctx)

		case <-taskDeleted:
			s.cache.InvalidateAgenda(ctx)

		case <-taskCompleted:
			s.cache.InvalidateAgenda(ctx)
		}
	}
}

func (s *Server) stopBackgroundWorkers() {
	if s.bgCancel == nil {
		return
	}
	s.bgCancel()
	s.bgWG.Wait()
	s.bgCancel = nil
}

// HTTPServer exposes the configured http.Server for the caller to run.
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// Close releases owned resources in reverse order.
func (s *Server) Close() error {
	s.stopBackgroundWorkers()
	var firstErr error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// DeferClose registers a cleanup hook.
func (s *Server) DeferClose(fn func() error) {
	s.closers = append(s.closers, fn)
}
