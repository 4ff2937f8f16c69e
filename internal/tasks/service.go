/*
Copyright (C) 2026 Dayblock Labs

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package tasks implements the task service: CRUD support queries,
// preference handling, and the auto-schedule orchestration that feeds
// the scheduling engine and persists its output.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/dayblock/dayblock/internal/agenda"
	"github.com/dayblock/dayblock/internal/cache"
	"github.com/dayblock/dayblock/internal/events"
	"github.com/dayblock/dayblock/internal/interval"
	"github.com/dayblock/dayblock/internal/models"
	"github.com/dayblock/dayblock/internal/scheduling"
)

// ErrPersistenceFailure wraps storage errors hit while committing slots.
var ErrPersistenceFailure = errors.New("persistence failure")

// Service coordinates task scheduling against storage.
type Service struct {
	db        *gorm.DB
	scheduler *scheduling.Scheduler
	source    *agenda.Source
	bus       *events.Bus
	cache     *cache.Cache
	defaults  scheduling.Preferences
	logger    zerolog.Logger
}

// NewService creates a task service. bus and cache may be nil.
func NewService(db *gorm.DB, scheduler *scheduling.Scheduler, source *agenda.Source, bus *events.Bus, c *cache.Cache, defaults scheduling.Preferences, logger zerolog.Logger) *Service {
	return &Service{
		db:        db,
		scheduler: scheduler,
		source:    source,
		bus:       bus,
		cache:     c,
		defaults:  defaults,
		logger:    logger.With().Str("component", "tasks").Logger(),
	}
}

// ListUnscheduled returns incomplete tasks without an assigned slot.
func (s *Service) ListUnscheduled(ctx context.Context) ([]models.Task, error) {
	var rows []models.Task
	err := s.db.WithContext(ctx).
		Where("completed_at IS NULL AND scheduled_date IS NULL").
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list unscheduled tasks: %w", err)
	}
	return rows, nil
}

// Preferences returns the effective scheduling preferences: the stored
// row when present, otherwise the configured defaults.
func (s *Service) Preferences(ctx context.Context) (scheduling.Preferences, error) {
	if s.cache != nil {
		if prefs, ok := s.cache.GetPreferences(ctx); ok {
			return *prefs, nil
		}
	}

	var row models.SchedulingPreferences
	err := s.db.WithContext(ctx).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.defaults, nil
	}
	if err != nil {
		return scheduling.Preferences{}, fmt.Errorf("load preferences: %w", err)
	}

	prefs := scheduling.Preferences{
		WorkHoursStart:       row.WorkHoursStart,
		WorkHoursEnd:         row.WorkHoursEnd,
		BufferMinutes:        row.BufferMinutes,
		MaxHoursPerDay:       row.MaxHoursPerDay,
		PreferMorningForHard: row.PreferMorningForHard,
	}

	if s.cache != nil {
		if err := s.cache.SetPreferences(ctx, prefs); err != nil {
			s.logger.Debug().Err(err).Msg("failed to cache preferences")
		}
	}
	return prefs, nil
}

// SavePreferences upserts the stored preference row and invalidates the
// cached copy.
func (s *Service) SavePreferences(ctx context.Context, prefs scheduling.Preferences) error {
	if err := prefs.Validate(); err != nil {
		return err
	}

	var row models.SchedulingPreferences
	err := s.db.WithContext(ctx).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row = models.SchedulingPreferences{ID: uuid.NewString()}
	} else if err != nil {
		return fmt.Errorf("load preferences: %w", err)
	}

	row.WorkHoursStart = prefs.WorkHoursStart
	row.WorkHoursEnd = prefs.WorkHoursEnd
	row.BufferMinutes = prefs.BufferMinutes
	row.MaxHoursPerDay = prefs.MaxHoursPerDay
	row.PreferMorningForHard = prefs.PreferMorningForHard

	if err := s.db.WithContext(ctx).Save(&row).Error; err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.InvalidatePreferences(ctx); err != nil {
			s.logger.Debug().Err(err).Msg("failed to invalidate preferences cache")
		}
	}
	if s.bus != nil {
		s.bus.Publish(events.EventPreferencesUpdated, events.Payload{})
	}
	return nil
}

// AutoScheduleRequest selects what to schedule and with which overrides.
type AutoScheduleRequest struct {
	// TaskIDs limits scheduling to the named tasks. Empty means every
	// unscheduled incomplete task.
	TaskIDs []string

	// Overrides replaces the stored preferences for this run only.
	Overrides *scheduling.Preferences

	// Today overrides the reference day, mainly for tests.
	Today time.Time
}

// AutoSchedule runs the batch scheduler over the selected tasks and
// commits the resulting slots. Slots that fail to persist surface as
// per-task failures without aborting the batch.
func (s *Service) AutoSchedule(ctx context.Context, req AutoScheduleRequest) (scheduling.Result, error) {
	today := req.Today
	if today.IsZero() {
		today = time.Now()
	}
	today = scheduling.Midnight(today)

	prefs := s.defaults
	if req.Overrides != nil {
		prefs = *req.Overrides
	} else {
		loaded, err := s.Preferences(ctx)
		if err != nil {
			return scheduling.Result{}, err
		}
		prefs = loaded
	}

	rows, err := s.selectTasks(ctx, req.TaskIDs)
	if err != nil {
		return scheduling.Result{}, err
	}
	if len(rows) == 0 {
		return scheduling.Result{}, nil
	}

	busy, err := s.source.BusyWindow(ctx, today, scheduling.MaxLookaheadDays)
	if err != nil {
		return scheduling.Result{}, err
	}

	input := make([]scheduling.Task, 0, len(rows))
	byID := make(map[string]*models.Task, len(rows))
	for i := range rows {
		byID[rows[i].ID] = &rows[i]
		input = append(input, toSchedulingTask(&rows[i]))
	}

	result, err := s.scheduler.ScheduleAll(ctx, input, busy, prefs, today)
	if err != nil && len(result.Slots) == 0 {
		return result, err
	}

	committed := result.Slots[:0]
	for _, slot := range result.Slots {
		if commitErr := s.commitSlot(ctx, byID[slot.TaskID], slot); commitErr != nil {
			s.logger.Error().Err(commitErr).Str("task_id", slot.TaskID).Msg("failed to persist slot")
			result.Failures = append(result.Failures, scheduling.TaskFailure{
				TaskID: slot.TaskID,
				Reason: "persistence_failure",
				Err:    fmt.Errorf("%w: %v", ErrPersistenceFailure, commitErr),
			})
			continue
		}
		committed = append(committed, slot)
	}
	result.Slots = committed

	if s.cache != nil && len(result.Slots) > 0 {
		if cacheErr := s.cache.InvalidateAgenda(ctx); cacheErr != nil {
			s.logger.Debug().Err(cacheErr).Msg("failed to invalidate agenda cache")
		}
	}
	if s.bus != nil {
		s.bus.Publish(events.EventBatchScheduled, events.Payload{
			"scheduled": len(result.Slots),
			"failed":    len(result.Failures),
		})
	}

	s.logger.Info().
		Int("scheduled", len(result.Slots)).
		Int("failed", len(result.Failures)).
		Msg("auto-schedule batch complete")
	return result, err
}

func (s *Service) selectTasks(ctx context.Context, ids []string) ([]models.Task, error) {
	query := s.db.WithContext(ctx).Where("completed_at IS NULL")
	if len(ids) > 0 {
		query = query.Where("id IN ?", ids)
	} else {
		query = query.Where("scheduled_date IS NULL")
	}

	var rows []models.Task
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("select tasks: %w", err)
	}

	if len(ids) > 0 && len(rows) != len(ids) {
		found := make(map[string]bool, len(rows))
		for i := range rows {
			found[rows[i].ID] = true
		}
		for _, id := range ids {
			if !found[id] {
				return nil, fmt.Errorf("task %s not found or already completed", id)
			}
		}
	}
	return rows, nil
}

// commitSlot writes the slot onto the task row and mirrors it as a
// calendar event inside one transaction.
func (s *Service) commitSlot(ctx context.Context, row *models.Task, slot scheduling.Slot) error {
	date, err := time.Parse(scheduling.DayFormat, slot.Date)
	if err != nil {
		return fmt.Errorf("parse slot date %q: %w", slot.Date, err)
	}

	endMinute, err := slotEnd(slot.Time, row.EstimatedMinutes)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{
			"scheduled_date": date,
			"scheduled_time": slot.Time,
			"schedule_note":  slot.Reasoning,
		}
		if err := tx.Model(&models.Task{}).Where("id = ?", row.ID).Updates(updates).Error; err != nil {
			return err
		}

		// Replace any previous event for this task before inserting.
		if err := tx.Where("task_id = ?", row.ID).Delete(&models.CalendarEvent{}).Error; err != nil {
			return err
		}
		event := models.CalendarEvent{
			ID:        uuid.NewString(),
			Date:      slot.Date,
			StartTime: slot.Time,
			EndTime:   endMinute,
			Title:     row.Title,
			Source:    models.EventSourceTask,
			IsTask:    true,
			TaskID:    row.ID,
		}
		return tx.Create(&event).Error
	})
	if err != nil {
		return err
	}

	if s.bus != nil {
		s.bus.Publish(events.EventTaskScheduled, events.Payload{
			"task_id": row.ID,
			"date":    slot.Date,
			"time":    slot.Time,
		})
	}
	return nil
}

func slotEnd(start string, durationMinutes int) (string, error) {
	minute, err := interval.ParseClock(start)
	if err != nil {
		return "", fmt.Errorf("parse slot time %q: %w", start, err)
	}
	return interval.FormatClock(minute + durationMinutes), nil
}

func toSchedulingTask(row *models.Task) scheduling.Task {
	return scheduling.Task{
		ID:               row.ID,
		Title:            row.Title,
		EstimatedMinutes: row.EstimatedMinutes,
		Priority:         scheduling.Priority(row.Priority),
		DueDate:          row.DueDate,
	}
}
