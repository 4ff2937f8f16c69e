/*
Copyright (C) 2026 Dayblock Labs

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package agenda assembles the busy calendar consumed by the scheduler.
// It merges stored events, expanded recurrences, and optionally Google
// Calendar busy windows into per-day event lists.
package agenda

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/teambition/rrule-go"
	"gorm.io/gorm"

	"github.com/dayblock/dayblock/internal/cache"
	"github.com/dayblock/dayblock/internal/interval"
	"github.com/dayblock/dayblock/internal/models"
	"github.com/dayblock/dayblock/internal/scheduling"
)

// BusySource provides busy windows from an external calendar.
type BusySource interface {
	BusyWindows(ctx context.Context, from, to time.Time) (scheduling.BusyCalendar, error)
}

// Source loads busy events for a scheduling horizon.
type Source struct {
	db       *gorm.DB
	cache    *cache.Cache
	external BusySource
	logger   zerolog.Logger
}

// NewSource creates an agenda source. cache and external may be nil.
func NewSource(db *gorm.DB, c *cache.Cache, external BusySource, logger zerolog.Logger) *Source {
	return &Source{
		db:       db,
		cache:    c,
		external: external,
		logger:   logger.With().Str("component", "agenda").Logger(),
	}
}

// BusyWindow returns all busy events for the days [from, from+days),
// keyed by date. Recurring events are expanded across the window.
func (s *Source) BusyWindow(ctx context.Context, from time.Time, days int) (scheduling.BusyCalendar, error) {
	from = scheduling.Midnight(from)
	to := from.AddDate(0, 0, days)
	calendar := make(scheduling.BusyCalendar)

	if err := s.loadStored(ctx, calendar, from, to); err != nil {
		return nil, err
	}

	if s.external != nil {
		external, err := s.external.BusyWindows(ctx, from, to)
		if err != nil {
			// External calendar outages degrade to local data only.
			s.logger.Warn().Err(err).Msg("external calendar unavailable, using stored events only")
		} else {
			for date, events := range external {
				for _, event := range events {
					calendar.Add(date, event)
				}
			}
		}
	}

	return calendar, nil
}

// DayAgenda returns the busy events for a single date, cached when a
// cache is configured.
func (s *Source) DayAgenda(ctx context.Context, date time.Time) ([]scheduling.BusyEvent, error) {
	key := date.Format(scheduling.DayFormat)
	if s.cache != nil {
		if events, ok := s.cache.GetDayAgenda(ctx, key); ok {
			return events, nil
		}
	}

	calendar, err := s.BusyWindow(ctx, date, 1)
	if err != nil {
		return nil, err
	}
	events := calendar[key]

	if s.cache != nil {
		if err := s.cache.SetDayAgenda(ctx, key, events); err != nil {
			s.logger.Debug().Err(err).Str("date", key).Msg("failed to cache day agenda")
		}
	}
	return events, nil
}

func (s *Source) loadStored(ctx context.Context, calendar scheduling.BusyCalendar, from, to time.Time) error {
	fromKey := from.Format(scheduling.DayFormat)
	toKey := to.Format(scheduling.DayFormat)

	var rows []models.CalendarEvent
	err := s.db.WithContext(ctx).
		Where("(date >= ? AND date < ?) OR recurrence_rule <> ''", fromKey, toKey).
		Find(&rows).Error
	if err != nil {
		return fmt.Errorf("load calendar events: %w", err)
	}

	for i := range rows {
		row := &rows[i]
		if row.RecurrenceRule != "" {
			if err := s.expandRecurring(calendar, row, from, to); err != nil {
				s.logger.Warn().Err(err).Str("event_id", row.ID).Msg("skipping event with invalid recurrence rule")
			}
			continue
		}

		event, err := toBusyEvent(row)
		if err != nil {
			s.logger.Warn().Err(err).Str("event_id", row.ID).Msg("skipping malformed calendar event")
			continue
		}
		calendar.Add(row.Date, event)
	}

	return nil
}

// expandRecurring materializes occurrences of a recurring event inside
// [from, to). The stored date anchors the rule's DTSTART; the time
// window repeats on every occurrence day.
func (s *Source) expandRecurring(calendar scheduling.BusyCalendar, row *models.CalendarEvent, from, to time.Time) error {
	anchor, err := time.ParseInLocation(scheduling.DayFormat, row.Date, from.Location())
	if err != nil {
		return fmt.Errorf("parse anchor date %q: %w", row.Date, err)
	}

	rr, err := rrule.StrToRRule(row.RecurrenceRule)
	if err != nil {
		return fmt.Errorf("parse recurrence rule: %w", err)
	}
	rr.DTStart(anchor)

	event, err := toBusyEvent(row)
	if err != nil {
		return err
	}

	for _, occurrence := range rr.Between(from, to.Add(-time.Nanosecond), true) {
		calendar.Add(occurrence.Format(scheduling.DayFormat), event)
	}
	return nil
}

func toBusyEvent(row *models.CalendarEvent) (scheduling.BusyEvent, error) {
	start, err := interval.ParseClock(row.StartTime)
	if err != nil {
		return scheduling.BusyEvent{}, fmt.Errorf("start time: %w", err)
	}
	end, err := interval.ParseClock(row.EndTime)
	if err != nil {
		return scheduling.BusyEvent{}, fmt.Errorf("end time: %w", err)
	}
	return scheduling.BusyEvent{
		Start:  start,
		End:    end,
		Title:  row.Title,
		IsTask: row.IsTask,
	}, nil
}
