/*
Copyright (C) 2026 Dayblock Labs

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/teambition/rrule-go"
	"gorm.io/gorm"

	"github.com/dayblock/dayblock/internal/events"
	"github.com/dayblock/dayblock/internal/models"
	"github.com/dayblock/dayblock/internal/scheduling"
)

// ErrTaskNotFound is returned when a task ID resolves to nothing.
var ErrTaskNotFound = errors.New("task not found")

// ValidateRecurrenceRule checks an RFC 5545 RRULE string.
func ValidateRecurrenceRule(rule string) error {
	if rule == "" {
		return nil
	}
	if _, err := rrule.StrToRRule(rule); err != nil {
		return fmt.Errorf("invalid recurrence rule: %w", err)
	}
	return nil
}

// NextOccurrence evaluates a task's recurrence rule and returns the
// first occurrence strictly after the given time. Returns nil when the
// rule has no further occurrences.
func NextOccurrence(rule string, anchor, after time.Time) (*time.Time, error) {
	rr, err := rrule.StrToRRule(rule)
	if err != nil {
		return nil, fmt.Errorf("parse recurrence rule: %w", err)
	}
	rr.DTStart(scheduling.Midnight(anchor))

	next := rr.After(after, false)
	if next.IsZero() {
		return nil, nil
	}
	return &next, nil
}

// Complete marks a task done. Recurring tasks spawn a fresh unscheduled
// copy due on the next occurrence instead of disappearing.
func (s *Service) Complete(ctx context.Context, taskID string, now time.Time) (*models.Task, error) {
	var row models.Task
	err := s.db.WithContext(ctx).First(&row, "id = ?", taskID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load task: %w", err)
	}

	var successor *models.Task
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		completedAt := now
		if err := tx.Model(&models.Task{}).Where("id = ?", row.ID).
			Update("completed_at", completedAt).Error; err != nil {
			return err
		}

		// Drop the calendar block held by the completed task.
		if err := tx.Where("task_id = ?", row.ID).Delete(&models.CalendarEvent{}).Error; err != nil {
			return err
		}

		if row.RecurrenceRule == "" {
			return nil
		}

		anchor := now
		if row.DueDate != nil {
			anchor = *row.DueDate
		}
		next, err := NextOccurrence(row.RecurrenceRule, anchor, now)
		if err != nil {
			return err
		}
		if next == nil {
			return nil
		}

		successor = &models.Task{
			ID:               uuid.NewString(),
			ListID:           row.ListID,
			Title:            row.Title,
			Notes:            row.Notes,
			EstimatedMinutes: row.EstimatedMinutes,
			Priority:         row.Priority,
			DueDate:          next,
			RecurrenceRule:   row.RecurrenceRule,
		}
		return tx.Create(successor).Error
	})
	if err != nil {
		return nil, fmt.Errorf("complete task: %w", err)
	}

	if s.bus != nil {
		s.bus.Publish(events.EventTaskCompleted, events.Payload{"task_id": row.ID})
		if successor != nil {
			s.bus.Publish(events.EventTaskCreated, events.Payload{
				"task_id":   successor.ID,
				"recurring": true,
			})
		}
	}
	return successor, nil
}
