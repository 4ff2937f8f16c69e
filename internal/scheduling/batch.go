/*
Copyright (C) 2026 Dayblock Labs

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package scheduling

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/dayblock/dayblock/internal/interval"
	"github.com/dayblock/dayblock/internal/telemetry"
)

// Scheduler places a batch of tasks one at a time. Processing is strictly
// sequential: each accepted slot is written back into the shared busy
// calendar before the next task's candidate search runs, so two tasks can
// never be handed the same gap. Independent batches are fully isolated and
// may run concurrently.
type Scheduler struct {
	selector SlotSelector
	logger   zerolog.Logger
}

// NewScheduler constructs a batch scheduler around a slot selector.
func NewScheduler(selector SlotSelector, logger zerolog.Logger) *Scheduler {
	return &Scheduler{selector: selector, logger: logger}
}

// ScheduleAll orders the tasks, places each in turn, and collects per-task
// failures alongside successes. One unschedulable task never blocks the
// rest of the batch; only structurally invalid preferences fail the whole
// call. On context cancellation the loop stops before the next task's
// selector call and the partial result is returned with the context error.
//
// The calendar is mutated in place and must not be shared with a concurrent
// batch; clone it first if the caller keeps a reference.
func (s *Scheduler) ScheduleAll(ctx context.Context, tasks []Task, calendar BusyCalendar, prefs Preferences, today time.Time) (Result, error) {
	started := time.Now()
	telemetry.SchedulerBatchesTotal.Inc()

	if err := prefs.Validate(); err != nil {
		return Result{}, err
	}
	if calendar == nil {
		calendar = make(BusyCalendar)
	}

	ordered := OrderTasks(tasks)
	result := Result{}

	for _, task := range ordered {
		if err := ctx.Err(); err != nil {
			telemetry.SchedulerBatchDuration.Observe(time.Since(started).Seconds())
			return result, err
		}

		if err := task.Validate(today); err != nil {
			result.Failures = append(result.Failures, failure(task.ID, err))
			telemetry.TasksUnschedulableTotal.Inc()
			continue
		}

		candidates := CollectCandidates(task, calendar, prefs, today)
		slot, err := s.selector.SelectSlot(ctx, task, candidates, prefs)
		if err != nil {
			result.Failures = append(result.Failures, failure(task.ID, err))
			telemetry.TasksUnschedulableTotal.Inc()
			s.logger.Debug().
				Str("task_id", task.ID).
				Str("title", task.Title).
				Err(err).
				Msg("task left unscheduled")
			continue
		}

		result.Slots = append(result.Slots, slot)
		s.commit(calendar, task, slot)
		telemetry.TasksScheduledTotal.Inc()

		s.logger.Info().
			Str("task_id", task.ID).
			Str("date", slot.Date).
			Str("time", slot.Time).
			Str("priority", string(task.Priority)).
			Msg("task scheduled")
	}

	telemetry.SchedulerBatchDuration.Observe(time.Since(started).Seconds())
	return result, nil
}

// commit synthesizes a committed event for an accepted slot so subsequent
// tasks in the batch see it as busy time.
func (s *Scheduler) commit(calendar BusyCalendar, task Task, slot Slot) {
	start, err := interval.ParseClock(slot.Time)
	if err != nil {
		// The slot came from a validated selector; an unparseable time here
		// is a programming error, not an input problem.
		s.logger.Error().Str("task_id", task.ID).Str("time", slot.Time).Msg("accepted slot has malformed time")
		return
	}
	calendar.Add(slot.Date, BusyEvent{
		Start:  start,
		End:    start + task.EstimatedMinutes,
		Title:  task.Title,
		IsTask: true,
	})
}

// OrderTasks applies the batch ordering policy: most urgent priority first,
// then tasks with due dates before tasks without, then earlier due dates.
// The sort is stable so equal tasks keep their submission order.
func OrderTasks(tasks []Task) []Task {
	ordered := append([]Task(nil), tasks...)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.Priority.Rank() != b.Priority.Rank() {
			return a.Priority.Rank() < b.Priority.Rank()
		}
		switch {
		case a.DueDate != nil && b.DueDate != nil:
			return a.DueDate.Before(*b.DueDate)
		case a.DueDate != nil:
			return true
		case b.DueDate != nil:
			return false
		default:
			return false
		}
	})
	return ordered
}

func failure(taskID string, err error) TaskFailure {
	reason := "unschedulable"
	switch {
	case errors.Is(err, ErrInvalidTask):
		reason = "invalid_task"
	case errors.Is(err, ErrNoAvailableSlot):
		reason = "no_available_slot"
	}
	return TaskFailure{TaskID: taskID, Reason: reason, Err: err}
}
