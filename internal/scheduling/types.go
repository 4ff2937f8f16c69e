/*
Copyright (C) 2026 Dayblock Labs

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package scheduling implements the automatic task placement engine: free
// gap discovery inside working hours, a bounded multi-day candidate search,
// slot selection through an external advisor with a deterministic local
// fallback, and the sequential batch scheduler that keeps tasks from
// colliding with each other.
package scheduling

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dayblock/dayblock/internal/interval"
)

// DayFormat is the canonical date key used throughout the engine. ISO dates
// sort chronologically as plain strings, which the fallback selector relies on.
const DayFormat = "2006-01-02"

var (
	// ErrInvalidTask marks tasks rejected before the search begins.
	ErrInvalidTask = errors.New("invalid task")

	// ErrNoAvailableSlot is the normal terminal outcome when the horizon is
	// exhausted without a fitting gap.
	ErrNoAvailableSlot = errors.New("no available slot before horizon")

	// ErrAdvisorUnavailable covers transport, timeout, parse, and
	// invalid-suggestion failures from the decision advisor. It is always
	// recovered locally and never surfaces as a per-task failure on its own.
	ErrAdvisorUnavailable = errors.New("decision advisor unavailable")

	// ErrInvalidPreferences is fatal for the whole batch.
	ErrInvalidPreferences = errors.New("invalid scheduling preferences")
)

// Priority orders tasks within a batch.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Rank maps priorities to sort order, most urgent first. Unknown values
// rank alongside normal so malformed input degrades instead of panicking.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 0
	case PriorityHigh:
		return 1
	case PriorityNormal:
		return 2
	case PriorityLow:
		return 3
	default:
		return 2
	}
}

// Hard reports whether the priority qualifies for morning placement when
// PreferMorningForHard is set.
func (p Priority) Hard() bool {
	return p == PriorityHigh || p == PriorityUrgent
}

// Task is the immutable input to one scheduling run.
type Task struct {
	ID               string
	Title            string
	EstimatedMinutes int
	Priority         Priority
	// DueDate is an exclusive upper bound: the task must land strictly
	// before this date.
	DueDate *time.Time
}

// Validate rejects structurally unusable tasks relative to today.
func (t Task) Validate(today time.Time) error {
	if t.EstimatedMinutes <= 0 {
		return fmt.Errorf("%w: estimated duration must be positive", ErrInvalidTask)
	}
	if t.DueDate != nil {
		due := Midnight(*t.DueDate)
		if due.Before(Midnight(today)) {
			return fmt.Errorf("%w: due date %s already passed", ErrInvalidTask, due.Format(DayFormat))
		}
	}
	return nil
}

// BusyEvent is one committed block of time on a particular day.
type BusyEvent struct {
	Start  int // minutes from midnight
	End    int
	Title  string
	IsTask bool
}

// Interval converts the event to its minute range.
func (e BusyEvent) Interval() interval.Interval {
	return interval.New(e.Start, e.End)
}

// BusyCalendar maps ISO dates to the committed events of that day. Within a
// batch it is exclusively owned and mutated by the Scheduler; callers hand
// over a fresh copy per invocation.
type BusyCalendar map[string][]BusyEvent

// Add appends an event to the given day.
func (c BusyCalendar) Add(date string, ev BusyEvent) {
	c[date] = append(c[date], ev)
}

// Clone returns a deep copy so concurrent batches never share day slices.
func (c BusyCalendar) Clone() BusyCalendar {
	out := make(BusyCalendar, len(c))
	for date, events := range c {
		out[date] = append([]BusyEvent(nil), events...)
	}
	return out
}

// Preferences is the process-wide scheduling policy, overridable per call.
type Preferences struct {
	WorkHoursStart       int  `json:"work_hours_start" yaml:"work_hours_start"`
	WorkHoursEnd         int  `json:"work_hours_end" yaml:"work_hours_end"`
	BufferMinutes        int  `json:"buffer_minutes" yaml:"buffer_minutes"`
	MaxHoursPerDay       int  `json:"max_hours_per_day" yaml:"max_hours_per_day"`
	PreferMorningForHard bool `json:"prefer_morning_for_hard" yaml:"prefer_morning_for_hard"`
}

// DefaultPreferences mirrors the product defaults: 09:00-18:00 working
// hours, 15 minute buffers, at most 6 scheduled hours per day.
func DefaultPreferences() Preferences {
	return Preferences{
		WorkHoursStart:       9,
		WorkHoursEnd:         18,
		BufferMinutes:        15,
		MaxHoursPerDay:       6,
		PreferMorningForHard: true,
	}
}

// Validate rejects structurally broken preferences. A violation here fails
// the whole batch before any task is considered.
func (p Preferences) Validate() error {
	if p.WorkHoursStart < 0 || p.WorkHoursEnd > 24 || p.WorkHoursStart >= p.WorkHoursEnd {
		return fmt.Errorf("%w: work hours %d-%d", ErrInvalidPreferences, p.WorkHoursStart, p.WorkHoursEnd)
	}
	if p.BufferMinutes < 0 {
		return fmt.Errorf("%w: negative buffer", ErrInvalidPreferences)
	}
	return nil
}

// WorkWindow returns the working hours as a minute interval.
func (p Preferences) WorkWindow() interval.Interval {
	return interval.New(p.WorkHoursStart*60, p.WorkHoursEnd*60)
}

// Gap is a free opening within working hours, valid only for the day and
// busy set it was computed from.
type Gap struct {
	Start   int `json:"-"`
	End     int `json:"-"`
	Minutes int `json:"available_minutes"`
}

// Interval converts the gap to its minute range.
func (g Gap) Interval() interval.Interval {
	return interval.New(g.Start, g.End)
}

// Slot is the output of a successful placement.
type Slot struct {
	TaskID    string `json:"task_id"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Reasoning string `json:"reasoning"`
}

// TaskFailure reports why one task could not be scheduled. Failures are
// collected per task and never abort the batch.
type TaskFailure struct {
	TaskID string `json:"task_id"`
	Reason string `json:"reason"`
	Err    error  `json:"-"`
}

// Result carries both outcomes of one batch run.
type Result struct {
	Slots    []Slot        `json:"slots"`
	Failures []TaskFailure `json:"failures"`
}

// Midnight truncates an instant to the start of its calendar day.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// sortedDates returns candidate map keys in chronological order.
func sortedDates(candidates map[string][]Gap) []string {
	dates := make([]string, 0, len(candidates))
	for date := range candidates {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates
}
