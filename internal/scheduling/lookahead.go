/*
Copyright (C) 2026 Dayblock Labs

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package scheduling

import "time"

const (
	// MaxLookaheadDays is the safety horizon: no search runs past it even
	// for far-off due dates.
	MaxLookaheadDays = 14

	// DefaultHorizonDays bounds the search for tasks without a due date.
	DefaultHorizonDays = 7
)

// CollectCandidates walks forward day by day from today and returns, per
// date, the free gaps large enough to hold the task. Days without a fitting
// gap are absent from the result. The map is never nil; an empty map is the
// "no slot anywhere" terminal condition.
//
// The horizon is the tighter of the safety limit and the task's deadline.
// A due date is an exclusive upper bound: a task due on day D is only ever
// offered days strictly before D, so a due date of today (or earlier)
// yields zero candidate days.
func CollectCandidates(task Task, calendar BusyCalendar, prefs Preferences, today time.Time) map[string][]Gap {
	candidates := make(map[string][]Gap)

	start := Midnight(today)
	var limit time.Time
	if task.DueDate != nil {
		limit = Midnight(*task.DueDate)
	} else {
		// Inclusive default horizon, matching the two-week safety cap below.
		limit = start.AddDate(0, 0, DefaultHorizonDays+1)
	}

	for i := 0; i < MaxLookaheadDays; i++ {
		date := start.AddDate(0, 0, i)
		if !date.Before(limit) {
			break
		}

		key := date.Format(DayFormat)
		gaps := FindFreeGaps(calendar[key], prefs)

		var fitting []Gap
		for _, gap := range gaps {
			if gap.Minutes >= task.EstimatedMinutes {
				fitting = append(fitting, gap)
			}
		}
		if len(fitting) > 0 {
			candidates[key] = fitting
		}
	}

	return candidates
}
