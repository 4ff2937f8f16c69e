/*
Copyright (C) 2026 Dayblock Labs

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package scheduling

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCollectCandidatesDefaultHorizon(t *testing.T) {
	today := date(2026, time.March, 2)
	task := Task{ID: "t1", EstimatedMinutes: 60, Priority: PriorityNormal}

	candidates := CollectCandidates(task, BusyCalendar{}, DefaultPreferences(), today)

	// No due date: today plus seven further days are scanned.
	if len(candidates) != DefaultHorizonDays+1 {
		t.Fatalf("expected %d candidate days, got %d", DefaultHorizonDays+1, len(candidates))
	}
	if _, ok := candidates["2026-03-02"]; !ok {
		t.Error("expected today to be a candidate day")
	}
	if _, ok := candidates["2026-03-09"]; !ok {
		t.Error("expected the final horizon day to be a candidate")
	}
	if _, ok := candidates["2026-03-10"]; ok {
		t.Error("scan ran past the default horizon")
	}
}

func TestCollectCandidatesDueDateIsExclusive(t *testing.T) {
	today := date(2026, time.March, 2)
	due := date(2026, time.March, 5)
	task := Task{ID: "t1", EstimatedMinutes: 60, Priority: PriorityHigh, DueDate: &due}

	candidates := CollectCandidates(task, BusyCalendar{}, DefaultPreferences(), today)

	if _, ok := candidates["2026-03-05"]; ok {
		t.Error("task offered its own due date; deadline must be exclusive")
	}
	if _, ok := candidates["2026-03-04"]; !ok {
		t.Error("day before the deadline should be offered")
	}
	if len(candidates) != 3 {
		t.Fatalf("expected 3 candidate days, got %d", len(candidates))
	}
}

func TestCollectCandidatesDueTodayYieldsNothing(t *testing.T) {
	today := date(2026, time.March, 2)
	due := today
	task := Task{ID: "t1", EstimatedMinutes: 30, Priority: PriorityUrgent, DueDate: &due}

	candidates := CollectCandidates(task, BusyCalendar{}, DefaultPreferences(), today)
	if candidates == nil {
		t.Fatal("candidate map must never be nil")
	}
	if len(candidates) != 0 {
		t.Fatalf("expected empty candidate map, got %v", candidates)
	}
}

func TestCollectCandidatesPastDueYieldsNothing(t *testing.T) {
	today := date(2026, time.March, 2)
	due := date(2026, time.February, 27)
	task := Task{ID: "t1", EstimatedMinutes: 30, DueDate: &due}

	if got := CollectCandidates(task, BusyCalendar{}, DefaultPreferences(), today); len(got) != 0 {
		t.Fatalf("expected zero scanned days for a past deadline, got %v", got)
	}
}

func TestCollectCandidatesSafetyCap(t *testing.T) {
	today := date(2026, time.March, 2)
	due := date(2026, time.June, 1)
	task := Task{ID: "t1", EstimatedMinutes: 60, DueDate: &due}

	candidates := CollectCandidates(task, BusyCalendar{}, DefaultPreferences(), today)
	if len(candidates) != MaxLookaheadDays {
		t.Fatalf("expected the %d day safety cap, got %d days", MaxLookaheadDays, len(candidates))
	}
}

func TestCollectCandidatesFiltersByDuration(t *testing.T) {
	today := date(2026, time.March, 2)
	prefs := DefaultPreferences()
	prefs.BufferMinutes = 0

	// Monday is packed except 13:00-14:00; a 90 minute task cannot fit
	// there but fits on every open later day.
	calendar := BusyCalendar{}
	calendar.Add("2026-03-02", BusyEvent{Start: 9 * 60, End: 13 * 60, Title: "workshop"})
	calendar.Add("2026-03-02", BusyEvent{Start: 14 * 60, End: 18 * 60, Title: "travel"})

	task := Task{ID: "t1", EstimatedMinutes: 90, Priority: PriorityNormal}
	candidates := CollectCandidates(task, calendar, prefs, today)

	if _, ok := candidates["2026-03-02"]; ok {
		t.Error("day without a fitting gap must be absent from the result")
	}
	if gaps, ok := candidates["2026-03-03"]; !ok || len(gaps) == 0 {
		t.Error("open day missing from candidates")
	}

	// A 60 minute task does fit into the Monday opening.
	small := Task{ID: "t2", EstimatedMinutes: 60, Priority: PriorityNormal}
	candidates = CollectCandidates(small, calendar, prefs, today)
	gaps, ok := candidates["2026-03-02"]
	if !ok || len(gaps) != 1 {
		t.Fatalf("expected the 13:00 opening, got %v", gaps)
	}
	if gaps[0].Start != 13*60 {
		t.Errorf("opening starts at %d, want 780", gaps[0].Start)
	}
}

func TestCollectCandidatesFullyBookedHorizon(t *testing.T) {
	today := date(2026, time.March, 2)
	prefs := DefaultPreferences()
	prefs.BufferMinutes = 0

	calendar := BusyCalendar{}
	for i := 0; i < MaxLookaheadDays; i++ {
		key := today.AddDate(0, 0, i).Format(DayFormat)
		calendar.Add(key, BusyEvent{Start: 9 * 60, End: 18 * 60, Title: "offsite"})
	}

	task := Task{ID: "t1", EstimatedMinutes: 30}
	if got := CollectCandidates(task, calendar, prefs, today); len(got) != 0 {
		t.Fatalf("expected no candidates on a fully booked horizon, got %v", got)
	}
}
