/*
Copyright (C) 2026 Dayblock Labs

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package scheduling

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// stubAdvisor returns a canned suggestion or error and counts calls.
type stubAdvisor struct {
	suggestion Suggestion
	err        error
	calls      int
}

func (s *stubAdvisor) Suggest(_ context.Context, _ SuggestionRequest) (Suggestion, error) {
	s.calls++
	return s.suggestion, s.err
}

func twoGapDay() map[string][]Gap {
	return map[string][]Gap{
		"2026-03-03": {
			{Start: 9 * 60, End: 9*60 + 30, Minutes: 30},
			{Start: 14 * 60, End: 15 * 60, Minutes: 60},
		},
	}
}

func TestFallbackSelectorIsDeterministic(t *testing.T) {
	candidates := map[string][]Gap{
		"2026-03-05": {{Start: 10 * 60, End: 11 * 60, Minutes: 60}},
		"2026-03-03": {
			{Start: 9 * 60, End: 9*60 + 30, Minutes: 30},
			{Start: 14 * 60, End: 15 * 60, Minutes: 60},
		},
		"2026-03-04": {{Start: 9 * 60, End: 18 * 60, Minutes: 540}},
	}
	task := Task{ID: "t1", EstimatedMinutes: 30}

	var selector FallbackSelector
	for i := 0; i < 20; i++ {
		slot, err := selector.SelectSlot(context.Background(), task, candidates, DefaultPreferences())
		if err != nil {
			t.Fatalf("fallback failed: %v", err)
		}
		if slot.Date != "2026-03-03" || slot.Time != "09:00" {
			t.Fatalf("run %d: slot = %s %s, want 2026-03-03 09:00", i, slot.Date, slot.Time)
		}
	}
}

func TestFallbackSelectorEmptyCandidates(t *testing.T) {
	var selector FallbackSelector
	_, err := selector.SelectSlot(context.Background(), Task{ID: "t1"}, map[string][]Gap{}, DefaultPreferences())
	if !errors.Is(err, ErrNoAvailableSlot) {
		t.Fatalf("expected ErrNoAvailableSlot, got %v", err)
	}
}

func TestAdvisorSelectorAcceptsValidSuggestion(t *testing.T) {
	advisor := &stubAdvisor{suggestion: Suggestion{
		Date:      "2026-03-03",
		Time:      "14:00",
		Reasoning: "afternoon focus block",
	}}
	selector := NewAdvisorSelector(advisor, time.Second, zerolog.Nop())

	task := Task{ID: "t1", EstimatedMinutes: 45, Priority: PriorityHigh}
	slot, err := selector.SelectSlot(context.Background(), task, twoGapDay(), DefaultPreferences())
	if err != nil {
		t.Fatalf("SelectSlot: %v", err)
	}
	if slot.TaskID != "t1" || slot.Date != "2026-03-03" || slot.Time != "14:00" {
		t.Fatalf("unexpected slot %+v", slot)
	}
	if slot.Reasoning != "afternoon focus block" {
		t.Errorf("reasoning not carried through: %q", slot.Reasoning)
	}
}

func TestAdvisorSelectorRejectsSlotOutsideCandidates(t *testing.T) {
	tests := []struct {
		name       string
		suggestion Suggestion
	}{
		{name: "unknown date", suggestion: Suggestion{Date: "2026-03-09", Time: "09:00"}},
		{name: "start outside any gap", suggestion: Suggestion{Date: "2026-03-03", Time: "12:00"}},
		{name: "duration overflows gap", suggestion: Suggestion{Date: "2026-03-03", Time: "14:45"}},
		{name: "malformed time", suggestion: Suggestion{Date: "2026-03-03", Time: "2pm"}},
	}

	task := Task{ID: "t1", EstimatedMinutes: 45}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			selector := NewAdvisorSelector(&stubAdvisor{suggestion: tt.suggestion}, time.Second, zerolog.Nop())
			_, err := selector.SelectSlot(context.Background(), task, twoGapDay(), DefaultPreferences())
			if !errors.Is(err, ErrAdvisorUnavailable) {
				t.Fatalf("expected ErrAdvisorUnavailable, got %v", err)
			}
		})
	}
}

func TestAdvisorSelectorWrapsTransportErrors(t *testing.T) {
	selector := NewAdvisorSelector(&stubAdvisor{err: errors.New("connection refused")}, time.Second, zerolog.Nop())
	_, err := selector.SelectSlot(context.Background(), Task{ID: "t1", EstimatedMinutes: 30}, twoGapDay(), DefaultPreferences())
	if !errors.Is(err, ErrAdvisorUnavailable) {
		t.Fatalf("expected ErrAdvisorUnavailable, got %v", err)
	}
}

func TestChainSelectorFallsBackOnAdvisorFailure(t *testing.T) {
	// Advisor times out; the task still lands in the earliest gap.
	advisor := &stubAdvisor{err: context.DeadlineExceeded}
	chain := NewChainSelector(
		NewAdvisorSelector(advisor, time.Second, zerolog.Nop()),
		FallbackSelector{},
		zerolog.Nop(),
	)

	task := Task{ID: "t1", EstimatedMinutes: 30}
	slot, err := chain.SelectSlot(context.Background(), task, twoGapDay(), DefaultPreferences())
	if err != nil {
		t.Fatalf("chain should recover via fallback: %v", err)
	}
	if slot.Date != "2026-03-03" || slot.Time != "09:00" {
		t.Fatalf("fallback slot = %s %s, want 2026-03-03 09:00", slot.Date, slot.Time)
	}
}

func TestChainSelectorSkipsAdvisorWhenNothingToChoose(t *testing.T) {
	advisor := &stubAdvisor{suggestion: Suggestion{Date: "2026-03-03", Time: "09:00"}}
	chain := NewChainSelector(
		NewAdvisorSelector(advisor, time.Second, zerolog.Nop()),
		FallbackSelector{},
		zerolog.Nop(),
	)

	_, err := chain.SelectSlot(context.Background(), Task{ID: "t1", EstimatedMinutes: 30}, map[string][]Gap{}, DefaultPreferences())
	if !errors.Is(err, ErrNoAvailableSlot) {
		t.Fatalf("expected ErrNoAvailableSlot, got %v", err)
	}
	if advisor.calls != 0 {
		t.Fatalf("advisor consulted %d times for an empty candidate map", advisor.calls)
	}
}

func TestChainSelectorPrefersAdvisorWhenHealthy(t *testing.T) {
	advisor := &stubAdvisor{suggestion: Suggestion{Date: "2026-03-03", Time: "14:00", Reasoning: "quiet afternoon"}}
	chain := NewChainSelector(
		NewAdvisorSelector(advisor, time.Second, zerolog.Nop()),
		FallbackSelector{},
		zerolog.Nop(),
	)

	slot, err := chain.SelectSlot(context.Background(), Task{ID: "t1", EstimatedMinutes: 45}, twoGapDay(), DefaultPreferences())
	if err != nil {
		t.Fatalf("SelectSlot: %v", err)
	}
	if slot.Time != "14:00" {
		t.Fatalf("expected advisor's pick, got %s", slot.Time)
	}
	if advisor.calls != 1 {
		t.Fatalf("advisor called %d times, want 1", advisor.calls)
	}
}
