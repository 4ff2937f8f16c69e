/*
Copyright (C) 2026 Dayblock Labs

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/dayblock/dayblock/internal/interval"
	"github.com/dayblock/dayblock/internal/telemetry"
)

// SlotSelector picks one slot for a task out of its per-day candidate gaps.
type SlotSelector interface {
	SelectSlot(ctx context.Context, task Task, candidates map[string][]Gap, prefs Preferences) (Slot, error)
}

// Advisor obtains a slot suggestion from an external decision service. The
// engine treats every suggestion as untrusted and re-validates it against
// the candidate set before accepting.
type Advisor interface {
	Suggest(ctx context.Context, req SuggestionRequest) (Suggestion, error)
}

// SuggestionRequest is the advisor's view of one task's decision.
type SuggestionRequest struct {
	Task        Task
	Candidates  map[string][]Gap
	Preferences Preferences
}

// Suggestion is the advisor's answer: a date, an "HH:MM" start time, and a
// short human-readable justification.
type Suggestion struct {
	Date      string `json:"date"`
	Time      string `json:"time"`
	Reasoning string `json:"reasoning"`
}

// AdvisorSelector asks the external advisor for a slot and validates the
// answer. Any failure, including an answer outside the candidate set, is
// reported as ErrAdvisorUnavailable so the caller can fall back.
type AdvisorSelector struct {
	advisor Advisor
	timeout time.Duration
	logger  zerolog.Logger
}

// NewAdvisorSelector wraps an advisor with a per-call timeout.
func NewAdvisorSelector(advisor Advisor, timeout time.Duration, logger zerolog.Logger) *AdvisorSelector {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &AdvisorSelector{advisor: advisor, timeout: timeout, logger: logger}
}

// SelectSlot is budgeted at a single advisor call per task.
func (s *AdvisorSelector) SelectSlot(ctx context.Context, task Task, candidates map[string][]Gap, prefs Preferences) (Slot, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	suggestion, err := s.advisor.Suggest(callCtx, SuggestionRequest{
		Task:        task,
		Candidates:  candidates,
		Preferences: prefs,
	})
	if err != nil {
		telemetry.AdvisorRequestsTotal.WithLabelValues("error").Inc()
		return Slot{}, fmt.Errorf("%w: %v", ErrAdvisorUnavailable, err)
	}

	if err := validateSuggestion(suggestion, task, candidates); err != nil {
		telemetry.AdvisorRequestsTotal.WithLabelValues("invalid").Inc()
		s.logger.Warn().
			Str("task_id", task.ID).
			Str("date", suggestion.Date).
			Str("time", suggestion.Time).
			Msg("advisor suggestion outside candidate set, discarding")
		return Slot{}, fmt.Errorf("%w: %v", ErrAdvisorUnavailable, err)
	}

	telemetry.AdvisorRequestsTotal.WithLabelValues("ok").Inc()
	return Slot{
		TaskID:    task.ID,
		Date:      suggestion.Date,
		Time:      suggestion.Time,
		Reasoning: suggestion.Reasoning,
	}, nil
}

// validateSuggestion checks that the suggested start sits inside one of the
// exact candidate gaps and leaves room for the task's full duration.
func validateSuggestion(s Suggestion, task Task, candidates map[string][]Gap) error {
	gaps, ok := candidates[s.Date]
	if !ok {
		return fmt.Errorf("suggested date %s has no candidates", s.Date)
	}
	start, err := interval.ParseClock(s.Time)
	if err != nil {
		return err
	}
	for _, gap := range gaps {
		if gap.Interval().Contains(start, task.EstimatedMinutes) {
			return nil
		}
	}
	return fmt.Errorf("suggested start %s does not fit any gap on %s", s.Time, s.Date)
}

// FallbackSelector is the deterministic local rule: earliest candidate
// date, earliest gap on that date. No randomness, no external calls.
type FallbackSelector struct{}

// SelectSlot never fails when the candidate map is non-empty.
func (FallbackSelector) SelectSlot(_ context.Context, task Task, candidates map[string][]Gap, _ Preferences) (Slot, error) {
	dates := sortedDates(candidates)
	if len(dates) == 0 {
		return Slot{}, ErrNoAvailableSlot
	}

	first := dates[0]
	gap := candidates[first][0]
	return Slot{
		TaskID:    task.ID,
		Date:      first,
		Time:      interval.FormatClock(gap.Start),
		Reasoning: "scheduled into the first available opening",
	}, nil
}

// ChainSelector tries the primary selector and falls back to the secondary
// on any error. An empty candidate map short-circuits to ErrNoAvailableSlot
// before the primary is consulted, so an unreachable advisor is never paid
// for a task with nothing to choose from.
type ChainSelector struct {
	primary   SlotSelector
	secondary SlotSelector
	logger    zerolog.Logger
}

// NewChainSelector composes a try-then-fallback selector.
func NewChainSelector(primary, secondary SlotSelector, logger zerolog.Logger) *ChainSelector {
	return &ChainSelector{primary: primary, secondary: secondary, logger: logger}
}

func (c *ChainSelector) SelectSlot(ctx context.Context, task Task, candidates map[string][]Gap, prefs Preferences) (Slot, error) {
	if len(candidates) == 0 {
		return Slot{}, ErrNoAvailableSlot
	}

	if c.primary != nil {
		slot, err := c.primary.SelectSlot(ctx, task, candidates, prefs)
		if err == nil {
			return slot, nil
		}
		if !errors.Is(err, ErrAdvisorUnavailable) {
			return Slot{}, err
		}
		telemetry.FallbackSelectionsTotal.Inc()
		c.logger.Warn().Err(err).Str("task_id", task.ID).Msg("advisor path failed, using deterministic fallback")
	}

	return c.secondary.SelectSlot(ctx, task, candidates, prefs)
}
