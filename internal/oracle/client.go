/*
Copyright (C) 2026 Dayblock Labs

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package oracle implements the decision advisor transport: an
// OpenAI-compatible chat completion endpoint asked to pick one slot out of
// the candidate set. The scheduling engine treats every answer as untrusted
// and re-validates it, so this package only has to deliver a parsed
// suggestion or an error.
package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/dayblock/dayblock/internal/interval"
	"github.com/dayblock/dayblock/internal/scheduling"
)

// ErrNoJSON indicates the model reply contained no JSON object.
var ErrNoJSON = errors.New("no JSON object in advisor reply")

// Config selects the model endpoint.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Client is a scheduling.Advisor backed by a chat completion model.
type Client struct {
	llm    llms.Model
	logger zerolog.Logger
}

// New constructs the advisor client. The endpoint must speak the OpenAI
// chat completion protocol; the JSON response format is requested so the
// model is steered toward machine-readable output.
func New(cfg Config, logger zerolog.Logger) (*Client, error) {
	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Model),
		openai.WithResponseFormat(&openai.ResponseFormat{Type: "json_object"}),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create advisor client: %w", err)
	}

	return &Client{llm: llm, logger: logger}, nil
}

// Suggest asks the model for one slot. The caller bounds the context with
// its own timeout; a single call is made per task.
func (c *Client) Suggest(ctx context.Context, req scheduling.SuggestionRequest) (scheduling.Suggestion, error) {
	prompt := buildPrompt(req)

	reply, err := llms.GenerateFromSinglePrompt(ctx, c.llm, prompt,
		llms.WithTemperature(0.2),
		llms.WithMaxTokens(300),
	)
	if err != nil {
		return scheduling.Suggestion{}, fmt.Errorf("advisor call: %w", err)
	}

	suggestion, err := parseSuggestion(reply)
	if err != nil {
		c.logger.Debug().Str("reply", reply).Msg("unparseable advisor reply")
		return scheduling.Suggestion{}, err
	}
	return suggestion, nil
}

// buildPrompt serializes the task, the candidate gaps per day, and the
// active preferences into one decision request.
func buildPrompt(req scheduling.SuggestionRequest) string {
	var b strings.Builder

	b.WriteString("You are a scheduling assistant. Pick the single best time slot for this task.\n\n")

	b.WriteString("TASK:\n")
	fmt.Fprintf(&b, "- Title: %s\n", req.Task.Title)
	fmt.Fprintf(&b, "- Duration: %d minutes\n", req.Task.EstimatedMinutes)
	fmt.Fprintf(&b, "- Priority: %s\n", req.Task.Priority)
	if req.Task.DueDate != nil {
		fmt.Fprintf(&b, "- Must be finished before: %s\n", req.Task.DueDate.Format(scheduling.DayFormat))
	} else {
		b.WriteString("- No deadline\n")
	}

	b.WriteString("\nAVAILABLE SLOTS (by date):\n")
	dates := make([]string, 0, len(req.Candidates))
	for date := range req.Candidates {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	for _, date := range dates {
		fmt.Fprintf(&b, "%s:\n", date)
		for _, gap := range req.Candidates[date] {
			start, end := gap.Interval().Clock()
			fmt.Fprintf(&b, "  - %s to %s (%d min available)\n", start, end, gap.Minutes)
		}
	}

	prefs := req.Preferences
	b.WriteString("\nPREFERENCES:\n")
	fmt.Fprintf(&b, "- Work hours: %02d:00-%02d:00\n", prefs.WorkHoursStart, prefs.WorkHoursEnd)
	fmt.Fprintf(&b, "- Buffer between commitments: %d minutes\n", prefs.BufferMinutes)
	fmt.Fprintf(&b, "- At most %d hours of scheduled work per day\n", prefs.MaxHoursPerDay)
	fmt.Fprintf(&b, "- Prefer mornings for high-priority work: %t\n", prefs.PreferMorningForHard)

	b.WriteString(`
Rules:
1. Schedule higher-priority tasks sooner, in the morning when preferred.
2. Do not overload any single day past the daily limit.
3. The slot must start inside one of the listed openings and the full duration must fit before the opening ends.

Respond with ONLY a JSON object:
{"date": "YYYY-MM-DD", "time": "HH:MM", "reasoning": "one short sentence"}`)

	return b.String()
}

// parseSuggestion extracts the first JSON object from the reply and decodes
// it. Models occasionally wrap the object in prose or code fences.
func parseSuggestion(reply string) (scheduling.Suggestion, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return scheduling.Suggestion{}, ErrNoJSON
	}

	var suggestion scheduling.Suggestion
	if err := json.Unmarshal([]byte(reply[start:end+1]), &suggestion); err != nil {
		return scheduling.Suggestion{}, fmt.Errorf("decode advisor reply: %w", err)
	}
	if suggestion.Date == "" || suggestion.Time == "" {
		return scheduling.Suggestion{}, fmt.Errorf("advisor reply missing date or time")
	}
	if _, err := interval.ParseClock(suggestion.Time); err != nil {
		return scheduling.Suggestion{}, fmt.Errorf("advisor reply time: %w", err)
	}
	return suggestion, nil
}
