/*
Copyright (C) 2026 Dayblock Labs

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package interval provides minute-of-day arithmetic for the scheduling
// engine. All times are integer minutes from midnight so gap math never
// round-trips through clock strings.
package interval

import (
	"fmt"
	"strconv"
	"strings"
)

// MinutesPerDay bounds any minute-of-day value.
const MinutesPerDay = 24 * 60

// Interval is a half-open range [Start, End) in minutes from midnight.
type Interval struct {
	Start int
	End   int
}

// New constructs an interval. Callers are expected to pass Start <= End;
// degenerate inputs are preserved and report a zero duration.
func New(start, end int) Interval {
	return Interval{Start: start, End: end}
}

// FromClock parses "HH:MM"-formatted start and end times.
func FromClock(start, end string) (Interval, error) {
	s, err := ParseClock(start)
	if err != nil {
		return Interval{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return Interval{}, err
	}
	return Interval{Start: s, End: e}, nil
}

// Duration returns the interval length in minutes, never negative.
func (iv Interval) Duration() int {
	if iv.End <= iv.Start {
		return 0
	}
	return iv.End - iv.Start
}

// Overlaps reports whether two half-open intervals share any minute.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start < other.End && other.Start < iv.End
}

// Contains reports whether [start, start+duration) fits entirely inside iv.
func (iv Interval) Contains(start, duration int) bool {
	return start >= iv.Start && start+duration <= iv.End
}

// Pad widens the interval by the given number of minutes on both ends.
func (iv Interval) Pad(minutes int) Interval {
	return Interval{Start: iv.Start - minutes, End: iv.End + minutes}
}

// Clip constrains the interval to the given bounds.
func (iv Interval) Clip(bounds Interval) Interval {
	out := iv
	if out.Start < bounds.Start {
		out.Start = bounds.Start
	}
	if out.End > bounds.End {
		out.End = bounds.End
	}
	return out
}

// Clock renders the interval as a pair of "HH:MM" strings.
func (iv Interval) Clock() (string, string) {
	return FormatClock(iv.Start), FormatClock(iv.End)
}

func (iv Interval) String() string {
	return fmt.Sprintf("%s-%s", FormatClock(iv.Start), FormatClock(iv.End))
}

// ParseClock converts an "HH:MM" string to minutes from midnight. "24:00" is
// accepted as the exclusive end of day so stored event boundaries round-trip
// through FormatClock.
func ParseClock(value string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(value), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock time %q", value)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q", value)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q", value)
	}
	if hours == 24 && minutes == 0 {
		return MinutesPerDay, nil
	}
	if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("clock time %q out of range", value)
	}
	return hours*60 + minutes, nil
}

// FormatClock converts minutes from midnight to "HH:MM". Values outside the
// day are clamped so padded intervals still render.
func FormatClock(minute int) string {
	if minute < 0 {
		minute = 0
	}
	if minute > MinutesPerDay {
		minute = MinutesPerDay
	}
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}
