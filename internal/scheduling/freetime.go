/*
Copyright (C) 2026 Dayblock Labs

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package scheduling

import (
	"sort"

	"github.com/dayblock/dayblock/internal/interval"
)

// MinGapMinutes is the smallest opening the finder will report. Anything
// shorter is unusable for real work.
const MinGapMinutes = 30

// FindFreeGaps computes the chronologically ordered free openings of a
// single day. Every busy event is padded by the buffer on both ends, so no
// reported gap starts or ends within BufferMinutes of a commitment. Padded
// ranges are clipped to working hours before the sweep.
//
// Overlapping and back-to-back busy blocks merge implicitly: the sweep
// cursor only ever moves forward, so a block starting before the cursor
// extends the current busy run instead of opening a zero-length gap.
func FindFreeGaps(busy []BusyEvent, prefs Preferences) []Gap {
	window := prefs.WorkWindow()

	padded := make([]interval.Interval, 0, len(busy))
	for _, ev := range busy {
		iv := ev.Interval().Pad(prefs.BufferMinutes).Clip(window)
		if iv.Duration() == 0 && !iv.Overlaps(window) {
			continue
		}
		padded = append(padded, iv)
	}
	sort.Slice(padded, func(i, j int) bool {
		return padded[i].Start < padded[j].Start
	})

	var gaps []Gap
	cursor := window.Start
	for _, iv := range padded {
		if iv.Start > cursor {
			if d := iv.Start - cursor; d >= MinGapMinutes {
				gaps = append(gaps, Gap{Start: cursor, End: iv.Start, Minutes: d})
			}
		}
		if iv.End > cursor {
			cursor = iv.End
		}
	}

	if cursor < window.End {
		if d := window.End - cursor; d >= MinGapMinutes {
			gaps = append(gaps, Gap{Start: cursor, End: window.End, Minutes: d})
		}
	}

	return gaps
}
