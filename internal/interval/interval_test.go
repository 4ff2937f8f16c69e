/*
Copyright (C) 2026 Dayblock Labs

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package interval

import "testing"

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "00:00", want: 0},
		{in: "09:00", want: 540},
		{in: "23:59", want: 1439},
		{in: " 14:30 ", want: 870},
		{in: "24:00", want: MinutesPerDay},
		{in: "24:01", wantErr: true},
		{in: "25:00", wantErr: true},
		{in: "09:60", wantErr: true},
		{in: "0900", wantErr: true},
		{in: "nine", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseClock(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseClock(%q) expected error, got %d", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseClock(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseClock(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestFormatClock(t *testing.T) {
	if got := FormatClock(540); got != "09:00" {
		t.Errorf("FormatClock(540) = %q, want 09:00", got)
	}
	if got := FormatClock(1439); got != "23:59" {
		t.Errorf("FormatClock(1439) = %q, want 23:59", got)
	}
	// Padded intervals can spill past the day edges; rendering clamps.
	if got := FormatClock(-15); got != "00:00" {
		t.Errorf("FormatClock(-15) = %q, want 00:00", got)
	}
}

// An event that ends flush against midnight is stored as "24:00" and must
// parse back to the same minute, or the stored boundary is lost on reload.
func TestEndOfDayRoundTrip(t *testing.T) {
	clock := FormatClock(MinutesPerDay)
	if clock != "24:00" {
		t.Fatalf("FormatClock(%d) = %q, want 24:00", MinutesPerDay, clock)
	}
	got, err := ParseClock(clock)
	if err != nil {
		t.Fatalf("ParseClock(%q) unexpected error: %v", clock, err)
	}
	if got != MinutesPerDay {
		t.Errorf("ParseClock(%q) = %d, want %d", clock, got, MinutesPerDay)
	}
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Interval
		want bool
	}{
		{name: "disjoint", a: New(540, 600), b: New(660, 720), want: false},
		{name: "back to back do not overlap", a: New(540, 600), b: New(600, 660), want: false},
		{name: "partial overlap", a: New(540, 630), b: New(600, 660), want: true},
		{name: "contained", a: New(540, 720), b: New(600, 660), want: true},
		{name: "identical", a: New(540, 600), b: New(540, 600), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Overlaps(tt.b); got != tt.want {
				t.Errorf("Overlaps = %v, want %v", got, tt.want)
			}
			// Overlap is symmetric.
			if got := tt.b.Overlaps(tt.a); got != tt.want {
				t.Errorf("reverse Overlaps = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPadAndClip(t *testing.T) {
	busy := New(600, 660).Pad(15)
	if busy.Start != 585 || busy.End != 675 {
		t.Fatalf("Pad(15) = %v", busy)
	}

	clipped := New(500, 1200).Clip(New(540, 1080))
	if clipped.Start != 540 || clipped.End != 1080 {
		t.Fatalf("Clip = %v", clipped)
	}
}

func TestContains(t *testing.T) {
	gap := New(540, 630)
	if !gap.Contains(540, 90) {
		t.Error("expected exact fit to be contained")
	}
	if !gap.Contains(570, 30) {
		t.Error("expected interior fit to be contained")
	}
	if gap.Contains(600, 60) {
		t.Error("expected overflow past gap end to be rejected")
	}
	if gap.Contains(510, 30) {
		t.Error("expected start before gap to be rejected")
	}
}

func TestDuration(t *testing.T) {
	if got := New(540, 630).Duration(); got != 90 {
		t.Errorf("Duration = %d, want 90", got)
	}
	if got := New(630, 540).Duration(); got != 0 {
		t.Errorf("inverted Duration = %d, want 0", got)
	}
}
