package leaderboard

import (
	"testing"
	"time"
)

func TestRankingPeriod(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	cases := []struct {
		name      string
		now       time.Time
		wantStart time.Time
	}{
		{"tuesday", time.Date(2026, 1, 27, 12, 0, 0, 0, loc), time.Date(2026, 1, 24, 22, 0, 0, 0, loc)},
		{"saturday before reset", time.Date(2026, 1, 24, 21, 0, 0, 0, loc), time.Date(2026, 1, 17, 22, 0, 0, 0, loc)},
		{"saturday after reset", time.Date(2026, 1, 24, 23, 0, 0, 0, loc), time.Date(2026, 1, 24, 22, 0, 0, 0, loc)},
		{"saturday at reset", time.Date(2026, 1, 24, 22, 0, 0, 0, loc), time.Date(2026, 1, 24, 22, 0, 0, 0, loc)},
		{"sunday", time.Date(2026, 1, 25, 9, 0, 0, 0, loc), time.Date(2026, 1, 24, 22, 0, 0, 0, loc)},
		{"friday", time.Date(2026, 1, 30, 23, 59, 0, 0, loc), time.Date(2026, 1, 24, 22, 0, 0, 0, loc)},
		{"utc input", time.Date(2026, 1, 25, 2, 30, 0, 0, time.UTC), time.Date(2026, 1, 17, 22, 0, 0, 0, loc)},
	}
	for _, tc := range cases {
		p := RankingPeriod(tc.now, loc)
		if !p.Start.Equal(tc.wantStart) {
			t.Fatalf("%s: start = %s, want %s", tc.name, p.Start, tc.wantStart)
		}
		if !p.End.Equal(tc.now) {
			t.Fatalf("%s: end should be now", tc.name)
		}
	}
}

func TestWeekOfMonth(t *testing.T) {
	// January 2026 Saturdays: 3, 10, 17, 24, 31.
	cases := []struct {
		now  time.Time
		want int
	}{
		{time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC), 1},
		{time.Date(2026, 1, 3, 21, 59, 0, 0, time.UTC), 1},
		{time.Date(2026, 1, 3, 22, 0, 0, 0, time.UTC), 2},
		{time.Date(2026, 1, 12, 8, 0, 0, 0, time.UTC), 3},
		{time.Date(2026, 1, 27, 8, 0, 0, 0, time.UTC), 5},
		{time.Date(2026, 1, 31, 23, 0, 0, 0, time.UTC), 5},
	}
	for _, tc := range cases {
		if got := WeekOfMonth(tc.now, time.UTC); got != tc.want {
			t.Fatalf("WeekOfMonth(%s) = %d, want %d", tc.now, got, tc.want)
		}
	}
}
