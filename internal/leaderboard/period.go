// Package leaderboard turns the weekly ranking into seller and team standings.
package leaderboard

import "time"

// ResetHour is the Saturday hour at which a new ranking week starts.
const ResetHour = 22

// Period is the ranking window ending now.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// RankingPeriod returns the window that started at the most recent Saturday 22:00 in loc.
// Before 22:00 on a Saturday the previous Saturday still applies.
func RankingPeriod(now time.Time, loc *time.Location) Period {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), ResetHour, 0, 0, 0, loc)

	if wd := local.Weekday(); wd == time.Saturday {
		if local.Hour() < ResetHour {
			start = start.AddDate(0, 0, -7)
		}
	} else {
		start = start.AddDate(0, 0, -(int(wd) + 1))
	}
	return Period{Start: start, End: now}
}

// WeekOfMonth numbers the ranking week containing now within its month: 1 until the first
// reset of the month, then one more per reset, capped at 5.
func WeekOfMonth(now time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	week := 1
	for day := 1; day <= local.Day(); day++ {
		reset := time.Date(local.Year(), local.Month(), day, ResetHour, 0, 0, 0, loc)
		if reset.Weekday() == time.Saturday && !reset.After(local) {
			week++
		}
	}
	if week > 5 {
		week = 5
	}
	return week
}
