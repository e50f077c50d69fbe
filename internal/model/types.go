// Package model defines shared data structures.
package model

import "time"

// DaysPerWeek is the length of one ritual cycle and the number of indicator positions.
const DaysPerWeek = 7

// Day is one program day of the ritual.
type Day struct {
	Date     string  `json:"date"`
	WeekNum  int     `json:"week_num"`
	DayNum   int     `json:"day_num"`
	Done     bool    `json:"done"`
	File     string  `json:"file,omitempty"`
	Sessions []int64 `json:"sessions"`
}

// NewDay returns a fresh, unfinished day created on the given date.
func NewDay(now time.Time, weekNum, dayNum int) Day {
	return Day{
		Date:     now.Format("2006-01-02"),
		WeekNum:  weekNum,
		DayNum:   dayNum,
		Sessions: []int64{},
	}
}

// Session is one meditation attempt within a day.
type Session struct {
	StartedAt time.Time `json:"started_at"`
	// Duration is nil while the session is running.
	Duration *float64 `json:"duration"`
	Done     bool     `json:"done"`
}

// Config defines tracker and device settings.
type Config struct {
	Completion         time.Duration
	PollInterval       time.Duration
	PulsePeriod        time.Duration
	SessionPulsePeriod time.Duration
	Rollover           string
	SweepCycles        int
	AssetsDir          string
	Player             string
	Fade               time.Duration
}

// Slot maps a 1-indexed day position to a zero-based slot using (n mod 8) - 1.
// The result -1 (n = 0 or 8 mod 8) wraps to the last slot.
func Slot(n int) int {
	idx := ((n%8)+8)%8 - 1
	if idx < 0 {
		idx += DaysPerWeek
	}
	return idx
}
