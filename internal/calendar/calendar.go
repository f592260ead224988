// Package calendar derives month keys and calendar grid layouts.
//
// The YYYY-MM month key is the one contract every collaborator must agree
// on verbatim: it names the month partition a record belongs to.
package calendar

import (
	"fmt"
	"time"
)

// GridSlots is the fixed size of a 6-row by 7-column month grid.
const GridSlots = 42

// MonthKey returns the canonical "YYYY-MM" key for a year and 1-indexed
// month, zero-padded.
func MonthKey(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

// MonthKeyFor returns the month key of the given date.
func MonthKeyFor(t time.Time) string {
	return MonthKey(t.Year(), int(t.Month()))
}

// ParseMonthKey splits a "YYYY-MM" key back into year and month.
func ParseMonthKey(key string) (year, month int, err error) {
	if len(key) != 7 {
		return 0, 0, fmt.Errorf("parse month key %q: want YYYY-MM", key)
	}
	if _, err := fmt.Sscanf(key, "%4d-%2d", &year, &month); err != nil {
		return 0, 0, fmt.Errorf("parse month key %q: %w", key, err)
	}
	if month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("parse month key %q: month out of range", key)
	}
	return year, month, nil
}

// DaysInMonth returns the day count of the month, leap years included.
// Day 0 of the following month is the last day of this one.
func DaysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// FirstWeekday returns the zero-based weekday of the 1st of the month,
// 0 = Sunday.
func FirstWeekday(year, month int) int {
	return int(time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).Weekday())
}

// MonthLayout is the grid layout of one month. Cells holds GridSlots
// entries: 0 marks an empty slot, any other value is the 1-indexed day,
// left-aligned starting at FirstDayWeekday.
type MonthLayout struct {
	Year            int   `json:"year"`
	Month           int   `json:"month"`
	DaysInMonth     int   `json:"days_in_month"`
	FirstDayWeekday int   `json:"first_day_weekday"`
	Cells           []int `json:"cells"`
}

// Layout computes the 6x7 grid for the month.
func Layout(year, month int) MonthLayout {
	l := MonthLayout{
		Year:            year,
		Month:           month,
		DaysInMonth:     DaysInMonth(year, month),
		FirstDayWeekday: FirstWeekday(year, month),
		Cells:           make([]int, GridSlots),
	}
	for i := range l.Cells {
		day := i - l.FirstDayWeekday + 1
		if day >= 1 && day <= l.DaysInMonth {
			l.Cells[i] = day
		}
	}
	return l
}

// ClampDay restores the selected-day invariant after a month change: a day
// beyond the new month's last valid day clamps down to it. Days below 1
// clamp up to 1.
func ClampDay(day, year, month int) int {
	if day < 1 {
		return 1
	}
	if max := DaysInMonth(year, month); day > max {
		return max
	}
	return day
}
