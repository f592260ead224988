package calendar

import (
	"testing"
	"time"
)

func TestMonthKey(t *testing.T) {
	cases := []struct {
		year, month int
		want        string
	}{
		{2024, 1, "2024-01"},
		{2024, 12, "2024-12"},
		{999, 5, "0999-05"},
	}
	for _, tc := range cases {
		if got := MonthKey(tc.year, tc.month); got != tc.want {
			t.Errorf("MonthKey(%d, %d) = %q, want %q", tc.year, tc.month, got, tc.want)
		}
	}
}

func TestMonthKeyFor(t *testing.T) {
	d := time.Date(2024, time.March, 15, 10, 30, 0, 0, time.UTC)
	if got := MonthKeyFor(d); got != "2024-03" {
		t.Errorf("MonthKeyFor = %q, want 2024-03", got)
	}
}

func TestParseMonthKey(t *testing.T) {
	year, month, err := ParseMonthKey("2024-07")
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if year != 2024 || month != 7 {
		t.Fatalf("got %d-%d, want 2024-7", year, month)
	}

	for _, bad := range []string{"", "2024", "2024-13", "2024-00", "24-01", "abcd-ef"} {
		if _, _, err := ParseMonthKey(bad); err == nil {
			t.Errorf("%q expected error", bad)
		}
	}
}

func TestDaysInMonth(t *testing.T) {
	cases := []struct {
		year, month, want int
	}{
		{2024, 1, 31},
		{2024, 2, 29}, // leap year
		{2023, 2, 28},
		{2024, 4, 30},
		{2024, 12, 31},
		{2000, 2, 29}, // divisible by 400
		{1900, 2, 28}, // divisible by 100, not 400
	}
	for _, tc := range cases {
		if got := DaysInMonth(tc.year, tc.month); got != tc.want {
			t.Errorf("DaysInMonth(%d, %d) = %d, want %d", tc.year, tc.month, got, tc.want)
		}
	}
}

func TestFirstWeekday(t *testing.T) {
	// June 2024 starts on a Saturday.
	if got := FirstWeekday(2024, 6); got != 6 {
		t.Errorf("FirstWeekday(2024, 6) = %d, want 6", got)
	}
	// September 2024 starts on a Sunday.
	if got := FirstWeekday(2024, 9); got != 0 {
		t.Errorf("FirstWeekday(2024, 9) = %d, want 0", got)
	}
}

func TestLayout(t *testing.T) {
	// June 2024: Saturday start, 30 days. 6 leading blanks, then 1..30,
	// then 6 trailing blanks to fill the 42-slot grid.
	l := Layout(2024, 6)

	if l.DaysInMonth != 30 {
		t.Fatalf("DaysInMonth = %d, want 30", l.DaysInMonth)
	}
	if l.FirstDayWeekday != 6 {
		t.Fatalf("FirstDayWeekday = %d, want 6", l.FirstDayWeekday)
	}
	if len(l.Cells) != GridSlots {
		t.Fatalf("len(Cells) = %d, want %d", len(l.Cells), GridSlots)
	}

	for i := 0; i < 6; i++ {
		if l.Cells[i] != 0 {
			t.Errorf("Cells[%d] = %d, want empty", i, l.Cells[i])
		}
	}
	for day := 1; day <= 30; day++ {
		if l.Cells[5+day] != day {
			t.Errorf("Cells[%d] = %d, want %d", 5+day, l.Cells[5+day], day)
		}
	}
	for i := 36; i < GridSlots; i++ {
		if l.Cells[i] != 0 {
			t.Errorf("Cells[%d] = %d, want empty", i, l.Cells[i])
		}
	}
}

func TestLayoutFridayStart(t *testing.T) {
	// November 2024: Friday start, 30 days. 5 leading blanks, days at
	// cells 5..34, 7 trailing blanks.
	l := Layout(2024, 11)

	if l.DaysInMonth != 30 {
		t.Fatalf("DaysInMonth = %d, want 30", l.DaysInMonth)
	}
	if l.FirstDayWeekday != 5 {
		t.Fatalf("FirstDayWeekday = %d, want 5", l.FirstDayWeekday)
	}

	for i := 0; i < 5; i++ {
		if l.Cells[i] != 0 {
			t.Errorf("Cells[%d] = %d, want empty", i, l.Cells[i])
		}
	}
	for day := 1; day <= 30; day++ {
		if l.Cells[4+day] != day {
			t.Errorf("Cells[%d] = %d, want %d", 4+day, l.Cells[4+day], day)
		}
	}
	for i := 35; i < GridSlots; i++ {
		if l.Cells[i] != 0 {
			t.Errorf("Cells[%d] = %d, want empty", i, l.Cells[i])
		}
	}
}

func TestLayoutAlwaysFortyTwoCells(t *testing.T) {
	for _, tc := range []struct{ year, month int }{
		{2024, 2},  // leap february, thursday start
		{2026, 2},  // 28 days starting on sunday: exactly 4 weeks
		{2024, 12}, // sunday start, 31 days
		{2025, 3},  // saturday start, 31 days: spills into row 6
	} {
		l := Layout(tc.year, tc.month)
		if len(l.Cells) != GridSlots {
			t.Errorf("Layout(%d, %d): len(Cells) = %d, want %d", tc.year, tc.month, len(l.Cells), GridSlots)
		}
	}
}

func TestClampDay(t *testing.T) {
	cases := []struct {
		day, year, month, want int
	}{
		{31, 2024, 2, 29}, // jan 31 -> leap feb
		{31, 2023, 2, 28},
		{31, 2024, 4, 30},
		{15, 2024, 2, 15}, // within range, untouched
		{0, 2024, 2, 1},   // below range clamps up
		{-3, 2024, 6, 1},
	}
	for _, tc := range cases {
		if got := ClampDay(tc.day, tc.year, tc.month); got != tc.want {
			t.Errorf("ClampDay(%d, %d, %d) = %d, want %d", tc.day, tc.year, tc.month, got, tc.want)
		}
	}
}
