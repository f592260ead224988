package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"1234.56", 123456, true},
		{"-1", 0, false},
		{"0", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestCoerceDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
	}{
		{"1", 100},
		{"1.23", 123},
		{"1,23", 123},
		{"-5", -500},
		{"-0.50", -50},
		{"0", 0},
		{"abc", 0}, // non-numeric coerces to zero
		{"", 0},
		{"1.2.3", 0},
	}
	for _, tc := range cases {
		if got := CoerceDecimalToCents(tc.in); got != tc.out {
			t.Fatalf("%q expected %d, got %d", tc.in, tc.out, got)
		}
	}
}

func TestMoneyUnits(t *testing.T) {
	if got := (Money{Cents: 123456}).Units(); got != 1234.56 {
		t.Fatalf("expected 1234.56, got %v", got)
	}
	if got := (Money{Cents: -50}).Units(); got != -0.5 {
		t.Fatalf("expected -0.5, got %v", got)
	}
}
