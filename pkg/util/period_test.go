package util

import "testing"

func TestPeriodDays(t *testing.T) {
	cases := map[string]int{
		"60d":  60,
		"2wk":  14,
		"6mo":  180,
		"5y":   1825,
		"1Y":   365,
		" 30d": 30,
		"max":  18250,
	}
	for period, want := range cases {
		got, err := PeriodDays(period)
		if err != nil {
			t.Fatalf("PeriodDays(%q): %v", period, err)
		}
		if got != want {
			t.Fatalf("PeriodDays(%q) = %d, want %d", period, got, want)
		}
	}
}

func TestPeriodDaysInvalid(t *testing.T) {
	for _, period := range []string{"", "abc", "-5d", "0y", "d"} {
		if _, err := PeriodDays(period); err == nil {
			t.Fatalf("PeriodDays(%q) should fail", period)
		}
	}
}

func TestDaysPeriod(t *testing.T) {
	if got := DaysPeriod(90); got != "90d" {
		t.Fatalf("expected 90d, got %s", got)
	}
	if got := DaysPeriod(0); got != "1d" {
		t.Fatalf("expected 1d for non-positive input, got %s", got)
	}
}

func TestParseIntDefault(t *testing.T) {
	if got := ParseIntDefault("15", 5); got != 15 {
		t.Fatalf("expected 15, got %d", got)
	}
	if got := ParseIntDefault("", 5); got != 5 {
		t.Fatalf("expected default, got %d", got)
	}
	if got := ParseIntDefault("oops", 5); got != 5 {
		t.Fatalf("expected default, got %d", got)
	}
}
