package util

import (
	"fmt"
	"strconv"
	"strings"
)

// PeriodDays converts a lookback period string ("60d", "6mo", "5y", "max")
// into an approximate number of calendar days. Returns an error for
// unrecognized formats.
func PeriodDays(period string) (int, error) {
	p := strings.ToLower(strings.TrimSpace(period))
	if p == "" {
		return 0, fmt.Errorf("empty period")
	}
	if p == "max" {
		return 365 * 50, nil
	}

	var mult int
	var suffix string
	switch {
	case strings.HasSuffix(p, "mo"):
		mult, suffix = 30, "mo"
	case strings.HasSuffix(p, "d"):
		mult, suffix = 1, "d"
	case strings.HasSuffix(p, "wk"):
		mult, suffix = 7, "wk"
	case strings.HasSuffix(p, "y"):
		mult, suffix = 365, "y"
	default:
		return 0, fmt.Errorf("unrecognized period %q", period)
	}

	n, err := strconv.Atoi(strings.TrimSuffix(p, suffix))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("unrecognized period %q", period)
	}
	return n * mult, nil
}

// DaysPeriod renders a day count as a period string accepted by the
// market data provider.
func DaysPeriod(days int) string {
	if days <= 0 {
		days = 1
	}
	return fmt.Sprintf("%dd", days)
}

// ParseIntDefault parses string to int or returns default if empty/invalid.
func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
