// Package cache provides the byte-oriented TTL caches used in front of
// prediction and history lookups.
package cache

import (
	"fmt"
	"strings"
)

// PredictionKey builds the cache key for a served prediction.
func PredictionKey(symbol string, inputDays int, algorithm string) string {
	return fmt.Sprintf("predict:%s:%d:%s", strings.ToUpper(symbol), inputDays, algorithm)
}

// HistoryKey builds the cache key for a history lookup.
func HistoryKey(symbol string, days int) string {
	return fmt.Sprintf("history:%s:%d", strings.ToUpper(symbol), days)
}
