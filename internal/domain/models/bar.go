package models

import "time"

// Bar is one OHLCV bar. Missing fields are NaN; timestamps are unique and
// ascending within a series.
type Bar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// ClosePoint is one (timestamp, close) observation.
type ClosePoint struct {
	Time  time.Time `json:"time"`
	Close float64   `json:"close"`
}
