package algo

import (
	"fmt"
	"math"
	"time"
)

const (
	weeklyOrder = 3
	yearlyOrder = 5

	secondsPerDay = 86400.0
	daysPerWeek   = 7.0
	daysPerYear   = 365.25
)

// SeasonalModel decomposes a series into linear trend plus weekly and
// yearly Fourier seasonality on calendar time. Persisted as JSON.
type SeasonalModel struct {
	Epoch     int64     `json:"epoch"` // unix seconds of the first observation
	Intercept float64   `json:"intercept"`
	Slope     float64   `json:"slope"` // per day
	Weekly    []float64 `json:"weekly"`
	Yearly    []float64 `json:"yearly"`
	LastDay   float64   `json:"last_day"` // days since epoch of the final observation
}

// FitSeasonal fits trend and seasonality by least squares over the
// timestamped close series.
func FitSeasonal(ts []time.Time, y []float64) (*SeasonalModel, error) {
	if len(ts) != len(y) {
		return nil, fmt.Errorf("seasonal fit: %d timestamps but %d values", len(ts), len(y))
	}
	k := 2 + 2*weeklyOrder + 2*yearlyOrder
	if len(y) < k+2 {
		return nil, fmt.Errorf("seasonal fit: %d observations, need > %d", len(y), k+1)
	}

	epoch := ts[0].Unix()
	X := make([][]float64, len(y))
	for i, t := range ts {
		day := float64(t.Unix()-epoch) / secondsPerDay
		X[i] = seasonalRow(day)
	}
	beta, err := olsSolve(X, y)
	if err != nil {
		return nil, fmt.Errorf("seasonal fit: %w", err)
	}

	m := &SeasonalModel{
		Epoch:     epoch,
		Intercept: beta[0],
		Slope:     beta[1],
		Weekly:    beta[2 : 2+2*weeklyOrder],
		Yearly:    beta[2+2*weeklyOrder:],
		LastDay:   float64(ts[len(ts)-1].Unix()-epoch) / secondsPerDay,
	}
	return m, nil
}

// ForecastNext evaluates the model one day after the final observation.
func (m *SeasonalModel) ForecastNext() float64 {
	return m.At(m.LastDay + 1)
}

// At evaluates the model at the given day offset from the epoch.
func (m *SeasonalModel) At(day float64) float64 {
	row := seasonalRow(day)
	out := m.Intercept*row[0] + m.Slope*row[1]
	pos := 2
	for _, c := range m.Weekly {
		out += c * row[pos]
		pos++
	}
	for _, c := range m.Yearly {
		out += c * row[pos]
		pos++
	}
	return out
}

// seasonalRow builds one design-matrix row: intercept, trend, then
// sin/cos harmonics for the weekly and yearly periods.
func seasonalRow(day float64) []float64 {
	row := make([]float64, 0, 2+2*weeklyOrder+2*yearlyOrder)
	row = append(row, 1, day)
	for h := 1; h <= weeklyOrder; h++ {
		arg := 2 * math.Pi * float64(h) * day / daysPerWeek
		row = append(row, math.Sin(arg), math.Cos(arg))
	}
	for h := 1; h <= yearlyOrder; h++ {
		arg := 2 * math.Pi * float64(h) * day / daysPerYear
		row = append(row, math.Sin(arg), math.Cos(arg))
	}
	return row
}
