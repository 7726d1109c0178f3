package pipeline

import (
	"fmt"
	"math"
	"sort"
)

// MinMaxScaler maps observed values into [0, 1] and back. Bound to the
// close column so a scaled prediction can be inverted into currency units.
type MinMaxScaler struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Fit records the observed value range.
func (s *MinMaxScaler) Fit(v []float64) {
	s.Min = math.Inf(1)
	s.Max = math.Inf(-1)
	for _, x := range v {
		if math.IsNaN(x) {
			continue
		}
		s.Min = math.Min(s.Min, x)
		s.Max = math.Max(s.Max, x)
	}
}

// Transform maps one value into the fitted range.
func (s *MinMaxScaler) Transform(x float64) float64 {
	span := s.Max - s.Min
	if span == 0 {
		return 0
	}
	return (x - s.Min) / span
}

// Inverse maps a scaled value back to the original units.
func (s *MinMaxScaler) Inverse(x float64) float64 {
	return s.Min + x*(s.Max-s.Min)
}

// RobustScaler centers on the median and scales by the interquartile
// range, so heavy-tailed indicator distributions do not dominate training.
type RobustScaler struct {
	Center float64 `json:"center"`
	Scale  float64 `json:"scale"`
}

// Fit computes median and IQR of the values.
func (s *RobustScaler) Fit(v []float64) {
	clean := make([]float64, 0, len(v))
	for _, x := range v {
		if !math.IsNaN(x) {
			clean = append(clean, x)
		}
	}
	sort.Float64s(clean)
	s.Center = quantile(clean, 0.5)
	iqr := quantile(clean, 0.75) - quantile(clean, 0.25)
	if iqr == 0 {
		iqr = 1
	}
	s.Scale = iqr
}

// Transform maps one value by (x - median) / IQR.
func (s *RobustScaler) Transform(x float64) float64 {
	return (x - s.Center) / s.Scale
}

// quantile interpolates linearly between order statistics of sorted data.
func quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return sorted[0]
	}
	pos := q * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ScalerSet holds the invertible close scaler plus one independent robust
// scaler per indicator column. A set fitted on one symbol must never be
// applied to another symbol's data.
type ScalerSet struct {
	Price    MinMaxScaler            `json:"price"`
	Features map[string]RobustScaler `json:"features"`
}

// NewScalerSet returns an empty, unfitted set.
func NewScalerSet() *ScalerSet {
	return &ScalerSet{Features: make(map[string]RobustScaler)}
}

// FitTransform fits all scalers on the frame and returns the scaled matrix.
// Column 0 is always the scaled close; feature columns follow in the given
// order.
func (s *ScalerSet) FitTransform(f *FeatureFrame, cols []string) ([][]float64, error) {
	s.Price.Fit(f.Close)
	if s.Features == nil {
		s.Features = make(map[string]RobustScaler)
	}
	for _, col := range cols {
		vals, ok := f.Features[col]
		if !ok {
			return nil, fmt.Errorf("fit: column %q not in frame", col)
		}
		var rs RobustScaler
		rs.Fit(vals)
		s.Features[col] = rs
	}
	return s.apply(f, cols)
}

// Transform applies already-fitted scalers. It fails if a required column
// has no fitted scaler, since silently refitting would break train/serve
// parity.
func (s *ScalerSet) Transform(f *FeatureFrame, cols []string) ([][]float64, error) {
	for _, col := range cols {
		if _, ok := s.Features[col]; !ok {
			return nil, fmt.Errorf("transform: no fitted scaler for column %q", col)
		}
	}
	return s.apply(f, cols)
}

func (s *ScalerSet) apply(f *FeatureFrame, cols []string) ([][]float64, error) {
	n := f.Len()
	out := make([][]float64, n)
	for i := 0; i < n; i++ {
		row := make([]float64, 1+len(cols))
		row[0] = s.Price.Transform(f.Close[i])
		for j, col := range cols {
			vals, ok := f.Features[col]
			if !ok {
				return nil, fmt.Errorf("transform: column %q not in frame", col)
			}
			sc := s.Features[col]
			row[1+j] = sc.Transform(vals[i])
		}
		out[i] = row
	}
	return out, nil
}

// FitTransformClose fits only the price scaler and scales the close column
// (legacy close-only mode).
func (s *ScalerSet) FitTransformClose(close []float64) [][]float64 {
	s.Price.Fit(close)
	return s.TransformClose(close)
}

// TransformClose scales a close series with the fitted price scaler.
func (s *ScalerSet) TransformClose(close []float64) [][]float64 {
	out := make([][]float64, len(close))
	for i, c := range close {
		out[i] = []float64{s.Price.Transform(c)}
	}
	return out
}

// InverseClose maps a scaled close prediction back to a price.
func (s *ScalerSet) InverseClose(v float64) float64 {
	return s.Price.Inverse(v)
}
