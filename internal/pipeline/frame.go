package pipeline

import (
	"math"
	"time"

	"StockCast/internal/domain/models"
)

// Canonical indicator column order. This order is a train/serve contract:
// it is persisted with every artifact bundle and must never be reordered.
var featureCols = []string{
	"log_return",
	"sma_5", "sma_20", "sma_50",
	"ema_12", "ema_26",
	"macd", "macd_signal", "macd_hist",
	"rsi_14",
	"bb_pct",
	"atr_14",
	"volume_ratio",
	"momentum_1", "momentum_5", "momentum_10",
}

// FeatureCols returns the canonical indicator column order.
func FeatureCols() []string {
	out := make([]string, len(featureCols))
	copy(out, featureCols)
	return out
}

// FeatureFrame is a close series augmented with named indicator columns.
// All slices share the same length and row order; NaN marks undefined.
type FeatureFrame struct {
	Timestamps []time.Time
	Close      []float64
	Columns    []string
	Features   map[string][]float64
}

// Len returns the number of rows.
func (f *FeatureFrame) Len() int { return len(f.Close) }

// FrameFromBars builds a close-only frame from bars.
func FrameFromBars(bars []models.Bar) *FeatureFrame {
	f := &FeatureFrame{
		Timestamps: make([]time.Time, len(bars)),
		Close:      make([]float64, len(bars)),
		Features:   make(map[string][]float64),
	}
	for i, b := range bars {
		f.Timestamps[i] = b.Time
		f.Close[i] = b.Close
	}
	return f
}

// SelectColumns returns the subset of wanted columns present in the frame,
// preserving the wanted order.
func (f *FeatureFrame) SelectColumns(wanted []string) []string {
	out := make([]string, 0, len(wanted))
	for _, col := range wanted {
		if _, ok := f.Features[col]; ok {
			out = append(out, col)
		}
	}
	return out
}

// DropUndefined removes every row where close or any of the given columns
// is NaN (the warm-up window of rolling indicators).
func (f *FeatureFrame) DropUndefined(cols []string) {
	keep := make([]int, 0, f.Len())
rows:
	for i := 0; i < f.Len(); i++ {
		if math.IsNaN(f.Close[i]) {
			continue
		}
		for _, col := range cols {
			if math.IsNaN(f.Features[col][i]) {
				continue rows
			}
		}
		keep = append(keep, i)
	}
	if len(keep) == f.Len() {
		return
	}

	ts := make([]time.Time, len(keep))
	cl := make([]float64, len(keep))
	for j, i := range keep {
		ts[j] = f.Timestamps[i]
		cl[j] = f.Close[i]
	}
	for name, vals := range f.Features {
		nv := make([]float64, len(keep))
		for j, i := range keep {
			nv[j] = vals[i]
		}
		f.Features[name] = nv
	}
	f.Timestamps = ts
	f.Close = cl
}

// Tail returns a copy of the last n rows (or the whole frame if shorter).
func (f *FeatureFrame) Tail(n int) *FeatureFrame {
	if n >= f.Len() {
		n = f.Len()
	}
	start := f.Len() - n
	out := &FeatureFrame{
		Timestamps: append([]time.Time(nil), f.Timestamps[start:]...),
		Close:      append([]float64(nil), f.Close[start:]...),
		Columns:    append([]string(nil), f.Columns...),
		Features:   make(map[string][]float64, len(f.Features)),
	}
	for name, vals := range f.Features {
		out.Features[name] = append([]float64(nil), vals[start:]...)
	}
	return out
}
