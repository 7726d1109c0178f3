package pipeline

import (
	"math"

	"StockCast/internal/domain/models"
)

// DefaultZScoreThreshold flags a log-return as a data error when its
// z-score magnitude exceeds this value.
const DefaultZScoreThreshold = 4.0

// minRowsForOutlierCheck: with fewer rows the z-score population is too
// small to call anything an outlier.
const minRowsForOutlierCheck = 30

// Clean repairs a raw bar series into a canonical clean series:
//
//  1. drop rows where every field is NaN
//  2. forward-fill then backward-fill remaining gaps (trading halts)
//  3. drop rows where close is still NaN
//  4. drop rows with non-positive close
//  5. replace close values whose log-return z-score exceeds the threshold
//     with the previous valid close (data error, not a real move)
//  6. clip volume to >= 0 and forward-fill volume gaps
//
// Gap filling must precede outlier detection so NaNs do not distort the
// z-score population. The input is not modified.
func Clean(bars []models.Bar, zThreshold float64) []models.Bar {
	out := make([]models.Bar, 0, len(bars))
	for _, b := range bars {
		if allNaN(b) {
			continue
		}
		out = append(out, b)
	}

	fillColumns(out)

	kept := out[:0]
	for _, b := range out {
		if math.IsNaN(b.Close) || b.Close <= 0 {
			continue
		}
		kept = append(kept, b)
	}
	out = kept

	if len(out) > minRowsForOutlierCheck {
		correctOutliers(out, zThreshold)
	}

	for i := range out {
		if out[i].Volume < 0 {
			out[i].Volume = 0
		}
		if math.IsNaN(out[i].Volume) && i > 0 {
			out[i].Volume = out[i-1].Volume
		}
	}

	return out
}

func allNaN(b models.Bar) bool {
	return math.IsNaN(b.Open) && math.IsNaN(b.High) && math.IsNaN(b.Low) &&
		math.IsNaN(b.Close) && math.IsNaN(b.Volume)
}

// fillColumns forward-fills then backward-fills each OHLCV column
// independently, in place.
func fillColumns(bars []models.Bar) {
	cols := []func(*models.Bar) *float64{
		func(b *models.Bar) *float64 { return &b.Open },
		func(b *models.Bar) *float64 { return &b.High },
		func(b *models.Bar) *float64 { return &b.Low },
		func(b *models.Bar) *float64 { return &b.Close },
		func(b *models.Bar) *float64 { return &b.Volume },
	}
	for _, col := range cols {
		last := math.NaN()
		for i := range bars {
			v := col(&bars[i])
			if math.IsNaN(*v) {
				*v = last
			} else {
				last = *v
			}
		}
		next := math.NaN()
		for i := len(bars) - 1; i >= 0; i-- {
			v := col(&bars[i])
			if math.IsNaN(*v) {
				*v = next
			} else {
				next = *v
			}
		}
	}
}

// correctOutliers replaces flagged closes with the previous valid close,
// in ascending order, so consecutive flagged rows propagate the same
// corrected value. Z-scores are computed once over the original returns.
func correctOutliers(bars []models.Bar, zThreshold float64) {
	n := len(bars)
	rets := make([]float64, n-1)
	for i := 1; i < n; i++ {
		rets[i-1] = math.Log(bars[i].Close / bars[i-1].Close)
	}

	mean, std := meanStd(rets)
	if std == 0 {
		return
	}

	for i := 1; i < n; i++ {
		z := math.Abs((rets[i-1] - mean) / std)
		if z > zThreshold {
			bars[i].Close = bars[i-1].Close
		}
	}
}

// meanStd returns mean and population standard deviation.
func meanStd(v []float64) (float64, float64) {
	if len(v) == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, x := range v {
		sum += x
	}
	mean := sum / float64(len(v))
	ss := 0.0
	for _, x := range v {
		d := x - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / float64(len(v)))
}
