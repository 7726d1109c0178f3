package pipeline

import (
	"math"

	"StockCast/internal/domain/models"
)

// BuildFeatures computes the technical indicator set for a clean series and
// returns a frame with columns in canonical order. Indicators whose inputs
// are absent from the series (high/low for ATR, volume for the volume
// ratio) are omitted rather than emitted as all-NaN columns. Warm-up rows
// keep their NaN values; callers drop them with DropUndefined.
func BuildFeatures(bars []models.Bar) *FeatureFrame {
	f := FrameFromBars(bars)
	n := f.Len()
	if n == 0 {
		return f
	}
	c := f.Close

	// 1-period log return
	logRet := nanSlice(n)
	for i := 1; i < n; i++ {
		logRet[i] = math.Log(c[i] / c[i-1])
	}
	f.Features["log_return"] = logRet

	f.Features["sma_5"] = rollingMean(c, 5)
	f.Features["sma_20"] = rollingMean(c, 20)
	f.Features["sma_50"] = rollingMean(c, 50)

	ema12 := ema(c, 12)
	ema26 := ema(c, 26)
	f.Features["ema_12"] = ema12
	f.Features["ema_26"] = ema26

	macd := make([]float64, n)
	for i := range macd {
		macd[i] = ema12[i] - ema26[i]
	}
	signal := ema(macd, 9)
	hist := make([]float64, n)
	for i := range hist {
		hist[i] = macd[i] - signal[i]
	}
	f.Features["macd"] = macd
	f.Features["macd_signal"] = signal
	f.Features["macd_hist"] = hist

	f.Features["rsi_14"] = rsi(c, 14)
	f.Features["bb_pct"] = bollingerPct(c, 20, 2.0)

	if columnPresent(bars, func(b models.Bar) float64 { return b.High }) &&
		columnPresent(bars, func(b models.Bar) float64 { return b.Low }) {
		f.Features["atr_14"] = atr(bars, 14)
	}

	if columnPresent(bars, func(b models.Bar) float64 { return b.Volume }) {
		f.Features["volume_ratio"] = volumeRatio(bars, 20)
	}

	f.Features["momentum_1"] = pctChange(c, 1)
	f.Features["momentum_5"] = pctChange(c, 5)
	f.Features["momentum_10"] = pctChange(c, 10)

	f.Columns = f.SelectColumns(featureCols)
	return f
}

func nanSlice(n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = math.NaN()
	}
	return v
}

func columnPresent(bars []models.Bar, get func(models.Bar) float64) bool {
	for _, b := range bars {
		if !math.IsNaN(get(b)) {
			return true
		}
	}
	return false
}

// rollingMean is a trailing window mean; the first w-1 values are NaN and
// any NaN inside the window propagates.
func rollingMean(v []float64, w int) []float64 {
	out := nanSlice(len(v))
	for i := w - 1; i < len(v); i++ {
		sum := 0.0
		ok := true
		for j := i - w + 1; j <= i; j++ {
			if math.IsNaN(v[j]) {
				ok = false
				break
			}
			sum += v[j]
		}
		if ok {
			out[i] = sum / float64(w)
		}
	}
	return out
}

// rollingStd is a trailing window sample standard deviation (ddof=1).
func rollingStd(v []float64, w int) []float64 {
	out := nanSlice(len(v))
	for i := w - 1; i < len(v); i++ {
		sum := 0.0
		ok := true
		for j := i - w + 1; j <= i; j++ {
			if math.IsNaN(v[j]) {
				ok = false
				break
			}
			sum += v[j]
		}
		if !ok {
			continue
		}
		mean := sum / float64(w)
		ss := 0.0
		for j := i - w + 1; j <= i; j++ {
			d := v[j] - mean
			ss += d * d
		}
		out[i] = math.Sqrt(ss / float64(w-1))
	}
	return out
}

// ema is an exponentially weighted mean with alpha = 2/(span+1), seeded
// from the first value (adjust=false semantics).
func ema(v []float64, span int) []float64 {
	out := make([]float64, len(v))
	if len(v) == 0 {
		return out
	}
	alpha := 2.0 / (float64(span) + 1.0)
	out[0] = v[0]
	for i := 1; i < len(v); i++ {
		out[i] = alpha*v[i] + (1-alpha)*out[i-1]
	}
	return out
}

// rsi maps the gain/loss ratio through 100 - 100/(1+RS). When the average
// loss over the window is zero, RS is undefined and NaN is propagated
// rather than clamping to 100.
func rsi(c []float64, w int) []float64 {
	n := len(c)
	gains := nanSlice(n)
	losses := nanSlice(n)
	for i := 1; i < n; i++ {
		d := c[i] - c[i-1]
		gains[i] = math.Max(d, 0)
		losses[i] = math.Max(-d, 0)
	}
	avgGain := rollingMean(gains, w)
	avgLoss := rollingMean(losses, w)

	out := nanSlice(n)
	for i := 0; i < n; i++ {
		if math.IsNaN(avgGain[i]) || math.IsNaN(avgLoss[i]) || avgLoss[i] == 0 {
			continue
		}
		rs := avgGain[i] / avgLoss[i]
		out[i] = 100.0 - 100.0/(1.0+rs)
	}
	return out
}

// bollingerPct is %B: position of the close within mean +/- k sigma bands.
// Undefined when the band width is zero.
func bollingerPct(c []float64, w int, k float64) []float64 {
	mid := rollingMean(c, w)
	std := rollingStd(c, w)
	out := nanSlice(len(c))
	for i := range c {
		if math.IsNaN(mid[i]) || math.IsNaN(std[i]) {
			continue
		}
		upper := mid[i] + k*std[i]
		lower := mid[i] - k*std[i]
		width := upper - lower
		if width == 0 {
			continue
		}
		out[i] = (c[i] - lower) / width
	}
	return out
}

// atr averages the true range: max(high-low, |high-prev close|,
// |low-prev close|). The first row falls back to high-low.
func atr(bars []models.Bar, w int) []float64 {
	n := len(bars)
	tr := nanSlice(n)
	for i := 0; i < n; i++ {
		h, l := bars[i].High, bars[i].Low
		if math.IsNaN(h) || math.IsNaN(l) {
			continue
		}
		r := h - l
		if i > 0 && !math.IsNaN(bars[i-1].Close) {
			pc := bars[i-1].Close
			r = math.Max(r, math.Abs(h-pc))
			r = math.Max(r, math.Abs(l-pc))
		}
		tr[i] = r
	}
	return rollingMean(tr, w)
}

// volumeRatio divides volume by its trailing mean. Zero volume is treated
// as a reporting gap and forward-filled before the ratio.
func volumeRatio(bars []models.Bar, w int) []float64 {
	n := len(bars)
	vol := nanSlice(n)
	last := math.NaN()
	for i := 0; i < n; i++ {
		v := bars[i].Volume
		if math.IsNaN(v) || v == 0 {
			vol[i] = last
		} else {
			vol[i] = v
			last = v
		}
	}
	ma := rollingMean(vol, w)
	out := nanSlice(n)
	for i := 0; i < n; i++ {
		if math.IsNaN(vol[i]) || math.IsNaN(ma[i]) || ma[i] == 0 {
			continue
		}
		out[i] = vol[i] / ma[i]
	}
	return out
}

// pctChange is the percentage change over lag periods.
func pctChange(v []float64, lag int) []float64 {
	out := nanSlice(len(v))
	for i := lag; i < len(v); i++ {
		if v[i-lag] == 0 || math.IsNaN(v[i-lag]) || math.IsNaN(v[i]) {
			continue
		}
		out[i] = v[i]/v[i-lag] - 1.0
	}
	return out
}
