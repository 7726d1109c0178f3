package pipeline

import (
	"math"
	"testing"
)

func TestBuildFeaturesFlatSeries(t *testing.T) {
	closes := make([]float64, 80)
	for i := range closes {
		closes[i] = 100.0
	}
	f := BuildFeatures(closeBars(closes...))

	// With zero average loss the gain/loss ratio is undefined.
	for i, v := range f.Features["rsi_14"] {
		if !math.IsNaN(v) {
			t.Fatalf("rsi_14[%d] = %v on a flat series, want NaN", i, v)
		}
	}
	for i, v := range f.Features["momentum_1"] {
		if i >= 1 && v != 0 {
			t.Fatalf("momentum_1[%d] = %v on a flat series, want 0", i, v)
		}
	}
	for i, v := range f.Features["momentum_10"] {
		if i >= 10 && v != 0 {
			t.Fatalf("momentum_10[%d] = %v on a flat series, want 0", i, v)
		}
	}
}

func TestBuildFeaturesOmitsAbsentColumns(t *testing.T) {
	// Close-only bars: no high/low, no volume.
	f := BuildFeatures(closeBars(100, 101, 102, 103))

	if _, ok := f.Features["atr_14"]; ok {
		t.Fatalf("atr_14 emitted without high/low data")
	}
	if _, ok := f.Features["volume_ratio"]; ok {
		t.Fatalf("volume_ratio emitted without volume data")
	}
	for _, col := range f.Columns {
		if col == "atr_14" || col == "volume_ratio" {
			t.Fatalf("absent column %s selected", col)
		}
	}
}

func TestBuildFeaturesWarmup(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	f := BuildFeatures(closeBars(closes...))

	sma5 := f.Features["sma_5"]
	for i := 0; i < 4; i++ {
		if !math.IsNaN(sma5[i]) {
			t.Fatalf("sma_5[%d] should be NaN during warm-up", i)
		}
	}
	// Mean of 100..104.
	if math.Abs(sma5[4]-102) > 1e-9 {
		t.Fatalf("sma_5[4] = %v, want 102", sma5[4])
	}

	sma50 := f.Features["sma_50"]
	if !math.IsNaN(sma50[48]) || math.IsNaN(sma50[49]) {
		t.Fatalf("sma_50 warm-up boundary wrong")
	}
}

func TestBuildFeaturesColumnOrder(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + math.Sin(float64(i))
	}
	f := BuildFeatures(closeBars(closes...))

	// Selected columns must follow the canonical order.
	canon := FeatureCols()
	pos := make(map[string]int, len(canon))
	for i, c := range canon {
		pos[c] = i
	}
	for i := 1; i < len(f.Columns); i++ {
		if pos[f.Columns[i-1]] >= pos[f.Columns[i]] {
			t.Fatalf("columns out of canonical order: %v", f.Columns)
		}
	}
}

func TestDropUndefined(t *testing.T) {
	closes := make([]float64, 70)
	for i := range closes {
		closes[i] = 100 + float64(i%5)
	}
	f := BuildFeatures(closeBars(closes...))
	avail := f.SelectColumns(FeatureCols())
	f.DropUndefined(avail)

	if f.Len() == 0 {
		t.Fatalf("all rows dropped")
	}
	for _, col := range avail {
		for i, v := range f.Features[col] {
			if math.IsNaN(v) {
				t.Fatalf("%s[%d] still NaN after DropUndefined", col, i)
			}
		}
	}
	for i, v := range f.Close {
		if math.IsNaN(v) {
			t.Fatalf("close[%d] still NaN after DropUndefined", i)
		}
	}
}
