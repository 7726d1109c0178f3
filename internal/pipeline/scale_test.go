package pipeline

import (
	"math"
	"testing"
)

func TestMinMaxRoundTrip(t *testing.T) {
	var s MinMaxScaler
	s.Fit([]float64{50, 100, 150, 200})

	for _, v := range []float64{50, 77.5, 150, 200} {
		got := s.Inverse(s.Transform(v))
		if math.Abs(got-v) > 1e-9 {
			t.Fatalf("round trip of %v gave %v", v, got)
		}
	}
	if s.Transform(50) != 0 || s.Transform(200) != 1 {
		t.Fatalf("range endpoints not mapped to [0, 1]")
	}
}

func TestMinMaxZeroSpan(t *testing.T) {
	var s MinMaxScaler
	s.Fit([]float64{100, 100, 100})
	if s.Transform(100) != 0 {
		t.Fatalf("zero-span transform should be 0, got %v", s.Transform(100))
	}
}

func TestRobustScaler(t *testing.T) {
	var s RobustScaler
	s.Fit([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9})

	if s.Center != 5 {
		t.Fatalf("expected median 5, got %v", s.Center)
	}
	if s.Scale != 4 {
		t.Fatalf("expected IQR 4, got %v", s.Scale)
	}
	if got := s.Transform(9); got != 1 {
		t.Fatalf("expected 1, got %v", got)
	}
}

func TestRobustScalerZeroIQR(t *testing.T) {
	var s RobustScaler
	s.Fit([]float64{5, 5, 5, 5})
	if s.Scale != 1 {
		t.Fatalf("zero IQR must fall back to 1, got %v", s.Scale)
	}
}

func TestScalerSetCloseRoundTrip(t *testing.T) {
	s := NewScalerSet()
	closes := []float64{80, 120, 100, 90}
	scaled := s.FitTransformClose(closes)

	for i, row := range scaled {
		got := s.InverseClose(row[0])
		if math.Abs(got-closes[i]) > 1e-9 {
			t.Fatalf("row %d: round trip of %v gave %v", i, closes[i], got)
		}
	}
}

func TestScalerSetTransformRequiresFit(t *testing.T) {
	f := FrameFromBars(closeBars(100, 101, 102))
	f.Features["log_return"] = []float64{0, 0.01, 0.01}

	s := NewScalerSet()
	if _, err := s.Transform(f, []string{"log_return"}); err == nil {
		t.Fatalf("expected error for unfitted column")
	}

	if _, err := s.FitTransform(f, []string{"log_return"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.Transform(f, []string{"log_return"}); err != nil {
		t.Fatalf("unexpected error after fit: %v", err)
	}
}

func TestScalerSetColumnOrder(t *testing.T) {
	f := FrameFromBars(closeBars(100, 200))
	f.Features["a"] = []float64{1, 2}
	f.Features["b"] = []float64{10, 20}

	s := NewScalerSet()
	scaled, err := s.FitTransform(f, []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(scaled) != 2 || len(scaled[0]) != 3 {
		t.Fatalf("expected 2x3 matrix, got %dx%d", len(scaled), len(scaled[0]))
	}
	// Column 0 is always the scaled close.
	if scaled[0][0] != 0 || scaled[1][0] != 1 {
		t.Fatalf("close column not first: %v %v", scaled[0][0], scaled[1][0])
	}
}
