package algo

import (
	"math"
	"testing"
)

func linearSeries(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + step*float64(i)
	}
	return out
}

func TestFitARIMALinearTrend(t *testing.T) {
	series := linearSeries(100, 100, 0.5)

	m, err := FitARIMA(series, 5, 1, 0)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if m.P != 5 || m.D != 1 || m.Q != 0 {
		t.Fatalf("order not persisted: (%d,%d,%d)", m.P, m.D, m.Q)
	}
	if len(m.Tail) != 6 {
		t.Fatalf("expected tail of p+d = 6 observations, got %d", len(m.Tail))
	}

	next, err := m.Forecast()
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	want := series[len(series)-1] + 0.5
	if math.Abs(next-want) > 1e-3 {
		t.Fatalf("forecast %v, want %v", next, want)
	}
}

func TestForecastStepsContinuesTrend(t *testing.T) {
	series := linearSeries(80, 50, 1.0)
	m, err := FitARIMA(series, 3, 1, 0)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}

	steps, err := m.ForecastSteps(5)
	if err != nil {
		t.Fatalf("forecast steps: %v", err)
	}
	last := series[len(series)-1]
	for i, v := range steps {
		want := last + float64(i+1)
		if math.Abs(v-want) > 1e-2 {
			t.Fatalf("step %d: forecast %v, want %v", i, v, want)
		}
	}
}

func TestFitARIMAValidation(t *testing.T) {
	if _, err := FitARIMA(linearSeries(50, 0, 1), 0, 1, 0); err == nil {
		t.Fatalf("expected error for p < 1")
	}
	if _, err := FitARIMA(linearSeries(50, 0, 1), 2, -1, 0); err == nil {
		t.Fatalf("expected error for d < 0")
	}
	if _, err := FitARIMA(linearSeries(4, 0, 1), 5, 1, 0); err == nil {
		t.Fatalf("expected error for short series")
	}
}

func TestForecastTailTooShort(t *testing.T) {
	m := &ARIMAModel{P: 3, D: 1, Coeffs: []float64{0.3, 0.3, 0.3}, Tail: []float64{1, 2}}
	if _, err := m.Forecast(); err == nil {
		t.Fatalf("expected error for short tail")
	}
}
