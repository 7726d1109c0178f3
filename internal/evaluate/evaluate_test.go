package evaluate

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"StockCast/internal/algo"
	"StockCast/internal/artifacts"
	"StockCast/internal/domain/models"
	"StockCast/pkg/logger"
)

func TestRMSE(t *testing.T) {
	got := RMSE([]float64{1, 2, 3}, []float64{1, 2, 3})
	if got != 0 {
		t.Fatalf("RMSE of identical vectors = %v", got)
	}
	got = RMSE([]float64{0, 0}, []float64{3, 4})
	want := math.Sqrt(12.5)
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("RMSE = %v, want %v", got, want)
	}
}

func TestMAPE(t *testing.T) {
	got := MAPE([]float64{100, 200}, []float64{110, 180})
	if math.Abs(got-10) > 1e-9 {
		t.Fatalf("MAPE = %v, want 10", got)
	}
	// Zero actuals must not divide by zero.
	got = MAPE([]float64{0}, []float64{1})
	if math.IsNaN(got) || math.IsInf(got, 0) {
		t.Fatalf("MAPE with zero actual = %v", got)
	}
}

type fixedSource struct {
	bars []models.Bar
}

func (f *fixedSource) Fetch(ctx context.Context, symbol, period, interval string) ([]models.Bar, error) {
	return f.bars, nil
}

func trendBars(n int) []models.Bar {
	bars := make([]models.Bar, n)
	base := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		c := 100 + 0.5*float64(i) + 2*math.Sin(float64(i)/5)
		bars[i] = models.Bar{Time: base.AddDate(0, 0, i), Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 1e6}
	}
	return bars
}

func TestEvaluateManyARIMAOnly(t *testing.T) {
	src := &fixedSource{bars: trendBars(200)}
	store, err := artifacts.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	registry := artifacts.NewRegistry(store)
	l, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	e := NewEvaluator(src, store, registry, l)

	opt := DefaultOptions()
	opt.SeqLen = 10

	report, err := e.EvaluateMany(context.Background(), []string{"AAPL"}, opt)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	res, ok := report.Results["AAPL"]
	if !ok {
		t.Fatalf("no result for AAPL: %v", report.Results)
	}
	// With no persisted windowed models only arima is scorable, and it is
	// always refitted from the fetched series.
	if res.Best != "arima" {
		t.Fatalf("best = %q, want arima", res.Best)
	}
	if len(res.Scores) != 1 || res.Scores[0].NTest == 0 {
		t.Fatalf("unexpected scores %+v", res.Scores)
	}

	// The report lands next to the artifacts.
	if _, err := os.Stat(filepath.Join(store.Dir(), "best_models.json")); err != nil {
		t.Fatalf("best_models.json not written: %v", err)
	}
}

func TestEvaluateManySkipsUnscorableSymbol(t *testing.T) {
	src := &fixedSource{} // no data at all
	store, err := artifacts.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	registry := artifacts.NewRegistry(store)
	l, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	e := NewEvaluator(src, store, registry, l)

	report, err := e.EvaluateMany(context.Background(), []string{"NOPE"}, DefaultOptions())
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(report.Results) != 0 {
		t.Fatalf("expected no results, got %v", report.Results)
	}
}

func TestMetricOf(t *testing.T) {
	s := AlgoScore{Algorithm: string(algo.ARIMA), RMSE: 1.5, MAPE: 3.5}
	if metricOf(s, "rmse") != 1.5 || metricOf(s, "mape") != 3.5 {
		t.Fatalf("metric selection wrong")
	}
}
