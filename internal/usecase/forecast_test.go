package usecase

import (
	"context"
	"math"
	"testing"
	"time"

	"StockCast/internal/algo"
	"StockCast/internal/artifacts"
	"StockCast/internal/domain/models"
	domrepo "StockCast/internal/domain/repository"
	"StockCast/internal/evaluate"
	"StockCast/internal/predict"
	"StockCast/internal/service/cache"
	"StockCast/internal/training"
	"StockCast/pkg/logger"
	"StockCast/pkg/metrics"
)

// One recorder per test binary; Prometheus registration is global.
var testRecorder = metrics.New()

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

type countingSource struct {
	bars  []models.Bar
	calls int
}

func (s *countingSource) Fetch(ctx context.Context, symbol, period, interval string) ([]models.Bar, error) {
	s.calls++
	return s.bars, nil
}

type fakeBarStore struct {
	saved map[string][]models.Bar
}

func (s *fakeBarStore) SaveBars(ctx context.Context, symbol string, bars []models.Bar) error {
	if s.saved == nil {
		s.saved = make(map[string][]models.Bar)
	}
	s.saved[symbol] = bars
	return nil
}

func (s *fakeBarStore) LatestBars(ctx context.Context, symbol string, n int) ([]models.Bar, error) {
	return s.saved[symbol], nil
}

func trendBars(n int) []models.Bar {
	bars := make([]models.Bar, n)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		c := 100 + 0.5*float64(i)
		bars[i] = models.Bar{Time: base.AddDate(0, 0, i), Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 1e6}
	}
	return bars
}

func newTestUseCase(t *testing.T, src *countingSource, barStore *fakeBarStore) (*ForecastUseCase, *artifacts.Store) {
	t.Helper()
	store, err := artifacts.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	registry := artifacts.NewRegistry(store)
	l := testLogger(t)

	predictor := predict.NewPredictor(src, store, registry, l, testRecorder)
	trainer := training.NewTrainer(src, store, registry, l, testRecorder, nil, "")
	evaluator := evaluate.NewEvaluator(src, store, registry, l)

	// Guard against handing a typed nil to the use case.
	var bs domrepo.BarStore
	if barStore != nil {
		bs = barStore
	}
	uc := NewForecastUseCase(predictor, trainer, evaluator, registry, src, bs,
		cache.NewTTLCache(), time.Minute, training.DefaultConfig(), l, testRecorder)
	return uc, store
}

func trainARIMAArtifact(t *testing.T, store *artifacts.Store, symbol string, bars []models.Bar) {
	t.Helper()
	series := make([]float64, len(bars))
	for i, b := range bars {
		series[i] = b.Close
	}
	model, err := algo.FitARIMA(series, 5, 1, 0)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if err := store.SaveJSON(store.ModelPath(symbol, algo.ARIMA), model); err != nil {
		t.Fatalf("save: %v", err)
	}
}

func TestPredictUsesCache(t *testing.T) {
	src := &countingSource{bars: trendBars(150)}
	uc, store := newTestUseCase(t, src, nil)
	trainARIMAArtifact(t, store, "AAPL", src.bars)

	req := models.PredictRequest{Ticker: "aapl", InputDays: 60, Algorithm: "arima"}
	first, err := uc.Predict(context.Background(), req)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	callsAfterFirst := src.calls

	second, err := uc.Predict(context.Background(), req)
	if err != nil {
		t.Fatalf("cached predict: %v", err)
	}
	if src.calls != callsAfterFirst {
		t.Fatalf("cache hit still fetched market data")
	}
	if second.PredictedPrice != first.PredictedPrice {
		t.Fatalf("cached prediction differs: %v vs %v", second.PredictedPrice, first.PredictedPrice)
	}
	// The caller's spelling of the ticker survives a cache hit.
	if second.Ticker != "aapl" {
		t.Fatalf("cached result ticker %q", second.Ticker)
	}
}

func TestHistory(t *testing.T) {
	bars := trendBars(40)
	bars[3].Close = math.NaN()
	src := &countingSource{bars: bars}
	barStore := &fakeBarStore{}
	uc, _ := newTestUseCase(t, src, barStore)

	res, err := uc.History(context.Background(), "AAPL", 30)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if res.Symbol != "AAPL" {
		t.Fatalf("symbol %q", res.Symbol)
	}
	if len(res.Dates) != len(res.Close) {
		t.Fatalf("dates and closes out of step")
	}
	if len(res.Close) != 39 {
		t.Fatalf("expected NaN close dropped, got %d rows", len(res.Close))
	}
	if res.Dates[0] != "2024-01-01" {
		t.Fatalf("unexpected first date %q", res.Dates[0])
	}
	if len(barStore.saved["AAPL"]) != 40 {
		t.Fatalf("bars not mirrored, got %d", len(barStore.saved["AAPL"]))
	}

	// Second call is served from cache.
	calls := src.calls
	if _, err := uc.History(context.Background(), "AAPL", 30); err != nil {
		t.Fatalf("cached history: %v", err)
	}
	if src.calls != calls {
		t.Fatalf("cache hit still fetched market data")
	}
}

func TestHistoryDefaultDays(t *testing.T) {
	src := &countingSource{bars: trendBars(40)}
	uc, _ := newTestUseCase(t, src, nil)

	if _, err := uc.History(context.Background(), "AAPL", 0); err != nil {
		t.Fatalf("history: %v", err)
	}
}

func TestStocksCatalog(t *testing.T) {
	src := &countingSource{bars: trendBars(40)}
	uc, _ := newTestUseCase(t, src, nil)

	stocks := uc.Stocks()
	if len(stocks["us"]) == 0 || len(stocks["india"]) == 0 {
		t.Fatalf("catalog missing markets: %d us, %d india", len(stocks["us"]), len(stocks["india"]))
	}
	for _, info := range stocks["india"] {
		if info.Symbol == "" || info.Name == "" {
			t.Fatalf("incomplete entry %+v", info)
		}
	}
}
