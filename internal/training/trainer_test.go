package training

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"StockCast/internal/algo"
	"StockCast/internal/artifacts"
	"StockCast/internal/domain/models"
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

type fixedSource struct {
	bars []models.Bar
}

func (f *fixedSource) Fetch(ctx context.Context, symbol, period, interval string) ([]models.Bar, error) {
	return f.bars, nil
}

type capturedEvent struct {
	topic string
	key   string
	value interface{}
}

type fakePublisher struct {
	events []capturedEvent
}

func (f *fakePublisher) Publish(ctx context.Context, topic string, key []byte, value interface{}) error {
	f.events = append(f.events, capturedEvent{topic: topic, key: string(key), value: value})
	return nil
}

func marketBars(n int) []models.Bar {
	bars := make([]models.Bar, n)
	base := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		c := 100 + 10*math.Sin(float64(i)/9) + 0.05*float64(i)
		bars[i] = models.Bar{Time: base.AddDate(0, 0, i), Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 1e6 + float64(i%5)*1e4}
	}
	return bars
}

func newTestTrainer(t *testing.T, src *fixedSource, events *fakePublisher) (*Trainer, *artifacts.Store, *artifacts.Registry) {
	t.Helper()
	store, err := artifacts.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	registry := artifacts.NewRegistry(store)
	var trainer *Trainer
	if events != nil {
		trainer = NewTrainer(src, store, registry, testLogger(t), testRecorder, events, "test.topic")
	} else {
		trainer = NewTrainer(src, store, registry, testLogger(t), testRecorder, nil, "")
	}
	return trainer, store, registry
}

func fastConfig() Config {
	cfg := DefaultConfig()
	cfg.SeqLen = 10
	cfg.Epochs = 2
	cfg.BatchSize = 16
	cfg.Patience = 2
	return cfg
}

func TestTrainOneARIMA(t *testing.T) {
	src := &fixedSource{bars: marketBars(150)}
	trainer, _, registry := newTestTrainer(t, src, nil)

	if err := trainer.TrainOne(context.Background(), "AAPL", algo.ARIMA, fastConfig()); err != nil {
		t.Fatalf("train: %v", err)
	}
	if !registry.ModelArtifactsExist("AAPL", algo.ARIMA) {
		t.Fatalf("arima artifact missing after training")
	}
}

func TestTrainOneNetWritesModelAndBundle(t *testing.T) {
	src := &fixedSource{bars: marketBars(200)}
	trainer, store, registry := newTestTrainer(t, src, nil)

	if err := trainer.TrainOne(context.Background(), "AAPL", algo.LSTM, fastConfig()); err != nil {
		t.Fatalf("train: %v", err)
	}
	if !registry.ModelArtifactsExist("AAPL", algo.LSTM) {
		t.Fatalf("lstm artifacts missing after training")
	}

	net, err := store.LoadNet("AAPL", algo.LSTM)
	if err != nil {
		t.Fatalf("load net: %v", err)
	}
	if net.Cfg.SeqLen != 10 {
		t.Fatalf("persisted seq_len %d, want 10", net.Cfg.SeqLen)
	}

	bundle, legacy, err := store.LoadBundle("AAPL", algo.LSTM)
	if err != nil {
		t.Fatalf("load bundle: %v", err)
	}
	if legacy {
		t.Fatalf("fresh training wrote a legacy bundle")
	}
	if net.Cfg.NFeatures != 1+len(bundle.FeatureCols) {
		t.Fatalf("network features %d out of step with bundle columns %d",
			net.Cfg.NFeatures, len(bundle.FeatureCols))
	}
}

func TestTrainOneBoost(t *testing.T) {
	src := &fixedSource{bars: marketBars(200)}
	trainer, store, registry := newTestTrainer(t, src, nil)

	if err := trainer.TrainOne(context.Background(), "AAPL", algo.XGBoost, fastConfig()); err != nil {
		t.Fatalf("train: %v", err)
	}
	if !registry.ModelArtifactsExist("AAPL", algo.XGBoost) {
		t.Fatalf("xgboost artifacts missing after training")
	}
	var model algo.BoostModel
	if err := store.LoadJSON(store.ModelPath("AAPL", algo.XGBoost), &model); err != nil {
		t.Fatalf("load: %v", err)
	}
	if model.NFeatures == 0 {
		t.Fatalf("persisted model has no feature count")
	}
}

func TestTrainOneSeasonal(t *testing.T) {
	src := &fixedSource{bars: marketBars(150)}
	trainer, _, registry := newTestTrainer(t, src, nil)

	if err := trainer.TrainOne(context.Background(), "AAPL", algo.Prophet, fastConfig()); err != nil {
		t.Fatalf("train: %v", err)
	}
	if !registry.ModelArtifactsExist("AAPL", algo.Prophet) {
		t.Fatalf("prophet artifact missing after training")
	}
}

func TestTrainOneNoData(t *testing.T) {
	trainer, _, _ := newTestTrainer(t, &fixedSource{}, nil)
	err := trainer.TrainOne(context.Background(), "NOPE", algo.ARIMA, fastConfig())
	if !errors.Is(err, models.ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable, got %v", err)
	}
}

func TestTrainOneInsufficientData(t *testing.T) {
	trainer, _, _ := newTestTrainer(t, &fixedSource{bars: marketBars(10)}, nil)
	err := trainer.TrainOne(context.Background(), "AAPL", algo.ARIMA, fastConfig())
	if !errors.Is(err, models.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestTrainOnePublishesEvent(t *testing.T) {
	src := &fixedSource{bars: marketBars(150)}
	pub := &fakePublisher{}
	trainer, _, _ := newTestTrainer(t, src, pub)

	if err := trainer.TrainOne(context.Background(), "hdfcbank", algo.ARIMA, fastConfig()); err != nil {
		t.Fatalf("train: %v", err)
	}
	if len(pub.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(pub.events))
	}
	ev := pub.events[0]
	if ev.topic != "test.topic" || ev.key != "HDFCBANK.NS" {
		t.Fatalf("event routing wrong: topic %q key %q", ev.topic, ev.key)
	}
	payload, ok := ev.value.(models.TrainingEvent)
	if !ok {
		t.Fatalf("unexpected payload type %T", ev.value)
	}
	if payload.Symbol != "HDFCBANK.NS" || payload.Algorithm != "arima" || payload.Status != "success" {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestTrainManyStatusMap(t *testing.T) {
	src := &fixedSource{bars: marketBars(150)}
	trainer, _, _ := newTestTrainer(t, src, nil)

	status := trainer.TrainMany(context.Background(),
		[]string{"AAPL"}, []algo.Algorithm{algo.ARIMA, algo.Prophet}, fastConfig())

	if len(status) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(status))
	}
	if status["AAPL/arima"] != "ok" || status["AAPL/prophet"] != "ok" {
		t.Fatalf("unexpected status map %v", status)
	}
}
