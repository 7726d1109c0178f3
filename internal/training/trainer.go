// Package training drives the end-to-end pipeline for one algorithm and
// persists the resulting artifact bundle.
package training

import (
	"context"
	"fmt"
	"math"
	"time"

	"StockCast/internal/algo"
	"StockCast/internal/artifacts"
	"StockCast/internal/domain/models"
	domrepo "StockCast/internal/domain/repository"
	"StockCast/internal/pipeline"
	"StockCast/internal/symbols"
	"StockCast/pkg/logger"
	"StockCast/pkg/metrics"
)

// minSeriesRows is the floor for the series-fitting kinds, which bypass
// the windowed pipeline and its own row requirement.
const minSeriesRows = 30

// Config enumerates one training run's hyperparameters.
type Config struct {
	SeqLen      int
	Epochs      int
	BatchSize   int
	Period      string
	ValRatio    float64
	Patience    int
	UseFeatures bool
	ArimaOrder  [3]int
	Seed        int64
}

// DefaultConfig mirrors the service defaults.
func DefaultConfig() Config {
	return Config{
		SeqLen:      60,
		Epochs:      50,
		BatchSize:   32,
		Period:      "5y",
		ValRatio:    0.1,
		Patience:    10,
		UseFeatures: true,
		ArimaOrder:  [3]int{5, 1, 0},
		Seed:        42,
	}
}

// Trainer owns artifact creation. Artifacts are written once here and
// read-only everywhere else.
type Trainer struct {
	src      domrepo.BarSource
	store    *artifacts.Store
	registry *artifacts.Registry
	log      *logger.Logger
	recorder *metrics.Recorder
	events   domrepo.EventPublisher
	topic    string
}

// NewTrainer wires a trainer. events may be nil when event publishing is
// disabled.
func NewTrainer(
	src domrepo.BarSource,
	store *artifacts.Store,
	registry *artifacts.Registry,
	log *logger.Logger,
	recorder *metrics.Recorder,
	events domrepo.EventPublisher,
	topic string,
) *Trainer {
	return &Trainer{
		src:      src,
		store:    store,
		registry: registry,
		log:      log,
		recorder: recorder,
		events:   events,
		topic:    topic,
	}
}

// TrainOne trains and persists one (symbol, algorithm) pair.
func (t *Trainer) TrainOne(ctx context.Context, ticker string, a algo.Algorithm, cfg Config) error {
	symbol := symbols.Normalize(ticker, t.registry.HasAnyArtifact)
	start := time.Now()

	t.log.Info("training started",
		logger.String("symbol", symbol),
		logger.String("algorithm", string(a)),
		logger.String("period", cfg.Period),
	)

	var err error
	switch {
	case a.IsNet():
		err = t.trainNet(ctx, symbol, a, cfg)
	case a == algo.XGBoost:
		err = t.trainBoost(ctx, symbol, cfg)
	case a == algo.ARIMA:
		err = t.trainARIMA(ctx, symbol, cfg)
	case a == algo.Prophet:
		err = t.trainSeasonal(ctx, symbol, cfg)
	default:
		err = fmt.Errorf("%q: %w", a, models.ErrUnknownAlgorithm)
	}

	elapsed := time.Since(start)
	status := "success"
	if err != nil {
		status = "failure"
	}
	t.recorder.RecordTraining(string(a), status, elapsed.Seconds())
	t.publishEvent(ctx, symbol, a, status, err, elapsed)

	if err != nil {
		t.log.Error("training failed",
			logger.String("symbol", symbol),
			logger.String("algorithm", string(a)),
			logger.Error(err),
		)
		return err
	}
	t.log.Info("training finished",
		logger.String("symbol", symbol),
		logger.String("algorithm", string(a)),
		logger.Duration("elapsed", elapsed),
	)
	return nil
}

// TrainMany trains every (symbol, algorithm) combination, recording an
// error string per failed pair instead of aborting the batch. Keys are
// "SYMBOL/algorithm".
func (t *Trainer) TrainMany(ctx context.Context, tickers []string, algos []algo.Algorithm, cfg Config) map[string]string {
	status := make(map[string]string, len(tickers)*len(algos))
	for _, ticker := range tickers {
		for _, a := range algos {
			key := fmt.Sprintf("%s/%s", ticker, a)
			if err := t.TrainOne(ctx, ticker, a, cfg); err != nil {
				status[key] = err.Error()
			} else {
				status[key] = "ok"
			}
		}
	}
	return status
}

func (t *Trainer) pipelineConfig(cfg Config) pipeline.Config {
	return pipeline.Config{
		SeqLen:          cfg.SeqLen,
		ValRatio:        cfg.ValRatio,
		ZScoreThreshold: pipeline.DefaultZScoreThreshold,
		UseFeatures:     cfg.UseFeatures,
		FeatureColumns:  pipeline.FeatureCols(),
	}
}

func (t *Trainer) trainNet(ctx context.Context, symbol string, a algo.Algorithm, cfg Config) error {
	res, err := pipeline.Run(ctx, t.src, symbol, cfg.Period, t.pipelineConfig(cfg))
	if err != nil {
		return err
	}

	netCfg := algo.NewNetConfig(a, cfg.SeqLen, res.NFeatures)
	net := algo.NewNetwork(netCfg, cfg.Seed)
	fit, err := net.Fit(
		pipeline.Flatten2D(res.XTrain), res.YTrain,
		pipeline.Flatten2D(res.XVal), res.YVal,
		algo.FitOptions{Epochs: cfg.Epochs, BatchSize: cfg.BatchSize, Patience: cfg.Patience, Seed: cfg.Seed},
	)
	if err != nil {
		return fmt.Errorf("fit %s for %s: %w", a, symbol, err)
	}
	t.log.Debug("network converged",
		logger.String("symbol", symbol),
		logger.String("algorithm", string(a)),
		logger.Int("epochs", fit.Epochs),
		logger.Float64("val_loss", fit.BestValLoss),
	)

	if err := t.store.SaveNet(symbol, a, net); err != nil {
		return fmt.Errorf("persist %s for %s: %w", a, symbol, err)
	}
	return t.store.SaveBundle(symbol, a, &artifacts.PipelineBundle{
		Scalers:     res.Scalers,
		FeatureCols: res.FeatureCols,
	})
}

func (t *Trainer) trainBoost(ctx context.Context, symbol string, cfg Config) error {
	res, err := pipeline.Run(ctx, t.src, symbol, cfg.Period, t.pipelineConfig(cfg))
	if err != nil {
		return err
	}

	model, err := algo.FitBoost(
		pipeline.Flatten2D(res.XTrain), res.YTrain,
		pipeline.Flatten2D(res.XVal), res.YVal,
		algo.BoostOptions{Patience: cfg.Patience},
	)
	if err != nil {
		return fmt.Errorf("fit xgboost for %s: %w", symbol, err)
	}

	if err := t.store.SaveJSON(t.store.ModelPath(symbol, algo.XGBoost), model); err != nil {
		return fmt.Errorf("persist xgboost for %s: %w", symbol, err)
	}
	return t.store.SaveBundle(symbol, algo.XGBoost, &artifacts.PipelineBundle{
		Scalers:     res.Scalers,
		FeatureCols: res.FeatureCols,
	})
}

// cleanClose fetches and cleans the series for the two kinds that fit on
// the close column directly.
func (t *Trainer) cleanClose(ctx context.Context, symbol, period string) ([]models.Bar, error) {
	raw, err := t.src.Fetch(ctx, symbol, period, "1d")
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", symbol, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("fetch %s (period=%s): %w", symbol, period, models.ErrDataUnavailable)
	}
	clean := pipeline.Clean(raw, pipeline.DefaultZScoreThreshold)
	if len(clean) < minSeriesRows {
		return nil, fmt.Errorf("%s: %d rows after cleaning, need >= %d: %w",
			symbol, len(clean), minSeriesRows, models.ErrInsufficientData)
	}
	return clean, nil
}

func (t *Trainer) trainARIMA(ctx context.Context, symbol string, cfg Config) error {
	clean, err := t.cleanClose(ctx, symbol, cfg.Period)
	if err != nil {
		return err
	}
	series := make([]float64, len(clean))
	for i, b := range clean {
		series[i] = b.Close
	}
	p, d, q := cfg.ArimaOrder[0], cfg.ArimaOrder[1], cfg.ArimaOrder[2]
	model, err := algo.FitARIMA(series, p, d, q)
	if err != nil {
		return fmt.Errorf("fit arima for %s: %w", symbol, err)
	}
	return t.store.SaveJSON(t.store.ModelPath(symbol, algo.ARIMA), model)
}

func (t *Trainer) trainSeasonal(ctx context.Context, symbol string, cfg Config) error {
	clean, err := t.cleanClose(ctx, symbol, cfg.Period)
	if err != nil {
		return err
	}
	ts := make([]time.Time, 0, len(clean))
	y := make([]float64, 0, len(clean))
	for _, b := range clean {
		if math.IsNaN(b.Close) {
			continue
		}
		ts = append(ts, b.Time)
		y = append(y, b.Close)
	}
	model, err := algo.FitSeasonal(ts, y)
	if err != nil {
		return fmt.Errorf("fit prophet for %s: %w", symbol, err)
	}
	return t.store.SaveJSON(t.store.ModelPath(symbol, algo.Prophet), model)
}

func (t *Trainer) publishEvent(ctx context.Context, symbol string, a algo.Algorithm, status string, err error, elapsed time.Duration) {
	if t.events == nil {
		return
	}
	event := models.TrainingEvent{
		Symbol:    symbol,
		Algorithm: string(a),
		Status:    status,
		Duration:  elapsed.Milliseconds(),
	}
	if err != nil {
		event.Error = err.Error()
	}
	if pubErr := t.events.Publish(ctx, t.topic, []byte(symbol), event); pubErr != nil {
		t.log.Warn("publish training event failed",
			logger.String("symbol", symbol),
			logger.Error(pubErr),
		)
	}
}
