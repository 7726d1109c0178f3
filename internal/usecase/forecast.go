// Package usecase holds the application services behind the HTTP surface.
package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"StockCast/internal/algo"
	"StockCast/internal/artifacts"
	"StockCast/internal/domain/models"
	domrepo "StockCast/internal/domain/repository"
	"StockCast/internal/evaluate"
	"StockCast/internal/predict"
	"StockCast/internal/service/cache"
	"StockCast/internal/symbols"
	"StockCast/internal/training"
	"StockCast/pkg/logger"
	"StockCast/pkg/metrics"
	"StockCast/pkg/util"
)

// ForecastUseCase fronts prediction, training, history and discovery with
// caching and bar mirroring.
type ForecastUseCase struct {
	predictor *predict.Predictor
	trainer   *training.Trainer
	evaluator *evaluate.Evaluator
	registry  *artifacts.Registry
	src       domrepo.BarSource
	barStore  domrepo.BarStore // nil when ClickHouse is disabled
	cache     domrepo.BytesCache
	cacheTTL  time.Duration
	trainCfg  training.Config
	log       *logger.Logger
	recorder  *metrics.Recorder
}

// NewForecastUseCase wires the service. barStore may be nil.
func NewForecastUseCase(
	predictor *predict.Predictor,
	trainer *training.Trainer,
	evaluator *evaluate.Evaluator,
	registry *artifacts.Registry,
	src domrepo.BarSource,
	barStore domrepo.BarStore,
	bytesCache domrepo.BytesCache,
	cacheTTL time.Duration,
	trainCfg training.Config,
	log *logger.Logger,
	recorder *metrics.Recorder,
) *ForecastUseCase {
	return &ForecastUseCase{
		predictor: predictor,
		trainer:   trainer,
		evaluator: evaluator,
		registry:  registry,
		src:       src,
		barStore:  barStore,
		cache:     bytesCache,
		cacheTTL:  cacheTTL,
		trainCfg:  trainCfg,
		log:       log,
		recorder:  recorder,
	}
}

// Predict serves a next-close prediction, cached per (symbol, input_days,
// algorithm) for the configured TTL.
func (uc *ForecastUseCase) Predict(ctx context.Context, req models.PredictRequest) (*models.PredictionResult, error) {
	start := time.Now()
	symbol := symbols.Normalize(req.Ticker, uc.registry.HasAnyArtifact)
	key := cache.PredictionKey(symbol, req.InputDays, req.Algorithm)

	if b, ok, err := uc.cache.GetBytes(key); err == nil && ok {
		var cached models.PredictionResult
		if err := json.Unmarshal(b, &cached); err == nil {
			cached.Ticker = req.Ticker
			return &cached, nil
		}
	}

	result, err := uc.predictor.PredictNextClose(ctx, req.Ticker, req.InputDays, req.Algorithm)
	if err != nil {
		return nil, err
	}

	if b, err := json.Marshal(result); err == nil {
		_ = uc.cache.SetBytes(key, b, uc.cacheTTL)
	}
	uc.recorder.RecordLatency("predict", time.Since(start).Seconds())
	return result, nil
}

// Train runs one training pair synchronously.
func (uc *ForecastUseCase) Train(ctx context.Context, req models.TrainRequest) error {
	a, err := algo.Parse(req.Algorithm)
	if err != nil {
		return err
	}
	cfg := uc.trainCfg
	if req.Epochs > 0 {
		cfg.Epochs = req.Epochs
	}
	if req.Period != "" {
		cfg.Period = req.Period
	}
	return uc.trainer.TrainOne(ctx, req.Ticker, a, cfg)
}

// TrainBatch trains every combination and returns the per-pair status map.
func (uc *ForecastUseCase) TrainBatch(ctx context.Context, req models.BatchTrainRequest) (map[string]string, error) {
	algos := make([]algo.Algorithm, 0, len(req.Algorithms))
	for _, s := range req.Algorithms {
		a, err := algo.Parse(s)
		if err != nil {
			return nil, err
		}
		algos = append(algos, a)
	}
	cfg := uc.trainCfg
	if req.Epochs > 0 {
		cfg.Epochs = req.Epochs
	}
	if req.Period != "" {
		cfg.Period = req.Period
	}
	return uc.trainer.TrainMany(ctx, req.Tickers, algos, cfg), nil
}

// History returns the trailing close series, mirrored into the bar store
// when one is configured.
func (uc *ForecastUseCase) History(ctx context.Context, ticker string, days int) (*models.HistoryResult, error) {
	if days <= 0 {
		days = 30
	}
	symbol := symbols.Normalize(ticker, uc.registry.HasAnyArtifact)
	key := cache.HistoryKey(symbol, days)

	if b, ok, err := uc.cache.GetBytes(key); err == nil && ok {
		var cached models.HistoryResult
		if err := json.Unmarshal(b, &cached); err == nil {
			return &cached, nil
		}
	}

	bars, err := uc.src.Fetch(ctx, symbol, util.DaysPeriod(days), "1d")
	if err != nil {
		return nil, fmt.Errorf("fetch history %s: %w", symbol, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("history %s: %w", symbol, models.ErrDataUnavailable)
	}
	uc.mirrorBars(ctx, symbol, bars)

	result := &models.HistoryResult{
		Symbol: symbol,
		Dates:  make([]string, 0, len(bars)),
		Close:  make([]float64, 0, len(bars)),
	}
	for _, b := range bars {
		if math.IsNaN(b.Close) {
			continue
		}
		result.Dates = append(result.Dates, b.Time.Format("2006-01-02"))
		result.Close = append(result.Close, b.Close)
	}

	if b, err := json.Marshal(result); err == nil {
		_ = uc.cache.SetBytes(key, b, uc.cacheTTL)
	}
	return result, nil
}

func (uc *ForecastUseCase) mirrorBars(ctx context.Context, symbol string, bars []models.Bar) {
	if uc.barStore == nil {
		return
	}
	if err := uc.barStore.SaveBars(ctx, symbol, bars); err != nil {
		uc.log.Warn("bar mirror failed",
			logger.String("symbol", symbol),
			logger.Error(err),
		)
	}
}

// ListModels enumerates trained (symbol, algorithm) pairs.
func (uc *ForecastUseCase) ListModels() map[string][]string {
	return uc.registry.ListAvailableModels()
}

// BestModels returns the per-symbol preferred algorithm.
func (uc *ForecastUseCase) BestModels() map[string]string {
	return uc.registry.LoadBestModels()
}

// Stocks returns the curated symbol catalog.
func (uc *ForecastUseCase) Stocks() map[string][]models.StockInfo {
	return stockRegistry
}

// Evaluate scores trained models on held-out data and persists the report.
func (uc *ForecastUseCase) Evaluate(ctx context.Context, tickers []string, opt evaluate.Options) (*evaluate.Report, error) {
	return uc.evaluator.EvaluateMany(ctx, tickers, opt)
}
