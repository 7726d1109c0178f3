// Package predict resolves trained artifacts and produces single-step
// next-close predictions, rebuilding the training pipeline in
// transform-only mode so inference sees the exact same preprocessing.
package predict

import (
	"context"
	"fmt"
	"time"

	"StockCast/internal/algo"
	"StockCast/internal/artifacts"
	"StockCast/internal/domain/models"
	domrepo "StockCast/internal/domain/repository"
	"StockCast/internal/marketdata"
	"StockCast/internal/pipeline"
	"StockCast/internal/symbols"
	"StockCast/pkg/logger"
	"StockCast/pkg/metrics"
	"StockCast/pkg/util"
)

// minInputDays is the trained window length; shorter requests are raised
// to it silently.
const minInputDays = 60

// Predictor loads artifacts and serves predictions. It never trains.
type Predictor struct {
	src      domrepo.BarSource
	store    *artifacts.Store
	registry *artifacts.Registry
	log      *logger.Logger
	recorder *metrics.Recorder
}

// NewPredictor wires a predictor.
func NewPredictor(
	src domrepo.BarSource,
	store *artifacts.Store,
	registry *artifacts.Registry,
	log *logger.Logger,
	recorder *metrics.Recorder,
) *Predictor {
	return &Predictor{src: src, store: store, registry: registry, log: log, recorder: recorder}
}

// PredictNextClose predicts the next closing price for a ticker. algorithm
// may be a concrete kind or "best", which consults the registry's
// preference order. Callers can rely on typed errors: ErrModelNotFound
// means train first, ErrInsufficientData means try a longer period.
func (p *Predictor) PredictNextClose(ctx context.Context, ticker string, inputDays int, algorithm string) (*models.PredictionResult, error) {
	symbol := symbols.Normalize(ticker, p.registry.HasAnyArtifact)

	requested, err := algo.ParseOrBest(algorithm)
	if err != nil {
		return nil, err
	}
	a, err := p.resolve(symbol, requested)
	if err != nil {
		return nil, err
	}

	if inputDays < minInputDays {
		inputDays = minInputDays
	}

	closes, err := marketdata.FetchCloseSeries(ctx, p.src, symbol, util.DaysPeriod(inputDays+30))
	if err != nil {
		return nil, err
	}
	currentPrice := closes[len(closes)-1].Close

	var predicted float64
	switch {
	case a.IsNet():
		predicted, err = p.predictNet(ctx, symbol, a, inputDays, closes)
	case a == algo.XGBoost:
		predicted, err = p.predictBoost(ctx, symbol, inputDays, closes)
	case a == algo.ARIMA:
		predicted, err = p.predictARIMA(symbol)
	case a == algo.Prophet:
		predicted, err = p.predictSeasonal(symbol, closes)
	default:
		err = fmt.Errorf("%q: %w", a, models.ErrUnknownAlgorithm)
	}
	if err != nil {
		return nil, err
	}

	p.recorder.RecordPrediction(string(a), symbol, predicted)
	p.log.Info("prediction served",
		logger.String("symbol", symbol),
		logger.String("algorithm", string(a)),
		logger.Float64("current", currentPrice),
		logger.Float64("predicted", predicted),
	)

	return &models.PredictionResult{
		Ticker:         ticker,
		FixedSymbol:    symbol,
		Algorithm:      string(a),
		CurrentPrice:   currentPrice,
		PredictedPrice: predicted,
		InputDaysUsed:  inputDays,
	}, nil
}

// resolve maps "best" through the registry and verifies a concrete
// request has persisted artifacts.
func (p *Predictor) resolve(symbol string, requested algo.Algorithm) (algo.Algorithm, error) {
	if requested == algo.Best {
		best, ok := p.registry.LoadBestModels()[symbol]
		if !ok {
			return "", fmt.Errorf("no trained models for %s: %w", symbol, models.ErrModelNotFound)
		}
		return algo.Algorithm(best), nil
	}
	if !p.registry.ModelArtifactsExist(symbol, requested) {
		return "", fmt.Errorf("model %s not found for %s, train it first: %w", requested, symbol, models.ErrModelNotFound)
	}
	return requested, nil
}

// scaledWindow rebuilds the training-time preprocessing with the persisted
// bundle and returns the most recent rows, scaled. rows is the model's
// trained window length.
func (p *Predictor) scaledWindow(ctx context.Context, symbol string, bundle *artifacts.PipelineBundle, inputDays, rows int) ([][]float64, error) {
	raw, err := p.src.Fetch(ctx, symbol, util.DaysPeriod(inputDays+90), "1d")
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", symbol, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("fetch %s: %w", symbol, models.ErrDataUnavailable)
	}
	clean := pipeline.Clean(raw, pipeline.DefaultZScoreThreshold)

	cfg := pipeline.Config{
		UseFeatures:    len(bundle.FeatureCols) > 0,
		FeatureColumns: bundle.FeatureCols,
	}
	frame, avail := pipeline.Prepare(clean, cfg)

	if frame.Len() < inputDays {
		return nil, fmt.Errorf("%s: %d rows after cleaning, need >= %d: %w",
			symbol, frame.Len(), inputDays, models.ErrInsufficientData)
	}
	window := frame.Tail(rows)
	scaled, err := bundle.Scalers.Transform(window, avail)
	if err != nil {
		return nil, fmt.Errorf("transform %s: %w", symbol, err)
	}
	return scaled, nil
}

// legacyWindow scales the raw close tail with the old close-only scaler.
func legacyWindow(bundle *artifacts.PipelineBundle, closes []models.ClosePoint, rows int) ([][]float64, error) {
	if len(closes) < rows {
		return nil, fmt.Errorf("%d close rows, need >= %d: %w", len(closes), rows, models.ErrInsufficientData)
	}
	tail := closes[len(closes)-rows:]
	values := make([]float64, len(tail))
	for i, pt := range tail {
		values[i] = pt.Close
	}
	return bundle.Scalers.TransformClose(values), nil
}

func flatten(window [][]float64) []float64 {
	if len(window) == 0 {
		return nil
	}
	flat := make([]float64, 0, len(window)*len(window[0]))
	for _, row := range window {
		flat = append(flat, row...)
	}
	return flat
}

func (p *Predictor) predictNet(ctx context.Context, symbol string, a algo.Algorithm, inputDays int, closes []models.ClosePoint) (float64, error) {
	net, err := p.store.LoadNet(symbol, a)
	if err != nil {
		return 0, err
	}
	bundle, legacy, err := p.store.LoadBundle(symbol, a)
	if err != nil {
		return 0, err
	}

	var window [][]float64
	if legacy {
		window, err = legacyWindow(bundle, closes, net.Cfg.SeqLen)
	} else {
		window, err = p.scaledWindow(ctx, symbol, bundle, inputDays, net.Cfg.SeqLen)
	}
	if err != nil {
		return 0, err
	}

	scaledPred, err := net.Predict(flatten(window))
	if err != nil {
		return 0, err
	}
	return bundle.Scalers.InverseClose(scaledPred), nil
}

func (p *Predictor) predictBoost(ctx context.Context, symbol string, inputDays int, closes []models.ClosePoint) (float64, error) {
	var model algo.BoostModel
	if err := p.store.LoadJSON(p.store.ModelPath(symbol, algo.XGBoost), &model); err != nil {
		return 0, err
	}
	bundle, legacy, err := p.store.LoadBundle(symbol, algo.XGBoost)
	if err != nil {
		return 0, err
	}

	cols := 1 + len(bundle.FeatureCols)
	rows := model.NFeatures / cols

	var window [][]float64
	if legacy {
		window, err = legacyWindow(bundle, closes, rows)
	} else {
		window, err = p.scaledWindow(ctx, symbol, bundle, inputDays, rows)
	}
	if err != nil {
		return 0, err
	}

	scaledPred, err := model.Predict(flatten(window))
	if err != nil {
		return 0, err
	}
	return bundle.Scalers.InverseClose(scaledPred), nil
}

func (p *Predictor) predictARIMA(symbol string) (float64, error) {
	var model algo.ARIMAModel
	if err := p.store.LoadJSON(p.store.ModelPath(symbol, algo.ARIMA), &model); err != nil {
		return 0, err
	}
	return model.Forecast()
}

func (p *Predictor) predictSeasonal(symbol string, closes []models.ClosePoint) (float64, error) {
	var model algo.SeasonalModel
	if err := p.store.LoadJSON(p.store.ModelPath(symbol, algo.Prophet), &model); err != nil {
		return 0, err
	}
	// Next calendar day after the last observed close, timezone-naive.
	next := closes[len(closes)-1].Time.UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
	day := float64(next.Unix()-model.Epoch) / 86400.0
	return model.At(day), nil
}
