// Package evaluate scores trained models on a held-out tail of the series
// and records the per-symbol winner, complementing the registry's fixed
// preference order with a measured one.
package evaluate

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"sort"

	"StockCast/internal/algo"
	"StockCast/internal/artifacts"
	"StockCast/internal/domain/models"
	domrepo "StockCast/internal/domain/repository"
	"StockCast/internal/pipeline"
	"StockCast/internal/symbols"
	"StockCast/pkg/logger"
)

const minTestWindows = 5

// RMSE is the root mean squared error.
func RMSE(yTrue, yPred []float64) float64 {
	sum := 0.0
	for i := range yTrue {
		d := yTrue[i] - yPred[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(yTrue)))
}

// MAPE is the mean absolute percentage error, guarded against zero
// actuals.
func MAPE(yTrue, yPred []float64) float64 {
	const eps = 1e-9
	sum := 0.0
	for i := range yTrue {
		denom := math.Max(math.Abs(yTrue[i]), eps)
		sum += math.Abs((yTrue[i] - yPred[i]) / denom)
	}
	return sum / float64(len(yTrue)) * 100.0
}

// AlgoScore is one algorithm's held-out performance for a symbol.
type AlgoScore struct {
	Algorithm string  `json:"algorithm"`
	RMSE      float64 `json:"rmse"`
	MAPE      float64 `json:"mape"`
	NTest     int     `json:"n_test"`
}

// Options controls an evaluation run.
type Options struct {
	SeqLen     int
	TestRatio  float64
	Metric     string // "rmse" or "mape"
	Period     string
	ArimaOrder [3]int
}

// DefaultOptions mirrors the standalone evaluation defaults.
func DefaultOptions() Options {
	return Options{SeqLen: 60, TestRatio: 0.2, Metric: "rmse", Period: "5y", ArimaOrder: [3]int{5, 1, 0}}
}

// SymbolReport holds one symbol's ranked scores.
type SymbolReport struct {
	Best   string      `json:"best"`
	Scores []AlgoScore `json:"scores"`
}

// Report is the full evaluation output, persisted as best_models.json in
// the artifact directory.
type Report struct {
	Metric    string                  `json:"metric"`
	SeqLen    int                     `json:"seq_len"`
	TestRatio float64                 `json:"test_ratio"`
	Results   map[string]SymbolReport `json:"results"`
}

// Evaluator scores persisted models against fresh data.
type Evaluator struct {
	src      domrepo.BarSource
	store    *artifacts.Store
	registry *artifacts.Registry
	log      *logger.Logger
}

// NewEvaluator wires an evaluator.
func NewEvaluator(src domrepo.BarSource, store *artifacts.Store, registry *artifacts.Registry, log *logger.Logger) *Evaluator {
	return &Evaluator{src: src, store: store, registry: registry, log: log}
}

// EvaluateMany scores every requested symbol, keeps going on per-algorithm
// failure, and writes the report next to the artifacts.
func (e *Evaluator) EvaluateMany(ctx context.Context, tickers []string, opt Options) (*Report, error) {
	report := &Report{
		Metric:    opt.Metric,
		SeqLen:    opt.SeqLen,
		TestRatio: opt.TestRatio,
		Results:   make(map[string]SymbolReport),
	}

	for _, ticker := range tickers {
		symbol := symbols.Normalize(ticker, e.registry.HasAnyArtifact)
		scores := e.evaluateSymbol(ctx, symbol, opt)
		if len(scores) == 0 {
			continue
		}
		sort.Slice(scores, func(i, j int) bool {
			return metricOf(scores[i], opt.Metric) < metricOf(scores[j], opt.Metric)
		})
		report.Results[symbol] = SymbolReport{Best: scores[0].Algorithm, Scores: scores}
		e.log.Info("evaluated",
			logger.String("symbol", symbol),
			logger.String("best", scores[0].Algorithm),
			logger.Float64(opt.Metric, metricOf(scores[0], opt.Metric)),
		)
	}

	path := filepath.Join(e.store.Dir(), "best_models.json")
	if err := e.store.SaveJSON(path, report); err != nil {
		return nil, fmt.Errorf("write %s: %w", path, err)
	}
	return report, nil
}

func metricOf(s AlgoScore, metric string) float64 {
	if metric == "mape" {
		return s.MAPE
	}
	return s.RMSE
}

func (e *Evaluator) evaluateSymbol(ctx context.Context, symbol string, opt Options) []AlgoScore {
	var scores []AlgoScore
	for _, a := range algo.All {
		var score *AlgoScore
		var err error
		switch {
		case a.IsWindowed():
			if !e.registry.ModelArtifactsExist(symbol, a) {
				continue
			}
			score, err = e.evalWindowed(ctx, symbol, a, opt)
		case a == algo.ARIMA:
			score, err = e.evalARIMA(ctx, symbol, opt)
		default:
			// The calendar kind has no comparable held-out protocol here.
			continue
		}
		if err != nil {
			e.log.Warn("evaluation skipped",
				logger.String("symbol", symbol),
				logger.String("algorithm", string(a)),
				logger.Error(err),
			)
			continue
		}
		scores = append(scores, *score)
	}
	return scores
}

// evalWindowed replays the persisted preprocessing over fresh data, holds
// out the most recent windows, and scores the model's one-step
// predictions in currency units.
func (e *Evaluator) evalWindowed(ctx context.Context, symbol string, a algo.Algorithm, opt Options) (*AlgoScore, error) {
	bundle, legacy, err := e.store.LoadBundle(symbol, a)
	if err != nil {
		return nil, err
	}

	raw, err := e.src.Fetch(ctx, symbol, opt.Period, "1d")
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, models.ErrDataUnavailable)
	}
	clean := pipeline.Clean(raw, pipeline.DefaultZScoreThreshold)

	var scaled [][]float64
	if legacy {
		values := make([]float64, len(clean))
		for i, b := range clean {
			values[i] = b.Close
		}
		scaled = bundle.Scalers.TransformClose(values)
	} else {
		cfg := pipeline.Config{
			UseFeatures:    len(bundle.FeatureCols) > 0,
			FeatureColumns: bundle.FeatureCols,
		}
		frame, avail := pipeline.Prepare(clean, cfg)
		scaled, err = bundle.Scalers.Transform(frame, avail)
		if err != nil {
			return nil, err
		}
	}

	X, y := pipeline.BuildSequences(scaled, opt.SeqLen)
	split := int(float64(len(X)) * (1.0 - opt.TestRatio))
	XTest, yTest := X[split:], y[split:]
	if len(XTest) < minTestWindows {
		return nil, fmt.Errorf("%s/%s: %d test windows, need >= %d", symbol, a, len(XTest), minTestWindows)
	}

	predictFn, err := e.windowPredictor(symbol, a)
	if err != nil {
		return nil, err
	}

	yTrue := make([]float64, len(yTest))
	yPred := make([]float64, len(yTest))
	for i := range XTest {
		p, err := predictFn(XTest[i])
		if err != nil {
			return nil, err
		}
		yTrue[i] = bundle.Scalers.InverseClose(yTest[i])
		yPred[i] = bundle.Scalers.InverseClose(p)
	}

	return &AlgoScore{
		Algorithm: string(a),
		RMSE:      RMSE(yTrue, yPred),
		MAPE:      MAPE(yTrue, yPred),
		NTest:     len(yTrue),
	}, nil
}

func (e *Evaluator) windowPredictor(symbol string, a algo.Algorithm) (func([][]float64) (float64, error), error) {
	if a.IsNet() {
		net, err := e.store.LoadNet(symbol, a)
		if err != nil {
			return nil, err
		}
		return net.PredictWindow, nil
	}
	var model algo.BoostModel
	if err := e.store.LoadJSON(e.store.ModelPath(symbol, algo.XGBoost), &model); err != nil {
		return nil, err
	}
	return func(win [][]float64) (float64, error) {
		flat := make([]float64, 0, len(win)*len(win[0]))
		for _, row := range win {
			flat = append(flat, row...)
		}
		return model.Predict(flat)
	}, nil
}

// evalARIMA refits on the training split rather than reusing the saved
// full-series model, then forecasts across the whole held-out tail.
func (e *Evaluator) evalARIMA(ctx context.Context, symbol string, opt Options) (*AlgoScore, error) {
	raw, err := e.src.Fetch(ctx, symbol, opt.Period, "1d")
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, models.ErrDataUnavailable)
	}
	clean := pipeline.Clean(raw, pipeline.DefaultZScoreThreshold)
	if len(clean) < 90 {
		return nil, fmt.Errorf("%s: %d rows, need >= 90: %w", symbol, len(clean), models.ErrInsufficientData)
	}

	y := make([]float64, len(clean))
	for i, b := range clean {
		y[i] = b.Close
	}
	split := int(float64(len(y)) * (1.0 - opt.TestRatio))
	yTrain, yTest := y[:split], y[split:]
	if len(yTest) < minTestWindows {
		return nil, fmt.Errorf("%s/arima: %d test rows, need >= %d", symbol, len(yTest), minTestWindows)
	}

	p, d, q := opt.ArimaOrder[0], opt.ArimaOrder[1], opt.ArimaOrder[2]
	model, err := algo.FitARIMA(yTrain, p, d, q)
	if err != nil {
		return nil, err
	}
	yPred, err := model.ForecastSteps(len(yTest))
	if err != nil {
		return nil, err
	}

	return &AlgoScore{
		Algorithm: string(algo.ARIMA),
		RMSE:      RMSE(yTest, yPred),
		MAPE:      MAPE(yTest, yPred),
		NTest:     len(yTest),
	}, nil
}
