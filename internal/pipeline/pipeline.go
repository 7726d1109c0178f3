package pipeline

import (
	"context"
	"fmt"

	"StockCast/internal/domain/models"
	domrepo "StockCast/internal/domain/repository"
)

// MinExtraRows beyond the sequence length required before training makes
// sense at all.
const MinExtraRows = 20

// Config controls one pipeline run.
type Config struct {
	SeqLen          int
	ValRatio        float64
	ZScoreThreshold float64
	UseFeatures     bool // false selects legacy close-only mode
	FeatureColumns  []string
}

// DefaultConfig returns the standard pipeline configuration.
func DefaultConfig() Config {
	return Config{
		SeqLen:          60,
		ValRatio:        0.1,
		ZScoreThreshold: DefaultZScoreThreshold,
		UseFeatures:     true,
		FeatureColumns:  FeatureCols(),
	}
}

// Result is everything a training run needs: windowed arrays, the fitted
// scalers, the resolved feature column order, and the featured frame kept
// for downstream consumers (analysis endpoints).
type Result struct {
	XTrain, XVal [][][]float64
	YTrain, YVal []float64
	Scalers      *ScalerSet
	FeatureCols  []string
	NFeatures    int
	Frame        *FeatureFrame
}

// Run executes the full pipeline for one symbol: fetch, clean, feature
// engineering, warm-up drop, scale, sequence, temporal split.
func Run(ctx context.Context, src domrepo.BarSource, symbol, period string, cfg Config) (*Result, error) {
	raw, err := src.Fetch(ctx, symbol, period, "1d")
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", symbol, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("fetch %s (period=%s): %w", symbol, period, models.ErrDataUnavailable)
	}

	clean := Clean(raw, cfg.ZScoreThreshold)

	frame, avail := Prepare(clean, cfg)

	minRows := cfg.SeqLen + MinExtraRows
	if frame.Len() < minRows {
		return nil, fmt.Errorf("%s: %d rows after cleaning, need >= %d (try a longer period): %w",
			symbol, frame.Len(), minRows, models.ErrInsufficientData)
	}

	scalers := NewScalerSet()
	var scaled [][]float64
	if cfg.UseFeatures && len(avail) > 0 {
		scaled, err = scalers.FitTransform(frame, avail)
		if err != nil {
			return nil, fmt.Errorf("scale %s: %w", symbol, err)
		}
	} else {
		scaled = scalers.FitTransformClose(frame.Close)
	}

	X, y := BuildSequences(scaled, cfg.SeqLen)
	XTrain, XVal, yTrain, yVal := TrainValSplit(X, y, cfg.ValRatio)

	nFeatures := 1
	if len(scaled) > 0 {
		nFeatures = len(scaled[0])
	}

	return &Result{
		XTrain:      XTrain,
		XVal:        XVal,
		YTrain:      yTrain,
		YVal:        yVal,
		Scalers:     scalers,
		FeatureCols: avail,
		NFeatures:   nFeatures,
		Frame:       frame,
	}, nil
}

// Prepare turns a clean series into a featured (or close-only) frame with
// warm-up rows dropped, and returns the feature columns actually available.
// Shared by training and inference so both sides see identical rows.
func Prepare(clean []models.Bar, cfg Config) (*FeatureFrame, []string) {
	var frame *FeatureFrame
	var avail []string
	if cfg.UseFeatures {
		frame = BuildFeatures(clean)
		avail = frame.SelectColumns(cfg.FeatureColumns)
	} else {
		frame = FrameFromBars(clean)
	}
	frame.DropUndefined(avail)
	frame.Columns = avail
	return frame, avail
}
