package algo

import (
	"fmt"

	"StockCast/internal/domain/models"
)

// Algorithm identifies one of the seven supported model kinds. The set is
// closed: dispatch is by switch, not open-ended polymorphism.
type Algorithm string

const (
	LSTM    Algorithm = "lstm"
	ANN     Algorithm = "ann"
	GRU     Algorithm = "gru"
	CNNLSTM Algorithm = "cnn_lstm"
	ARIMA   Algorithm = "arima"
	XGBoost Algorithm = "xgboost"
	Prophet Algorithm = "prophet"

	// Best is a pseudo-algorithm resolved against the registry at
	// prediction time; it is never a training target.
	Best Algorithm = "best"
)

// All lists the trainable algorithms in registry scan order. cnn_lstm
// sorts before lstm so filename suffix matching never misparses it.
var All = []Algorithm{CNNLSTM, LSTM, ANN, GRU, ARIMA, XGBoost, Prophet}

// Parse validates a caller-supplied algorithm name.
func Parse(s string) (Algorithm, error) {
	a := Algorithm(s)
	switch a {
	case LSTM, ANN, GRU, CNNLSTM, ARIMA, XGBoost, Prophet:
		return a, nil
	}
	return "", fmt.Errorf("%q: %w", s, models.ErrUnknownAlgorithm)
}

// ParseOrBest additionally accepts the "best" pseudo-value.
func ParseOrBest(s string) (Algorithm, error) {
	if Algorithm(s) == Best {
		return Best, nil
	}
	return Parse(s)
}

// IsNet reports whether the kind is one of the four network kinds stored
// in the zip model container.
func (a Algorithm) IsNet() bool {
	switch a {
	case LSTM, ANN, GRU, CNNLSTM:
		return true
	}
	return false
}

// IsWindowed reports whether the kind trains on scaled windows (and hence
// carries a ScalerSet + feature-column bundle). arima and prophet fit on
// the series directly and have no bundle.
func (a Algorithm) IsWindowed() bool {
	switch a {
	case LSTM, ANN, GRU, CNNLSTM, XGBoost:
		return true
	}
	return false
}

// Flattened reports whether the kind consumes 2-D flattened windows
// rather than 3-D (window, step, feature) tensors.
func (a Algorithm) Flattened() bool {
	return a == ANN || a == XGBoost
}
