package algo

import (
	"errors"
	"testing"

	"StockCast/internal/domain/models"
)

func TestParse(t *testing.T) {
	for _, s := range []string{"lstm", "ann", "gru", "cnn_lstm", "arima", "xgboost", "prophet"} {
		a, err := Parse(s)
		if err != nil {
			t.Fatalf("Parse(%q): %v", s, err)
		}
		if string(a) != s {
			t.Fatalf("Parse(%q) = %q", s, a)
		}
	}

	if _, err := Parse("transformer"); !errors.Is(err, models.ErrUnknownAlgorithm) {
		t.Fatalf("expected ErrUnknownAlgorithm, got %v", err)
	}
	// "best" is not a trainable algorithm.
	if _, err := Parse("best"); err == nil {
		t.Fatalf("Parse must reject best")
	}
	if a, err := ParseOrBest("best"); err != nil || a != Best {
		t.Fatalf("ParseOrBest(best) = %q, %v", a, err)
	}
}

func TestAlgorithmKindPredicates(t *testing.T) {
	for _, a := range []Algorithm{LSTM, ANN, GRU, CNNLSTM} {
		if !a.IsNet() || !a.IsWindowed() {
			t.Fatalf("%s must be a windowed network kind", a)
		}
	}
	if XGBoost.IsNet() {
		t.Fatalf("xgboost is not a network kind")
	}
	if !XGBoost.IsWindowed() {
		t.Fatalf("xgboost is windowed")
	}
	for _, a := range []Algorithm{ARIMA, Prophet} {
		if a.IsNet() || a.IsWindowed() {
			t.Fatalf("%s fits on the series directly", a)
		}
	}
	if !ANN.Flattened() || !XGBoost.Flattened() || LSTM.Flattened() {
		t.Fatalf("flattened-input predicate wrong")
	}
}
