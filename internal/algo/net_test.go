package algo

import (
	"math"
	"math/rand"
	"testing"
)

func identityData(rng *rand.Rand, n int) ([][]float64, []float64) {
	X := make([][]float64, n)
	y := make([]float64, n)
	for i := range X {
		v := rng.Float64()
		X[i] = []float64{v}
		y[i] = v
	}
	return X, y
}

func TestNetworkFitLearnsIdentity(t *testing.T) {
	cfg := NetConfig{Kind: "lstm", SeqLen: 1, NFeatures: 1, Hidden: []int{8}, LR: 0.01}
	net := NewNetwork(cfg, 1)

	rng := rand.New(rand.NewSource(2))
	X, y := identityData(rng, 128)
	XVal, yVal := identityData(rng, 32)

	before := 0.0
	for i := range X {
		p, err := net.Predict(X[i])
		if err != nil {
			t.Fatalf("predict: %v", err)
		}
		d := p - y[i]
		before += d * d
	}
	before /= float64(len(X))

	res, err := net.Fit(X, y, XVal, yVal, FitOptions{Epochs: 300, BatchSize: 16, Patience: 50, Seed: 3})
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if math.IsNaN(res.BestValLoss) || math.IsInf(res.BestValLoss, 0) {
		t.Fatalf("bad validation loss %v", res.BestValLoss)
	}

	after := 0.0
	for i := range X {
		p, _ := net.Predict(X[i])
		d := p - y[i]
		after += d * d
	}
	after /= float64(len(X))

	if after >= before {
		t.Fatalf("training did not reduce MSE: before %v, after %v", before, after)
	}
	if after > 0.05 {
		t.Fatalf("MSE %v too high for the identity task", after)
	}
}

func TestNetworkWeightsRoundTrip(t *testing.T) {
	cfg := NewNetConfig(GRU, 5, 3)
	a := NewNetwork(cfg, 7)
	b := NewNetwork(cfg, 99)

	if err := b.LoadWeights(a.FlattenWeights()); err != nil {
		t.Fatalf("load: %v", err)
	}

	rng := rand.New(rand.NewSource(11))
	x := make([]float64, a.InputDim())
	for i := range x {
		x[i] = rng.Float64()
	}
	pa, err := a.Predict(x)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	pb, _ := b.Predict(x)
	if pa != pb {
		t.Fatalf("restored network disagrees: %v vs %v", pa, pb)
	}
}

func TestNetworkLoadWeightsSizeCheck(t *testing.T) {
	net := NewNetwork(NewNetConfig(LSTM, 4, 2), 1)
	if err := net.LoadWeights(make([]float64, 3)); err == nil {
		t.Fatalf("expected error for wrong weight count")
	}
}

func TestNetworkPredictDimCheck(t *testing.T) {
	net := NewNetwork(NewNetConfig(ANN, 4, 2), 1)
	if _, err := net.Predict([]float64{1, 2}); err == nil {
		t.Fatalf("expected dimension error")
	}
}

func TestPredictWindowMatchesFlat(t *testing.T) {
	net := NewNetwork(NewNetConfig(CNNLSTM, 2, 3), 5)
	win := [][]float64{{0.1, 0.2, 0.3}, {0.4, 0.5, 0.6}}
	flat := []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6}

	pw, err := net.PredictWindow(win)
	if err != nil {
		t.Fatalf("predict window: %v", err)
	}
	pf, _ := net.Predict(flat)
	if pw != pf {
		t.Fatalf("window and flat predictions differ: %v vs %v", pw, pf)
	}
}

func TestNetworkFitValidation(t *testing.T) {
	net := NewNetwork(NewNetConfig(LSTM, 2, 1), 1)
	if _, err := net.Fit(nil, nil, nil, nil, FitOptions{}); err == nil {
		t.Fatalf("expected error for empty training set")
	}
	if _, err := net.Fit([][]float64{{1}}, []float64{1}, nil, nil, FitOptions{}); err == nil {
		t.Fatalf("expected dimension error")
	}
}
