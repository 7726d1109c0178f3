package algo

import (
	"math/rand"
	"testing"
)

func stepData(rng *rand.Rand, n int) ([][]float64, []float64) {
	X := make([][]float64, n)
	y := make([]float64, n)
	for i := range X {
		v := rng.Float64()
		X[i] = []float64{v, rng.Float64()} // second feature is noise
		if v > 0.5 {
			y[i] = 1
		}
	}
	return X, y
}

func TestFitBoostLearnsStepFunction(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	X, y := stepData(rng, 256)

	// Keep validation points away from the split boundary so the score
	// reflects the learned structure, not threshold placement jitter.
	XVal := make([][]float64, 0, 64)
	yVal := make([]float64, 0, 64)
	for len(XVal) < 64 {
		v := rng.Float64()
		if v > 0.45 && v < 0.55 {
			continue
		}
		XVal = append(XVal, []float64{v, rng.Float64()})
		if v > 0.5 {
			yVal = append(yVal, 1)
		} else {
			yVal = append(yVal, 0)
		}
	}

	m, err := FitBoost(X, y, XVal, yVal, BoostOptions{})
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if len(m.Stumps) == 0 {
		t.Fatalf("no stumps fitted")
	}

	mseVal := 0.0
	for i := range XVal {
		p, err := m.Predict(XVal[i])
		if err != nil {
			t.Fatalf("predict: %v", err)
		}
		d := p - yVal[i]
		mseVal += d * d
	}
	mseVal /= float64(len(XVal))
	if mseVal > 0.01 {
		t.Fatalf("validation MSE %v too high for a step function", mseVal)
	}
}

func TestBoostPredictDimCheck(t *testing.T) {
	m := &BoostModel{Base: 0.5, LearningRate: 0.1, NFeatures: 3}
	if _, err := m.Predict([]float64{1, 2}); err == nil {
		t.Fatalf("expected dimension error")
	}
}

func TestFitBoostValidation(t *testing.T) {
	if _, err := FitBoost(nil, nil, nil, nil, BoostOptions{}); err == nil {
		t.Fatalf("expected error for empty training set")
	}
	if _, err := FitBoost([][]float64{{1}}, []float64{1, 2}, nil, nil, BoostOptions{}); err == nil {
		t.Fatalf("expected length mismatch error")
	}
}

func TestFitBoostConstantTarget(t *testing.T) {
	X := [][]float64{{1}, {2}, {3}, {4}}
	y := []float64{5, 5, 5, 5}

	m, err := FitBoost(X, y, nil, nil, BoostOptions{Rounds: 10})
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	p, err := m.Predict([]float64{2.5})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if p != 5 {
		t.Fatalf("constant target should predict the base, got %v", p)
	}
}
