package algo

import (
	"fmt"
	"math"
	"sort"
)

// Stump is one depth-1 regression tree: route on a single feature
// threshold and emit the left or right leaf value.
type Stump struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      float64 `json:"left"`
	Right     float64 `json:"right"`
}

// BoostModel is a gradient-boosted ensemble of stumps fitted to the
// squared-error objective on flattened windows. Persisted as JSON.
type BoostModel struct {
	Base         float64 `json:"base"`
	LearningRate float64 `json:"learning_rate"`
	Stumps       []Stump `json:"stumps"`
	NFeatures    int     `json:"n_features"`
}

// BoostOptions controls one boosting run.
type BoostOptions struct {
	Rounds       int
	LearningRate float64
	Patience     int
}

// FitBoost trains the ensemble with residual fitting and stops early when
// validation error plateaus.
func FitBoost(X [][]float64, y []float64, XVal [][]float64, yVal []float64, opt BoostOptions) (*BoostModel, error) {
	if len(X) == 0 {
		return nil, fmt.Errorf("boost fit: no training rows")
	}
	if len(X) != len(y) {
		return nil, fmt.Errorf("boost fit: %d rows but %d targets", len(X), len(y))
	}
	if opt.Rounds <= 0 {
		opt.Rounds = 200
	}
	if opt.LearningRate <= 0 {
		opt.LearningRate = 0.1
	}
	if opt.Patience <= 0 {
		opt.Patience = 20
	}

	base := 0.0
	for _, v := range y {
		base += v
	}
	base /= float64(len(y))

	m := &BoostModel{Base: base, LearningRate: opt.LearningRate, NFeatures: len(X[0])}

	pred := make([]float64, len(y))
	for i := range pred {
		pred[i] = base
	}
	valPred := make([]float64, len(yVal))
	for i := range valPred {
		valPred[i] = base
	}

	best := math.Inf(1)
	bestLen := 0
	sinceImproved := 0

	resid := make([]float64, len(y))
	for round := 0; round < opt.Rounds; round++ {
		for i := range y {
			resid[i] = y[i] - pred[i]
		}
		st, ok := fitStump(X, resid)
		if !ok {
			break
		}
		m.Stumps = append(m.Stumps, st)

		for i := range pred {
			pred[i] += opt.LearningRate * st.eval(X[i])
		}
		for i := range valPred {
			valPred[i] += opt.LearningRate * st.eval(XVal[i])
		}

		val := mse(valPred, yVal)
		if math.IsNaN(val) {
			val = mse(pred, y)
		}
		if val < best-1e-12 {
			best = val
			bestLen = len(m.Stumps)
			sinceImproved = 0
		} else {
			sinceImproved++
			if sinceImproved >= opt.Patience {
				break
			}
		}
	}
	m.Stumps = m.Stumps[:bestLen]
	return m, nil
}

// Predict evaluates one flattened window.
func (m *BoostModel) Predict(x []float64) (float64, error) {
	if len(x) != m.NFeatures {
		return 0, fmt.Errorf("boost predict: row dim %d, model expects %d", len(x), m.NFeatures)
	}
	out := m.Base
	for _, st := range m.Stumps {
		out += m.LearningRate * st.eval(x)
	}
	return out, nil
}

func (s Stump) eval(x []float64) float64 {
	if x[s.Feature] <= s.Threshold {
		return s.Left
	}
	return s.Right
}

// fitStump finds the single split minimizing squared error against the
// residuals. Candidate thresholds are quantiles of each feature so runtime
// stays linear in rows per feature.
func fitStump(X [][]float64, resid []float64) (Stump, bool) {
	nRows := len(X)
	nFeat := len(X[0])

	bestGain := 0.0
	var best Stump
	found := false

	total := 0.0
	for _, r := range resid {
		total += r
	}

	vals := make([]float64, nRows)
	idx := make([]int, nRows)
	for f := 0; f < nFeat; f++ {
		for i := range idx {
			idx[i] = i
			vals[i] = X[i][f]
		}
		sort.Slice(idx, func(a, b int) bool { return vals[idx[a]] < vals[idx[b]] })

		leftSum := 0.0
		for k := 0; k < nRows-1; k++ {
			i := idx[k]
			leftSum += resid[i]
			if vals[i] == vals[idx[k+1]] {
				continue
			}
			nL := float64(k + 1)
			nR := float64(nRows - k - 1)
			rightSum := total - leftSum
			gain := leftSum*leftSum/nL + rightSum*rightSum/nR
			if gain > bestGain+1e-12 {
				bestGain = gain
				best = Stump{
					Feature:   f,
					Threshold: (vals[i] + vals[idx[k+1]]) / 2,
					Left:      leftSum / nL,
					Right:     rightSum / nR,
				}
				found = true
			}
		}
	}
	return best, found
}

func mse(pred, y []float64) float64 {
	if len(y) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for i := range y {
		d := pred[i] - y[i]
		sum += d * d
	}
	return sum / float64(len(y))
}
