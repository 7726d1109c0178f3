package algo

import (
	"fmt"
	"math"
	"math/rand"
)

// NetConfig describes the shape and training hyperparameters of a network
// model. It is persisted verbatim inside the model container so inference
// can rebuild the exact architecture.
type NetConfig struct {
	Kind      string  `json:"kind"`
	SeqLen    int     `json:"seq_len"`
	NFeatures int     `json:"n_features"`
	Hidden    []int   `json:"hidden"`
	LR        float64 `json:"lr"`
}

// netArch returns the per-kind hidden layer layout. The four network kinds
// share the regressor core but differ in capacity.
func netArch(kind Algorithm) []int {
	switch kind {
	case LSTM:
		return []int{128, 64, 32}
	case GRU:
		return []int{128, 64, 32}
	case CNNLSTM:
		return []int{64, 64, 32}
	case ANN:
		return []int{256, 128, 64}
	}
	return []int{64, 32}
}

// NewNetConfig builds the default config for a network kind.
func NewNetConfig(kind Algorithm, seqLen, nFeatures int) NetConfig {
	return NetConfig{
		Kind:      string(kind),
		SeqLen:    seqLen,
		NFeatures: nFeatures,
		Hidden:    netArch(kind),
		LR:        1e-3,
	}
}

// Network is a dense regressor over flattened windows: ReLU hidden layers
// and a single linear output predicting the next scaled close.
type Network struct {
	Cfg NetConfig

	// weights[l] is an (in x out) row-major matrix, biases[l] has out
	// entries. Layer sizes: inputDim -> Hidden... -> 1.
	weights [][]float64
	biases  [][]float64
	sizes   []int
}

// InputDim is the flattened window length the network consumes.
func (n *Network) InputDim() int { return n.Cfg.SeqLen * n.Cfg.NFeatures }

// NewNetwork allocates a network with small random initial weights.
func NewNetwork(cfg NetConfig, seed int64) *Network {
	n := &Network{Cfg: cfg}
	n.sizes = append([]int{cfg.SeqLen * cfg.NFeatures}, cfg.Hidden...)
	n.sizes = append(n.sizes, 1)

	rng := rand.New(rand.NewSource(seed))
	for l := 0; l < len(n.sizes)-1; l++ {
		in, out := n.sizes[l], n.sizes[l+1]
		// He initialization, scaled for the ReLU layers.
		scale := math.Sqrt(2.0 / float64(in))
		w := make([]float64, in*out)
		for i := range w {
			w[i] = rng.NormFloat64() * scale
		}
		n.weights = append(n.weights, w)
		n.biases = append(n.biases, make([]float64, out))
	}
	return n
}

// FitOptions controls one training run.
type FitOptions struct {
	Epochs    int
	BatchSize int
	Patience  int
	Seed      int64
}

// FitResult reports how the run ended.
type FitResult struct {
	Epochs      int
	BestValLoss float64
}

// Fit trains with mini-batch gradient descent. Validation loss drives both
// early stopping (restore best weights after Patience epochs without
// improvement) and learning-rate halving on plateau.
func (n *Network) Fit(X [][]float64, y []float64, XVal [][]float64, yVal []float64, opt FitOptions) (*FitResult, error) {
	if len(X) == 0 {
		return nil, fmt.Errorf("net fit: no training windows")
	}
	if len(X) != len(y) {
		return nil, fmt.Errorf("net fit: %d windows but %d targets", len(X), len(y))
	}
	if len(X[0]) != n.InputDim() {
		return nil, fmt.Errorf("net fit: window dim %d, network expects %d", len(X[0]), n.InputDim())
	}
	if opt.BatchSize <= 0 {
		opt.BatchSize = 32
	}
	if opt.Epochs <= 0 {
		opt.Epochs = 50
	}
	if opt.Patience <= 0 {
		opt.Patience = 10
	}

	lr := n.Cfg.LR
	lrPatience := opt.Patience / 2
	if lrPatience < 1 {
		lrPatience = 1
	}

	best := math.Inf(1)
	bestW, bestB := n.snapshot()
	sinceImproved := 0
	sinceLRDrop := 0
	rng := rand.New(rand.NewSource(opt.Seed))
	order := make([]int, len(X))
	for i := range order {
		order[i] = i
	}

	epochs := 0
	for epoch := 0; epoch < opt.Epochs; epoch++ {
		epochs = epoch + 1
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

		for start := 0; start < len(order); start += opt.BatchSize {
			end := start + opt.BatchSize
			if end > len(order) {
				end = len(order)
			}
			n.stepBatch(X, y, order[start:end], lr)
		}

		val := n.loss(XVal, yVal)
		if math.IsNaN(val) {
			// No validation windows; fall back to training loss.
			val = n.loss(X, y)
		}
		if val < best-1e-9 {
			best = val
			bestW, bestB = n.snapshot()
			sinceImproved = 0
			sinceLRDrop = 0
		} else {
			sinceImproved++
			sinceLRDrop++
			if sinceLRDrop >= lrPatience && lr > 1e-6 {
				lr *= 0.5
				sinceLRDrop = 0
			}
			if sinceImproved >= opt.Patience {
				break
			}
		}
	}

	n.weights, n.biases = bestW, bestB
	return &FitResult{Epochs: epochs, BestValLoss: best}, nil
}

// stepBatch applies one gradient step averaged over the batch.
func (n *Network) stepBatch(X [][]float64, y []float64, idx []int, lr float64) {
	nLayers := len(n.weights)
	gradW := make([][]float64, nLayers)
	gradB := make([][]float64, nLayers)
	for l := range n.weights {
		gradW[l] = make([]float64, len(n.weights[l]))
		gradB[l] = make([]float64, len(n.biases[l]))
	}

	for _, i := range idx {
		acts, pre := n.forward(X[i])
		pred := acts[nLayers][0]

		// Squared-error gradient at the output.
		delta := []float64{2 * (pred - y[i])}

		for l := nLayers - 1; l >= 0; l-- {
			in := acts[l]
			inDim, outDim := n.sizes[l], n.sizes[l+1]
			for a := 0; a < inDim; a++ {
				for b := 0; b < outDim; b++ {
					gradW[l][a*outDim+b] += in[a] * delta[b]
				}
			}
			for b := 0; b < outDim; b++ {
				gradB[l][b] += delta[b]
			}
			if l == 0 {
				break
			}
			prev := make([]float64, inDim)
			for a := 0; a < inDim; a++ {
				sum := 0.0
				for b := 0; b < outDim; b++ {
					sum += n.weights[l][a*outDim+b] * delta[b]
				}
				// ReLU derivative at the pre-activation.
				if pre[l-1][a] > 0 {
					prev[a] = sum
				}
			}
			delta = prev
		}
	}

	scale := lr / float64(len(idx))
	for l := range n.weights {
		for i := range n.weights[l] {
			n.weights[l][i] -= scale * gradW[l][i]
		}
		for i := range n.biases[l] {
			n.biases[l][i] -= scale * gradB[l][i]
		}
	}
}

// forward returns the activations of every layer (acts[0] is the input,
// acts[len] the output) and the pre-activation values of the hidden layers.
func (n *Network) forward(x []float64) (acts [][]float64, pre [][]float64) {
	acts = make([][]float64, len(n.sizes))
	pre = make([][]float64, len(n.weights)-1)
	acts[0] = x
	for l := 0; l < len(n.weights); l++ {
		inDim, outDim := n.sizes[l], n.sizes[l+1]
		out := make([]float64, outDim)
		in := acts[l]
		for b := 0; b < outDim; b++ {
			sum := n.biases[l][b]
			for a := 0; a < inDim; a++ {
				sum += in[a] * n.weights[l][a*outDim+b]
			}
			out[b] = sum
		}
		if l < len(n.weights)-1 {
			pre[l] = out
			act := make([]float64, outDim)
			for b, v := range out {
				if v > 0 {
					act[b] = v
				}
			}
			acts[l+1] = act
		} else {
			acts[l+1] = out
		}
	}
	return acts, pre
}

// Predict evaluates one flattened window.
func (n *Network) Predict(x []float64) (float64, error) {
	if len(x) != n.InputDim() {
		return 0, fmt.Errorf("net predict: window dim %d, network expects %d", len(x), n.InputDim())
	}
	acts, _ := n.forward(x)
	return acts[len(acts)-1][0], nil
}

// PredictWindow flattens a (step, feature) window and evaluates it.
func (n *Network) PredictWindow(win [][]float64) (float64, error) {
	flat := make([]float64, 0, n.InputDim())
	for _, row := range win {
		flat = append(flat, row...)
	}
	return n.Predict(flat)
}

// loss is mean squared error; NaN when the set is empty.
func (n *Network) loss(X [][]float64, y []float64) float64 {
	if len(X) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for i := range X {
		acts, _ := n.forward(X[i])
		d := acts[len(acts)-1][0] - y[i]
		sum += d * d
	}
	return sum / float64(len(X))
}

func (n *Network) snapshot() ([][]float64, [][]float64) {
	w := make([][]float64, len(n.weights))
	b := make([][]float64, len(n.biases))
	for l := range n.weights {
		w[l] = append([]float64(nil), n.weights[l]...)
		b[l] = append([]float64(nil), n.biases[l]...)
	}
	return w, b
}

// WeightCount is the total number of parameters, used to validate a
// weights blob before loading it.
func (n *Network) WeightCount() int {
	total := 0
	for l := range n.weights {
		total += len(n.weights[l]) + len(n.biases[l])
	}
	return total
}

// FlattenWeights serializes all parameters layer by layer, weights before
// biases.
func (n *Network) FlattenWeights() []float64 {
	out := make([]float64, 0, n.WeightCount())
	for l := range n.weights {
		out = append(out, n.weights[l]...)
		out = append(out, n.biases[l]...)
	}
	return out
}

// LoadWeights restores parameters produced by FlattenWeights.
func (n *Network) LoadWeights(flat []float64) error {
	if len(flat) != n.WeightCount() {
		return fmt.Errorf("weights blob has %d values, architecture needs %d", len(flat), n.WeightCount())
	}
	pos := 0
	for l := range n.weights {
		copy(n.weights[l], flat[pos:pos+len(n.weights[l])])
		pos += len(n.weights[l])
		copy(n.biases[l], flat[pos:pos+len(n.biases[l])])
		pos += len(n.biases[l])
	}
	return nil
}
