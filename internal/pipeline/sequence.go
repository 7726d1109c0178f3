package pipeline

// BuildSequences creates overlapping (window, target) pairs for supervised
// learning. Each window is seqLen consecutive scaled rows; the target is
// the scaled close (column 0) of the row immediately after the window.
// n input rows yield n-seqLen windows; fewer than seqLen+1 rows yield none.
func BuildSequences(scaled [][]float64, seqLen int) ([][][]float64, []float64) {
	n := len(scaled)
	if seqLen <= 0 || n <= seqLen {
		return nil, nil
	}
	X := make([][][]float64, 0, n-seqLen)
	y := make([]float64, 0, n-seqLen)
	for i := seqLen; i < n; i++ {
		X = append(X, scaled[i-seqLen:i])
		y = append(y, scaled[i][0])
	}
	return X, y
}

// TrainValSplit partitions windows in time order: everything before
// floor(n*(1-valRatio)) trains, the rest validates. Never shuffled, so the
// validation set is strictly later than the training set.
func TrainValSplit(X [][][]float64, y []float64, valRatio float64) (XTrain, XVal [][][]float64, yTrain, yVal []float64) {
	split := int(float64(len(X)) * (1.0 - valRatio))
	return X[:split], X[split:], y[:split], y[split:]
}

// Flatten2D reshapes windows into flat rows by concatenating time steps,
// for the flattened-input model kinds.
func Flatten2D(X [][][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i, win := range X {
		flat := make([]float64, 0, len(win)*len(win[0]))
		for _, row := range win {
			flat = append(flat, row...)
		}
		out[i] = flat
	}
	return out
}
