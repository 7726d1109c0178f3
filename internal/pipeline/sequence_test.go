package pipeline

import "testing"

func seqRows(n, cols int) [][]float64 {
	out := make([][]float64, n)
	for i := range out {
		row := make([]float64, cols)
		for j := range row {
			row[j] = float64(i) + float64(j)/10
		}
		out[i] = row
	}
	return out
}

func TestBuildSequencesCountAndTarget(t *testing.T) {
	scaled := seqRows(10, 2)
	X, y := BuildSequences(scaled, 3)

	if len(X) != 7 || len(y) != 7 {
		t.Fatalf("expected 7 windows, got %d/%d", len(X), len(y))
	}
	// First window covers rows 0..2; its target is row 3's close column.
	if X[0][0][0] != 0 || X[0][2][0] != 2 {
		t.Fatalf("window rows misaligned: %v", X[0])
	}
	if y[0] != 3 {
		t.Fatalf("expected target 3, got %v", y[0])
	}
	if y[6] != 9 {
		t.Fatalf("expected last target 9, got %v", y[6])
	}
}

func TestBuildSequencesTooShort(t *testing.T) {
	X, y := BuildSequences(seqRows(3, 1), 3)
	if X != nil || y != nil {
		t.Fatalf("expected no windows from 3 rows with seqLen 3")
	}
	if X, _ := BuildSequences(seqRows(5, 1), 0); X != nil {
		t.Fatalf("expected no windows for non-positive seqLen")
	}
}

func TestTrainValSplitTemporalOrder(t *testing.T) {
	scaled := seqRows(25, 1)
	X, y := BuildSequences(scaled, 5)

	XTrain, XVal, yTrain, yVal := TrainValSplit(X, y, 0.2)

	if len(XTrain)+len(XVal) != len(X) {
		t.Fatalf("split lost windows: %d + %d != %d", len(XTrain), len(XVal), len(X))
	}
	if len(yTrain) != len(XTrain) || len(yVal) != len(XVal) {
		t.Fatalf("targets out of step with windows")
	}
	// Every validation target must be strictly later than every training
	// target; the targets here are the row indices themselves.
	maxTrain := yTrain[len(yTrain)-1]
	for _, v := range yVal {
		if v <= maxTrain {
			t.Fatalf("validation target %v not after training targets", v)
		}
	}
}

func TestFlatten2D(t *testing.T) {
	X, _ := BuildSequences(seqRows(8, 3), 4)
	flat := Flatten2D(X)

	if len(flat) != len(X) {
		t.Fatalf("expected %d rows, got %d", len(X), len(flat))
	}
	if len(flat[0]) != 12 {
		t.Fatalf("expected 12 values per row, got %d", len(flat[0]))
	}
	if flat[0][0] != X[0][0][0] || flat[0][11] != X[0][3][2] {
		t.Fatalf("flattening reordered values")
	}
}
