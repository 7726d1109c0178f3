package algo

import (
	"fmt"
)

// ARIMAModel is an autoregressive model of order (p, d, q) fitted on the
// raw close series. The MA term q is carried through configuration and
// persisted for compatibility but not estimated; forecasts come from the
// AR coefficients on the d-times differenced series.
type ARIMAModel struct {
	P         int       `json:"p"`
	D         int       `json:"d"`
	Q         int       `json:"q"`
	Intercept float64   `json:"intercept"`
	Coeffs    []float64 `json:"coeffs"`
	// Tail holds the last p+d raw observations so the model can forecast
	// without the training series.
	Tail []float64 `json:"tail"`
}

// FitARIMA estimates the AR coefficients by least squares on the
// differenced series.
func FitARIMA(series []float64, p, d, q int) (*ARIMAModel, error) {
	if p < 1 {
		return nil, fmt.Errorf("arima fit: p must be >= 1, got %d", p)
	}
	if d < 0 {
		return nil, fmt.Errorf("arima fit: d must be >= 0, got %d", d)
	}
	diffed := append([]float64(nil), series...)
	for i := 0; i < d; i++ {
		diffed = difference(diffed)
	}
	if len(diffed) < p+2 {
		return nil, fmt.Errorf("arima fit: %d observations after differencing, need > %d", len(diffed), p+1)
	}

	// Rows: one per target; columns: intercept plus p lags.
	n := len(diffed) - p
	X := make([][]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		row := make([]float64, p+1)
		row[0] = 1
		for j := 0; j < p; j++ {
			row[1+j] = diffed[i+p-1-j]
		}
		X[i] = row
		y[i] = diffed[i+p]
	}
	beta, err := olsSolve(X, y)
	if err != nil {
		return nil, fmt.Errorf("arima fit: %w", err)
	}

	tailLen := p + d
	if tailLen > len(series) {
		tailLen = len(series)
	}
	return &ARIMAModel{
		P:         p,
		D:         d,
		Q:         q,
		Intercept: beta[0],
		Coeffs:    beta[1:],
		Tail:      append([]float64(nil), series[len(series)-tailLen:]...),
	}, nil
}

// Forecast produces the next value of the raw series, integrating the
// differenced forecast back through the stored tail.
func (m *ARIMAModel) Forecast() (float64, error) {
	return m.forecastFrom(m.Tail)
}

// ForecastSteps rolls the model forward n steps, feeding each forecast
// back in as an observation.
func (m *ARIMAModel) ForecastSteps(n int) ([]float64, error) {
	working := append([]float64(nil), m.Tail...)
	out := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		next, err := m.forecastFrom(working)
		if err != nil {
			return nil, err
		}
		out = append(out, next)
		working = append(working, next)
	}
	return out, nil
}

func (m *ARIMAModel) forecastFrom(tail []float64) (float64, error) {
	if len(tail) < m.P+m.D {
		return 0, fmt.Errorf("arima forecast: tail has %d values, need %d", len(tail), m.P+m.D)
	}
	// Rebuild the differenced tail.
	diffed := append([]float64(nil), tail...)
	lastLevels := make([]float64, 0, m.D)
	for i := 0; i < m.D; i++ {
		lastLevels = append(lastLevels, diffed[len(diffed)-1])
		diffed = difference(diffed)
	}

	next := m.Intercept
	for j := 0; j < m.P; j++ {
		next += m.Coeffs[j] * diffed[len(diffed)-1-j]
	}
	// Undo differencing, innermost first.
	for i := m.D - 1; i >= 0; i-- {
		next += lastLevels[i]
	}
	return next, nil
}

func difference(v []float64) []float64 {
	if len(v) < 2 {
		return nil
	}
	out := make([]float64, len(v)-1)
	for i := 1; i < len(v); i++ {
		out[i-1] = v[i] - v[i-1]
	}
	return out
}

// olsSolve solves the least-squares problem via the normal equations with
// Gaussian elimination and partial pivoting. Adequate for the handful of
// regressors used here.
func olsSolve(X [][]float64, y []float64) ([]float64, error) {
	k := len(X[0])
	ata := make([][]float64, k)
	atb := make([]float64, k)
	for i := 0; i < k; i++ {
		ata[i] = make([]float64, k)
	}
	for r := range X {
		for i := 0; i < k; i++ {
			atb[i] += X[r][i] * y[r]
			for j := 0; j < k; j++ {
				ata[i][j] += X[r][i] * X[r][j]
			}
		}
	}
	// Ridge jitter keeps near-collinear regressors solvable.
	for i := 0; i < k; i++ {
		ata[i][i] += 1e-8
	}

	for col := 0; col < k; col++ {
		pivot := col
		for r := col + 1; r < k; r++ {
			if abs(ata[r][col]) > abs(ata[pivot][col]) {
				pivot = r
			}
		}
		if ata[pivot][col] == 0 {
			return nil, fmt.Errorf("singular design matrix")
		}
		ata[col], ata[pivot] = ata[pivot], ata[col]
		atb[col], atb[pivot] = atb[pivot], atb[col]

		for r := col + 1; r < k; r++ {
			f := ata[r][col] / ata[col][col]
			for c := col; c < k; c++ {
				ata[r][c] -= f * ata[col][c]
			}
			atb[r] -= f * atb[col]
		}
	}
	beta := make([]float64, k)
	for i := k - 1; i >= 0; i-- {
		sum := atb[i]
		for j := i + 1; j < k; j++ {
			sum -= ata[i][j] * beta[j]
		}
		beta[i] = sum / ata[i][i]
	}
	return beta, nil
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
