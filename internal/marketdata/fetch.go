package marketdata

import (
	"context"
	"fmt"
	"math"
	"time"

	"StockCast/internal/domain/models"
	domrepo "StockCast/internal/domain/repository"
	"StockCast/pkg/metrics"
)

const fetchAttempts = 3

// RetrySource wraps a BarSource and retries transient empty responses with
// linear backoff (2s, then 4s). The provider intermittently returns empty
// chart results for valid symbols; a couple of retries usually clears it.
type RetrySource struct {
	src      domrepo.BarSource
	attempts int
	sleep    func(context.Context, time.Duration)
	rec      *metrics.Recorder
}

// NewRetrySource wraps src with the standard retry policy.
func NewRetrySource(src domrepo.BarSource) *RetrySource {
	return &RetrySource{src: src, attempts: fetchAttempts, sleep: sleepCtx}
}

// SetRecorder enables fetch failure metrics.
func (r *RetrySource) SetRecorder(rec *metrics.Recorder) { r.rec = rec }

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// Fetch retries until a non-empty result, a hard error, or attempts are
// exhausted. An exhausted run returns the final (empty or failed) outcome.
func (r *RetrySource) Fetch(ctx context.Context, symbol, period, interval string) ([]models.Bar, error) {
	var bars []models.Bar
	var err error
	for attempt := 0; attempt < r.attempts; attempt++ {
		if attempt > 0 {
			r.sleep(ctx, time.Duration(2*attempt)*time.Second)
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
		}
		bars, err = r.src.Fetch(ctx, symbol, period, interval)
		if err == nil && len(bars) > 0 {
			return bars, nil
		}
	}
	if r.rec != nil {
		r.rec.RecordFetchError(symbol)
	}
	return bars, err
}

// FetchCloseSeries retrieves the timestamped close column for a symbol,
// dropping rows with no close. Used for current-price lookups and the
// series-fitting model kinds.
func FetchCloseSeries(ctx context.Context, src domrepo.BarSource, symbol, period string) ([]models.ClosePoint, error) {
	bars, err := src.Fetch(ctx, symbol, period, "1d")
	if err != nil {
		return nil, fmt.Errorf("fetch close series %s: %w", symbol, err)
	}
	points := make([]models.ClosePoint, 0, len(bars))
	for _, b := range bars {
		if math.IsNaN(b.Close) {
			continue
		}
		points = append(points, models.ClosePoint{Time: b.Time, Close: b.Close})
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("no close data for %s (period=%s): %w", symbol, period, models.ErrDataUnavailable)
	}
	return points, nil
}
