package repository

import (
	"context"
	"time"

	"StockCast/internal/domain/models"
)

// BarSource retrieves OHLCV bars from a market data provider. An empty
// result is a normal outcome (invalid symbol, closed market), not an error.
type BarSource interface {
	Fetch(ctx context.Context, symbol, period, interval string) ([]models.Bar, error)
}

// BarStore mirrors fetched bars into durable storage and serves history
// queries.
type BarStore interface {
	SaveBars(ctx context.Context, symbol string, bars []models.Bar) error
	LatestBars(ctx context.Context, symbol string, n int) ([]models.Bar, error)
}

// BytesCache is a byte-oriented cache with per-key TTL.
type BytesCache interface {
	GetBytes(key string) ([]byte, bool, error)
	SetBytes(key string, value []byte, ttl time.Duration) error
}

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
}
