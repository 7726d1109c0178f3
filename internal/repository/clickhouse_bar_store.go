package repository

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"StockCast/internal/domain/models"
	pkgch "StockCast/pkg/clickhouse"
	applogger "StockCast/pkg/logger"
)

const barsTable = "stockcast.daily_bars"

// Schema returns the idempotent DDL for the bar mirror.
func Schema() []string {
	return []string{
		`CREATE DATABASE IF NOT EXISTS stockcast`,
		`CREATE TABLE IF NOT EXISTS stockcast.daily_bars (
            symbol LowCardinality(String),
            ts     DateTime,
            open   Nullable(Float64),
            high   Nullable(Float64),
            low    Nullable(Float64),
            close  Nullable(Float64),
            vol    Nullable(Float64)
        ) ENGINE = ReplacingMergeTree
        ORDER BY (symbol, ts)`,
	}
}

// CHBarStore implements BarStore backed by ClickHouse. Fetched bars are
// mirrored here so history endpoints do not depend on the upstream
// provider being reachable.
type CHBarStore struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHBarStore(ch *pkgch.Client) *CHBarStore {
	return &CHBarStore{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHBarStore) SetLogger(l *applogger.Logger) { s.l = l }

// SaveBars inserts a batch of bars for a symbol. The table is keyed on
// (symbol, ts) with a replacing merge tree, so re-mirroring the same day
// is harmless. NaN fields are stored as NULL.
func (s *CHBarStore) SaveBars(ctx context.Context, symbol string, bars []models.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	start := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bars batch: %w", err)
	}
	q := fmt.Sprintf(`
        INSERT INTO %s (symbol, ts, open, high, low, close, vol)
        VALUES (?, ?, ?, ?, ?, ?, ?)
    `, barsTable)
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare bars batch: %w", err)
	}
	defer stmt.Close()

	for _, b := range bars {
		if _, err := stmt.ExecContext(ctx, symbol, b.Time,
			nullable(b.Open), nullable(b.High), nullable(b.Low), nullable(b.Close), nullable(b.Volume),
		); err != nil {
			tx.Rollback()
			if s.l != nil {
				s.l.Error("clickhouse save_bars exec error",
					applogger.String("symbol", symbol),
					applogger.Error(err),
				)
			}
			return fmt.Errorf("insert bar: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bars batch: %w", err)
	}

	if s.l != nil {
		s.l.Info("clickhouse save_bars ok",
			applogger.String("symbol", symbol),
			applogger.Int("rows", len(bars)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

// LatestBars returns the most recent n bars for a symbol in ascending
// time order.
func (s *CHBarStore) LatestBars(ctx context.Context, symbol string, n int) ([]models.Bar, error) {
	start := time.Now()
	q := fmt.Sprintf(`
        SELECT ts, open, high, low, close, vol
        FROM %s FINAL
        WHERE symbol = ?
        ORDER BY ts DESC
        LIMIT ?
    `, barsTable)
	rows, err := s.db.QueryContext(ctx, q, symbol, n)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse latest_bars query error",
				applogger.String("symbol", symbol),
				applogger.Int("limit", n),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("get latest bars: %w", err)
	}
	defer rows.Close()

	tmp := make([]models.Bar, 0, n)
	for rows.Next() {
		var b models.Bar
		var open, high, low, closeVal, vol sql.NullFloat64
		if err := rows.Scan(&b.Time, &open, &high, &low, &closeVal, &vol); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		b.Open = fromNullable(open)
		b.High = fromNullable(high)
		b.Low = fromNullable(low)
		b.Close = fromNullable(closeVal)
		b.Volume = fromNullable(vol)
		tmp = append(tmp, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	// reverse to ASC
	for i, j := 0, len(tmp)-1; i < j; i, j = i+1, j-1 {
		tmp[i], tmp[j] = tmp[j], tmp[i]
	}

	if s.l != nil {
		s.l.Info("clickhouse latest_bars ok",
			applogger.String("symbol", symbol),
			applogger.Int("limit", n),
			applogger.Int("rows", len(tmp)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return tmp, nil
}

func nullable(v float64) any {
	if math.IsNaN(v) {
		return nil
	}
	return v
}

func fromNullable(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
