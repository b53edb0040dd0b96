package repository

import (
	"context"
	"time"

	"WhaleRadar/internal/domain/models"
)

// MarketStream is a live source of trades for the configured symbols.
type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Trade, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// CandleStore persists closed candles and serves history queries.
type CandleStore interface {
	Init(ctx context.Context) error // ensure tables, health checks
	Store(ctx context.Context, symbol string, tf Timeframe, c models.Candle) error
	StoreBatch(ctx context.Context, symbol string, tf Timeframe, candles []models.Candle) error
	Query(ctx context.Context, symbol string, tf Timeframe, from, to time.Time, limit int) ([]models.Candle, error)
	Health(ctx context.Context) error
	Close() error
}

// SignalPublisher fans accepted signals out to an external backend.
type SignalPublisher interface {
	Publish(ctx context.Context, s *models.Signal) error
	Close() error
}

// SignalCache keeps the latest signal per symbol for the dashboard.
type SignalCache interface {
	Put(ctx context.Context, s *models.Signal) error
	Latest(ctx context.Context, symbol string) (*models.Signal, error)
}

// Metrics records operational counters for the pipeline.
type Metrics interface {
	RecordSignal(symbol string, direction string)
	RecordRejection(stage string)
	RecordWhaleAlert(symbol string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
	RecordError(kind string)
}
