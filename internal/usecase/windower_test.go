package usecase

import (
	"context"
	"sync"
	"testing"

	"WhaleRadar/internal/domain/models"
	drepo "WhaleRadar/internal/domain/repository"
)

type stubMetrics struct {
	mu         sync.Mutex
	signals    int
	rejections map[string]int
	whale      int
	errors     map[string]int
}

func newStubMetrics() *stubMetrics {
	return &stubMetrics{rejections: map[string]int{}, errors: map[string]int{}}
}

func (m *stubMetrics) RecordSignal(symbol, direction string) {
	m.mu.Lock()
	m.signals++
	m.mu.Unlock()
}

func (m *stubMetrics) RecordRejection(stage string) {
	m.mu.Lock()
	m.rejections[stage]++
	m.mu.Unlock()
}

func (m *stubMetrics) RecordWhaleAlert(symbol string) {
	m.mu.Lock()
	m.whale++
	m.mu.Unlock()
}

func (m *stubMetrics) RecordLastPrice(symbol string, price float64) {}
func (m *stubMetrics) RecordLatency(op string, seconds float64)     {}

func (m *stubMetrics) RecordError(kind string) {
	m.mu.Lock()
	m.errors[kind]++
	m.mu.Unlock()
}

func trade(symbol string, ts int64, price, volume float64) *models.Trade {
	return &models.Trade{Symbol: symbol, Timestamp: ts, Price: price, Volume: volume}
}

func TestWindowerFoldsTradesIntoCandle(t *testing.T) {
	var closed []models.Candle
	w := NewCandleWindower(drepo.TF1m, 10, nil, newStubMetrics(), nil,
		func(ctx context.Context, symbol string, window []models.Candle) {
			closed = append(closed, window[len(window)-1])
		})

	ctx := context.Background()
	w.Apply(ctx, trade("BTCUSDT", 60, 100, 1))
	w.Apply(ctx, trade("BTCUSDT", 75, 110, 2))
	w.Apply(ctx, trade("BTCUSDT", 90, 95, 1))
	// next bucket closes the first candle
	w.Apply(ctx, trade("BTCUSDT", 121, 101, 1))

	if len(closed) != 1 {
		t.Fatalf("expected one closed candle, got %d", len(closed))
	}
	c := closed[0]
	if c.Open != 100 || c.High != 110 || c.Low != 95 || c.Close != 95 {
		t.Fatalf("bad OHLC: %+v", c)
	}
	if c.Volume != 4 {
		t.Fatalf("volume must accumulate, got %v", c.Volume)
	}
	if c.Timestamp != 60 {
		t.Fatalf("candle timestamp must be the bucket start, got %d", c.Timestamp)
	}
}

func TestWindowerKeepsSymbolsSeparate(t *testing.T) {
	w := NewCandleWindower(drepo.TF1m, 10, nil, newStubMetrics(), nil, nil)
	ctx := context.Background()

	w.Apply(ctx, trade("BTCUSDT", 60, 100, 1))
	w.Apply(ctx, trade("ETHUSDT", 60, 10, 1))
	w.Apply(ctx, trade("BTCUSDT", 121, 101, 1))

	if len(w.Window("BTCUSDT")) != 1 {
		t.Fatalf("BTC window must hold the closed candle")
	}
	if len(w.Window("ETHUSDT")) != 0 {
		t.Fatalf("ETH candle is still building")
	}
}

func TestWindowerTrimsToWindowSize(t *testing.T) {
	w := NewCandleWindower(drepo.TF1s, 3, nil, newStubMetrics(), nil, nil)
	ctx := context.Background()
	for i := int64(0); i < 10; i++ {
		w.Apply(ctx, trade("BTCUSDT", i, 100+float64(i), 1))
	}
	win := w.Window("BTCUSDT")
	if len(win) != 3 {
		t.Fatalf("expected window of 3, got %d", len(win))
	}
	if win[len(win)-1].Timestamp != 8 {
		t.Fatalf("window must end at the last closed candle, got %d", win[len(win)-1].Timestamp)
	}
}

func TestWindowerDropsStaleTrades(t *testing.T) {
	var closed []models.Candle
	w := NewCandleWindower(drepo.TF1m, 10, nil, newStubMetrics(), nil,
		func(ctx context.Context, symbol string, window []models.Candle) {
			closed = append(closed, window[len(window)-1])
		})
	ctx := context.Background()

	w.Apply(ctx, trade("BTCUSDT", 125, 100, 1))
	// a late trade from an earlier bucket must not replace the building candle
	w.Apply(ctx, trade("BTCUSDT", 59, 90, 1))
	w.Apply(ctx, trade("BTCUSDT", 181, 101, 1))

	if len(closed) != 1 {
		t.Fatalf("expected one closed candle, got %d", len(closed))
	}
	if closed[0].Timestamp != 120 || closed[0].Close != 100 {
		t.Fatalf("stale trade leaked into the window: %+v", closed[0])
	}
}

func TestWindowerIgnoresBadTrades(t *testing.T) {
	w := NewCandleWindower(drepo.TF1m, 10, nil, newStubMetrics(), nil, nil)
	ctx := context.Background()
	w.Apply(ctx, nil)
	w.Apply(ctx, trade("BTCUSDT", 60, 0, 1))
	if len(w.Window("BTCUSDT")) != 0 {
		t.Fatalf("bad trades must not open candles")
	}
}
