package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"WhaleRadar/internal/domain/models"
	drepo "WhaleRadar/internal/domain/repository"
)

// fakeStream fails its first read session and serves trades on the
// second, mimicking the live client closing both channels on error.
type fakeStream struct {
	mu         sync.Mutex
	reads      int
	reconnects int
	connected  bool
	trades     []*models.Trade
}

func (f *fakeStream) Connect(ctx context.Context) error {
	f.mu.Lock()
	f.connected = true
	f.mu.Unlock()
	return nil
}

func (f *fakeStream) Subscribe(ctx context.Context) error { return nil }

func (f *fakeStream) Read(ctx context.Context) (<-chan *models.Trade, <-chan error) {
	f.mu.Lock()
	f.reads++
	session := f.reads
	f.mu.Unlock()

	trades := make(chan *models.Trade, 16)
	errs := make(chan error, 1)
	if session == 1 {
		errs <- fmt.Errorf("read: connection reset")
		close(errs)
		close(trades)
		return trades, errs
	}
	for _, t := range f.trades {
		trades <- t
	}
	return trades, errs
}

func (f *fakeStream) Reconnect(ctx context.Context) error {
	f.mu.Lock()
	f.reconnects++
	f.connected = true
	f.mu.Unlock()
	return nil
}

func (f *fakeStream) Close() error {
	f.mu.Lock()
	f.connected = false
	f.mu.Unlock()
	return nil
}

func (f *fakeStream) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeStream) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads, f.reconnects
}

func TestCollectorResumesReadingAfterReconnect(t *testing.T) {
	var mu sync.Mutex
	var closed []models.Candle
	w := NewCandleWindower(drepo.TF1m, 10, nil, newStubMetrics(), nil,
		func(ctx context.Context, symbol string, window []models.Candle) {
			mu.Lock()
			closed = append(closed, window[len(window)-1])
			mu.Unlock()
		})

	stream := &fakeStream{trades: []*models.Trade{
		trade("BTCUSDT", 60, 100, 1),
		trade("BTCUSDT", 121, 101, 1), // next bucket closes the first candle
	}}
	c := NewTradeCollector(stream, w, newStubMetrics())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := c.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		mu.Lock()
		n := len(closed)
		mu.Unlock()
		if n >= 1 {
			break
		}
		select {
		case <-deadline:
			reads, reconnects := stream.counts()
			t.Fatalf("no candle after failed session: reads=%d reconnects=%d", reads, reconnects)
		case <-time.After(5 * time.Millisecond):
		}
	}

	reads, reconnects := stream.counts()
	if reconnects != 1 {
		t.Fatalf("expected one reconnect, got %d", reconnects)
	}
	if reads != 2 {
		t.Fatalf("reconnect must re-acquire the stream channels, reads=%d", reads)
	}
	mu.Lock()
	got := closed[0]
	mu.Unlock()
	if got.Timestamp != 60 || got.Close != 100 {
		t.Fatalf("unexpected candle after resume: %+v", got)
	}
}
