package usecase

import (
	"context"
	"sync"
	"testing"

	"WhaleRadar/internal/domain/models"
	"WhaleRadar/internal/services/engine"
	"WhaleRadar/internal/services/risk"
)

type stubPublisher struct {
	mu        sync.Mutex
	published []*models.Signal
}

func (p *stubPublisher) Publish(ctx context.Context, s *models.Signal) error {
	p.mu.Lock()
	p.published = append(p.published, s)
	p.mu.Unlock()
	return nil
}

func (p *stubPublisher) Close() error { return nil }

type stubCache struct {
	mu     sync.Mutex
	latest map[string]*models.Signal
}

func newStubCache() *stubCache { return &stubCache{latest: map[string]*models.Signal{}} }

func (c *stubCache) Put(ctx context.Context, s *models.Signal) error {
	c.mu.Lock()
	c.latest[s.Symbol] = s
	c.mu.Unlock()
	return nil
}

func (c *stubCache) Latest(ctx context.Context, symbol string) (*models.Signal, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latest[symbol], nil
}

// trendingWindow yields a LONG setup: rising closes with a final
// volume push, enough candles for both trend EMAs. Moves stay under
// the fast-move threshold and closes sit mid-range so the anomaly
// scan raises at most the informational volume flag.
func trendingWindow() []models.Candle {
	candles := make([]models.Candle, 0, 59)
	for i := 1; i <= 59; i++ {
		p := 100 + float64(i)
		candles = append(candles, models.Candle{
			Open: p - 0.5, High: p + 0.5, Low: p - 0.5, Close: p,
			Volume: 50, Timestamp: int64(i - 1),
		})
	}
	candles[len(candles)-1].Volume = 150
	return candles
}

func quietFlatWindow() []models.Candle {
	candles := make([]models.Candle, 60)
	for i := range candles {
		candles[i] = models.Candle{Open: 100, High: 100, Low: 100, Close: 100, Volume: 10, Timestamp: int64(i)}
	}
	return candles
}

func newTestScanner(pub *stubPublisher, cache *stubCache, metrics *stubMetrics) *Scanner {
	eng := engine.New(risk.DefaultConfig(), nil)
	return NewScanner(eng, pub, cache, metrics, nil, 1000)
}

func TestScannerAcceptsAndFansOut(t *testing.T) {
	pub := &stubPublisher{}
	cache := newStubCache()
	metrics := newStubMetrics()
	s := newTestScanner(pub, cache, metrics)

	s.OnWindow(context.Background(), "BTCUSDT", trendingWindow())

	if len(pub.published) != 1 {
		t.Fatalf("expected one published signal, got %d", len(pub.published))
	}
	if metrics.signals != 1 {
		t.Fatalf("accepted signal must hit metrics")
	}
	if got, _ := cache.Latest(context.Background(), "BTCUSDT"); got == nil {
		t.Fatalf("accepted signal must land in the cache")
	}
	if sig, ok := s.LatestSignal("BTCUSDT"); !ok || sig.Direction != models.Long {
		t.Fatalf("scanner must retain the last signal")
	}
	if s.AccountState().TradesToday != 1 {
		t.Fatalf("accepted signal must consume the daily trade budget")
	}
}

func TestScannerQuietMarketNoSignal(t *testing.T) {
	pub := &stubPublisher{}
	metrics := newStubMetrics()
	s := newTestScanner(pub, newStubCache(), metrics)

	s.OnWindow(context.Background(), "BTCUSDT", quietFlatWindow())

	if len(pub.published) != 0 {
		t.Fatalf("flat market must not publish")
	}
	if metrics.signals != 0 {
		t.Fatalf("no signal must be recorded")
	}
	if _, ok := s.LatestReport("BTCUSDT"); !ok {
		t.Fatalf("a report is retained even without a signal")
	}
}

func TestScannerDailyLossBlocksSignals(t *testing.T) {
	pub := &stubPublisher{}
	metrics := newStubMetrics()
	s := newTestScanner(pub, newStubCache(), metrics)

	s.RecordLoss(0.10)
	s.OnWindow(context.Background(), "BTCUSDT", trendingWindow())

	if len(pub.published) != 0 {
		t.Fatalf("drained loss budget must block signals")
	}
	if metrics.rejections[string(models.RejectDailyLoss)] != 1 {
		t.Fatalf("rejection stage must be recorded, got %v", metrics.rejections)
	}
}

func TestScannerEmptyWindowIgnored(t *testing.T) {
	s := newTestScanner(&stubPublisher{}, newStubCache(), newStubMetrics())
	s.OnWindow(context.Background(), "BTCUSDT", nil)
	if _, ok := s.LatestReport("BTCUSDT"); ok {
		t.Fatalf("empty window must be ignored")
	}
}
