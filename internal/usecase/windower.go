package usecase

import (
	"context"
	"sync"

	"WhaleRadar/internal/domain/models"
	drepo "WhaleRadar/internal/domain/repository"
	applogger "WhaleRadar/pkg/logger"
)

// WindowFunc receives the rolling window after a candle closes. The
// slice is a private copy; the callback may retain it.
type WindowFunc func(ctx context.Context, symbol string, window []models.Candle)

// CandleWindower folds raw trades into OHLCV candles at a fixed
// timeframe and keeps a rolling window of closed candles per symbol.
// A candle closes when the first trade of the next bucket arrives.
type CandleWindower struct {
	tf         drepo.Timeframe
	windowSize int
	store      drepo.CandleStore // optional
	metrics    drepo.Metrics
	logger     *applogger.Logger
	onClose    WindowFunc

	mu       sync.Mutex
	building map[string]*models.Candle
	windows  map[string][]models.Candle
}

// NewCandleWindower creates a windower for the given timeframe. store
// may be nil when persistence is disabled.
func NewCandleWindower(
	tf drepo.Timeframe,
	windowSize int,
	store drepo.CandleStore,
	metrics drepo.Metrics,
	logger *applogger.Logger,
	onClose WindowFunc,
) *CandleWindower {
	if windowSize <= 0 {
		windowSize = 120
	}
	return &CandleWindower{
		tf:         tf,
		windowSize: windowSize,
		store:      store,
		metrics:    metrics,
		logger:     logger,
		onClose:    onClose,
		building:   make(map[string]*models.Candle),
		windows:    make(map[string][]models.Candle),
	}
}

// Apply folds one trade into the current bucket for its symbol,
// closing the previous candle if the trade starts a new bucket.
func (w *CandleWindower) Apply(ctx context.Context, t *models.Trade) {
	if t == nil || t.Price <= 0 {
		return
	}
	bucketSec := int64(w.tf.Duration().Seconds())
	if bucketSec <= 0 {
		bucketSec = 1
	}
	bucket := t.Timestamp - t.Timestamp%bucketSec

	w.mu.Lock()
	cur := w.building[t.Symbol]
	if cur != nil && cur.Timestamp == bucket {
		if t.Price > cur.High {
			cur.High = t.Price
		}
		if t.Price < cur.Low {
			cur.Low = t.Price
		}
		cur.Close = t.Price
		cur.Volume += t.Volume
		w.mu.Unlock()
		return
	}
	if cur != nil && bucket < cur.Timestamp {
		// stale trade from an already-superseded bucket; folding it in
		// would emit windows with non-monotonic timestamps
		w.mu.Unlock()
		return
	}

	var closed *models.Candle
	var window []models.Candle
	if cur != nil && cur.Timestamp < bucket {
		c := *cur
		closed = &c
		win := append(w.windows[t.Symbol], c)
		if len(win) > w.windowSize {
			win = win[len(win)-w.windowSize:]
		}
		w.windows[t.Symbol] = win
		window = make([]models.Candle, len(win))
		copy(window, win)
	}
	w.building[t.Symbol] = &models.Candle{
		Open:      t.Price,
		High:      t.Price,
		Low:       t.Price,
		Close:     t.Price,
		Volume:    t.Volume,
		Timestamp: bucket,
	}
	w.mu.Unlock()

	if closed == nil {
		return
	}
	if w.store != nil {
		if err := w.store.Store(ctx, t.Symbol, w.tf, *closed); err != nil {
			w.metrics.RecordError("candle_store")
			if w.logger != nil {
				w.logger.Warn("candle store failed",
					applogger.String("symbol", t.Symbol),
					applogger.Error(err))
			}
		}
	}
	if w.onClose != nil {
		w.onClose(ctx, t.Symbol, window)
	}
}

// Window returns a copy of the current rolling window for a symbol.
func (w *CandleWindower) Window(symbol string) []models.Candle {
	w.mu.Lock()
	defer w.mu.Unlock()
	win := w.windows[symbol]
	out := make([]models.Candle, len(win))
	copy(out, win)
	return out
}
