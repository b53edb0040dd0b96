package usecase

import (
	"context"

	"WhaleRadar/internal/domain/models"
	drepo "WhaleRadar/internal/domain/repository"
)

// TradeCollector pulls trades from the market stream and feeds the
// candle windower.
type TradeCollector struct {
	stream   drepo.MarketStream
	windower *CandleWindower
	metrics  drepo.Metrics
}

// NewTradeCollector creates a new TradeCollector instance.
func NewTradeCollector(stream drepo.MarketStream, windower *CandleWindower, metrics drepo.Metrics) *TradeCollector {
	return &TradeCollector{stream: stream, windower: windower, metrics: metrics}
}

// IsConnected returns true if the market stream is connected.
func (c *TradeCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *TradeCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	trCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, trCh, errCh)
	return nil
}

func (c *TradeCollector) consume(ctx context.Context, trCh <-chan *models.Trade, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errCh:
			if err != nil {
				c.metrics.RecordError("stream")
			}
			// The read goroutine closes both channels on failure, so a
			// reconnect must also re-acquire them or the loop would spin
			// on closed channels forever.
			for {
				if ctx.Err() != nil {
					return
				}
				if err := c.stream.Reconnect(ctx); err != nil {
					c.metrics.RecordError("stream")
					continue
				}
				break
			}
			trCh, errCh = c.stream.Read(ctx)
		case t, ok := <-trCh:
			if !ok {
				// drained; the error channel drives the reconnect
				trCh = nil
				continue
			}
			if t == nil {
				continue
			}
			c.windower.Apply(ctx, t)
			c.metrics.RecordLastPrice(t.Symbol, t.Price)
		}
	}
}

func (c *TradeCollector) Stop() error { return c.stream.Close() }
