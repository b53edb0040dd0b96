package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"WhaleRadar/internal/domain/models"
	drepo "WhaleRadar/internal/domain/repository"

	"github.com/gorilla/websocket"
)

// Client implements a MarketStream backed by the Binance combined
// trade stream.
type Client struct {
	websocketURL   string
	symbols        []string
	reconnectDelay time.Duration
	pingInterval   time.Duration

	conn      *websocket.Conn
	connected bool
	subID     int
	backoff   time.Duration
}

// New creates a new Binance MarketStream.
func New(websocketURL string, symbols []string, reconnectDelay, pingInterval time.Duration) drepo.MarketStream {
	return &Client{
		websocketURL:   websocketURL,
		symbols:        symbols,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
	}
}

func streamName(symbol string) string {
	return strings.ToLower(symbol) + "@trade"
}

// Connect establishes the WebSocket connection against the combined
// stream endpoint for all configured symbols.
func (c *Client) Connect(ctx context.Context) error {
	streams := make([]string, 0, len(c.symbols))
	for _, s := range c.symbols {
		streams = append(streams, streamName(s))
	}
	u := fmt.Sprintf("%s/stream?streams=%s", strings.TrimRight(c.websocketURL, "/"), strings.Join(streams, "/"))
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("binance connect: %w", err)
	}
	c.conn = conn
	c.connected = true
	log.Printf("binance: connected")
	return nil
}

// Subscribe sends an explicit SUBSCRIBE frame for the configured
// symbols. The combined-stream URL already carries them, so this is a
// no-op refresh that also verifies the connection is writable.
func (c *Client) Subscribe(ctx context.Context) error {
	if c.conn == nil || !c.connected {
		return fmt.Errorf("binance not connected")
	}
	params := make([]string, 0, len(c.symbols))
	for _, s := range c.symbols {
		params = append(params, streamName(s))
	}
	c.subID++
	msg := map[string]interface{}{"method": "SUBSCRIBE", "params": params, "id": c.subID}
	if err := c.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	log.Printf("binance: subscribed %s", strings.Join(c.symbols, ","))
	return nil
}

// bnTrade is the trade payload inside a combined-stream frame. Binance
// sends price and quantity as decimal strings.
type bnTrade struct {
	Event    string `json:"e"`
	Symbol   string `json:"s"`
	Price    string `json:"p"`
	Quantity string `json:"q"`
	TradeTS  int64  `json:"T"` // ms
}

type bnMessage struct {
	Stream string  `json:"stream"`
	Data   bnTrade `json:"data"`
}

// Read streams Trade events and errors.
func (c *Client) Read(ctx context.Context) (<-chan *models.Trade, <-chan error) {
	trades := make(chan *models.Trade, 1024)
	errs := make(chan error, 1)

	// ping loop
	go func() {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if c.conn != nil {
					_ = c.conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(trades)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if c.conn == nil {
					errs <- fmt.Errorf("binance conn nil")
					return
				}
				_, b, err := c.conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("binance read: %w", err)
					return
				}
				var m bnMessage
				if err := json.Unmarshal(b, &m); err != nil {
					// ignore non-trade frames (subscribe acks etc.)
					continue
				}
				if m.Data.Event != "trade" {
					continue
				}
				price, err := strconv.ParseFloat(m.Data.Price, 64)
				if err != nil {
					continue
				}
				qty, err := strconv.ParseFloat(m.Data.Quantity, 64)
				if err != nil {
					continue
				}
				trade := &models.Trade{
					Symbol:    m.Data.Symbol,
					Timestamp: m.Data.TradeTS / 1000,
					Price:     price,
					Volume:    qty,
				}
				select {
				case trades <- trade:
				default:
					// drop on backpressure
				}
			}
		}
	}()

	return trades, errs
}

// maxReconnectDelay caps the backoff between reconnect attempts.
const maxReconnectDelay = 60 * time.Second

// Reconnect closes and reconnects, doubling the wait on consecutive
// failures up to maxReconnectDelay. Success resets the backoff.
func (c *Client) Reconnect(ctx context.Context) error {
	_ = c.Close()
	if c.backoff <= 0 {
		c.backoff = c.reconnectDelay
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.backoff):
	}
	if err := c.Connect(ctx); err != nil {
		c.backoff *= 2
		if c.backoff > maxReconnectDelay {
			c.backoff = maxReconnectDelay
		}
		return err
	}
	c.backoff = c.reconnectDelay
	return c.Subscribe(ctx)
}

// Close closes the WS connection.
func (c *Client) Close() error {
	c.connected = false
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (c *Client) IsConnected() bool { return c.connected }
