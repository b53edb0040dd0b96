package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"WhaleRadar/internal/domain/models"
	drepo "WhaleRadar/internal/domain/repository"
	pkgch "WhaleRadar/pkg/clickhouse"
	applogger "WhaleRadar/pkg/logger"
)

// CHCandleStore implements CandleStore backed by ClickHouse. One table
// per timeframe, ordered by (symbol, ts).
type CHCandleStore struct {
	client *pkgch.Client
	db     *sql.DB
	l      *applogger.Logger
}

func NewCHCandleStore(ch *pkgch.Client) *CHCandleStore {
	return &CHCandleStore{client: ch, db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHCandleStore) SetLogger(l *applogger.Logger) { s.l = l }

const candleSchemaTpl = `
CREATE TABLE IF NOT EXISTS %s (
    ts      DateTime,
    symbol  LowCardinality(String),
    open    Float64,
    high    Float64,
    low     Float64,
    close   Float64,
    vol     Float64
) ENGINE = ReplacingMergeTree
ORDER BY (symbol, ts)
`

// Init ensures the candle tables exist and the connection is healthy.
func (s *CHCandleStore) Init(ctx context.Context) error {
	stmts := make([]string, 0, 3)
	for _, tf := range []drepo.Timeframe{drepo.TF1s, drepo.TF1m, drepo.TF5m} {
		table, err := tableForTF(tf)
		if err != nil {
			return err
		}
		stmts = append(stmts, fmt.Sprintf(candleSchemaTpl, table))
	}
	if err := s.client.InitSchema(ctx, stmts); err != nil {
		return err
	}
	return s.client.Health(ctx)
}

func (s *CHCandleStore) Store(ctx context.Context, symbol string, tf drepo.Timeframe, c models.Candle) error {
	table, err := tableForTF(tf)
	if err != nil {
		return err
	}
	q := fmt.Sprintf("INSERT INTO %s (ts, symbol, open, high, low, close, vol) VALUES (?, ?, ?, ?, ?, ?, ?)", table)
	_, err = s.db.ExecContext(ctx, q,
		time.Unix(c.Timestamp, 0),
		symbol,
		c.Open, c.High, c.Low, c.Close, c.Volume,
	)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse store candle error",
				applogger.String("table", table),
				applogger.String("symbol", symbol),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("store candle: %w", err)
	}
	return nil
}

func (s *CHCandleStore) StoreBatch(ctx context.Context, symbol string, tf drepo.Timeframe, candles []models.Candle) error {
	if len(candles) == 0 {
		return nil
	}
	table, err := tableForTF(tf)
	if err != nil {
		return err
	}
	// Multi-row VALUES to cut round-trips, chunked.
	const chunkSize = 2000
	for start := 0; start < len(candles); start += chunkSize {
		end := start + chunkSize
		if end > len(candles) {
			end = len(candles)
		}
		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*7)
		for _, c := range candles[start:end] {
			values = append(values, "(?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				time.Unix(c.Timestamp, 0),
				symbol,
				c.Open, c.High, c.Low, c.Close, c.Volume,
			)
		}
		q := fmt.Sprintf("INSERT INTO %s (ts, symbol, open, high, low, close, vol) VALUES %s", table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("store candle batch: %w", err)
		}
	}
	return nil
}

func (s *CHCandleStore) Query(ctx context.Context, symbol string, tf drepo.Timeframe, from, to time.Time, limit int) ([]models.Candle, error) {
	start := time.Now()
	table, err := tableForTF(tf)
	if err != nil {
		return nil, err
	}
	const qtpl = `
        SELECT ts, open, high, low, close, vol
        FROM %s
        WHERE symbol = ? AND ts >= ? AND ts <= ?
        ORDER BY ts ASC
        LIMIT ?
    `
	q := fmt.Sprintf(qtpl, table)
	rows, err := s.db.QueryContext(ctx, q, symbol, from, to, limit)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse query candles error",
				applogger.String("table", table),
				applogger.String("symbol", symbol),
				applogger.String("tf", string(tf)),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("query candles: %w", err)
	}
	defer rows.Close()

	out := make([]models.Candle, 0, 1024)
	for rows.Next() {
		var c models.Candle
		var ts time.Time
		if err := rows.Scan(&ts, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, fmt.Errorf("scan candle: %w", err)
		}
		c.Timestamp = ts.Unix()
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Debug("clickhouse query candles ok",
			applogger.String("table", table),
			applogger.String("symbol", symbol),
			applogger.String("tf", string(tf)),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (s *CHCandleStore) Health(ctx context.Context) error {
	return s.client.Health(ctx)
}

func (s *CHCandleStore) Close() error {
	return nil // pool owned by pkg client
}

func tableForTF(tf drepo.Timeframe) (string, error) {
	switch tf {
	case drepo.TF1s:
		return "whaleradar.candles_1s", nil
	case drepo.TF1m:
		return "whaleradar.candles_1m", nil
	case drepo.TF5m:
		return "whaleradar.candles_5m", nil
	default:
		return "", fmt.Errorf("unsupported timeframe: %s", tf)
	}
}
