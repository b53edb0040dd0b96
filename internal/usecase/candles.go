package usecase

import (
	"context"
	"fmt"
	"time"

	"WhaleRadar/internal/domain/models"
	drepo "WhaleRadar/internal/domain/repository"
)

// CandlesUseCase provides business logic for retrieving stored candles.
type CandlesUseCase struct {
	store drepo.CandleStore
}

func NewCandlesUseCase(store drepo.CandleStore) *CandlesUseCase {
	return &CandlesUseCase{store: store}
}

type GetCandlesParams struct {
	Symbol    string
	From      time.Time
	To        time.Time
	Timeframe drepo.Timeframe
	Limit     int
}

type GetCandlesResult struct {
	Symbol    string
	Timeframe string
	From      time.Time
	To        time.Time
	Count     int
	Candles   []models.Candle
}

func (uc *CandlesUseCase) GetCandles(ctx context.Context, p GetCandlesParams) (*GetCandlesResult, error) {
	if uc.store == nil {
		return nil, fmt.Errorf("candle storage disabled")
	}
	if p.Symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	if p.From.After(p.To) {
		return nil, fmt.Errorf("from must be <= to")
	}
	if p.Limit <= 0 {
		p.Limit = 10000
	}
	if p.Limit > 50000 {
		p.Limit = 50000
	}

	candles, err := uc.store.Query(ctx, p.Symbol, p.Timeframe, p.From, p.To, p.Limit)
	if err != nil {
		return nil, fmt.Errorf("get candles: %w", err)
	}

	return &GetCandlesResult{
		Symbol:    p.Symbol,
		Timeframe: string(p.Timeframe),
		From:      p.From,
		To:        p.To,
		Count:     len(candles),
		Candles:   candles,
	}, nil
}
