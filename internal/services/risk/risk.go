// Package risk vets pre-signals against account state and risk limits.
// The filter is an ordered short-circuit chain: the first failing check
// rejects and nothing partial is ever returned.
package risk

import (
	"fmt"
	"math"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"

	"WhaleRadar/internal/domain/models"
)

// Config enumerates every recognized risk option with its default.
// It is resolved and validated once at the boundary and then passed
// immutably through the pipeline.
type Config struct {
	RiskPerTrade        float64 `yaml:"risk_per_trade" json:"risk_per_trade" default:"0.01" validate:"gt=0,lte=1"`
	MaxDailyLoss        float64 `yaml:"max_daily_loss" json:"max_daily_loss" default:"0.03" validate:"gte=0,lte=1"`
	MaxTradesPerDay     int     `yaml:"max_trades_per_day" json:"max_trades_per_day" default:"5" validate:"gte=1"`
	MaxVolatilityPct    float64 `yaml:"max_volatility_pct" json:"max_volatility_pct" default:"0.025" validate:"gt=0,lte=1"`
	VolumeFactorConfirm float64 `yaml:"volume_factor_confirm" json:"volume_factor_confirm" default:"1.5" validate:"gt=0"`
	MinRR               float64 `yaml:"min_rr" json:"min_rr" default:"2.0" validate:"gte=1"`
}

var validate = validator.New()

// ResolveConfig fills zero fields with defaults and validates the result.
func ResolveConfig(cfg Config) (Config, error) {
	if err := defaults.Set(&cfg); err != nil {
		return Config{}, fmt.Errorf("risk config defaults: %w", err)
	}
	if err := validate.Struct(&cfg); err != nil {
		return Config{}, fmt.Errorf("risk config invalid: %w", err)
	}
	return cfg, nil
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	cfg, _ := ResolveConfig(Config{})
	return cfg
}

// slDistanceFactor sizes the stop distance from ATR. Together with the
// 2x take-profit distance below it hard-codes a 1:2 risk/reward by
// construction.
const slDistanceFactor = 1.5

// PositionSize computes the position size in currency units:
// (balance * riskPerTrade) / slDistance.
func PositionSize(balance, riskPerTrade, slDistance float64) (float64, error) {
	if slDistance <= 0 {
		return 0, fmt.Errorf("sl distance must be > 0")
	}
	if riskPerTrade <= 0 {
		return 0, fmt.Errorf("risk per trade must be > 0")
	}
	if balance <= 0 {
		return 0, fmt.Errorf("balance must be > 0")
	}
	return balance * riskPerTrade / slDistance, nil
}

// ValidateStops checks SL/TP sidedness and the minimum risk/reward.
func ValidateStops(entry, sl, tp float64, direction models.Direction, minRR float64) bool {
	if !direction.Valid() {
		return false
	}

	var slDist, tpDist float64
	if direction == models.Long {
		if !(sl < entry && entry < tp) {
			return false
		}
		slDist = entry - sl
		tpDist = tp - entry
	} else {
		if !(tp < entry && entry < sl) {
			return false
		}
		slDist = sl - entry
		tpDist = entry - tp
	}

	if slDist <= 0 || tpDist <= 0 {
		return false
	}
	return tpDist/slDist >= minRR
}

// ExceedsDailyLoss reports whether the accumulated loss reached the cap.
func ExceedsDailyLoss(cumulativeLoss, maxDailyLoss float64) bool {
	return cumulativeLoss >= maxDailyLoss
}

// ExceedsTradeCount reports whether the daily trade budget is used up.
func ExceedsTradeCount(tradesToday, maxTrades int) bool {
	return tradesToday >= maxTrades
}

// WithinVolatility reports whether ATR relative to entry stays under the
// configured ceiling.
func WithinVolatility(atr, maxVolatilityPct, entry float64) bool {
	if entry <= 0 {
		return false
	}
	return atr/entry <= maxVolatilityPct
}

// Filter applies the risk rules to pre-signals.
type Filter struct {
	cfg Config
}

// NewFilter builds a filter from a resolved config.
func NewFilter(cfg Config) *Filter { return &Filter{cfg: cfg} }

// Accept vets the pre-signal against the account snapshot and either
// returns a new vetted signal or nil with the rejection stage. The
// pre-signal is never mutated.
func (f *Filter) Accept(pre *models.PreSignal, state models.RiskState) (*models.VettedSignal, models.Rejection) {
	if pre == nil || !pre.Direction.Valid() || pre.EntryPrice == 0 {
		return nil, models.RejectBadInput
	}
	if pre.ATR == nil || math.IsNaN(*pre.ATR) {
		return nil, models.RejectBadInput
	}
	atr := *pre.ATR

	if ExceedsDailyLoss(state.CumulativeLoss, f.cfg.MaxDailyLoss) {
		return nil, models.RejectDailyLoss
	}
	if ExceedsTradeCount(state.TradesToday, f.cfg.MaxTradesPerDay) {
		return nil, models.RejectTradeCount
	}

	slDistance := slDistanceFactor * atr
	if slDistance <= 0 {
		return nil, models.RejectStopInvalid
	}

	entry := pre.EntryPrice
	var sl, tp float64
	if pre.Direction == models.Long {
		sl = entry - slDistance
		tp = entry + slDistance*2.0
	} else {
		sl = entry + slDistance
		tp = entry - slDistance*2.0
	}

	if !ValidateStops(entry, sl, tp, pre.Direction, f.cfg.MinRR) {
		return nil, models.RejectRiskReward
	}
	if !WithinVolatility(atr, f.cfg.MaxVolatilityPct, entry) {
		return nil, models.RejectVolatility
	}

	size, err := PositionSize(state.Balance, f.cfg.RiskPerTrade, slDistance)
	if err != nil {
		return nil, models.RejectSizing
	}

	return &models.VettedSignal{
		Direction:    pre.Direction,
		Entry:        entry,
		StopLoss:     sl,
		TakeProfit:   tp,
		ATR:          atr,
		PositionSize: size,
		Reasons:      []string{"ok"},
	}, models.RejectNone
}
