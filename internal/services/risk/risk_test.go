package risk

import (
	"math"
	"testing"

	"WhaleRadar/internal/domain/models"
)

func preSignal(direction models.Direction, entry, atr float64) *models.PreSignal {
	return &models.PreSignal{
		Direction:  direction,
		EntryPrice: entry,
		ATR:        &atr,
		Timestamp:  12345,
	}
}

func TestResolveConfigDefaults(t *testing.T) {
	cfg, err := ResolveConfig(Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.RiskPerTrade != 0.01 || cfg.MaxDailyLoss != 0.03 || cfg.MaxTradesPerDay != 5 ||
		cfg.MaxVolatilityPct != 0.025 || cfg.VolumeFactorConfirm != 1.5 || cfg.MinRR != 2.0 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestResolveConfigRejectsInvalid(t *testing.T) {
	if _, err := ResolveConfig(Config{RiskPerTrade: -1}); err == nil {
		t.Fatalf("negative risk per trade must fail validation")
	}
	if _, err := ResolveConfig(Config{MaxTradesPerDay: -3}); err == nil {
		t.Fatalf("negative trade budget must fail validation")
	}
}

func TestPositionSize(t *testing.T) {
	size, err := PositionSize(1000, 0.01, 2.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if size != 5.0 {
		t.Fatalf("expected 5.0, got %v", size)
	}

	for _, bad := range []struct{ balance, risk, dist float64 }{
		{1000, -0.01, 2.0},
		{1000, 0.01, 0},
		{-1000, 0.01, 2.0},
	} {
		if _, err := PositionSize(bad.balance, bad.risk, bad.dist); err == nil {
			t.Fatalf("expected error for %+v", bad)
		}
	}
}

func TestValidateStops(t *testing.T) {
	if !ValidateStops(100, 95, 110, models.Long, 2.0) {
		t.Fatalf("LONG 95/110 at RR 3 must validate")
	}
	if !ValidateStops(100, 105, 90, models.Short, 2.0) {
		t.Fatalf("SHORT 105/90 at RR 2 must validate")
	}
	if ValidateStops(100, 95, 100, models.Long, 2.0) {
		t.Fatalf("zero reward must not validate")
	}
	if ValidateStops(100, 95, 105, models.Long, 2.0) {
		t.Fatalf("RR 1:1 must not validate")
	}
	if ValidateStops(100, 95, 110, "SIDEWAYS", 2.0) {
		t.Fatalf("unknown direction must not validate")
	}
}

func TestGuards(t *testing.T) {
	if !ExceedsDailyLoss(0.05, 0.03) || ExceedsDailyLoss(0.01, 0.03) {
		t.Fatalf("daily loss guard broken")
	}
	if !ExceedsTradeCount(6, 5) || ExceedsTradeCount(3, 5) {
		t.Fatalf("trade count guard broken")
	}
	if !WithinVolatility(1.0, 0.05, 100) || WithinVolatility(10.0, 0.05, 100) {
		t.Fatalf("volatility guard broken")
	}
	if WithinVolatility(1.0, 0.05, 0) {
		t.Fatalf("non-positive entry must fail the volatility guard")
	}
}

func TestAcceptLong(t *testing.T) {
	f := NewFilter(DefaultConfig())
	state := models.RiskState{Balance: 1000, CumulativeLoss: 0, TradesToday: 1}

	got, rej := f.Accept(preSignal(models.Long, 100, 2.0), state)
	if rej != models.RejectNone || got == nil {
		t.Fatalf("expected acceptance, got rejection %q", rej)
	}
	if !(got.StopLoss < got.Entry && got.Entry < got.TakeProfit) {
		t.Fatalf("LONG ordering violated: %+v", got)
	}
	// size must equal balance*risk/slDistance exactly
	want := 1000 * 0.01 / (1.5 * 2.0)
	if got.PositionSize != want {
		t.Fatalf("expected position size %v, got %v", want, got.PositionSize)
	}
	if len(got.Reasons) != 1 || got.Reasons[0] != "ok" {
		t.Fatalf("accepted signal must carry the ok reason, got %v", got.Reasons)
	}
}

func TestAcceptShortOrdering(t *testing.T) {
	f := NewFilter(DefaultConfig())
	state := models.RiskState{Balance: 1000}
	got, rej := f.Accept(preSignal(models.Short, 100, 2.0), state)
	if rej != models.RejectNone || got == nil {
		t.Fatalf("expected acceptance, got rejection %q", rej)
	}
	if !(got.TakeProfit < got.Entry && got.Entry < got.StopLoss) {
		t.Fatalf("SHORT ordering violated: %+v", got)
	}
}

func TestAcceptRejections(t *testing.T) {
	f := NewFilter(DefaultConfig())
	healthy := models.RiskState{Balance: 1000, CumulativeLoss: 0, TradesToday: 1}

	if _, rej := f.Accept(nil, healthy); rej != models.RejectBadInput {
		t.Fatalf("nil pre-signal: expected bad_input, got %q", rej)
	}

	noATR := &models.PreSignal{Direction: models.Long, EntryPrice: 100}
	if _, rej := f.Accept(noATR, healthy); rej != models.RejectBadInput {
		t.Fatalf("missing ATR: expected bad_input, got %q", rej)
	}

	nanATR := math.NaN()
	if _, rej := f.Accept(&models.PreSignal{Direction: models.Long, EntryPrice: 100, ATR: &nanATR}, healthy); rej != models.RejectBadInput {
		t.Fatalf("NaN ATR: expected bad_input")
	}

	if _, rej := f.Accept(preSignal(models.Long, 100, 2.0), models.RiskState{Balance: 1000, CumulativeLoss: 0.10}); rej != models.RejectDailyLoss {
		t.Fatalf("daily loss: expected daily_loss, got %q", rej)
	}

	if _, rej := f.Accept(preSignal(models.Long, 100, 2.0), models.RiskState{Balance: 1000, TradesToday: 10}); rej != models.RejectTradeCount {
		t.Fatalf("trade count: expected trade_count, got %q", rej)
	}

	// atr=0.1: the recomputed distances land at 1.999... < 2.0 in
	// float64, same as the reference implementation.
	if _, rej := f.Accept(preSignal(models.Long, 100, 0.1), healthy); rej != models.RejectRiskReward {
		t.Fatalf("tight ATR: expected risk_reward, got %q", rej)
	}

	if _, rej := f.Accept(preSignal(models.Long, 100, 50.0), healthy); rej != models.RejectVolatility {
		t.Fatalf("oversized ATR: expected volatility, got %q", rej)
	}

	if _, rej := f.Accept(preSignal(models.Long, 100, 2.0), models.RiskState{Balance: 0}); rej != models.RejectSizing {
		t.Fatalf("zero balance: expected sizing, got %q", rej)
	}
}
