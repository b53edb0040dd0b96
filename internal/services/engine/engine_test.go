package engine

import (
	"testing"

	"WhaleRadar/internal/domain/models"
	"WhaleRadar/internal/services/risk"
)

// trendingWindow builds a steadily rising series with a volume push on
// the final candle, enough history for both trend EMAs.
func trendingWindow(count int, baseVolume, lastVolume float64) []models.Candle {
	candles := make([]models.Candle, 0, count)
	for i := 1; i <= count; i++ {
		p := float64(i)
		candles = append(candles, models.Candle{
			Open:      p - 1,
			High:      p,
			Low:       p - 1,
			Close:     p,
			Volume:    baseVolume,
			Timestamp: int64(i - 1),
		})
	}
	candles[len(candles)-1].Volume = lastVolume
	return candles
}

func quietWindow(count int, price float64) []models.Candle {
	candles := make([]models.Candle, count)
	for i := range candles {
		candles[i] = models.Candle{Open: price, High: price, Low: price, Close: price, Volume: 10, Timestamp: int64(i)}
	}
	return candles
}

func healthyState() models.RiskState {
	return models.RiskState{Balance: 1000, CumulativeLoss: 0, TradesToday: 1}
}

func TestEvaluateLongSignal(t *testing.T) {
	e := New(risk.DefaultConfig(), nil)
	candles := trendingWindow(59, 50, 150)

	signal, rej := e.Evaluate("BTCUSDT", candles, healthyState(), nil)
	if rej != models.RejectNone || signal == nil {
		t.Fatalf("expected a signal, got rejection %q", rej)
	}
	if signal.Direction != models.Long {
		t.Fatalf("expected LONG, got %s", signal.Direction)
	}
	if signal.Entry != 59 {
		t.Fatalf("entry must be the last close, got %v", signal.Entry)
	}
	if !(signal.StopLoss < signal.Entry && signal.Entry < signal.TakeProfit) {
		t.Fatalf("LONG ordering violated: %+v", signal)
	}
	if signal.Confidence < 0 || signal.Confidence > 1 {
		t.Fatalf("confidence out of range: %v", signal.Confidence)
	}
	if signal.PositionSize <= 0 {
		t.Fatalf("position size must be positive, got %v", signal.PositionSize)
	}
}

func TestEvaluateConfidenceAndReasons(t *testing.T) {
	e := New(risk.DefaultConfig(), nil)
	candles := trendingWindow(59, 50, 150)

	// Unit-range candles on a trending series: every confidence feature
	// holds, including an exact 1:2 risk/reward.
	signal, _ := e.Evaluate("ETHUSDT", candles, healthyState(), nil)
	if signal == nil {
		t.Fatalf("expected a signal")
	}
	if signal.Confidence != 1.0 {
		t.Fatalf("all five features hold, expected confidence 1.0, got %v", signal.Confidence)
	}

	var sawOK, sawRR, sawTrend bool
	for _, r := range signal.Reasons {
		switch {
		case r == "ok":
			sawOK = true
		case r == "rr_good":
			sawRR = true
		case r == "trend bullish":
			sawTrend = true
		}
	}
	if !sawTrend || !sawOK || !sawRR {
		t.Fatalf("merged reasons incomplete: %v", signal.Reasons)
	}
}

func TestEvaluateWhaleVeto(t *testing.T) {
	e := New(risk.DefaultConfig(), nil)
	candles := trendingWindow(59, 50, 150)
	report := &models.AnomalyReport{
		VolumeSpike: true,
		FastMove:    true,
		StopHunt:    true,
		Severity:    models.SeverityHigh,
	}

	signal, rej := e.Evaluate("BTCUSDT", candles, healthyState(), report)
	if signal != nil || rej != models.RejectWhaleAlert {
		t.Fatalf("high-severity report must veto, got %q", rej)
	}
}

func TestEvaluateQuietReportAttached(t *testing.T) {
	e := New(risk.DefaultConfig(), nil)
	candles := trendingWindow(59, 50, 150)
	report := &models.AnomalyReport{VolumeSpike: true, Severity: models.SeverityLow}

	signal, rej := e.Evaluate("BTCUSDT", candles, healthyState(), report)
	if rej != models.RejectNone || signal == nil {
		t.Fatalf("a lone low-severity volume spike must not veto, got %q", rej)
	}
	if signal.WhaleFlags != report {
		t.Fatalf("the report must be attached verbatim")
	}
}

func TestEvaluateNoSetup(t *testing.T) {
	e := New(risk.DefaultConfig(), nil)
	signal, rej := e.Evaluate("BTCUSDT", quietWindow(60, 100), healthyState(), nil)
	if signal != nil || rej != models.RejectNoSetup {
		t.Fatalf("flat market must yield no setup, got %q", rej)
	}
}

func TestEvaluateRiskRejectionPropagates(t *testing.T) {
	e := New(risk.DefaultConfig(), nil)
	candles := trendingWindow(59, 50, 150)
	drained := models.RiskState{Balance: 1000, CumulativeLoss: 0.10, TradesToday: 1}

	signal, rej := e.Evaluate("BTCUSDT", candles, drained, nil)
	if signal != nil || rej != models.RejectDailyLoss {
		t.Fatalf("expected daily_loss rejection, got %q", rej)
	}
}
