package models

// Direction of a trade candidate.
type Direction string

const (
	Long  Direction = "LONG"
	Short Direction = "SHORT"
)

// Valid reports whether d is one of the two known directions.
func (d Direction) Valid() bool { return d == Long || d == Short }

// Trend label produced by the strategy layer.
type Trend string

const (
	TrendBullish Trend = "bullish"
	TrendBearish Trend = "bearish"
	TrendNeutral Trend = "neutral"
)

// Severity is the coarse ordinal summarizing how many whale flags fired.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Features carries the numeric signal features alongside the readable
// reason trail so downstream scoring never re-parses text.
type Features struct {
	VolumeFactor    float64 `json:"volume_factor"`
	VolumeConfirmed bool    `json:"volume_confirmed"`
	TrendSeparated  bool    `json:"trend_separated"`
}

// PreSignal is a directional trade candidate before risk vetting.
// ATR is nil when it could not be computed from the window.
type PreSignal struct {
	Direction  Direction `json:"direction"`
	EntryPrice float64   `json:"entry_price"`
	ATR        *float64  `json:"atr"`
	Timestamp  int64     `json:"timestamp"`
	Reasons    []string  `json:"reasons"`
	Features   Features  `json:"features"`
}

// AnomalyReport is the whale radar output for one candle window.
// Flags are independent booleans; Reasons pairs each raised flag with a
// fixed human-readable string in stable order.
type AnomalyReport struct {
	VolumeSpike bool     `json:"volume_spike"`
	WhaleTrade  bool     `json:"whale_trade"`
	FastMove    bool     `json:"fast_move"`
	StopHunt    bool     `json:"stop_hunt"`
	Squeeze     bool     `json:"squeeze"`
	Severity    Severity `json:"severity"`
	Reasons     []string `json:"reasons"`
}

// FlagCount returns how many of the five flags are raised.
func (r AnomalyReport) FlagCount() int {
	n := 0
	for _, f := range []bool{r.VolumeSpike, r.WhaleTrade, r.FastMove, r.StopHunt, r.Squeeze} {
		if f {
			n++
		}
	}
	return n
}

// WhaleAlert is the alert decision derived from an AnomalyReport.
type WhaleAlert struct {
	Active  bool     `json:"active"`
	Reasons []string `json:"reasons"`
}

// RiskState is the caller-supplied account snapshot. The core never
// persists or mutates it; the caller updates it between evaluations.
type RiskState struct {
	Balance        float64 `json:"balance"`
	CumulativeLoss float64 `json:"cumulative_loss"`
	TradesToday    int     `json:"trades_today"`
}

// VettedSignal is the risk filter output: a pre-signal extended with
// stop-loss, take-profit and position size.
type VettedSignal struct {
	Direction    Direction `json:"direction"`
	Entry        float64   `json:"entry"`
	StopLoss     float64   `json:"stop_loss"`
	TakeProfit   float64   `json:"take_profit"`
	ATR          float64   `json:"atr"`
	PositionSize float64   `json:"position_size"`
	Reasons      []string  `json:"reasons"`
}

// Signal is the terminal, immutable decision object handed to the
// dashboard/alerting layer. For LONG: StopLoss < Entry < TakeProfit;
// mirrored for SHORT.
type Signal struct {
	Symbol       string         `json:"symbol"`
	Direction    Direction      `json:"direction"`
	Entry        float64        `json:"entry"`
	StopLoss     float64        `json:"sl"`
	TakeProfit   float64        `json:"tp"`
	PositionSize float64        `json:"position_size"`
	ATR          float64        `json:"atr"`
	Timestamp    int64          `json:"timestamp"`
	Reasons      []string       `json:"reasons"`
	WhaleFlags   *AnomalyReport `json:"whale_flags,omitempty"`
	Confidence   float64        `json:"confidence"`
}

// Rejection tags why an evaluation produced no signal. The transport
// contract stays binary (signal or nothing); the tag feeds metrics.
type Rejection string

const (
	RejectNone        Rejection = ""
	RejectNoSetup     Rejection = "no_setup"
	RejectWhaleAlert  Rejection = "whale_alert"
	RejectDailyLoss   Rejection = "daily_loss"
	RejectTradeCount  Rejection = "trade_count"
	RejectStopInvalid Rejection = "stop_invalid"
	RejectRiskReward  Rejection = "risk_reward"
	RejectVolatility  Rejection = "volatility"
	RejectSizing      Rejection = "sizing"
	RejectBadInput    Rejection = "bad_input"
)
