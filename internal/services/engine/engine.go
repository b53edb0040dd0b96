// Package engine assembles the final trading signal: pre-signal from the
// strategy layer, whale-alert veto, risk vetting and a bounded
// confidence score.
package engine

import (
	"math"
	"time"

	"WhaleRadar/internal/domain/models"
	"WhaleRadar/internal/services/risk"
	"WhaleRadar/internal/services/strategy"
	"WhaleRadar/internal/services/whale"
	applogger "WhaleRadar/pkg/logger"
)

// confidenceStep is the weight of each independent boolean feature.
const confidenceStep = 0.2

// Engine evaluates candle windows into trade signals.
type Engine struct {
	cfg    risk.Config
	filter *risk.Filter
	logger *applogger.Logger
}

// New builds an engine around a resolved risk config.
func New(cfg risk.Config, logger *applogger.Logger) *Engine {
	return &Engine{cfg: cfg, filter: risk.NewFilter(cfg), logger: logger}
}

// Evaluate runs the fixed pipeline over one candle window: pre-signal,
// whale veto, risk filter, confidence. It returns the final signal or
// nil together with a rejection tag. The window, state and report are
// never mutated.
func (e *Engine) Evaluate(symbol string, candles []models.Candle, state models.RiskState, report *models.AnomalyReport) (*models.Signal, models.Rejection) {
	start := time.Now()

	pre := strategy.GeneratePreSignal(candles)
	if pre == nil {
		return nil, models.RejectNoSetup
	}

	alert := whale.EvaluateAlert(report)
	if alert.Active {
		// Unconditional veto, regardless of how good the setup looks.
		if e.logger != nil {
			e.logger.Debug("signal vetoed by whale alert",
				applogger.String("symbol", symbol),
				applogger.Strings("reasons", alert.Reasons))
		}
		return nil, models.RejectWhaleAlert
	}

	vetted, rejection := e.filter.Accept(pre, state)
	if rejection != models.RejectNone {
		return nil, rejection
	}

	reasons := make([]string, 0, len(pre.Reasons)+len(vetted.Reasons)+1)
	reasons = append(reasons, pre.Reasons...)
	reasons = append(reasons, vetted.Reasons...)

	rrGood := riskReward(vetted) >= 2.0
	if rrGood {
		reasons = append(reasons, "rr_good")
	}

	score := 0.0
	if pre.Features.VolumeFactor >= e.cfg.VolumeFactorConfirm {
		score += confidenceStep
	}
	if pre.Features.TrendSeparated {
		score += confidenceStep
	}
	if vetted.ATR > 0 && vetted.ATR/vetted.Entry <= e.cfg.MaxVolatilityPct {
		score += confidenceStep
	}
	if !alert.Active {
		score += confidenceStep
	}
	if rrGood {
		score += confidenceStep
	}
	confidence := math.Min(1.0, math.Max(0.0, math.Round(score*100)/100))

	signal := &models.Signal{
		Symbol:       symbol,
		Direction:    vetted.Direction,
		Entry:        vetted.Entry,
		StopLoss:     vetted.StopLoss,
		TakeProfit:   vetted.TakeProfit,
		PositionSize: vetted.PositionSize,
		ATR:          vetted.ATR,
		Timestamp:    pre.Timestamp,
		Reasons:      reasons,
		WhaleFlags:   report,
		Confidence:   confidence,
	}

	if e.logger != nil {
		e.logger.Info("signal assembled",
			applogger.String("symbol", symbol),
			applogger.String("direction", string(signal.Direction)),
			applogger.Any("confidence", signal.Confidence),
			applogger.Duration("took", time.Since(start)))
	}
	return signal, models.RejectNone
}

// riskReward derives the reward/risk ratio from the vetted stops.
func riskReward(v *models.VettedSignal) float64 {
	var slDist, tpDist float64
	if v.Direction == models.Long {
		slDist = v.Entry - v.StopLoss
		tpDist = v.TakeProfit - v.Entry
	} else {
		slDist = v.StopLoss - v.Entry
		tpDist = v.Entry - v.TakeProfit
	}
	if slDist <= 0 {
		return 0
	}
	return tpDist / slDist
}
