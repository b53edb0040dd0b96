// Package whale scans candle windows for signs of whale activity and
// market manipulation. Detectors are pure, independent booleans that
// return false (never an error) below their minimum-data floor.
package whale

import (
	"math"

	"WhaleRadar/internal/domain/models"
)

const (
	// DefaultVolumeFactor flags a spike against the trailing average.
	DefaultVolumeFactor = 2.0
	// DefaultTradeFactor flags an oversized candle body.
	DefaultTradeFactor = 3.0
	// DefaultFastMovePct flags a close-to-close move above 1%.
	DefaultFastMovePct = 0.01
	// DefaultWickFactor sizes the stop-hunt wick threshold.
	DefaultWickFactor = 1.5
	// DefaultWindow is the trailing window for the averaging detectors.
	DefaultWindow = 20
	// DefaultSqueezeWindow is the historic window for the squeeze detector.
	DefaultSqueezeWindow = 30
)

// Fixed reason strings, in the stable report order.
const (
	reasonVolumeSpike = "extreme volume detected"
	reasonWhaleTrade  = "anomalous candle body / large order"
	reasonFastMove    = "fast price move"
	reasonStopHunt    = "long wick detected (stop hunt)"
	reasonSqueeze     = "compression + expansion detected (squeeze)"
)

// VolumeSpike reports whether the last candle's volume exceeds factor
// times the mean volume of the trailing window. Needs at least window
// candles.
func VolumeSpike(candles []models.Candle, factor float64, window int) bool {
	if len(candles) < window {
		return false
	}
	avg := 0.0
	for _, c := range candles[len(candles)-window:] {
		avg += c.Volume
	}
	avg /= float64(window)
	return candles[len(candles)-1].Volume > avg*factor
}

// WhaleTrade uses the candle body as a proxy for a single oversized
// order: the last body must exceed factor times the mean body over the
// trailing window. Needs at least window candles.
func WhaleTrade(candles []models.Candle, factor float64, window int) bool {
	if len(candles) < window {
		return false
	}
	avg := 0.0
	for _, c := range candles[len(candles)-window:] {
		avg += math.Abs(c.Close - c.Open)
	}
	avg /= float64(window)
	last := candles[len(candles)-1]
	return math.Abs(last.Close-last.Open) > avg*factor
}

// FastMove reports whether the relative close-to-close change over the
// last two candles exceeds the threshold. False below 2 candles and when
// the previous close is 0.
func FastMove(candles []models.Candle, thresholdPct float64) bool {
	if len(candles) < 2 {
		return false
	}
	prev := candles[len(candles)-2].Close
	if prev == 0 {
		return false
	}
	delta := candles[len(candles)-1].Close - prev
	return math.Abs(delta/prev) > math.Abs(thresholdPct)
}

// StopHunt reports whether the last candle grew a wick (measured from
// the close) larger than range * factor * 0.5 on either side. False
// when the candle has no range.
func StopHunt(candles []models.Candle, factor float64) bool {
	if len(candles) == 0 {
		return false
	}
	last := candles[len(candles)-1]
	rng := last.High - last.Low
	if rng <= 0 {
		return false
	}
	threshold := rng * factor * 0.5
	upper := last.High - last.Close
	lower := last.Close - last.Low
	return upper > threshold || lower > threshold
}

// Squeeze detects volatility compression followed by expansion: the mean
// high-low range of the window candles preceding the last must be small,
// and the last candle's range must exceed 1.5x that mean. Needs at least
// window+1 candles.
//
// TODO: the compression threshold is an absolute magnitude (< 1.0) and
// only behaves for assets near unit price scale; make it price-relative
// once product signs off on the change.
func Squeeze(candles []models.Candle, window int) bool {
	if len(candles) < window+1 {
		return false
	}
	hist := candles[len(candles)-window-1 : len(candles)-1]
	avg := 0.0
	for _, c := range hist {
		avg += c.High - c.Low
	}
	avg /= float64(len(hist))

	last := candles[len(candles)-1]
	lastRange := last.High - last.Low

	compressed := avg < 1.0
	expanded := avg > 0 && lastRange > avg*1.5
	return compressed && expanded
}

// ClassifySeverity maps a raised-flag count to the coarse ordinal:
// 3 or more -> high, exactly 2 -> medium, otherwise low.
func ClassifySeverity(flags int) models.Severity {
	switch {
	case flags >= 3:
		return models.SeverityHigh
	case flags == 2:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

// Analyze runs all five detectors with their default parameters over the
// window and aggregates them into a report. The reason list pairs each
// raised flag with its fixed string, in stable order.
func Analyze(candles []models.Candle) models.AnomalyReport {
	report := models.AnomalyReport{
		VolumeSpike: VolumeSpike(candles, DefaultVolumeFactor, DefaultWindow),
		WhaleTrade:  WhaleTrade(candles, DefaultTradeFactor, DefaultWindow),
		FastMove:    FastMove(candles, DefaultFastMovePct),
		StopHunt:    StopHunt(candles, DefaultWickFactor),
		Squeeze:     Squeeze(candles, DefaultSqueezeWindow),
	}
	report.Severity = ClassifySeverity(report.FlagCount())

	if report.VolumeSpike {
		report.Reasons = append(report.Reasons, reasonVolumeSpike)
	}
	if report.WhaleTrade {
		report.Reasons = append(report.Reasons, reasonWhaleTrade)
	}
	if report.FastMove {
		report.Reasons = append(report.Reasons, reasonFastMove)
	}
	if report.StopHunt {
		report.Reasons = append(report.Reasons, reasonStopHunt)
	}
	if report.Squeeze {
		report.Reasons = append(report.Reasons, reasonSqueeze)
	}
	return report
}

// EvaluateAlert re-derives the alert decision from a pre-computed
// report: alert on high severity or on two or more distinct flags. A
// lone volume spike at low or absent severity stays informational and
// never alerts on its own, but still counts toward the two-flag rule.
func EvaluateAlert(report *models.AnomalyReport) models.WhaleAlert {
	if report == nil {
		return models.WhaleAlert{}
	}

	alert := models.WhaleAlert{}
	if report.Severity == models.SeverityHigh {
		alert.Reasons = append(alert.Reasons, "severity high")
		alert.Active = true
	}

	raised := make([]string, 0, 5)
	if report.VolumeSpike {
		raised = append(raised, "volume_spike")
	}
	if report.WhaleTrade {
		raised = append(raised, "whale_trade")
	}
	if report.FastMove {
		raised = append(raised, "fast_move")
	}
	if report.StopHunt {
		raised = append(raised, "stop_hunt")
	}
	if report.Squeeze {
		raised = append(raised, "squeeze")
	}
	alert.Reasons = append(alert.Reasons, raised...)

	if len(raised) >= 2 {
		alert.Active = true
	}
	if len(raised) == 1 && raised[0] == "volume_spike" &&
		(report.Severity == "" || report.Severity == models.SeverityLow) {
		alert.Active = false
	}
	return alert
}
