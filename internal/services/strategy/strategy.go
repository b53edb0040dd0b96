// Package strategy derives trend labels and directional pre-signals from
// candle windows. Every call is state-free; numeric failures degrade to
// conservative defaults (neutral trend, absent ATR) instead of erroring.
package strategy

import (
	"fmt"
	"math"

	"WhaleRadar/internal/domain/models"
	"WhaleRadar/internal/services/indicators"
)

const (
	trendFastPeriod = 20
	trendSlowPeriod = 50
	atrPeriod       = 14

	// Relative EMA gap below which the market counts as neutral.
	// Anti-whipsaw band.
	neutralBand = 0.0015

	// DefaultVolumeFactor is the confirmation multiple over average volume.
	DefaultVolumeFactor = 1.5
	// DefaultVolumeWindow is the averaging window for volume confirmation.
	DefaultVolumeWindow = 20
)

// DetectTrend classifies the market as bullish, bearish or neutral from
// the EMA20/EMA50 relationship over closes.
//
// Neutral is returned for short windows (<50 candles), numeric failures,
// a near-zero or tightly-converged EMA pair, and when the two EMAs
// changed relative order on the most recent candle (mid-cross).
func DetectTrend(candles []models.Candle) models.Trend {
	closes := models.Closes(candles)
	if len(closes) < trendSlowPeriod {
		return models.TrendNeutral
	}

	ema20, err := indicators.EMA(closes, trendFastPeriod)
	if err != nil {
		return models.TrendNeutral
	}
	ema50, err := indicators.EMA(closes, trendSlowPeriod)
	if err != nil {
		return models.TrendNeutral
	}

	if ema50 == 0 {
		return models.TrendNeutral
	}
	if math.Abs(ema20-ema50)/ema50 < neutralBand {
		return models.TrendNeutral
	}

	// Suppress signals while the EMAs are crossing: compare against the
	// same pair computed without the most recent candle. A failure to
	// compute the prior point is tolerated silently.
	prev20, err20 := indicators.EMA(closes[:len(closes)-1], trendFastPeriod)
	prev50, err50 := indicators.EMA(closes[:len(closes)-1], trendSlowPeriod)
	if err20 == nil && err50 == nil {
		if (prev20-prev50)*(ema20-ema50) < 0 {
			return models.TrendNeutral
		}
	}

	if ema20 > ema50 {
		return models.TrendBullish
	}
	return models.TrendBearish
}

// ValidateVolume reports whether the last candle's volume exceeds
// factor times the average over the trailing window.
func ValidateVolume(candles []models.Candle, factor float64, window int) bool {
	vols := models.Volumes(candles)
	if len(vols) < 2 {
		return false
	}
	w := window
	if len(vols) < w {
		w = len(vols)
	}
	avg := 0.0
	for _, v := range vols[len(vols)-w:] {
		avg += v
	}
	avg /= float64(w)
	if avg <= 0 {
		return false
	}
	return vols[len(vols)-1] > avg*factor
}

// volumeFactor returns last volume / trailing average, 0 when the
// average is non-positive.
func volumeFactor(candles []models.Candle, window int) float64 {
	vols := models.Volumes(candles)
	if len(vols) == 0 {
		return 0
	}
	w := window
	if len(vols) < w {
		w = len(vols)
	}
	avg := 0.0
	for _, v := range vols[len(vols)-w:] {
		avg += v
	}
	avg /= float64(w)
	if avg <= 0 {
		return 0
	}
	return vols[len(vols)-1] / avg
}

// WindowATR computes ATR(14) over the candle window. It returns NaN when
// the calculation fails; callers record that as an absent ATR rather
// than a hard failure.
func WindowATR(candles []models.Candle) float64 {
	v, err := indicators.ATR(models.Highs(candles), models.Lows(candles), models.Closes(candles), atrPeriod)
	if err != nil {
		return math.NaN()
	}
	return v
}

// GeneratePreSignal builds a directional trade candidate from the window,
// or nil when no setup is present.
//
// LONG requires a bullish trend, last close above EMA20 and confirmed
// volume; SHORT mirrors it. The result carries both the readable reason
// trail and the numeric Features the scorer consumes.
func GeneratePreSignal(candles []models.Candle) *models.PreSignal {
	if len(candles) < trendSlowPeriod {
		return nil
	}

	closes := models.Closes(candles)
	last := candles[len(candles)-1]

	trend := DetectTrend(candles)
	if trend == models.TrendNeutral {
		return nil
	}

	ema20, err := indicators.EMA(closes, trendFastPeriod)
	if err != nil {
		return nil
	}
	ema50, err := indicators.EMA(closes, trendSlowPeriod)
	if err != nil {
		return nil
	}

	volumeOK := ValidateVolume(candles, DefaultVolumeFactor, DefaultVolumeWindow)
	atrVal := WindowATR(candles)

	factor := 0.0
	reasons := []string{fmt.Sprintf("trend %s", trend)}
	if volumeOK {
		factor = volumeFactor(candles, DefaultVolumeWindow)
		reasons = append(reasons, fmt.Sprintf("volume x%.2f", factor))
	} else {
		reasons = append(reasons, "volume insufficient")
	}

	separated := math.Abs(ema20-ema50)/(math.Abs(ema50)+1e-9) >= 0.01
	if separated {
		reasons = append(reasons, "EMA20/EMA50 separated")
	} else {
		reasons = append(reasons, "EMA20/EMA50 aligned")
	}

	var atr *float64
	if !math.IsNaN(atrVal) {
		v := atrVal
		atr = &v
	}

	pre := &models.PreSignal{
		EntryPrice: last.Close,
		ATR:        atr,
		Timestamp:  last.Timestamp,
		Reasons:    reasons,
		Features: models.Features{
			VolumeFactor:    factor,
			VolumeConfirmed: volumeOK,
			TrendSeparated:  separated,
		},
	}

	switch {
	case trend == models.TrendBullish && last.Close > ema20 && volumeOK:
		pre.Direction = models.Long
		return pre
	case trend == models.TrendBearish && last.Close < ema20 && volumeOK:
		pre.Direction = models.Short
		return pre
	default:
		return nil
	}
}
