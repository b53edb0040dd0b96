// Package indicators provides pure technical indicator calculations over
// price/volume series.
//
// All functions operate on chronologically ordered slices (oldest ->
// newest), never mutate their inputs, and are deterministic. Failures are
// reported through sentinel-wrapped errors so callers can tell "not
// enough history yet" apart from misuse.
package indicators

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidPeriod is returned for non-positive or inconsistent periods.
	ErrInvalidPeriod = errors.New("invalid period")
	// ErrInsufficientData is returned when the series is shorter than the
	// minimum the calculation needs.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrLengthMismatch is returned when parallel OHLC series differ in length.
	ErrLengthMismatch = errors.New("series length mismatch")
)

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// SMA returns the simple moving average over the final `length` values.
func SMA(values []float64, length int) (float64, error) {
	if length <= 0 {
		return 0, fmt.Errorf("%w: length must be > 0", ErrInvalidPeriod)
	}
	if len(values) < length {
		return 0, fmt.Errorf("%w: need %d values for SMA, got %d", ErrInsufficientData, length, len(values))
	}
	return mean(values[len(values)-length:]), nil
}

// EMA returns the exponential moving average of the series.
//
// Classical form: the EMA is seeded with the SMA of the first `length`
// values, then the recursion with alpha = 2/(length+1) runs over the
// remainder. This matches the reference calculation exactly and must not
// be replaced with the pure-recursive variant.
func EMA(values []float64, length int) (float64, error) {
	if length <= 0 {
		return 0, fmt.Errorf("%w: length must be > 0", ErrInvalidPeriod)
	}
	if len(values) < length {
		return 0, fmt.Errorf("%w: need %d values for EMA, got %d", ErrInsufficientData, length, len(values))
	}

	alpha := 2.0 / float64(length+1)
	prev := mean(values[:length])
	for _, price := range values[length:] {
		prev = (price-prev)*alpha + prev
	}
	return prev, nil
}

// EMASeries returns the full EMA series. The first element corresponds to
// input index length-1 (the first computable point).
func EMASeries(values []float64, length int) ([]float64, error) {
	if length <= 0 {
		return nil, fmt.Errorf("%w: length must be > 0", ErrInvalidPeriod)
	}
	if len(values) < length {
		return nil, fmt.Errorf("%w: need %d values for EMA series, got %d", ErrInsufficientData, length, len(values))
	}

	alpha := 2.0 / float64(length+1)
	out := make([]float64, 0, len(values)-length+1)
	prev := mean(values[:length])
	out = append(out, prev)
	for _, price := range values[length:] {
		prev = (price-prev)*alpha + prev
		out = append(out, prev)
	}
	return out, nil
}

// ATR returns the average true range: the simple mean of the last
// `length` true-range values. TR_i for i>=1 is
// max(high-low, |high-prevClose|, |low-prevClose|).
func ATR(high, low, close []float64, length int) (float64, error) {
	if length <= 0 {
		return 0, fmt.Errorf("%w: length must be > 0", ErrInvalidPeriod)
	}
	if len(high) != len(low) || len(low) != len(close) {
		return 0, fmt.Errorf("%w: high/low/close must have equal length", ErrLengthMismatch)
	}
	n := len(close)
	if n < 2 {
		return 0, fmt.Errorf("%w: at least two candles required for ATR", ErrInsufficientData)
	}

	trs := make([]float64, 0, n-1)
	for i := 1; i < n; i++ {
		hl := high[i] - low[i]
		hpc := math.Abs(high[i] - close[i-1])
		lpc := math.Abs(low[i] - close[i-1])
		trs = append(trs, math.Max(hl, math.Max(hpc, lpc)))
	}
	if len(trs) < length {
		return 0, fmt.Errorf("%w: need %d TR values for ATR, got %d", ErrInsufficientData, length, len(trs))
	}
	return mean(trs[len(trs)-length:]), nil
}

// RSI returns the relative strength index using Wilder smoothing.
//
// The averages are seeded with the mean of positive/negative deltas over
// the first `length` deltas (0 if none), then updated recursively with
// avg = (avg*(length-1) + current) / length. When the average loss is
// exactly zero the result is 100 for a net-gain series and 50 for a flat
// one, which keeps the value meaningful without dividing by zero.
func RSI(values []float64, length int) (float64, error) {
	if length <= 0 {
		return 0, fmt.Errorf("%w: length must be > 0", ErrInvalidPeriod)
	}
	n := len(values)
	if n < length+1 {
		return 0, fmt.Errorf("%w: need %d values for RSI, got %d", ErrInsufficientData, length+1, n)
	}

	deltas := make([]float64, n-1)
	for i := 1; i < n; i++ {
		deltas[i-1] = values[i] - values[i-1]
	}

	avgGain, avgLoss := 0.0, 0.0
	for _, d := range deltas[:length] {
		if d > 0 {
			avgGain += d
		} else if d < 0 {
			avgLoss += -d
		}
	}
	avgGain /= float64(length)
	avgLoss /= float64(length)

	for _, d := range deltas[length:] {
		gain, loss := 0.0, 0.0
		if d > 0 {
			gain = d
		} else if d < 0 {
			loss = -d
		}
		avgGain = (avgGain*float64(length-1) + gain) / float64(length)
		avgLoss = (avgLoss*float64(length-1) + loss) / float64(length)
	}

	if avgLoss == 0 {
		if avgGain > 0 {
			return 100.0, nil
		}
		return 50.0, nil
	}
	rs := avgGain / avgLoss
	return 100.0 - (100.0 / (1.0 + rs)), nil
}

// MACDResult holds the three MACD outputs.
type MACDResult struct {
	Line      float64
	Signal    float64
	Histogram float64
}

// MACD computes the MACD line, signal line and histogram.
//
// Both EMA series are computed in full and offset-aligned (the fast
// series starts at input index fast-1, the slow at slow-1); the MACD
// series is their point-wise difference where both exist, and the signal
// line is the EMA of that series.
func MACD(values []float64, fast, slow, signal int) (MACDResult, error) {
	if fast <= 0 || fast >= slow {
		return MACDResult{}, fmt.Errorf("%w: require 0 < fast < slow", ErrInvalidPeriod)
	}
	n := len(values)
	if n < slow+signal {
		return MACDResult{}, fmt.Errorf("%w: need at least %d values for MACD, got %d", ErrInsufficientData, slow+signal, n)
	}

	fastSeries, err := EMASeries(values, fast)
	if err != nil {
		return MACDResult{}, err
	}
	slowSeries, err := EMASeries(values, slow)
	if err != nil {
		return MACDResult{}, err
	}

	offsetFast := fast - 1
	offsetSlow := slow - 1
	macdSeries := make([]float64, 0, n-offsetSlow)
	for i := offsetSlow; i < n; i++ {
		macdSeries = append(macdSeries, fastSeries[i-offsetFast]-slowSeries[i-offsetSlow])
	}

	if len(macdSeries) < signal {
		return MACDResult{}, fmt.Errorf("%w: not enough MACD points for signal line", ErrInsufficientData)
	}
	signalSeries, err := EMASeries(macdSeries, signal)
	if err != nil {
		return MACDResult{}, err
	}

	line := macdSeries[len(macdSeries)-1]
	sig := signalSeries[len(signalSeries)-1]
	return MACDResult{Line: line, Signal: sig, Histogram: line - sig}, nil
}

// Volatility returns the population standard deviation of the last
// `length` simple returns (dP/pPrev). A step whose previous price is 0
// contributes a 0 return instead of failing the calculation.
func Volatility(values []float64, length int) (float64, error) {
	if length <= 0 {
		return 0, fmt.Errorf("%w: length must be > 0", ErrInvalidPeriod)
	}
	n := len(values)
	if n < length+1 {
		return 0, fmt.Errorf("%w: need %d values for volatility, got %d", ErrInsufficientData, length+1, n)
	}

	returns := make([]float64, 0, n-1)
	for i := 1; i < n; i++ {
		prev := values[i-1]
		if prev == 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, (values[i]-prev)/prev)
	}

	window := returns[len(returns)-length:]
	m := mean(window)
	variance := 0.0
	for _, r := range window {
		variance += (r - m) * (r - m)
	}
	variance /= float64(len(window))
	return math.Sqrt(variance), nil
}
