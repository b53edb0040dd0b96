package indicators

import (
	"errors"
	"math"
	"testing"
)

func TestSMASimple(t *testing.T) {
	got, err := SMA([]float64{1, 2, 3, 4, 5}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 4.0 {
		t.Fatalf("expected 4.0, got %v", got)
	}
}

func TestSMAErrors(t *testing.T) {
	if _, err := SMA(nil, 3); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
	if _, err := SMA([]float64{1, 2}, 3); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
	if _, err := SMA([]float64{1, 2, 3}, 0); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}
}

func TestEMAKnownValue(t *testing.T) {
	// length=2: alpha=2/3, seed SMA=(1+2)/2=1.5, next = (3-1.5)*2/3+1.5 = 2.5
	got, err := EMA([]float64{1, 2, 3}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(got-2.5) > 1e-12 {
		t.Fatalf("expected 2.5, got %v", got)
	}
}

func TestEMAErrors(t *testing.T) {
	if _, err := EMA(nil, 3); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
	if _, err := EMA([]float64{1, 2, 3}, 0); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}
}

func TestEMARecursiveConsistency(t *testing.T) {
	// The scalar EMA over a full series must equal extending the series
	// step by step: the recursion has no window cutoff.
	series := make([]float64, 0, 80)
	for i := 0; i < 80; i++ {
		series = append(series, 100+5*math.Sin(float64(i)/3))
	}
	full, err := EMA(series, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	vals, err := EMASeries(series, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(full-vals[len(vals)-1]) > 1e-12 {
		t.Fatalf("EMA and EMASeries tail disagree: %v vs %v", full, vals[len(vals)-1])
	}
	// Prefix of the series must match the series computed on the prefix.
	prefix, err := EMASeries(series[:50], 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range prefix {
		if math.Abs(prefix[i]-vals[i]) > 1e-12 {
			t.Fatalf("series diverges at %d: %v vs %v", i, prefix[i], vals[i])
		}
	}
}

func TestATRBasic(t *testing.T) {
	high := []float64{10, 11, 12}
	low := []float64{9, 10, 10}
	close := []float64{9, 10, 11}
	// TRs: [2, 2] -> ATR(2) = 2.0
	got, err := ATR(high, low, close, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 2.0 {
		t.Fatalf("expected 2.0, got %v", got)
	}
}

func TestATRErrors(t *testing.T) {
	if _, err := ATR(nil, nil, nil, 2); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
	if _, err := ATR([]float64{1, 2}, []float64{1}, []float64{1, 2}, 2); !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("expected ErrLengthMismatch, got %v", err)
	}
	if _, err := ATR([]float64{1, 2}, []float64{1, 2}, []float64{1, 2}, 0); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}
}

func TestRSIBounded(t *testing.T) {
	values := make([]float64, 30)
	for i := range values {
		values[i] = 1.0 + 0.5*math.Sin(float64(i))
	}
	r, err := RSI(values, 14)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r < 0 || r > 100 {
		t.Fatalf("RSI out of range: %v", r)
	}
}

func TestRSIAllGains(t *testing.T) {
	values := make([]float64, 20)
	for i := range values {
		values[i] = float64(i + 1)
	}
	r, err := RSI(values, 14)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r != 100.0 {
		t.Fatalf("all-gain series should yield RSI 100, got %v", r)
	}
}

func TestRSIFlatSeries(t *testing.T) {
	values := make([]float64, 20)
	for i := range values {
		values[i] = 42.0
	}
	r, err := RSI(values, 14)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r != 50.0 {
		t.Fatalf("flat series should yield RSI 50, got %v", r)
	}
}

func TestRSIErrors(t *testing.T) {
	if _, err := RSI(nil, 14); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
	if _, err := RSI([]float64{1, 2, 3}, 5); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestMACDBasic(t *testing.T) {
	values := make([]float64, 40)
	for i := range values {
		values[i] = float64(i + 1)
	}
	res, err := MACD(values, 12, 26, 9)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, v := range []float64{res.Line, res.Signal, res.Histogram} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("non-finite MACD output: %+v", res)
		}
	}
	if math.Abs(res.Histogram-(res.Line-res.Signal)) > 1e-12 {
		t.Fatalf("histogram must equal line - signal: %+v", res)
	}
}

func TestMACDErrors(t *testing.T) {
	if _, err := MACD([]float64{1, 2, 3}, 12, 26, 9); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
	values := make([]float64, 30)
	if _, err := MACD(values, 26, 12, 9); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}
}

func TestVolatilityBasic(t *testing.T) {
	values := []float64{100.0, 100.5, 101.0, 100.8, 101.2, 101.0, 100.9, 101.1, 101.05, 101.2, 101.15}
	v, err := Volatility(values, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v < 0 {
		t.Fatalf("volatility must be non-negative, got %v", v)
	}
	if v >= 0.02 {
		t.Fatalf("small-move series should have small volatility, got %v", v)
	}
}

func TestVolatilityZeroPrev(t *testing.T) {
	// A zero previous price yields a 0 return, not an error.
	values := []float64{0, 1, 1, 1, 1, 1, 1}
	v, err := Volatility(values, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		t.Fatalf("expected finite volatility, got %v", v)
	}
}

func TestVolatilityErrors(t *testing.T) {
	if _, err := Volatility(nil, 5); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
	if _, err := Volatility([]float64{100, 101}, 5); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}
