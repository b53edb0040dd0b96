package whale

import (
	"testing"

	"WhaleRadar/internal/domain/models"
)

func candlesWithVolumes(vols ...float64) []models.Candle {
	out := make([]models.Candle, len(vols))
	for i, v := range vols {
		out[i] = models.Candle{Open: 100, High: 100, Low: 100, Close: 100, Volume: v, Timestamp: int64(i)}
	}
	return out
}

func TestVolumeSpike(t *testing.T) {
	vols := make([]float64, 20)
	for i := range vols {
		vols[i] = 10
	}
	candles := candlesWithVolumes(append(vols, 100)...)
	if !VolumeSpike(candles, 2.0, 20) {
		t.Fatalf("10x spike must be detected")
	}
	if VolumeSpike(candlesWithVolumes(vols...), 2.0, 20) {
		t.Fatalf("flat volume must not be a spike")
	}
	if VolumeSpike(candles[:5], 2.0, 20) {
		t.Fatalf("below the data floor the detector must stay quiet")
	}
}

func TestWhaleTrade(t *testing.T) {
	candles := make([]models.Candle, 0, 21)
	for i := 0; i < 20; i++ {
		candles = append(candles, models.Candle{Open: 100, Close: 101, Timestamp: int64(i)})
	}
	candles = append(candles, models.Candle{Open: 100, Close: 120, Timestamp: 20})
	if !WhaleTrade(candles, 2.0, 20) {
		t.Fatalf("oversized body must be detected")
	}
	if WhaleTrade(candles[:20], 2.0, 20) {
		t.Fatalf("uniform bodies must not trigger")
	}
}

func TestFastMove(t *testing.T) {
	up := []models.Candle{{Close: 100}, {Close: 102}}
	if !FastMove(up, 0.01) {
		t.Fatalf("2%% move must be detected")
	}
	small := []models.Candle{{Close: 100}, {Close: 100.5}}
	if FastMove(small, 0.01) {
		t.Fatalf("0.5%% move must not be detected")
	}
	if FastMove(up[:1], 0.01) {
		t.Fatalf("one candle is below the floor")
	}
	zero := []models.Candle{{Close: 0}, {Close: 10}}
	if FastMove(zero, 0.01) {
		t.Fatalf("zero previous close must not trigger")
	}
}

func TestStopHunt(t *testing.T) {
	upper := []models.Candle{{Open: 100, Close: 101, High: 120, Low: 99}}
	if !StopHunt(upper, 1.5) {
		t.Fatalf("long upper wick must be detected")
	}
	lower := []models.Candle{{Open: 101, Close: 100, High: 102, Low: 80}}
	if !StopHunt(lower, 1.5) {
		t.Fatalf("long lower wick must be detected")
	}
	flat := []models.Candle{{Open: 100, Close: 100, High: 100, Low: 100}}
	if StopHunt(flat, 1.5) {
		t.Fatalf("zero-range candle must not trigger")
	}
}

func TestSqueeze(t *testing.T) {
	candles := make([]models.Candle, 0, 31)
	for i := 0; i < 30; i++ {
		candles = append(candles, models.Candle{Open: 100, Close: 100.3, High: 100.4, Low: 100.2, Timestamp: int64(i)})
	}
	candles = append(candles, models.Candle{Open: 100, Close: 103, High: 104, Low: 99, Timestamp: 30})
	if !Squeeze(candles, 30) {
		t.Fatalf("compression followed by expansion must be detected")
	}

	steady := make([]models.Candle, 0, 60)
	for i := 0; i < 60; i++ {
		steady = append(steady, models.Candle{Open: 100, Close: 100.5, High: 101, Low: 100, Timestamp: int64(i)})
	}
	if Squeeze(steady, 30) {
		t.Fatalf("steady ranges must not squeeze")
	}
	if Squeeze(candles[:10], 30) {
		t.Fatalf("below window+1 candles the detector must stay quiet")
	}
}

func TestClassifySeverity(t *testing.T) {
	cases := []struct {
		flags int
		want  models.Severity
	}{
		{0, models.SeverityLow},
		{1, models.SeverityLow},
		{2, models.SeverityMedium},
		{3, models.SeverityHigh},
		{5, models.SeverityHigh},
	}
	for _, tc := range cases {
		if got := ClassifySeverity(tc.flags); got != tc.want {
			t.Fatalf("flags=%d: expected %s, got %s", tc.flags, tc.want, got)
		}
	}
}

func TestAnalyzeAggregation(t *testing.T) {
	candles := make([]models.Candle, 0, 21)
	for i := 0; i < 20; i++ {
		candles = append(candles, models.Candle{Open: 100, Close: 100, High: 100, Low: 100, Volume: 10, Timestamp: int64(i)})
	}
	candles = append(candles, models.Candle{Open: 100, Close: 105, High: 110, Low: 95, Volume: 200, Timestamp: 20})

	report := Analyze(candles)
	if !report.VolumeSpike || !report.WhaleTrade || !report.FastMove {
		t.Fatalf("expected volume spike + whale trade + fast move, got %+v", report)
	}
	if report.Severity != models.SeverityHigh {
		t.Fatalf("three flags must classify high, got %s", report.Severity)
	}
	if len(report.Reasons) != report.FlagCount() {
		t.Fatalf("one reason per raised flag, got %d for %d flags", len(report.Reasons), report.FlagCount())
	}
}

func TestEvaluateAlert(t *testing.T) {
	quiet := &models.AnomalyReport{Severity: models.SeverityLow}
	if EvaluateAlert(quiet).Active {
		t.Fatalf("no flags must not alert")
	}

	high := &models.AnomalyReport{Severity: models.SeverityHigh}
	if !EvaluateAlert(high).Active {
		t.Fatalf("high severity must alert even with no flags")
	}

	loneSpike := &models.AnomalyReport{VolumeSpike: true, Severity: models.SeverityLow}
	if EvaluateAlert(loneSpike).Active {
		t.Fatalf("a lone volume spike at low severity is informational only")
	}

	spikePlus := &models.AnomalyReport{VolumeSpike: true, FastMove: true, Severity: models.SeverityMedium}
	got := EvaluateAlert(spikePlus)
	if !got.Active {
		t.Fatalf("volume spike with a second flag must alert")
	}
	if len(got.Reasons) < 2 {
		t.Fatalf("expected both flags in reasons, got %v", got.Reasons)
	}

	loneOther := &models.AnomalyReport{StopHunt: true, Severity: models.SeverityLow}
	if EvaluateAlert(loneOther).Active {
		t.Fatalf("a single non-spike flag does not reach the two-flag rule")
	}

	if EvaluateAlert(nil).Active {
		t.Fatalf("nil report must not alert")
	}
}
