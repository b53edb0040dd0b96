package usecase

import (
	"context"
	"sync"
	"time"

	"WhaleRadar/internal/domain/models"
	drepo "WhaleRadar/internal/domain/repository"
	"WhaleRadar/internal/services/engine"
	"WhaleRadar/internal/services/whale"
	applogger "WhaleRadar/pkg/logger"
	"WhaleRadar/pkg/util"
)

// Scanner evaluates each closed-candle window: anomaly scan first, then
// the signal engine. Accepted signals fan out to the publisher and the
// cache; every outcome lands in metrics.
type Scanner struct {
	engine    *engine.Engine
	publisher drepo.SignalPublisher // optional
	cache     drepo.SignalCache     // optional
	metrics   drepo.Metrics
	logger    *applogger.Logger

	mu          sync.Mutex
	state       models.RiskState
	day         string
	lastSignals map[string]*models.Signal
	lastReports map[string]*models.AnomalyReport
}

// NewScanner creates a scanner with a fresh paper account.
func NewScanner(
	eng *engine.Engine,
	publisher drepo.SignalPublisher,
	cache drepo.SignalCache,
	metrics drepo.Metrics,
	logger *applogger.Logger,
	startingBalance float64,
) *Scanner {
	if startingBalance <= 0 {
		startingBalance = 10000
	}
	return &Scanner{
		engine:    eng,
		publisher: publisher,
		cache:     cache,
		metrics:   metrics,
		logger:    logger,
		state:     models.RiskState{Balance: startingBalance},
		day:       util.UTCDay(time.Now()),
		lastSignals: make(map[string]*models.Signal),
		lastReports: make(map[string]*models.AnomalyReport),
	}
}

// OnWindow is the WindowFunc wired behind the candle windower.
func (s *Scanner) OnWindow(ctx context.Context, symbol string, window []models.Candle) {
	if len(window) == 0 {
		return
	}
	start := time.Now()

	report := whale.Analyze(window)
	alert := whale.EvaluateAlert(&report)

	s.mu.Lock()
	s.rollDayLocked()
	state := s.state
	s.lastReports[symbol] = &report
	s.mu.Unlock()

	if alert.Active {
		s.metrics.RecordWhaleAlert(symbol)
		if s.logger != nil {
			s.logger.Warn("whale alert",
				applogger.String("symbol", symbol),
				applogger.String("severity", string(report.Severity)),
				applogger.Strings("reasons", alert.Reasons))
		}
	}

	signal, rejection := s.engine.Evaluate(symbol, window, state, &report)
	s.metrics.RecordLatency("scan", time.Since(start).Seconds())

	if signal == nil {
		if rejection != models.RejectNone && rejection != models.RejectNoSetup {
			s.metrics.RecordRejection(string(rejection))
		}
		return
	}

	s.mu.Lock()
	s.state.TradesToday++
	s.lastSignals[symbol] = signal
	s.mu.Unlock()

	s.metrics.RecordSignal(symbol, string(signal.Direction))
	if s.logger != nil {
		s.logger.Info("signal accepted",
			applogger.String("symbol", symbol),
			applogger.String("direction", string(signal.Direction)),
			applogger.Any("entry", signal.Entry),
			applogger.Any("confidence", signal.Confidence))
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, signal); err != nil {
			s.metrics.RecordError("publish")
			if s.logger != nil {
				s.logger.Error("signal publish failed", applogger.Error(err))
			}
		}
	}
	if s.cache != nil {
		if err := s.cache.Put(ctx, signal); err != nil {
			s.metrics.RecordError("cache")
		}
	}
}

// Preview evaluates a window against the current account state without
// publishing or touching the paper account. Serves the on-demand signal
// endpoint.
func (s *Scanner) Preview(symbol string, window []models.Candle) (*models.Signal, models.Rejection) {
	if len(window) == 0 {
		return nil, models.RejectNoSetup
	}
	report := whale.Analyze(window)

	s.mu.Lock()
	s.rollDayLocked()
	state := s.state
	s.mu.Unlock()

	return s.engine.Evaluate(symbol, window, state, &report)
}

// rollDayLocked resets the daily counters when the UTC day changes.
// Caller holds s.mu.
func (s *Scanner) rollDayLocked() {
	today := util.UTCDay(time.Now())
	if today != s.day {
		s.day = today
		s.state.TradesToday = 0
		s.state.CumulativeLoss = 0
	}
}

// RecordLoss books a realized loss fraction against today's budget.
func (s *Scanner) RecordLoss(fraction float64) {
	if fraction <= 0 {
		return
	}
	s.mu.Lock()
	s.rollDayLocked()
	s.state.CumulativeLoss += fraction
	s.mu.Unlock()
}

// LatestSignal returns the last accepted signal for a symbol.
func (s *Scanner) LatestSignal(symbol string) (*models.Signal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sig, ok := s.lastSignals[symbol]
	return sig, ok
}

// LatestReport returns the last anomaly report for a symbol.
func (s *Scanner) LatestReport(symbol string) (*models.AnomalyReport, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.lastReports[symbol]
	return r, ok
}

// AccountState returns a snapshot of the paper account.
func (s *Scanner) AccountState() models.RiskState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rollDayLocked()
	return s.state
}
