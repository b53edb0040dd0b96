package api

import (
	"time"

	models "WhaleRadar/internal/domain/models"
	drepo "WhaleRadar/internal/domain/repository"
	"WhaleRadar/internal/services/whale"
	"WhaleRadar/internal/usecase"
	xhttp "WhaleRadar/pkg/http"
	xlogger "WhaleRadar/pkg/logger"
	xutil "WhaleRadar/pkg/util"

	"github.com/labstack/echo/v4"
)

// RadarHandler exposes the dashboard API over Echo.
type RadarHandler struct {
	logger    *xlogger.Logger
	scanner   *usecase.Scanner
	candles   *usecase.CandlesUseCase
	collector *usecase.TradeCollector
	windower  *usecase.CandleWindower
	cache     drepo.SignalCache // optional
	logs      *xlogger.MemorySink
	started   time.Time
}

func NewRadarHandler(
	logger *xlogger.Logger,
	scanner *usecase.Scanner,
	candles *usecase.CandlesUseCase,
	collector *usecase.TradeCollector,
	windower *usecase.CandleWindower,
	cache drepo.SignalCache,
	logs *xlogger.MemorySink,
) *RadarHandler {
	return &RadarHandler{
		logger:    logger,
		scanner:   scanner,
		candles:   candles,
		collector: collector,
		windower:  windower,
		cache:     cache,
		logs:      logs,
		started:   time.Now(),
	}
}

func (h *RadarHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Root)
	e.GET("/status", h.Status)
	g := e.Group("/api")
	g.GET("/signal", h.Signal)
	g.GET("/whale", h.Whale)
	g.GET("/candles", h.Candles)
	g.GET("/logs", h.Logs)
}

// StatusResponse is the /status payload.
type StatusResponse struct {
	Status    string           `json:"status"`
	Connected bool             `json:"connected"`
	UptimeSec int64            `json:"uptime_sec"`
	Account   models.RiskState `json:"account"`
}

func (h *RadarHandler) Root(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{
		"service": "whaleradar",
		"status":  "running",
	})
}

func (h *RadarHandler) Status(c echo.Context) error {
	return xhttp.SuccessResponse(c, StatusResponse{
		Status:    "ok",
		Connected: h.collector != nil && h.collector.IsConnected(),
		UptimeSec: int64(time.Since(h.started).Seconds()),
		Account:   h.scanner.AccountState(),
	})
}

func (h *RadarHandler) Signal(c echo.Context) error {
	req := &models.SignalRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	if sig, ok := h.scanner.LatestSignal(req.Symbol); ok {
		return xhttp.SuccessResponse(c, sig)
	}
	// No closed-window signal yet; evaluate the building window on
	// demand without touching the paper account.
	if h.windower != nil {
		if window := h.windower.Window(req.Symbol); len(window) > 0 {
			if sig, _ := h.scanner.Preview(req.Symbol, window); sig != nil {
				return xhttp.SuccessResponse(c, sig)
			}
		}
	}
	// Fall back to the cache so restarts do not lose the last signal.
	if h.cache != nil {
		sig, err := h.cache.Latest(c.Request().Context(), req.Symbol)
		if err != nil {
			h.logger.Error("signal cache error", xlogger.Error(err))
			return xhttp.AppErrorResponse(c, err)
		}
		if sig != nil {
			return xhttp.SuccessResponse(c, sig)
		}
	}
	return xhttp.NotFoundResponse(c, "no signal for symbol")
}

// WhaleResponse pairs the last anomaly report with the alert decision.
type WhaleResponse struct {
	Symbol string                `json:"symbol"`
	Report *models.AnomalyReport `json:"report"`
	Alert  models.WhaleAlert     `json:"alert"`
}

func (h *RadarHandler) Whale(c echo.Context) error {
	req := &models.WhaleRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	report, ok := h.scanner.LatestReport(req.Symbol)
	if !ok {
		return xhttp.NotFoundResponse(c, "no report for symbol")
	}
	return xhttp.SuccessResponse(c, WhaleResponse{
		Symbol: req.Symbol,
		Report: report,
		Alert:  whale.EvaluateAlert(report),
	})
}

func (h *RadarHandler) Candles(c echo.Context) error {
	req := &models.CandlesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	tf := drepo.NormalizeTimeframe(req.TF)

	now := time.Now()
	from := xutil.ParseTimeDefault(req.From, now.Add(-1*time.Hour))
	to := xutil.ParseTimeDefault(req.To, now)
	from, to = xutil.AlignFromTo(from, to, string(tf))

	res, err := h.candles.GetCandles(c.Request().Context(), usecase.GetCandlesParams{
		Symbol:    req.Symbol,
		From:      from,
		To:        to,
		Timeframe: tf,
		Limit:     req.Limit,
	})
	if err != nil {
		h.logger.Error("candles usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *RadarHandler) Logs(c echo.Context) error {
	if h.logs == nil {
		return xhttp.NotFoundResponse(c, "log collection disabled")
	}
	n := xhttp.ParseIntDefault(c.QueryParam("n"), 100)
	return xhttp.SuccessResponse(c, h.logs.Recent(n))
}
