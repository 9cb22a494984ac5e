package api

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/labstack/echo/v4"

	"LevelWatch/internal/domain/models"
	domrepo "LevelWatch/internal/domain/repository"
	"LevelWatch/internal/usecase"
	xhttp "LevelWatch/pkg/http"
	xlogger "LevelWatch/pkg/logger"
)

// MonitorEchoHandler exposes the watch-list, zone and alert endpoints.
type MonitorEchoHandler struct {
	logger   *xlogger.Logger
	monitor  *usecase.Monitor
	toggles  *usecase.ToggleReconciler
	store    domrepo.LevelStore
	feed     domrepo.PriceFeed
	zones    domrepo.ZoneFinder
	alertLog domrepo.AlertLog
}

// NewMonitorEchoHandler creates the handler. alertLog may be nil when the
// audit store is disabled; the history endpoint then answers 503.
func NewMonitorEchoHandler(
	logger *xlogger.Logger,
	monitor *usecase.Monitor,
	toggles *usecase.ToggleReconciler,
	store domrepo.LevelStore,
	feed domrepo.PriceFeed,
	zones domrepo.ZoneFinder,
	alertLog domrepo.AlertLog,
) *MonitorEchoHandler {
	return &MonitorEchoHandler{
		logger:   logger,
		monitor:  monitor,
		toggles:  toggles,
		store:    store,
		feed:     feed,
		zones:    zones,
		alertLog: alertLog,
	}
}

func (h *MonitorEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/health", h.Health)
	g.POST("/zones/search", h.SearchZones)
	g.POST("/zones/push", h.PushZones)
	g.GET("/scrips", h.ListScrips)
	g.GET("/price/:symbol", h.Price)
	g.PUT("/scrips/:symbol/alert", h.UpdateAlert)
	g.DELETE("/scrips/:symbol", h.DeleteScrip)
	g.GET("/monitor/:symbol", h.MonitorView)
	g.GET("/summary", h.Summary)
	g.GET("/alerts/history", h.AlertHistory)
}

func (h *MonitorEchoHandler) Health(c echo.Context) error {
	if err := h.store.Health(c.Request().Context()); err != nil {
		h.logger.Warn("health check store error", xlogger.Error(err))
		return xhttp.SuccessResponse(c, map[string]string{
			"status": "unhealthy",
			"store":  err.Error(),
		})
	}
	return xhttp.SuccessResponse(c, map[string]string{
		"status": "healthy",
		"store":  "connected",
	})
}

func (h *MonitorEchoHandler) SearchZones(c echo.Context) error {
	req := &models.ZoneSearchRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	zones, err := h.zones.SearchZones(c.Request().Context(), req.Symbol, domrepo.Timeframe(req.Timeframe))
	if err != nil {
		h.logger.Error("zone search error",
			xlogger.String("symbol", req.Symbol),
			xlogger.Error(err))
		return h.mapError(c, err, "zone search failed")
	}

	return xhttp.SuccessResponse(c, map[string]interface{}{
		"symbol":    models.CanonicalSymbol(req.Symbol),
		"timeframe": req.Timeframe,
		"zones":     zones,
		"count":     len(zones),
	})
}

func (h *MonitorEchoHandler) PushZones(c echo.Context) error {
	req := &models.PushZonesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	levels := make([]models.TriggerLevel, 0, len(req.SelectedIndices))
	for _, idx := range req.SelectedIndices {
		if idx < 0 || idx >= len(req.Zones) {
			return xhttp.BadRequestResponse(c,
				xhttp.BadRequestError(fmt.Sprintf("selected index %d out of range", idx)))
		}
		z := req.Zones[idx]
		levels = append(levels, models.TriggerLevel{
			TriggerPrice: z.Top,
			Bottom:       z.Bottom,
			RallyLength:  z.RallyLength,
			TotalMovePct: z.TotalMovePct,
			ZoneIndex:    idx,
			Timeframe:    req.Timeframe,
		})
	}

	ctx := c.Request().Context()
	inst, err := h.store.PushLevels(ctx, req.Symbol, domrepo.Timeframe(req.Timeframe), levels)
	if err != nil {
		h.logger.Error("push levels error",
			xlogger.String("symbol", req.Symbol),
			xlogger.Error(err))
		return h.mapError(c, err, "push levels failed")
	}
	if err := h.monitor.Reload(ctx); err != nil {
		h.logger.Warn("reload after push failed", xlogger.Error(err))
	}

	return xhttp.CreatedResponse(c, map[string]interface{}{
		"message": fmt.Sprintf("Pushed %d levels (%s) for %s", len(levels), req.Timeframe, inst.Symbol),
		"scrip":   inst,
	})
}

func (h *MonitorEchoHandler) ListScrips(c echo.Context) error {
	insts, err := h.store.ListInstruments(c.Request().Context())
	if err != nil {
		h.logger.Error("list scrips error", xlogger.Error(err))
		return h.mapError(c, err, "list scrips failed")
	}
	return xhttp.ListResponse(c, insts, int64(len(insts)))
}

func (h *MonitorEchoHandler) Price(c echo.Context) error {
	symbol := models.CanonicalSymbol(c.Param("symbol"))
	if symbol == "" {
		return xhttp.BadRequestResponse(c, xhttp.BadRequestError("symbol required"))
	}

	price, err := h.feed.MarkPrice(c.Request().Context(), symbol)
	if err != nil {
		h.logger.Warn("price fetch error",
			xlogger.String("symbol", symbol),
			xlogger.Error(err))
		return h.mapError(c, err, "price fetch failed")
	}

	return xhttp.SuccessResponse(c, map[string]interface{}{
		"symbol":     symbol,
		"mark_price": price,
	})
}

func (h *MonitorEchoHandler) UpdateAlert(c echo.Context) error {
	symbol := models.CanonicalSymbol(c.Param("symbol"))
	if symbol == "" {
		return xhttp.BadRequestResponse(c, xhttp.BadRequestError("symbol required"))
	}
	req := &models.UpdateAlertRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	err := h.toggles.SetAlertDisabled(c.Request().Context(), symbol, *req.LevelIndex, *req.Disabled)
	if err != nil {
		h.logger.Error("alert toggle error",
			xlogger.String("symbol", symbol),
			xlogger.Int("level", *req.LevelIndex),
			xlogger.Error(err))
		return h.mapError(c, err, "alert toggle failed")
	}

	action := "enabled"
	if *req.Disabled {
		action = "disabled"
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"message": fmt.Sprintf("Alert %s for level %d", action, *req.LevelIndex),
		"updated": true,
	})
}

func (h *MonitorEchoHandler) DeleteScrip(c echo.Context) error {
	symbol := models.CanonicalSymbol(c.Param("symbol"))
	if symbol == "" {
		return xhttp.BadRequestResponse(c, xhttp.BadRequestError("symbol required"))
	}

	ctx := c.Request().Context()
	if err := h.store.Deactivate(ctx, symbol); err != nil {
		h.logger.Error("deactivate error",
			xlogger.String("symbol", symbol),
			xlogger.Error(err))
		return h.mapError(c, err, "deactivate failed")
	}
	if err := h.monitor.Reload(ctx); err != nil {
		h.logger.Warn("reload after deactivate failed", xlogger.Error(err))
	}

	return xhttp.SuccessResponse(c, map[string]interface{}{
		"message": fmt.Sprintf("Scrip %s marked as inactive", symbol),
	})
}

func (h *MonitorEchoHandler) MonitorView(c echo.Context) error {
	symbol := c.Param("symbol")
	filter := c.QueryParam("timeframe")
	if filter == "" {
		filter = usecase.TimeframeAll
	}

	snap, err := h.monitor.Snapshot(symbol, filter)
	if err != nil {
		return h.mapError(c, err, "monitor view failed")
	}
	return xhttp.SuccessResponse(c, snap)
}

func (h *MonitorEchoHandler) Summary(c echo.Context) error {
	entries := h.monitor.Summary()
	return xhttp.ListResponse(c, entries, int64(len(entries)))
}

func (h *MonitorEchoHandler) AlertHistory(c echo.Context) error {
	if h.alertLog == nil {
		return xhttp.AppErrorResponse(c, xhttp.UnavailableError("alert history disabled"))
	}

	symbol := c.QueryParam("symbol")
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return xhttp.BadRequestResponse(c, xhttp.BadRequestError("limit must be an integer"))
		}
		limit = n
	}

	events, err := h.alertLog.Recent(c.Request().Context(), symbol, limit)
	if err != nil {
		h.logger.Error("alert history error", xlogger.Error(err))
		return h.mapError(c, err, "alert history failed")
	}
	return xhttp.ListResponse(c, events, int64(len(events)))
}

func (h *MonitorEchoHandler) mapError(c echo.Context, err error, message string) error {
	switch {
	case errors.Is(err, domrepo.ErrNotFound):
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError(err.Error()))
	case errors.Is(err, domrepo.ErrUnavailable), errors.Is(err, domrepo.ErrNotifyUnavailable):
		return xhttp.AppErrorResponse(c, xhttp.UnavailableError(err.Error()))
	case errors.Is(err, domrepo.ErrPersist):
		return xhttp.AppErrorResponse(c, xhttp.InternalError(err.Error()))
	default:
		return xhttp.AppErrorResponse(c, xhttp.InternalError(message).WithError(err))
	}
}
