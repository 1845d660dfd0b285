package api

import (
	"errors"
	"strconv"

	"PriceBoard/internal/chart"
	"PriceBoard/internal/domain/models"
	drepo "PriceBoard/internal/domain/repository"
	"PriceBoard/internal/usecase"
	xhttp "PriceBoard/pkg/http"
	applogger "PriceBoard/pkg/logger"
	"PriceBoard/pkg/queue"
	"PriceBoard/pkg/util"

	"github.com/labstack/echo/v4"
)

// ChartHandler serves chart windows and series over HTTP.
type ChartHandler struct {
	logger     *applogger.Logger
	chart      *usecase.ChartUseCase
	archive    *usecase.ArchiveProcessor
	queue      queue.Enqueuer
	mw         []echo.MiddlewareFunc
	defaultDev bool
}

// NewChartHandler creates a ChartHandler. archive may be nil.
func NewChartHandler(logger *applogger.Logger, uc *usecase.ChartUseCase, archive *usecase.ArchiveProcessor, defaultDev bool, mw ...echo.MiddlewareFunc) *ChartHandler {
	if logger == nil {
		logger = applogger.Nop()
	}
	return &ChartHandler{logger: logger, chart: uc, archive: archive, mw: mw, defaultDev: defaultDev}
}

// SetRefreshQueue enables async refreshes.
func (h *ChartHandler) SetRefreshQueue(q queue.Enqueuer) { h.queue = q }

func (h *ChartHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api", h.mw...)
	g.GET("/commodities", h.Commodities)
	g.GET("/chart", h.Window)
	g.GET("/chart/scroll", h.Scroll)
	g.GET("/chart/series", h.Series)
	g.GET("/chart/history", h.History)
	g.POST("/refresh", h.Refresh)
}

// ChartSeries is the full merged series with its snapshot metadata.
type ChartSeries struct {
	Snapshot models.SnapshotInfo `json:"snapshot"`
	Points   []models.PricePoint `json:"points"`
}

type commoditiesResponse struct {
	Commodities []models.CommodityOption `json:"commodities"`
	Default     models.Commodity         `json:"default"`
	Ranges      []chart.ViewRange        `json:"ranges"`
}

func (h *ChartHandler) Commodities(c echo.Context) error {
	return xhttp.SuccessResponse(c, commoditiesResponse{
		Commodities: models.Commodities,
		Default:     models.DefaultCommodity,
		Ranges:      chart.Ranges,
	})
}

func (h *ChartHandler) Window(c echo.Context) error {
	req := &models.ChartRequest{}
	if verr := xhttp.ReadAndValidateQuery(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	var offset *int
	if req.Offset != "" {
		n, err := strconv.Atoi(req.Offset)
		if err != nil {
			return xhttp.AppErrorResponse(c, xhttp.BadRequestError("offset must be an integer").WithError(err))
		}
		offset = &n
	}

	key := h.seriesKey(req.SeriesRequest)
	w, err := h.chart.Window(c.Request().Context(), key, chart.ViewRange(req.Range), offset)
	if err != nil {
		return h.fail(c, "chart window", key, err)
	}
	return xhttp.SuccessResponse(c, w)
}

func (h *ChartHandler) Scroll(c echo.Context) error {
	req := &models.ScrollRequest{}
	if verr := xhttp.ReadAndValidateQuery(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	key := h.seriesKey(req.SeriesRequest)
	w, err := h.chart.Scroll(c.Request().Context(), key, chart.ViewRange(req.Range), req.Offset, req.Delta)
	if err != nil {
		return h.fail(c, "chart scroll", key, err)
	}
	return xhttp.SuccessResponse(c, w)
}

func (h *ChartHandler) Series(c echo.Context) error {
	req := &models.SeriesRequest{}
	if verr := xhttp.ReadAndValidateQuery(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	key := h.seriesKey(*req)
	snap, err := h.chart.Snapshot(c.Request().Context(), key)
	if err != nil {
		return h.fail(c, "chart series", key, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, ChartSeries{Snapshot: snap.Info(), Points: snap.Merged})
}

func (h *ChartHandler) History(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateQuery(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if h.archive == nil {
		return xhttp.AppErrorResponse(c, archiveDisabled())
	}

	key := h.seriesKey(req.SeriesRequest)
	points, err := h.archive.History(c.Request().Context(), key, req.Date, req.Limit)
	if errors.Is(err, usecase.ErrHistoryUnavailable) {
		return xhttp.AppErrorResponse(c, archiveDisabled())
	}
	if err != nil {
		return h.fail(c, "chart history", key, err)
	}
	return xhttp.SuccessResponse(c, points)
}

type refreshQueued struct {
	Queued bool             `json:"queued"`
	Key    models.SeriesKey `json:"key"`
}

func (h *ChartHandler) Refresh(c echo.Context) error {
	req := &models.RefreshRequest{}
	if verr := xhttp.ReadAndValidateQuery(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	key := h.seriesKey(req.SeriesRequest)
	if req.Async && h.queue != nil {
		if err := h.queue.Enqueue(c.Request().Context(), usecase.RefreshSeriesType, key); err != nil {
			h.logger.Error("enqueue refresh failed", applogger.String("key", key.String()), applogger.Error(err))
			return xhttp.AppErrorResponse(c, xhttp.InternalError("could not queue refresh").WithError(err))
		}
		return xhttp.AcceptedResponse(c, refreshQueued{Queued: true, Key: key})
	}

	snap, err := h.chart.Refresh(c.Request().Context(), key)
	if err != nil {
		return h.fail(c, "refresh", key, err)
	}
	h.logger.Info("snapshot refreshed",
		applogger.String("key", key.String()),
		applogger.Int("points", snap.Len()),
	)
	return xhttp.SuccessResponse(c, snap.Info())
}

func (h *ChartHandler) seriesKey(req models.SeriesRequest) models.SeriesKey {
	return models.SeriesKey{
		Commodity: models.Commodity(req.Commodity),
		Dev:       util.ParseBoolDefault(req.Dev, h.defaultDev),
	}
}

func (h *ChartHandler) fail(c echo.Context, op string, key models.SeriesKey, err error) error {
	h.logger.Error(op+" failed", applogger.String("key", key.String()), applogger.Error(err))
	return xhttp.AppErrorResponse(c, toAppError(err))
}

func archiveDisabled() *xhttp.AppError {
	return xhttp.NotFoundError("ERR_ARCHIVE_DISABLED", "archive history is not enabled")
}

// toAppError maps use case errors onto API errors.
func toAppError(err error) error {
	var appErr *xhttp.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, drepo.ErrUpstream):
		return xhttp.UpstreamError("prediction service is unavailable, try again later").WithError(err)
	default:
		return xhttp.InternalError("internal error").WithError(err)
	}
}
