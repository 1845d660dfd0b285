package api

import (
	"PriceBoard/internal/domain/models"
	"PriceBoard/internal/usecase"
	xhttp "PriceBoard/pkg/http"
	applogger "PriceBoard/pkg/logger"

	"github.com/labstack/echo/v4"
)

type NewsHandler struct {
	logger *applogger.Logger
	news   *usecase.NewsUseCase
	mw     []echo.MiddlewareFunc
}

func NewNewsHandler(logger *applogger.Logger, uc *usecase.NewsUseCase, mw ...echo.MiddlewareFunc) *NewsHandler {
	if logger == nil {
		logger = applogger.Nop()
	}
	return &NewsHandler{logger: logger, news: uc, mw: mw}
}

func (h *NewsHandler) RegisterRoutes(e *echo.Echo) {
	e.Group("/api", h.mw...).GET("/news", h.Page)
}

func (h *NewsHandler) Page(c echo.Context) error {
	req := &models.NewsRequest{}
	if verr := xhttp.ReadAndValidateQuery(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	page, err := h.news.Page(c.Request().Context(), req.Page)
	if err != nil {
		h.logger.Error("news page failed", applogger.Int("page", req.Page), applogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.SuccessResponse(c, page)
}
