// Package api implements the Echo HTTP handlers for the forecast service.
package api

import (
	"errors"

	models "StockCast/internal/domain/models"
	"StockCast/internal/evaluate"
	"StockCast/internal/usecase"
	xhttp "StockCast/pkg/http"
	xlogger "StockCast/pkg/logger"
	"StockCast/pkg/util"

	"github.com/labstack/echo/v4"
)

// ForecastEchoHandler exposes prediction, training, history and model
// discovery endpoints.
type ForecastEchoHandler struct {
	logger *xlogger.Logger
	uc     *usecase.ForecastUseCase
}

func NewForecastEchoHandler(logger *xlogger.Logger, uc *usecase.ForecastUseCase) *ForecastEchoHandler {
	return &ForecastEchoHandler{logger: logger, uc: uc}
}

func (h *ForecastEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/predict", h.Predict)
	g.POST("/train", h.Train)
	g.POST("/train/batch", h.TrainBatch)
	g.POST("/evaluate", h.Evaluate)
	g.GET("/models", h.Models)
	g.GET("/history", h.History)
	g.GET("/stocks", h.Stocks)
}

// appError maps typed domain errors onto HTTP statuses so clients can
// tell "train it first" from "try a longer period".
func appError(err error) *xhttp.AppError {
	switch {
	case errors.Is(err, models.ErrModelNotFound):
		return xhttp.NotFoundError(err.Error())
	case errors.Is(err, models.ErrUnknownAlgorithm):
		return xhttp.BadRequestError(err.Error())
	case errors.Is(err, models.ErrInsufficientData),
		errors.Is(err, models.ErrDataUnavailable):
		return xhttp.UnprocessableError(err.Error())
	case errors.Is(err, models.ErrArtifactCorrupt):
		return xhttp.InternalError(err.Error())
	}
	return xhttp.InternalError("Something went wrong")
}

func (h *ForecastEchoHandler) Predict(c echo.Context) error {
	req := &models.PredictRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.uc.Predict(c.Request().Context(), *req)
	if err != nil {
		h.logger.Error("predict usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, appError(err))
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ForecastEchoHandler) Train(c echo.Context) error {
	req := &models.TrainRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	if err := h.uc.Train(c.Request().Context(), *req); err != nil {
		h.logger.Error("train usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, appError(err))
	}
	return xhttp.SuccessResponse(c, map[string]string{
		"ticker":    req.Ticker,
		"algorithm": req.Algorithm,
		"status":    "trained",
	})
}

func (h *ForecastEchoHandler) TrainBatch(c echo.Context) error {
	req := &models.BatchTrainRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	status, err := h.uc.TrainBatch(c.Request().Context(), *req)
	if err != nil {
		h.logger.Error("train batch usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, appError(err))
	}
	return xhttp.SuccessResponse(c, status)
}

func (h *ForecastEchoHandler) Evaluate(c echo.Context) error {
	var req struct {
		Tickers   []string `json:"tickers" validate:"required,min=1,dive,min=1,max=20"`
		Metric    string   `json:"metric" default:"rmse" validate:"oneof=rmse mape"`
		TestRatio float64  `json:"test_ratio" default:"0.2" validate:"gt=0,lt=1"`
	}
	if verr := xhttp.ReadAndValidateRequest(c, &req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	opt := evaluate.DefaultOptions()
	opt.Metric = req.Metric
	opt.TestRatio = req.TestRatio

	report, err := h.uc.Evaluate(c.Request().Context(), req.Tickers, opt)
	if err != nil {
		h.logger.Error("evaluate usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, appError(err))
	}
	return xhttp.SuccessResponse(c, report)
}

func (h *ForecastEchoHandler) Models(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]any{
		"available": h.uc.ListModels(),
		"best":      h.uc.BestModels(),
	})
}

func (h *ForecastEchoHandler) History(c echo.Context) error {
	symbol := c.QueryParam("symbol")
	if symbol == "" {
		return xhttp.BadRequestResponse(c, "symbol required")
	}
	days := util.ParseIntDefault(c.QueryParam("days"), 30)

	res, err := h.uc.History(c.Request().Context(), symbol, days)
	if err != nil {
		h.logger.Error("history usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, appError(err))
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ForecastEchoHandler) Stocks(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.uc.Stocks())
}
