package api

import (
	"math"
	"time"

	models "PowerCast/internal/domain/models"
	domrepo "PowerCast/internal/domain/repository"
	"PowerCast/internal/forecast"
	"PowerCast/internal/usecase"
	xhttp "PowerCast/pkg/http"
	xlogger "PowerCast/pkg/logger"

	"github.com/labstack/echo/v4"
)

// BacktestEchoHandler implements Echo-based HTTP handlers following Clean Architecture.
type BacktestEchoHandler struct {
	logger *xlogger.Logger
	runner *usecase.BacktestRunner
	series *usecase.SeriesUseCase
	raw    *SeriesHandler
}

func NewBacktestEchoHandler(logger *xlogger.Logger, runner *usecase.BacktestRunner, series *usecase.SeriesUseCase) *BacktestEchoHandler {
	return &BacktestEchoHandler{logger: logger, runner: runner, series: series}
}

// SetRawSeries mounts the plain net/http series handler under the API group.
func (h *BacktestEchoHandler) SetRawSeries(raw *SeriesHandler) { h.raw = raw }

func (h *BacktestEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/backtests", h.Create)
	g.GET("/backtests/:id", h.Get)
	g.DELETE("/backtests/:id", h.Cancel)
	g.GET("/backtests/:id/forecasts", h.Forecasts)
	g.GET("/models", h.Models)
	g.GET("/series", h.Series)
	if h.raw != nil {
		g.GET("/series/raw", echo.WrapHandler(h.raw.Series()))
	}
}

func (h *BacktestEchoHandler) Create(c echo.Context) error {
	req := &models.BacktestRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	from, err := parseTime(req.From)
	if err != nil {
		return xhttp.BadRequestResponse(c, "invalid from timestamp")
	}
	to, err := parseTime(req.To)
	if err != nil {
		return xhttp.BadRequestResponse(c, "invalid to timestamp")
	}

	spec := models.RunSpec{
		Source:        req.Source,
		Metric:        req.Metric,
		Mode:          req.Mode,
		InitialWindow: req.InitialWindow,
		StepLength:    req.StepLength,
		Horizon:       req.Horizon,
		Frac:          req.Frac,
		Seed:          req.Seed,
		Models:        req.Models,
		Features:      req.Features,
		From:          from,
		To:            to,
	}

	run, err := h.runner.Submit(c.Request().Context(), spec, req.Async)
	if err != nil {
		h.logger.Error("backtest submit error", xlogger.Error(err))
		if run != nil {
			// run persisted with failed status; return it so the client can inspect
			return xhttp.SuccessResponse(c, run)
		}
		return xhttp.AppErrorResponse(c, err)
	}
	if req.Async {
		return xhttp.CreatedResponse(c, run)
	}
	return xhttp.SuccessResponse(c, run)
}

func (h *BacktestEchoHandler) Get(c echo.Context) error {
	run, err := h.runner.GetRun(c.Request().Context(), c.Param("id"))
	if err != nil {
		h.logger.Error("backtest get error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if run == nil {
		return xhttp.NotFoundResponse(c, "run not found")
	}
	return xhttp.SuccessResponse(c, run)
}

func (h *BacktestEchoHandler) Cancel(c echo.Context) error {
	id := c.Param("id")
	if !h.runner.Cancel(id) {
		return xhttp.NotFoundResponse(c, "no running evaluation for id")
	}
	return xhttp.SuccessResponse(c, map[string]string{"id": id, "status": "cancelling"})
}

// forecastRow is the JSON shape of one forecast-table row; nil cells stand
// for NaN, which JSON cannot encode.
type forecastRow struct {
	Time   time.Time           `json:"time"`
	Values map[string]*float64 `json:"values"`
}

func (h *BacktestEchoHandler) Forecasts(c echo.Context) error {
	table, err := h.runner.Forecasts(c.Request().Context(), c.Param("id"))
	if err != nil {
		h.logger.Error("forecasts load error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if table == nil {
		return xhttp.NotFoundResponse(c, "no forecasts for run")
	}

	rows := make([]forecastRow, len(table.Index))
	for i, ts := range table.Index {
		values := make(map[string]*float64, len(table.Columns))
		for _, col := range table.Columns {
			v := table.Values[col][i]
			if math.IsNaN(v) {
				values[col] = nil
				continue
			}
			vv := v
			values[col] = &vv
		}
		rows[i] = forecastRow{Time: ts, Values: values}
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *BacktestEchoHandler) Models(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string][]string{"models": forecast.KnownModels()})
}

func (h *BacktestEchoHandler) Series(c echo.Context) error {
	req := &models.SeriesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	from, err := parseTime(req.From)
	if err != nil {
		return xhttp.BadRequestResponse(c, "invalid from timestamp")
	}
	to, err := parseTime(req.To)
	if err != nil {
		return xhttp.BadRequestResponse(c, "invalid to timestamp")
	}
	if to.IsZero() {
		to = time.Now().UTC()
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -7)
	}

	res, err := h.series.GetSeries(c.Request().Context(), usecase.GetSeriesParams{
		Source:     req.Source,
		Metric:     req.Metric,
		From:       from,
		To:         to,
		Resolution: domrepo.NormalizeResolution(req.Res),
		Limit:      req.Limit,
	})
	if err != nil {
		h.logger.Error("series usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, s)
}
