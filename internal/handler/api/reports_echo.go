package api

import (
    "errors"
    "time"

    models "StockBrief/internal/domain/models"
    "StockBrief/internal/scheduler"
    xhttp "StockBrief/pkg/http"
    xlogger "StockBrief/pkg/logger"

    "github.com/labstack/echo/v4"
)

// RunTrigger is the scheduler side of the API.
type RunTrigger interface {
	Trigger() error
	Next() time.Time
	Running() bool
}

// LatestRun exposes the last run that produced a report and the last run overall.
type LatestRun interface {
	Latest() (*models.RunResult, bool)
	LastRun() (*models.RunResult, bool)
}

// ReportsEchoHandler serves manual runs and the latest report preview.
type ReportsEchoHandler struct {
	logger  *xlogger.Logger
	trigger RunTrigger
	latest  LatestRun
}

func NewReportsEchoHandler(logger *xlogger.Logger, trigger RunTrigger, latest LatestRun) *ReportsEchoHandler {
	return &ReportsEchoHandler{logger: logger, trigger: trigger, latest: latest}
}

func (h *ReportsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/runs", h.CreateRun)
	g.GET("/runs/status", h.Status)
	g.GET("/reports/latest", h.LatestReport)
}

// CreateRun queues a manual run on the scheduler loop.
func (h *ReportsEchoHandler) CreateRun(c echo.Context) error {
	req := &models.RunRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	if err := h.trigger.Trigger(); err != nil {
		if errors.Is(err, scheduler.ErrTriggerPending) {
			return xhttp.AppErrorResponse(c, xhttp.ConflictError("a run is already queued").WithError(err))
		}
		h.logger.Error("trigger run failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	h.logger.Info("manual run queued", xlogger.String("reason", req.Reason), xlogger.String("remote", c.RealIP()))
	return xhttp.AcceptedResponse(c, models.RunAccepted{Status: "queued", NextRun: h.trigger.Next()})
}

func (h *ReportsEchoHandler) Status(c echo.Context) error {
	st := models.SchedulerStatus{
		Running: h.trigger.Running(),
		NextRun: h.trigger.Next(),
	}
	if last, ok := h.latest.LastRun(); ok {
		st.LastRun = last
	}
	return xhttp.SuccessResponse(c, st)
}

// LatestReport renders the last report as HTML, or the run record with ?format=json.
func (h *ReportsEchoHandler) LatestReport(c echo.Context) error {
	last, ok := h.latest.Latest()
	if !ok || last.Report == nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("no report has been built yet"))
	}
	if c.QueryParam("format") == "json" {
		return xhttp.SuccessResponse(c, last)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return xhttp.HTMLResponse(c, last.Report.HTML)
}
