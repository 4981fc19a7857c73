package api

import (
	"context"
	"errors"

	"github.com/labstack/echo/v4"

	"DipScan/internal/domain/models"
	"DipScan/internal/usecase"
	xhttp "DipScan/pkg/http"
	applogger "DipScan/pkg/logger"
)

// TopRequest is the query of GET /api/signals/top.
type TopRequest struct {
	N int `query:"n" validate:"omitempty,gte=1,lte=100"`
}

type scanRunner interface {
	Trigger(ctx context.Context) error
	Status() usecase.ScanStatus
}

type reportSource interface {
	Latest() (*models.ScanReport, bool)
}

// DashboardHandler serves the latest scan and lets clients trigger rescans.
type DashboardHandler struct {
	l       *applogger.Logger
	reports reportSource
	runner  scanRunner
	hub     *Hub
	topN    int
	// scanCtx outlives the request that triggered the scan.
	scanCtx context.Context
}

func NewDashboardHandler(l *applogger.Logger, reports reportSource, runner scanRunner, hub *Hub, topN int) *DashboardHandler {
	if l == nil {
		l = applogger.Nop()
	}
	if topN <= 0 {
		topN = 5
	}
	return &DashboardHandler{l: l, reports: reports, runner: runner, hub: hub, topN: topN, scanCtx: context.Background()}
}

// WithScanContext bounds background scans by ctx, usually the app lifetime.
func (h *DashboardHandler) WithScanContext(ctx context.Context) *DashboardHandler {
	h.scanCtx = ctx
	return h
}

func (h *DashboardHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/signals", h.Signals)
	g.GET("/signals/top", h.Top)
	g.GET("/trajectories", h.Trajectories)
	g.GET("/insights", h.Insights)
	g.GET("/profiles", h.Profiles)
	g.GET("/skipped", h.Skipped)
	g.POST("/scan", h.TriggerScan)
	g.GET("/scan/status", h.ScanStatus)
	if h.hub != nil {
		e.GET("/ws", h.hub.Serve)
	}
}

func notReady(c echo.Context) error {
	return xhttp.AppErrorResponse(c, xhttp.NotFoundError("no scan has completed yet"))
}

func (h *DashboardHandler) Signals(c echo.Context) error {
	report, ok := h.reports.Latest()
	if !ok {
		return notReady(c)
	}
	return xhttp.ListResponse(c, report.Ranked.Signals, report.Ranked.Len())
}

func (h *DashboardHandler) Top(c echo.Context) error {
	req := &TopRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	n := req.N
	if n == 0 {
		n = h.topN
	}

	report, ok := h.reports.Latest()
	if !ok {
		return notReady(c)
	}
	top := report.Ranked.Top(n)
	return xhttp.ListResponse(c, top, len(top))
}

func (h *DashboardHandler) Trajectories(c echo.Context) error {
	report, ok := h.reports.Latest()
	if !ok {
		return notReady(c)
	}
	return xhttp.ListResponse(c, report.Trajectories, len(report.Trajectories))
}

func (h *DashboardHandler) Insights(c echo.Context) error {
	report, ok := h.reports.Latest()
	if !ok {
		return notReady(c)
	}
	return xhttp.ListResponse(c, report.Insights, len(report.Insights))
}

// Profiles lists monthly averages and below-average days of the top assets.
func (h *DashboardHandler) Profiles(c echo.Context) error {
	report, ok := h.reports.Latest()
	if !ok {
		return notReady(c)
	}
	return xhttp.ListResponse(c, report.Profiles, len(report.Profiles))
}

func (h *DashboardHandler) Skipped(c echo.Context) error {
	report, ok := h.reports.Latest()
	if !ok {
		return notReady(c)
	}
	return xhttp.ListResponse(c, report.Skipped, len(report.Skipped))
}

func (h *DashboardHandler) TriggerScan(c echo.Context) error {
	if err := h.runner.Trigger(h.scanCtx); err != nil {
		if errors.Is(err, usecase.ErrScanInProgress) {
			started := h.runner.Status().LastStarted
			return xhttp.AppErrorResponse(c,
				xhttp.ConflictError("a scan is already running").WithParam("started_at", started))
		}
		h.l.Error("trigger scan error", applogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("could not start scan").WithError(err))
	}
	return xhttp.AcceptedResponse(c, h.runner.Status())
}

func (h *DashboardHandler) ScanStatus(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.runner.Status())
}
