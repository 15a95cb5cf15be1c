package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"MarketLens/internal/analyzers"
	"MarketLens/internal/domain/models"
	drepo "MarketLens/internal/domain/repository"
	"MarketLens/internal/report"
	xhttp "MarketLens/pkg/http"
	xlogger "MarketLens/pkg/logger"
)

// AnalysisHandler exposes the report orchestrator over HTTP. The analyze
// endpoint returns the rendered report verbatim; archiving and notification
// are best-effort and never fail the request.
type AnalysisHandler struct {
	logger       *xlogger.Logger
	orchestrator *report.Orchestrator
	registry     *analyzers.Registry
	archive      drepo.ReportArchive
	publisher    drepo.ReportPublisher
}

func NewAnalysisHandler(
	logger *xlogger.Logger,
	orchestrator *report.Orchestrator,
	registry *analyzers.Registry,
	archive drepo.ReportArchive,
	publisher drepo.ReportPublisher,
) *AnalysisHandler {
	return &AnalysisHandler{
		logger:       logger,
		orchestrator: orchestrator,
		registry:     registry,
		archive:      archive,
		publisher:    publisher,
	}
}

func (h *AnalysisHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/analyze", h.Analyze)
	g.GET("/modules", h.Modules)
	e.GET("/health", h.Health)
}

func (h *AnalysisHandler) Analyze(c echo.Context) error {
	req := &models.AnalyzeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	rep, rendered, err := h.orchestrator.Analyze(c.Request().Context(), *req)
	if err != nil {
		h.logger.Error("analyze failed",
			xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalErrorf("analyze %s: market data unavailable", req.Symbol))
	}

	h.afterReport(*req, rep, rendered)

	if req.Format == report.FormatJSON {
		return c.JSONBlob(http.StatusOK, []byte(rendered))
	}
	return c.String(http.StatusOK, rendered)
}

// afterReport archives and publishes off the request path. Both sinks are
// best-effort; failures are logged and dropped.
func (h *AnalysisHandler) afterReport(req models.AnalyzeRequest, rep *models.Report, rendered string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if h.archive != nil {
			if err := h.archive.Save(ctx, req, rendered); err != nil {
				h.logger.Warn("archive save failed",
					xlogger.String("symbol", req.Symbol), xlogger.Error(err))
			}
		}
		if h.publisher != nil {
			if err := h.publisher.Publish(ctx, req.Symbol, rep); err != nil {
				h.logger.Warn("report publish failed",
					xlogger.String("symbol", req.Symbol), xlogger.Error(err))
			}
		}
	}()
}

type moduleInfo struct {
	Name    string `json:"name"`
	Default bool   `json:"default"`
}

func (h *AnalysisHandler) Modules(c echo.Context) error {
	defaults := make(map[string]bool)
	for _, name := range h.registry.Defaults() {
		defaults[name] = true
	}
	out := make([]moduleInfo, 0)
	for _, name := range h.registry.List() {
		out = append(out, moduleInfo{Name: name, Default: defaults[name]})
	}
	return xhttp.SuccessResponse(c, out)
}

func (h *AnalysisHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}
