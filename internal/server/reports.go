package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ganesh1082/query-to-pdf-sub000/internal/research"
	"github.com/ganesh1082/query-to-pdf-sub000/internal/store"
	"github.com/ganesh1082/query-to-pdf-sub000/models"
)

// RunLauncher starts a persisted research run in the background.
type RunLauncher interface {
	Execute(ctx context.Context, runID, topic string, keywords []string)
}

type ReportsHandler struct {
	Store  *store.Store
	Runner RunLauncher
}

func (h *ReportsHandler) Register(g *echo.Group) {
	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/:id", h.get)
}

func (h *ReportsHandler) create(c echo.Context) error {
	var req CreateReportRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req.Topic = strings.TrimSpace(req.Topic)
	if req.Topic == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "topic is required")
	}
	if req.ReportType == "" {
		req.ReportType = string(models.ReportMarketResearch)
	}

	ctx := c.Request().Context()
	active, err := h.Store.HasActiveRun(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if active {
		return echo.NewHTTPError(http.StatusConflict, "a research run is already in progress")
	}

	runID := uuid.NewString()
	if err := h.Store.CreateRun(ctx, runID, req.Topic, req.ReportType); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// The run outlives the request, so it gets its own context.
	go h.Runner.Execute(context.Background(), runID, req.Topic, req.Keywords)

	return c.JSON(http.StatusAccepted, CreateReportResponse{RunID: runID})
}

func (h *ReportsHandler) list(c echo.Context) error {
	limit := 50
	if v := c.QueryParam("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	runs, err := h.Store.ListRuns(c.Request().Context(), limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if runs == nil {
		runs = []store.RunRecord{}
	}
	return c.JSON(http.StatusOK, runs)
}

func (h *ReportsHandler) get(c echo.Context) error {
	run, err := h.Store.GetRun(c.Request().Context(), c.Param("id"))
	if err != nil {
		if err == models.ErrRunNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "run not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, run)
}

// LearningsHandler serves full-text search over learnings indexed during runs.
type LearningsHandler struct {
	Index *research.LearningIndex
}

func (h *LearningsHandler) Register(g *echo.Group) {
	g.GET("/search", h.search)
}

func (h *LearningsHandler) search(c echo.Context) error {
	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "q is required")
	}
	limit := 10
	if v := c.QueryParam("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	matches, err := h.Index.Search(q, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if matches == nil {
		matches = []string{}
	}
	return c.JSON(http.StatusOK, LearningSearchResponse{Query: q, Matches: matches})
}
