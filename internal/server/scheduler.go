package server

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorhill/cronexpr"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/ganesh1082/query-to-pdf-sub000/internal/store"
	"github.com/ganesh1082/query-to-pdf-sub000/models"
	"github.com/ganesh1082/query-to-pdf-sub000/repository/redis_repository"
)

// Scheduler fires recurring report schedules. A Redis lock keeps multiple
// instances from launching the same schedule twice.
type Scheduler struct {
	Store  *store.Store
	Runner RunLauncher
	Rdb    *redis.Client
	Stop   chan struct{}

	logger *log.Logger
}

func (s *Scheduler) Start() {
	if s.logger == nil {
		s.logger = log.New(log.Writer(), "[SCHED] ", log.LstdFlags)
	}
	ticker := time.NewTicker(time.Minute)
	go func() {
		for {
			select {
			case <-s.Stop:
				ticker.Stop()
				return
			case <-ticker.C:
				s.tick()
			}
		}
	}()
}

func (s *Scheduler) tick() {
	ctx := context.Background()
	schedules, err := s.Store.ListSchedules(ctx)
	if err != nil {
		s.logger.Printf("listing schedules: %v", err)
		return
	}
	for _, sched := range schedules {
		if !isDue(sched.CronExpr, sched.LastRunAt) {
			continue
		}
		if s.Rdb != nil {
			ok, err := redis_repository.AcquireLock(ctx, s.Rdb, sched.ID, 2*time.Minute)
			if err != nil {
				s.logger.Printf("schedule %s: lock: %v", sched.ID, err)
				continue
			}
			if !ok {
				continue
			}
		}

		active, err := s.Store.HasActiveRun(ctx)
		if err != nil || active {
			continue
		}

		runID := uuid.NewString()
		if err := s.Store.CreateRun(ctx, runID, sched.Topic, sched.ReportType); err != nil {
			s.logger.Printf("schedule %s: creating run: %v", sched.ID, err)
			continue
		}
		if err := s.Store.TouchSchedule(ctx, sched.ID); err != nil {
			s.logger.Printf("schedule %s: touch: %v", sched.ID, err)
		}
		s.logger.Printf("schedule %s fired run %s for %q", sched.ID, runID, sched.Topic)
		go s.Runner.Execute(context.Background(), runID, sched.Topic, nil)
	}
}

// isDue determines whether a schedule should fire now. Supports "@daily",
// "@hourly", and standard 5-field cron expressions.
func isDue(cronSpec string, last *time.Time) bool {
	now := time.Now()
	switch cronSpec {
	case "@daily":
		if last == nil {
			return true
		}
		return now.Sub(*last) >= 24*time.Hour
	case "@hourly":
		if last == nil {
			return true
		}
		return now.Sub(*last) >= time.Hour
	}
	expr, err := cronexpr.Parse(cronSpec)
	if err != nil {
		return false
	}
	base := now.Add(-24 * time.Hour)
	if last != nil {
		base = *last
	}
	next := expr.Next(base)
	return !next.IsZero() && !next.After(now)
}

// SchedulesHandler manages the recurring report definitions.
type SchedulesHandler struct {
	Store *store.Store
}

func (h *SchedulesHandler) Register(g *echo.Group) {
	g.POST("", h.create)
	g.GET("", h.list)
	g.DELETE("/:id", h.remove)
}

func (h *SchedulesHandler) create(c echo.Context) error {
	var req CreateScheduleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req.Topic = strings.TrimSpace(req.Topic)
	if req.Topic == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "topic is required")
	}
	if req.CronExpr != "@daily" && req.CronExpr != "@hourly" {
		if _, err := cronexpr.Parse(req.CronExpr); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid cron expression")
		}
	}
	if req.ReportType == "" {
		req.ReportType = string(models.ReportMarketResearch)
	}
	id := uuid.NewString()
	if err := h.Store.CreateSchedule(c.Request().Context(), id, req.Topic, req.ReportType, req.CronExpr); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, map[string]string{"id": id})
}

func (h *SchedulesHandler) list(c echo.Context) error {
	schedules, err := h.Store.ListSchedules(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if schedules == nil {
		schedules = []store.ScheduleRecord{}
	}
	return c.JSON(http.StatusOK, schedules)
}

func (h *SchedulesHandler) remove(c echo.Context) error {
	if err := h.Store.DeleteSchedule(c.Request().Context(), c.Param("id")); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
