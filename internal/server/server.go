package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ganesh1082/query-to-pdf-sub000/config"
	"github.com/ganesh1082/query-to-pdf-sub000/internal/runtime"
	"github.com/ganesh1082/query-to-pdf-sub000/internal/store"
	"github.com/ganesh1082/query-to-pdf-sub000/internal/telemetry"
	"github.com/ganesh1082/query-to-pdf-sub000/repository"
)

// Run wires the full service and blocks serving HTTP.
func Run(cfg *config.Config, addr string) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, HTTPError{Error: msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Cookie", "Authorization"},
		AllowCredentials: true,
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	reg := prometheus.NewRegistry()
	metrics := telemetry.NewMetrics(reg)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	ctx := context.Background()

	if err := Migrate("file://migrations", cfg.Storage.Postgres, "up", 0); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	st, err := store.New(ctx, cfg.Storage.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}

	cache, rdb, err := repository.NewReliabilityRepository(ctx, repository.RepoTypeRedis, cfg.Storage.Redis)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}

	runner, err := NewRunner(cfg, st, cache, metrics)
	if err != nil {
		return err
	}

	secret, err := runtime.LoadJWTSecret(cfg)
	if err != nil {
		return err
	}

	api := e.Group("/api")

	auth := &AuthHandler{Store: st, Secret: secret}
	auth.Register(api.Group("/auth"))

	protected := runtime.EchoAuthMiddleware(secret)

	reports := api.Group("/reports")
	reports.Use(protected)
	(&ReportsHandler{Store: st, Runner: runner}).Register(reports)

	schedules := api.Group("/schedules")
	schedules.Use(protected)
	(&SchedulesHandler{Store: st}).Register(schedules)

	learnings := api.Group("/learnings")
	learnings.Use(protected)
	(&LearningsHandler{Index: runner.Index()}).Register(learnings)

	sched := &Scheduler{Store: st, Runner: runner, Rdb: rdb, Stop: make(chan struct{})}
	sched.Start()

	if addr == "" {
		addr = cfg.Server.Address
	}
	return e.Start(addr)
}
