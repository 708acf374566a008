// Package server assembles the echo instance: middleware chain and path
// table.
package server

import (
	"context"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/fly-starter/internal/config"
	"github.com/iliyamo/fly-starter/internal/handler"
	"github.com/iliyamo/fly-starter/internal/middleware"
	"github.com/iliyamo/fly-starter/internal/router"
)

// Deps are the optional backing services. Any of them may be nil.
type Deps struct {
	Logger   *log.Logger
	Database handler.Pinger
	Redis    *redis.Client
	Audit    handler.AuditPublisher
}

// New builds the HTTP handler for settings.
func New(settings config.Settings, deps Deps) (*echo.Echo, error) {
	logger := deps.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Debug = settings.Debug

	// "/health" is served as "/health/", the same way APPEND_SLASH would.
	e.Pre(echomw.AddTrailingSlash())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(logger))
	// Inside the logger, so a recovered panic is logged as a 500.
	e.Use(echomw.Recover())
	e.Use(middleware.AllowedHosts(settings.AllowedHosts, settings.Debug))

	services := map[string]handler.Pinger{"database": deps.Database, "redis": nil}
	if deps.Redis != nil {
		rdb := deps.Redis
		services["redis"] = handler.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}
	admin := handler.NewAdminHandler(settings, services, deps.Audit,
		middleware.NewTokenBucket(settings.RateLimit, deps.Redis))

	if err := router.Register(e, router.Table(admin)); err != nil {
		return nil, err
	}
	return e, nil
}
