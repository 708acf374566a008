package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/fly-starter/internal/config"
	"github.com/iliyamo/fly-starter/internal/database"
	"github.com/iliyamo/fly-starter/internal/handler"
	"github.com/iliyamo/fly-starter/internal/queue"
	"github.com/iliyamo/fly-starter/internal/server"
	"github.com/iliyamo/fly-starter/internal/version"
)

const shutdownTimeout = 10 * time.Second

func main() {
	settings, err := config.Setup()
	if err != nil {
		log.Fatalf("load settings: %+v", err)
	}
	logger := log.StandardLogger()
	settings.ConfigureLogging(logger)

	deps := server.Deps{Logger: logger}

	db, err := database.Open(settings.DefaultDB())
	if err != nil {
		logger.WithError(err).Fatal("open database")
	}
	defer db.Close()
	// The server comes up without its database; the admin overview reports it.
	if err := database.Ping(context.Background(), db); err != nil {
		logger.WithError(err).Warn("database not reachable at startup")
	}
	deps.Database = handler.PingFunc(func(ctx context.Context) error { return database.Ping(ctx, db) })

	if rdb := config.NewRedisClient(settings.Redis); rdb != nil {
		defer rdb.Close()
		deps.Redis = rdb
	} else {
		logger.WithField("addr", settings.Redis.Addr).Warn("redis not reachable, admin rate limiting disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	if settings.AMQPURL != "" {
		deps.Audit = queue.NewPublisher(settings.AMQPURL)
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = queue.StartAuditConsumer(ctx, settings.AMQPURL, settings.AuditLogDir)
		}()
	}

	e, err := server.New(settings, deps)
	if err != nil {
		logger.WithError(err).Fatal("build server")
	}

	addr := ":" + settings.Port
	logger.WithFields(log.Fields{"addr": addr, "env": settings.Env, "version": version.Version}).Info("listening")

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- e.Start(addr)
	}()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("server error")
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping server")
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Error("server shutdown error")
	}
	wg.Wait()
	logger.Info("server stopped")
}
