package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gymtrack/internal/config"
	"github.com/gymtrack/internal/db"
	"github.com/gymtrack/internal/handler"
	"github.com/gymtrack/internal/logging"
	"github.com/gymtrack/internal/observability"
	"github.com/gymtrack/internal/repository"
	"github.com/gymtrack/internal/router"
	"github.com/gymtrack/internal/scheduler"
	"github.com/gymtrack/internal/service"
	"github.com/gymtrack/internal/session"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}

	closer := logging.Setup(logging.Options{
		Level:    cfg.LogLevel,
		File:     cfg.LogFile,
		ToStdout: cfg.LogToStdout,
		JSON:     cfg.LogJSON,
	})
	if closer != nil {
		defer closer.Close()
	}

	gin.SetMode(cfg.GinMode)

	// 初始化数据库
	gdb, err := db.Open(cfg.DatabasePath)
	if err != nil {
		logrus.WithError(err).Fatal("failed to initialize database")
	}
	defer db.Close(gdb)

	if cfg.SeedCatalog {
		seeded, err := db.SeedCatalog(gdb)
		if err != nil {
			logrus.WithError(err).Fatal("failed to seed exercise catalog")
		}
		logrus.WithField("exercises", seeded).Info("exercise catalog ready")
	}

	store := repository.NewStore(gdb)
	metrics := observability.New()
	orchestrator := session.New(store,
		session.WithRecorder(metrics),
		session.WithLogger(logrus.WithField("component", "session")),
	)
	media := service.NewMediaService(cfg.UploadDir, cfg.UploadURLPath)
	api := handler.NewAPI(store, orchestrator, media)

	sweeper := scheduler.New(orchestrator, metrics, cfg.StaleWorkoutAfter, cfg.StaleSweepInterval)
	if err := sweeper.Start(); err != nil {
		logrus.WithError(err).Fatal("failed to start stale workout sweeper")
	}
	defer sweeper.Stop()

	// 设置并运行 Gin 服务器
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router.SetupRouter(cfg, api, metrics),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logrus.WithField("addr", cfg.ListenAddr).Info("gymtrack server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("failed to run server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("server shutdown")
	}
	logrus.Info("server stopped")
}
