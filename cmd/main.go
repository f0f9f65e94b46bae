package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"strangerchat/backend/internal/api/handler"
	"strangerchat/backend/internal/chathub"
	"strangerchat/backend/internal/config"
	"strangerchat/backend/internal/localization"
	"strangerchat/backend/internal/logger"
	"strangerchat/backend/internal/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(&logger.LogConfig{
		Level:      cfg.LogLevel,
		Filename:   cfg.LogFilename,
		MaxSize:    cfg.LogMaxSize,
		MaxAge:     cfg.LogMaxAge,
		MaxBackups: cfg.LogMaxBackups,
	}, cfg.Mode); err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage and the optional Redis fan-out.
	db, err := storage.OpenDB(cfg.DBDriver, cfg.DSN)
	if err != nil {
		logger.Fatal("database connection failed", zap.String("driver", cfg.DBDriver), zap.Error(err))
	}
	rdb, err := storage.OpenRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Fatal("redis connection failed", zap.Error(err))
	}
	if rdb != nil {
		defer rdb.Close()
	}
	store := storage.NewStorageService(db, rdb)
	logger.Info("storage ready",
		zap.String("driver", cfg.DBDriver),
		zap.Bool("redis", rdb != nil))

	audit := storage.NewAuditWriter(store, cfg.AuditBuffer)
	auditCtx, stopAudit := context.WithCancel(context.Background())
	go audit.Run(auditCtx)

	// Hub
	texts := localization.Default()
	relay := chathub.NewRelay(chathub.NewRegistry(), texts, chathub.RelayConfig{
		MaxMessageLength: cfg.MaxMessageLength,
		MaxReportLength:  cfg.MaxReportLength,
		RematchDelay:     cfg.RematchDelay,
	})
	hub := chathub.NewManagerService(relay, audit, cfg.SweepInterval)
	go hub.Run(ctx)

	// HTTP
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	handler.NewHandler(hub, store, texts, cfg).Routes(r)

	server := &http.Server{
		Addr:           cfg.Addr,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	<-hub.Done()

	stopAudit()
	<-audit.Done()
	logger.Info("stopped")
}

// requestLogger logs every non-websocket request through zap.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if c.Request.URL.Path == "/ws" {
			return
		}
		logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client", c.ClientIP()))
	}
}
