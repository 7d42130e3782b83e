// Command gateway is stage B: it consumes stage A's signed tick stream,
// aggregates it into one-second bars, persists each closed bar, and
// re-publishes it to browser subscribers over a push channel.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marketpulse/tickmesh/internal/aggregator"
	"github.com/marketpulse/tickmesh/internal/broadcast"
	"github.com/marketpulse/tickmesh/internal/obs"
	"github.com/marketpulse/tickmesh/internal/ring"
	"github.com/marketpulse/tickmesh/internal/signing"
	"github.com/marketpulse/tickmesh/internal/store"
	"github.com/marketpulse/tickmesh/internal/ticks"
	"github.com/marketpulse/tickmesh/internal/upstream"
)

func main() {
	cfg := loadConfig()
	logger, zapLogger, sync := obs.NewLogger(cfg.Production)
	defer sync()

	signer := signing.New(cfg.Secret)
	ingress := ring.New[ticks.Tick](cfg.RingCapacity)

	db, err := store.Open(cfg.DBPath, logger)
	if err != nil {
		logger.Error("gateway: cannot open store", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}

	hub := broadcast.NewHub(logger)
	agg := aggregator.New(ingress, db, hub, logger)
	client := upstream.New(cfg.UpstreamAddr, signer, ingress, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go client.Run(ctx)
	go agg.Run(ctx)

	router := gin.New()
	router.Use(ginzap.Ginzap(zapLogger, time.RFC3339, true))
	router.Use(ginzap.RecoveryWithZap(zapLogger, true))
	router.GET("/", func(c *gin.Context) {
		c.File(cfg.WebRoot)
	})
	router.GET("/ws", gin.WrapF(hub.ServeWS))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{Addr: cfg.WSAddr, Handler: router}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	logger.Info("gateway: listening", "addr", cfg.WSAddr, "upstream", cfg.UpstreamAddr, "db", cfg.DBPath)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("gateway: cannot bind", "addr", cfg.WSAddr, "error", err)
		os.Exit(1)
	}
}
