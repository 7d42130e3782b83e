// Command tickgen is stage A: a signed market-data fan-out server that
// synthesizes its own OHLCV tick stream.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/marketpulse/tickmesh/internal/fanout"
	"github.com/marketpulse/tickmesh/internal/generator"
	"github.com/marketpulse/tickmesh/internal/obs"
	"github.com/marketpulse/tickmesh/internal/signing"
)

func main() {
	cfg := loadConfig()
	logger, _, sync := obs.NewLogger(cfg.Production)
	defer sync()

	signer := signing.New(cfg.Secret)

	server, err := fanout.Listen(cfg.ListenAddr, cfg.SessionWatermark, logger)
	if err != nil {
		logger.Error("tickgen: cannot bind", "addr", cfg.ListenAddr, "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := server.Serve(); err != nil {
			logger.Info("tickgen: accept loop stopped", "error", err)
		}
	}()

	logger.Info("tickgen: listening", "addr", server.Addr().String())

	gen := generator.New(signer, server, logger)
	go gen.Run(ctx)

	<-ctx.Done()
	logger.Info("tickgen: shutting down")
	server.Close()
}
