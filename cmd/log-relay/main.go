package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"log-relay/internal/api"
	"log-relay/internal/config"
	"log-relay/internal/engine"
	"log-relay/internal/generator/random"
	"log-relay/internal/relay"
	"log-relay/internal/remote"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		zap.Must(zap.NewProduction()).Fatal("failed to load config", zap.Error(err))
	}

	client := remote.NewClient(remote.Config{Timeout: cfg.Relay.Timeout})
	defer client.Close()

	r := relay.Build(cfg.Relay.Remote(), relay.WithClient(client))

	lvl := zap.NewAtomicLevelAt(cfg.Relay.Level.Zap())
	logger := relay.NewLogger(r, lvl)
	defer logger.Sync()

	logger.Info("loaded config",
		zap.Stringer("level", cfg.Relay.Level),
		zap.Bool("forwarding", cfg.Relay.Remote() != nil),
		zap.String("index", cfg.Relay.Index),
		zap.Int("workers", cfg.Engine.Workers),
		zap.Int("rate", cfg.Engine.DefaultRate),
	)

	generator := random.NewRandomGenerator(cfg.Generator)

	eng := engine.NewEngine(generator, logger, cfg.Engine)

	server := api.NewServer(eng, generator, lvl, logger)

	go func() {
		logger.Info("control API listening", zap.String("addr", cfg.API.Addr))
		if err := server.ListenAndServe(cfg.API.Addr); err != nil {
			logger.Error("control API stopped", zap.Error(err))
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	eng.Start(ctx)

	logger.Info("waiting for pending forwards")
	r.Wait()
}
