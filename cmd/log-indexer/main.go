package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"log-relay/internal/indexer"
	"log-relay/internal/indexer/kafka"
	"log-relay/internal/indexer/receiver"
	"log-relay/internal/indexer/storage"
)

func main() {
	logger := zap.Must(zap.NewProduction())
	defer logger.Sync()

	cfg, err := indexer.LoadConfig()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	osClient, err := storage.NewOpenSearchClient(storage.Config{
		Addresses:          cfg.OpenSearchAddrs,
		Username:           cfg.OpenSearchUser,
		Password:           cfg.OpenSearchPassword,
		InsecureSkipVerify: cfg.OpenSearchInsecure,
	})
	if err != nil {
		logger.Fatal("failed to create OpenSearch client", zap.Error(err))
	}

	producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer producer.Close()

	consumer := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID, osClient, logger.Named("consumer"))

	server := receiver.NewServer(producer, logger.Named("receiver"))

	go func() {
		logger.Info("receiver listening", zap.String("addr", cfg.ServerAddr))
		if err := server.ListenAndServe(cfg.ServerAddr); err != nil {
			logger.Fatal("receiver failed", zap.Error(err))
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("consumer failed", zap.Error(err))
	}
	logger.Info("indexer stopped")
}
