package kafka

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"log-relay/internal/indexer"
)

var (
	messagesConsumed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "log_indexer_kafka_messages_consumed_total",
		Help: "The total number of messages consumed from Kafka",
	})
	messagesSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "log_indexer_kafka_messages_skipped_total",
		Help: "Messages that could not be decoded",
	})
	consumerLag = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "log_indexer_kafka_consumer_lag",
		Help: "The current lag of the consumer group",
	})
)

const (
	batchSize     = 500
	flushInterval = 1 * time.Second
	retryBackoff  = 2 * time.Second
)

// Indexer stores a batch of documents.
type Indexer interface {
	IndexBatch(ctx context.Context, docs []indexer.Document) error
}

// Reader is the part of *kafka.Reader the consumer uses.
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Stats() kafka.ReaderStats
	Config() kafka.ReaderConfig
	Close() error
}

type Consumer struct {
	reader  Reader
	storage Indexer
	logger  *zap.Logger

	batchSize     int
	flushInterval time.Duration
	retryBackoff  time.Duration
}

func NewConsumer(brokers []string, topic string, groupID string, storage Indexer, logger *zap.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})

	return newConsumer(r, storage, logger)
}

func newConsumer(reader Reader, storage Indexer, logger *zap.Logger) *Consumer {
	return &Consumer{
		reader:        reader,
		storage:       storage,
		logger:        logger,
		batchSize:     batchSize,
		flushInterval: flushInterval,
		retryBackoff:  retryBackoff,
	}
}

// Start consumes until ctx is done. Offsets are committed only after the
// batch holding them was indexed. While indexing fails no new messages are
// fetched; the same batch is retried after a backoff.
func (c *Consumer) Start(ctx context.Context) error {
	defer c.reader.Close()
	c.logger.Info("starting kafka consumer", zap.String("topic", c.reader.Config().Topic))

	go c.reportLag(ctx)

	batchDocs := make([]indexer.Document, 0, c.batchSize)
	batchMessages := make([]kafka.Message, 0, c.batchSize)
	lastFlush := time.Now()

	flush := func() error {
		if len(batchDocs) > 0 {
			if err := c.storage.IndexBatch(ctx, batchDocs); err != nil {
				return err
			}
		}

		if err := c.reader.CommitMessages(ctx, batchMessages...); err != nil {
			c.logger.Warn("failed to commit messages", zap.Error(err))
		}

		messagesConsumed.Add(float64(len(batchDocs)))

		batchDocs = batchDocs[:0]
		batchMessages = batchMessages[:0]
		lastFlush = time.Now()
		return nil
	}

	for {
		due := len(batchMessages) >= c.batchSize ||
			(len(batchMessages) > 0 && time.Since(lastFlush) >= c.flushInterval)
		if due {
			if err := flush(); err != nil {
				c.logger.Error("failed to index batch", zap.Int("size", len(batchDocs)), zap.Error(err))
				if !sleep(ctx, c.retryBackoff) {
					return ctx.Err()
				}
			}
			continue
		}

		deadline := time.Now().Add(c.flushInterval)
		if len(batchMessages) > 0 {
			deadline = lastFlush.Add(c.flushInterval)
		}

		fetchCtx, cancel := context.WithDeadline(ctx, deadline)
		m, err := c.reader.FetchMessage(fetchCtx)
		cancel()

		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			if errors.Is(err, context.DeadlineExceeded) {
				continue
			}

			c.logger.Error("failed to fetch message", zap.Error(err))
			if !sleep(ctx, time.Second) {
				return ctx.Err()
			}
			continue
		}

		batchMessages = append(batchMessages, m)

		doc, err := decode(m)
		if err != nil {
			// Committed with the batch so a bad message cannot block the partition.
			messagesSkipped.Inc()
			c.logger.Warn("skipping undecodable message", zap.Int64("offset", m.Offset), zap.Error(err))
		} else {
			batchDocs = append(batchDocs, doc)
		}
	}
}

// sleep waits for d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (c *Consumer) reportLag(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			consumerLag.Set(float64(c.reader.Stats().Lag))
		}
	}
}
