package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"log-relay/internal/indexer"
)

type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}

	return &Producer{writer: w}
}

// Publish writes doc keyed by its index so one index stays on one partition.
func (p *Producer) Publish(ctx context.Context, doc indexer.Document) error {
	msg, err := encode(doc)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

func encode(doc indexer.Document) (kafka.Message, error) {
	value, err := json.Marshal(doc)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal document: %w", err)
	}

	return kafka.Message{
		Key:   []byte(doc.Index),
		Value: value,
		Time:  doc.ReceivedAt,
	}, nil
}

func decode(msg kafka.Message) (indexer.Document, error) {
	var doc indexer.Document
	if err := json.Unmarshal(msg.Value, &doc); err != nil {
		return indexer.Document{}, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return doc, nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
