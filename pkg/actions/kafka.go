package actions

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/dasmlab/translatron/pkg/config"
	"github.com/dasmlab/translatron/pkg/translatron"
)

// MessageWriter is the subset of *kafka.Writer used by KafkaPublisher.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// NewKafkaWriter returns a synchronous writer so that publish failures reach
// the dispatcher.
func NewKafkaWriter(cfg config.KafkaConfig) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}
}

// KafkaPublisher publishes each record as JSON, keyed by conversation id so
// that a conversation stays on one partition.
type KafkaPublisher struct {
	writer MessageWriter
	logger *logrus.Logger
}

func NewKafkaPublisher(writer MessageWriter, logger *logrus.Logger) *KafkaPublisher {
	if logger == nil {
		logger = logrus.New()
	}
	return &KafkaPublisher{writer: writer, logger: logger}
}

func (p *KafkaPublisher) Name() string { return string(ActionKafka) }

func (p *KafkaPublisher) Handle(ctx context.Context, record *translatron.TextRecord) error {
	value, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(record.ConversationID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "message_id", Value: []byte(record.MessageID)},
			{Key: "original_lang", Value: []byte(record.OriginalLang)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka publish: %w", err)
	}

	p.logger.WithFields(logrus.Fields{
		"message_id":      record.MessageID,
		"conversation_id": record.ConversationID,
	}).Debug("Published record to Kafka")
	return nil
}
