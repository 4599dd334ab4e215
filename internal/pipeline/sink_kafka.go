package pipeline

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/sanspareilsmyn/binavg/internal/config"
	"github.com/sanspareilsmyn/binavg/internal/message"
)

// messageWriter is the subset of *kafka.Writer the sink uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publishes averages as JSON to a Kafka topic, keyed by bin start.
type KafkaSink struct {
	writer messageWriter
	topic  string
	logger *zap.Logger
}

func NewKafkaSink(cfg config.KafkaSinkConfig, logger *zap.Logger) (*KafkaSink, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return nil, fmt.Errorf("%w: kafka sink needs brokers and a topic", ErrSinkCreationFailed)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Logger:       kafkaZapLogger{logger.Named("kafka-writer").WithOptions(zap.AddCallerSkip(1))},
		ErrorLogger:  kafkaZapErrorLogger{logger.Named("kafka-writer-error").WithOptions(zap.AddCallerSkip(1))},
	}
	logger.Info("Kafka sink created",
		zap.String("topic", cfg.Topic),
		zap.Strings("brokers", cfg.Brokers),
	)
	return &KafkaSink{writer: writer, topic: cfg.Topic, logger: logger}, nil
}

func (s *KafkaSink) Name() string { return config.SinkKafka }

func (s *KafkaSink) Write(ctx context.Context, rec message.AverageRecord) error {
	payload, err := rec.Encode()
	if err != nil {
		return fmt.Errorf("encode average: %w", err)
	}
	if err := s.writer.WriteMessages(ctx, kafka.Message{Key: rec.Key(), Value: payload}); err != nil {
		return fmt.Errorf("%w: %w", ErrSinkWriteFailed, err)
	}
	return nil
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
