package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sanspareilsmyn/binavg/internal/config"
	"github.com/sanspareilsmyn/binavg/internal/message"
)

// Sink receives every closed-bin average.
type Sink interface {
	// Name is used as the "sink" metric label.
	Name() string
	Write(ctx context.Context, rec message.AverageRecord) error
	Close() error
}

// NewSink builds the sink selected by cfg.Type.
func NewSink(cfg config.SinkConfig, logger *zap.Logger) (Sink, error) {
	switch cfg.Type {
	case config.SinkLog, "":
		return NewLogSink(logger), nil
	case config.SinkKafka:
		return NewKafkaSink(cfg.Kafka, logger)
	case config.SinkMQTT:
		return NewMQTTSink(cfg.MQTT, logger)
	default:
		return nil, fmt.Errorf("%w: unknown sink type %q", ErrSinkCreationFailed, cfg.Type)
	}
}

// LogSink writes averages to the log. Useful for development and dry runs.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Name() string { return config.SinkLog }

func (s *LogSink) Write(_ context.Context, rec message.AverageRecord) error {
	fields := []zap.Field{
		zap.Float64("bin_start", rec.BinStart),
		zap.Float64("bin_end", rec.BinEnd),
		zap.Float64("timestamp", rec.Timestamp),
	}
	if rec.Channels != nil {
		fields = append(fields, zap.Float64s("channels", rec.Channels))
	}
	if rec.Values != nil {
		fields = append(fields, zap.Any("values", rec.Values))
	}
	s.logger.Info("Bin average", fields...)
	return nil
}

func (s *LogSink) Close() error { return nil }
