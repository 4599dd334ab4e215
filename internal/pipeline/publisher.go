package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sanspareilsmyn/binavg/internal/message"
)

// Publisher receives closed-bin averages, writes them to the sink and
// updates the per-channel gauges.
type Publisher struct {
	sink    Sink
	input   <-chan message.AverageRecord
	metrics *Metrics
	logger  *zap.Logger
}

func NewPublisher(sink Sink, input <-chan message.AverageRecord, metrics *Metrics, logger *zap.Logger) *Publisher {
	logger.Debug("Publisher initialized", zap.String("sink", sink.Name()))
	return &Publisher{
		sink:    sink,
		input:   input,
		metrics: metrics,
		logger:  logger,
	}
}

// Run publishes records until the input closes or the context is cancelled.
// A failed write is logged and counted; it does not stop the loop.
func (p *Publisher) Run(ctx context.Context) error {
	sugar := p.logger.Sugar()
	sugar.Info("Starting publisher loop...")
	defer func() {
		if err := p.sink.Close(); err != nil {
			sugar.Errorw("Failed to close sink", zap.Error(err))
		}
		sugar.Info("Publisher loop stopped.")
	}()

	for {
		select {
		case rec, ok := <-p.input:
			if !ok {
				sugar.Info("Publisher input channel closed.")
				return nil
			}
			p.publish(ctx, rec)

		case <-ctx.Done():
			sugar.Info("Context cancelled, stopping publisher.")
			return ctx.Err()
		}
	}
}

func (p *Publisher) publish(ctx context.Context, rec message.AverageRecord) {
	p.updateGauges(rec)

	start := time.Now()
	err := p.sink.Write(ctx, rec)
	p.metrics.sinkLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		p.metrics.sinkWrites.WithLabelValues(p.sink.Name(), "failure").Inc()
		p.logger.Error("Failed to publish bin average",
			zap.String("sink", p.sink.Name()),
			zap.Float64("bin_start", rec.BinStart),
			zap.Error(err),
		)
		return
	}
	p.metrics.sinkWrites.WithLabelValues(p.sink.Name(), "success").Inc()

	p.logger.Debug("Bin average published",
		zap.String("sink", p.sink.Name()),
		zap.Float64("bin_start", rec.BinStart),
		zap.Float64("bin_end", rec.BinEnd),
		zap.Float64("timestamp", rec.Timestamp),
	)
}

func (p *Publisher) updateGauges(rec message.AverageRecord) {
	p.metrics.lastBinTimestamp.Set(rec.Timestamp)
	for i, v := range rec.Channels {
		p.metrics.channelAverage.WithLabelValues(channelLabel(i)).Set(v)
	}
	for name, v := range rec.Values {
		p.metrics.channelAverage.WithLabelValues(name).Set(v)
	}
}

// channelLabel names positional channels ch1..chN, matching the record layout [t, v1..vN].
func channelLabel(i int) string {
	return fmt.Sprintf("ch%d", i+1)
}
