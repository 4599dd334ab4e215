package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/sanspareilsmyn/binavg/internal/averager"
	"github.com/sanspareilsmyn/binavg/internal/config"
	"github.com/sanspareilsmyn/binavg/internal/message"
)

// Sample is a decoded input message. Exactly one of Record and Named is set,
// depending on the averager mode.
type Sample struct {
	Record []interface{}
	Named  *message.NamedSample
}

// downsampler hides the averager mode from the binner loop. Closed bins are
// reported through the emit func given at construction.
type downsampler interface {
	append(s Sample) error
	partial() (message.AverageRecord, bool)
}

type positionalDownsampler struct {
	avg *averager.Positional
}

func (d *positionalDownsampler) append(s Sample) error {
	if s.Record == nil {
		return fmt.Errorf("%w: positional mode expects an array record", averager.ErrInvalidArgument)
	}
	_, err := d.avg.AppendSample(s.Record)
	return err
}

func (d *positionalDownsampler) partial() (message.AverageRecord, bool) {
	bounds, ok := d.avg.Bounds()
	if !ok {
		return message.AverageRecord{}, false
	}
	return positionalRecord(d.avg.ComputeAverageSample(), bounds), true
}

func positionalRecord(avg []float64, bounds averager.Bounds) message.AverageRecord {
	return message.AverageRecord{
		Mode:      config.ModePositional,
		BinStart:  bounds.Start,
		BinEnd:    bounds.End,
		Timestamp: avg[0],
		Channels:  avg[1:],
	}
}

type namedDownsampler struct {
	avg *averager.Named
}

func (d *namedDownsampler) append(s Sample) error {
	if s.Named == nil {
		return fmt.Errorf("%w: named mode expects an object sample", averager.ErrInvalidArgument)
	}
	_, err := d.avg.AppendSample(s.Named.Timestamp, s.Named.Values)
	return err
}

func (d *namedDownsampler) partial() (message.AverageRecord, bool) {
	bounds, ok := d.avg.Bounds()
	if !ok {
		return message.AverageRecord{}, false
	}
	return namedRecord(*d.avg.ComputeAverageSample(), bounds), true
}

func namedRecord(avg averager.NamedAverage, bounds averager.Bounds) message.AverageRecord {
	return message.AverageRecord{
		Mode:      config.ModeNamed,
		BinStart:  bounds.Start,
		BinEnd:    bounds.End,
		Timestamp: avg.Timestamp,
		Values:    avg.Values,
	}
}

// newDownsampler builds the averager described by cfg and routes its
// bin-closed notifications to emit.
func newDownsampler(cfg config.AveragerConfig, logger *zap.Logger, emit func(message.AverageRecord)) (downsampler, error) {
	policy, err := averager.ParseValuePolicy(cfg.ValuePolicy)
	if err != nil {
		return nil, err
	}
	opts := []averager.Option{
		averager.WithValuePolicy(policy),
		averager.WithLogger(logger.Named("averager")),
	}

	switch cfg.Mode {
	case config.ModePositional:
		avg, err := averager.NewPositional(cfg.BinSizeSeconds, cfg.ChannelCount, opts...)
		if err != nil {
			return nil, err
		}
		avg.OnBinClosed(func(a []float64, closed averager.Bounds) {
			emit(positionalRecord(a, closed))
		})
		return &positionalDownsampler{avg: avg}, nil
	case config.ModeNamed:
		avg, err := averager.NewNamed(cfg.BinSizeSeconds, cfg.Channels, opts...)
		if err != nil {
			return nil, err
		}
		avg.OnBinClosed(func(a averager.NamedAverage, closed averager.Bounds) {
			emit(namedRecord(a, closed))
		})
		return &namedDownsampler{avg: avg}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMode, cfg.Mode)
	}
}

// Binner owns the averager. It is the only goroutine touching it, so the
// averager needs no locking.
type Binner struct {
	ds      downsampler
	input   <-chan Sample
	output  chan<- message.AverageRecord
	metrics *Metrics
	logger  *zap.Logger

	pending []message.AverageRecord
}

// NewBinner creates the averaging stage for cfg.
func NewBinner(cfg config.AveragerConfig, input <-chan Sample, output chan<- message.AverageRecord, metrics *Metrics, logger *zap.Logger) (*Binner, error) {
	b := &Binner{
		input:   input,
		output:  output,
		metrics: metrics,
		logger:  logger,
	}

	ds, err := newDownsampler(cfg, logger, func(rec message.AverageRecord) {
		b.pending = append(b.pending, rec)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAveragerCreationFailed, err)
	}
	b.ds = ds

	logger.Info("Binner initialized",
		zap.Int("bin_size_seconds", cfg.BinSizeSeconds),
		zap.String("mode", cfg.Mode),
		zap.Int("channel_count", cfg.ChannelCount),
		zap.Strings("channels", cfg.Channels),
	)
	return b, nil
}

// Run accumulates samples until the input closes or the context is cancelled.
// The still-open bin is never emitted; it is logged on shutdown.
func (b *Binner) Run(ctx context.Context) error {
	sugar := b.logger.Sugar()
	sugar.Info("Starting binner loop...")
	defer sugar.Info("Binner loop stopped.")

	for {
		select {
		case s, ok := <-b.input:
			if !ok {
				sugar.Info("Binner input channel closed.")
				b.logPartial()
				return nil
			}
			b.process(s)
			if err := b.flush(ctx); err != nil {
				b.logPartial()
				return err
			}

		case <-ctx.Done():
			sugar.Info("Context cancelled, stopping binner.")
			b.logPartial()
			return ctx.Err()
		}
	}
}

func (b *Binner) process(s Sample) {
	err := b.ds.append(s)
	switch {
	case err == nil:
		b.metrics.samplesAccepted.Inc()
	case errors.Is(err, averager.ErrOutOfOrder):
		b.metrics.samplesRejected.WithLabelValues(reasonOutOfOrder).Inc()
		b.logger.Warn("Dropping out-of-order sample", zap.Error(err))
	case errors.Is(err, averager.ErrInvalidArgument):
		b.metrics.samplesRejected.WithLabelValues(reasonInvalid).Inc()
		b.logger.Warn("Dropping invalid sample", zap.Error(err))
	default:
		b.metrics.samplesRejected.WithLabelValues(reasonInvalid).Inc()
		b.logger.Error("Unexpected averager error", zap.Error(err))
	}
}

// flush forwards averages emitted during the last append.
func (b *Binner) flush(ctx context.Context) error {
	for len(b.pending) > 0 {
		rec := b.pending[0]
		select {
		case b.output <- rec:
			b.pending = b.pending[1:]
			b.metrics.binsClosed.Inc()
			b.logger.Debug("Sent bin average",
				zap.Float64("bin_start", rec.BinStart),
				zap.Float64("timestamp", rec.Timestamp),
			)
		case <-ctx.Done():
			b.logger.Warn("Context cancelled with unsent bin averages", zap.Int("pending", len(b.pending)))
			return ctx.Err()
		}
	}
	b.pending = nil
	return nil
}

func (b *Binner) logPartial() {
	rec, ok := b.ds.partial()
	if !ok {
		return
	}
	b.logger.Debug("Discarding open bin",
		zap.Float64("bin_start", rec.BinStart),
		zap.Float64("bin_end", rec.BinEnd),
		zap.Float64("avg_timestamp", rec.Timestamp),
	)
}
