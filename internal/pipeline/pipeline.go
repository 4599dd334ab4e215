package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/sanspareilsmyn/binavg/internal/config"
	"github.com/sanspareilsmyn/binavg/internal/message"
)

const channelBufferSize = 100

// runner is a pipeline stage driven by Run.
type runner interface {
	Run(ctx context.Context) error
}

// Pipeline wires consumer -> parser -> binner -> publisher.
type Pipeline struct {
	mode      string
	consumer  runner
	binner    runner
	publisher runner
	metrics   *Metrics
	logger    *zap.Logger

	rawMessages   chan []byte
	parsedSamples chan Sample
	averages      chan message.AverageRecord
}

// New creates and wires up a pipeline. Metrics are registered with reg.
func New(cfg *config.Config, reg prometheus.Registerer, logger *zap.Logger) (*Pipeline, error) {
	initLogger := logger.Named("pipeline.init")

	rawMessages := make(chan []byte, channelBufferSize)
	parsedSamples := make(chan Sample, channelBufferSize)
	averages := make(chan message.AverageRecord, channelBufferSize)
	metrics := NewMetrics(reg)

	consumer, err := NewConsumer(cfg.Kafka, rawMessages, logger.Named("consumer"))
	if err != nil {
		initLogger.Error("Failed to create consumer", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrConsumerCreationFailed, err)
	}

	binner, err := NewBinner(cfg.Averager, parsedSamples, averages, metrics, logger.Named("binner"))
	if err != nil {
		initLogger.Error("Failed to create binner", zap.Error(err))
		return nil, err
	}

	sink, err := NewSink(cfg.Sink, logger.Named("sink"))
	if err != nil {
		initLogger.Error("Failed to create sink", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrSinkCreationFailed, err)
	}
	publisher := NewPublisher(sink, averages, metrics, logger.Named("publisher"))

	p := &Pipeline{
		mode:          cfg.Averager.Mode,
		consumer:      consumer,
		binner:        binner,
		publisher:     publisher,
		metrics:       metrics,
		logger:        logger.Named("pipeline"),
		rawMessages:   rawMessages,
		parsedSamples: parsedSamples,
		averages:      averages,
	}

	initLogger.Info("Pipeline instance created successfully")
	return p, nil
}

// Run starts all pipeline components and waits for them to complete or context cancellation.
func (p *Pipeline) Run(ctx context.Context) error {
	sugar := p.logger.Sugar()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	pipelineErr := make(chan error, 3) // consumer, binner, publisher

	sugar.Info("Pipeline Run: Starting components...")

	wg.Add(4)
	go p.runStage(ctx, &wg, pipelineErr, "consumer", p.consumer, ErrConsumerRunFailed, func() { close(p.rawMessages) })
	go p.runParser(ctx, &wg)
	go p.runStage(ctx, &wg, pipelineErr, "binner", p.binner, ErrBinnerRunFailed, func() { close(p.averages) })
	go p.runStage(ctx, &wg, pipelineErr, "publisher", p.publisher, ErrPublisherRunFailed, nil)

	var firstErr error
	select {
	case <-ctx.Done():
		sugar.Info("Pipeline Run: Context cancelled. Waiting for components to finish...")
		firstErr = ctx.Err()
	case err := <-pipelineErr:
		sugar.Errorw("Pipeline Run: Received error from a component, initiating shutdown...", zap.Error(err))
		firstErr = err
		cancel()
	}

	wg.Wait()
	sugar.Info("Pipeline Run: All components finished.")

	if firstErr != nil && !errors.Is(firstErr, context.Canceled) {
		return firstErr
	}
	return nil
}

// runStage runs one component, reporting unexpected errors and closing its
// output channel on exit.
func (p *Pipeline) runStage(ctx context.Context, wg *sync.WaitGroup, errCh chan<- error, name string, stage runner, wrap error, closeOutput func()) {
	defer wg.Done()
	if closeOutput != nil {
		defer closeOutput()
	}

	logger := p.logger.With(zap.String("component", name))
	logger.Debug("Starting component goroutine...")

	err := stage.Run(ctx)
	switch {
	case err == nil:
		logger.Debug("Component goroutine finished normally")
	case errors.Is(err, context.Canceled):
		logger.Debug("Component goroutine cancelled gracefully")
	default:
		logger.Error("Component exited with error", zap.Error(err))
		errCh <- fmt.Errorf("%w: %w", wrap, err)
	}
}

// runParser decodes raw payloads according to the averager mode.
func (p *Pipeline) runParser(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	defer close(p.parsedSamples)

	parserLogger := p.logger.Named("parser")
	parserLogger.Debug("Starting parser goroutine...")

	for {
		select {
		case raw, ok := <-p.rawMessages:
			if !ok {
				parserLogger.Debug("Parser finished (raw message channel closed).")
				return
			}

			sample, err := parseSample(p.mode, raw)
			if err != nil {
				p.metrics.samplesRejected.WithLabelValues(reasonParseError).Inc()
				parserLogger.Warn("Failed to parse message, skipping",
					zap.String("payload", message.Snippet(raw, 120)),
					zap.Error(err),
				)
				continue
			}

			select {
			case p.parsedSamples <- sample:
			case <-ctx.Done():
				parserLogger.Debug("Parser context cancelled during send.", zap.Error(ctx.Err()))
				return
			}

		case <-ctx.Done():
			parserLogger.Debug("Parser context cancelled while waiting for raw message.", zap.Error(ctx.Err()))
			return
		}
	}
}

func parseSample(mode string, raw []byte) (Sample, error) {
	switch mode {
	case config.ModePositional:
		record, err := message.ParsePositionalJSON(raw)
		if err != nil {
			return Sample{}, err
		}
		return Sample{Record: record}, nil
	case config.ModeNamed:
		named, err := message.ParseNamedJSON(raw)
		if err != nil {
			return Sample{}, err
		}
		return Sample{Named: &named}, nil
	default:
		return Sample{}, fmt.Errorf("%w: %q", ErrUnsupportedMode, mode)
	}
}
