package pipeline

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sanspareilsmyn/binavg/internal/config"
	"github.com/sanspareilsmyn/binavg/internal/message"
)

func TestPublisherWritesAndUpdatesGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	sink := &fakeSink{}
	input := make(chan message.AverageRecord, 2)

	input <- testRecord
	input <- message.AverageRecord{
		Mode: config.ModeNamed, BinStart: 30, BinEnd: 60, Timestamp: 45,
		Values: map[string]float64{"voltage": 231},
	}
	close(input)

	p := NewPublisher(sink, input, metrics, zap.NewNop())
	require.NoError(t, p.Run(context.Background()))

	assert.Len(t, sink.written(), 2)
	assert.True(t, sink.closed)
	assert.Equal(t, 45.0, testutil.ToFloat64(metrics.lastBinTimestamp))
	assert.Equal(t, 14.0, testutil.ToFloat64(metrics.channelAverage.WithLabelValues("ch1")))
	assert.Equal(t, 231.0, testutil.ToFloat64(metrics.channelAverage.WithLabelValues("voltage")))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.sinkWrites.WithLabelValues("fake", "success")))

	count, err := testutil.GatherAndCount(reg, "binavg_sink_write_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPublisherContinuesAfterSinkFailure(t *testing.T) {
	metrics := NewMetrics(nil)
	sink := &fakeSink{writeErr: errBoom}
	input := make(chan message.AverageRecord, 3)
	for i := 0; i < 3; i++ {
		input <- testRecord
	}
	close(input)

	p := NewPublisher(sink, input, metrics, zap.NewNop())
	require.NoError(t, p.Run(context.Background()))

	assert.Empty(t, sink.written())
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.sinkWrites.WithLabelValues("fake", "failure")))
}
