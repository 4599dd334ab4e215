package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Rejection reasons used as the "reason" label.
const (
	reasonParseError = "parse_error"
	reasonInvalid    = "invalid"
	reasonOutOfOrder = "out_of_order"
)

// Metrics holds the pipeline's Prometheus collectors.
type Metrics struct {
	samplesAccepted  prometheus.Counter
	samplesRejected  *prometheus.CounterVec
	binsClosed       prometheus.Counter
	lastBinTimestamp prometheus.Gauge
	channelAverage   *prometheus.GaugeVec
	sinkWrites       *prometheus.CounterVec
	sinkLatency      prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		samplesAccepted: factory.NewCounter(prometheus.CounterOpts{
			Name: "binavg_samples_accepted_total",
			Help: "Total number of samples accumulated into a bin.",
		}),
		samplesRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "binavg_samples_rejected_total",
				Help: "Total number of samples dropped before accumulation, by reason.",
			},
			[]string{"reason"}, // parse_error, invalid, out_of_order
		),
		binsClosed: factory.NewCounter(prometheus.CounterOpts{
			Name: "binavg_bins_closed_total",
			Help: "Total number of bins averaged and emitted.",
		}),
		lastBinTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Name: "binavg_last_bin_average_timestamp_seconds",
			Help: "Averaged timestamp of the most recently published bin.",
		}),
		channelAverage: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "binavg_channel_average_value",
				Help: "Average value per channel in the most recently published bin.",
			},
			[]string{"channel"},
		),
		sinkWrites: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "binavg_sink_writes_total",
				Help: "Total number of sink writes, by result.",
			},
			[]string{"sink", "result"},
		),
		sinkLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "binavg_sink_write_duration_seconds",
			Help:    "Time spent writing one average to the sink.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
	}
}
