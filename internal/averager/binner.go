package averager

import (
	"fmt"

	"go.uber.org/zap"
)

// bin holds the raw values accepted since the bin opened.
type bin[K comparable] struct {
	bounds     Bounds
	timestamps []float64
	samples    map[K][]float64
}

// newBin opens an empty bin with a fresh slice per channel.
func newBin[K comparable](bounds Bounds, keys []K) *bin[K] {
	samples := make(map[K][]float64, len(keys))
	for _, k := range keys {
		samples[k] = nil
	}
	return &bin[K]{bounds: bounds, samples: samples}
}

// binAverage is the mode-neutral average of one bin.
type binAverage[K comparable] struct {
	bounds    Bounds
	timestamp float64
	values    map[K]float64
}

// binner is the shared state machine behind Positional and Named. K identifies
// a channel: an index in positional mode, a name in named mode.
type binner[K comparable] struct {
	binSize int64
	keys    []K
	logger  *zap.Logger

	current *bin[K]
	last    float64
}

func newBinner[K comparable](binSize int64, keys []K, logger *zap.Logger) *binner[K] {
	return &binner[K]{
		binSize: binSize,
		keys:    keys,
		logger:  logger,
	}
}

// checkOrder fails with ErrOutOfOrder unless t is after the last accepted timestamp.
func (b *binner[K]) checkOrder(t float64) error {
	if b.current != nil && t <= b.last {
		return fmt.Errorf("%w: %v is not after %v", ErrOutOfOrder, t, b.last)
	}
	return nil
}

// add accumulates an already validated sample. values holds only the
// channels that passed numeric validation. When t opens a new bin, the previous
// bin's average is passed to onClose before t is accumulated.
func (b *binner[K]) add(t float64, values map[K]float64, onClose func(binAverage[K])) error {
	if err := b.checkOrder(t); err != nil {
		return err
	}

	switch {
	case b.current == nil:
		b.current = newBin(boundsFor(t, b.binSize), b.keys)
	case !b.current.bounds.Contains(t):
		avg := b.average()
		b.current = newBin(boundsFor(t, b.binSize), b.keys)

		if ce := b.logger.Check(zap.DebugLevel, "Bin closed"); ce != nil {
			ce.Write(
				zap.Float64("bin_start", avg.bounds.Start),
				zap.Float64("bin_end", avg.bounds.End),
				zap.Float64("avg_timestamp", avg.timestamp),
				zap.Float64("next_bin_start", b.current.bounds.Start),
			)
		}
		if onClose != nil {
			onClose(avg)
		}
	}

	b.last = t
	b.current.timestamps = append(b.current.timestamps, t)
	for _, k := range b.keys {
		if v, ok := values[k]; ok {
			b.current.samples[k] = append(b.current.samples[k], v)
		}
	}
	return nil
}

// average computes the mean of the open bin without closing it.
func (b *binner[K]) average() binAverage[K] {
	avg := binAverage[K]{
		bounds:    b.current.bounds,
		timestamp: mean(b.current.timestamps),
		values:    make(map[K]float64, len(b.keys)),
	}
	for _, k := range b.keys {
		avg.values[k] = mean(b.current.samples[k])
	}
	return avg
}

// snapshot returns the open bin's average, or false when no sample was ever accepted.
func (b *binner[K]) snapshot() (binAverage[K], bool) {
	if b.current == nil {
		return binAverage[K]{}, false
	}
	return b.average(), true
}

func (b *binner[K]) bounds() (Bounds, bool) {
	if b.current == nil {
		return Bounds{}, false
	}
	return b.current.bounds, true
}

// mean of an empty slice is 0.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
