package averager

import (
	"fmt"

	"go.uber.org/zap"
)

// Positional averages records of the form [timestamp, v1, ..., vN], where a
// channel is identified by its position. Averages have the same shape.
//
// Positional is not safe for concurrent use.
type Positional struct {
	numChannels int
	policy      ValuePolicy
	core        *binner[int]
	listeners   listeners[[]float64]
}

// NewPositional creates an averager with bins of binSizeSeconds and numChannels
// channels. Both arguments must be positive integers; integral floats, json.Number
// and numeric strings are accepted.
func NewPositional(binSizeSeconds, numChannels interface{}, opts ...Option) (*Positional, error) {
	binSize, err := toPositiveInt("binSizeSeconds", binSizeSeconds)
	if err != nil {
		return nil, err
	}
	n, err := toPositiveInt("numChannels", numChannels)
	if err != nil {
		return nil, err
	}

	o := buildOptions(SkipInvalid, opts)
	keys := make([]int, n)
	for i := range keys {
		keys[i] = i
	}

	o.logger.Debug("Positional averager created",
		zap.Int64("bin_size_seconds", binSize),
		zap.Int64("channels", n),
		zap.Stringer("value_policy", o.policy),
	)

	return &Positional{
		numChannels: int(n),
		policy:      o.policy,
		core:        newBinner(binSize, keys, o.logger),
	}, nil
}

// NumChannels returns the number of channels after the timestamp.
func (p *Positional) NumChannels() int {
	return p.numChannels
}

// BinSizeSeconds returns the width of every bin.
func (p *Positional) BinSizeSeconds() int64 {
	return p.core.binSize
}

// AppendSample adds one record. When the record falls outside the open bin, the
// open bin is averaged, listeners are notified and the average is returned;
// otherwise the result is nil. On error the averager is left untouched.
func (p *Positional) AppendSample(record []interface{}) ([]float64, error) {
	if len(record) != 1+p.numChannels {
		return nil, fmt.Errorf("%w: record must have length %d, got %d", ErrInvalidArgument, 1+p.numChannels, len(record))
	}

	t, ok := toFloat64(record[0])
	if !ok {
		return nil, fmt.Errorf("%w: timestamp must be numeric, got %v", ErrInvalidArgument, record[0])
	}

	values := make(map[int]float64, p.numChannels)
	for i := 0; i < p.numChannels; i++ {
		raw := record[i+1]
		v, ok := toFloat64(raw)
		if !ok {
			if p.policy == RejectInvalid {
				return nil, fmt.Errorf("%w: channel %d is not numeric: %v", ErrInvalidArgument, i, raw)
			}
			continue
		}
		values[i] = v
	}

	var emitted []float64
	err := p.core.add(t, values, func(avg binAverage[int]) {
		emitted = p.shape(avg)
		p.listeners.notify(emitted, avg.bounds)
	})
	if err != nil {
		return nil, err
	}
	return emitted, nil
}

// ComputeAverageSample returns [avgTimestamp, avgChannel1, ...] for the open
// bin, or nil when nothing has been appended yet. The bin stays open.
func (p *Positional) ComputeAverageSample() []float64 {
	avg, ok := p.core.snapshot()
	if !ok {
		return nil
	}
	return p.shape(avg)
}

// Bounds returns the open bin's bounds.
func (p *Positional) Bounds() (Bounds, bool) {
	return p.core.bounds()
}

// OnBinClosed registers l for every rollover. The returned func unregisters it.
func (p *Positional) OnBinClosed(l Listener[[]float64]) (cancel func()) {
	return p.listeners.add(l)
}

func (p *Positional) shape(avg binAverage[int]) []float64 {
	out := make([]float64, 1+p.numChannels)
	out[0] = avg.timestamp
	for i := 0; i < p.numChannels; i++ {
		out[i+1] = avg.values[i]
	}
	return out
}
