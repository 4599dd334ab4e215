package averager

import (
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// NamedAverage is the average of one bin in named mode.
type NamedAverage struct {
	Timestamp float64            `json:"timestamp"`
	Values    map[string]float64 `json:"values"`
}

// Named averages samples whose channels are identified by name.
//
// Named is not safe for concurrent use.
type Named struct {
	channels  []string
	policy    ValuePolicy
	core      *binner[string]
	listeners listeners[NamedAverage]
}

// NewNamed creates an averager with bins of binSizeSeconds over the given
// channels, which must be non-empty, distinct and non-blank.
func NewNamed(binSizeSeconds interface{}, channels []string, opts ...Option) (*Named, error) {
	binSize, err := toPositiveInt("binSizeSeconds", binSizeSeconds)
	if err != nil {
		return nil, err
	}
	if len(channels) == 0 {
		return nil, fmt.Errorf("%w: at least one channel name is required", ErrInvalidArgument)
	}

	seen := make(map[string]struct{}, len(channels))
	keys := make([]string, 0, len(channels))
	for _, name := range channels {
		if name == "" {
			return nil, fmt.Errorf("%w: channel names must be non-empty", ErrInvalidArgument)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("%w: duplicate channel name %q", ErrInvalidArgument, name)
		}
		seen[name] = struct{}{}
		keys = append(keys, name)
	}

	o := buildOptions(RejectInvalid, opts)
	o.logger.Debug("Named averager created",
		zap.Int64("bin_size_seconds", binSize),
		zap.Strings("channels", keys),
		zap.Stringer("value_policy", o.policy),
	)

	return &Named{
		channels: keys,
		policy:   o.policy,
		core:     newBinner(binSize, keys, o.logger),
	}, nil
}

// Channels returns the configured channel names, sorted.
func (n *Named) Channels() []string {
	out := append([]string(nil), n.channels...)
	sort.Strings(out)
	return out
}

// BinSizeSeconds returns the width of every bin.
func (n *Named) BinSizeSeconds() int64 {
	return n.core.binSize
}

// AppendSample adds one sample. Every configured channel must be present in
// values; unknown keys are ignored. Returns the closed bin's average on
// rollover, nil otherwise. On error the averager is left untouched.
func (n *Named) AppendSample(timestamp interface{}, values map[string]interface{}) (*NamedAverage, error) {
	t, ok := toFloat64(timestamp)
	if !ok {
		return nil, fmt.Errorf("%w: timestamp must be numeric, got %v", ErrInvalidArgument, timestamp)
	}

	accepted := make(map[string]float64, len(n.channels))
	for _, name := range n.channels {
		raw, present := values[name]
		if !present {
			return nil, fmt.Errorf("%w: missing channel %q", ErrInvalidArgument, name)
		}
		v, ok := toFloat64(raw)
		if !ok {
			if n.policy == RejectInvalid {
				return nil, fmt.Errorf("%w: channel %q is not numeric: %v", ErrInvalidArgument, name, raw)
			}
			continue
		}
		accepted[name] = v
	}

	var emitted *NamedAverage
	err := n.core.add(t, accepted, func(avg binAverage[string]) {
		shaped := shapeNamed(avg)
		emitted = &shaped
		n.listeners.notify(shaped, avg.bounds)
	})
	if err != nil {
		return nil, err
	}
	return emitted, nil
}

// ComputeAverageSample returns the open bin's average, or nil before the first sample.
func (n *Named) ComputeAverageSample() *NamedAverage {
	avg, ok := n.core.snapshot()
	if !ok {
		return nil
	}
	shaped := shapeNamed(avg)
	return &shaped
}

// Bounds returns the open bin's bounds.
func (n *Named) Bounds() (Bounds, bool) {
	return n.core.bounds()
}

// OnBinClosed registers l for every rollover. The returned func unregisters it.
func (n *Named) OnBinClosed(l Listener[NamedAverage]) (cancel func()) {
	return n.listeners.add(l)
}

func shapeNamed(avg binAverage[string]) NamedAverage {
	return NamedAverage{Timestamp: avg.timestamp, Values: avg.values}
}
