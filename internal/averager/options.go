package averager

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// ValuePolicy decides what happens to a channel value that is not a finite number.
type ValuePolicy int

const (
	// DefaultPolicy resolves to SkipInvalid in positional mode and RejectInvalid in named mode.
	DefaultPolicy ValuePolicy = iota
	// SkipInvalid silently leaves the value out of its channel's average.
	SkipInvalid
	// RejectInvalid fails the whole AppendSample call with ErrInvalidArgument.
	RejectInvalid
)

func (p ValuePolicy) String() string {
	switch p {
	case SkipInvalid:
		return "skip"
	case RejectInvalid:
		return "reject"
	default:
		return "default"
	}
}

// ParseValuePolicy maps "skip", "reject" or "" to a ValuePolicy.
func ParseValuePolicy(s string) (ValuePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return DefaultPolicy, nil
	case "skip":
		return SkipInvalid, nil
	case "reject":
		return RejectInvalid, nil
	}
	return DefaultPolicy, fmt.Errorf("%w: unknown value policy %q", ErrInvalidArgument, s)
}

type options struct {
	policy ValuePolicy
	logger *zap.Logger
}

// Option configures a Positional or Named averager.
type Option func(*options)

// WithValuePolicy overrides the mode's default handling of non-numeric channel values.
func WithValuePolicy(p ValuePolicy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// WithLogger sets the logger used for debug output on bin rollover.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func buildOptions(defaultPolicy ValuePolicy, opts []Option) options {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.policy == DefaultPolicy {
		o.policy = defaultPolicy
	}
	return o
}
