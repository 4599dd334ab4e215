// Package averager downsamples a strictly time-ordered stream of multi-channel
// samples into one arithmetic mean per fixed-width time bin.
package averager

import "errors"

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrOutOfOrder      = errors.New("samples must be added with strictly increasing timestamps")
)
