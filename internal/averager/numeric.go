package averager

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// toFloat64 reports whether v is a finite number, or a string holding one, and
// returns it as float64.
func toFloat64(v interface{}) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// toPositiveInt coerces constructor arguments such as 30, 30.0, "30" or json.Number("30").
func toPositiveInt(name string, v interface{}) (int64, error) {
	f, ok := toFloat64(v)
	if !ok {
		return 0, fmt.Errorf("%w: %s must be a positive integer, got %v (%T)", ErrInvalidArgument, name, v, v)
	}
	if f <= 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %s must be a positive integer, got %v", ErrInvalidArgument, name, v)
	}
	return int64(f), nil
}
