package message

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// DynamicMessage is a JSON object with arbitrary keys. Numbers are kept as
// json.Number so no precision is lost before the averager sees them.
type DynamicMessage map[string]interface{}

// NamedSample is one named-mode sample as it arrives on the wire.
type NamedSample struct {
	Timestamp interface{}
	Values    map[string]interface{}
}

// NamedSample extracts the timestamp and channel values. Both the nested form
// {"timestamp": t, "values": {...}} and the flat form {"timestamp": t, "voltage": ...}
// are accepted.
func (dm DynamicMessage) NamedSample() (NamedSample, error) {
	ts, ok := dm["timestamp"]
	if !ok {
		return NamedSample{}, fmt.Errorf("%w: missing \"timestamp\"", ErrInvalidSampleShape)
	}

	if raw, nested := dm["values"]; nested {
		values, ok := raw.(map[string]interface{})
		if !ok {
			return NamedSample{}, fmt.Errorf("%w: \"values\" must be an object", ErrInvalidSampleShape)
		}
		return NamedSample{Timestamp: ts, Values: values}, nil
	}

	values := make(map[string]interface{}, len(dm)-1)
	for k, v := range dm {
		if k != "timestamp" {
			values[k] = v
		}
	}
	return NamedSample{Timestamp: ts, Values: values}, nil
}

// GetFieldSnippet returns a string snippet of a field's value, useful for logging.
func (dm DynamicMessage) GetFieldSnippet(fieldName string, maxLength int) string {
	value, exists := dm[fieldName]
	if !exists {
		return "<missing>"
	}
	return truncate(fmt.Sprintf("%v", value), maxLength)
}

// Snippet returns a printable prefix of a raw payload for log fields.
func Snippet(raw []byte, maxLength int) string {
	return truncate(string(raw), maxLength)
}

func truncate(s string, maxLength int) string {
	if maxLength <= 0 {
		return "..."
	}
	if len(s) > maxLength {
		return s[:maxLength] + "..."
	}
	return s
}

// AverageRecord is the wire form of one closed bin.
type AverageRecord struct {
	Mode      string             `json:"mode"`
	BinStart  float64            `json:"bin_start"`
	BinEnd    float64            `json:"bin_end"`
	Timestamp float64            `json:"timestamp"`
	Channels  []float64          `json:"channels,omitempty"` // positional mode
	Values    map[string]float64 `json:"values,omitempty"`   // named mode
}

// Encode marshals the record as JSON.
func (r AverageRecord) Encode() ([]byte, error) {
	return json.Marshal(r)
}

// Key identifies the bin; records for the same bin start share a partition.
func (r AverageRecord) Key() []byte {
	return []byte(strconv.FormatFloat(r.BinStart, 'f', -1, 64))
}
