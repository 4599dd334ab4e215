package message

import (
	"bytes"
	"encoding/json"
	"fmt"
)

func newDecoder(data []byte) *json.Decoder {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec
}

// ParseDynamicJSON parses a JSON object into a DynamicMessage.
func ParseDynamicJSON(data []byte) (DynamicMessage, error) {
	var msg DynamicMessage
	if err := newDecoder(data).Decode(&msg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrJSONUnmarshalFailed, err)
	}
	if msg == nil {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrInvalidSampleShape)
	}
	return msg, nil
}

// ParsePositionalJSON parses a JSON array [timestamp, v1, ..., vN]. The record
// length is checked by the averager, not here.
func ParsePositionalJSON(data []byte) ([]interface{}, error) {
	var record []interface{}
	if err := newDecoder(data).Decode(&record); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrJSONUnmarshalFailed, err)
	}
	if record == nil {
		return nil, fmt.Errorf("%w: expected a JSON array", ErrInvalidSampleShape)
	}
	return record, nil
}

// ParseNamedJSON parses a named-mode sample object.
func ParseNamedJSON(data []byte) (NamedSample, error) {
	msg, err := ParseDynamicJSON(data)
	if err != nil {
		return NamedSample{}, err
	}
	return msg.NamedSample()
}
