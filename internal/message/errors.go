package message

import "errors"

var (
	ErrJSONUnmarshalFailed = errors.New("failed to unmarshal JSON message")
	ErrInvalidSampleShape  = errors.New("message does not have the expected sample shape")
)
