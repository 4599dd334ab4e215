package pipeline

import "errors"

var (
	ErrInvalidKafkaConfig     = errors.New("invalid Kafka configuration provided")
	ErrKafkaFetchFailed       = errors.New("failed to fetch message from Kafka")
	ErrKafkaCommitFailed      = errors.New("failed to commit Kafka offset")
	ErrConsumerCreationFailed = errors.New("failed to create consumer")
	ErrAveragerCreationFailed = errors.New("failed to create averager")
	ErrSinkCreationFailed     = errors.New("failed to create sink")
	ErrSinkWriteFailed        = errors.New("failed to write average to sink")
	ErrUnsupportedMode        = errors.New("unsupported averager mode")
	ErrConsumerRunFailed      = errors.New("consumer component failed")
	ErrBinnerRunFailed        = errors.New("binner component failed")
	ErrPublisherRunFailed     = errors.New("publisher component failed")
)
