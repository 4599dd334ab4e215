package config

import "errors"

var (
	ErrReadingConfigFile      = errors.New("failed to read config file")
	ErrUnmarshallingConfig    = errors.New("failed to unmarshal config")
	ErrConfigFileMissing      = errors.New("config file not found")
	ErrEmptyKafkaBrokers      = errors.New("kafka brokers list cannot be empty")
	ErrEmptyKafkaTopic        = errors.New("kafka topic cannot be empty")
	ErrEmptyKafkaGroupID      = errors.New("kafka groupID cannot be empty")
	ErrInvalidBinSize         = errors.New("averager binSizeSeconds must be a positive integer")
	ErrInvalidAveragerMode    = errors.New("averager mode must be 'positional' or 'named'")
	ErrInvalidChannelCount    = errors.New("averager channelCount must be positive in positional mode")
	ErrEmptyChannelNames      = errors.New("averager channels cannot be empty in named mode")
	ErrInvalidValuePolicy     = errors.New("averager valuePolicy must be 'skip', 'reject' or empty")
	ErrInvalidSinkType        = errors.New("sink type must be 'log', 'kafka' or 'mqtt'")
	ErrEmptySinkKafkaTopic    = errors.New("sink kafka topic cannot be empty")
	ErrEmptyMQTTBroker        = errors.New("sink mqtt broker cannot be empty")
	ErrInvalidMQTTQoS         = errors.New("sink mqtt qos must be 0, 1 or 2")
	ErrEmptyMetricsListenAddr = errors.New("metrics listenAddr cannot be empty when metrics are enabled")
)
