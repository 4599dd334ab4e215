package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	ModePositional = "positional"
	ModeNamed      = "named"

	SinkLog   = "log"
	SinkKafka = "kafka"
	SinkMQTT  = "mqtt"
)

const (
	defaultKafkaGroupID      = "binavg-default-group"
	defaultBinSizeSeconds    = 60
	defaultAveragerMode      = ModePositional
	defaultSinkType          = SinkLog
	defaultMQTTClientID      = "binavg"
	defaultMQTTTopic         = "binavg/averages"
	defaultMetricsEnabled    = true
	defaultMetricsListenAddr = ":9464"
	defaultLogLevel          = "info"
	defaultLogFormat         = "console"
	defaultLogFileEnabled    = false
	defaultLogDirectory      = "log"
	defaultLogFilename       = "binavg.log"
	defaultLogMaxSizeMB      = 100
	defaultLogMaxBackups     = 3
	defaultLogMaxAgeDays     = 7
	defaultLogCompress       = false

	// Environment variable prefix
	envPrefix = "BINAVG"
)

type Config struct {
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Averager AveragerConfig `mapstructure:"averager"`
	Sink     SinkConfig     `mapstructure:"sink"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Log      LogConfig      `mapstructure:"log"`
}

// KafkaConfig describes the input topic carrying raw samples.
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"groupID"`
}

type AveragerConfig struct {
	BinSizeSeconds int      `mapstructure:"binSizeSeconds"`
	Mode           string   `mapstructure:"mode"`         // "positional" or "named"
	ChannelCount   int      `mapstructure:"channelCount"` // positional mode only
	Channels       []string `mapstructure:"channels"`     // named mode only
	ValuePolicy    string   `mapstructure:"valuePolicy"`  // "skip", "reject" or "" for the mode default
}

type SinkConfig struct {
	Type  string          `mapstructure:"type"`
	Kafka KafkaSinkConfig `mapstructure:"kafka"`
	MQTT  MQTTSinkConfig  `mapstructure:"mqtt"`
}

// KafkaSinkConfig describes the output topic for averaged records.
// Brokers default to the input brokers when empty.
type KafkaSinkConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type MQTTSinkConfig struct {
	Broker   string `mapstructure:"broker"`
	Topic    string `mapstructure:"topic"`
	ClientID string `mapstructure:"clientID"`
	QoS      int    `mapstructure:"qos"`
	Retained bool   `mapstructure:"retained"`
}

type MetricsConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	ListenAddr string `mapstructure:"listenAddr"`
}

type LogConfig struct {
	Level              string `mapstructure:"level"`
	Format             string `mapstructure:"format"`
	FileLoggingEnabled bool   `mapstructure:"fileLoggingEnabled"`
	Directory          string `mapstructure:"directory"`
	Filename           string `mapstructure:"filename"`
	MaxSize            int    `mapstructure:"maxSize"`    // Max size in MB
	MaxBackups         int    `mapstructure:"maxBackups"` // Max backup files
	MaxAge             int    `mapstructure:"maxAge"`     // Max days to retain
	Compress           bool   `mapstructure:"compress"`
}

// Load initializes viper, reads config, applies defaults, unmarshals, and validates.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	configureViper(v, configPath)

	setDefaults(v)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnmarshallingConfig, err)
	}

	if len(cfg.Sink.Kafka.Brokers) == 0 {
		cfg.Sink.Kafka.Brokers = cfg.Kafka.Brokers
	}
	cfg.Averager.Mode = strings.ToLower(strings.TrimSpace(cfg.Averager.Mode))
	cfg.Sink.Type = strings.ToLower(strings.TrimSpace(cfg.Sink.Type))

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// configureViper sets up viper instance for file and environment variables.
func configureViper(v *viper.Viper, configPath string) {
	if configPath != "" {
		v.SetConfigFile(configPath)
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("kafka.groupID", defaultKafkaGroupID)
	v.SetDefault("averager.binSizeSeconds", defaultBinSizeSeconds)
	v.SetDefault("averager.mode", defaultAveragerMode)
	v.SetDefault("sink.type", defaultSinkType)
	v.SetDefault("sink.mqtt.clientID", defaultMQTTClientID)
	v.SetDefault("sink.mqtt.topic", defaultMQTTTopic)
	v.SetDefault("metrics.enabled", defaultMetricsEnabled)
	v.SetDefault("metrics.listenAddr", defaultMetricsListenAddr)
	v.SetDefault("log.level", defaultLogLevel)
	v.SetDefault("log.format", defaultLogFormat)
	v.SetDefault("log.fileLoggingEnabled", defaultLogFileEnabled)
	v.SetDefault("log.directory", defaultLogDirectory)
	v.SetDefault("log.filename", defaultLogFilename)
	v.SetDefault("log.maxSize", defaultLogMaxSizeMB)
	v.SetDefault("log.maxBackups", defaultLogMaxBackups)
	v.SetDefault("log.maxAge", defaultLogMaxAgeDays)
	v.SetDefault("log.compress", defaultLogCompress)
}

// readConfigFile attempts to read the configuration file specified in viper.
func readConfigFile(v *viper.Viper) error {
	err := v.ReadInConfig()
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return ErrConfigFileMissing
		}
		return fmt.Errorf("%w: %w", ErrReadingConfigFile, err)
	}
	return nil
}

func validateConfig(cfg *Config) error {
	if len(cfg.Kafka.Brokers) == 0 {
		return ErrEmptyKafkaBrokers
	}
	if cfg.Kafka.Topic == "" {
		return ErrEmptyKafkaTopic
	}
	if cfg.Kafka.GroupID == "" {
		return ErrEmptyKafkaGroupID
	}
	if err := validateAverager(cfg.Averager); err != nil {
		return err
	}
	if err := validateSink(cfg.Sink); err != nil {
		return err
	}
	if cfg.Metrics.Enabled && cfg.Metrics.ListenAddr == "" {
		return ErrEmptyMetricsListenAddr
	}
	return nil
}

func validateAverager(cfg AveragerConfig) error {
	if cfg.BinSizeSeconds <= 0 {
		return ErrInvalidBinSize
	}
	switch cfg.Mode {
	case ModePositional:
		if cfg.ChannelCount <= 0 {
			return ErrInvalidChannelCount
		}
	case ModeNamed:
		if len(cfg.Channels) == 0 {
			return ErrEmptyChannelNames
		}
	default:
		return ErrInvalidAveragerMode
	}
	switch strings.ToLower(strings.TrimSpace(cfg.ValuePolicy)) {
	case "", "skip", "reject":
	default:
		return ErrInvalidValuePolicy
	}
	return nil
}

func validateSink(cfg SinkConfig) error {
	switch cfg.Type {
	case SinkLog:
	case SinkKafka:
		if cfg.Kafka.Topic == "" {
			return ErrEmptySinkKafkaTopic
		}
	case SinkMQTT:
		if cfg.MQTT.Broker == "" {
			return ErrEmptyMQTTBroker
		}
		if cfg.MQTT.QoS < 0 || cfg.MQTT.QoS > 2 {
			return ErrInvalidMQTTQoS
		}
	default:
		return ErrInvalidSinkType
	}
	return nil
}
