package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const minimalConfig = `
kafka:
  brokers: ["localhost:9092"]
  topic: samples
averager:
  channelCount: 2
`

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, defaultKafkaGroupID, cfg.Kafka.GroupID)
	assert.Equal(t, defaultBinSizeSeconds, cfg.Averager.BinSizeSeconds)
	assert.Equal(t, ModePositional, cfg.Averager.Mode)
	assert.Equal(t, 2, cfg.Averager.ChannelCount)
	assert.Equal(t, SinkLog, cfg.Sink.Type)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Sink.Kafka.Brokers)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, defaultMetricsListenAddr, cfg.Metrics.ListenAddr)
	assert.Equal(t, defaultLogLevel, cfg.Log.Level)
	assert.Equal(t, defaultLogFilename, cfg.Log.Filename)
}

func TestLoadNamedModeWithMQTTSink(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
kafka:
  brokers: ["a:9092", "b:9092"]
  topic: samples
  groupID: meters
averager:
  binSizeSeconds: 30
  mode: Named
  channels: [voltage, current]
  valuePolicy: skip
sink:
  type: mqtt
  mqtt:
    broker: tcp://localhost:1883
    qos: 1
    retained: true
`))
	require.NoError(t, err)

	assert.Equal(t, ModeNamed, cfg.Averager.Mode)
	assert.Equal(t, []string{"voltage", "current"}, cfg.Averager.Channels)
	assert.Equal(t, "skip", cfg.Averager.ValuePolicy)
	assert.Equal(t, SinkMQTT, cfg.Sink.Type)
	assert.Equal(t, "tcp://localhost:1883", cfg.Sink.MQTT.Broker)
	assert.Equal(t, defaultMQTTTopic, cfg.Sink.MQTT.Topic)
	assert.Equal(t, 1, cfg.Sink.MQTT.QoS)
	assert.True(t, cfg.Sink.MQTT.Retained)
}

func TestLoadEnvironmentOverride(t *testing.T) {
	t.Setenv("BINAVG_AVERAGER_BINSIZESECONDS", "15")
	t.Setenv("BINAVG_LOG_LEVEL", "debug")

	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)
	assert.Equal(t, 15, cfg.Averager.BinSizeSeconds)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
		want error
	}{
		{
			name: "no brokers",
			body: "kafka:\n  topic: s\naverager:\n  channelCount: 1\n",
			want: ErrEmptyKafkaBrokers,
		},
		{
			name: "no topic",
			body: "kafka:\n  brokers: [x]\naverager:\n  channelCount: 1\n",
			want: ErrEmptyKafkaTopic,
		},
		{
			name: "zero bin size",
			body: "kafka:\n  brokers: [x]\n  topic: s\naverager:\n  binSizeSeconds: 0\n  channelCount: 1\n",
			want: ErrInvalidBinSize,
		},
		{
			name: "positional without channels",
			body: "kafka:\n  brokers: [x]\n  topic: s\n",
			want: ErrInvalidChannelCount,
		},
		{
			name: "named without channels",
			body: "kafka:\n  brokers: [x]\n  topic: s\naverager:\n  mode: named\n",
			want: ErrEmptyChannelNames,
		},
		{
			name: "unknown mode",
			body: "kafka:\n  brokers: [x]\n  topic: s\naverager:\n  mode: median\n  channelCount: 1\n",
			want: ErrInvalidAveragerMode,
		},
		{
			name: "unknown value policy",
			body: "kafka:\n  brokers: [x]\n  topic: s\naverager:\n  channelCount: 1\n  valuePolicy: zero\n",
			want: ErrInvalidValuePolicy,
		},
		{
			name: "unknown sink",
			body: "kafka:\n  brokers: [x]\n  topic: s\naverager:\n  channelCount: 1\nsink:\n  type: postgres\n",
			want: ErrInvalidSinkType,
		},
		{
			name: "kafka sink without topic",
			body: "kafka:\n  brokers: [x]\n  topic: s\naverager:\n  channelCount: 1\nsink:\n  type: kafka\n",
			want: ErrEmptySinkKafkaTopic,
		},
		{
			name: "mqtt sink without broker",
			body: "kafka:\n  brokers: [x]\n  topic: s\naverager:\n  channelCount: 1\nsink:\n  type: mqtt\n",
			want: ErrEmptyMQTTBroker,
		},
		{
			name: "mqtt qos out of range",
			body: "kafka:\n  brokers: [x]\n  topic: s\naverager:\n  channelCount: 1\nsink:\n  type: mqtt\n  mqtt:\n    broker: tcp://b:1883\n    qos: 3\n",
			want: ErrInvalidMQTTQoS,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			require.ErrorIs(t, err, tc.want)
		})
	}
}
