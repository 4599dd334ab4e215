package pipeline

import (
	"context"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/sanspareilsmyn/binavg/internal/config"
	"github.com/sanspareilsmyn/binavg/internal/message"
)

const (
	mqttConnectTimeout = 10 * time.Second
	mqttPublishTimeout = 5 * time.Second
)

// mqttPublisher is the subset of paho.Client the sink uses.
type mqttPublisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Disconnect(quiesce uint)
}

// MQTTSink publishes averages as JSON to an MQTT topic.
type MQTTSink struct {
	client   mqttPublisher
	topic    string
	qos      byte
	retained bool
	logger   *zap.Logger
}

func NewMQTTSink(cfg config.MQTTSinkConfig, logger *zap.Logger) (*MQTTSink, error) {
	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			logger.Warn("MQTT connection lost", zap.Error(err))
		})

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(mqttConnectTimeout) {
		return nil, fmt.Errorf("%w: mqtt connection timeout", ErrSinkCreationFailed)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: connect to broker: %w", ErrSinkCreationFailed, err)
	}

	logger.Info("MQTT sink connected",
		zap.String("broker", cfg.Broker),
		zap.String("topic", cfg.Topic),
		zap.Int("qos", cfg.QoS),
	)
	return newMQTTSink(client, cfg, logger), nil
}

func newMQTTSink(client mqttPublisher, cfg config.MQTTSinkConfig, logger *zap.Logger) *MQTTSink {
	return &MQTTSink{
		client:   client,
		topic:    cfg.Topic,
		qos:      byte(cfg.QoS),
		retained: cfg.Retained,
		logger:   logger,
	}
}

func (s *MQTTSink) Name() string { return config.SinkMQTT }

func (s *MQTTSink) Write(ctx context.Context, rec message.AverageRecord) error {
	payload, err := rec.Encode()
	if err != nil {
		return fmt.Errorf("encode average: %w", err)
	}

	token := s.client.Publish(s.topic, s.qos, s.retained, payload)
	select {
	case <-token.Done():
	case <-time.After(mqttPublishTimeout):
		return fmt.Errorf("%w: mqtt publish timeout", ErrSinkWriteFailed)
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrSinkWriteFailed, err)
	}
	return nil
}

func (s *MQTTSink) Close() error {
	s.client.Disconnect(1000) // 1 second quiesce
	return nil
}
