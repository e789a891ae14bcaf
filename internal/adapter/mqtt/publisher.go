// Package mqtt publishes prediction records to an MQTT broker.
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/riddhimistry141/FLOOD-PREDICTION-GUJARATE-URBAN-AREA/internal/config"
	"github.com/riddhimistry141/FLOOD-PREDICTION-GUJARATE-URBAN-AREA/internal/domain"
	"github.com/riddhimistry141/FLOOD-PREDICTION-GUJARATE-URBAN-AREA/internal/observability"
)

const (
	sink = "mqtt"

	// qos 1: at-least-once delivery.
	qos = 1

	levelPlaceholder    = "{level}"
	connectTimeout      = 10 * time.Second
	disconnectQuiesceMS = 250
)

// publishClient is the subset of paho.Client used by Publisher.
type publishClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Disconnect(quiesce uint)
}

// Publisher sends each prediction record as JSON to a level-specific topic.
// It implements domain.Publisher.
type Publisher struct {
	client       publishClient
	topic        string
	highRiskOnly bool
	metrics      *observability.Metrics
	logger       *slog.Logger
}

// NewPublisher connects to the configured broker.
func NewPublisher(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) (*Publisher, error) {
	opts := paho.NewClientOptions()
	opts.AddBroker(cfg.MQTTBroker)
	opts.SetClientID(cfg.MQTTClientID)
	opts.SetUsername(cfg.MQTTUsername)
	opts.SetPassword(cfg.MQTTPassword)
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetConnectTimeout(connectTimeout)
	opts.SetOnConnectHandler(func(paho.Client) {
		logger.Info("mqtt connected", "broker", cfg.MQTTBroker)
	})
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		logger.Warn("mqtt connection lost", "broker", cfg.MQTTBroker, "error", err)
	})

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("connect to mqtt broker %s: timed out after %s", cfg.MQTTBroker, connectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to mqtt broker %s: %w", cfg.MQTTBroker, err)
	}

	return newPublisher(client, cfg.MQTTTopic, cfg.MQTTHighRiskOnly, metrics, logger), nil
}

func newPublisher(client publishClient, topic string, highRiskOnly bool, metrics *observability.Metrics, logger *slog.Logger) *Publisher {
	return &Publisher{
		client:       client,
		topic:        topic,
		highRiskOnly: highRiskOnly,
		metrics:      metrics,
		logger:       logger,
	}
}

// Publish sends rec and waits for the broker acknowledgement or ctx.
func (p *Publisher) Publish(ctx context.Context, rec domain.PredictionRecord) error {
	if p.highRiskOnly && rec.Level != domain.RiskHigh {
		return nil
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		p.metrics.Published.WithLabelValues(sink, "error").Inc()
		return fmt.Errorf("serialize prediction: %w", err)
	}

	topic := formatTopic(p.topic, rec.Level)
	token := p.client.Publish(topic, qos, false, payload)

	select {
	case <-token.Done():
	case <-ctx.Done():
		p.metrics.Published.WithLabelValues(sink, "error").Inc()
		return fmt.Errorf("mqtt publish %s: %w", rec.ID, ctx.Err())
	}
	if err := token.Error(); err != nil {
		p.metrics.Published.WithLabelValues(sink, "error").Inc()
		return fmt.Errorf("mqtt publish %s: %w", rec.ID, err)
	}

	p.metrics.Published.WithLabelValues(sink, "success").Inc()
	p.logger.Debug("prediction published", "sink", sink, "topic", topic, "id", rec.ID)
	return nil
}

// Close disconnects from the broker after in-flight work drains.
func (p *Publisher) Close() error {
	p.client.Disconnect(disconnectQuiesceMS)
	return nil
}

// formatTopic replaces {level} with the lower-case risk level.
func formatTopic(pattern string, level domain.RiskLevel) string {
	return strings.ReplaceAll(pattern, levelPlaceholder, strings.ToLower(string(level)))
}
