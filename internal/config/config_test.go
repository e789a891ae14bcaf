package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "models/flood_rf_model.json", cfg.TabularModelPath)
	assert.Equal(t, "models/flood_lstm_model.json", cfg.SequenceModelPath)
	assert.Empty(t, cfg.TabularModelURL)
	assert.Empty(t, cfg.SequenceModelURL)
	assert.Equal(t, 5*time.Second, cfg.ModelTimeout)
	assert.Equal(t, 1000, cfg.ModelCacheSize)
	assert.True(t, cfg.RejectUnknownCategories)
	assert.Empty(t, cfg.HistoryDSN)
	assert.False(t, cfg.KafkaEnabled)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "flood-predictions", cfg.KafkaTopic)
	assert.False(t, cfg.MQTTEnabled)
	assert.Equal(t, "flood-risk", cfg.MQTTClientID)
	assert.Equal(t, "flood/risk/{level}", cfg.MQTTTopic)
	assert.False(t, cfg.MQTTHighRiskOnly)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":5000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("TABULAR_MODEL_PATH", "/srv/models/rf.json")
	t.Setenv("SEQUENCE_MODEL_PATH", "/srv/models/lstm.json")
	t.Setenv("SEQUENCE_MODEL_URL", "http://tf-serving:8501/v1/models/lstm:predict")
	t.Setenv("MODEL_TIMEOUT", "2s")
	t.Setenv("MODEL_CACHE_SIZE", "0")
	t.Setenv("REJECT_UNKNOWN_CATEGORIES", "false")
	t.Setenv("HISTORY_DSN", "file:history.db")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_TOPIC", "custom-predictions")
	t.Setenv("MQTT_BROKER", "tcp://mqtt:1883")
	t.Setenv("MQTT_CLIENT_ID", "flood-risk-2")
	t.Setenv("MQTT_USERNAME", "svc")
	t.Setenv("MQTT_PASSWORD", "secret")
	t.Setenv("MQTT_TOPIC", "alerts/{level}")
	t.Setenv("MQTT_HIGH_RISK_ONLY", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":5000", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "/srv/models/rf.json", cfg.TabularModelPath)
	assert.Equal(t, "/srv/models/lstm.json", cfg.SequenceModelPath)
	assert.Equal(t, "http://tf-serving:8501/v1/models/lstm:predict", cfg.SequenceModelURL)
	assert.Equal(t, 2*time.Second, cfg.ModelTimeout)
	assert.Equal(t, 0, cfg.ModelCacheSize)
	assert.False(t, cfg.RejectUnknownCategories)
	assert.Equal(t, "file:history.db", cfg.HistoryDSN)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-predictions", cfg.KafkaTopic)
	assert.True(t, cfg.MQTTEnabled)
	assert.Equal(t, "tcp://mqtt:1883", cfg.MQTTBroker)
	assert.Equal(t, "flood-risk-2", cfg.MQTTClientID)
	assert.Equal(t, "svc", cfg.MQTTUsername)
	assert.Equal(t, "secret", cfg.MQTTPassword)
	assert.Equal(t, "alerts/{level}", cfg.MQTTTopic)
	assert.True(t, cfg.MQTTHighRiskOnly)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidModelTimeout(t *testing.T) {
	t.Setenv("MODEL_TIMEOUT", "bad")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MODEL_TIMEOUT")
}

func TestLoad_NegativeModelTimeout(t *testing.T) {
	t.Setenv("MODEL_TIMEOUT", "-1s")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MODEL_TIMEOUT")
}

func TestLoad_InvalidCacheSize(t *testing.T) {
	t.Setenv("MODEL_CACHE_SIZE", "-5")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MODEL_CACHE_SIZE")
}

func TestLoad_InvalidRejectUnknownCategories(t *testing.T) {
	t.Setenv("REJECT_UNKNOWN_CATEGORIES", "sometimes")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REJECT_UNKNOWN_CATEGORIES")
}

func TestLoad_InvalidMQTTHighRiskOnly(t *testing.T) {
	t.Setenv("MQTT_HIGH_RISK_ONLY", "maybe")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MQTT_HIGH_RISK_ONLY")
}

func TestLoad_KafkaBrokersImplyEnabled(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "localhost:9092")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
}
