package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Model artifacts. A non-empty URL replaces the local artifact for that model.
	TabularModelPath  string
	SequenceModelPath string
	TabularModelURL   string
	SequenceModelURL  string
	ModelTimeout      time.Duration
	ModelCacheSize    int

	RejectUnknownCategories bool

	// HistoryDSN selects the SQLite history store; empty keeps history in memory.
	HistoryDSN string

	// Kafka publishing.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string

	// MQTT publishing.
	MQTTEnabled      bool
	MQTTBroker       string
	MQTTClientID     string
	MQTTUsername     string
	MQTTPassword     string
	MQTTTopic        string
	MQTTHighRiskOnly bool
}

// Load reads configuration from environment variables, applying defaults where unset.
// A .env file in the working directory is loaded first when present; variables
// already set in the environment take precedence.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	modelTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("MODEL_TIMEOUT", "5s"))
	if err != nil || modelTimeout <= 0 {
		return nil, errors.New("invalid MODEL_TIMEOUT")
	}

	cacheSize, err := parseCacheSize()
	if err != nil {
		return nil, err
	}

	rejectUnknown, err := parseBool("REJECT_UNKNOWN_CATEGORIES", true)
	if err != nil {
		return nil, err
	}

	highRiskOnly, err := parseBool("MQTT_HIGH_RISK_ONLY", false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		TabularModelPath:  sharedcfg.EnvOrDefault("TABULAR_MODEL_PATH", "models/flood_rf_model.json"),
		SequenceModelPath: sharedcfg.EnvOrDefault("SEQUENCE_MODEL_PATH", "models/flood_lstm_model.json"),
		TabularModelURL:   os.Getenv("TABULAR_MODEL_URL"),
		SequenceModelURL:  os.Getenv("SEQUENCE_MODEL_URL"),
		ModelTimeout:      modelTimeout,
		ModelCacheSize:    cacheSize,

		RejectUnknownCategories: rejectUnknown,

		HistoryDSN: os.Getenv("HISTORY_DSN"),

		KafkaTopic: sharedcfg.EnvOrDefault("KAFKA_TOPIC", "flood-predictions"),

		MQTTBroker:       os.Getenv("MQTT_BROKER"),
		MQTTClientID:     sharedcfg.EnvOrDefault("MQTT_CLIENT_ID", "flood-risk"),
		MQTTUsername:     os.Getenv("MQTT_USERNAME"),
		MQTTPassword:     os.Getenv("MQTT_PASSWORD"),
		MQTTTopic:        sharedcfg.EnvOrDefault("MQTT_TOPIC", "flood/risk/{level}"),
		MQTTHighRiskOnly: highRiskOnly,
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = sharedcfg.ParseBrokers(brokers)
		cfg.KafkaEnabled = len(cfg.KafkaBrokers) > 0
	}
	cfg.MQTTEnabled = cfg.MQTTBroker != ""

	if cfg.TabularModelPath == "" && cfg.TabularModelURL == "" {
		return nil, errors.New("TABULAR_MODEL_PATH or TABULAR_MODEL_URL is required")
	}
	if cfg.SequenceModelPath == "" && cfg.SequenceModelURL == "" {
		return nil, errors.New("SEQUENCE_MODEL_PATH or SEQUENCE_MODEL_URL is required")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}
	if cfg.MQTTEnabled && cfg.MQTTTopic == "" {
		return nil, errors.New("MQTT_TOPIC is required when MQTT_BROKER is set")
	}

	return cfg, nil
}

func parseCacheSize() (int, error) {
	s := os.Getenv("MODEL_CACHE_SIZE")
	if s == "" {
		return 1000, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, errors.New("invalid MODEL_CACHE_SIZE")
	}
	return n, nil
}

func parseBool(key string, def bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}
