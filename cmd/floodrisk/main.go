package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/riddhimistry141/FLOOD-PREDICTION-GUJARATE-URBAN-AREA/internal/adapter/http"
	kafkaadapter "github.com/riddhimistry141/FLOOD-PREDICTION-GUJARATE-URBAN-AREA/internal/adapter/kafka"
	mqttadapter "github.com/riddhimistry141/FLOOD-PREDICTION-GUJARATE-URBAN-AREA/internal/adapter/mqtt"
	"github.com/riddhimistry141/FLOOD-PREDICTION-GUJARATE-URBAN-AREA/internal/config"
	"github.com/riddhimistry141/FLOOD-PREDICTION-GUJARATE-URBAN-AREA/internal/domain"
	"github.com/riddhimistry141/FLOOD-PREDICTION-GUJARATE-URBAN-AREA/internal/history"
	"github.com/riddhimistry141/FLOOD-PREDICTION-GUJARATE-URBAN-AREA/internal/model"
	"github.com/riddhimistry141/FLOOD-PREDICTION-GUJARATE-URBAN-AREA/internal/observability"
	"github.com/riddhimistry141/FLOOD-PREDICTION-GUJARATE-URBAN-AREA/internal/predict"
)

type namedCloser struct {
	name string
	c    io.Closer
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	tabular, err := model.Load(model.Options{
		Shape:     model.ShapeTabular,
		Path:      cfg.TabularModelPath,
		URL:       cfg.TabularModelURL,
		Timeout:   cfg.ModelTimeout,
		CacheSize: cfg.ModelCacheSize,
	}, metrics, logger)
	if err != nil {
		logger.Error("failed to load tabular model", "error", err)
		os.Exit(1)
	}
	sequence, err := model.Load(model.Options{
		Shape:     model.ShapeSequence,
		Path:      cfg.SequenceModelPath,
		URL:       cfg.SequenceModelURL,
		Timeout:   cfg.ModelTimeout,
		CacheSize: cfg.ModelCacheSize,
	}, metrics, logger)
	if err != nil {
		logger.Error("failed to load sequence model", "error", err)
		os.Exit(1)
	}

	var closers []namedCloser

	// History store: SQLite when HISTORY_DSN is set, otherwise in memory.
	var store history.Store
	if cfg.HistoryDSN != "" {
		db, err := history.OpenSQLite(cfg.HistoryDSN)
		if err != nil {
			logger.Error("failed to open history store", "error", err)
			os.Exit(1)
		}
		store = db
		closers = append(closers, namedCloser{"history store", db})
		logger.Info("sqlite history enabled", "dsn", cfg.HistoryDSN)
	} else {
		store = history.NewMemory()
		logger.Info("in-memory history enabled")
	}
	if n, err := store.Len(context.Background()); err == nil {
		metrics.HistoryRecords.Set(float64(n))
	}

	// Publishers (feature-flagged via KAFKA_BROKERS / MQTT_BROKER).
	var publishers []domain.Publisher
	if cfg.KafkaEnabled {
		pub := kafkaadapter.NewPublisher(cfg, metrics, logger)
		publishers = append(publishers, pub)
		closers = append(closers, namedCloser{"kafka publisher", pub})
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}
	if cfg.MQTTEnabled {
		pub, err := mqttadapter.NewPublisher(cfg, metrics, logger)
		if err != nil {
			logger.Error("failed to connect mqtt publisher", "error", err)
			os.Exit(1)
		}
		publishers = append(publishers, pub)
		closers = append(closers, namedCloser{"mqtt publisher", pub})
		logger.Info("mqtt publishing enabled", "broker", cfg.MQTTBroker, "topic", cfg.MQTTTopic, "high_risk_only", cfg.MQTTHighRiskOnly)
	}

	svc := predict.New(tabular, sequence, store, publishers,
		predict.Options{RejectUnknownCategories: cfg.RejectUnknownCategories}, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, svc, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	for _, c := range closers {
		if err := c.c.Close(); err != nil {
			logger.Error("close error", "component", c.name, "error", err)
		}
	}

	logger.Info("shutdown complete")
}
