// Package di hand-wires the application graph from configuration.
package di

import (
	"context"
	"fmt"
	"time"

	"StockCast/internal/artifacts"
	domrepo "StockCast/internal/domain/repository"
	"StockCast/internal/evaluate"
	"StockCast/internal/handler/api"
	"StockCast/internal/marketdata"
	"StockCast/internal/predict"
	internalrepo "StockCast/internal/repository"
	"StockCast/internal/service/cache"
	"StockCast/internal/training"
	"StockCast/internal/usecase"
	pkgch "StockCast/pkg/clickhouse"
	"StockCast/pkg/config"
	pkgkafka "StockCast/pkg/kafka"
	applogger "StockCast/pkg/logger"
	"StockCast/pkg/metrics"
	"StockCast/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// ProvideMetrics creates the Prometheus recorder.
func ProvideMetrics() *metrics.Recorder {
	return metrics.New()
}

// ProvideBarSource creates the retrying market data client.
func ProvideBarSource(cfg *config.Config, recorder *metrics.Recorder) domrepo.BarSource {
	client := marketdata.NewYahooClient(
		marketdata.WithBaseURL(cfg.MarketData.BaseURL),
		marketdata.WithProxy(cfg.MarketData.Proxy),
		marketdata.WithTimeout(cfg.MarketData.Timeout),
	)
	src := marketdata.NewRetrySource(client)
	src.SetRecorder(recorder)
	return src
}

// ProvideClickHouseClient creates a ClickHouse client with the bar mirror
// schema in place, or nil when the mirror is disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, internalrepo.Schema()); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideBarStore creates the ClickHouse-backed bar mirror, or nil.
func ProvideBarStore(chClient *pkgch.Client, l *applogger.Logger) domrepo.BarStore {
	if chClient == nil {
		return nil
	}
	store := internalrepo.NewCHBarStore(chClient)
	store.SetLogger(l)
	return store
}

// ProvideKafkaProducer creates the training event producer, or nil when
// Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithRequiredAcks(-1),
		pkgkafka.WithMaxAttempts(3),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideCache picks the shared Redis cache when configured, else the
// in-process TTL cache.
func ProvideCache(cfg *config.Config) domrepo.BytesCache {
	if cfg.Cache.Redis.Enabled {
		return cache.NewRedisCache(cache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
	}
	return cache.NewTTLCache()
}

// ProvideArtifactStore creates the filesystem artifact store.
func ProvideArtifactStore(cfg *config.Config) (*artifacts.Store, error) {
	return artifacts.NewStore(cfg.Models.Dir)
}

// ProvideTrainingConfig maps the YAML training section onto the runtime
// config.
func ProvideTrainingConfig(cfg *config.Config) training.Config {
	tc := training.DefaultConfig()
	tc.SeqLen = cfg.Training.SeqLen
	tc.Epochs = cfg.Training.Epochs
	tc.BatchSize = cfg.Training.BatchSize
	tc.Period = cfg.Training.Period
	tc.ValRatio = cfg.Training.ValRatio
	tc.Patience = cfg.Training.Patience
	tc.UseFeatures = !cfg.Training.CloseOnly
	if len(cfg.Training.ArimaOrder) == 3 {
		tc.ArimaOrder = [3]int{cfg.Training.ArimaOrder[0], cfg.Training.ArimaOrder[1], cfg.Training.ArimaOrder[2]}
	}
	return tc
}

// InitializeApp builds the full application graph.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	l, err := ProvideLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	recorder := ProvideMetrics()
	src := ProvideBarSource(cfg, recorder)

	chClient, err := ProvideClickHouseClient(cfg)
	if err != nil {
		return nil, err
	}
	barStore := ProvideBarStore(chClient, l)

	producer, err := ProvideKafkaProducer(cfg)
	if err != nil {
		return nil, err
	}

	store, err := ProvideArtifactStore(cfg)
	if err != nil {
		return nil, err
	}
	registry := artifacts.NewRegistry(store)

	var events domrepo.EventPublisher
	if producer != nil {
		events = producer
	}
	trainer := training.NewTrainer(src, store, registry, l, recorder, events, cfg.Kafka.Topic)
	predictor := predict.NewPredictor(src, store, registry, l, recorder)
	evaluator := evaluate.NewEvaluator(src, store, registry, l)

	uc := usecase.NewForecastUseCase(
		predictor,
		trainer,
		evaluator,
		registry,
		src,
		barStore,
		ProvideCache(cfg),
		cfg.Cache.TTL,
		ProvideTrainingConfig(cfg),
		l,
		recorder,
	)
	handler := api.NewForecastEchoHandler(l, uc)

	return server.New(cfg, l, handler, chClient, producer), nil
}

// InitializeTrainer builds just the pieces the training CLI needs.
func InitializeTrainer(cfg *config.Config) (*training.Trainer, *evaluate.Evaluator, training.Config, error) {
	l, err := ProvideLogger(cfg)
	if err != nil {
		return nil, nil, training.Config{}, fmt.Errorf("logger: %w", err)
	}
	recorder := ProvideMetrics()
	src := ProvideBarSource(cfg, recorder)

	producer, err := ProvideKafkaProducer(cfg)
	if err != nil {
		return nil, nil, training.Config{}, err
	}

	store, err := ProvideArtifactStore(cfg)
	if err != nil {
		return nil, nil, training.Config{}, err
	}
	registry := artifacts.NewRegistry(store)

	var events domrepo.EventPublisher
	if producer != nil {
		events = producer
	}
	trainer := training.NewTrainer(src, store, registry, l, recorder, events, cfg.Kafka.Topic)
	evaluator := evaluate.NewEvaluator(src, store, registry, l)
	return trainer, evaluator, ProvideTrainingConfig(cfg), nil
}
