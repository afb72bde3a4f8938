// Command emdat-etl serves the EMDAT ingestion API. Uploaded CSV or XLSX
// exports are normalized into the current batch of disaster events, which is
// queried over HTTP and, when Kafka is enabled, published to the sink topic.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/joho/godotenv"

	httpadapter "github.com/couchcryptid/emdat-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/emdat-etl/internal/adapter/kafka"
	"github.com/couchcryptid/emdat-etl/internal/adapter/mapbox"
	"github.com/couchcryptid/emdat-etl/internal/config"
	"github.com/couchcryptid/emdat-etl/internal/domain"
	"github.com/couchcryptid/emdat-etl/internal/ingest"
	"github.com/couchcryptid/emdat-etl/internal/observability"
	"github.com/couchcryptid/emdat-etl/internal/pipeline"
	"github.com/couchcryptid/emdat-etl/internal/store"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	gazetteer, err := loadGazetteer(cfg.GazetteerPath)
	if err != nil {
		logger.Error("failed to load gazetteer", "error", err, "path", cfg.GazetteerPath)
		os.Exit(1)
	}
	cities, regions, countries := gazetteer.Len()
	logger.Info("gazetteer loaded", "cities", cities, "regions", regions, "countries", countries)

	// Remote geocoding is the last resolver tier (feature-flagged via
	// MAPBOX_ENABLED / MAPBOX_TOKEN).
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, cfg.MapboxRateLimit, metrics, logger)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	normalizer := domain.NewNormalizer(domain.NewResolver(gazetteer, geocoder), domain.NormalizerOptions{
		NaturalOnly: cfg.NaturalOnly,
		Severity:    cfg.SeverityModel,
	}, logger)
	ingester := ingest.New(normalizer, ingest.Options{
		Workers: cfg.IngestWorkers,
		Quoted:  cfg.CSVQuoted,
	}, logger, metrics)

	stages := pipeline.Stages{
		Ingester: ingester,
		Current:  store.NewMemory(metrics),
	}

	var db *store.SQLite
	if cfg.DBPath != "" {
		db, err = store.OpenSQLite(cfg.DBPath)
		if err != nil {
			logger.Error("failed to open database", "error", err, "path", cfg.DBPath)
			os.Exit(1)
		}
		stages.Store = db
	}

	var (
		reader *kafkaadapter.Reader
		writer *kafkaadapter.Writer
	)
	if cfg.KafkaEnabled {
		reader = kafkaadapter.NewReader(cfg, logger)
		writer = kafkaadapter.NewWriter(cfg, logger)
		stages.Extractor = reader
		stages.Loader = writer
		logger.Info("kafka enabled", "brokers", cfg.KafkaBrokers,
			"source_topic", cfg.KafkaSourceTopic, "sink_topic", cfg.KafkaSinkTopic)
	}

	p := pipeline.New(stages, logger, metrics, cfg.BatchSize)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := p.Restore(ctx); err != nil {
		logger.Error("failed to restore batch", "error", err)
		os.Exit(1)
	}

	srv := httpadapter.NewServer(httpadapter.Options{
		Addr:           cfg.HTTPAddr,
		MaxUploadBytes: cfg.MaxUploadBytes,
		RateLimit:      cfg.APIRateLimit,
	}, p, stages.Current, p, logger)

	var wg sync.WaitGroup

	// Start HTTP server.
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	// Start the Kafka upload loop.
	if cfg.KafkaEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := p.Run(ctx); err != nil {
				logger.Error("pipeline error", "error", err)
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	wg.Wait()

	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if db != nil {
		if err := db.Close(); err != nil {
			logger.Error("database close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

func loadGazetteer(path string) (*domain.Gazetteer, error) {
	if path == "" {
		return domain.DefaultGazetteer()
	}
	return domain.LoadGazetteer(path)
}
