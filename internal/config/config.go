package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/emdat-etl/internal/domain"
	"github.com/spf13/viper"
)

// Config holds all service settings, populated from environment variables and
// an optional CONFIG_FILE.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Normalization settings.
	GazetteerPath string
	NaturalOnly   bool
	SeverityModel domain.SeverityModel
	CSVQuoted     bool
	IngestWorkers int

	// HTTP API limits.
	MaxUploadBytes int64
	APIRateLimit   float64

	// Kafka upload loop. Disabled unless KAFKA_ENABLED is true.
	KafkaEnabled       bool
	KafkaBrokers       []string
	KafkaSourceTopic   string
	KafkaSinkTopic     string
	KafkaGroupID       string
	BatchSize          int
	BatchFlushInterval time.Duration

	// DBPath persists the current batch in SQLite. Empty keeps it in memory only.
	DBPath string

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int
	MapboxRateLimit float64
}

var defaults = map[string]any{
	"HTTP_ADDR":            ":8080",
	"LOG_LEVEL":            "info",
	"LOG_FORMAT":           "json",
	"SHUTDOWN_TIMEOUT":     "10s",
	"GAZETTEER_PATH":       "",
	"NATURAL_ONLY":         "false",
	"SEVERITY_MODEL":       string(domain.SeverityComposite),
	"CSV_QUOTED":           "false",
	"INGEST_WORKERS":       "4",
	"MAX_UPLOAD_BYTES":     strconv.Itoa(32 << 20),
	"API_RATE_LIMIT":       "10",
	"KAFKA_ENABLED":        "false",
	"KAFKA_BROKERS":        "localhost:9092",
	"KAFKA_SOURCE_TOPIC":   "emdat-uploads",
	"KAFKA_SINK_TOPIC":     "disaster-events",
	"KAFKA_GROUP_ID":       "emdat-etl",
	"BATCH_SIZE":           "10",
	"BATCH_FLUSH_INTERVAL": "500ms",
	"DB_PATH":              "",
	"MAPBOX_TOKEN":         "",
	"MAPBOX_ENABLED":       "",
	"MAPBOX_TIMEOUT":       "5s",
	"MAPBOX_CACHE_SIZE":    "1000",
	"MAPBOX_RATE_LIMIT":    "10",
}

// Load reads configuration from environment variables, applying defaults where
// unset. When CONFIG_FILE names a YAML, JSON or TOML file its keys are read
// too; environment variables take precedence.
func Load() (*Config, error) {
	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	v.AutomaticEnv()

	if path := v.GetString("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read CONFIG_FILE %s: %w", path, err)
		}
	}

	p := parser{v: v}
	cfg := &Config{
		HTTPAddr:        p.str("HTTP_ADDR"),
		LogLevel:        p.str("LOG_LEVEL"),
		LogFormat:       p.str("LOG_FORMAT"),
		ShutdownTimeout: p.positiveDuration("SHUTDOWN_TIMEOUT"),

		GazetteerPath: p.str("GAZETTEER_PATH"),
		NaturalOnly:   p.boolean("NATURAL_ONLY"),
		CSVQuoted:     p.boolean("CSV_QUOTED"),
		IngestWorkers: p.intInRange("INGEST_WORKERS", 1, 64),

		MaxUploadBytes: int64(p.intInRange("MAX_UPLOAD_BYTES", 1, 1<<30)),
		APIRateLimit:   p.positiveFloat("API_RATE_LIMIT"),

		KafkaEnabled:       p.boolean("KAFKA_ENABLED"),
		KafkaBrokers:       parseBrokers(p.str("KAFKA_BROKERS")),
		KafkaSourceTopic:   p.str("KAFKA_SOURCE_TOPIC"),
		KafkaSinkTopic:     p.str("KAFKA_SINK_TOPIC"),
		KafkaGroupID:       p.str("KAFKA_GROUP_ID"),
		BatchSize:          p.intInRange("BATCH_SIZE", 1, 1000),
		BatchFlushInterval: p.positiveDuration("BATCH_FLUSH_INTERVAL"),

		DBPath: p.str("DB_PATH"),

		MapboxToken:     p.str("MAPBOX_TOKEN"),
		MapboxTimeout:   p.positiveDuration("MAPBOX_TIMEOUT"),
		MapboxCacheSize: p.intInRange("MAPBOX_CACHE_SIZE", 1, 1_000_000),
		MapboxRateLimit: p.positiveFloat("MAPBOX_RATE_LIMIT"),
	}

	model, ok := domain.ParseSeverityModel(strings.ToLower(p.str("SEVERITY_MODEL")))
	if !ok {
		p.fail("SEVERITY_MODEL", "must be composite or threshold")
	}
	cfg.SeverityModel = model

	cfg.MapboxEnabled = cfg.MapboxToken != ""
	if p.str("MAPBOX_ENABLED") != "" {
		cfg.MapboxEnabled = p.boolean("MAPBOX_ENABLED")
	}

	if p.err != nil {
		return nil, p.err
	}

	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaSourceTopic == "" {
			return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
		}
		if cfg.KafkaSinkTopic == "" {
			return nil, errors.New("KAFKA_SINK_TOPIC is required")
		}
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}

	return cfg, nil
}

// parser records the first invalid variable so Load can report it by name.
type parser struct {
	v   *viper.Viper
	err error
}

func (p *parser) fail(key, msg string) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s: %s", key, msg)
	}
}

func (p *parser) str(key string) string {
	return strings.TrimSpace(p.v.GetString(key))
}

func (p *parser) boolean(key string) bool {
	b, err := strconv.ParseBool(p.str(key))
	if err != nil {
		p.fail(key, "must be true or false")
	}
	return b
}

func (p *parser) positiveDuration(key string) time.Duration {
	d, err := time.ParseDuration(p.str(key))
	if err != nil || d <= 0 {
		p.fail(key, "must be a positive duration")
	}
	return d
}

func (p *parser) intInRange(key string, lo, hi int) int {
	n, err := strconv.Atoi(p.str(key))
	if err != nil || n < lo || n > hi {
		p.fail(key, fmt.Sprintf("must be an integer between %d and %d", lo, hi))
	}
	return n
}

func (p *parser) positiveFloat(key string) float64 {
	f, err := strconv.ParseFloat(p.str(key), 64)
	if err != nil || f <= 0 {
		p.fail(key, "must be a positive number")
	}
	return f
}

func parseBrokers(s string) []string {
	var out []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
