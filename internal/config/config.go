package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"

	"github.com/couchcryptid/groundwater-monthly/internal/domain"
)

var supportedDrivers = map[string]bool{
	"mysql":     true,
	"postgres":  true,
	"sqlite":    true,
	"sqlserver": true,
}

// Config holds all service settings, populated from environment variables.
type Config struct {
	StoreDriver     string
	StoreDSN        string
	HTTPAddr        string
	CORSOrigins     []string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Metadata catalog configuration.
	CatalogEnabled        bool
	CatalogTimeout        time.Duration
	DeepCatalogURL        string
	ShallowCatalogURL     string
	DeepMetadataFields    []string
	ShallowMetadataFields []string

	DefaultStatistics []string

	// Kafka export configuration.
	KafkaBrokers       []string
	KafkaExportTopic   string
	ExportKafkaEnabled bool
}

// Load reads configuration from environment variables, applying defaults where
// unset. A .env file in the working directory is loaded first when present;
// variables already set in the environment take precedence over it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	catalogTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("CATALOG_TIMEOUT", "10s"))
	if err != nil || catalogTimeout <= 0 {
		return nil, errors.New("invalid CATALOG_TIMEOUT")
	}

	catalogEnabled, err := parseBool("CATALOG_ENABLED", true)
	if err != nil {
		return nil, err
	}
	exportEnabled, err := parseBool("EXPORT_KAFKA_ENABLED", false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		StoreDriver:     strings.ToLower(sharedcfg.EnvOrDefault("STORE_DRIVER", "mysql")),
		StoreDSN:        os.Getenv("STORE_DSN"),
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		CORSOrigins:     splitList(sharedcfg.EnvOrDefault("CORS_ALLOWED_ORIGINS", "*")),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		CatalogEnabled:        catalogEnabled,
		CatalogTimeout:        catalogTimeout,
		DeepCatalogURL:        sharedcfg.EnvOrDefault("DEEP_CATALOG_URL", domain.DefaultDeepCatalogURL),
		ShallowCatalogURL:     os.Getenv("SHALLOW_CATALOG_URL"),
		DeepMetadataFields:    fieldList(sharedcfg.EnvOrDefault("DEEP_METADATA_FIELDS", "VMOEov_EOVx,VMOEov_EOVy")),
		ShallowMetadataFields: fieldList(os.Getenv("SHALLOW_METADATA_FIELDS")),

		DefaultStatistics: splitList(sharedcfg.EnvOrDefault("DEFAULT_STATISTICS", "mean,min,max")),

		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaExportTopic:   sharedcfg.EnvOrDefault("KAFKA_EXPORT_TOPIC", "groundwater-monthly-wide"),
		ExportKafkaEnabled: exportEnabled,
	}

	if !supportedDrivers[cfg.StoreDriver] {
		return nil, fmt.Errorf("unsupported STORE_DRIVER %q", cfg.StoreDriver)
	}
	if cfg.StoreDSN == "" {
		return nil, errors.New("STORE_DSN is required")
	}
	if _, err := domain.ParseStatistics(cfg.DefaultStatistics); err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_STATISTICS: %w", err)
	}
	if cfg.ExportKafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when EXPORT_KAFKA_ENABLED is true")
		}
		if cfg.KafkaExportTopic == "" {
			return nil, errors.New("KAFKA_EXPORT_TOPIC is required when EXPORT_KAFKA_ENABLED is true")
		}
	}

	return cfg, nil
}

// Variants returns the built-in variant schemas with the configured catalog
// sources applied. Disabling the catalog clears every metadata source.
func (c *Config) Variants() domain.Variants {
	vs := domain.DefaultVariants()

	deep := vs[domain.Deep]
	deep.Metadata.URL = c.DeepCatalogURL
	deep.Metadata.Fields = c.DeepMetadataFields
	vs[domain.Deep] = deep

	shallow := vs[domain.Shallow]
	shallow.Metadata.URL = c.ShallowCatalogURL
	shallow.Metadata.Fields = c.ShallowMetadataFields
	vs[domain.Shallow] = shallow

	if !c.CatalogEnabled {
		for v, spec := range vs {
			spec.Metadata.URL = ""
			vs[v] = spec
		}
	}
	return vs
}

func parseBool(key string, def bool) (bool, error) {
	switch strings.ToLower(os.Getenv(key)) {
	case "":
		return def, nil
	case "true", "1", "yes":
		return true, nil
	case "false", "0", "no":
		return false, nil
	default:
		return false, fmt.Errorf("invalid %s", key)
	}
}

// splitList parses a comma-separated value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// fieldList is splitList without the well identifier, which is the join key
// and never a metadata field.
func fieldList(s string) []string {
	var out []string
	for _, f := range splitList(s) {
		if f != domain.WellIDField {
			out = append(out, f)
		}
	}
	return out
}
