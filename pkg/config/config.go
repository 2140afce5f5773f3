// Package config loads service configuration from the environment via Viper.
// Every knob has a default; only credentials must be supplied.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration.
type Config struct {
	NATS    NATSConfig    `mapstructure:"nats"`
	Neo4j   Neo4jConfig   `mapstructure:"neo4j"`
	Qdrant  QdrantConfig  `mapstructure:"qdrant"`
	OpenAI  OpenAIConfig  `mapstructure:"openai"`
	Scrape  ScrapeConfig  `mapstructure:"scrape"`
	Indexer IndexerConfig `mapstructure:"indexer"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// NATSConfig points at the JetStream-enabled NATS server.
type NATSConfig struct {
	URL string `mapstructure:"url"`
}

// Neo4jConfig controls access to the record store.
type Neo4jConfig struct {
	URL      string `mapstructure:"url"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

// QdrantConfig controls access to the vector index.
type QdrantConfig struct {
	Addr       string `mapstructure:"addr"`
	Collection string `mapstructure:"collection"`
	Dims       int    `mapstructure:"dims"`
}

// OpenAIConfig holds API credentials and per-task model identifiers.
type OpenAIConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	APIKey         string `mapstructure:"api_key"`
	TextModel      string `mapstructure:"text_model"`
	PhotoModel     string `mapstructure:"photo_model"`
	BioModel       string `mapstructure:"bio_model"`
	EmbeddingModel string `mapstructure:"embedding_model"`
}

// ScrapeConfig governs the scheduler and processor.
type ScrapeConfig struct {
	SyncIntervalMinutes int `mapstructure:"sync_interval_minutes"`
	DetailConcurrency   int `mapstructure:"detail_concurrency"`
	MaxListings         int `mapstructure:"max_listings"`
}

// IndexerConfig governs the reindex batch worker.
type IndexerConfig struct {
	BatchSize   int `mapstructure:"batch_size"`
	FetchWaitMS int `mapstructure:"fetch_wait_ms"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Port int `mapstructure:"port"`
}

// SyncInterval returns the scheduler interval as a duration.
func (c ScrapeConfig) SyncInterval() time.Duration {
	return time.Duration(c.SyncIntervalMinutes) * time.Minute
}

// FetchWait returns the indexer fetch timeout as a duration.
func (c IndexerConfig) FetchWait() time.Duration {
	return time.Duration(c.FetchWaitMS) * time.Millisecond
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("neo4j.url", "neo4j://localhost:7687")
	v.SetDefault("neo4j.user", "neo4j")
	v.SetDefault("neo4j.password", "")
	v.SetDefault("qdrant.addr", "localhost:6334")
	v.SetDefault("qdrant.collection", "dogs")
	v.SetDefault("qdrant.dims", 1536)
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.text_model", "gpt-4o-mini")
	v.SetDefault("openai.photo_model", "gpt-4o")
	v.SetDefault("openai.bio_model", "gpt-4o-mini")
	v.SetDefault("openai.embedding_model", "text-embedding-3-small")
	v.SetDefault("scrape.sync_interval_minutes", 60)
	v.SetDefault("scrape.detail_concurrency", 5)
	v.SetDefault("scrape.max_listings", 60)
	v.SetDefault("indexer.batch_size", 25)
	v.SetDefault("indexer.fetch_wait_ms", 2000)
	v.SetDefault("metrics.port", 9090)
}

// Load reads configuration from SNOUT_-prefixed environment variables, e.g.
// SNOUT_OPENAI_API_KEY or SNOUT_SCRAPE_SYNC_INTERVAL_MINUTES.
func Load() (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("SNOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Scrape.SyncIntervalMinutes <= 0 {
		return fmt.Errorf("config: scrape.sync_interval_minutes must be positive, got %d", c.Scrape.SyncIntervalMinutes)
	}
	if c.Scrape.DetailConcurrency <= 0 {
		return fmt.Errorf("config: scrape.detail_concurrency must be positive, got %d", c.Scrape.DetailConcurrency)
	}
	if c.Indexer.BatchSize <= 0 {
		return fmt.Errorf("config: indexer.batch_size must be positive, got %d", c.Indexer.BatchSize)
	}
	if c.Qdrant.Dims <= 0 {
		return fmt.Errorf("config: qdrant.dims must be positive, got %d", c.Qdrant.Dims)
	}
	return nil
}
