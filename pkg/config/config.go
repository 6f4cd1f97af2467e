package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all lookbook configuration. Durations are plain hour or
// second counts in the file, converted with the accessor methods.
type Config struct {
	Cache  CacheConfig  `yaml:"cache"`
	Dedup  DedupConfig  `yaml:"dedup"`
	Sheets SheetsConfig `yaml:"sheets"`
	Ledger LedgerConfig `yaml:"ledger"`
	Batch  BatchConfig  `yaml:"batch"`
}

// CacheConfig controls the on-disk analysis/content result cache.
type CacheConfig struct {
	Dir             string `yaml:"dir"`
	MaxSizeMB       int    `yaml:"max_size_mb"`
	ExpirationHours int    `yaml:"expiration_hours"`
}

// Expiration returns the entry expiration window.
func (c CacheConfig) Expiration() time.Duration {
	return time.Duration(c.ExpirationHours) * time.Hour
}

// DedupConfig controls perceptual-hash duplicate detection.
type DedupConfig struct {
	// Threshold is the maximum Hamming distance between two image
	// hashes that still counts as a duplicate.
	Threshold     int `yaml:"threshold"`
	MaxEntries    int `yaml:"max_entries"`
	ExpirySeconds int `yaml:"expiry_seconds"`
}

// Expiry returns how long a hash index entry stays live.
func (c DedupConfig) Expiry() time.Duration {
	return time.Duration(c.ExpirySeconds) * time.Second
}

// SheetsConfig controls the spreadsheet name-to-ID cache.
type SheetsConfig struct {
	CacheSize       int `yaml:"cache_size"`
	CacheTTLSeconds int `yaml:"cache_ttl_seconds"`
}

// CacheTTL returns how long a cached spreadsheet ID stays live.
func (c SheetsConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// LedgerConfig controls the local content ledger.
type LedgerConfig struct {
	DBPath string `yaml:"db_path"`
}

// BatchConfig controls the batch processing pipeline.
type BatchConfig struct {
	MaxBatchSize   int     `yaml:"max_batch_size"`
	Concurrency    int     `yaml:"concurrency"`
	RequestsPerSec float64 `yaml:"requests_per_sec"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Cache: CacheConfig{
			Dir:             ".cache",
			MaxSizeMB:       100,
			ExpirationHours: 24,
		},
		Dedup: DedupConfig{
			Threshold:     5,
			MaxEntries:    1000,
			ExpirySeconds: 3600,
		},
		Sheets: SheetsConfig{
			CacheSize:       100,
			CacheTTLSeconds: 3600,
		},
		Ledger: LedgerConfig{
			DBPath: "lookbook.db",
		},
		Batch: BatchConfig{
			MaxBatchSize:   100,
			Concurrency:    4,
			RequestsPerSec: 2,
		},
	}
}

// Load reads a YAML config file and expands environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}
