package ops

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/yanun0323/errors"
	"gopkg.in/yaml.v3"

	"main/internal/importer"
	"main/internal/storage"
	"main/internal/writer"
)

// FileConfig mirrors the YAML config layout.
type FileConfig struct {
	DataDir   string         `yaml:"data_dir"`
	Storage   StorageConfig  `yaml:"storage"`
	Writer    WriterConfig   `yaml:"writer"`
	Quality   QualityConfig  `yaml:"quality"`
	Events    EventsConfig   `yaml:"events"`
	Providers ProviderConfig `yaml:"providers"`
}

// StorageConfig bounds each unit's connection pool.
type StorageConfig struct {
	PoolSize          int `yaml:"pool_size"`
	AcquireTimeoutSec int `yaml:"acquire_timeout_sec"`
}

// WriterConfig tunes the write pipeline.
type WriterConfig struct {
	Workers                 int `yaml:"workers"`
	FetchTimeoutSec         int `yaml:"fetch_timeout_sec"`
	ConsecutiveFailureLimit int `yaml:"consecutive_failure_limit"`
}

// QualityConfig tunes scoring policy.
type QualityConfig struct {
	Floor           int     `yaml:"floor"`
	MaxDropFraction float64 `yaml:"max_drop_fraction"`
}

// EventsConfig bounds the event bus.
type EventsConfig struct {
	Capacity int `yaml:"capacity"`
}

// ProviderConfig orders providers by trust and caps their fetch rates.
type ProviderConfig struct {
	Priority   []string                 `yaml:"priority"`
	RateLimits map[string]RateLimitYAML `yaml:"rate_limits"`
}

// RateLimitYAML is one provider's fetch cap.
type RateLimitYAML struct {
	RPM   int `yaml:"rpm"`
	Burst int `yaml:"burst"`
}

// Loaded is the resolved configuration ready for wiring.
type Loaded struct {
	Storage         storage.Config
	Writer          writer.Config
	Importer        importer.Config
	Priority        []string
	MaxDropFraction float64
	BusCapacity     int
}

// Load preloads an optional .env file, reads the YAML config and
// resolves defaults. A missing config file yields pure defaults.
func Load(path string) (Loaded, error) {
	_ = godotenv.Load()

	var cfg FileConfig
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return Loaded{}, errors.Wrap(err, "read config")
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Loaded{}, errors.Wrap(err, "parse config")
			}
		}
	}
	if v := os.Getenv("MARKET_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	return resolve(cfg), nil
}

func resolve(cfg FileConfig) Loaded {
	loaded := Loaded{
		Storage: storage.Config{
			DataDir:        cfg.DataDir,
			PoolSize:       cfg.Storage.PoolSize,
			AcquireTimeout: time.Duration(cfg.Storage.AcquireTimeoutSec) * time.Second,
		},
		Writer: writer.Config{
			ConsecutiveFailureLimit: cfg.Writer.ConsecutiveFailureLimit,
		},
		Importer: importer.Config{
			Workers:      cfg.Writer.Workers,
			FetchTimeout: time.Duration(cfg.Writer.FetchTimeoutSec) * time.Second,
			QualityFloor: cfg.Quality.Floor,
		},
		Priority:        cfg.Providers.Priority,
		MaxDropFraction: cfg.Quality.MaxDropFraction,
		BusCapacity:     cfg.Events.Capacity,
	}
	if len(cfg.Providers.RateLimits) != 0 {
		loaded.Importer.RateLimits = make(map[string]importer.RateLimit, len(cfg.Providers.RateLimits))
		for id, rl := range cfg.Providers.RateLimits {
			loaded.Importer.RateLimits[id] = importer.RateLimit{RPM: rl.RPM, Burst: rl.Burst}
		}
	}
	if loaded.MaxDropFraction <= 0 {
		loaded.MaxDropFraction = 0.5
	}
	if loaded.BusCapacity <= 0 {
		loaded.BusCapacity = 256
	}
	if loaded.Writer.ConsecutiveFailureLimit <= 0 {
		loaded.Writer.ConsecutiveFailureLimit = 10
	}
	return loaded
}
