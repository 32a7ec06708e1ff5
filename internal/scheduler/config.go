package scheduler

import (
	"time"

	"github.com/smallbiznis/roomledger/internal/config"
)

// Config controls sweeper interval and batch size.
type Config struct {
	RunInterval time.Duration
	BatchSize   int
}

func DefaultConfig() Config {
	return Config{
		RunInterval: time.Minute,
		BatchSize:   50,
	}
}

func ProvideConfig(cfg config.Config) Config {
	out := Config{
		RunInterval: time.Duration(cfg.Sweeper.RunInterval) * time.Second,
		BatchSize:   cfg.Sweeper.BatchSize,
	}
	return out.withDefaults()
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaults.BatchSize
	}
	return c
}
