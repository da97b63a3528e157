package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Addr                string        `env:"RUN_ADDRESS" env-default:"localhost:8081"`
	DatabaseURL         string        `env:"DATABASE_URI"`
	TransferMaxAttempts int           `env:"TRANSFER_MAX_ATTEMPTS" env-default:"4"`
	TransferBackoff     time.Duration `env:"TRANSFER_BACKOFF" env-default:"25ms"`
	ProcessorInterval   time.Duration `env:"PROCESSOR_INTERVAL" env-default:"5s"`
	ProcessorWorkers    int           `env:"PROCESSOR_WORKERS" env-default:"5"`
}

func Load() (*Config, error) {
	cfg := &Config{}

	flag.StringVar(&cfg.Addr, "a", "localhost:8081", "HTTP server address")
	flag.StringVar(&cfg.DatabaseURL, "d", "", "database URL (in-memory store when empty)")

	flag.Parse()

	err := cleanenv.ReadEnv(cfg)
	if err != nil {
		return nil, fmt.Errorf("couldn't read environment variables: %w", err)
	}

	return cfg, nil
}
