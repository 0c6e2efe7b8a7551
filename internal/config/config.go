// Package config содержит логику чтения конфигурации сервиса дашбордов.
package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	defaultRunAddress     = "localhost:8080"
	defaultFetchTimeout   = 5 * time.Second
	defaultSessionIdleTTL = 30 * time.Minute
)

// Config содержит параметры конфигурации сервиса дашбордов.
type Config struct {
	RunAddress         string        `env:"RUN_ADDRESS"`
	DatabaseURI        string        `env:"DATABASE_URI"`
	RecordStoreAddress string        `env:"RECORD_STORE_ADDRESS"`
	SessionSecret      string        `env:"SESSION_SECRET"`
	FetchTimeout       time.Duration `env:"FETCH_TIMEOUT"`
	SessionIdleTTL     time.Duration `env:"SESSION_IDLE_TTL"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envCfg := *cfg

	flag.StringVar(&cfg.RunAddress, "a", defaultRunAddress, "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.RecordStoreAddress, "r", "", "record store address")
	flag.StringVar(&cfg.SessionSecret, "s", "", "session cookie signing secret")
	flag.DurationVar(&cfg.FetchTimeout, "t", defaultFetchTimeout, "record store request timeout")

	flag.Parse()

	if envCfg.RunAddress != "" {
		cfg.RunAddress = envCfg.RunAddress
	}
	if envCfg.DatabaseURI != "" {
		cfg.DatabaseURI = envCfg.DatabaseURI
	}
	if envCfg.RecordStoreAddress != "" {
		cfg.RecordStoreAddress = envCfg.RecordStoreAddress
	}
	if envCfg.SessionSecret != "" {
		cfg.SessionSecret = envCfg.SessionSecret
	}
	if envCfg.FetchTimeout > 0 {
		cfg.FetchTimeout = envCfg.FetchTimeout
	}
	cfg.SessionIdleTTL = envCfg.SessionIdleTTL

	if cfg.RunAddress == "" {
		cfg.RunAddress = defaultRunAddress
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = defaultFetchTimeout
	}
	if cfg.SessionIdleTTL <= 0 {
		cfg.SessionIdleTTL = defaultSessionIdleTTL
	}

	return cfg, nil
}
