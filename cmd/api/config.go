package main

import (
	"log/slog"
	"time"
)

type apiConfig struct {
	Port            uint16        `env:"APP_PORT" envDefault:"8080"`
	LogLevel        slog.Level    `env:"APP_LOG_LEVEL" envDefault:"INFO"`
	ShutdownTimeout time.Duration `env:"APP_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// StoreDriver selects the persistence backend: "sqlite" or "postgres".
	StoreDriver string `env:"STORE_DRIVER" envDefault:"sqlite"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"play4stakes.db"`
	PostgresDSN string `env:"PG_DSN" envDefault:""`

	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"1m"`
}
