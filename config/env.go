package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap/zapcore"
)

// Env holds process settings read from the environment.
type Env struct {
	Listen          string        `env:"CLAIMLEDGER_LISTEN"           envDefault:"127.0.0.1:7788"`
	LogLevel        zapcore.Level `env:"CLAIMLEDGER_LOG_LEVEL"        envDefault:"info"`
	ConfigPath      string        `env:"CLAIMLEDGER_CONFIG"`
	ShutdownTimeout time.Duration `env:"CLAIMLEDGER_SHUTDOWN_TIMEOUT" envDefault:"5s"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadEnv parses Env from the process environment.
func LoadEnv() (Env, error) {
	var e Env
	if err := ParseEnv(&e); err != nil {
		return Env{}, err
	}
	return e, nil
}
