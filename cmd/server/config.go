package main

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

var validate = validator.New()

type Config struct {
	Host           string        `env:"PRESENCE_HOST"`
	Port           int           `env:"PRESENCE_PORT,default=9907" validate:"min=1,max=65535"`
	OutboundBuffer int           `env:"PRESENCE_OUTBOUND_BUFFER,default=64" validate:"min=1"`
	WriteTimeout   time.Duration `env:"PRESENCE_WRITE_TIMEOUT,default=5s" validate:"min=1ms"`
	MetricsAddr    string        `env:"PRESENCE_METRICS_ADDR,default=:9090"`
	LogLevel       string        `env:"LOG_LEVEL,default=INFO" validate:"oneof=DEBUG INFO WARN ERROR debug info warn error"`
}

// Addr is the listen address built from Host and Port.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// loadConfig reads envFile when it exists, then the environment.
func loadConfig(envFile string) (Config, error) {
	if envFile != "" {
		// A missing file is fine: the environment alone is a valid source.
		_ = godotenv.Load(envFile)
	}

	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	if err := validate.Struct(config); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return config, nil
}
