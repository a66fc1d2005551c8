// Package config loads client configuration from the environment.
package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

// Config holds every knob of the client. Values come from the
// environment; an empty REDIS_ADDR selects the file-backed slot store.
type Config struct {
	BaseURL        string        `envconfig:"API_BASE_URL" default:"http://localhost:8000"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
	UploadTimeout  time.Duration `envconfig:"UPLOAD_TIMEOUT" default:"10m"`
	PollInterval   time.Duration `envconfig:"POLL_INTERVAL" default:"1s"`

	StateFile     string `envconfig:"STATE_FILE"`
	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB"`

	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
}

// LoadConfig loads the given environment variables into a Config.
func LoadConfig() (*Config, error) {
	var cfg Config
	err := envconfig.Process("extract", &cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Logger builds a logrus logger at the configured level.
func (c *Config) Logger() (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := logrus.New()
	logger.SetLevel(level)
	return logger, nil
}
