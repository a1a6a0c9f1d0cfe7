package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"

	"github.com/verte-zerg/cardbook/internal/store"
)

// EnvConfig holds storage overrides read from the environment.
type EnvConfig struct {
	Namespace    string `env:"CARDBOOK_NAMESPACE"`
	Driver       string `env:"CARDBOOK_STORAGE_DRIVER"`
	SQLitePath   string `env:"CARDBOOK_SQLITE_PATH"`
	Dir          string `env:"CARDBOOK_STORAGE_DIR"`
	PostgresDSN  string `env:"CARDBOOK_POSTGRES_DSN"`
	S3Bucket     string `env:"CARDBOOK_S3_BUCKET"`
	S3Region     string `env:"CARDBOOK_S3_REGION"`
	S3Endpoint   string `env:"CARDBOOK_S3_ENDPOINT"`
	S3Prefix     string `env:"CARDBOOK_S3_PREFIX"`
	S3PathStyle  *bool  `env:"CARDBOOK_S3_PATH_STYLE"`
	S3AccessKey  string `env:"CARDBOOK_S3_ACCESS_KEY_ID"`
	S3SecretKey  string `env:"CARDBOOK_S3_SECRET_ACCESS_KEY"`
	ImageBaseURL string `env:"CARDBOOK_IMAGE_BASE_URL"`
}

// ParseEnv loads overrides from environment variables.
func ParseEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := env.Parse(&cfg); err != nil {
		return EnvConfig{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Settings is the resolved, non-catalog configuration.
type Settings struct {
	Namespace    string
	ImageBaseURL string
	Storage      store.Config
}

// Resolve layers defaults, the file and the environment, in that order.
func Resolve(file FileConfig, ev EnvConfig) Settings {
	s := Settings{
		Storage: store.Config{
			Driver:     store.DriverSQLite,
			SQLitePath: DefaultDBPath(),
			Dir:        DefaultDataDir(),
		},
	}
	setString(&s.Namespace, file.Namespace)
	setString(&s.ImageBaseURL, file.Images.BaseURL)
	if file.Storage.Driver != nil {
		s.Storage.Driver = store.Driver(*file.Storage.Driver)
	}
	setString(&s.Storage.SQLitePath, file.Storage.Path)
	setString(&s.Storage.Dir, file.Storage.Dir)
	setString(&s.Storage.PostgresDSN, file.Storage.DSN)
	setString(&s.Storage.S3.Bucket, file.Storage.S3.Bucket)
	setString(&s.Storage.S3.Region, file.Storage.S3.Region)
	setString(&s.Storage.S3.Endpoint, file.Storage.S3.Endpoint)
	setString(&s.Storage.S3.Prefix, file.Storage.S3.Prefix)
	if file.Storage.S3.PathStyle != nil {
		s.Storage.S3.PathStyle = *file.Storage.S3.PathStyle
	}

	overrideString(&s.Namespace, ev.Namespace)
	overrideString(&s.ImageBaseURL, ev.ImageBaseURL)
	if ev.Driver != "" {
		s.Storage.Driver = store.Driver(ev.Driver)
	}
	overrideString(&s.Storage.SQLitePath, ev.SQLitePath)
	overrideString(&s.Storage.Dir, ev.Dir)
	overrideString(&s.Storage.PostgresDSN, ev.PostgresDSN)
	overrideString(&s.Storage.S3.Bucket, ev.S3Bucket)
	overrideString(&s.Storage.S3.Region, ev.S3Region)
	overrideString(&s.Storage.S3.Endpoint, ev.S3Endpoint)
	overrideString(&s.Storage.S3.Prefix, ev.S3Prefix)
	if ev.S3PathStyle != nil {
		s.Storage.S3.PathStyle = *ev.S3PathStyle
	}
	s.Storage.S3.AccessKeyID = ev.S3AccessKey
	s.Storage.S3.SecretAccessKey = ev.S3SecretKey
	return s
}

func setString(target *string, value *string) {
	if value != nil {
		*target = *value
	}
}

func overrideString(target *string, value string) {
	if value != "" {
		*target = value
	}
}
