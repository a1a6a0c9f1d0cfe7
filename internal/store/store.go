// Package store provides durable key-value backends for collection state.
package store

import (
	"context"
	"fmt"
)

// Backend is a durable byte store addressed by key.
type Backend interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set replaces the value stored under key.
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// Driver identifies a backend implementation.
type Driver string

const (
	DriverMemory   Driver = "memory"
	DriverSQLite   Driver = "sqlite"
	DriverFile     Driver = "file"
	DriverPostgres Driver = "postgres"
	DriverS3       Driver = "s3"
)

// Config selects and parameterizes a backend.
type Config struct {
	Driver      Driver
	SQLitePath  string
	Dir         string
	PostgresDSN string
	S3          S3Config
}

// Open constructs the backend named by cfg.Driver. An empty driver means sqlite.
func Open(ctx context.Context, cfg Config) (Backend, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverSQLite
	}
	var (
		b   Backend
		err error
	)
	switch driver {
	case DriverMemory:
		return NewMemory(), nil
	case DriverSQLite:
		if cfg.SQLitePath == "" {
			return nil, fmt.Errorf("sqlite path is empty")
		}
		b, err = OpenSQLite(cfg.SQLitePath)
	case DriverFile:
		if cfg.Dir == "" {
			return nil, fmt.Errorf("file store directory is empty")
		}
		b, err = OpenFile(cfg.Dir)
	case DriverPostgres:
		b, err = OpenPostgres(ctx, cfg.PostgresDSN)
	case DriverS3:
		b, err = OpenS3(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}
