// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/cardbook/internal/model"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Namespace      *string         `toml:"namespace"`
	DefaultCatalog *string         `toml:"default-catalog"`
	Images         ImagesConfig    `toml:"images"`
	Storage        StorageConfig   `toml:"storage"`
	Catalogs       []CatalogConfig `toml:"catalog"`
}

// ImagesConfig maps image host settings.
type ImagesConfig struct {
	BaseURL *string `toml:"base-url"`
}

// StorageConfig maps backend selection and connection settings.
type StorageConfig struct {
	Driver *string  `toml:"driver"`
	Path   *string  `toml:"path"`
	Dir    *string  `toml:"dir"`
	DSN    *string  `toml:"dsn"`
	S3     S3Config `toml:"s3"`
}

// S3Config maps object storage settings.
type S3Config struct {
	Bucket    *string `toml:"bucket"`
	Region    *string `toml:"region"`
	Endpoint  *string `toml:"endpoint"`
	Prefix    *string `toml:"prefix"`
	PathStyle *bool   `toml:"path-style"`
}

// CatalogConfig is one [[catalog]] table.
type CatalogConfig struct {
	Name      string              `toml:"name"`
	Expansion string              `toml:"expansion"`
	Start     *int                `toml:"start"`
	End       *int                `toml:"end"`
	Ranges    []model.Range       `toml:"ranges"`
	Specials  *model.Specials     `toml:"specials"`
	Labels    map[string]string   `toml:"labels"`
	Sections  []model.SectionRule `toml:"sections"`
}

// DisplayName returns the name used to select the catalog.
func (c CatalogConfig) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Expansion
}

// Model converts the table into builder input.
func (c CatalogConfig) Model(imageBaseURL string) model.CatalogConfig {
	return model.CatalogConfig{
		Expansion:    c.Expansion,
		Start:        c.Start,
		End:          c.End,
		Ranges:       c.Ranges,
		Specials:     c.Specials,
		Labels:       c.Labels,
		Sections:     c.Sections,
		ImageBaseURL: imageBaseURL,
	}
}

// FindCatalog selects a catalog by name or expansion. An empty name falls back to
// default-catalog, then to the first catalog.
func (c FileConfig) FindCatalog(name string) (CatalogConfig, error) {
	if len(c.Catalogs) == 0 {
		return CatalogConfig{}, fmt.Errorf("no catalogs configured")
	}
	name = strings.TrimSpace(name)
	if name == "" && c.DefaultCatalog != nil {
		name = strings.TrimSpace(*c.DefaultCatalog)
	}
	if name == "" {
		return c.Catalogs[0], nil
	}
	for _, cat := range c.Catalogs {
		if cat.Name == name || cat.Expansion == name {
			return cat, nil
		}
	}
	return CatalogConfig{}, fmt.Errorf("catalog %q not found", name)
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return FileConfig{}, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	return cfg, nil
}
