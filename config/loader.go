package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadBundle loads and validates a configuration bundle from a YAML file.
func LoadBundle(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config bundle: %w", err)
	}

	var b Bundle
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to parse config bundle: %w", err)
	}
	b.BaseDir = filepath.Dir(path)

	if err := NewValidator(NewRegistry(b.DataSources)).ValidateBundle(&b); err != nil {
		return nil, fmt.Errorf("invalid config bundle %s: %w", path, err)
	}
	return &b, nil
}

// LoadDataSources loads a standalone data source list, which replaces the
// bundle's own when given.
func LoadDataSources(path string) ([]DataSourceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read data source file: %w", err)
	}

	var wrapper struct {
		DataSources []DataSourceConfig `yaml:"dataSources"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("failed to parse data source file: %w", err)
	}

	v := NewValidator(nil)
	for i := range wrapper.DataSources {
		if err := v.ValidateDataSource(&wrapper.DataSources[i]); err != nil {
			return nil, fmt.Errorf("data source %d error: %w", i, err)
		}
	}
	return wrapper.DataSources, nil
}

// Resolve makes a relative path relative to the bundle's directory.
func (b *Bundle) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || b.BaseDir == "" {
		return path
	}
	return filepath.Join(b.BaseDir, path)
}
