package config

import "fmt"

// Provider defines the interface for retrieving configurations.
type Provider interface {
	GetDataSourceConfig(name string) (*DataSourceConfig, error)
}

// MemoryConfigRegistry implements Provider using an in-memory map.
type MemoryConfigRegistry struct {
	dataSources map[string]*DataSourceConfig
}

// NewMemoryConfigRegistry creates a new registry with the given configurations.
func NewMemoryConfigRegistry(ds map[string]*DataSourceConfig) *MemoryConfigRegistry {
	if ds == nil {
		ds = make(map[string]*DataSourceConfig)
	}
	return &MemoryConfigRegistry{
		dataSources: ds,
	}
}

// NewRegistry indexes a data source list by name.
func NewRegistry(list []DataSourceConfig) *MemoryConfigRegistry {
	ds := make(map[string]*DataSourceConfig, len(list))
	for i := range list {
		ds[list[i].Name] = &list[i]
	}
	return NewMemoryConfigRegistry(ds)
}

// GetDataSourceConfig retrieves a DataSourceConfig by name.
func (r *MemoryConfigRegistry) GetDataSourceConfig(name string) (*DataSourceConfig, error) {
	if conf, ok := r.dataSources[name]; ok {
		return conf, nil
	}
	return nil, fmt.Errorf("data source config not found: %s", name)
}
