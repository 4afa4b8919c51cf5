package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"xlreport/config"
)

// DataFetcher loads one configured table from its data source.
type DataFetcher interface {
	Fetch(ctx context.Context, table *config.TableConfig) (*Table, error)
}

// FetcherFactory opens a fetcher for a data source.
type FetcherFactory func(ctx context.Context, ds *config.DataSourceConfig) (DataFetcher, error)

// GenerationContext holds the state for the current generation process.
type GenerationContext struct {
	Bundle         *config.Bundle
	Variables      map[string]string
	ConfigProvider config.Provider
	NewFetcher     FetcherFactory
	// Raw tables by 1-based index, before filtering
	LoadedTables map[int]*Table

	fetchers map[string]DataFetcher
}

// NewGenerationContext merges the bundle variables with params (params win),
// adds archive_date from the archive rule and evaluates "$date:" values.
func NewGenerationContext(b *config.Bundle, provider config.Provider, factory FetcherFactory, params map[string]string) *GenerationContext {
	if provider == nil {
		provider = config.NewRegistry(b.DataSources)
	}

	merged := make(map[string]string)
	for k, v := range b.Report.Variables {
		merged[k] = v
	}
	for k, v := range params {
		merged[k] = v
	}

	now := time.Now()
	if b.Report.ArchiveRule != "" {
		if val, err := ParseDynamicDate(b.Report.ArchiveRule, now); err == nil {
			merged["archive_date"] = val
		} else {
			slog.Warn("Invalid archive rule", "rule", b.Report.ArchiveRule, "error", err)
		}
	}

	for k, v := range merged {
		val, err := ParseDynamicDate(v, now)
		if err != nil {
			slog.Warn("Invalid dynamic date", "variable", k, "value", v, "error", err)
			continue
		}
		merged[k] = val
	}

	return &GenerationContext{
		Bundle:         b,
		Variables:      merged,
		ConfigProvider: provider,
		NewFetcher:     factory,
		LoadedTables:   make(map[int]*Table),
		fetchers:       make(map[string]DataFetcher),
	}
}

// fetcher returns the cached fetcher of a data source, opening it on first use.
func (g *GenerationContext) fetcher(ctx context.Context, name string) (DataFetcher, error) {
	if f, ok := g.fetchers[name]; ok {
		return f, nil
	}
	if g.NewFetcher == nil {
		return nil, fmt.Errorf("no fetcher factory for data source '%s'", name)
	}
	conf, err := g.ConfigProvider.GetDataSourceConfig(name)
	if err != nil {
		return nil, err
	}
	ds := *conf
	if ds.Driver == config.DriverCSV {
		if ds.Dir == "" {
			ds.Dir = g.Bundle.BaseDir
		} else {
			ds.Dir = g.Bundle.Resolve(ds.Dir)
		}
	}
	f, err := g.NewFetcher(ctx, &ds)
	if err != nil {
		return nil, fmt.Errorf("open data source '%s': %w", name, err)
	}
	g.fetchers[name] = f
	return f, nil
}

// GetTable returns a filtered copy of table idx (1-based). The raw table is
// fetched once and cached.
func (g *GenerationContext) GetTable(ctx context.Context, idx int) (*Table, error) {
	if idx < 1 || idx > len(g.Bundle.Tables) {
		return nil, fmt.Errorf("table index %d out of range (%d tables)", idx, len(g.Bundle.Tables))
	}
	conf := &g.Bundle.Tables[idx-1]

	raw, ok := g.LoadedTables[idx]
	if !ok {
		f, err := g.fetcher(ctx, conf.DataSource)
		if err != nil {
			return nil, err
		}
		if raw, err = f.Fetch(ctx, conf); err != nil {
			return nil, fmt.Errorf("fetch table '%s': %w", conf.Name, err)
		}
		g.LoadedTables[idx] = raw
		slog.Debug("Table fetched", "index", idx, "table", conf.Name, "rows", raw.Len())
	}

	t, err := FilterTable(raw.Copy(), conf.Filter, g.variables())
	if err != nil {
		return nil, fmt.Errorf("filter table '%s': %w", conf.Name, err)
	}
	return t, nil
}

// LoadSources fetches every configured table. A table that fails to load is
// logged and left out.
func (g *GenerationContext) LoadSources(ctx context.Context) *Sources {
	sources := &Sources{
		Tables:    make(map[int]*Table),
		Variables: g.variables(),
	}
	for i := range g.Bundle.Tables {
		t, err := g.GetTable(ctx, i+1)
		if err != nil {
			slog.Error("Failed to load table", "index", i+1, "table", g.Bundle.Tables[i].Name, "error", err)
			continue
		}
		sources.Tables[i+1] = t
	}
	return sources
}

func (g *GenerationContext) variables() map[string]any {
	vars := make(map[string]any, len(g.Variables))
	for k, v := range g.Variables {
		vars[k] = v
	}
	return vars
}

// Close releases fetchers that hold resources.
func (g *GenerationContext) Close() error {
	var errs []error
	for name, f := range g.fetchers {
		if c, ok := f.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close data source '%s': %w", name, err))
			}
		}
	}
	g.fetchers = make(map[string]DataFetcher)
	return errors.Join(errs...)
}

// MockDataFetcher serves tables by name, for tests.
type MockDataFetcher struct {
	Tables map[string]*Table
}

// Fetch returns a copy of the table registered under the table name.
func (m *MockDataFetcher) Fetch(ctx context.Context, table *config.TableConfig) (*Table, error) {
	if t, ok := m.Tables[table.Name]; ok {
		return t.Copy(), nil
	}
	return nil, fmt.Errorf("table not found: %s", table.Name)
}
