package core

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"xlreport/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func TestCsvDataFetcher_Fetch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sales.csv")
	content := "\ufeffdept,name,amount,ratio\nD1,Alice,10,0.5\nD2,Bob,,1.25\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	fetcher := NewCsvDataFetcher(dir)
	table, err := fetcher.Fetch(context.Background(), &config.TableConfig{Name: "sales", File: "sales.csv"})
	require.NoError(t, err)

	assert.Equal(t, []string{"dept", "name", "amount", "ratio"}, table.Columns)
	require.Equal(t, 2, table.Len())
	assert.Equal(t, []any{"D1", "Alice", int64(10), 0.5}, table.Rows[0])
	assert.Equal(t, []any{"D2", "Bob", nil, 1.25}, table.Rows[1])
}

func TestCsvDataFetcher_SelectColumns(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "t.csv"), []byte("a;b;c\n1;x;y\n"), 0644))

	fetcher := NewCsvDataFetcherFromConfig(&config.DataSourceConfig{Dir: dir, Comma: ";"})
	table, err := fetcher.Fetch(context.Background(), &config.TableConfig{Name: "t", File: "t.csv", Columns: []string{"c", "a"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, table.Columns)
	assert.Equal(t, []any{"y", int64(1)}, table.Rows[0])

	_, err = fetcher.Fetch(context.Background(), &config.TableConfig{Name: "t", File: "t.csv", Columns: []string{"zzz"}})
	assert.Error(t, err)
}

func TestCsvDataFetcher_Charset(t *testing.T) {
	dir := t.TempDir()
	encoded, err := charmap.Windows1251.NewEncoder().String("город\nМосква\n")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.csv"), []byte(encoded), 0644))

	fetcher := &CsvDataFetcher{RootDir: dir, Charset: "windows-1251"}
	table, err := fetcher.Fetch(context.Background(), &config.TableConfig{Name: "c", File: "c.csv"})
	require.NoError(t, err)
	assert.Equal(t, []string{"город"}, table.Columns)
	assert.Equal(t, "Москва", table.Rows[0][0])
}

func TestCsvDataFetcher_Errors(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	_, err := NewCsvDataFetcher(dir).Fetch(ctx, &config.TableConfig{Name: "m", File: "missing.csv"})
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "e.csv"), nil, 0644))
	table, err := NewCsvDataFetcher(dir).Fetch(ctx, &config.TableConfig{Name: "e", File: "e.csv"})
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())

	_, err = (&CsvDataFetcher{RootDir: dir, Charset: "no-such-charset"}).Fetch(ctx, &config.TableConfig{Name: "e", File: "e.csv"})
	assert.Error(t, err)
}

func TestSQLDataFetcher_Query(t *testing.T) {
	tests := []struct {
		name   string
		driver string
		table  config.TableConfig
		want   string
	}{
		{
			name:   "Raw SQL",
			driver: config.DriverMySQL,
			table:  config.TableConfig{Sql: "SELECT 1"},
			want:   "SELECT 1",
		},
		{
			name:   "MySQL Table",
			driver: config.DriverMySQL,
			table:  config.TableConfig{Table: "sales"},
			want:   "SELECT * FROM `sales`",
		},
		{
			name:   "Postgres Columns",
			driver: config.DriverPostgres,
			table:  config.TableConfig{Table: "sales", Columns: []string{"region", "amount"}},
			want:   `SELECT "region", "amount" FROM "sales"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewSQLDataFetcher(nil, tt.driver)
			assert.Equal(t, tt.want, f.query(&tt.table))
		})
	}
}
