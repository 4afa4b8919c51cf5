package core

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"xlreport/config"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// CsvDataFetcher implements DataFetcher using CSV files under RootDir.
// The first record is the header.
type CsvDataFetcher struct {
	RootDir string
	Charset string
	Comma   rune
}

// NewCsvDataFetcher reads comma separated UTF-8 files under rootDir.
func NewCsvDataFetcher(rootDir string) *CsvDataFetcher {
	return &CsvDataFetcher{RootDir: rootDir, Comma: ','}
}

// NewCsvDataFetcherFromConfig applies the directory, charset and separator of ds.
func NewCsvDataFetcherFromConfig(ds *config.DataSourceConfig) *CsvDataFetcher {
	f := NewCsvDataFetcher(ds.Dir)
	f.Charset = ds.Charset
	if r := []rune(ds.Comma); len(r) == 1 {
		f.Comma = r[0]
	}
	return f
}

// getEncoding returns nil for UTF-8.
func getEncoding(name string) (encoding.Encoding, error) {
	name = strings.ToLower(name)
	if name == "" || name == "utf-8" || name == "utf8" {
		return nil, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		err = fmt.Errorf("%q: %w", name, err)
	}
	return enc, err
}

// Fetch reads the table's file. The header row names the columns.
func (f *CsvDataFetcher) Fetch(ctx context.Context, table *config.TableConfig) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	filePath := table.File
	if !filepath.IsAbs(filePath) {
		filePath = filepath.Join(f.RootDir, filePath)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv file %s: %w", filePath, err)
	}
	defer file.Close()

	enc, err := getEncoding(f.Charset)
	if err != nil {
		return nil, err
	}
	var r io.Reader = file
	if enc != nil {
		r = enc.NewDecoder().Reader(file)
	}

	reader := csv.NewReader(r)
	if f.Comma != 0 {
		reader.Comma = f.Comma
	}
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv content: %w", err)
	}

	if len(records) < 1 {
		return NewTable(table.Name, nil), nil
	}

	header := records[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	result := NewTable(table.Name, header)
	for _, record := range records[1:] {
		values := make([]any, len(header))
		for j := range header {
			if j < len(record) {
				values[j] = parseCsvValue(record[j])
			}
		}
		result.Rows = append(result.Rows, values)
	}

	if len(table.Columns) > 0 {
		return result.Select(table.Columns)
	}
	return result, nil
}

// parseCsvValue types a CSV field: empty is nil, then int64, then float64.
func parseCsvValue(s string) any {
	if s == "" {
		return nil
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if fl, err := strconv.ParseFloat(s, 64); err == nil {
		return fl
	}
	return s
}
