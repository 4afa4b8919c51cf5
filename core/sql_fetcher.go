package core

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"xlreport/config"
)

// SQLDataFetcher implements DataFetcher using a generic SQL database (MySQL, PostgreSQL).
type SQLDataFetcher struct {
	DB         *sql.DB
	DriverName string // "mysql" or "postgres"
}

// NewSQLDataFetcher creates a new fetcher.
func NewSQLDataFetcher(db *sql.DB, driverName string) *SQLDataFetcher {
	return &SQLDataFetcher{
		DB:         db,
		DriverName: driverName,
	}
}

// query returns the statement for table: its own SQL, or a SELECT over the
// configured columns.
func (f *SQLDataFetcher) query(table *config.TableConfig) string {
	if table.Sql != "" {
		return table.Sql
	}
	cols := "*"
	if len(table.Columns) > 0 {
		quoted := make([]string, len(table.Columns))
		for i, c := range table.Columns {
			quoted[i] = f.quoteIdent(c)
		}
		cols = strings.Join(quoted, ", ")
	}
	return fmt.Sprintf("SELECT %s FROM %s", cols, f.quoteIdent(table.Table))
}

func (f *SQLDataFetcher) quoteIdent(name string) string {
	if f.DriverName == config.DriverPostgres {
		return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
	}
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// Fetch runs the table query and keeps the result column order.
func (f *SQLDataFetcher) Fetch(ctx context.Context, table *config.TableConfig) (*Table, error) {
	rows, err := f.DB.QueryContext(ctx, f.query(table))
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	result := NewTable(table.Name, columns)
	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}

		for i, val := range values {
			// MySQL returns text columns as []byte
			if b, ok := val.([]byte); ok {
				values[i] = string(b)
			}
		}
		result.Rows = append(result.Rows, values)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

// Close closes the underlying database handle.
func (f *SQLDataFetcher) Close() error {
	return f.DB.Close()
}
