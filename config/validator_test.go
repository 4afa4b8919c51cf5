package config

import (
	"strings"
	"testing"
)

func TestValidator_ValidateBundle(t *testing.T) {
	sources := []DataSourceConfig{
		{Name: "files", Driver: DriverCSV},
		{Name: "db", Driver: DriverPostgres, DSN: "postgres://localhost/db"},
	}
	validator := NewValidator(NewRegistry(sources))

	tests := []struct {
		name    string
		b       *Bundle
		wantErr bool
		errMsg  string
	}{
		{
			name: "Valid Bundle",
			b: &Bundle{
				Report:      ReportConfig{Name: "Report", Template: "tpl.xlsx"},
				DataSources: sources,
				Tables: []TableConfig{
					{Name: "sales", DataSource: "files", File: "sales.csv"},
					{Name: "regions", DataSource: "db", Sql: "SELECT * FROM regions"},
				},
			},
			wantErr: false,
		},
		{
			name: "Missing Name",
			b: &Bundle{
				Report: ReportConfig{Template: "tpl.xlsx"},
			},
			wantErr: true,
			errMsg:  "report name is required",
		},
		{
			name: "Missing Template",
			b: &Bundle{
				Report: ReportConfig{Name: "Report"},
			},
			wantErr: true,
			errMsg:  "report template is required",
		},
		{
			name: "Duplicate Data Source",
			b: &Bundle{
				Report:      ReportConfig{Name: "Report", Template: "tpl.xlsx"},
				DataSources: []DataSourceConfig{sources[0], sources[0]},
			},
			wantErr: true,
			errMsg:  "duplicate data source 'files'",
		},
		{
			name: "Table Error Is Numbered From One",
			b: &Bundle{
				Report: ReportConfig{Name: "Report", Template: "tpl.xlsx"},
				Tables: []TableConfig{{DataSource: "files", File: "a.csv"}},
			},
			wantErr: true,
			errMsg:  "table 1 error: table name is required",
		},
		{
			name: "Upload Without Bucket",
			b: &Bundle{
				Report: ReportConfig{Name: "Report", Template: "tpl.xlsx"},
				Upload: &UploadConfig{Prefix: "p"},
			},
			wantErr: true,
			errMsg:  "upload bucket is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateBundle(tt.b)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateBundle() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("ValidateBundle() error = %v, want error containing %q", err, tt.errMsg)
			}
		})
	}
}

func TestValidator_ValidateTable(t *testing.T) {
	validator := NewValidator(NewRegistry([]DataSourceConfig{
		{Name: "files", Driver: DriverCSV},
		{Name: "db", Driver: DriverMySQL, DSN: "dsn"},
		{Name: "ddb", Driver: DriverDynamoDB},
	}))

	tests := []struct {
		name    string
		table   *TableConfig
		wantErr bool
		errMsg  string
	}{
		{
			name:    "Valid CSV",
			table:   &TableConfig{Name: "t", DataSource: "files", File: "t.csv"},
			wantErr: false,
		},
		{
			name:    "CSV Without File",
			table:   &TableConfig{Name: "t", DataSource: "files"},
			wantErr: true,
			errMsg:  "requires a file",
		},
		{
			name:    "SQL Without Table Or Query",
			table:   &TableConfig{Name: "t", DataSource: "db"},
			wantErr: true,
			errMsg:  "requires a table or sql",
		},
		{
			name:    "SQL With Both",
			table:   &TableConfig{Name: "t", DataSource: "db", Table: "x", Sql: "SELECT 1"},
			wantErr: true,
			errMsg:  "cannot have both",
		},
		{
			name:    "DynamoDB Without Table",
			table:   &TableConfig{Name: "t", DataSource: "ddb"},
			wantErr: true,
			errMsg:  "requires a table",
		},
		{
			name:    "Missing DataSource",
			table:   &TableConfig{Name: "t"},
			wantErr: true,
			errMsg:  "requires a DataSource",
		},
		{
			name:    "Unknown DataSource",
			table:   &TableConfig{Name: "t", DataSource: "nope"},
			wantErr: true,
			errMsg:  "unknown DataSource 'nope'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateTable(tt.table)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateTable() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("ValidateTable() error = %v, want error containing %q", err, tt.errMsg)
			}
		})
	}
}

func TestValidator_ValidateDataSource(t *testing.T) {
	validator := NewValidator(nil)

	tests := []struct {
		name    string
		ds      *DataSourceConfig
		wantErr bool
		errMsg  string
	}{
		{
			name:    "Valid MySQL",
			ds:      &DataSourceConfig{Name: "db", Driver: DriverMySQL, DSN: "user:pass@/db"},
			wantErr: false,
		},
		{
			name:    "Valid CSV With Comma",
			ds:      &DataSourceConfig{Name: "f", Driver: DriverCSV, Comma: ";"},
			wantErr: false,
		},
		{
			name:    "Missing Name",
			ds:      &DataSourceConfig{Driver: DriverCSV},
			wantErr: true,
			errMsg:  "data source name is required",
		},
		{
			name:    "Missing Driver",
			ds:      &DataSourceConfig{Name: "db"},
			wantErr: true,
			errMsg:  "driver is required",
		},
		{
			name:    "Missing DSN",
			ds:      &DataSourceConfig{Name: "db", Driver: DriverPostgres},
			wantErr: true,
			errMsg:  "DSN is required",
		},
		{
			name:    "Unsupported Driver",
			ds:      &DataSourceConfig{Name: "db", Driver: "sqlserver"},
			wantErr: true,
			errMsg:  "unsupported driver 'sqlserver'",
		},
		{
			name:    "Long Comma",
			ds:      &DataSourceConfig{Name: "f", Driver: DriverCSV, Comma: ";;"},
			wantErr: true,
			errMsg:  "single character",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateDataSource(tt.ds)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDataSource() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("ValidateDataSource() error = %v, want error containing %q", err, tt.errMsg)
			}
		})
	}
}
