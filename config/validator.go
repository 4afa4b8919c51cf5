package config

import (
	"fmt"
)

// Validator validates the configuration objects.
type Validator struct {
	Provider Provider
}

// NewValidator creates a new Validator.
func NewValidator(provider Provider) *Validator {
	return &Validator{Provider: provider}
}

// ValidateBundle validates the report, its data sources and its tables.
func (v *Validator) ValidateBundle(b *Bundle) error {
	if err := v.ValidateReport(&b.Report); err != nil {
		return err
	}

	seen := make(map[string]bool)
	for i := range b.DataSources {
		ds := &b.DataSources[i]
		if err := v.ValidateDataSource(ds); err != nil {
			return fmt.Errorf("data source %d error: %w", i, err)
		}
		if seen[ds.Name] {
			return fmt.Errorf("duplicate data source '%s'", ds.Name)
		}
		seen[ds.Name] = true
	}

	for i := range b.Tables {
		if err := v.ValidateTable(&b.Tables[i]); err != nil {
			return fmt.Errorf("table %d error: %w", i+1, err)
		}
	}

	if b.Upload != nil && b.Upload.Bucket == "" {
		return fmt.Errorf("upload bucket is required")
	}
	return nil
}

// ValidateReport validates the ReportConfig.
func (v *Validator) ValidateReport(r *ReportConfig) error {
	if r.Name == "" {
		return fmt.Errorf("report name is required")
	}
	if r.Template == "" {
		return fmt.Errorf("report template is required")
	}
	return nil
}

// ValidateTable validates the TableConfig against its data source.
func (v *Validator) ValidateTable(t *TableConfig) error {
	if t.Name == "" {
		return fmt.Errorf("table name is required")
	}
	if t.DataSource == "" {
		return fmt.Errorf("table '%s' requires a DataSource", t.Name)
	}
	if v.Provider == nil {
		return nil
	}
	ds, err := v.Provider.GetDataSourceConfig(t.DataSource)
	if err != nil {
		return fmt.Errorf("table '%s' references unknown DataSource '%s'", t.Name, t.DataSource)
	}

	switch ds.Driver {
	case DriverCSV:
		if t.File == "" {
			return fmt.Errorf("csv table '%s' requires a file", t.Name)
		}
	case DriverMySQL, DriverPostgres:
		if t.Table == "" && t.Sql == "" {
			return fmt.Errorf("sql table '%s' requires a table or sql", t.Name)
		}
		if t.Table != "" && t.Sql != "" {
			return fmt.Errorf("sql table '%s' cannot have both table and sql", t.Name)
		}
	case DriverDynamoDB:
		if t.Table == "" {
			return fmt.Errorf("dynamodb table '%s' requires a table", t.Name)
		}
	}
	return nil
}

// ValidateDataSource validates the DataSourceConfig.
func (v *Validator) ValidateDataSource(ds *DataSourceConfig) error {
	if ds.Name == "" {
		return fmt.Errorf("data source name is required")
	}
	switch ds.Driver {
	case "":
		return fmt.Errorf("data source '%s' driver is required", ds.Name)
	case DriverMySQL, DriverPostgres:
		if ds.DSN == "" {
			return fmt.Errorf("data source '%s' DSN is required", ds.Name)
		}
	case DriverCSV:
		if len([]rune(ds.Comma)) > 1 {
			return fmt.Errorf("data source '%s' comma must be a single character", ds.Name)
		}
	case DriverDynamoDB:
	default:
		return fmt.Errorf("data source '%s' has unsupported driver '%s'", ds.Name, ds.Driver)
	}
	return nil
}
