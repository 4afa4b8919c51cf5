package config

// Supported data source drivers.
const (
	DriverCSV      = "csv"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverDynamoDB = "dynamodb"
)

// DataSourceConfig：datasource config
type DataSourceConfig struct {
	Name   string `json:"name"   yaml:"name"`
	Driver string `json:"driver" yaml:"driver"` // "csv", "mysql", "postgres", "dynamodb"
	DSN    string `json:"dsn,omitempty" yaml:"dsn,omitempty"`

	// CSV
	Dir     string `json:"dir,omitempty" yaml:"dir,omitempty"`
	Charset string `json:"charset,omitempty" yaml:"charset,omitempty"` // e.g. "windows-1251"
	Comma   string `json:"comma,omitempty" yaml:"comma,omitempty"`

	// DynamoDB
	Region string `json:"region,omitempty" yaml:"region,omitempty"`
}

// TableConfig：one dataset of the report, addressed in templates by its
// 1-based position (t1, t2, ...).
type TableConfig struct {
	Name       string   `json:"name"       yaml:"name"`
	DataSource string   `json:"dataSource" yaml:"dataSource"`
	Table      string   `json:"table,omitempty" yaml:"table,omitempty"` // SQL or DynamoDB table
	Sql        string   `json:"sql,omitempty" yaml:"sql,omitempty"`
	File       string   `json:"file,omitempty" yaml:"file,omitempty"` // CSV file, relative to the source dir
	Columns    []string `json:"columns,omitempty" yaml:"columns,omitempty"`
	Filter     string   `json:"filter,omitempty" yaml:"filter,omitempty"` // expr-lang row condition
}

// UploadConfig：S3 destination for the finished report
type UploadConfig struct {
	Bucket string `json:"bucket" yaml:"bucket"`
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
}

// ReportConfig：report range config
type ReportConfig struct {
	Id          string            `json:"id,omitempty" yaml:"id,omitempty"`
	Name        string            `json:"name"         yaml:"name"`
	Template    string            `json:"template"     yaml:"template"`
	Output      string            `json:"output,omitempty" yaml:"output,omitempty"` // file or directory
	ArchiveRule string            `json:"archiveRule,omitempty" yaml:"archiveRule,omitempty"`
	Variables   map[string]string `json:"variables,omitempty" yaml:"variables,omitempty"`
}

// Bundle is a complete configuration file.
type Bundle struct {
	Report      ReportConfig       `json:"report"      yaml:"report"`
	DataSources []DataSourceConfig `json:"dataSources" yaml:"dataSources"`
	Tables      []TableConfig      `json:"tables"      yaml:"tables"`
	Upload      *UploadConfig      `json:"upload,omitempty" yaml:"upload,omitempty"`

	// BaseDir is the directory relative paths are resolved against.
	BaseDir string `json:"-" yaml:"-"`
}
