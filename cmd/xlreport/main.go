package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"xlreport/config"
	"xlreport/core"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/spf13/cobra"

	// Database drivers
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
)

func main() {
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		slog.Error("Generation failed", "error", err)
		os.Exit(1)
	}
}

type options struct {
	configFile     string
	dataSourceFile string
	templatePath   string
	outputPath     string
	summaryPath    string
	variables      map[string]string
	s3Bucket       string
	s3Prefix       string
	strict         bool
	verbose        bool
}

func newRootCmd(output io.Writer) *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "xlreport",
		Short: "Fill an Excel template with data from configured sources",
		Long: `xlreport renders a report from an .xlsx template. Cells holding %%name%%
are replaced with variables, cells holding [[t1.column /flags]] or
[[pt1(a,b) /flags]] are expanded with table or pivot data.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return generate(cmd.Context(), output, opts)
		},
	}
	cmd.SetOut(output)
	cmd.SetErr(output)

	flags := cmd.Flags()
	flags.StringVarP(&opts.configFile, "config", "c", "", "Path to configuration bundle")
	flags.StringVar(&opts.dataSourceFile, "datasources", "", "Path to data source bundle (optional, replaces the bundle's)")
	flags.StringVarP(&opts.templatePath, "template", "t", "", "Template file (overrides the bundle)")
	flags.StringVarP(&opts.outputPath, "output", "o", "", "Output file or directory (overrides the bundle)")
	flags.StringVar(&opts.summaryPath, "summary", "", "Write the run summary (errors and write history) as YAML")
	flags.StringToStringVar(&opts.variables, "var", nil, "Template variable name=value (repeatable)")
	flags.StringVar(&opts.s3Bucket, "s3-bucket", "", "S3 bucket name for uploading output")
	flags.StringVar(&opts.s3Prefix, "s3-prefix", "", "S3 prefix (folder) for uploaded files")
	flags.BoolVar(&opts.strict, "strict", false, "Fail when the report has template errors")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

func run(output io.Writer, args []string) error {
	cmd := newRootCmd(output)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(context.Background())
}

func generate(ctx context.Context, output io.Writer, opts *options) error {
	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{Level: level})))

	// 1. Load Config Bundle
	slog.Info("Loading configuration bundle", "file", opts.configFile)
	bundle, err := config.LoadBundle(opts.configFile)
	if err != nil {
		return err
	}
	if opts.dataSourceFile != "" {
		slog.Info("Loading data source bundle", "file", opts.dataSourceFile)
		if bundle.DataSources, err = config.LoadDataSources(opts.dataSourceFile); err != nil {
			return err
		}
		if err := config.NewValidator(config.NewRegistry(bundle.DataSources)).ValidateBundle(bundle); err != nil {
			return fmt.Errorf("invalid data sources for %s: %w", opts.configFile, err)
		}
	}
	if opts.templatePath != "" {
		if bundle.Report.Template, err = filepath.Abs(opts.templatePath); err != nil {
			return err
		}
	}
	if opts.outputPath != "" {
		if bundle.Report.Output, err = filepath.Abs(opts.outputPath); err != nil {
			return err
		}
	}

	// 2. Generate
	slog.Info("Processing report", "name", bundle.Report.Name, "id", bundle.Report.Id, "tables", len(bundle.Tables))
	genCtx := core.NewGenerationContext(bundle, nil, newFetcher, opts.variables)
	defer func() {
		if err := genCtx.Close(); err != nil {
			slog.Warn("Failed to close data sources", "error", err)
		}
	}()

	res, err := core.NewGenerator(genCtx).Generate(ctx, "", "")
	if err != nil {
		return fmt.Errorf("generate report %s: %w", bundle.Report.Name, err)
	}
	slog.Info("Successfully generated", "name", bundle.Report.Name, "path", res.OutputPath, "status", res.Report.Status())

	files := []string{res.OutputPath}
	if opts.summaryPath != "" {
		if err := writeSummary(opts.summaryPath, res.Report); err != nil {
			return err
		}
		files = append(files, opts.summaryPath)
	}

	// 3. Upload to S3 if configured
	bucket, prefix := opts.s3Bucket, opts.s3Prefix
	if bucket == "" && bundle.Upload != nil {
		bucket = bundle.Upload.Bucket
		if prefix == "" {
			prefix = bundle.Upload.Prefix
		}
	}
	if bucket != "" {
		slog.Info("Starting S3 upload", "bucket", bucket, "prefix", prefix)
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return fmt.Errorf("unable to load AWS SDK config for S3: %w", err)
		}
		if err := core.NewS3Uploader(cfg, bucket, prefix).UploadFiles(ctx, files...); err != nil {
			return fmt.Errorf("failed to upload output to s3: %w", err)
		}
		slog.Info("Successfully uploaded to S3")
	}

	if opts.strict && !res.Report.OK() {
		return fmt.Errorf("report %s has template errors: %s", bundle.Report.Name, res.Report.Status())
	}
	return nil
}

func writeSummary(path string, report *core.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create summary: %w", err)
	}
	defer f.Close()
	if err := report.WriteSummary(f); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}

// newFetcher opens the fetcher for a data source driver.
func newFetcher(ctx context.Context, ds *config.DataSourceConfig) (core.DataFetcher, error) {
	switch ds.Driver {
	case config.DriverDynamoDB:
		slog.Info("Initializing DynamoDB Data Fetcher", "source", ds.Name, "region", ds.Region)
		var loadOpts []func(*awsconfig.LoadOptions) error
		if ds.Region != "" {
			loadOpts = append(loadOpts, awsconfig.WithRegion(ds.Region))
		}
		cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, fmt.Errorf("unable to load AWS SDK config: %w", err)
		}
		return core.NewDynamoDBDataFetcher(cfg), nil
	case config.DriverMySQL, config.DriverPostgres:
		slog.Info("Initializing SQL Data Fetcher", "source", ds.Name, "type", ds.Driver)
		db, err := sql.Open(ds.Driver, ds.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open db connection: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to ping db: %w", err)
		}
		return core.NewSQLDataFetcher(db, ds.Driver), nil
	case config.DriverCSV:
		slog.Info("Initializing CSV Data Fetcher", "source", ds.Name, "dir", ds.Dir)
		return core.NewCsvDataFetcherFromConfig(ds), nil
	default:
		return nil, fmt.Errorf("unsupported driver '%s'", ds.Driver)
	}
}
