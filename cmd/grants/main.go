package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"grants/internal/cli"
	"grants/internal/config"
	"grants/internal/dashboard"
	apphttp "grants/internal/http"
	"grants/internal/importer"
	"grants/internal/log"
	"grants/internal/storage"
	appweb "grants/web"
)

// app carries what PersistentPreRunE prepares for the subcommands.
type app struct {
	out      io.Writer
	envFiles []string
	cfg      *config.Config
	logger   *log.Logger

	dbPath   string
	logLevel string
	port     string
	source   string
	file     string
	labels   string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}

	root := &cobra.Command{
		Use:   "grants",
		Short: "Funding dashboard for reporting-period grant metrics",
		Long: `grants serves an HTML dashboard of funding and education metrics,
one table and line chart per program, read from a SQLite store.

Configuration comes from the environment (and a .env file); flags override it.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	root.SetOut(out)
	root.SetErr(out)

	root.PersistentFlags().StringSliceVar(&a.envFiles, "env-file", []string{".env"}, "Environment files to load before reading configuration")
	root.PersistentFlags().StringVar(&a.dbPath, "db", "", "SQLite database path (overrides SQLITE_DB_PATH)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides LOG_LEVEL)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard over HTTP",
		Args:  cobra.NoArgs,
		RunE:  a.runServe,
	}
	serveCmd.Flags().StringVar(&a.port, "port", "", "Listen port (overrides PORT)")

	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Import the grant funding workbook into the store",
		Long: `import reads the "grant funding over time" workbook, either a CSV export
or a Google Sheet, and upserts its periods, funding rows and education rows.`,
		Args: cobra.NoArgs,
		RunE: a.runImport,
	}
	importCmd.Flags().StringVar(&a.source, "source", "", "Workbook source: file or sheets (overrides IMPORT_SOURCE)")
	importCmd.Flags().StringVar(&a.file, "file", "", "CSV export to import (overrides IMPORT_FILE)")
	importCmd.Flags().StringVar(&a.labels, "labels", "", "Comma-separated period labels, one per workbook column (overrides PERIOD_LABELS)")

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE:  a.runMigrate,
	}

	root.AddCommand(serveCmd, importCmd, migrateCmd)
	return root
}

func (a *app) setup() error {
	cfg, err := cli.LoadConfig(a.envFiles, func(c *config.Config) {
		if a.dbPath != "" {
			c.SQLiteDBPath = a.dbPath
		}
		if a.logLevel != "" {
			c.LogLevel = a.logLevel
		}
		if a.port != "" {
			c.Port = a.port
		}
		if a.source != "" {
			c.ImportSource = a.source
		}
		if a.file != "" {
			c.ImportFile = a.file
		}
		if a.labels != "" {
			var labels []string
			for _, l := range strings.Split(a.labels, ",") {
				if l = strings.TrimSpace(l); l != "" {
					labels = append(labels, l)
				}
			}
			c.PeriodLabels = labels
		}
	})
	if err != nil {
		return err
	}

	logger, err := cli.SetupLogger(a.out, cfg.LogLevel)
	if err != nil {
		return err
	}
	a.cfg, a.logger = cfg, logger
	return nil
}

func (a *app) runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	renderer, err := dashboard.NewRenderer(appweb.TemplatesFS)
	if err != nil {
		a.logger.Error("Failed to parse templates", log.NewFields().WithError(err, log.ErrorTypeTemplate).ToSlice()...)
		return err
	}

	loader := storage.NewLoader(storage.Options{Path: a.cfg.SQLiteDBPath})
	srv := apphttp.NewServer(":"+a.cfg.Port, loader, renderer, apphttp.Config{
		Title:       a.cfg.PageTitle,
		ChartCDNURL: a.cfg.ChartCDNURL,
		Logger:      a.logger,
	})

	a.logger.Info("Starting grants server",
		log.FieldOperation, log.OpStartup,
		"port", a.cfg.Port,
		"db_path", a.cfg.SQLiteDBPath)
	if err := cli.Serve(ctx, a.logger, &srv.Server, a.cfg.ShutdownTimeout); err != nil {
		a.logger.Error("Server error", log.NewFields().WithError(err, log.ErrorTypeInternal).ToSlice()...)
		return err
	}
	return nil
}

func (a *app) runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := a.cfg.ValidateImport(); err != nil {
		return err
	}

	src, err := cli.NewSource(ctx, a.cfg)
	if err != nil {
		a.logger.Error("Failed to open workbook source", log.NewFields().WithError(err, log.ErrorTypeConfiguration).ToSlice()...)
		return err
	}

	repo, err := storage.NewSQLiteRepository(a.cfg.SQLiteDBPath)
	if err != nil {
		a.logger.Error("Failed to initialize SQLite repository",
			log.NewFields().WithError(err, log.ErrorTypeDatabase).ToSlice()...)
		return err
	}
	defer repo.Close()

	stats, err := importer.New(repo, a.cfg.PeriodLabels, a.logger).Run(ctx, src)
	if err != nil {
		a.logger.Error("Import failed", log.NewFields().WithError(err, log.ErrorTypeDatabase).WithOperation(log.OpImport).ToSlice()...)
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "imported %d funding rows and %d education rows (%d new periods)\n",
		stats.SummaryRows, stats.EducationRows, stats.PeriodsCreated)
	return nil
}

func (a *app) runMigrate(cmd *cobra.Command, args []string) error {
	version, err := storage.RunMigrations(a.cfg.SQLiteDBPath)
	if err != nil {
		a.logger.Error("Migration failed", log.NewFields().WithError(err, log.ErrorTypeDatabase).WithOperation(log.OpMigrate).ToSlice()...)
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", version)
	return nil
}
