// Package cli holds the startup plumbing shared by the grants subcommands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"grants/internal/config"
	"grants/internal/log"
	"grants/internal/sheets"
	"grants/internal/sheets/file"
	"grants/internal/sheets/google"
)

// SetupLogger builds the application logger at the given level and
// installs it as the slog default.
func SetupLogger(out io.Writer, level string) (*log.Logger, error) {
	lvl, err := config.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	logger := log.New(log.Config{Level: lvl, Component: log.ComponentApp, Output: out})
	log.SetDefault(logger)
	return logger, nil
}

// LoadConfig reads .env files, then the environment, applies overrides
// (typically command-line flags) and validates the result.
func LoadConfig(envFiles []string, override func(*config.Config)) (*config.Config, error) {
	config.LoadEnvFile(envFiles...)
	cfg := config.Load()
	if override != nil {
		override(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Server is the part of http.Server that Serve drives.
type Server interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// Serve runs srv until ctx is cancelled, then shuts it down within timeout.
// A listen failure cancels the group and is returned.
func Serve(ctx context.Context, logger *log.Logger, srv Server, timeout time.Duration) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server", log.FieldOperation, log.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}

// NewSource returns the workbook reader selected by cfg.ImportSource.
func NewSource(ctx context.Context, cfg *config.Config) (sheets.GridReader, error) {
	switch strings.ToLower(cfg.ImportSource) {
	case "file":
		return file.New(cfg.ImportFile)
	case "sheets":
		return google.NewFromEnv(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
	}
	return nil, fmt.Errorf("unknown import source %q", cfg.ImportSource)
}
