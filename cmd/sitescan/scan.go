package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/olegrjumin/sitescan/internal/logging"
	"github.com/olegrjumin/sitescan/internal/report"
	"github.com/olegrjumin/sitescan/internal/scanclient"
	"github.com/olegrjumin/sitescan/internal/scanner"
	"github.com/olegrjumin/sitescan/internal/service"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan URL [URL...]",
		Short: "Scan pages for third-party resources",
		Long: `Scan loads each page and reports its third-party cookies, scripts, pixels,
iframes and network requests.

Pages are scanned locally unless --server points at a running 'sitescan serve'.

Examples:
  # Scan one page and print JSON
  sitescan scan https://example.com

  # Scan several pages, three at a time, as a Markdown report
  sitescan scan --batch 3 --markdown -o report.md https://a.example https://b.example

  # Scan without Chrome (HTML only, no subresource responses)
  sitescan scan --engine static https://example.com

  # Use a remote scan service
  sitescan scan --server http://scanner:8000 https://example.com`,
		Args: cobra.MinimumNArgs(1),
		RunE: runScanCmd,
	}

	cmd.Flags().IntP("depth", "d", scanner.DefaultDepth, "Pages to follow (1-5; only the first page is scanned)")
	cmd.Flags().IntP("timeout", "t", scanner.DefaultTimeout, "Requested timeout in seconds (5-120)")
	cmd.Flags().IntP("batch", "b", 1, "Number of concurrent scans")
	cmd.Flags().StringP("engine", "e", "", "Page engine: chrome or static (overrides SCAN_ENGINE)")
	cmd.Flags().StringP("server", "s", "", "Scan through a running sitescan service at this base URL")

	cmd.Flags().Bool("pretty", false, "Indent JSON output")
	cmd.Flags().BoolP("markdown", "m", false, "Output a Markdown report instead of JSON")
	cmd.Flags().StringP("output", "o", "", "Write the report to this file (creates directories if needed)")

	return cmd
}

// remoteScanner scans through the HTTP API of another sitescan process
type remoteScanner struct {
	client *scanclient.Client
}

func (r remoteScanner) Scan(ctx context.Context, target string, opts scanner.ScanOptions) (*scanner.ScanResult, error) {
	return r.client.Scan(ctx, scanclient.ScanRequest{URL: target, Depth: opts.Depth, Timeout: opts.Timeout})
}

func runScanCmd(cmd *cobra.Command, args []string) error {
	depth, _ := cmd.Flags().GetInt("depth")
	timeout, _ := cmd.Flags().GetInt("timeout")
	// The flags default to valid values, so only an explicit out-of-range value fails here.
	if err := (scanner.ScanOptions{Depth: depth, Timeout: timeout}).Validate(); err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cmd, cfg, true)

	batchSize, _ := cmd.Flags().GetInt("batch")
	serverURL, _ := cmd.Flags().GetString("server")

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var backend service.Scanner
	if serverURL != "" {
		client := scanclient.New(serverURL, scanclient.WithLogger(logger))
		if !client.Healthy(ctx) {
			return fmt.Errorf("%w at %s", scanclient.ErrUnavailable, serverURL)
		}
		backend = remoteScanner{client: client}
	} else {
		sc, launcher, err := newScanner(cfg, logger)
		if err != nil {
			return err
		}
		defer launcher.Close()
		backend = sc
	}

	svc := service.New(backend, logger, nil)
	batch := service.NewBatchScanner(svc, batchSize, logger)

	results, err := batch.ScanAll(ctx, args, depth, timeout)
	if err != nil {
		return fmt.Errorf("scan interrupted: %w", err)
	}

	var ok []*scanner.ScanResult
	var failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", r.URL, r.Err)
			continue
		}
		ok = append(ok, r.Result)
	}

	if len(ok) > 0 {
		if err := writeReport(cmd, ok, logger); err != nil {
			return err
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d scans failed", failed, len(results))
	}
	return nil
}

func writeReport(cmd *cobra.Command, results []*scanner.ScanResult, logger *logging.Logger) error {
	out, closeOut, err := openOutput(cmd)
	if err != nil {
		return err
	}
	defer closeOut()

	w := reportWriter(cmd, out)
	if len(results) == 1 {
		_, err = w.WriteScan(results[0])
	} else {
		_, err = w.WriteBatch(results)
	}
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if path, _ := cmd.Flags().GetString("output"); path != "" {
		logger.Info("Report written", "path", path, "scans", len(results))
	}
	return nil
}

// reportWriter picks JSON or Markdown from the --markdown and --pretty flags
func reportWriter(cmd *cobra.Command, out io.Writer) report.Writer {
	if md, _ := cmd.Flags().GetBool("markdown"); md {
		return report.NewMarkdownWriter(out)
	}
	var opts []report.JSONWriterOption
	if pretty, _ := cmd.Flags().GetBool("pretty"); pretty {
		opts = append(opts, report.WithPrettyPrint())
	}
	return report.NewJSONWriter(out, opts...)
}

// openOutput returns the --output file, or the command's stdout
func openOutput(cmd *cobra.Command) (io.Writer, func(), error) {
	path, _ := cmd.Flags().GetString("output")
	if path == "" {
		return cmd.OutOrStdout(), func() {}, nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}
