package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/olegrjumin/sitescan/internal/diff"
	"github.com/olegrjumin/sitescan/internal/report"
	"github.com/olegrjumin/sitescan/internal/scanner"
)

// errRegression is returned with --fail-on-regression when risk went up
var errRegression = errors.New("risk regression detected")

// NewCompareCmd creates the compare command.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare PREVIOUS.json CURRENT.json",
		Short: "Compare two saved scan results",
		Long: `Compare shows what changed between two scans of the same page:
- new third-party resources
- resources that are gone
- resources whose risk level went up (regressions)

Resources are matched by host and type. Inputs are JSON files written by
'sitescan scan' or returned by POST /scan.

Examples:
  sitescan scan -o old.json https://example.com
  sitescan scan -o new.json https://example.com
  sitescan compare old.json new.json
  sitescan compare --markdown --fail-on-regression old.json new.json`,
		Args: cobra.ExactArgs(2),
		RunE: runCompareCmd,
	}

	cmd.Flags().Bool("pretty", false, "Indent JSON output")
	cmd.Flags().BoolP("markdown", "m", false, "Output a Markdown report instead of JSON")
	cmd.Flags().StringP("output", "o", "", "Write the comparison to this file")
	cmd.Flags().Bool("fail-on-regression", false, "Exit non-zero when any resource's risk increased")

	return cmd
}

func runCompareCmd(cmd *cobra.Command, args []string) error {
	previous, err := readScanFile(args[0])
	if err != nil {
		return err
	}
	current, err := readScanFile(args[1])
	if err != nil {
		return err
	}

	d := diff.Compare(previous, current)

	out, closeOut, err := openOutput(cmd)
	if err != nil {
		return err
	}
	defer closeOut()

	if _, err := reportWriter(cmd, out).WriteDiff(d); err != nil {
		return fmt.Errorf("failed to write comparison: %w", err)
	}

	if failOn, _ := cmd.Flags().GetBool("fail-on-regression"); failOn && d.Counts.TotalRegressions > 0 {
		return fmt.Errorf("%w: %d resource(s), highest risk %s", errRegression, d.Counts.TotalRegressions, d.Severity)
	}
	return nil
}

func readScanFile(path string) (*scanner.ScanResult, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open scan result: %w", err)
	}
	defer f.Close()

	result, err := report.ReadScan(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse scan result %s: %w", path, err)
	}
	return result, nil
}
