package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for sitescan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sitescan",
		Short: "Third-party resource scanner for web pages",
		Long: `sitescan loads a web page in a headless browser and reports the third-party
resources it uses: cookies, scripts, tracking pixels, iframes and network
requests. Each resource is classified against an ordered registry of known
tracker domains and given a privacy risk level.

Configuration comes from environment variables (PORT, SCAN_ENGINE,
BROWSER_POOL_SIZE, ...) overlaid by an optional YAML file.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .sitescan.yaml in the current directory or the XDG config dir)")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewCompareCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
