// Package cli implements the trafficcams command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/jengzang/trafficcams/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type rootOptions struct {
	cfgFile    string
	jsonOutput bool
	yamlOutput bool
}

// NewRootCmd builds the command tree
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "trafficcams",
		Short: "Browse, filter and rotate traffic camera feeds",
		Long: `Serve a traffic camera gallery over HTTP, or query the same
catalog from the terminal: filter by region, favourites or distance,
download snapshots and export map markers.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.InitConfig(opts.cfgFile)
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (default is $HOME/.trafficcams.yaml)")
	rootCmd.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "Output results as JSON")
	rootCmd.PersistentFlags().BoolVar(&opts.yamlOutput, "yaml", false, "Output results as YAML")

	rootCmd.AddCommand(
		newServeCmd(opts),
		newCamerasCmd(opts),
		newFavouritesCmd(opts),
		newRotateCmd(opts),
		newMapCmd(opts),
	)
	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// structured reports whether a machine-readable format was requested
func (o *rootOptions) structured() bool {
	return o.jsonOutput || o.yamlOutput
}

// printStructured writes v as JSON or YAML. YAML goes through the JSON
// encoding so both formats use the same field names.
func (o *rootOptions) printStructured(w io.Writer, v interface{}) error {
	if o.jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return enc.Close()
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
}
