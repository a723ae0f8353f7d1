// Package cmd implements the cropwatch command line.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"cropwatch/config"
)

// Version is set at build time.
var Version = "dev"

type rootOptions struct {
	cfgFile string
}

// NewRootCmd builds the command tree. Each call returns independent state.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "cropwatch",
		Short: "Crop health monitoring backend",
		Long: `cropwatch serves the dashboard, alerts, field map, image gallery and
reports screens as a JSON API, and classifies scores or generates mock
field image analyses from the command line.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (default ./cropwatch.yaml when present)")

	root.AddCommand(
		newServeCmd(opts),
		newClassifyCmd(opts),
		newAnalyzeCmd(opts),
		newVersionCmd(),
	)
	return root
}

func (o *rootOptions) settings() (*config.Settings, error) {
	return config.Load(o.cfgFile)
}

// Execute runs the command line with ctx.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "cropwatch "+Version)
		},
	}
}
