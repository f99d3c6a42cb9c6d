package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "opsdeck",
	Short: "Command-line client for OpsDeck",
	Long: `opsdeck is a command-line client for the OpsDeck helpdesk.

It signs you in with your OpsDeck session, keeps track of the organization
you are working in, and lets you manage tickets, comments, scheduled tasks
and team members from the terminal.

Configuration is read from ~/.opsdeck/config.yaml and OPSDECK_* environment
variables; flags override both.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with ctx, which is cancelled on interrupt
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().String("server", "", "OpsDeck server URL (overrides OPSDECK_SERVER_URL)")
	rootCmd.PersistentFlags().String("home", "", "directory for config, state and credentials (default ~/.opsdeck)")
	rootCmd.PersistentFlags().StringP("format", "o", "", "output format: text, json, yaml")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("org", "", "organization id or slug for this command (default: the active organization)")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "suppress success messages")
}
