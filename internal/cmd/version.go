package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/wsciaroni/opsdeck-cli/internal/ux"
	"github.com/wsciaroni/opsdeck-cli/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long: `Print version information including version number, git commit,
build date, Go version, and platform.`,
	Args: cobra.NoArgs,
	RunE: runVersion,
}

var versionVerbose bool

func init() {
	versionCmd.Flags().BoolVarP(&versionVerbose, "verbose", "v", false, "show detailed version information")

	rootCmd.AddCommand(versionCmd)
}

type versionView struct {
	version.Info
	verbose bool
}

func (v versionView) RenderText(w io.Writer, noColor bool) error {
	if v.verbose {
		_, err := fmt.Fprintln(w, v.Info.String())
		return err
	}
	_, err := fmt.Fprintf(w, "opsdeck %s\n", v.Short())
	return err
}

func runVersion(cmd *cobra.Command, args []string) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return fmt.Errorf("failed to create command context: %w", err)
	}

	format := cmdCtx.Format
	if format == "" {
		format = "text"
	}
	formatter, err := ux.NewFormatter(format, &ux.FormatterOptions{
		Writer:  cmd.OutOrStdout(),
		NoColor: cmdCtx.NoColor,
	})
	if err != nil {
		return err
	}
	return formatter.Format(versionView{Info: version.GetInfo(), verbose: versionVerbose})
}
