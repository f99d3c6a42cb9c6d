package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// CommandContext holds the persistent flags shared by every command.
// Empty values mean "not set on the command line".
type CommandContext struct {
	ServerURL string
	Home      string
	Format    string
	NoColor   bool
	LogLevel  string
	Quiet     bool
	Org       string
}

// flagReader keeps the first lookup error so the reads stay flat.
type flagReader struct {
	flags *pflag.FlagSet
	err   error
}

func (r *flagReader) str(name string) string {
	v, err := r.flags.GetString(name)
	if r.err == nil {
		r.err = err
	}
	return v
}

func (r *flagReader) boolean(name string) bool {
	v, err := r.flags.GetBool(name)
	if r.err == nil {
		r.err = err
	}
	return v
}

// NewCommandContext reads the persistent flags from cmd.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	r := &flagReader{flags: cmd.Flags()}
	cc := &CommandContext{
		ServerURL: r.str("server"),
		Home:      r.str("home"),
		Format:    r.str("format"),
		NoColor:   r.boolean("no-color"),
		LogLevel:  r.str("log-level"),
		Quiet:     r.boolean("quiet"),
		Org:       r.str("org"),
	}
	if r.err != nil {
		return nil, r.err
	}
	return cc, nil
}
