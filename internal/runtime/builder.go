package runtime

import (
	"github.com/spf13/cobra"
)

// NewRootCommand builds the frencli root command.
//
// Subcommands are positional keywords that may appear in any order and repeat
// flags between them, so cobra does not parse flags or route subcommands.
// Every argument is passed through to Runtime.Execute.
func NewRootCommand(opts *Options) *cobra.Command {
	if opts == nil {
		opts = &Options{}
	}

	return &cobra.Command{
		Use:                AppName + " [subcommand [flags]]...",
		Short:              "Batch file renamer built from chained subcommands",
		Version:            opts.Version,
		DisableFlagParsing: true,
		SilenceUsage:       true,
		SilenceErrors:      true,
		Args:               cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			o := *opts
			if o.Stdin == nil {
				o.Stdin = cmd.InOrStdin()
			}
			if o.Stdout == nil {
				o.Stdout = cmd.OutOrStdout()
			}
			if o.Stderr == nil {
				o.Stderr = cmd.ErrOrStderr()
			}

			rt, err := New(&o)
			if err != nil {
				return err
			}
			defer rt.Close()

			return rt.Execute(cmd.Context(), args)
		},
	}
}
