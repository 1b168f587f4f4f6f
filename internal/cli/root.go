package cli

import (
	"github.com/spf13/cobra"
	"github.com/untillpro/goutils/logger"

	"github.com/likearthian/dbmodel"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	ConfigFile string
	Config     dbmodel.Config
}

// NewRootCommand creates the root command for the dbmodel CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "dbmodel",
		Short:         "dbmodel - database connection tool",
		Long:          "Opens a database connection through one of the supported drivers and runs statements on it.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.Verbose {
				logger.SetLogLevel(logger.LogLevelVerbose)
			}
			return opts.resolve(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	flags.StringVarP(&opts.ConfigFile, "config", "c", "", "YAML file with driver, url, user, password and params")
	flags.StringVar(&opts.Config.Driver, "driver", "", "driver: pgx, postgres, mysql or sqlite3")
	flags.StringVar(&opts.Config.URL, "url", "", "database location, host[:port]/database or a sqlite file")
	flags.StringVarP(&opts.Config.User, "user", "u", "", "user name")
	flags.StringVarP(&opts.Config.Password, "password", "p", "", "password")

	cmd.AddCommand(NewPingCommand(opts))
	cmd.AddCommand(NewExecCommand(opts))
	cmd.AddCommand(NewDriversCommand())

	return cmd
}
