package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/likearthian/dbmodel"
)

func NewPingCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Open a connection and close it again",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "connected to %s using %s\n", opts.Config.URL, conn.DriverName())
			return conn.Close()
		},
	}
}

// NewExecCommand runs each argument as one statement, in order, and stops at
// the first failure.
func NewExecCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "exec <statement>...",
		Short: "Execute SQL statements",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (rerr error) {
			conn, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer func() {
				if err := conn.Close(); err != nil && rerr == nil {
					rerr = err
				}
			}()

			for _, stmt := range args {
				stmt = strings.TrimSpace(stmt)
				if stmt == "" {
					continue
				}

				res, err := conn.ExecContext(cmd.Context(), stmt)
				if err != nil {
					return fmt.Errorf("%s: %w", stmt, err)
				}

				n, err := res.RowsAffected()
				if err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", stmt)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d rows affected\n", stmt, n)
			}

			return nil
		},
	}
}

func NewDriversCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "drivers",
		Short: "List supported drivers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, d := range dbmodel.Drivers() {
				fmt.Fprintln(cmd.OutOrStdout(), d)
			}
			return nil
		},
	}
}
