package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/books/internal/buildinfo"
)

// globalFlags are the persistent flags shared by every subcommand.
type globalFlags struct {
	dir       string
	config    string
	logLevel  string
	logFormat string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var g globalFlags

	rootCmd := &cobra.Command{
		Use:     "books",
		Short:   "Double-entry bookkeeping for invoices, payments and journal entries",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&g.dir, "dir", "C", ".", "books directory")
	pf.StringVarP(&g.config, "config", "c", "", "config file (default <dir>/books.yaml)")
	pf.StringVar(&g.logLevel, "log-level", "", "log level: debug, info, warn or error")
	pf.StringVar(&g.logFormat, "log-format", "", "log format: console or json")

	rootCmd.AddCommand(newInitCommand(&g))
	rootCmd.AddCommand(newAccountCommand(&g))
	rootCmd.AddCommand(newDocCommand(&g))
	rootCmd.AddCommand(newLedgerCommand(&g))
	rootCmd.AddCommand(newSeriesCommand(&g))
	rootCmd.AddCommand(newPartyCommand(&g))

	return rootCmd
}
