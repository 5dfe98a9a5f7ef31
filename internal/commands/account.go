package commands

import (
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/books/internal/accounts"
	"github.com/cleared-dev/books/internal/model"
)

func newAccountCommand(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "account",
		Aliases: []string{"acc"},
		Short:   "Manage the chart of accounts",
	}
	cmd.AddCommand(newAccountListCommand(g))
	cmd.AddCommand(newAccountImportCommand(g))
	cmd.AddCommand(newAccountExportCommand(g))
	return cmd
}

func newAccountListCommand(g *globalFlags) *cobra.Command {
	var rootType string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts with their balances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			all, err := a.store.ListAccounts(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing accounts: %w", err)
			}
			if rootType != "" {
				rt := model.RootType(rootType)
				if !rt.Valid() {
					return fmt.Errorf("unknown root type %q", rootType)
				}
				all = accounts.ByRootType(all, rt)
			}

			data := pterm.TableData{{"Account", "Root Type", "Balance"}}
			for _, acct := range all {
				data = append(data, []string{acct.Name, string(acct.RootType), a.money.Format(acct.Balance)})
			}
			return printTable(cmd.OutOrStdout(), data)
		},
	}

	cmd.Flags().StringVar(&rootType, "root-type", "", "only list accounts of this root type")
	return cmd
}

func newAccountImportCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Add accounts from a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening %s: %w", args[0], err)
			}
			defer f.Close()

			n, err := accounts.Import(cmd.Context(), a.store, f)
			if err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Imported %d accounts", n)
			return nil
		},
	}
}

func newAccountExportCommand(g *globalFlags) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the chart of accounts as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			w, done, err := output(cmd, out)
			if err != nil {
				return err
			}
			if err := accounts.Export(cmd.Context(), a.store, w); err != nil {
				_ = done()
				return err
			}
			return done()
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}
