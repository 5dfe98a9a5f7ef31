package commands

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/books/internal/journal"
	"github.com/cleared-dev/books/internal/model"
)

const dateFormat = "2006-01-02"

// filterFlags binds the ledger filter to command flags.
type filterFlags struct {
	refType, refName string
	account, party   string
	from, to         string
	all              bool
}

func (f *filterFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.refType, "ref-type", "", "only rows posted by this document type")
	fl.StringVar(&f.refName, "ref-name", "", "only rows posted by this document")
	fl.StringVar(&f.account, "account", "", "only rows against this account")
	fl.StringVar(&f.party, "party", "", "only rows for this party")
	fl.StringVar(&f.from, "from", "", "first posting date, YYYY-MM-DD")
	fl.StringVar(&f.to, "to", "", "last posting date, YYYY-MM-DD")
	fl.BoolVar(&f.all, "all", false, "include reverted rows")
}

func (f *filterFlags) filter() (model.LedgerFilter, error) {
	lf := model.LedgerFilter{
		ReferenceType:   f.refType,
		ReferenceName:   f.refName,
		Account:         f.account,
		Party:           f.party,
		IncludeReverted: f.all,
	}
	var err error
	if f.from != "" {
		if lf.From, err = time.Parse(dateFormat, f.from); err != nil {
			return lf, fmt.Errorf("parsing --from %q: %w", f.from, err)
		}
	}
	if f.to != "" {
		if lf.To, err = time.Parse(dateFormat, f.to); err != nil {
			return lf, fmt.Errorf("parsing --to %q: %w", f.to, err)
		}
	}
	return lf, nil
}

func newLedgerCommand(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect and export ledger entries",
	}
	cmd.AddCommand(newLedgerListCommand(g))
	cmd.AddCommand(newLedgerExportCommand(g))
	cmd.AddCommand(newLedgerVerifyCommand(g))
	return cmd
}

func newLedgerListCommand(g *globalFlags) *cobra.Command {
	var ff filterFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List ledger entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lf, err := ff.filter()
			if err != nil {
				return err
			}
			a, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			entries, err := journal.NewService(a.store).Entries(cmd.Context(), lf)
			if err != nil {
				return err
			}

			data := pterm.TableData{{"Date", "Account", "Party", "Reference", "Debit", "Credit", "Reverted"}}
			for _, e := range entries {
				data = append(data, []string{
					e.Date.Format(dateFormat),
					e.Account,
					e.Party,
					e.ReferenceType + " " + e.ReferenceName,
					a.money.Format(e.Debit),
					a.money.Format(e.Credit),
					strconv.FormatBool(e.Reverted),
				})
			}
			return printTable(cmd.OutOrStdout(), data)
		},
	}

	ff.register(cmd)
	return cmd
}

func newLedgerExportCommand(g *globalFlags) *cobra.Command {
	var (
		ff  filterFlags
		out string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write ledger entries as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lf, err := ff.filter()
			if err != nil {
				return err
			}
			a, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			w, done, err := output(cmd, out)
			if err != nil {
				return err
			}
			n, err := journal.NewService(a.store).Export(cmd.Context(), lf, w)
			if err != nil {
				_ = done()
				return err
			}
			if err := done(); err != nil {
				return err
			}
			if out != "" {
				printSuccess(cmd.OutOrStdout(), "Exported %d ledger entries to %s", n, out)
			}
			return nil
		},
	}

	ff.register(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

func newLedgerVerifyCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <file.csv>",
		Short: "Check that an exported ledger balances and names known accounts",
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

			problems, err := journal.NewService(a.store).Verify(cmd.Context(), f)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(problems) == 0 {
				printSuccess(out, "%s is consistent", args[0])
				return nil
			}
			for _, p := range problems {
				printWarning(out, "%s", p.Error())
			}
			return fmt.Errorf("%s has %d problems", args[0], len(problems))
		},
	}
}
