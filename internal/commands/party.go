package commands

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/books/internal/store"
)

func newPartyCommand(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "party",
		Short: "Inspect customers and suppliers",
	}
	cmd.AddCommand(newPartyShowCommand(g))
	return cmd
}

func newPartyShowCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Show a party's outstanding amount and submitted invoices",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			p, err := a.store.GetParty(ctx, args[0])
			if err != nil {
				return err
			}
			invoices, err := a.store.ListInvoices(ctx, store.InvoiceFilter{Party: p.Name, SubmittedOnly: true})
			if err != nil {
				return fmt.Errorf("listing invoices of %s: %w", p.Name, err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)\nOutstanding: %s\n", p.Name, p.Role, a.money.Format(p.OutstandingAmount))
			if len(invoices) == 0 {
				return nil
			}

			data := pterm.TableData{{"Invoice", "Date", "Grand Total", "Outstanding"}}
			for _, inv := range invoices {
				data = append(data, []string{
					string(inv.Schema) + " " + inv.Name,
					inv.Date.Format(dateFormat),
					a.money.Format(inv.GrandTotal),
					a.money.Format(inv.Outstanding()),
				})
			}
			return printTable(out, data)
		},
	}
}
