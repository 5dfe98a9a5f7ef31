package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/books/internal/apperrors"
	"github.com/cleared-dev/books/internal/model"
	"github.com/cleared-dev/books/internal/series"
)

func newSeriesCommand(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "series",
		Short: "Manage document number series",
	}
	cmd.AddCommand(newSeriesNextCommand(g))
	cmd.AddCommand(newSeriesSetCommand(g))
	return cmd
}

func newSeriesNextCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "next <type>",
		Short: "Take the next name from a document type's series",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := parseSchema(args[0])
			if err != nil {
				return err
			}
			a, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			name, err := series.NewService(a.store, a.logger).NextFor(cmd.Context(), schema)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), name)
			return err
		},
	}
}

func newSeriesSetCommand(g *globalFlags) *cobra.Command {
	var (
		start, padZeros, current int
		refType                  string
	)

	cmd := &cobra.Command{
		Use:   "set <prefix>",
		Short: "Create or change a number series",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			ns := model.NumberSeries{
				Name:          args[0],
				Start:         series.DefaultStart,
				PadZeros:      series.DefaultPadZeros,
				ReferenceType: refType,
			}
			old, err := a.store.GetSeries(ctx, args[0])
			switch {
			case errors.Is(err, apperrors.ErrNotFound):
			case err != nil:
				return err
			default:
				ns = *old
			}

			fl := cmd.Flags()
			if fl.Changed("start") {
				ns.Start = start
			}
			if fl.Changed("pad-zeros") {
				ns.PadZeros = padZeros
			}
			if fl.Changed("reference-type") {
				ns.ReferenceType = refType
			}
			if fl.Changed("current") {
				ns.Current = &current
			}

			if err := series.NewService(a.store, a.logger).Save(ctx, ns); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Saved series %s", ns.Name)
			return nil
		},
	}

	fl := cmd.Flags()
	fl.IntVar(&start, "start", series.DefaultStart, "first counter value")
	fl.IntVar(&padZeros, "pad-zeros", series.DefaultPadZeros, "counter width")
	fl.IntVar(&current, "current", 0, "last counter value handed out")
	fl.StringVar(&refType, "reference-type", "", "document type the series names")
	return cmd
}
