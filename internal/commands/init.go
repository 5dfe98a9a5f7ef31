package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/books/internal/accounts"
	"github.com/cleared-dev/books/internal/config"
	"github.com/cleared-dev/books/internal/series"
	"github.com/cleared-dev/books/internal/store/sqlite"
)

func newInitCommand(g *globalFlags) *cobra.Command {
	var currency, locale string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a books directory with the default chart and number series",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				g.dir = args[0]
			}

			absDir, err := filepath.Abs(g.dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			g.dir = absDir

			return runInit(cmd.Context(), cmd.OutOrStdout(), g, currency, locale)
		},
	}

	cmd.Flags().StringVar(&currency, "currency", "", "default currency code (default USD)")
	cmd.Flags().StringVar(&locale, "locale", "", "locale used to format amounts (default en-US)")

	return cmd
}

func runInit(ctx context.Context, out io.Writer, g *globalFlags, currency, locale string) error {
	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", g.dir, err)
	}

	// Write books.yaml unless one is already there.
	path := g.configPath()
	cfg, err := config.Load(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		cfg = config.Default()
		if currency != "" {
			cfg.Defaults.Currency = currency
		}
		if locale != "" {
			cfg.Defaults.Locale = locale
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := config.Save(path, cfg); err != nil {
			return err
		}
	case err != nil:
		return err
	default:
		printWarning(out, "Keeping existing %s", path)
	}

	st, err := sqlite.Open(g.dbPath(cfg))
	if err != nil {
		return fmt.Errorf("creating database: %w", err)
	}
	defer st.Close()

	seeded, err := accounts.Seed(ctx, st, accounts.DefaultChart())
	if err != nil {
		return fmt.Errorf("seeding chart of accounts: %w", err)
	}
	created, err := series.NewService(st, nil).Ensure(ctx)
	if err != nil {
		return fmt.Errorf("creating number series: %w", err)
	}

	printSuccess(out, "Initialized books at %s (%d accounts, %d number series)", g.dir, seeded, created)
	return nil
}
