package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cleared-dev/books/internal/config"
	"github.com/cleared-dev/books/internal/lifecycle"
	"github.com/cleared-dev/books/internal/logging"
	"github.com/cleared-dev/books/internal/money"
	"github.com/cleared-dev/books/internal/store/sqlite"
)

// app is everything a command needs once the books directory is open.
type app struct {
	cfg       *config.Config
	store     *sqlite.Store
	logger    *zap.Logger
	money     *money.Formatter
	lifecycle *lifecycle.Service
}

func (g *globalFlags) configPath() string {
	if g.config != "" {
		return g.config
	}
	return filepath.Join(g.dir, config.FileName)
}

// dbPath resolves the database path of cfg against the books directory.
func (g *globalFlags) dbPath(cfg *config.Config) string {
	if filepath.IsAbs(cfg.Database.Path) {
		return cfg.Database.Path
	}
	return filepath.Join(g.dir, cfg.Database.Path)
}

func (g *globalFlags) newLogger(cmd *cobra.Command, cfg *config.Config) (*zap.Logger, error) {
	level, format := cfg.Log.Level, cfg.Log.Format
	if g.logLevel != "" {
		level = g.logLevel
	}
	if g.logFormat != "" {
		format = g.logFormat
	}
	return logging.NewWithWriter(level, format, cmd.ErrOrStderr())
}

// open resolves the configuration and opens the store it names.
func (g *globalFlags) open(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Resolve(g.configPath())
	if err != nil {
		return nil, err
	}
	logger, err := g.newLogger(cmd, cfg)
	if err != nil {
		return nil, err
	}

	st, err := sqlite.Open(g.dbPath(cfg))
	if err != nil {
		return nil, fmt.Errorf("opening books: %w", err)
	}

	f := money.NewFormatter(cfg.Defaults.Locale, cfg.Defaults.Currency)
	return &app{
		cfg:    cfg,
		store:  st,
		logger: logger,
		money:  f,
		lifecycle: lifecycle.NewService(st, cfg.Settings(),
			lifecycle.WithLogger(logger), lifecycle.WithFormatter(f)),
	}, nil
}

func (a *app) close() {
	_ = a.logger.Sync()
	_ = a.store.Close()
}
