// Package config reads and writes books.yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/books/internal/accounts"
	"github.com/cleared-dev/books/internal/apperrors"
	"github.com/cleared-dev/books/internal/posting"
)

// FileName is the name of the configuration file inside a books directory.
const FileName = "books.yaml"

// EnvPrefix prefixes environment variables that override the file, e.g.
// BOOKS_LOG_LEVEL.
const EnvPrefix = "BOOKS"

// Config represents the top-level books.yaml configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`
	Defaults DefaultsConfig `yaml:"defaults" mapstructure:"defaults"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
	Accounts AccountsConfig `yaml:"accounts" mapstructure:"accounts"`
}

// DatabaseConfig locates the document store.
type DatabaseConfig struct {
	Path string `yaml:"path" mapstructure:"path" validate:"required"`
}

// DefaultsConfig holds presentation defaults.
type DefaultsConfig struct {
	Currency string `yaml:"currency" mapstructure:"currency" validate:"required,len=3,uppercase"`
	Locale   string `yaml:"locale" mapstructure:"locale" validate:"required,bcp47_language_tag"`
}

// LogConfig controls logging output.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" mapstructure:"format" validate:"oneof=console json"`
}

// AccountsConfig names the accounts postings fall back on.
type AccountsConfig struct {
	WriteOff string `yaml:"write_off_account" mapstructure:"write_off_account"`
	RoundOff string `yaml:"round_off_account" mapstructure:"round_off_account"`
}

// Settings returns the posting settings described by the configuration.
func (c *Config) Settings() posting.Settings {
	return posting.Settings{
		WriteOffAccount: c.Accounts.WriteOff,
		RoundOffAccount: c.Accounts.RoundOff,
	}
}

// Load reads a books.yaml file from disk and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Resolve loads path, if it exists, and overlays BOOKS_* environment
// variables on top of it. A missing file leaves the defaults in place.
func Resolve(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Env overrides only reach keys viper knows about.
	for key, val := range defaultKeys(Default()) {
		v.SetDefault(key, val)
	}

	if err := v.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func defaultKeys(cfg *Config) map[string]string {
	return map[string]string{
		"database.path":              cfg.Database.Path,
		"defaults.currency":          cfg.Defaults.Currency,
		"defaults.locale":            cfg.Defaults.Locale,
		"log.level":                  cfg.Log.Level,
		"log.format":                 cfg.Log.Format,
		"accounts.write_off_account": cfg.Accounts.WriteOff,
		"accounts.round_off_account": cfg.Accounts.RoundOff,
	}
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new books directory.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path: "books.db",
		},
		Defaults: DefaultsConfig{
			Currency: "USD",
			Locale:   "en-US",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Accounts: AccountsConfig{
			WriteOff: accounts.WriteOff,
			RoundOff: accounts.RoundOff,
		},
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks every field and reports all problems at once.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	errs := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "Config.")
		errs = append(errs, apperrors.Validation(field, "%s", describe(fe)))
	}
	return errors.Join(errs...)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %q", fe.Param(), fe.Value())
	case "len":
		return fmt.Sprintf("must be %s characters long, got %q", fe.Param(), fe.Value())
	case "uppercase":
		return fmt.Sprintf("must be upper case, got %q", fe.Value())
	case "bcp47_language_tag":
		return fmt.Sprintf("is not a BCP 47 language tag: %q", fe.Value())
	}
	return fmt.Sprintf("failed %s check", fe.Tag())
}
