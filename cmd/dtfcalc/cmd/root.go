// Package cmd provides the dtfcalc commands.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Simplici0/printdesk/internal/db"
	"github.com/Simplici0/printdesk/internal/logging"
	"github.com/Simplici0/printdesk/internal/migrations"
	"github.com/Simplici0/printdesk/internal/pricing"
	"github.com/Simplici0/printdesk/internal/store"
)

type rootOptions struct {
	verbose      bool
	configFile   string
	dbPath       string
	calculatorID string

	logger *zap.Logger
}

// NewRootCmd builds the dtfcalc command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "dtfcalc",
		Short: "Quote DTF print orders",
		Long: `dtfcalc prices DTF print orders with the same tier tables the print desk uses.

Price tables come from a JSON or TOML file (--config), a print desk database
(--db, --calculator) or the built-in DTF price list.

Examples:
  dtfcalc quote --format A4 --width 21 --height 29.7 --quantity 10
  dtfcalc quote --format A5 --width 10 --height 10 --quantity 200 --difficult --json
  dtfcalc formats
  dtfcalc import-legacy --db ./dev.db export.json`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := "warn"
			if opts.verbose {
				level = "debug"
			}
			opts.logger = logging.New(logging.Config{Level: level, Format: "console"})
		},
	}

	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose output")
	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "pricing configuration file (.json or .toml)")
	root.PersistentFlags().StringVar(&opts.dbPath, "db", "", "print desk SQLite database")
	root.PersistentFlags().StringVar(&opts.calculatorID, "calculator", pricing.DTFCalculatorID, "calculator ID in the database")

	root.AddCommand(newQuoteCmd(opts))
	root.AddCommand(newFormatsCmd(opts))
	root.AddCommand(newImportLegacyCmd(opts))
	return root
}

func (o *rootOptions) log() *zap.Logger {
	if o.logger == nil {
		return zap.NewNop()
	}
	return o.logger
}

// openStore opens and migrates the database named by --db.
func (o *rootOptions) openStore() (*store.Store, func(), error) {
	if o.dbPath == "" {
		return nil, nil, fmt.Errorf("--db is required")
	}
	database, err := db.Open(o.dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := migrations.Up(database); err != nil {
		_ = database.Close()
		return nil, nil, err
	}
	return store.New(database), func() { _ = database.Close() }, nil
}

// configuration resolves the price tables from --config, --db or the
// built-in DTF list, in that order.
func (o *rootOptions) configuration(ctx context.Context) (pricing.Configuration, error) {
	switch {
	case o.configFile != "":
		cfg, err := readConfigFile(o.configFile)
		if err != nil {
			return pricing.Configuration{}, err
		}
		if err := cfg.Validate(); err != nil {
			return pricing.Configuration{}, err
		}
		return cfg, nil

	case o.dbPath != "":
		st, closeDB, err := o.openStore()
		if err != nil {
			return pricing.Configuration{}, err
		}
		defer closeDB()
		return st.Calculators.Config(ctx, o.calculatorID)

	default:
		return pricing.DefaultDTF(), nil
	}
}

// readConfigFile decodes a pricing configuration. TOML documents use the same
// keys as JSON and are normalized through JSON so decimals decode alike.
func readConfigFile(path string) (pricing.Configuration, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return pricing.Configuration{}, fmt.Errorf("read config: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		var doc map[string]any
		if err := toml.Unmarshal(raw, &doc); err != nil {
			return pricing.Configuration{}, fmt.Errorf("decode config %s: %w", path, err)
		}
		if raw, err = json.Marshal(doc); err != nil {
			return pricing.Configuration{}, fmt.Errorf("normalize config %s: %w", path, err)
		}
	}

	var cfg pricing.Configuration
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return pricing.Configuration{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	return cfg, nil
}
