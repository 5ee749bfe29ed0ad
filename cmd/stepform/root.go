package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/dlovans/stepform/internal/config"
	"github.com/dlovans/stepform/internal/logging"
	"github.com/dlovans/stepform/pkg/formdoc"
	"github.com/dlovans/stepform/pkg/member"
	"github.com/dlovans/stepform/pkg/stepform"
)

// errValidationFailed signals that issues were already printed.
var errValidationFailed = errors.New("validation failed")

// app carries what every subcommand needs once the root pre-run is done.
type app struct {
	cfg    *config.Config
	logger *zap.Logger

	schemaPath string
	dbPath     string
	logLevel   string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "stepform",
		Short: "Stepped form validation engine",
		Long: `stepform runs multi-step create/edit forms: per-step validation gates,
cross-field confirmation rules and persistence of validated records.

Without --schema the built-in member (socio) form is used.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			_ = a.logger.Sync()
		},
	}

	root.PersistentFlags().StringVar(&a.schemaPath, "schema", "", "schema document (.json, .yaml, .toml)")
	root.PersistentFlags().StringVar(&a.dbPath, "db", "", "SQLite database path")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newStepsCmd(a),
		newValidateCmd(a),
		newLintCmd(a),
		newSubmitCmd(a),
		newListCmd(a),
		newConfigCmd(a),
	)
	return root
}

// setup loads configuration, applies flag overrides and builds the logger.
// Flags beat env vars, which beat config files.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("schema") {
		cfg.Schema = a.schemaPath
	}
	if flags.Changed("db") {
		cfg.DBPath = a.dbPath
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if a.verbose {
		cfg.LogLevel = "debug"
	}
	a.cfg = cfg

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	a.logger = logger
	return nil
}

// schema returns the configured schema, or the member form when none is set.
func (a *app) schema() (*stepform.Schema, error) {
	if a.cfg.Schema == "" {
		return member.Schema(), nil
	}
	s, err := formdoc.LoadSchema(a.cfg.Schema)
	if err != nil {
		return nil, fmt.Errorf("loading schema %s: %w", a.cfg.Schema, err)
	}
	return s, nil
}

// readRecord decodes a JSON or YAML record file into field values.
func readRecord(path string) (stepform.Values, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading record: %w", err)
	}
	values := stepform.Values{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	return values, nil
}

func parseModeFlag(s string) (stepform.Mode, error) {
	mode, err := stepform.ParseMode(s)
	if err != nil {
		return "", fmt.Errorf("--mode: %w", err)
	}
	return mode, nil
}
