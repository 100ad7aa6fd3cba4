package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/prenatal-assay-engine/internal/config"
	"github.com/prenatal-assay-engine/internal/domain"
	"github.com/prenatal-assay-engine/internal/logging"
	"github.com/prenatal-assay-engine/internal/metrics"
	"github.com/prenatal-assay-engine/internal/reference"
	"github.com/prenatal-assay-engine/internal/service"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

var (
	configFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to the YAML configuration file (optional, searches ./config.yaml and ./config/config.yaml)",
		Sources: cli.EnvVars(config.EnvPrefix + "_CONFIG"),
	}

	envFileFlag = &cli.StringFlag{
		Name:  "env-file",
		Usage: "Path to a .env file loaded before configuration (optional, default: .env if present)",
	}

	debugFlag = &cli.BoolFlag{
		Name:  "debug",
		Usage: "Prints verbose logs (optional, default: false)",
	}

	formatFlag = &cli.StringFlag{
		Name:  "format",
		Usage: "Output format [json, yaml]",
		Value: formatJSON,
	}

	outputFlag = &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Write results to this file instead of stdout",
	}

	workersFlag = &cli.IntFlag{
		Name:  "workers",
		Usage: "Number of records scored concurrently (optional, overrides batch.workers)",
	}

	failFastFlag = &cli.BoolFlag{
		Name:  "fail-fast",
		Usage: "Abort the batch on the first failing record",
	}

	inputFlag = &cli.StringFlag{
		Name:     "input",
		Aliases:  []string{"i"},
		Usage:    "Batch input file (YAML or JSON), - for stdin",
		Required: true,
	}
)

// app holds the components shared by all subcommands once Before has run.
type app struct {
	out       io.Writer
	cfg       *domain.Config
	logger    *logrus.Logger
	reference *reference.Data
	collector *metrics.Collector
}

// batchOutput is the document written after a batch.
type batchOutput[T any] struct {
	ReferenceVersion string               `json:"reference_version,omitempty" yaml:"reference_version,omitempty"`
	Records          []service.Outcome[T] `json:"records" yaml:"records"`
	Summary          service.BatchSummary `json:"summary" yaml:"summary"`
}

func newApp(out io.Writer) *cli.Command {
	a := &app{out: out}
	return &cli.Command{
		Name:    "assay-engine",
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
		Usage:   "Batch T21 screening risk and photometric assay calculations",
		Writer:  out,
		Flags: []cli.Flag{
			configFlag,
			envFileFlag,
			debugFlag,
			formatFlag,
			outputFlag,
			workersFlag,
			failFastFlag,
		},
		Commands: []*cli.Command{
			a.screenCommand(),
			a.assayCommand(),
		},
		Before: a.before,
	}
}

func (a *app) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if err := loadEnvFile(cmd.String(envFileFlag.Name)); err != nil {
		return ctx, err
	}

	manager, err := config.NewManager(cmd.String(configFlag.Name))
	if err != nil {
		return ctx, err
	}
	cfg := manager.GetConfig()

	if cmd.Bool(debugFlag.Name) {
		cfg.Logging.Level = "debug"
	}
	if w := cmd.Int(workersFlag.Name); w > 0 {
		cfg.Batch.Workers = w
	}
	if cmd.IsSet(failFastFlag.Name) {
		cfg.Batch.FailFast = cmd.Bool(failFastFlag.Name)
	}
	switch f := cmd.String(formatFlag.Name); f {
	case formatJSON, formatYAML, "yml":
	default:
		return ctx, fmt.Errorf("invalid output format: %s", f)
	}

	if err := manager.Validate(); err != nil {
		return ctx, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return ctx, err
	}

	ref, err := reference.New(cfg.Reference)
	if err != nil {
		return ctx, fmt.Errorf("loading reference data: %w", err)
	}

	a.cfg = cfg
	a.logger = logger
	a.reference = ref
	a.collector = metrics.NewCollector()

	logger.WithFields(logrus.Fields{
		"reference_version": ref.Version(),
		"workers":           cfg.Batch.Workers,
		"fail_fast":         cfg.Batch.FailFast,
	}).Debug("Configuration loaded")

	return ctx, nil
}

func loadEnvFile(path string) error {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("loading env file %s: %w", path, err)
		}
		return nil
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}
	return nil
}

// readInput decodes a YAML or JSON batch file into v.
func readInput(path string, v any) error {
	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	if err := yaml.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decoding input %s: %w", path, err)
	}
	return nil
}

// writeOutput encodes v in the selected format to the output file or stdout.
func (a *app) writeOutput(cmd *cli.Command, v any) error {
	w := a.out
	if path := cmd.String(outputFlag.Name); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch cmd.String(formatFlag.Name) {
	case formatYAML, "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encoding yaml output: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encoding json output: %w", err)
		}
		return nil
	}
}

// logCounters logs every computation counter collected during the run.
func (a *app) logCounters() {
	counters, err := a.collector.Counters()
	if err != nil {
		a.logger.WithError(err).Warn("Failed to gather metrics")
		return
	}
	for _, c := range counters {
		fields := logrus.Fields{"metric": c.Name, "value": c.Value}
		for k, v := range c.Labels {
			fields[k] = v
		}
		a.logger.WithFields(fields).Info("Computation counter")
	}
}

func (a *app) newBatchRunner() *service.BatchRunner {
	return service.NewBatchRunner(a.logger, a.cfg.Batch)
}
