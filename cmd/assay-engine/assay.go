package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/prenatal-assay-engine/internal/service"
)

var (
	lookupFlag = &cli.StringFlag{
		Name:  "lookup",
		Usage: "Sample lookup policy [nearest, interpolate, exact] (optional, overrides assay.lookup_policy)",
	}

	toleranceFlag = &cli.FloatFlag{
		Name:  "tolerance",
		Usage: "Lookup tolerance in seconds (optional, overrides assay.tolerance)",
	}

	factorFlag = &cli.FloatFlag{
		Name:  "factor",
		Usage: "Multiplier applied to every result (optional, overrides assay.factor)",
	}
)

type assayInput struct {
	Records []*service.AssayRequest `json:"records" yaml:"records"`
}

func (a *app) assayCommand() *cli.Command {
	return &cli.Command{
		Name:   "assay",
		Usage:  "Correct absorbance traces and compute assay results for a batch of records",
		Flags:  []cli.Flag{inputFlag, lookupFlag, toleranceFlag, factorFlag},
		Action: a.assay,
	}
}

func (a *app) assay(ctx context.Context, cmd *cli.Command) error {
	var in assayInput
	if err := readInput(cmd.String(inputFlag.Name), &in); err != nil {
		return err
	}
	if len(in.Records) == 0 {
		return fmt.Errorf("input %s contains no records", cmd.String(inputFlag.Name))
	}

	assayCfg := a.cfg.Assay
	if cmd.IsSet(lookupFlag.Name) {
		assayCfg.LookupPolicy = cmd.String(lookupFlag.Name)
	}
	if cmd.IsSet(toleranceFlag.Name) {
		assayCfg.Tolerance = cmd.Float(toleranceFlag.Name)
	}
	if cmd.IsSet(factorFlag.Name) {
		assayCfg.Factor = cmd.Float(factorFlag.Name)
	}
	opts, err := service.AssayOptionsFromConfig(assayCfg)
	if err != nil {
		return err
	}
	svc := service.NewAssayService(a.logger, opts, a.collector)

	outcomes, summary, runErr := service.RunBatch(ctx, a.newBatchRunner(), in.Records, svc.Run)
	if err := a.writeOutput(cmd, batchOutput[service.AssayReport]{
		Records: outcomes,
		Summary: summary,
	}); err != nil {
		return err
	}
	a.logCounters()
	return runErr
}
