package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/prenatal-assay-engine/internal/service"
)

var cutoffFlag = &cli.FloatFlag{
	Name:  "cutoff",
	Usage: "Risk cut-off denominator; posterior risks of 1 in N or higher are HIGH (optional, overrides screening.risk_cutoff)",
}

type screenInput struct {
	Records []*service.ScreeningRequest `json:"records" yaml:"records"`
}

func (a *app) screenCommand() *cli.Command {
	return &cli.Command{
		Name:   "screen",
		Usage:  "Compute T21 screening risk for a batch of patient records",
		Flags:  []cli.Flag{inputFlag, cutoffFlag},
		Action: a.screen,
	}
}

func (a *app) screen(ctx context.Context, cmd *cli.Command) error {
	var in screenInput
	if err := readInput(cmd.String(inputFlag.Name), &in); err != nil {
		return err
	}
	if len(in.Records) == 0 {
		return fmt.Errorf("input %s contains no records", cmd.String(inputFlag.Name))
	}

	opts := service.ScreeningOptionsFromConfig(a.cfg.Screening)
	if cmd.IsSet(cutoffFlag.Name) {
		if opts.RiskCutoff = cmd.Float(cutoffFlag.Name); opts.RiskCutoff <= 0 {
			return fmt.Errorf("cutoff must be positive: %g", opts.RiskCutoff)
		}
	}
	svc := service.NewScreeningService(a.logger, a.reference, opts, a.collector)

	outcomes, summary, runErr := service.RunBatch(ctx, a.newBatchRunner(), in.Records, svc.Screen)
	if err := a.writeOutput(cmd, batchOutput[service.ScreeningResult]{
		ReferenceVersion: a.reference.Version(),
		Records:          outcomes,
		Summary:          summary,
	}); err != nil {
		return err
	}
	a.logCounters()
	return runErr
}
