package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bft-labs/gpwatch"
	"github.com/bft-labs/gpwatch/internal/cliconfig"
)

func newProcessCommand(opts *commandOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "process <file>...",
		Short: "Run the pipeline once over the given exports",
		Long: "Run the pipeline once over each export, in order. A file that fails is " +
			"reported and skipped; the command still exits 0.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.cfg.Target = args[0]
			cfg, log, err := opts.load(cmd, true)
			if err != nil {
				return err
			}
			if _, err := cliconfig.ResolveTarget(&cfg); err != nil {
				return err
			}
			logConfiguration(log, cfg)

			pipeline, err := gpwatch.NewPipeline(cfg, gpwatch.WithLogger(newPortLogger(log)))
			if err != nil {
				return err
			}

			unlock, err := gpwatch.LockOutput(cfg.OutputDir)
			if err != nil {
				return err
			}
			defer func() {
				if err := unlock(); err != nil {
					log.Warn().Err(err).Msg("failed to release lock")
				}
			}()

			outcomes := make([]gpwatch.Outcome, 0, len(args))
			for _, path := range args {
				outcomes = append(outcomes, pipeline.Process(cmd.Context(), path))
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderOutcomes(outcomes))
			return nil
		},
	}
}

func renderOutcomes(outcomes []gpwatch.Outcome) string {
	rows := make([][]string, 0, len(outcomes))
	for _, o := range outcomes {
		detail := o.WorklistPath
		if o.Err != nil {
			detail = o.Kind() + ": " + o.Err.Error()
		}
		rows = append(rows, []string{
			filepath.Base(o.Path),
			o.Plate.PlateID,
			o.Stage.String(),
			o.TriggerTime,
			detail,
		})
	}
	return renderTable(
		[]string{"File", "Plate", "Result", "Trigger", "Worklist"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	)
}
