package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/bft-labs/gpwatch/internal/domain"
	"github.com/bft-labs/gpwatch/internal/growth"
	"github.com/bft-labs/gpwatch/internal/plate"
)

func newInspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>",
		Short: "Show how an export evaluates, without writing anything",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			extractor, err := plate.NewExtractor(plate.DefaultLayout())
			if err != nil {
				return err
			}
			info, samples, err := extractor.ExtractFile(args[0])
			if err != nil {
				return err
			}
			return writeInspection(cmd.OutOrStdout(), info, samples)
		},
	}
}

func writeInspection(w io.Writer, info domain.PlateInfo, samples []domain.GrowthSample) error {
	results, err := growth.Evaluate(info, samples)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Plate:      %s\n", info.PlateID)
	fmt.Fprintf(w, "Type:       %s\n", info.PlateType)
	fmt.Fprintf(w, "Layout:     %d rows x %d columns (%d wells)\n", info.NumRows, info.NumColumns, info.Wells())
	fmt.Fprintf(w, "Threshold:  %s wells above %s\n", formatCount(growth.Threshold(info)), formatCount(growth.MinGrowth))
	fmt.Fprintf(w, "Samples:    %d\n\n", len(samples))

	rows := make([][]string, 0, len(results))
	for _, r := range results {
		mark := ""
		if r.Qualifies {
			mark = "yes"
		}
		rows = append(rows, []string{r.Time, strconv.Itoa(r.Grown), mark})
	}
	fmt.Fprintln(w, renderTable(
		[]string{"Time", "Grown", "Qualifies"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignLeft},
	))
	fmt.Fprintln(w)

	for _, mode := range []growth.Mode{growth.ModeScanEarliest, growth.ModeLastOnly} {
		trigger, ok, err := growth.FindTriggerTime(info, samples, mode)
		if err != nil {
			return err
		}
		if !ok {
			trigger = "no trigger"
		}
		fmt.Fprintf(w, "%-14s %s\n", mode.String()+":", trigger)
	}
	return nil
}

func formatCount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
