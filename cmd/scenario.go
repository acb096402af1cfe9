package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kilianp07/ridesim/infra/logger"
	"github.com/kilianp07/ridesim/pkg/export"
	"github.com/kilianp07/ridesim/qa/scenarios"
)

var exportPath string

var scenarioCmd = &cobra.Command{
	Use:   "scenario <file.yaml>",
	Short: "Run a scripted simulation headless and check its expectations",
	Args:  cobra.ExactArgs(1),
	RunE:  runScenario,
}

func init() {
	scenarioCmd.Flags().StringVarP(&exportPath, "export", "o", "", "write the request history to a .csv or .json file")
	rootCmd.AddCommand(scenarioCmd)
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := scenarios.Load(args[0])
	if err != nil {
		return fmt.Errorf("load scenario: %w", err)
	}
	res, err := scenarios.Run(sc, logger.New("scenario"))
	if err != nil {
		return err
	}
	printResult(cmd.OutOrStdout(), res)
	if exportPath != "" {
		if err := writeExport(exportPath, res); err != nil {
			return fmt.Errorf("export: %w", err)
		}
	}
	return res.Check(sc.Expected)
}

func printResult(w io.Writer, res *scenarios.Result) {
	fmt.Fprintf(w, "scenario: %s\n", res.Name)
	fmt.Fprintf(w, "ticks: %d\n", res.Tick)
	fmt.Fprintf(w, "requests: total=%d completed=%d failed=%d waiting=%d assigned=%d\n",
		res.Stats.TotalRequests, res.Counts.Completed, res.Counts.Failed, res.Counts.Waiting, res.Counts.Assigned)
	fmt.Fprintf(w, "average eta: %.2f\n", res.Stats.AverageETA)
	fmt.Fprintf(w, "drivers: %d (trips mean=%.2f stddev=%.2f gini=%.3f)\n",
		res.Fairness.Drivers, res.Fairness.MeanTrips, res.Fairness.StdDevTrips, res.Fairness.GiniTrips)
}

func writeExport(path string, res *scenarios.Result) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return export.Write(f, path, res.Requests)
}
