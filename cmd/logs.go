package cmd

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	apidispatch "github.com/kilianp07/ridesim/api/dispatch"
	"github.com/kilianp07/ridesim/config"
	"github.com/kilianp07/ridesim/core/dispatch/logging"
)

var logFilters struct {
	start, end, driver, request, kind, limit string
}

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Print decision log records as JSON lines",
	RunE:  printLogs,
}

func init() {
	f := logsCmd.Flags()
	f.StringVar(&logFilters.start, "start", "", "RFC3339 lower bound")
	f.StringVar(&logFilters.end, "end", "", "RFC3339 upper bound")
	f.StringVar(&logFilters.driver, "driver", "", "driver id, e.g. \"Driver 2\" or 2")
	f.StringVar(&logFilters.request, "request", "", "request id")
	f.StringVar(&logFilters.kind, "kind", "", "assigned, completed or failed")
	f.StringVar(&logFilters.limit, "limit", "", "keep only the last N records")
	rootCmd.AddCommand(logsCmd)
}

func printLogs(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	v := url.Values{}
	for k, s := range map[string]string{
		"start":      logFilters.start,
		"end":        logFilters.end,
		"driver_id":  logFilters.driver,
		"request_id": logFilters.request,
		"kind":       logFilters.kind,
		"limit":      logFilters.limit,
	} {
		if s != "" {
			v.Set(k, s)
		}
	}
	q, err := apidispatch.ParseLogQuery(v)
	if err != nil {
		return err
	}
	store, err := logging.Open(cfg.Logging.Options())
	if err != nil {
		return fmt.Errorf("open decision log: %w", err)
	}
	defer store.Close()

	recs, err := store.Query(cmd.Context(), q)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	for _, r := range recs {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	if m, ok := store.(interface{ Malformed() uint64 }); ok && m.Malformed() > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: skipped %d undecodable lines in %s\n", m.Malformed(), cfg.Logging.Path)
	}
	return nil
}
