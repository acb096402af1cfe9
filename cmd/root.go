package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/ridesim/app"
	"github.com/kilianp07/ridesim/config"
	"github.com/kilianp07/ridesim/infra/logger"
)

var (
	cfgPath string
	serve   serveFlags
)

// serveFlags override the loaded configuration for a single run.
type serveFlags struct {
	addr     string
	autoTick bool
	tickMS   int
	logLevel string
	logsDB   string
}

var rootCmd = &cobra.Command{
	Use:   "ridesim",
	Short: "Grid ride-hailing dispatch simulation service",
	RunE:  run,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (defaults and K_ environment when empty)")
	addServeFlags(rootCmd, &serve)
}

func addServeFlags(cmd *cobra.Command, f *serveFlags) {
	fl := cmd.Flags()
	fl.StringVar(&f.addr, "addr", "", "HTTP listen address, e.g. :8000")
	fl.BoolVar(&f.autoTick, "auto-tick", false, "advance the simulation on a timer")
	fl.IntVar(&f.tickMS, "tick-interval", 0, "auto tick interval in milliseconds")
	fl.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error")
	fl.StringVar(&f.logsDB, "decision-log", "", "enable the decision log at this path")
}

// applyServeFlags copies the flags the user set onto cfg and revalidates it.
func applyServeFlags(cmd *cobra.Command, f *serveFlags, cfg *config.Config) error {
	fl := cmd.Flags()
	if fl.Changed("addr") {
		cfg.HTTP.Addr = f.addr
	}
	if fl.Changed("auto-tick") {
		cfg.Simulation.AutoTick = f.autoTick
	}
	if fl.Changed("tick-interval") {
		cfg.Simulation.TickIntervalMS = f.tickMS
	}
	if fl.Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if fl.Changed("decision-log") {
		cfg.Logging.Enabled = true
		cfg.Logging.Path = f.logsDB
	}
	return cfg.Validate()
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := applyServeFlags(cmd, &serve, cfg); err != nil {
		return err
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	return svc.Run(ctx)
}
