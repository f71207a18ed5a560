package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arkilian/enginecompat/internal/app"
	"github.com/arkilian/enginecompat/internal/config"
	"github.com/arkilian/enginecompat/internal/logger"
	"github.com/arkilian/enginecompat/internal/report"
	"github.com/arkilian/enginecompat/internal/scenario"
	"github.com/arkilian/enginecompat/internal/suite"
)

func newRunCmd(flags *globalFlags) *cobra.Command {
	var (
		formats     []string
		filter      string
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the compatibility suite against both engines",
		Long: "Run the compatibility suite. The exit status is 0 when every scenario\n" +
			"passed and 2 when any scenario failed or errored.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			applyRunFlags(cmd, &cfg.Runner, formats, filter, concurrency)

			opts, err := suite.OptionsFromConfig(cfg.Runner)
			if err != nil {
				return err
			}
			scenarios := suite.All(opts)
			if len(scenarios) == 0 {
				return fmt.Errorf("no scenario matches filter %q", cfg.Runner.Filter)
			}

			log := newLogger(cfg)
			defer log.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runSuite(ctx, cmd, cfg, log, scenarios)
		},
	}

	cmd.Flags().StringSliceVar(&formats, "formats", nil, "Storage formats to cover (PARQUET, ORC, AVRO)")
	cmd.Flags().StringVar(&filter, "filter", "", "Only scenarios whose name contains this text")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Scenarios run in parallel")
	return cmd
}

func runSuite(ctx context.Context, cmd *cobra.Command, cfg *config.Config, log *zap.Logger, scenarios []scenario.Scenario) error {
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn("Failed to release resources", zap.Error(err))
		}
	}()

	rep, _, err := a.Run(ctx, scenarios)
	if rep != nil {
		if perr := printReport(cmd, rep); perr != nil {
			return perr
		}
	}
	if err != nil {
		log.Named(logger.ComponentCLI).Error("Failed to save report", zap.Error(err))
		return err
	}
	if !rep.OK() {
		return errScenariosFailed
	}
	return nil
}

func printReport(cmd *cobra.Command, rep *report.Report) error {
	if getOutputFormat(cmd) == "json" {
		return report.WriteJSON(cmd.OutOrStdout(), rep)
	}
	return report.WriteTable(cmd.OutOrStdout(), rep)
}

// applyRunFlags overrides runner settings with flags the user set.
func applyRunFlags(cmd *cobra.Command, r *config.RunnerConfig, formats []string, filter string, concurrency int) {
	if cmd.Flags().Changed("formats") {
		r.Formats = formats
	}
	if cmd.Flags().Changed("filter") {
		r.Filter = filter
	}
	if cmd.Flags().Changed("concurrency") {
		r.Concurrency = concurrency
	}
}

