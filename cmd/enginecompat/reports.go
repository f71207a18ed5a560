package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arkilian/enginecompat/internal/logger"
	"github.com/arkilian/enginecompat/internal/report"
	"github.com/arkilian/enginecompat/internal/storage"
)

func newReportsCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "List saved run reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openReports(cmd.Context(), flags)
			if err != nil {
				return err
			}
			runs, err := store.Runs(cmd.Context())
			if err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), runs)
			}
			return report.WriteRuns(cmd.OutOrStdout(), runs)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show <run-id>",
		Short: "Print one saved run report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openReports(cmd.Context(), flags)
			if err != nil {
				return err
			}
			rep, err := store.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printReport(cmd, rep)
		},
	})
	return cmd
}

func openReports(ctx context.Context, flags *globalFlags) (*report.Store, error) {
	cfg, err := flags.loadConfig()
	if err != nil {
		return nil, err
	}
	cfg.Resolve()
	if !cfg.Report.Enabled {
		return nil, fmt.Errorf("reports are disabled in the configuration")
	}
	s, err := storage.New(ctx, cfg.Report.Storage)
	if err != nil {
		return nil, err
	}
	return report.NewStore(s, newLogger(cfg).Named(logger.ComponentReport)), nil
}
