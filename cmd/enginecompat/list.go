package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arkilian/enginecompat/internal/suite"
)

func newListCmd(flags *globalFlags) *cobra.Command {
	var (
		formats []string
		filter  string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the scenarios a run would execute",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			applyRunFlags(cmd, &cfg.Runner, formats, filter, 0)

			opts, err := suite.OptionsFromConfig(cfg.Runner)
			if err != nil {
				return err
			}
			names := suite.Names(suite.All(opts))

			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), names)
			}
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&formats, "formats", nil, "Storage formats to cover (PARQUET, ORC, AVRO)")
	cmd.Flags().StringVar(&filter, "filter", "", "Only scenarios whose name contains this text")
	return cmd
}
