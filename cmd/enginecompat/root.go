package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arkilian/enginecompat/internal/config"
	"github.com/arkilian/enginecompat/internal/logger"
)

var (
	version = "dev"
	commit  = "none"
)

// errScenariosFailed is returned by run when any scenario did not pass. The
// report has already been printed.
var errScenariosFailed = errors.New("compatibility check failed")

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configFile string
	dataDir    string
	output     string
	logLevel   string
	logFormat  string
}

func execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errScenariosFailed) {
			return 2
		}
		output, _ := rootCmd.PersistentFlags().GetString("output")
		if output == "json" {
			_ = printJSON(os.Stdout, map[string]string{"error": err.Error()})
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "enginecompat",
		Short: "Cross-engine table compatibility checks",
		Long: "Runs scenarios that create, write, evolve and read one shared table from two\n" +
			"engines and reports where their results disagree.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOutputFormat(flags.output)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configFile, "config", "", "Path to configuration file (YAML or JSON)")
	pf.StringVar(&flags.dataDir, "data-dir", "", "Base directory for local databases and reports")
	pf.StringVarP(&flags.output, "output", "o", "table", "Output format (table, json)")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level (DEBUG, INFO, WARN, ERROR)")
	pf.StringVar(&flags.logFormat, "log-format", "", "Log format (CONSOLE, JSON)")

	rootCmd.AddCommand(newRunCmd(flags))
	rootCmd.AddCommand(newListCmd(flags))
	rootCmd.AddCommand(newReportsCmd(flags))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// loadConfig layers defaults, the config file, the environment and the
// command line flags, in that order.
func (f *globalFlags) loadConfig() (*config.Config, error) {
	var cfg *config.Config
	if f.configFile != "" {
		var err error
		cfg, err = config.LoadFromFile(f.configFile)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = config.DefaultConfig()
	}

	config.LoadFromEnv(cfg)

	if f.dataDir != "" {
		cfg.DataDir = f.dataDir
	}
	if f.logLevel != "" {
		cfg.Logging.Level = f.logLevel
	}
	if f.logFormat != "" {
		cfg.Logging.Format = f.logFormat
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *zap.Logger {
	return logger.New(cfg.Logging.Level, logger.ParseFormat(cfg.Logging.Format))
}

// getOutputFormat returns the effective output format from the root command's persistent flags.
func getOutputFormat(cmd *cobra.Command) string {
	v, _ := cmd.Root().PersistentFlags().GetString("output")
	return v
}

func validateOutputFormat(output string) error {
	if output != "" && output != "table" && output != "json" {
		return fmt.Errorf("unsupported output format %q: use 'table' or 'json'", output)
	}
	return nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
