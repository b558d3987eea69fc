package main

import (
	"fmt"

	"github.com/jamesainslie/parbench/pkg/parbench/config"
	"github.com/jamesainslie/parbench/pkg/parbench/logging"
	"github.com/spf13/cobra"
)

var (
	cfgFile string

	// settings merges defaults, the config file, PARBENCH_* variables and
	// bound flags.
	settings = config.New()

	rootCmd = &cobra.Command{
		Use:   "parbench",
		Short: "Benchmark parallel work distribution",
		Long: `parbench runs a CPU-bound workload on a fixed pool of worker goroutines
and reports wall time, CPU time and memory around the run, with samples at
configurable progress checkpoints.

Examples:
  parbench run                          # 1000x1000 matrix multiply, one worker per core
  parbench run -w 8 -m streaming        # pull one row at a time
  parbench run -s 2000 --verify -o json # check the product, JSON report
  parbench run --workload image --input ./photos --out-dir ./gray
  parbench config init                  # write a commented config file`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/parbench/config.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug output on stderr")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "only print the report")

	_ = settings.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = settings.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads the config file named by --config, or the default one.
func loadConfig() (*config.Config, error) {
	return config.Load(settings, cfgFile)
}

// initLogging starts the logging system for a command. -v and -q adjust
// the console level on top of the configured one.
func initLogging(cfg *config.Config, cmd *cobra.Command) error {
	lc := cfg.LoggingConfig()
	lc.Console = cmd.ErrOrStderr()
	switch {
	case getQuiet():
		lc.ConsoleLevel = "error"
	case getVerbose():
		lc.ConsoleLevel = "debug"
		if lc.Components == nil {
			lc.Components = map[string]string{}
		}
		for _, c := range []string{"cli", "harness", "pool", "probe", "progress", "workload"} {
			lc.Components[c] = "debug"
		}
	}
	return logging.Init(lc)
}

func getVerbose() bool {
	return settings.GetBool("verbose")
}

func getQuiet() bool {
	return settings.GetBool("quiet")
}

// printInfo writes a status line to stderr unless quiet mode is enabled.
func printInfo(cmd *cobra.Command, format string, args ...interface{}) {
	if !getQuiet() {
		fmt.Fprintf(cmd.ErrOrStderr(), format+"\n", args...)
	}
}

// printWarning writes a warning to stderr even in quiet mode.
func printWarning(cmd *cobra.Command, format string, args ...interface{}) {
	fmt.Fprintf(cmd.ErrOrStderr(), "Warning: "+format+"\n", args...)
}
