package main

import (
	"fmt"
	"os"

	"stride_backend/internal/config"
	"stride_backend/internal/scheduler"

	"github.com/spf13/cobra"
)

var (
	output    string
	configDir string
	asOf      string
)

var rootCmd = &cobra.Command{
	Use:   "strideplan",
	Short: "Offline runner for the Stride savings planner",
	Long: `strideplan loads a scenario (goal, calendar, commitments, energy log, profile)
from YAML and runs the same planning pipeline the API uses.

Commands:
  plan     Build the week-by-week plan
  assess   Report energy debt and comeback detection only

Examples:
  strideplan plan -f scenario.yaml
  strideplan assess -f scenario.yaml -o json`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "Output format (table, json, yaml)")
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "Directory holding config.yaml; scheduler settings are read from it")
	rootCmd.PersistentFlags().StringVar(&asOf, "as-of", "", "Override the scenario as_of date (yyyy-mm-dd)")
}

// loadSettings 没有指定配置目录时使用内置默认值
func loadSettings() (scheduler.Settings, error) {
	if configDir == "" {
		return scheduler.DefaultSettings(), nil
	}
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return scheduler.Settings{}, fmt.Errorf("load config: %w", err)
	}
	return cfg.Scheduler.Settings(), nil
}
