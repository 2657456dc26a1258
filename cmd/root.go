// Package cmd wires the scenario-generation tools into a Cobra CLI: closed
// loop simulation, loss evaluation, trajectory plotting, and synthetic scene
// generation.
package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	logLevel   string
	configPath string
	seed       int64
)

// rootCmd is the base command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "scenariogen",
	Short: "Multi-agent traffic scenario generation",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		logrus.SetLevel(level)
		return nil
	},
}

// Execute runs the CLI root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (defaults used when empty)")
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", 42, "Seed for model init and rollout sampling")
}
