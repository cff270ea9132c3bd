package cmd

import (
	"os"

	"github.com/grovetools/sensorsession/cli"
	"github.com/grovetools/sensorsession/config"
	"github.com/grovetools/sensorsession/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewRootCmd assembles the sensorsession command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := cli.NewStandardCommand(
		"sensorsession",
		"Supervise a radar and belt breathing-measurement session",
	)

	rootCmd.AddCommand(NewRunCmd())
	rootCmd.AddCommand(NewConfigCmd())
	rootCmd.AddCommand(NewPortsCmd())
	rootCmd.AddCommand(cli.NewVersionCommand("sensorsession"))

	return rootCmd
}

// loadConfig loads the file named by --config, or discovers one from the
// working directory.
func loadConfig(path string, logger *logrus.Logger) (*config.Config, error) {
	if path != "" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, errors.ConfigNotFound(path)
		}
		return config.Load(path)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return config.LoadFromWithLogger(cwd, logger)
}
