package main

import (
	"os"

	"github.com/grovetools/sensorsession/cli"
	"github.com/grovetools/sensorsession/cmd"
	"github.com/grovetools/sensorsession/errors"
)

func main() {
	rootCmd := cmd.NewRootCmd()

	executed, err := rootCmd.ExecuteC()
	if err != nil {
		if errors.GetCode(err) == "" {
			// Usage and flag errors.
			cli.PrintError(executed, err)
		} else {
			verbose, _ := rootCmd.PersistentFlags().GetBool("verbose")
			cli.NewErrorHandler(verbose, os.Stderr).Handle(err)
		}
		os.Exit(1)
	}
}
