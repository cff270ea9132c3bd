package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/grovetools/sensorsession/cli"
	"github.com/grovetools/sensorsession/internal/serialprobe"
	"github.com/spf13/cobra"
)

func NewPortsCmd() *cobra.Command {
	return newPortsCmd(serialprobe.New())
}

func newPortsCmd(prober *serialprobe.Prober) *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List detected serial ports",
		Long: `List the serial ports visible to the radar logger. Useful to find
the value for radar.serial_port when the radar is not on /dev/ttyUSB0.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ports, err := prober.Ports()
			if err != nil {
				return fmt.Errorf("failed to enumerate serial ports: %w", err)
			}

			out := cmd.OutOrStdout()
			if cli.GetOptions(cmd).JSONOutput {
				if ports == nil {
					ports = []string{}
				}
				data, err := json.MarshalIndent(ports, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
				return nil
			}

			if len(ports) == 0 {
				fmt.Fprintln(out, "No serial ports found")
				return nil
			}
			for _, p := range ports {
				fmt.Fprintln(out, p)
			}
			return nil
		},
	}
}
