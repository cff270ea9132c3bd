package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/grovetools/sensorsession/cli"
	"github.com/grovetools/sensorsession/config"
	"github.com/grovetools/sensorsession/internal/pidfile"
	"github.com/grovetools/sensorsession/internal/serialprobe"
	"github.com/grovetools/sensorsession/internal/supervisor"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// runFlags are the command-line overrides of the session configuration.
type runFlags struct {
	baseDir     string
	gracePeriod time.Duration
	killWait    time.Duration
	noElevate   bool
	noProbe     bool
}

func NewRunCmd() *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Record one session",
		Long: `Create a session directory, start the radar and belt loggers inside it,
and wait for the operator to press Enter once the subject is seated.

After the belt startup window the belt logger is checked. If it has
exited with a non-zero status the radar logger is stopped, the session
directory is deleted, and the command exits with status 1. Otherwise the
session runs until both loggers exit (status 0) or until Ctrl+C (status 1).`,
		Example: `  # Record with sensorsession.yml from the current directory
  sensorsession run

  # Write sessions under /data and allow the belt 15 seconds to start
  sensorsession run --base-dir /data --grace-period 15s`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := cli.GetOptions(cmd)
			logger := cli.GetLogger(cmd, "sensorsession")

			cfg, err := loadConfig(opts.ConfigFile, logger.Logger)
			if err != nil {
				return err
			}
			applyRunFlags(cmd, &flags, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}

			pidPath := cfg.Session.PIDFile
			if !filepath.IsAbs(pidPath) {
				pidPath = filepath.Join(cfg.Session.BaseDir, pidPath)
			}
			if err := pidfile.Acquire(pidPath); err != nil {
				return err
			}
			defer func() {
				if err := pidfile.Release(pidPath); err != nil {
					logger.WithError(err).Warn("Failed to release pid file")
				}
			}()

			if !term.IsTerminal(int(os.Stdin.Fd())) {
				logger.Info("stdin is not a terminal; the first input line or EOF sets the marker")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			supOpts := supervisor.Options{
				Config:  cfg,
				Stdin:   cmd.InOrStdin(),
				Printer: cli.NewConsolePrinter(cmd.OutOrStdout()),
				Logger:  logger,
			}
			if !flags.noProbe {
				supOpts.Prober = serialprobe.New()
			}

			res, runErr := supervisor.New(supOpts).Run(ctx)
			if opts.JSONOutput && res != nil {
				if data, err := json.MarshalIndent(newRunSummary(res, runErr), "", "  "); err == nil {
					fmt.Fprintln(cmd.OutOrStdout(), string(data))
				}
			}
			return runErr
		},
	}

	cmd.Flags().StringVar(&flags.baseDir, "base-dir", "", "Directory that receives session folders")
	cmd.Flags().DurationVar(&flags.gracePeriod, "grace-period", config.DefaultGracePeriod, "Belt startup window")
	cmd.Flags().DurationVar(&flags.killWait, "kill-wait", config.DefaultKillWait, "Wait for loggers after SIGTERM")
	cmd.Flags().BoolVar(&flags.noElevate, "no-elevate", false, "Run the belt logger without the elevate command")
	cmd.Flags().BoolVar(&flags.noProbe, "no-probe", false, "Skip the radar serial port check")

	return cmd
}

// applyRunFlags overrides cfg with the flags the user actually set.
func applyRunFlags(cmd *cobra.Command, flags *runFlags, cfg *config.Config) {
	if cmd.Flags().Changed("base-dir") {
		cfg.Session.BaseDir = flags.baseDir
	}
	if cmd.Flags().Changed("grace-period") {
		cfg.Session.GracePeriod = config.Duration(flags.gracePeriod)
	}
	if cmd.Flags().Changed("kill-wait") {
		cfg.Session.KillWait = config.Duration(flags.killWait)
	}
	if flags.noElevate {
		cfg.Belt.Elevate = false
	}
}

type childSummary struct {
	Name     string `json:"name"`
	PID      int    `json:"pid"`
	Command  string `json:"command"`
	Exited   bool   `json:"exited"`
	ExitCode int    `json:"exit_code"`
}

type runSummary struct {
	State          string         `json:"state"`
	SessionID      string         `json:"session_id,omitempty"`
	Dir            string         `json:"dir,omitempty"`
	HumanEnterUnix int64          `json:"human_enter_unix,omitempty"`
	Children       []childSummary `json:"children"`
	MissingOutputs []string       `json:"missing_outputs,omitempty"`
	Error          string         `json:"error,omitempty"`
}

func newRunSummary(res *supervisor.Result, err error) runSummary {
	s := runSummary{
		State:          res.State.String(),
		SessionID:      res.SessionID,
		Dir:            res.Dir,
		Children:       []childSummary{},
		MissingOutputs: res.MissingOutputs,
	}
	if !res.MarkedAt.IsZero() {
		s.HumanEnterUnix = res.MarkedAt.Unix()
	}
	for _, c := range res.Children {
		s.Children = append(s.Children, childSummary(c))
	}
	if err != nil {
		s.Error = err.Error()
	}
	return s
}
