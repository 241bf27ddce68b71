package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/actionsum/focusgov/internal/config"
	"github.com/actionsum/focusgov/internal/daemon"
	"github.com/actionsum/focusgov/pkg/detector"
	"github.com/actionsum/focusgov/pkg/integrations/process"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show governor status",
	Long:  "Show whether a governor is running, the effective configuration, and whether the target process exists right now.",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	running, pid, err := daemon.New(cfg.Daemon.PIDFile).IsRunning()
	if err != nil {
		return err
	}
	if running {
		fmt.Fprintf(out, "Status: Running (PID: %d)\n", pid)
	} else {
		fmt.Fprintln(out, "Status: Not running")
	}

	transport := cfg.Transport.Kind
	if transport == detector.TransportAuto {
		transport = fmt.Sprintf("%s (auto)", detector.DetectTransport())
	}
	fmt.Fprintf(out, "Transport: %s\n\n", transport)
	fmt.Fprintln(out, cfg.String())

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	targetPID, found, err := process.NewFinder(process.NewSystemTable()).Find(ctx, cfg.Target.ProcessName)
	switch {
	case err != nil:
		fmt.Fprintf(out, "\nCould not look up %s: %v\n", cfg.Target.ProcessName, err)
	case found:
		fmt.Fprintf(out, "\nTarget process: %s (PID: %d)\n", cfg.Target.ProcessName, targetPID)
	default:
		fmt.Fprintf(out, "\nTarget process: %s not running\n", cfg.Target.ProcessName)
	}

	return nil
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
