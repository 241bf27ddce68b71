package cli

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/actionsum/focusgov/internal/config"
	"github.com/actionsum/focusgov/internal/daemon"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running governor",
	Long:  "Send SIGTERM to the running governor. It releases the throttling helper before exiting.",
	Args:  cobra.NoArgs,
	RunE:  runStop,
}

func runStop(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	pid, err := daemon.New(cfg.Daemon.PIDFile).Stop()
	if errors.Is(err, daemon.ErrNotRunning) {
		fmt.Fprintln(out, "Governor is not running")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Sent SIGTERM to governor (PID: %d)\n", pid)
	return nil
}

func init() {
	rootCmd.AddCommand(stopCmd)
}
