package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "focusgov",
	Short: "CPU governor driven by window focus",
	Long: `focusgov caps the CPU of a background process whenever its window is not
focused, and lifts the cap as soon as it is. All tuning is done through
FOCUSGOV_* environment variables.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runGovernor,
}

func Execute() error {
	return rootCmd.Execute()
}
