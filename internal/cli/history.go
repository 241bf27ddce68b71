package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/actionsum/focusgov/internal/database"
	"github.com/actionsum/focusgov/internal/reporter"
)

var (
	historyJSON  bool
	historyClear bool
)

var historyCmd = &cobra.Command{
	Use:       "history [day|week|month]",
	Short:     "Report past throttling sessions",
	Long:      "Summarise the session journal for the current day, week or month. Requires FOCUSGOV_HISTORY_ENABLED on the governor.",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"day", "today", "week", "month"},
	RunE:      runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	period := "day"
	if len(args) > 0 {
		period = args[0]
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	path, err := cfg.HistoryPath()
	if err != nil {
		return err
	}
	if !exists(path) {
		fmt.Fprintf(out, "No history recorded yet (%s does not exist)\n", path)
		return nil
	}

	db, err := database.Connect(path)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Initialize(); err != nil {
		return err
	}

	repo := database.NewRepository(db)
	if historyClear {
		if err := repo.Clear(); err != nil {
			return err
		}
		fmt.Fprintln(out, "History cleared")
		return nil
	}

	rep := reporter.New(repo)
	report, err := rep.GenerateReport(period)
	if err != nil {
		return err
	}

	if historyJSON {
		data, err := rep.FormatReportJSON(report)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, data)
		return nil
	}

	fmt.Fprint(out, rep.FormatReportText(report))
	return nil
}

func init() {
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "print the report as JSON")
	historyCmd.Flags().BoolVar(&historyClear, "clear", false, "delete all recorded sessions and anomalies")
	rootCmd.AddCommand(historyCmd)
}
