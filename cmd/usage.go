package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samsaffron/quest-buddy/internal/ui"
	"github.com/samsaffron/quest-buddy/internal/usage"
	"github.com/spf13/cobra"
)

var usageDays int

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show token usage of online answers per day",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if usageDays <= 0 {
			return fmt.Errorf("--days must be positive")
		}
		since := time.Now().AddDate(0, 0, -(usageDays - 1))
		result := usage.LoadSince(usage.Dir(), since)
		for _, err := range result.Errors {
			log.Warn().Err(err).Msg("skipped usage file")
		}
		out := cmd.OutOrStdout()
		printUsage(out, ui.NewStyles(out), usage.SummarizeByDay(result.Entries))
		return nil
	},
}

func init() {
	usageCmd.Flags().IntVarP(&usageDays, "days", "d", 7, "Number of days to include")
	rootCmd.AddCommand(usageCmd)
}

func printUsage(w io.Writer, styles *ui.Styles, days []usage.DaySummary) {
	if len(days) == 0 {
		fmt.Fprintln(w, styles.Muted.Render("No usage recorded."))
		return
	}
	fmt.Fprintln(w, styles.Bold.Render(fmt.Sprintf("%-10s  %8s  %10s  %10s", "date", "messages", "input", "output")))
	var total usage.DaySummary
	for _, d := range days {
		fmt.Fprintf(w, "%-10s  %8d  %10d  %10d\n", d.Date, d.Messages, d.InputTokens, d.OutputTokens)
		total.Messages += d.Messages
		total.InputTokens += d.InputTokens
		total.OutputTokens += d.OutputTokens
	}
	fmt.Fprintf(w, "%-10s  %8d  %10d  %10d\n", "total", total.Messages, total.InputTokens, total.OutputTokens)
}
