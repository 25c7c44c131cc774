package cmd

import (
	"fmt"
	"io"

	"github.com/samsaffron/quest-buddy/internal/topics"
	"github.com/samsaffron/quest-buddy/internal/ui"
	"github.com/spf13/cobra"
)

var topicsAnswers bool

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "List common questions",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		printTopics(out, ui.NewStyles(out), topicsAnswers)
	},
}

func init() {
	topicsCmd.Flags().BoolVarP(&topicsAnswers, "answers", "a", false, "Include the canned answers")
	rootCmd.AddCommand(topicsCmd)
}

func printTopics(w io.Writer, styles *ui.Styles, answers bool) {
	for _, t := range topics.All() {
		fmt.Fprintf(w, "%s  %s\n", styles.Bold.Render(fmt.Sprintf("%-9s", t.ID)), t.Question)
		if answers {
			fmt.Fprintln(w)
			fmt.Fprintln(w, t.Response)
			fmt.Fprintln(w)
		}
	}
}
