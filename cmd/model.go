package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/samsaffron/quest-buddy/internal/exitcode"
	"github.com/samsaffron/quest-buddy/internal/ui"
	"github.com/spf13/cobra"
)

var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Manage the offline model",
}

var modelLoadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load the offline model so the first local answer is fast",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()
		out := cmd.OutOrStdout()
		return loadModel(cmd.Context(), a, out, ui.NewStyles(out))
	},
}

func init() {
	modelCmd.AddCommand(modelLoadCmd)
	rootCmd.AddCommand(modelCmd)
}

// loadModel warms up the local backend and reports the outcome.
func loadModel(ctx context.Context, a *app, w io.Writer, styles *ui.Styles) error {
	fmt.Fprintln(w, styles.Muted.Render(fmt.Sprintf("Loading %s...", a.local.Model())))
	if !a.dispatcher.EnsureLocalLoaded(ctx) {
		msg := "Failed to load the offline model"
		if err := a.local.LastError(); err != nil {
			msg = fmt.Sprintf("%s: %v", msg, err)
		}
		fmt.Fprintln(w, styles.FormatResult(false, msg))
		return exitcode.Failed("model load failed")
	}
	fmt.Fprintln(w, styles.FormatResult(true, "Offline model ready"))
	return nil
}
