package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
	"github.com/samsaffron/quest-buddy/internal/logging"
	"github.com/samsaffron/quest-buddy/internal/tui/chat"
	"github.com/samsaffron/quest-buddy/internal/ui"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start the interactive support chat",
	Long: `Start the interactive support chat.

Keyboard shortcuts:
  Enter            - Send message
  Ctrl+J/Alt+Enter - Insert newline
  Alt+1..Alt+3     - Ask a suggested question
  Esc              - Stop waiting for a reply
  Ctrl+C           - Quit

Slash commands:
  /help            - Show help
  /clear           - Start over
  /mode [mode]     - Show or switch remote/local answering
  /load            - Load the offline model now
  /topic [query]   - Ask a common question
  /quit            - Exit chat`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	// The TUI owns the terminal; logs go to a file.
	logFile, err := logging.OpenFile(a.cfg.LogFile())
	if err != nil {
		return err
	}
	defer logFile.Close()
	level := a.cfg.Log.Level
	if logLevel != "" {
		level = logLevel
	}
	logging.Setup(level, logFile, false)
	log.Info().Str("mode", string(a.dispatcher.Mode(ctx))).Msg("chat started")

	model := chat.New(ctx, chat.Options{
		Assistant: a.dispatcher,
		Store:     a.store,
		Styles:    ui.NewStyles(os.Stdout),
	})

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !isContextDone(ctx) {
		return fmt.Errorf("failed to run chat: %w", err)
	}
	return nil
}

func isContextDone(ctx context.Context) bool {
	return ctx.Err() != nil
}
