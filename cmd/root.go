package cmd

import (
	"errors"
	"os"

	"github.com/muesli/termenv"
	"github.com/samsaffron/quest-buddy/internal/exitcode"
	"github.com/samsaffron/quest-buddy/internal/logging"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/quest-buddy/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: trace, debug, info, warn, error")
}

var rootCmd = &cobra.Command{
	Use:   "quest-buddy",
	Short: "Meta Quest support assistant for the terminal",
	Long: `quest-buddy answers Meta Quest headset questions, either with OpenAI
or with a small model served by a local inference server.

Examples:
  quest-buddy                          # open the chat
  quest-buddy ask "My controllers won't pair"
  quest-buddy settings                 # choose online/offline, set API key
  quest-buddy settings --mode local
  quest-buddy model load               # warm up the offline model
  quest-buddy topics --answers`,
	CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	SilenceUsage:      true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// One-shot commands log to stderr; chat re-points logging at its file.
		color := termenv.NewOutput(os.Stderr).EnvColorProfile() != termenv.Ascii
		logging.Setup(stderrLogLevel(), os.Stderr, color)
	},
	RunE: runChat,
}

// stderrLogLevel keeps one-shot output quiet unless asked otherwise.
func stderrLogLevel() string {
	if logLevel != "" {
		return logLevel
	}
	return "warn"
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var exitErr exitcode.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(exitcode.Error)
	}
}
