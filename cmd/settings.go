package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/huh"
	"github.com/samsaffron/quest-buddy/internal/config"
	"github.com/samsaffron/quest-buddy/internal/settings"
	"github.com/samsaffron/quest-buddy/internal/ui"
	"github.com/spf13/cobra"
)

var (
	settingsMode     string
	settingsAPIKey   string
	settingsClearKey bool
	settingsShow     bool
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Choose how questions are answered and manage the API key",
	Long: `Without flags, opens the settings dialog.

Examples:
  quest-buddy settings
  quest-buddy settings --show
  quest-buddy settings --mode local
  quest-buddy settings --api-key '$(pass show openai)'
  quest-buddy settings --clear-key`,
	Args: cobra.NoArgs,
	RunE: runSettings,
}

func init() {
	settingsCmd.Flags().StringVar(&settingsMode, "mode", "", "Answering mode: remote or local")
	settingsCmd.Flags().StringVar(&settingsAPIKey, "api-key", "", "OpenAI API key (supports $VAR and $(command))")
	settingsCmd.Flags().BoolVar(&settingsClearKey, "clear-key", false, "Remove the stored API key")
	settingsCmd.Flags().BoolVar(&settingsShow, "show", false, "Print the current settings")
	settingsCmd.MarkFlagsMutuallyExclusive("api-key", "clear-key")
	rootCmd.AddCommand(settingsCmd)
}

func runSettings(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	styles := ui.NewStyles(out)

	if settingsShow {
		return showSettings(ctx, a, out)
	}

	if settingsMode != "" || settingsAPIKey != "" || settingsClearKey {
		choice, err := settingsFromFlags(ctx, a.store)
		if err != nil {
			return err
		}
		outcome, err := ui.ApplySettings(ctx, a.store, choice)
		if err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}
		ui.PrintSettingsOutcome(out, styles, outcome)
		return nil
	}

	current, err := settings.Load(ctx, a.store)
	if err != nil {
		return fmt.Errorf("failed to read settings: %w", err)
	}
	choice, err := ui.RunSettingsForm(current, a.dispatcher.LocalState().String())
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Fprintln(out, styles.Muted.Render("Settings unchanged."))
			return nil
		}
		return err
	}

	outcome, err := ui.ApplySettings(ctx, a.store, choice)
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	ui.PrintSettingsOutcome(out, styles, outcome)

	if choice.LoadModel {
		return loadModel(ctx, a, out, styles)
	}
	return nil
}

// settingsFromFlags builds a choice from command-line flags, starting from the
// stored mode so --api-key alone does not switch modes.
func settingsFromFlags(ctx context.Context, store settings.Store) (ui.SettingsChoice, error) {
	current, err := settings.Load(ctx, store)
	if err != nil {
		return ui.SettingsChoice{}, fmt.Errorf("failed to read settings: %w", err)
	}
	choice := ui.SettingsChoice{Mode: current.Mode, ClearKey: settingsClearKey}

	if settingsMode != "" {
		mode, err := settings.ParseModeStrict(settingsMode)
		if err != nil {
			return ui.SettingsChoice{}, err
		}
		choice.Mode = mode
	}

	if settingsAPIKey != "" {
		key, err := config.ResolveSecret(settingsAPIKey)
		if err != nil {
			return ui.SettingsChoice{}, fmt.Errorf("failed to resolve API key: %w", err)
		}
		if key == "" {
			return ui.SettingsChoice{}, settings.ErrEmptyAPIKey
		}
		choice.NewAPIKey = key
	}
	return choice, nil
}

func showSettings(ctx context.Context, a *app, w io.Writer) error {
	current, err := settings.Load(ctx, a.store)
	if err != nil {
		return fmt.Errorf("failed to read settings: %w", err)
	}
	fmt.Fprintf(w, "mode:         %s\n", current.Mode)
	fmt.Fprintf(w, "api key:      %s\n", settings.MaskAPIKey(current.APIKey))
	fmt.Fprintf(w, "remote model: %s\n", a.remote.Model())
	fmt.Fprintf(w, "local model:  %s (%s)\n", a.local.Model(), a.local.State())
	return nil
}
