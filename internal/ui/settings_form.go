package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/samsaffron/quest-buddy/internal/settings"
)

// SettingsChoice is what the user picked in the settings form.
type SettingsChoice struct {
	Mode      settings.Mode
	NewAPIKey string // empty keeps the stored key
	ClearKey  bool
	LoadModel bool
}

// SettingsOutcome reports what ApplySettings changed.
type SettingsOutcome struct {
	Mode       settings.Mode
	KeySaved   bool
	KeyCleared bool
}

// NewSettingsForm builds the settings dialog bound to choice. current is the
// stored state; the form starts from it.
func NewSettingsForm(current settings.Settings, modelState string, choice *SettingsChoice) *huh.Form {
	choice.Mode = current.Mode

	keyDescription := "You can get an API key from https://platform.openai.com/api-keys"
	if current.HasAPIKey() {
		keyDescription = fmt.Sprintf("Current key: %s. Leave blank to keep it.", settings.MaskAPIKey(current.APIKey))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[settings.Mode]().
				Title("How should the assistant answer questions?").
				Options(
					huh.NewOption(settings.ModeRemote.Label(), settings.ModeRemote),
					huh.NewOption(settings.ModeLocal.Label(), settings.ModeLocal),
				).
				Value(&choice.Mode),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("OpenAI API key").
				Description(keyDescription).
				Placeholder("sk-...").
				EchoMode(huh.EchoModePassword).
				Value(&choice.NewAPIKey).
				Validate(func(s string) error {
					return validateKeyInput(s, current.HasAPIKey())
				}),
		).WithHideFunc(func() bool {
			return choice.Mode != settings.ModeRemote
		}),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Clear the stored key?").
				Affirmative("Clear").
				Negative("Keep").
				Value(&choice.ClearKey),
		).WithHideFunc(func() bool {
			return choice.Mode != settings.ModeRemote || !current.HasAPIKey() || strings.TrimSpace(choice.NewAPIKey) != ""
		}),
		huh.NewGroup(
			huh.NewNote().
				Title("Offline mode").
				Description("Answers come from a small model served by a local inference server (Ollama by default). "+
					"Loading may take a while the first time.\n\nModel status: "+modelState),
			huh.NewConfirm().
				Title("Load the offline model now?").
				Value(&choice.LoadModel),
		).WithHideFunc(func() bool {
			return choice.Mode != settings.ModeLocal
		}),
	)
}

func validateKeyInput(input string, hasKey bool) error {
	if strings.TrimSpace(input) != "" || hasKey {
		return nil
	}
	return settings.ErrEmptyAPIKey
}

// RunSettingsForm shows the settings dialog on the controlling terminal.
func RunSettingsForm(current settings.Settings, modelState string) (SettingsChoice, error) {
	var choice SettingsChoice
	form := NewSettingsForm(current, modelState, &choice)

	if tty, err := getTTY(); err == nil {
		defer tty.Close()
		form = form.WithInput(tty).WithOutput(tty)
	}

	if err := form.Run(); err != nil {
		return SettingsChoice{}, err
	}
	choice.NewAPIKey = strings.TrimSpace(choice.NewAPIKey)
	return choice, nil
}

// ApplySettings persists choice. The mode is written first so it takes effect
// on the next message even if saving the key fails.
func ApplySettings(ctx context.Context, store settings.Store, choice SettingsChoice) (SettingsOutcome, error) {
	out := SettingsOutcome{Mode: settings.ParseMode(string(choice.Mode))}
	if err := settings.SetMode(ctx, store, out.Mode); err != nil {
		return out, err
	}

	switch {
	case choice.NewAPIKey != "":
		if err := settings.SetAPIKey(ctx, store, choice.NewAPIKey); err != nil {
			return out, err
		}
		out.KeySaved = true
	case choice.ClearKey:
		if err := settings.ClearAPIKey(ctx, store); err != nil {
			return out, err
		}
		out.KeyCleared = true
	}
	return out, nil
}

// PrintSettingsOutcome writes a short confirmation for each applied change.
func PrintSettingsOutcome(w io.Writer, s *Styles, out SettingsOutcome) {
	fmt.Fprintln(w, s.FormatResult(true, "Mode: "+out.Mode.Label()))
	if out.KeySaved {
		fmt.Fprintln(w, s.FormatResult(true, "API key saved successfully"))
	}
	if out.KeyCleared {
		fmt.Fprintln(w, s.FormatResult(true, "API key cleared"))
	}
}

// getTTY opens the controlling terminal so forms work even when stdout is redirected.
func getTTY() (*os.File, error) {
	return os.OpenFile("/dev/tty", os.O_RDWR, 0)
}
