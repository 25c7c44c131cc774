package ui

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/samsaffron/quest-buddy/internal/settings"
	"github.com/samsaffron/quest-buddy/internal/testutil"
)

func TestValidateKeyInput(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		hasKey  bool
		wantErr bool
	}{
		{"new key", "sk-abc", false, false},
		{"blank keeps existing", "", true, false},
		{"blank without key", "   ", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateKeyInput(tt.input, tt.hasKey)
			if (err != nil) != tt.wantErr {
				t.Fatalf("validateKeyInput(%q, %v) error = %v, wantErr %v", tt.input, tt.hasKey, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, settings.ErrEmptyAPIKey) {
				t.Fatalf("error = %v, want ErrEmptyAPIKey", err)
			}
		})
	}
}

func TestApplySettings_SaveKeyAndMode(t *testing.T) {
	ctx := context.Background()
	store := settings.NewMemoryStore()

	out, err := ApplySettings(ctx, store, SettingsChoice{Mode: settings.ModeRemote, NewAPIKey: "sk-new"})
	if err != nil {
		t.Fatalf("ApplySettings: %v", err)
	}
	if !out.KeySaved || out.KeyCleared {
		t.Fatalf("outcome = %+v", out)
	}
	got, _ := settings.Load(ctx, store)
	if got.APIKey != "sk-new" || got.Mode != settings.ModeRemote {
		t.Fatalf("stored = %+v", got)
	}
}

func TestApplySettings_LocalModeKeepsKey(t *testing.T) {
	ctx := context.Background()
	store := settings.NewMemoryStore()
	_ = settings.SetAPIKey(ctx, store, "sk-keep")

	if _, err := ApplySettings(ctx, store, SettingsChoice{Mode: settings.ModeLocal}); err != nil {
		t.Fatalf("ApplySettings: %v", err)
	}
	got, _ := settings.Load(ctx, store)
	if got.APIKey != "sk-keep" || got.Mode != settings.ModeLocal {
		t.Fatalf("stored = %+v", got)
	}
}

func TestApplySettings_ClearKey(t *testing.T) {
	ctx := context.Background()
	store := settings.NewMemoryStore()
	_ = settings.SetAPIKey(ctx, store, "sk-old")

	out, err := ApplySettings(ctx, store, SettingsChoice{Mode: settings.ModeRemote, ClearKey: true})
	if err != nil {
		t.Fatalf("ApplySettings: %v", err)
	}
	if !out.KeyCleared {
		t.Fatalf("outcome = %+v", out)
	}
	if settings.HasAPIKey(ctx, store) {
		t.Fatalf("key should be cleared")
	}
}

func TestPrintSettingsOutcome(t *testing.T) {
	var buf bytes.Buffer
	PrintSettingsOutcome(&buf, NewStyles(&buf), SettingsOutcome{Mode: settings.ModeLocal, KeyCleared: true})
	testutil.AssertContainsPlain(t, buf.String(), "Mode: Offline (local model)")
	testutil.AssertContainsPlain(t, buf.String(), "API key cleared")
	testutil.AssertNotContainsPlain(t, buf.String(), "API key saved")
}

func TestNewSettingsFormBuilds(t *testing.T) {
	var choice SettingsChoice
	form := NewSettingsForm(settings.Settings{APIKey: "sk-1234567890", Mode: settings.ModeLocal}, "ready", &choice)
	if form == nil {
		t.Fatalf("NewSettingsForm returned nil")
	}
	if choice.Mode != settings.ModeLocal {
		t.Fatalf("choice should start from current mode, got %q", choice.Mode)
	}
}
