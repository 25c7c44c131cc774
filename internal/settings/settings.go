package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Keys under which settings are persisted. The names match the keys used by
// the browser widget so an exported store can be read back unchanged.
const (
	KeyAPIKey = "openai_api_key"
	KeyMode   = "ai_mode"
)

// Mode selects which backend answers a message.
type Mode string

const (
	ModeRemote Mode = "remote"
	ModeLocal  Mode = "local"
)

// DefaultMode is used whenever no valid mode has been persisted.
const DefaultMode = ModeRemote

// ErrEmptyAPIKey is returned when saving a blank credential.
var ErrEmptyAPIKey = errors.New("please enter a valid API key")

// ParseMode maps a persisted value onto a Mode. Legacy widget values
// ("openai", "online", "offline") are accepted; anything else is remote.
func ParseMode(raw string) Mode {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "local", "offline":
		return ModeLocal
	case "remote", "openai", "online":
		return ModeRemote
	default:
		return DefaultMode
	}
}

// ParseModeStrict is ParseMode for user input: unknown values are an error
// instead of silently falling back.
func ParseModeStrict(raw string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "local", "offline":
		return ModeLocal, nil
	case "remote", "openai", "online":
		return ModeRemote, nil
	default:
		return "", fmt.Errorf("unknown mode %q (want remote or local)", raw)
	}
}

func (m Mode) String() string {
	return string(m)
}

// Label is the human-facing name shown in the settings dialog and status bar.
func (m Mode) Label() string {
	if m == ModeLocal {
		return "Offline (local model)"
	}
	return "Online (OpenAI)"
}

// Settings is the typed view over the persisted values.
type Settings struct {
	APIKey string
	Mode   Mode
}

// HasAPIKey reports whether a credential is configured.
func (s Settings) HasAPIKey() bool {
	return s.APIKey != ""
}

// Load reads all settings from the store. The mode is validated on read.
func Load(ctx context.Context, store Store) (Settings, error) {
	key, _, err := store.Get(ctx, KeyAPIKey)
	if err != nil {
		return Settings{}, fmt.Errorf("read %s: %w", KeyAPIKey, err)
	}
	mode, _, err := store.Get(ctx, KeyMode)
	if err != nil {
		return Settings{}, fmt.Errorf("read %s: %w", KeyMode, err)
	}
	return Settings{APIKey: key, Mode: ParseMode(mode)}, nil
}

// Save writes all settings. An empty APIKey clears the stored credential.
func Save(ctx context.Context, store Store, s Settings) error {
	if err := SetMode(ctx, store, s.Mode); err != nil {
		return err
	}
	if strings.TrimSpace(s.APIKey) == "" {
		return ClearAPIKey(ctx, store)
	}
	return SetAPIKey(ctx, store, s.APIKey)
}

// CurrentMode returns the persisted mode, falling back to DefaultMode on
// missing or unrecognized values.
func CurrentMode(ctx context.Context, store Store) (Mode, error) {
	raw, _, err := store.Get(ctx, KeyMode)
	if err != nil {
		return DefaultMode, err
	}
	return ParseMode(raw), nil
}

// SetMode persists the mode. Invalid modes are stored as the default.
func SetMode(ctx context.Context, store Store, mode Mode) error {
	if err := store.Set(ctx, KeyMode, ParseMode(string(mode)).String()); err != nil {
		return fmt.Errorf("write %s: %w", KeyMode, err)
	}
	return nil
}

// APIKey returns the stored credential, or "" when absent.
func APIKey(ctx context.Context, store Store) (string, error) {
	key, ok, err := store.Get(ctx, KeyAPIKey)
	if err != nil || !ok {
		return "", err
	}
	return key, nil
}

// SetAPIKey stores a trimmed credential.
func SetAPIKey(ctx context.Context, store Store, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrEmptyAPIKey
	}
	if err := store.Set(ctx, KeyAPIKey, key); err != nil {
		return fmt.Errorf("write %s: %w", KeyAPIKey, err)
	}
	return nil
}

// ClearAPIKey removes the stored credential.
func ClearAPIKey(ctx context.Context, store Store) error {
	if err := store.Clear(ctx, KeyAPIKey); err != nil {
		return fmt.Errorf("clear %s: %w", KeyAPIKey, err)
	}
	return nil
}

// HasAPIKey reports whether a credential is stored. Read errors count as absent.
func HasAPIKey(ctx context.Context, store Store) bool {
	key, err := APIKey(ctx, store)
	return err == nil && key != ""
}

// MaskAPIKey renders a credential for display without revealing it.
func MaskAPIKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:3] + strings.Repeat("*", 8) + key[len(key)-4:]
}
