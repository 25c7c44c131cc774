package cmd

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/samsaffron/quest-buddy/internal/config"
	"github.com/samsaffron/quest-buddy/internal/llm"
	"github.com/samsaffron/quest-buddy/internal/settings"
	"github.com/samsaffron/quest-buddy/internal/usage"
)

// app holds everything a command needs to answer questions.
type app struct {
	cfg        *config.Config
	store      settings.Store
	remote     *llm.RemoteBackend
	local      *llm.LocalBackend
	dispatcher *llm.Dispatcher
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func openSettings(cfg *config.Config) (*settings.SQLiteStore, error) {
	store, err := settings.OpenSQLite(settings.Config{Path: cfg.Settings.Path})
	if err != nil {
		return nil, fmt.Errorf("failed to open settings: %w", err)
	}
	return store, nil
}

// newApp wires config, the settings store and both backends.
func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	store, err := openSettings(cfg)
	if err != nil {
		return nil, err
	}
	return newAppWith(cfg, store), nil
}

func newAppWith(cfg *config.Config, store settings.Store) *app {
	var recorder llm.UsageRecorder
	if cfg.Usage.Enabled {
		recorder = usage.NewLogger()
	}

	remote := llm.NewRemoteBackend(llm.RemoteConfig{
		BaseURL: cfg.Remote.BaseURL,
		Model:   cfg.Remote.Model,
	}, store, recorder)

	local := llm.NewLocalBackend(&llm.CompatLoader{
		BaseURL: cfg.Local.BaseURL,
		APIKey:  cfg.Local.APIKey,
	}, cfg.Local.Model)

	log.Debug().
		Str("remote_model", remote.Model()).
		Str("local_model", local.Model()).
		Str("local_url", cfg.Local.BaseURL).
		Msg("backends configured")

	return &app{
		cfg:        cfg,
		store:      store,
		remote:     remote,
		local:      local,
		dispatcher: llm.NewDispatcher(store, remote, local),
	}
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close settings store")
	}
}
