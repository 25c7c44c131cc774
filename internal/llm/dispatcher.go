package llm

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/samsaffron/quest-buddy/internal/settings"
)

// LocalLoader is the part of the local backend the settings dialog drives.
type LocalLoader interface {
	Backend
	EnsureLoaded(ctx context.Context) bool
	State() LoadState
}

// Dispatcher routes each message to the backend selected by the persisted mode.
type Dispatcher struct {
	store  settings.Store
	remote Backend
	local  LocalLoader
}

func NewDispatcher(store settings.Store, remote Backend, local LocalLoader) *Dispatcher {
	return &Dispatcher{
		store:  store,
		remote: remote,
		local:  local,
	}
}

// Mode reads the current mode. It is never cached.
func (d *Dispatcher) Mode(ctx context.Context) settings.Mode {
	mode, err := settings.CurrentMode(ctx, d.store)
	if err != nil {
		log.Warn().Err(err).Msg("failed to read mode from settings, using default")
	}
	return mode
}

// Backend returns the backend the current mode selects.
func (d *Dispatcher) Backend(ctx context.Context) Backend {
	if d.Mode(ctx) == settings.ModeLocal {
		return d.local
	}
	return d.remote
}

// Generate answers message. The backend's response is passed through unchanged.
func (d *Dispatcher) Generate(ctx context.Context, message string) Response {
	backend := d.Backend(ctx)
	log.Debug().Str("backend", backend.Name()).Str("message", preview(message, 60)).Msg("dispatching message")

	resp := backend.Generate(ctx, message)
	if resp.Error {
		log.Info().Str("backend", backend.Name()).Str("kind", Kind(resp.Err)).Msg("message answered with error response")
	}
	return resp
}

// EnsureLocalLoaded loads the local model regardless of the current mode.
func (d *Dispatcher) EnsureLocalLoaded(ctx context.Context) bool {
	return d.local.EnsureLoaded(ctx)
}

// LocalState reports the local pipeline lifecycle state.
func (d *Dispatcher) LocalState() LoadState {
	return d.local.State()
}

// Settings exposes the store the dispatcher reads its mode from.
func (d *Dispatcher) Settings() settings.Store {
	return d.store
}
