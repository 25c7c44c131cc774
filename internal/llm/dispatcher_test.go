package llm

import (
	"context"
	"net/http"
	"testing"

	"github.com/samsaffron/quest-buddy/internal/settings"
)

type stubBackend struct {
	name  string
	reply Response
	calls []string
}

func (s *stubBackend) Name() string { return s.name }

func (s *stubBackend) Generate(ctx context.Context, message string) Response {
	s.calls = append(s.calls, message)
	return s.reply
}

func TestDispatcher_RoutesByMode(t *testing.T) {
	ctx := context.Background()
	store := settings.NewMemoryStore()
	remote := &stubBackend{name: "remote", reply: Response{Text: "from remote"}}
	pipeline := NewMockPipeline().AddCompletion("second", " from local")
	local := NewLocalBackend(&MockLoader{Pipeline: pipeline}, "tinyllama")
	d := NewDispatcher(store, remote, local)

	if d.Mode(ctx) != settings.ModeRemote {
		t.Fatalf("default mode = %v, want remote", d.Mode(ctx))
	}
	if got := d.Generate(ctx, "first"); got.Text != "from remote" {
		t.Fatalf("first = %+v", got)
	}

	// Mode changes take effect on the next message without rebuilding anything.
	if err := settings.SetMode(ctx, store, settings.ModeLocal); err != nil {
		t.Fatalf("SetMode: %v", err)
	}
	if got := d.Generate(ctx, "second"); got.Text != "from local" {
		t.Fatalf("second = %+v", got)
	}
	if len(remote.calls) != 1 {
		t.Fatalf("remote calls = %d, want 1", len(remote.calls))
	}
	if d.LocalState() != StateReady {
		t.Fatalf("local state = %v", d.LocalState())
	}
}

func TestDispatcher_PassesErrorsThrough(t *testing.T) {
	ctx := context.Background()
	store := settings.NewMemoryStore()
	remote := &stubBackend{name: "remote", reply: failure(TextRemoteTrouble, ErrTransport)}
	d := NewDispatcher(store, remote, NewLocalBackend(&MockLoader{}, ""))

	got := d.Generate(ctx, "hi")
	if !got.Error || got.Text != TextRemoteTrouble || got.Err != ErrTransport {
		t.Fatalf("resp = %+v", got)
	}
}

func TestDispatcher_UnknownModeFallsBackToRemote(t *testing.T) {
	ctx := context.Background()
	store := settings.NewMemoryStore()
	if err := store.Set(ctx, settings.KeyMode, "quantum"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	remote := &stubBackend{name: "remote", reply: Response{Text: "ok"}}
	loader := &MockLoader{}
	d := NewDispatcher(store, remote, NewLocalBackend(loader, ""))

	if got := d.Generate(ctx, "hi"); got.Text != "ok" {
		t.Fatalf("resp = %+v", got)
	}
	if loader.Loads() != 0 {
		t.Fatalf("local model should not load in remote mode")
	}
}

func TestDispatcher_EnsureLocalLoadedInRemoteMode(t *testing.T) {
	loader := &MockLoader{Pipeline: NewMockPipeline()}
	d := NewDispatcher(settings.NewMemoryStore(), &stubBackend{}, NewLocalBackend(loader, ""))

	if !d.EnsureLocalLoaded(context.Background()) {
		t.Fatalf("EnsureLocalLoaded returned false")
	}
	if loader.Loads() != 1 {
		t.Fatalf("loads = %d", loader.Loads())
	}
}

// A fresh install with no key: the user gets the configuration hint and no
// request leaves the machine.
func TestDispatcher_FreshInstallNotConfigured(t *testing.T) {
	srv := newFakeCompletionServer(t, http.StatusOK, chatCompletionOK)
	store := settings.NewMemoryStore()
	remote := NewRemoteBackend(RemoteConfig{BaseURL: srv.URL + "/"}, store, nil)
	d := NewDispatcher(store, remote, NewLocalBackend(&MockLoader{}, ""))

	got := d.Generate(context.Background(), "How do I set up guardian?")
	if !got.Error || got.Text != TextNotConfigured {
		t.Fatalf("resp = %+v", got)
	}
	if srv.hits.Load() != 0 {
		t.Fatalf("server hits = %d, want 0", srv.hits.Load())
	}
}

func TestDispatcher_ModeSwitchKeepsKey(t *testing.T) {
	ctx := context.Background()
	srv := newFakeCompletionServer(t, http.StatusOK, chatCompletionOK)
	store := settings.NewMemoryStore()
	if err := settings.SetAPIKey(ctx, store, "sk-keep"); err != nil {
		t.Fatalf("SetAPIKey: %v", err)
	}
	remote := NewRemoteBackend(RemoteConfig{BaseURL: srv.URL + "/"}, store, nil)
	d := NewDispatcher(store, remote, NewLocalBackend(&MockLoader{Pipeline: NewMockPipeline()}, ""))

	_ = settings.SetMode(ctx, store, settings.ModeLocal)
	_ = settings.SetMode(ctx, store, settings.ModeRemote)

	got := d.Generate(ctx, "hello")
	if got.Error {
		t.Fatalf("resp = %+v", got)
	}
	if auth := srv.lastRequest(t).Auth; auth != "Bearer sk-keep" {
		t.Fatalf("Authorization = %q", auth)
	}
}
