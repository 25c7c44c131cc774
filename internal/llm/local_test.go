package llm

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestExtractCompletion(t *testing.T) {
	tests := []struct {
		name      string
		generated string
		want      string
	}{
		{
			name:      "text after delimiter",
			generated: BuildLocalPrompt("hi") + " Hello there! ",
			want:      "Hello there!",
		},
		{
			name:      "last delimiter wins",
			generated: "User: a\n\nAssistant: first\nUser: b\nAssistant: second",
			want:      "second",
		},
		{
			name:      "no delimiter",
			generated: "just some text",
			want:      TextNoAnswer,
		},
		{
			name:      "nothing after delimiter",
			generated: "User: hi\n\nAssistant:   \n",
			want:      TextNoAnswer,
		},
		{
			name:      "empty",
			generated: "",
			want:      TextNoAnswer,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractCompletion(tt.generated); got != tt.want {
				t.Fatalf("ExtractCompletion() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildLocalPrompt(t *testing.T) {
	prompt := BuildLocalPrompt("My battery drains fast")
	if !strings.HasPrefix(prompt, LocalSystemPrompt) {
		t.Fatalf("prompt should start with the system context: %q", prompt)
	}
	if !strings.Contains(prompt, "User: My battery drains fast") {
		t.Fatalf("prompt missing user turn: %q", prompt)
	}
	if !strings.HasSuffix(prompt, LocalDelimiter) {
		t.Fatalf("prompt should end with %q: %q", LocalDelimiter, prompt)
	}
}

func TestEnsureLoaded_Idempotent(t *testing.T) {
	loader := &MockLoader{Pipeline: NewMockPipeline()}
	backend := NewLocalBackend(loader, "")
	ctx := context.Background()

	if backend.State() != StateUninitialized {
		t.Fatalf("initial state = %v", backend.State())
	}
	if !backend.EnsureLoaded(ctx) {
		t.Fatalf("first EnsureLoaded returned false")
	}
	if !backend.EnsureLoaded(ctx) {
		t.Fatalf("second EnsureLoaded returned false")
	}
	if got := loader.Loads(); got != 1 {
		t.Fatalf("loads = %d, want 1", got)
	}
	if backend.State() != StateReady {
		t.Fatalf("state = %v, want ready", backend.State())
	}
	if models := loader.Models(); len(models) != 1 || models[0] != DefaultLocalModel {
		t.Fatalf("models = %v", models)
	}
}

func TestEnsureLoaded_ConcurrentCallsShareOneLoad(t *testing.T) {
	release := make(chan struct{})
	loader := &MockLoader{Pipeline: NewMockPipeline(), Release: release}
	backend := NewLocalBackend(loader, "tinyllama")

	const callers = 8
	results := make([]bool, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = backend.EnsureLoaded(context.Background())
		}(i)
	}

	// Let every caller reach the in-flight load before it completes.
	deadline := time.Now().Add(2 * time.Second)
	for loader.Loads() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(50 * time.Millisecond)
	if backend.State() != StateLoading {
		t.Fatalf("state during load = %v, want loading", backend.State())
	}
	close(release)
	wg.Wait()

	for i, ok := range results {
		if !ok {
			t.Fatalf("caller %d got false", i)
		}
	}
	if got := loader.Loads(); got != 1 {
		t.Fatalf("loads = %d, want 1", got)
	}
}

func TestEnsureLoaded_FailureIsRetried(t *testing.T) {
	loader := &MockLoader{Pipeline: NewMockPipeline(), FailN: 1}
	backend := NewLocalBackend(loader, "tinyllama")
	ctx := context.Background()

	if backend.EnsureLoaded(ctx) {
		t.Fatalf("first EnsureLoaded should fail")
	}
	if backend.State() != StateFailed {
		t.Fatalf("state = %v, want failed", backend.State())
	}
	if !errors.Is(backend.LastError(), ErrLoad) {
		t.Fatalf("LastError = %v, want ErrLoad", backend.LastError())
	}

	if !backend.EnsureLoaded(ctx) {
		t.Fatalf("second EnsureLoaded should succeed")
	}
	if backend.LastError() != nil {
		t.Fatalf("LastError after success = %v", backend.LastError())
	}
	if got := loader.Loads(); got != 2 {
		t.Fatalf("loads = %d, want 2", got)
	}
}

func TestEnsureLoaded_CallerCancelDoesNotAbortLoad(t *testing.T) {
	release := make(chan struct{})
	loader := &MockLoader{Pipeline: NewMockPipeline(), Release: release}
	backend := NewLocalBackend(loader, "tinyllama")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan bool)
	go func() { done <- backend.EnsureLoaded(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for loader.Loads() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	if <-done {
		t.Fatalf("cancelled caller should get false")
	}

	close(release)
	if !backend.EnsureLoaded(context.Background()) {
		t.Fatalf("EnsureLoaded after cancel should succeed")
	}
	if got := loader.Loads(); got != 1 {
		t.Fatalf("loads = %d, want 1", got)
	}
}

func TestLocalGenerate_LoadFailure(t *testing.T) {
	loader := &MockLoader{Err: errors.New("weights not found")}
	backend := NewLocalBackend(loader, "tinyllama")

	resp := backend.Generate(context.Background(), "hello")
	if !resp.Error || resp.Text != TextLoadFailed {
		t.Fatalf("resp = %+v, want load failure response", resp)
	}
	if Kind(resp.Err) != "load" {
		t.Fatalf("Kind = %q, want load", Kind(resp.Err))
	}
}

func TestLocalGenerate_Success(t *testing.T) {
	msg := "My battery is draining quickly"
	pipeline := NewMockPipeline().AddCompletion(msg, " Lower the brightness and close apps running in the background.")
	backend := NewLocalBackend(&MockLoader{Pipeline: pipeline}, "tinyllama")

	resp := backend.Generate(context.Background(), msg)

	if resp.Error {
		t.Fatalf("unexpected error response: %+v", resp)
	}
	if resp.Text != "Lower the brightness and close apps running in the background." {
		t.Fatalf("Text = %q", resp.Text)
	}
	if len(pipeline.Prompts) != 1 || pipeline.Prompts[0] != BuildLocalPrompt(msg) {
		t.Fatalf("prompts = %q", pipeline.Prompts)
	}
	if pipeline.Options[0] != LocalSampling {
		t.Fatalf("options = %+v, want %+v", pipeline.Options[0], LocalSampling)
	}
}

func TestLocalGenerate_MissingDelimiter(t *testing.T) {
	pipeline := NewMockPipeline().AddOutput("garbled output")
	backend := NewLocalBackend(&MockLoader{Pipeline: pipeline}, "tinyllama")

	resp := backend.Generate(context.Background(), "hello")
	if resp.Error || resp.Text != TextNoAnswer {
		t.Fatalf("resp = %+v, want fallback answer", resp)
	}
}

func TestLocalGenerate_PipelineError(t *testing.T) {
	pipeline := NewMockPipeline().AddError(errors.New("out of memory"))
	backend := NewLocalBackend(&MockLoader{Pipeline: pipeline}, "tinyllama")

	resp := backend.Generate(context.Background(), "hello")
	if !resp.Error || resp.Text != TextLocalTrouble {
		t.Fatalf("resp = %+v, want local trouble response", resp)
	}
	if !errors.Is(resp.Err, ErrGeneration) {
		t.Fatalf("Err = %v, want ErrGeneration", resp.Err)
	}
	// The pipeline stays loaded after a generation failure.
	if backend.State() != StateReady {
		t.Fatalf("state = %v, want ready", backend.State())
	}
}

func TestLocalGenerate_PanicRecovered(t *testing.T) {
	pipeline := NewMockPipeline().AddTurn(MockTurn{Panic: "index out of range"})
	backend := NewLocalBackend(&MockLoader{Pipeline: pipeline}, "tinyllama")

	resp := backend.Generate(context.Background(), "hello")
	if !resp.Error || resp.Text != TextLocalTrouble {
		t.Fatalf("resp = %+v, want local trouble response", resp)
	}
	if Kind(resp.Err) != "generation" {
		t.Fatalf("Kind = %q, want generation", Kind(resp.Err))
	}
}

func TestLocalGenerate_LoadsOnceAcrossMessages(t *testing.T) {
	pipeline := NewMockPipeline().
		AddCompletion("one", " first").
		AddCompletion("two", " second")
	loader := &MockLoader{Pipeline: pipeline}
	backend := NewLocalBackend(loader, "tinyllama")
	ctx := context.Background()

	if got := backend.Generate(ctx, "one").Text; got != "first" {
		t.Fatalf("first = %q", got)
	}
	if got := backend.Generate(ctx, "two").Text; got != "second" {
		t.Fatalf("second = %q", got)
	}
	if got := loader.Loads(); got != 1 {
		t.Fatalf("loads = %d, want 1", got)
	}
}

func TestLoadStateString(t *testing.T) {
	if StateReady.String() != "ready" || StateFailed.String() != "failed" {
		t.Fatalf("unexpected state names")
	}
	if LoadState(42).String() != "LoadState(42)" {
		t.Fatalf("unknown state = %q", LoadState(42).String())
	}
}

func TestLocalGenerate_LoaderPanicIsRecovered(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	pipeline := NewMockPipeline().AddCompletion("battery draining", " Charge it overnight.")
	loader := LoaderFunc(func(ctx context.Context, model string) (Pipeline, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			panic("onnx runtime missing")
		}
		return pipeline, nil
	})
	backend := NewLocalBackend(loader, "tinyllama")

	resp := backend.Generate(context.Background(), "battery draining")
	if !resp.Error || resp.Text != TextLoadFailed {
		t.Fatalf("resp = %+v, want load failure response", resp)
	}
	if !errors.Is(resp.Err, ErrLoad) || !strings.Contains(resp.Err.Error(), "onnx runtime missing") {
		t.Fatalf("Err = %v, want ErrLoad carrying the panic value", resp.Err)
	}
	if backend.State() != StateFailed {
		t.Fatalf("state = %v, want failed", backend.State())
	}

	resp = backend.Generate(context.Background(), "battery draining")
	if resp.Error || resp.Text != "Charge it overnight." {
		t.Fatalf("resp after retry = %+v, want answer", resp)
	}
}

func TestLocalGenerate_CancelledRetryReportsCancellation(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	started := make(chan struct{})
	release := make(chan struct{})
	loader := LoaderFunc(func(ctx context.Context, model string) (Pipeline, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			return nil, errors.New("server not running")
		}
		close(started)
		<-release
		return NewMockPipeline(), nil
	})
	backend := NewLocalBackend(loader, "tinyllama")
	defer close(release)

	if backend.EnsureLoaded(context.Background()) {
		t.Fatalf("first load should fail")
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan Response)
	go func() { done <- backend.Generate(ctx, "hello") }()
	<-started
	cancel()

	resp := <-done
	if !resp.Error || !errors.Is(resp.Err, ErrLoad) {
		t.Fatalf("resp = %+v, want load failure", resp)
	}
	if !errors.Is(resp.Err, context.Canceled) {
		t.Fatalf("Err = %v, want context.Canceled", resp.Err)
	}
	if strings.Contains(resp.Err.Error(), "server not running") {
		t.Fatalf("Err = %v, reports the earlier failed load", resp.Err)
	}
}
