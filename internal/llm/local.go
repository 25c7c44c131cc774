package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const DefaultLocalModel = "tinyllama"

// LocalSampling are the fixed sampling parameters for local generation.
var LocalSampling = SamplingOptions{
	MaxNewTokens: 200,
	Temperature:  0.7,
	TopP:         0.9,
}

// SamplingOptions controls a single local generation.
type SamplingOptions struct {
	MaxNewTokens int
	Temperature  float64
	TopP         float64
}

// Pipeline is a loaded local text-generation engine. Generate returns the
// full generated text, prompt included.
type Pipeline interface {
	Generate(ctx context.Context, prompt string, opts SamplingOptions) (string, error)
}

// Loader constructs a Pipeline for a named model. Construction may be slow
// (download, load into memory).
type Loader interface {
	Load(ctx context.Context, model string) (Pipeline, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, model string) (Pipeline, error)

func (f LoaderFunc) Load(ctx context.Context, model string) (Pipeline, error) {
	return f(ctx, model)
}

// LoadState is the lifecycle of the local pipeline.
type LoadState int

const (
	StateUninitialized LoadState = iota
	StateLoading
	StateReady
	StateFailed
)

func (s LoadState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("LoadState(%d)", int(s))
	}
}

// LocalBackend answers messages with a lazily loaded local pipeline.
// The pipeline is constructed at most once successfully per backend;
// overlapping EnsureLoaded calls share a single in-flight load.
type LocalBackend struct {
	loader Loader
	model  string

	mu       sync.Mutex
	state    LoadState
	pipeline Pipeline
	lastErr  error

	group singleflight.Group
}

// NewLocalBackend creates a LocalBackend for model. Nothing is loaded yet.
func NewLocalBackend(loader Loader, model string) *LocalBackend {
	return &LocalBackend{
		loader: loader,
		model:  orDefault(model, DefaultLocalModel),
	}
}

func (b *LocalBackend) Name() string {
	return fmt.Sprintf("Local (%s)", b.model)
}

// Model returns the model identifier passed to the loader.
func (b *LocalBackend) Model() string {
	return b.model
}

// State reports the current lifecycle state.
func (b *LocalBackend) State() LoadState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// LastError returns the error of the most recent failed load, if any.
func (b *LocalBackend) LastError() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastErr
}

// EnsureLoaded constructs the pipeline if it is not ready yet. A failed load
// leaves no pipeline behind so a later call retries.
func (b *LocalBackend) EnsureLoaded(ctx context.Context) bool {
	if b.State() == StateReady {
		return true
	}

	// The load outlives a caller that gives up waiting; other callers may share it.
	loadCtx := context.WithoutCancel(ctx)
	ch := b.group.DoChan("load", func() (any, error) {
		return b.load(loadCtx), nil
	})

	select {
	case res := <-ch:
		return res.Val.(bool)
	case <-ctx.Done():
		return false
	}
}

func (b *LocalBackend) load(ctx context.Context) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%w: panic: %v", ErrLoad, r)
			log.Error().Err(err).Str("kind", Kind(err)).Str("model", b.model).Msg("local model loader panicked")
			b.mu.Lock()
			b.state = StateFailed
			b.pipeline = nil
			b.lastErr = err
			b.mu.Unlock()
			ok = false
		}
	}()

	b.mu.Lock()
	if b.state == StateReady {
		b.mu.Unlock()
		return true
	}
	b.state = StateLoading
	b.mu.Unlock()

	log.Info().Str("model", b.model).Msg("loading local model")
	start := time.Now()
	pipeline, err := b.loader.Load(ctx, b.model)

	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil && pipeline == nil {
		err = fmt.Errorf("loader returned no pipeline")
	}
	if err != nil {
		b.state = StateFailed
		b.pipeline = nil
		b.lastErr = fmt.Errorf("%w: %w", ErrLoad, err)
		log.Error().Err(err).Str("kind", Kind(ErrLoad)).Str("model", b.model).Msg("failed to load local model")
		return false
	}

	b.state = StateReady
	b.pipeline = pipeline
	b.lastErr = nil
	log.Info().Str("model", b.model).Dur("elapsed", time.Since(start)).Msg("local model loaded")
	return true
}

// Generate answers message with the local pipeline, loading it first if needed.
func (b *LocalBackend) Generate(ctx context.Context, message string) (resp Response) {
	if !b.EnsureLoaded(ctx) {
		// A cancelled caller may leave a load running; an older error would be stale.
		err := b.LastError()
		if ctx.Err() != nil || err == nil {
			err = fmt.Errorf("%w: %w", ErrLoad, ctx.Err())
		}
		return failure(TextLoadFailed, err)
	}

	b.mu.Lock()
	pipeline := b.pipeline
	b.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%w: panic: %v", ErrGeneration, r)
			log.Error().Err(err).Str("kind", Kind(err)).Msg("local pipeline panicked")
			resp = failure(TextLocalTrouble, err)
		}
	}()

	output, err := pipeline.Generate(ctx, BuildLocalPrompt(message), LocalSampling)
	if err != nil {
		wrapped := fmt.Errorf("%w: %w", ErrGeneration, err)
		log.Error().Err(err).Str("kind", Kind(wrapped)).Str("model", b.model).Msg("local generation failed")
		return failure(TextLocalTrouble, wrapped)
	}

	return success(ExtractCompletion(output))
}

// ExtractCompletion returns the trimmed text following the last delimiter in
// generated output, or TextNoAnswer when there is no delimiter or nothing after it.
func ExtractCompletion(generated string) string {
	idx := strings.LastIndex(generated, LocalDelimiter)
	if idx < 0 {
		return TextNoAnswer
	}
	text := strings.TrimSpace(generated[idx+len(LocalDelimiter):])
	if text == "" {
		return TextNoAnswer
	}
	return text
}
