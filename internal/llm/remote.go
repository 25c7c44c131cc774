package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog/log"
	"github.com/samsaffron/quest-buddy/internal/settings"
	"github.com/samsaffron/quest-buddy/internal/usage"
)

const (
	DefaultRemoteBaseURL = "https://api.openai.com/v1/"
	DefaultRemoteModel   = "gpt-4o-mini"

	RemoteTemperature = 0.7
	RemoteMaxTokens   = 500
)

// UsageRecorder receives token usage for answered messages.
type UsageRecorder interface {
	Log(entry usage.LogEntry) error
}

// RemoteConfig configures the hosted chat-completion endpoint.
type RemoteConfig struct {
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

// RemoteBackend answers messages with one chat-completion request per message.
// The bearer key is read from the settings store on every call.
type RemoteBackend struct {
	client openai.Client
	model  string
	store  settings.Store
	usage  UsageRecorder
}

// NewRemoteBackend creates a RemoteBackend. recorder may be nil.
func NewRemoteBackend(cfg RemoteConfig, store settings.Store, recorder UsageRecorder) *RemoteBackend {
	baseURL := orDefault(cfg.BaseURL, DefaultRemoteBaseURL)
	opts := []option.RequestOption{
		option.WithBaseURL(baseURL),
		// A failed attempt surfaces to the user immediately.
		option.WithMaxRetries(0),
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	return &RemoteBackend{
		client: openai.NewClient(opts...),
		model:  orDefault(cfg.Model, DefaultRemoteModel),
		store:  store,
		usage:  recorder,
	}
}

func (b *RemoteBackend) Name() string {
	return fmt.Sprintf("OpenAI (%s)", b.model)
}

// Model returns the model identifier sent with each request.
func (b *RemoteBackend) Model() string {
	return b.model
}

// Generate sends message to the chat-completion endpoint.
func (b *RemoteBackend) Generate(ctx context.Context, message string) Response {
	key, err := settings.APIKey(ctx, b.store)
	if err != nil {
		log.Warn().Err(err).Msg("failed to read api key from settings")
	}
	if key == "" {
		log.Debug().Str("kind", Kind(ErrNotConfigured)).Msg("remote request skipped")
		return failure(TextNotConfigured, ErrNotConfigured)
	}

	start := time.Now()
	completion, err := b.client.Chat.Completions.New(ctx, b.params(message), option.WithAPIKey(key))
	if err != nil {
		return b.handleError(ctx, err)
	}
	if len(completion.Choices) == 0 {
		err := fmt.Errorf("%w: response contained no choices", ErrTransport)
		log.Error().Err(err).Str("kind", Kind(err)).Msg("remote completion failed")
		return failure(TextRemoteTrouble, err)
	}

	b.recordUsage(completion.Usage, time.Since(start))
	log.Debug().
		Str("model", b.model).
		Int64("input_tokens", completion.Usage.PromptTokens).
		Int64("output_tokens", completion.Usage.CompletionTokens).
		Dur("elapsed", time.Since(start)).
		Msg("remote completion")
	return success(completion.Choices[0].Message.Content)
}

func (b *RemoteBackend) params(message string) openai.ChatCompletionNewParams {
	return openai.ChatCompletionNewParams{
		Model: openai.ChatModel(b.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(RemoteSystemPrompt),
			openai.UserMessage(message),
		},
		Temperature: openai.Float(RemoteTemperature),
		MaxTokens:   openai.Int(RemoteMaxTokens),
	}
}

func (b *RemoteBackend) handleError(ctx context.Context, err error) Response {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
		// Force re-entry of the key.
		if clearErr := settings.ClearAPIKey(ctx, b.store); clearErr != nil {
			log.Error().Err(clearErr).Msg("failed to clear rejected api key")
		}
		wrapped := fmt.Errorf("%w: %s", ErrInvalidCredential, apiErr.Message)
		log.Warn().Int("status", apiErr.StatusCode).Str("kind", Kind(wrapped)).Msg("remote rejected api key, stored key cleared")
		return failure(TextInvalidKey, wrapped)
	}

	wrapped := fmt.Errorf("%w: %w", ErrTransport, err)
	event := log.Error().Err(err).Str("kind", Kind(wrapped))
	if apiErr != nil {
		event = event.Int("status", apiErr.StatusCode).Str("api_message", apiErr.Message)
	}
	event.Msg("remote completion failed")
	return failure(TextRemoteTrouble, wrapped)
}

func (b *RemoteBackend) recordUsage(u openai.CompletionUsage, elapsed time.Duration) {
	if b.usage == nil {
		return
	}
	entry := usage.LogEntry{
		Timestamp:    time.Now(),
		Mode:         string(settings.ModeRemote),
		Model:        b.model,
		InputTokens:  u.PromptTokens,
		OutputTokens: u.CompletionTokens,
		DurationMs:   elapsed.Milliseconds(),
	}
	if err := b.usage.Log(entry); err != nil {
		log.Warn().Err(err).Msg("failed to write usage log")
	}
}
