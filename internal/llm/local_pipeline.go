package llm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// DefaultLocalBaseURL is Ollama's OpenAI-compatible endpoint.
const DefaultLocalBaseURL = "http://localhost:11434/v1/"

// CompatLoader loads models served by a local OpenAI-compatible inference
// server (Ollama, LM Studio, llama.cpp server).
type CompatLoader struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// Load checks that model is available and warms it with a one-token
// completion so the first real message does not pay the load cost.
func (l *CompatLoader) Load(ctx context.Context, model string) (Pipeline, error) {
	// Local servers ignore the key but the client insists on sending one.
	apiKey := orDefault(l.APIKey, "local")
	opts := []option.RequestOption{
		option.WithBaseURL(orDefault(l.BaseURL, DefaultLocalBaseURL)),
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if l.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(l.HTTPClient))
	}
	client := openai.NewClient(opts...)

	if _, err := client.Models.Get(ctx, model); err != nil {
		return nil, fmt.Errorf("model %s not available on local server: %w", model, err)
	}

	p := &compatPipeline{client: &client, model: model}
	if _, err := p.complete(ctx, "Hello", SamplingOptions{MaxNewTokens: 1}); err != nil {
		return nil, fmt.Errorf("warm up %s: %w", model, err)
	}
	return p, nil
}

type compatPipeline struct {
	client *openai.Client
	model  string
}

// Generate returns prompt followed by the completion.
func (p *compatPipeline) Generate(ctx context.Context, prompt string, opts SamplingOptions) (string, error) {
	completion, err := p.complete(ctx, prompt, opts)
	if err != nil {
		return "", err
	}
	return prompt + completion, nil
}

func (p *compatPipeline) complete(ctx context.Context, prompt string, opts SamplingOptions) (string, error) {
	params := openai.CompletionNewParams{
		Model: openai.CompletionNewParamsModel(p.model),
		Prompt: openai.CompletionNewParamsPromptUnion{
			OfString: openai.String(prompt),
		},
	}
	if opts.MaxNewTokens > 0 {
		params.MaxTokens = openai.Int(int64(opts.MaxNewTokens))
	}
	if opts.Temperature > 0 {
		params.Temperature = openai.Float(opts.Temperature)
	}
	if opts.TopP > 0 {
		params.TopP = openai.Float(opts.TopP)
	}

	resp, err := p.client.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("local completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("local completion returned no choices")
	}
	return resp.Choices[0].Text, nil
}
