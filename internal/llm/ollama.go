package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"github.com/ollama/ollama/envconfig"

	"haetsal-ai/internal/contextutil"
)

// NewOllamaAPIClient creates an Ollama API client for host.
// An empty host falls back to OLLAMA_HOST via envconfig.
func NewOllamaAPIClient(host string) (*api.Client, error) {
	hostURL := envconfig.Host()
	if host != "" {
		parsed, err := url.Parse(host)
		if err != nil {
			return nil, fmt.Errorf("invalid Ollama host: %w", err)
		}
		hostURL = parsed
	}
	return api.NewClient(hostURL, http.DefaultClient), nil
}

// OllamaEmbedder generates embeddings using the Ollama API.
type OllamaEmbedder struct {
	Client       *api.Client
	Model        string
	ExpectedSize int
	MaxRetries   int
	RetryDelays  []time.Duration
	Timeout      time.Duration
}

// NewOllamaEmbedder creates a new Ollama embedder.
func NewOllamaEmbedder(client *api.Client, model string, expectedSize int) *OllamaEmbedder {
	return &OllamaEmbedder{
		Client:       client,
		Model:        model,
		ExpectedSize: expectedSize,
		MaxRetries:   3,
		RetryDelays:  DefaultRetryDelays,
		Timeout:      30 * time.Second,
	}
}

// EmbedTexts embeds texts one by one, in order.
func (e *OllamaEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("empty input array")
	}

	result := make([][]float32, len(texts))
	for i, text := range texts {
		embedding, err := e.embedWithRetry(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("failed to embed text %d: %w", i, err)
		}
		vec, err := toFloat32(embedding, e.ExpectedSize)
		if err != nil {
			return nil, fmt.Errorf("embedding %d: %w", i, err)
		}
		result[i] = vec
	}
	return result, nil
}

func (e *OllamaEmbedder) embedWithRetry(ctx context.Context, text string) ([]float64, error) {
	var err error
	attempts := max(e.MaxRetries, 1)
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if serr := sleepCtx(ctx, retryDelay(e.RetryDelays, attempt-1)); serr != nil {
				return nil, serr
			}
		}

		var embedding []float64
		embedding, err = e.createEmbedding(ctx, text)
		if err == nil {
			return embedding, nil
		}
	}
	return nil, fmt.Errorf("failed to create embedding after %d attempts: %w", attempts, err)
}

func (e *OllamaEmbedder) createEmbedding(ctx context.Context, text string) ([]float64, error) {
	req := api.EmbeddingRequest{
		Model:  e.Model,
		Prompt: text,
	}

	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	resp, err := e.Client.Embeddings(ctx, &req)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}
	return resp.Embedding, nil
}

// OllamaGenerator answers prompts with the Ollama generate API.
type OllamaGenerator struct {
	Client      *api.Client
	Model       string
	MaxRetries  int
	RetryDelays []time.Duration
}

// NewOllamaGenerator creates a generator for model.
func NewOllamaGenerator(client *api.Client, model string, maxRetries int) *OllamaGenerator {
	return &OllamaGenerator{
		Client:      client,
		Model:       model,
		MaxRetries:  max(maxRetries, 1),
		RetryDelays: DefaultRetryDelays,
	}
}

func (o *OllamaGenerator) request(prompt string, params ChatParams) *api.GenerateRequest {
	model := params.Model
	if model == "" {
		model = o.Model
	}

	options := map[string]any{}
	if params.Temperature > 0 {
		options["temperature"] = params.Temperature
	}
	if params.MaxTokens > 0 {
		options["num_predict"] = params.MaxTokens
	}

	return &api.GenerateRequest{
		Model:   model,
		Prompt:  prompt,
		Options: options,
	}
}

// Chat generates a complete response, retrying on failure.
func (o *OllamaGenerator) Chat(ctx context.Context, prompt string, params ChatParams) (string, error) {
	logger := contextutil.LoggerFromContext(ctx)

	var lastErr error
	for attempt := 0; attempt < o.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, retryDelay(o.RetryDelays, attempt-1)); err != nil {
				return "", err
			}
		}

		var sb strings.Builder
		err := o.Client.Generate(ctx, o.request(prompt, params), func(resp api.GenerateResponse) error {
			_, err := sb.WriteString(resp.Response)
			return err
		})
		if err == nil {
			return sb.String(), nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		lastErr = err
		logger.WarnContext(ctx, "generate attempt failed", "attempt", attempt+1, "max_retries", o.MaxRetries, "error", err)
	}

	return "", fmt.Errorf("failed to generate response after %d attempts: %w", o.MaxRetries, lastErr)
}

// StreamChat forwards each generated fragment to callback.
func (o *OllamaGenerator) StreamChat(ctx context.Context, prompt string, params ChatParams, callback func(chunk string) error) error {
	err := o.Client.Generate(ctx, o.request(prompt, params), func(resp api.GenerateResponse) error {
		if resp.Response == "" {
			return nil
		}
		return callback(resp.Response)
	})
	if err != nil {
		return fmt.Errorf("failed to generate response: %w", err)
	}
	return nil
}
