package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"haetsal-ai/internal/contextutil"
)

// Client is a client for an OpenAI-compatible chat completions API.
// Failed requests are retried MaxRetries times in total with RetryDelays between attempts.
type Client struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxRetries  int
	RetryDelays []time.Duration
	client      *http.Client
}

// NewClient creates a new LLM client.
func NewClient(baseURL, apiKey, model string, maxRetries int) *Client {
	if maxRetries <= 0 {
		maxRetries = 1
	}
	return &Client{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		APIKey:      apiKey,
		Model:       model,
		MaxRetries:  maxRetries,
		RetryDelays: DefaultRetryDelays,
		client:      &http.Client{Timeout: 30 * time.Second},
	}
}

// ChatRequest represents the request payload for chat completions.
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Stream      bool      `json:"stream,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float32   `json:"temperature,omitempty"`
}

// ChatChoice represents a single choice in the chat response.
type ChatChoice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// ChatResponse represents the response from the chat completions API.
type ChatResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Choices []ChatChoice `json:"choices"`
}

// StatusError is returned when the API answers with a non-200 status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("bad status %d: %s", e.StatusCode, e.Body)
}

func (c *Client) newRequest(ctx context.Context, prompt string, params ChatParams, stream bool) (*http.Request, error) {
	model := params.Model
	if model == "" {
		model = c.Model
	}

	payload := ChatRequest{
		Model:       model,
		Messages:    []Message{{Role: "user", Content: prompt}},
		Stream:      stream,
		MaxTokens:   params.MaxTokens,
		Temperature: params.Temperature,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/chat/completions", c.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.APIKey))
	req.Header.Set("Content-Type", "application/json")
	if stream {
		req.Header.Set("Accept", "text/event-stream")
	}
	return req, nil
}

// Chat sends a single-prompt chat completion request, retrying on failure.
func (c *Client) Chat(ctx context.Context, prompt string, params ChatParams) (string, error) {
	logger := contextutil.LoggerFromContext(ctx)

	var lastErr error
	for attempt := 0; attempt < c.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, retryDelay(c.RetryDelays, attempt-1)); err != nil {
				return "", err
			}
		}

		reply, err := c.chatOnce(ctx, prompt, params)
		if err == nil {
			return reply, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		lastErr = err
		logger.WarnContext(ctx, "chat completion attempt failed",
			"attempt", attempt+1,
			"max_retries", c.MaxRetries,
			"prompt_length", len([]rune(prompt)),
			"error", err)
	}

	return "", fmt.Errorf("chat completion failed after %d attempts: %w", c.MaxRetries, lastErr)
}

func (c *Client) chatOnce(ctx context.Context, prompt string, params ChatParams) (string, error) {
	req, err := c.newRequest(ctx, prompt, params, false)
	if err != nil {
		return "", err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &StatusError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var chatResp ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}

	return chatResp.Choices[0].Message.Content, nil
}

// errCallback marks a failure raised by the caller's callback; it is never retried.
var errCallback = errors.New("callback error")

// StreamChat sends a streaming chat completion request.
// It reads Server-Sent Events (SSE) from the response and calls the callback for each chunk.
// Only failures before the first chunk is delivered are retried.
func (c *Client) StreamChat(ctx context.Context, prompt string, params ChatParams, callback func(chunk string) error) error {
	logger := contextutil.LoggerFromContext(ctx)

	var lastErr error
	for attempt := 0; attempt < c.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, retryDelay(c.RetryDelays, attempt-1)); err != nil {
				return err
			}
		}

		delivered, err := c.streamOnce(ctx, prompt, params, callback)
		if err == nil {
			return nil
		}
		if delivered || errors.Is(err, errCallback) || ctx.Err() != nil {
			return err
		}

		lastErr = err
		logger.WarnContext(ctx, "stream attempt failed", "attempt", attempt+1, "max_retries", c.MaxRetries, "error", err)
	}

	return fmt.Errorf("stream failed after %d attempts: %w", c.MaxRetries, lastErr)
}

func (c *Client) streamOnce(ctx context.Context, prompt string, params ChatParams, callback func(chunk string) error) (bool, error) {
	req, err := c.newRequest(ctx, prompt, params, true)
	if err != nil {
		return false, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return false, &StatusError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	// Read Server-Sent Events
	scanner := bufio.NewScanner(resp.Body)
	const dataPrefix = "data: "
	const donePrefix = "[DONE]"
	delivered := false

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, dataPrefix) {
			continue
		}

		data := strings.TrimPrefix(line, dataPrefix)
		if data == donePrefix {
			break
		}

		var streamResp struct {
			Choices []struct {
				Delta struct {
					Content string `json:"content"`
				} `json:"delta"`
				FinishReason string `json:"finish_reason"`
			} `json:"choices"`
		}

		if err := json.Unmarshal([]byte(data), &streamResp); err != nil {
			// Skip malformed JSON chunks
			continue
		}

		if len(streamResp.Choices) > 0 {
			chunk := streamResp.Choices[0].Delta.Content
			if chunk != "" {
				if err := callback(chunk); err != nil {
					return delivered, fmt.Errorf("%w: %w", errCallback, err)
				}
				delivered = true
			}

			if streamResp.Choices[0].FinishReason != "" {
				break
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return delivered, fmt.Errorf("failed to read stream: %w", err)
	}

	return delivered, nil
}
