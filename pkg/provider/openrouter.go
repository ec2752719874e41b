package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/XiaoConstantine/relicbench/pkg/errors"
)

const (
	openRouterBaseURL = "https://openrouter.ai/api/v1"
	completionsPath   = "/chat/completions"
)

// OpenRouterClient implements Completer against OpenRouter's
// OpenAI-compatible chat completions endpoint.
type OpenRouterClient struct {
	modelID     string
	baseURL     string
	path        string
	apiKey      string
	temperature float64
	maxTokens   int // zero means provider default
	httpClient  *http.Client
}

// OpenRouterOption is a functional option for configuring the client.
type OpenRouterOption func(*OpenRouterClient)

// WithBaseURL overrides the OpenRouter endpoint, e.g. for a compatible
// proxy or a test server.
func WithBaseURL(baseURL string) OpenRouterOption {
	return func(c *OpenRouterClient) { c.baseURL = baseURL }
}

// WithAPIKey sets the API key explicitly.
func WithAPIKey(apiKey string) OpenRouterOption {
	return func(c *OpenRouterClient) { c.apiKey = apiKey }
}

// WithTemperature sets the sampling temperature. Zero (the default) keeps
// decoding greedy for reproducibility.
func WithTemperature(temperature float64) OpenRouterOption {
	return func(c *OpenRouterClient) { c.temperature = temperature }
}

// WithMaxTokens caps the tokens generated per response.
func WithMaxTokens(maxTokens int) OpenRouterOption {
	return func(c *OpenRouterClient) { c.maxTokens = maxTokens }
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) OpenRouterOption {
	return func(c *OpenRouterClient) { c.httpClient = &http.Client{Timeout: timeout} }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) OpenRouterOption {
	return func(c *OpenRouterClient) { c.httpClient = client }
}

// NewOpenRouterClient creates a client for one model. The API key falls
// back to OPENROUTER_API_KEY; a missing key is a configuration error
// surfaced before any row is processed.
func NewOpenRouterClient(modelID string, opts ...OpenRouterOption) (*OpenRouterClient, error) {
	c := &OpenRouterClient{
		modelID:    modelID,
		baseURL:    openRouterBaseURL,
		path:       completionsPath,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.apiKey == "" {
		c.apiKey = os.Getenv("OPENROUTER_API_KEY")
	}
	if c.apiKey == "" {
		return nil, errors.WithFields(
			errors.New(errors.InvalidInput, "OpenRouter API key is required"),
			errors.Fields{"env_var": "OPENROUTER_API_KEY"})
	}
	return c, nil
}

// ModelID implements Completer.
func (c *OpenRouterClient) ModelID() string { return c.modelID }

// Complete implements Completer.
func (c *OpenRouterClient) Complete(ctx context.Context, prompt string) (*Completion, error) {
	request := &chatCompletionRequest{
		Model: c.modelID,
		Messages: []chatCompletionMessage{
			{Role: "user", Content: prompt},
		},
		Temperature: &c.temperature,
		Usage:       &usageAccounting{Include: true},
	}
	if c.maxTokens > 0 {
		request.MaxTokens = &c.maxTokens
	}

	response, err := c.makeRequest(ctx, request)
	if err != nil {
		return nil, err
	}

	if len(response.Choices) == 0 {
		return nil, errors.WithFields(
			errors.New(errors.InvalidResponse, "no choices returned from completion API"),
			errors.Fields{"model": c.modelID})
	}

	usage := &Usage{
		PromptTokens:     response.Usage.PromptTokens,
		CompletionTokens: response.Usage.CompletionTokens,
		TotalTokens:      response.Usage.TotalTokens,
		Cost:             response.Usage.Cost,
	}
	if d := response.Usage.CostDetails; d != nil {
		usage.CostDetails = map[string]float64{
			"upstream_inference_prompt_cost":      d.UpstreamInferencePromptCost,
			"upstream_inference_completions_cost": d.UpstreamInferenceCompletionsCost,
		}
	}

	return &Completion{
		Content:  response.Choices[0].Message.Content,
		Usage:    usage,
		ID:       response.ID,
		Created:  response.Created,
		APIModel: response.Model,
	}, nil
}

// makeRequest sends a chat completion request and decodes the response.
func (c *OpenRouterClient) makeRequest(ctx context.Context, request *chatCompletionRequest) (*chatCompletionResponse, error) {
	jsonData, err := json.Marshal(request)
	if err != nil {
		return nil, errors.Wrap(err, errors.InvalidInput, "failed to marshal request")
	}

	url := c.baseURL + c.path
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, errors.Wrap(err, errors.Unknown, "failed to create request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(err, errors.Timeout, "request deadline exceeded")
		}
		return nil, errors.Wrap(err, errors.CompletionFailed, "request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, errors.CompletionFailed, "failed to read response")
	}

	if resp.StatusCode != http.StatusOK {
		code := errors.CompletionFailed
		if resp.StatusCode == http.StatusTooManyRequests {
			code = errors.RateLimitExceeded
		}
		var errorResp errorResponse
		if err := json.Unmarshal(body, &errorResp); err != nil || errorResp.Error.Message == "" {
			return nil, errors.WithFields(
				errors.New(code, "API request failed"),
				errors.Fields{"status": resp.StatusCode, "body": string(body)})
		}
		return nil, errors.WithFields(
			errors.New(code, errorResp.Error.Message),
			errors.Fields{"status": resp.StatusCode, "type": errorResp.Error.Type})
	}

	var response chatCompletionResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, errors.Wrap(err, errors.InvalidResponse, "failed to parse response")
	}

	return &response, nil
}
