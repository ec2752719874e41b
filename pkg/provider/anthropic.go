package provider

import (
	"context"
	stderrors "errors"
	"os"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/XiaoConstantine/relicbench/pkg/errors"
	"github.com/XiaoConstantine/relicbench/pkg/logging"
)

const defaultAnthropicMaxTokens = 4096

// AnthropicClient implements Completer directly against the Anthropic
// Messages API, for runs that bypass OpenRouter.
type AnthropicClient struct {
	client      *anthropic.Client
	modelID     string
	temperature float64
	maxTokens   int
	baseURL     string
}

// AnthropicOption is a functional option for configuring the client.
type AnthropicOption func(*AnthropicClient)

// WithAnthropicTemperature sets the sampling temperature.
func WithAnthropicTemperature(temperature float64) AnthropicOption {
	return func(c *AnthropicClient) { c.temperature = temperature }
}

// WithAnthropicMaxTokens caps the tokens generated per response. The
// Messages API requires a cap, so zero falls back to a generous default.
func WithAnthropicMaxTokens(maxTokens int) AnthropicOption {
	return func(c *AnthropicClient) { c.maxTokens = maxTokens }
}

// WithAnthropicBaseURL overrides the API endpoint. Used for tests and
// proxy deployments.
func WithAnthropicBaseURL(baseURL string) AnthropicOption {
	return func(c *AnthropicClient) { c.baseURL = baseURL }
}

// NewAnthropicClient creates a client for one model. The API key falls
// back to ANTHROPIC_API_KEY.
func NewAnthropicClient(modelID, apiKey string, opts ...AnthropicOption) (*AnthropicClient, error) {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, errors.WithFields(
			errors.New(errors.InvalidInput, "Anthropic API key is required"),
			errors.Fields{"env_var": "ANTHROPIC_API_KEY"})
	}

	c := &AnthropicClient{
		modelID:   modelID,
		maxTokens: defaultAnthropicMaxTokens,
	}
	for _, opt := range opts {
		opt(c)
	}

	clientOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if c.baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(c.baseURL))
	}
	client := anthropic.NewClient(clientOpts...)
	c.client = &client
	return c, nil
}

// ModelID implements Completer.
func (c *AnthropicClient) ModelID() string { return c.modelID }

// Complete implements Completer.
func (c *AnthropicClient) Complete(ctx context.Context, prompt string) (*Completion, error) {
	logger := logging.GetLogger()

	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model: anthropic.Model(c.modelID),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewTextBlock(prompt),
			),
		},
		MaxTokens:   int64(c.maxTokens),
		Temperature: anthropic.Float(c.temperature),
	})
	if err != nil {
		var apiErr *anthropic.Error
		if stderrors.As(err, &apiErr) {
			logger.Error(ctx, "Anthropic API error: status code %d", apiErr.StatusCode)
		}
		return nil, errors.WithFields(
			errors.Wrap(err, errors.CompletionFailed, "failed to generate response"),
			errors.Fields{"model": c.modelID})
	}

	if message == nil || len(message.Content) == 0 {
		return nil, errors.New(errors.InvalidResponse, "received empty content from Anthropic API")
	}

	// Extended-thinking models prepend thinking blocks, so take the
	// first text block wherever it appears.
	var responseText string
	for _, block := range message.Content {
		if block.Type == "text" {
			responseText = block.Text
			break
		}
	}

	usage := &Usage{
		PromptTokens:     int(message.Usage.InputTokens),
		CompletionTokens: int(message.Usage.OutputTokens),
		TotalTokens:      int(message.Usage.InputTokens + message.Usage.OutputTokens),
	}

	return &Completion{
		Content:  responseText,
		Usage:    usage,
		ID:       message.ID,
		APIModel: string(message.Model),
	}, nil
}
