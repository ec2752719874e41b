package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAnthropicTestServer(t *testing.T, content []map[string]interface{}) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "POST", r.Method)
		require.Equal(t, "/v1/messages", r.URL.Path)

		response := map[string]interface{}{
			"id":          "msg_123",
			"type":        "message",
			"role":        "assistant",
			"model":       "claude-3-7-sonnet-20250219",
			"content":     content,
			"stop_reason": "end_turn",
			"usage": map[string]interface{}{
				"input_tokens":  21,
				"output_tokens": 8,
			},
		}

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(response))
	}))
}

func TestAnthropicClientRequiresAPIKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	_, err := NewAnthropicClient("claude-3-7-sonnet-20250219", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key")
}

func TestAnthropicClientComplete(t *testing.T) {
	server := newAnthropicTestServer(t, []map[string]interface{}{
		{"type": "text", "text": "arma virumque cano"},
	})
	defer server.Close()

	client, err := NewAnthropicClient("claude-3-7-sonnet-20250219", "test-key",
		WithAnthropicBaseURL(server.URL))
	require.NoError(t, err)

	completion, err := client.Complete(context.Background(), "quote the opening line")
	require.NoError(t, err)
	assert.Equal(t, "arma virumque cano", completion.Content)
	assert.Equal(t, "msg_123", completion.ID)
	assert.Equal(t, 21, completion.Usage.PromptTokens)
	assert.Equal(t, 8, completion.Usage.CompletionTokens)
	assert.Equal(t, 29, completion.Usage.TotalTokens)
}

func TestAnthropicClientSkipsThinkingBlocks(t *testing.T) {
	server := newAnthropicTestServer(t, []map[string]interface{}{
		{"type": "thinking", "thinking": "let me find the passage", "signature": "sig"},
		{"type": "text", "text": "arma virumque cano"},
	})
	defer server.Close()

	client, err := NewAnthropicClient("claude-3-7-sonnet-20250219", "test-key",
		WithAnthropicBaseURL(server.URL))
	require.NoError(t, err)

	completion, err := client.Complete(context.Background(), "quote the opening line")
	require.NoError(t, err)
	assert.Equal(t, "arma virumque cano", completion.Content)
}
