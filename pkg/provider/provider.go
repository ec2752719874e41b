// Package provider implements the remote completion capability the
// executor drives. Providers share one contract: submit a prompt, get
// back text plus usage accounting, or an error the caller may retry.
package provider

import (
	"context"
)

// Usage carries token and cost accounting as reported by the provider.
// Cost fields are only populated by providers that meter spend inline
// (OpenRouter); token counts are universal.
type Usage struct {
	PromptTokens     int                `json:"prompt_tokens"`
	CompletionTokens int                `json:"completion_tokens"`
	TotalTokens      int                `json:"total_tokens"`
	Cost             float64            `json:"cost,omitempty"`
	CostDetails      map[string]float64 `json:"cost_details,omitempty"`
}

// Completion is one model answer with provider metadata.
type Completion struct {
	Content  string
	Usage    *Usage
	ID       string
	Created  int64
	APIModel string // model identifier the provider actually served
}

// Completer is the capability contract: submit(prompt) -> text | failure.
// Implementations must honor context cancellation and deadlines; any
// returned error is treated as retryable by the executor.
type Completer interface {
	Complete(ctx context.Context, prompt string) (*Completion, error)
	ModelID() string
}
