package logging

// LogEntry represents a structured log record with fields relevant to
// benchmark execution against remote model APIs.
type LogEntry struct {
	// Standard fields
	Time     int64
	Severity Severity
	Message  string
	File     string
	Line     int
	Function string

	// Run-specific fields
	Model     string     // The model being benchmarked
	TokenInfo *TokenInfo // Token usage for the operation
	Latency   int64      // Operation duration in milliseconds
	Cost      float64    // Operation cost in dollars

	// General structured data
	Fields map[string]interface{}
}

// TokenInfo tracks token usage for cost and performance monitoring.
type TokenInfo struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
