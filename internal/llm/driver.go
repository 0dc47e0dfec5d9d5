// Package llm defines the provider-agnostic completion contract the
// planner pipeline consumes. Concrete providers live in subpackages; the
// pipeline is tested against a fake implementation.
package llm

import "context"

// Roles accepted in a conversation.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single conversation turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// JSONSchema constrains a structured-output response.
type JSONSchema struct {
	Name   string
	Strict bool
	Schema map[string]any
}

// ResponseFormat selects the expected response format ("text",
// "json_object", or "json_schema" with an attached schema).
type ResponseFormat struct {
	Type       string
	JSONSchema *JSONSchema
}

// Request is a provider-agnostic completion request.
type Request struct {
	Model          string
	Messages       []Message
	ResponseFormat *ResponseFormat
	Temperature    *float64
	MaxTokens      *int
}

// Usage contains token usage statistics.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a provider-agnostic completion response.
type Response struct {
	Content      string
	FinishReason string
	Usage        *Usage
}

// Driver is implemented by completion providers.
type Driver interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req *Request) (*Response, error)
	// Name returns the driver identifier (e.g. "openai").
	Name() string
}
