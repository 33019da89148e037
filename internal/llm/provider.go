package llm

import (
	"context"
	"encoding/json"
)

// Provider is the text-completion service abstraction. Implementations
// send a prompt to a model and return its raw completion.
type Provider interface {
	// Generate sends the request and returns the completion. The
	// response Content is the raw model output; when req.Schema is set
	// the provider uses its structured-output mechanism and validates
	// the result against the schema.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the default model identifier for this provider.
	ModelID() string
}

// Request describes what to send to the model.
type Request struct {
	// System sets the model's role and constraints.
	System string

	// Messages is the conversation. Single-turn generation (the common
	// case here) carries one user message.
	Messages []Message

	// Model overrides the provider's default model when non-empty.
	// Accepts friendly names ("production"-tier or "test"-tier models)
	// or direct provider model IDs.
	Model string

	// Schema, when set, requests structured output conforming to it.
	// When nil the Content is whatever text the model produced.
	Schema *Schema

	MaxTokens int

	// Temperature controls randomness, 0.0–1.0. Zero means deterministic.
	Temperature float64
}

// Message is one turn of the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema defines the JSON structure expected from the model.
type Schema struct {
	// Name identifies the schema (tool name for Anthropic, schema name
	// for OpenAI). Kebab-case, e.g. "lesson-grading".
	Name string

	// Description is sent to the model to guide generation.
	Description string

	// Definition is the JSON Schema definition as a map.
	Definition map[string]any
}

// Response holds the model's output.
type Response struct {
	// Content is the completion text. With a Schema in the request this
	// is validated JSON; otherwise it is raw text that may still be
	// wrapped in code fences or prose.
	Content json.RawMessage

	// Usage reports token consumption for this request.
	Usage Usage

	// Model is the model that actually served the request.
	Model string
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
