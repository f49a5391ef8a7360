package ai

import (
	"context"
	"time"
)

// Capability is the external classification service. Generate returns the
// raw structured payload, which may be empty. Ping returns the free text
// reply to a fixed probe prompt.
type Capability interface {
	Generate(ctx context.Context, req CapabilityRequest) ([]byte, error)
	Ping(ctx context.Context) (string, error)
}

type CapabilityRequest struct {
	Data     []byte
	MimeType string
	Prompt   string
	// Schema is the structured-output descriptor. Nil requests free text.
	Schema map[string]any
}

type Config struct {
	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string
	Timeout       time.Duration
}

func NewConfig() *Config {
	return &Config{
		GeminiModel:   defaultGeminiModel,
		GeminiBaseURL: defaultGeminiBaseURL,
		Timeout:       5 * time.Minute,
	}
}

const probePrompt = "Hello, this is a connection test. Please respond with 'Connection successful'."
