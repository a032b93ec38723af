package provider

import (
	"context"
	"errors"

	"github.com/ganesh1082/query-to-pdf-sub000/config"
	openai_provider "github.com/ganesh1082/query-to-pdf-sub000/provider/openai"
)

// Client represents different LLM providers
type Client string

const (
	OpenAI    Client = "openai"
	Anthropic Client = "anthropic"
	Gemini    Client = "gemini"
)

// Provider is the interface that all LLM implementations must satisfy.
// Generate returns free-form text with no structural guarantee; callers
// that need structured data run the output through the recovery engine.
type Provider interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// IsTransient reports whether err is a retryable service failure such
// as a rate-limit response or a transient server error.
func IsTransient(err error) bool {
	var status openai_provider.ErrStatus
	return errors.As(err, &status) && status.Transient()
}

// NewProvider creates a new LLM client based on the provided configuration
func NewProvider(cfg config.LLMConfig) (Provider, error) {
	switch Client(cfg.Provider) {
	case OpenAI:
		if cfg.APIKey == "" {
			return nil, errors.New("llm.api_key not set")
		}
		return openai_provider.NewClient(
			cfg.APIKey,
			cfg.BaseURL,
			cfg.Model,
			cfg.Temperature,
			cfg.MaxTokens,
			cfg.Timeout,
		), nil
	case Anthropic:
		return nil, errors.New("anthropic client not implemented yet")
	case Gemini:
		return nil, errors.New("gemini client not implemented yet")
	default:
		return nil, errors.New("unsupported LLM provider")
	}
}
