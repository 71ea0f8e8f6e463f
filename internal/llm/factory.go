package llm

import (
	"fmt"
	"os"
)

const deepseekBaseURL = "https://api.deepseek.com/v1"

// NewProvider creates a new LLM provider based on the given provider
// type and model. Supported provider types: "deepseek", "openai". An
// empty apiKey falls back to the provider's conventional environment
// variable; a non-empty baseURL overrides the provider default.
func NewProvider(providerType, apiKey, baseURL, model string) (StreamProvider, error) {
	switch providerType {
	case "deepseek":
		if apiKey == "" {
			apiKey = os.Getenv("DEEPSEEK_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("DEEPSEEK_API_KEY environment variable is not set")
		}
		if baseURL == "" {
			baseURL = deepseekBaseURL
		}
		return NewOpenAIProvider("deepseek", apiKey, baseURL, model), nil

	case "openai":
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
		}
		return NewOpenAIProvider("openai", apiKey, baseURL, model), nil

	default:
		return nil, fmt.Errorf("unsupported provider type: %s", providerType)
	}
}
