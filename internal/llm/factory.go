package llm

import (
	"fmt"
	"net/http"

	"github.com/tianputao/data-pipeline-agent/internal/infra"
)

// FromConfig builds the extractor selected by LLM_PROVIDER. A nil extractor
// with a nil error means the model step is disabled (provider "none" or an
// azure provider without credentials) and synthesis runs text-only.
func FromConfig(cfg *infra.Config) (*Extractor, error) {
	httpClient := &http.Client{Timeout: cfg.LLMTimeout}

	switch cfg.LLMProvider {
	case "none":
		return nil, nil
	case "azure_openai":
		if cfg.AzureOpenAIEndpoint == "" || cfg.AzureOpenAIKey == "" || cfg.AzureOpenAIDeployment == "" {
			return nil, nil
		}
		chat, err := NewAzureClient(AzureOptions{
			Endpoint:   cfg.AzureOpenAIEndpoint,
			APIKey:     cfg.AzureOpenAIKey,
			Deployment: cfg.AzureOpenAIDeployment,
			HTTPClient: httpClient,
		})
		if err != nil {
			return nil, err
		}
		return NewExtractor(chat)
	case "local":
		chat, err := NewLocalClient(LocalOptions{
			Endpoint:   cfg.LocalLLMEndpoint,
			Model:      cfg.LocalLLMModel,
			HTTPClient: httpClient,
		})
		if err != nil {
			return nil, err
		}
		return NewExtractor(chat)
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.LLMProvider)
	}
}
