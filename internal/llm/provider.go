package llm

import (
	"fmt"
	"time"
)

// Options selects and configures a backend
type Options struct {
	Provider    string
	URL         string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// Providers lists the accepted Options.Provider values
var Providers = []string{ProviderCompat, ProviderGoOpenAI, ProviderOpenAI}

// NewBackend builds the backend named by opts.Provider. An empty provider
// selects the plain HTTP client.
func NewBackend(opts Options) (Backend, error) {
	switch opts.Provider {
	case "", ProviderCompat:
		client := NewClient(opts.URL, opts.APIKey, opts.Model, opts.MaxTokens, opts.Temperature)
		if opts.Timeout > 0 {
			client.httpClient.Timeout = opts.Timeout
		}
		return client, nil
	case ProviderGoOpenAI:
		return NewGoOpenAIBackend(opts.URL, opts.APIKey, opts.Model, opts.MaxTokens, opts.Temperature, opts.Timeout), nil
	case ProviderOpenAI:
		return NewOpenAIBackend(opts.URL, opts.APIKey, opts.Model, opts.MaxTokens, opts.Temperature, opts.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q (want one of %v)", opts.Provider, Providers)
	}
}

// New builds a Service around the configured backend
func New(opts Options) (*Service, error) {
	backend, err := NewBackend(opts)
	if err != nil {
		return nil, err
	}
	return NewService(backend, opts.Timeout), nil
}
