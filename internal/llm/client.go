package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/subscription-sentinel/internal/common"
)

// Client generates a completion for a single prompt.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Config holds provider settings shared by all clients.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	Timeout     time.Duration
	RetryDelay  time.Duration
	RateLimit   int
	MaxRetries  int
	MaxTokens   int
	Temperature float64
}

// systemPrompt is shared by every provider.
const systemPrompt = "You are a personal finance assistant that explains subscription alerts. " +
	"You MUST respond with ONLY a valid JSON object. Do not include any explanatory text, " +
	"markdown formatting, or commentary before or after the JSON."

func (cfg Config) withDefaults(p provider) Config {
	if cfg.Model == "" {
		cfg.Model = p.defaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = p.defaultBaseURL
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.3
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 500
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 500 * time.Millisecond
	}
	return cfg
}

// NewClient returns a client for cfg.Provider (openai or anthropic, any case).
func NewClient(cfg Config) (Client, error) {
	p, ok := providers[strings.ToLower(cfg.Provider)]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported LLM provider %q", common.ErrInvalidConfig, cfg.Provider)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: %s API key is required", common.ErrMissingConfig, p.name)
	}
	cfg = cfg.withDefaults(p)

	return &client{
		transport: newTransport(cfg),
		provider:  p,
		apiKey:    cfg.APIKey,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		params: requestParams{
			model:       cfg.Model,
			temperature: cfg.Temperature,
			maxTokens:   cfg.MaxTokens,
		},
	}, nil
}

// client speaks one provider's completion API over the shared transport.
type client struct {
	transport
	provider provider
	apiKey   string
	baseURL  string
	params   requestParams
}

func (c *client) Complete(ctx context.Context, prompt string) (string, error) {
	var raw json.RawMessage
	url := c.baseURL + c.provider.path
	if err := c.postJSON(ctx, url, c.provider.headers(c.apiKey), c.provider.request(c.params, prompt), &raw); err != nil {
		return "", fmt.Errorf("%s completion failed: %w", c.provider.name, err)
	}
	return c.provider.text(raw)
}
