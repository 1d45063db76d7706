package anthropic

const (
	defaultModel     = "claude-3-5-haiku-latest"
	defaultMaxTokens = 1024
)

// Config holds the compactor.anthropic module configuration.
type Config struct {
	// Model is the Anthropic model ID used for summaries.
	Model string `yaml:"model"`

	// APIKey overrides the ANTHROPIC_API_KEY environment variable.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the API endpoint (for proxies and tests).
	BaseURL string `yaml:"base_url"`

	// MaxTokens caps the summary length. Defaults to 1024.
	MaxTokens int `yaml:"max_tokens"`

	// MaxRetries is the SDK-level retry count. Defaults to 2: a failed
	// summary only goes stale until the next overflow, so aggressive
	// retrying buys little.
	MaxRetries int `yaml:"max_retries"`
}

func (c *Config) defaults() {
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = defaultMaxTokens
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 2
	}
}
