package classifier

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// ProviderName selects the vision model backend.
type ProviderName string

const (
	ProviderOpenAI    ProviderName = "openai"
	ProviderAzure     ProviderName = "azure"
	ProviderAnthropic ProviderName = "anthropic"
	ProviderGemini    ProviderName = "gemini"
)

const (
	defaultAPIVersion = "2024-02-15-preview"
	defaultOpenAIURL  = "https://api.openai.com/v1"
)

var defaultModels = map[ProviderName]string{
	ProviderOpenAI:    "gpt-4o",
	ProviderAzure:     "gpt-4o",
	ProviderAnthropic: "claude-sonnet-4-5",
	ProviderGemini:    "gemini-2.5-flash",
}

// Config holds classifier provider settings and request parameters.
// Zero numeric values take defaults; RateLimit of zero disables throttling.
type Config struct {
	Provider      ProviderName `toml:"provider"`
	Endpoint      string       `toml:"endpoint"`
	APIKey        string       `toml:"api_key"`
	Model         string       `toml:"model"`
	Deployment    string       `toml:"deployment"`
	APIVersion    string       `toml:"api_version"`
	Temperature   float64      `toml:"temperature"`
	MaxTokens     int          `toml:"max_tokens"`
	Detail        string       `toml:"detail"`
	Timeout       string       `toml:"timeout"`
	MaxCandidates int          `toml:"max_candidates"`
	RateLimit     float64      `toml:"rate_limit"`
	Burst         int          `toml:"burst"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Provider      string
	Endpoint      string
	APIKey        string
	Model         string
	Deployment    string
	APIVersion    string
	Temperature   string
	MaxTokens     string
	Detail        string
	Timeout       string
	MaxCandidates string
	RateLimit     string
	Burst         string
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	c.loadProviderDefaults()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Provider != "" {
		c.Provider = overlay.Provider
	}
	for dst, v := range map[*string]string{
		&c.Endpoint:   overlay.Endpoint,
		&c.APIKey:     overlay.APIKey,
		&c.Model:      overlay.Model,
		&c.Deployment: overlay.Deployment,
		&c.APIVersion: overlay.APIVersion,
		&c.Detail:     overlay.Detail,
		&c.Timeout:    overlay.Timeout,
	} {
		if v != "" {
			*dst = v
		}
	}
	if overlay.Temperature > 0 {
		c.Temperature = overlay.Temperature
	}
	if overlay.MaxTokens > 0 {
		c.MaxTokens = overlay.MaxTokens
	}
	if overlay.MaxCandidates > 0 {
		c.MaxCandidates = overlay.MaxCandidates
	}
	if overlay.RateLimit > 0 {
		c.RateLimit = overlay.RateLimit
	}
	if overlay.Burst > 0 {
		c.Burst = overlay.Burst
	}
}

func (c *Config) loadDefaults() {
	if c.Provider == "" {
		c.Provider = ProviderOpenAI
	}
	if c.Temperature <= 0 {
		c.Temperature = 0.1
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 1000
	}
	if c.Detail == "" {
		c.Detail = "low"
	}
	if c.Timeout == "" {
		c.Timeout = "60s"
	}
	if c.MaxCandidates <= 0 {
		c.MaxCandidates = 3
	}
	if c.Burst <= 0 {
		c.Burst = 1
	}
}

func (c *Config) loadEnv(env *Env) {
	if v := lookup(env.Provider); v != "" {
		c.Provider = ProviderName(v)
	}
	for dst, name := range map[*string]string{
		&c.Endpoint:   env.Endpoint,
		&c.APIKey:     env.APIKey,
		&c.Model:      env.Model,
		&c.Deployment: env.Deployment,
		&c.APIVersion: env.APIVersion,
		&c.Detail:     env.Detail,
		&c.Timeout:    env.Timeout,
	} {
		if v := lookup(name); v != "" {
			*dst = v
		}
	}
	if v := lookup(env.Temperature); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Temperature = f
		}
	}
	if v := lookup(env.RateLimit); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.RateLimit = f
		}
	}
	for dst, name := range map[*int]string{
		&c.MaxTokens:     env.MaxTokens,
		&c.MaxCandidates: env.MaxCandidates,
		&c.Burst:         env.Burst,
	} {
		if v := lookup(name); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
}

func (c *Config) loadProviderDefaults() {
	if c.Model == "" {
		c.Model = defaultModels[c.Provider]
	}
	switch c.Provider {
	case ProviderOpenAI:
		if c.Endpoint == "" {
			c.Endpoint = defaultOpenAIURL
		}
	case ProviderAzure:
		if c.APIVersion == "" {
			c.APIVersion = defaultAPIVersion
		}
		if c.Deployment == "" {
			c.Deployment = c.Model
		}
	}
}

func (c *Config) validate() error {
	if _, ok := defaultModels[c.Provider]; !ok {
		return fmt.Errorf("unknown classifier provider %q", c.Provider)
	}
	if c.Provider == ProviderAzure && c.Endpoint == "" {
		return fmt.Errorf("endpoint required for azure provider")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("invalid temperature %v: must be within [0,2]", c.Temperature)
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("max_tokens must be positive")
	}
	if c.MaxCandidates <= 0 {
		return fmt.Errorf("max_candidates must be positive")
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate_limit must not be negative")
	}
	if c.Burst <= 0 {
		return fmt.Errorf("burst must be positive")
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}

func lookup(name string) string {
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}
