// Package config loads ytdigest settings from an optional YAML file and
// the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
)

// Supported LLM providers.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Model tasks.
const (
	TaskAnalysis       = "analysis"
	TaskSimplification = "simplification"
)

// Providers lists the supported providers in display order.
var Providers = []string{ProviderOpenAI, ProviderGemini}

var defaultModels = map[string]string{
	ProviderOpenAI: "gpt-4o",
	ProviderGemini: "gemini-1.5-flash",
}

var (
	// ErrUnknownProvider is returned for a provider name other than openai or gemini.
	ErrUnknownProvider = errors.New("unsupported provider")

	// ErrMissingAPIKey is returned when a provider's key is blank or still the placeholder.
	ErrMissingAPIKey = errors.New("api key is required")

	// ErrInvalid is returned by Validate for an out-of-range setting.
	ErrInvalid = errors.New("invalid config")
)

// Config holds all ytdigest settings.
type Config struct {
	Provider  string         `yaml:"provider"`
	OpenAI    ProviderConfig `yaml:"openai"`
	Gemini    ProviderConfig `yaml:"gemini"`
	Node      NodeConfig     `yaml:"node"`
	OutputDir string         `yaml:"output_dir"`
	MaxTopics int            `yaml:"max_topics"`
	Log       LogConfig      `yaml:"log"`
}

// ProviderConfig holds the credentials and model choices for one provider.
type ProviderConfig struct {
	APIKey              string  `yaml:"api_key"`
	Model               string  `yaml:"model"`
	AnalysisModel       string  `yaml:"analysis_model"`
	SimplificationModel string  `yaml:"simplification_model"`
	BaseURL             string  `yaml:"base_url"`
	MaxTokens           int     `yaml:"max_tokens"`
	Temperature         float32 `yaml:"temperature"`
}

// NodeConfig holds the retry settings applied to every pipeline node.
type NodeConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	Wait        time.Duration `yaml:"wait"`
}

// LogConfig configures the application logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// Default returns the built-in settings. Load starts from these, so a
// value set explicitly in the file or environment, zero included, is kept.
func Default() *Config {
	provider := ProviderConfig{MaxTokens: 1024, Temperature: 0.7}
	return &Config{
		Provider:  ProviderOpenAI,
		OpenAI:    provider,
		Gemini:    provider,
		Node:      NodeConfig{MaxAttempts: 2, Wait: 10 * time.Second},
		OutputDir: "output",
		MaxTopics: 5,
		Log:       LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads the YAML file at path over Default, applies environment
// overrides, then overrides in order, and validates the result. An empty
// path skips the file.
func Load(path string, overrides ...func(*Config)) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	for _, override := range overrides {
		override(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides settings with the non-empty environment variables
// returned by getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}

	set(&c.Provider, "LLM_PROVIDER")
	for prefix, p := range map[string]*ProviderConfig{"OPENAI": &c.OpenAI, "GEMINI": &c.Gemini} {
		set(&p.APIKey, prefix+"_API_KEY")
		set(&p.Model, prefix+"_MODEL")
		set(&p.AnalysisModel, prefix+"_ANALYSIS_MODEL")
		set(&p.SimplificationModel, prefix+"_SIMPLIFICATION_MODEL")
		set(&p.BaseURL, prefix+"_BASE_URL")
	}
	set(&c.OutputDir, "YTDIGEST_OUTPUT_DIR")
	set(&c.Log.Level, "YTDIGEST_LOG_LEVEL")

	if v := strings.TrimSpace(getenv("YTDIGEST_MAX_TOPICS")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid YTDIGEST_MAX_TOPICS %q: %w", v, err)
		}
		c.MaxTopics = n
	}
	return nil
}

// Validate normalizes the provider name and rejects out-of-range values.
// Blank strings fall back to their defaults; numbers are taken as given.
func (c *Config) Validate() error {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if c.Provider == "" {
		c.Provider = ProviderOpenAI
	}
	if _, ok := defaultModels[c.Provider]; !ok {
		return fmt.Errorf("%w: %s (supported: %s)", ErrUnknownProvider, c.Provider, strings.Join(Providers, ", "))
	}

	for _, name := range Providers {
		p, _ := c.ProviderConfig(name)
		if p.MaxTokens < 1 {
			return fmt.Errorf("%w: %s.max_tokens must be at least 1, got %d", ErrInvalid, name, p.MaxTokens)
		}
		if p.Temperature < 0 || p.Temperature > 2 {
			return fmt.Errorf("%w: %s.temperature must be within [0, 2], got %v", ErrInvalid, name, p.Temperature)
		}
	}

	if c.Node.MaxAttempts < 1 {
		return fmt.Errorf("%w: node.max_attempts must be at least 1, got %d", ErrInvalid, c.Node.MaxAttempts)
	}
	if c.Node.Wait < 0 {
		return fmt.Errorf("%w: node.wait must not be negative, got %s", ErrInvalid, c.Node.Wait)
	}
	if c.MaxTopics < 1 {
		return fmt.Errorf("%w: max_topics must be at least 1, got %d", ErrInvalid, c.MaxTopics)
	}

	def := Default()
	if c.OutputDir == "" {
		c.OutputDir = def.OutputDir
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = def.Log.Format
	}
	return nil
}

// ProviderConfig returns the settings for the named provider.
func (c *Config) ProviderConfig(provider string) (*ProviderConfig, error) {
	switch strings.ToLower(provider) {
	case ProviderOpenAI:
		return &c.OpenAI, nil
	case ProviderGemini:
		return &c.Gemini, nil
	}
	return nil, fmt.Errorf("%w: %s (supported: %s)", ErrUnknownProvider, provider, strings.Join(Providers, ", "))
}

// CheckProvider reports whether the named provider has a usable API key.
func (c *Config) CheckProvider(provider string) error {
	p, err := c.ProviderConfig(provider)
	if err != nil {
		return err
	}
	name := strings.ToLower(provider)
	key := strings.TrimSpace(p.APIKey)
	if key == "" || key == "your_"+name+"_api_key_here" {
		return fmt.Errorf("%w: set %s_API_KEY for %s", ErrMissingAPIKey, strings.ToUpper(name), name)
	}
	return nil
}

// ModelFor picks the model for a task: the task-specific model, then the
// provider's general model, then the built-in default. Unknown tasks use
// the general model.
func (c *Config) ModelFor(provider, task string) string {
	p, err := c.ProviderConfig(provider)
	if err != nil {
		return ""
	}
	switch task {
	case TaskAnalysis:
		if p.AnalysisModel != "" {
			return p.AnalysisModel
		}
	case TaskSimplification:
		if p.SimplificationModel != "" {
			return p.SimplificationModel
		}
	}
	if p.Model != "" {
		return p.Model
	}
	return defaultModels[strings.ToLower(provider)]
}
