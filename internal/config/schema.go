package config

import "time"

// Config holds selah configuration.
// Stored at: config.yaml (or $HOME/.selah/config.yaml)
type Config struct {
	LLMProviders    map[string]LLMProviderCfg    `mapstructure:"llm_providers" yaml:"llm_providers"`
	ImageProviders  map[string]ImageProviderCfg  `mapstructure:"image_providers" yaml:"image_providers"`
	SpeechProviders map[string]SpeechProviderCfg `mapstructure:"speech_providers" yaml:"speech_providers"`
	Defaults        DefaultsCfg                  `mapstructure:"defaults" yaml:"defaults"`
	Cache           CacheCfg                     `mapstructure:"cache" yaml:"cache"`
	Server          ServerCfg                    `mapstructure:"server" yaml:"server"`
}

// LLMProviderCfg configures an LLM provider.
type LLMProviderCfg struct {
	Type    string        `mapstructure:"type" yaml:"type"`       // "openrouter"
	Model   string        `mapstructure:"model" yaml:"model"`     // Model name
	APIKey  string        `mapstructure:"api_key" yaml:"api_key"` // API key (supports ${ENV_VAR} syntax)
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Enabled bool          `mapstructure:"enabled" yaml:"enabled"`
}

// ImageProviderCfg configures an image-generation provider.
type ImageProviderCfg struct {
	Type       string `mapstructure:"type" yaml:"type"`   // "runware"
	Model      string `mapstructure:"model" yaml:"model"` // Model identifier
	APIKey     string `mapstructure:"api_key" yaml:"api_key"`
	MaxRetries int    `mapstructure:"max_retries" yaml:"max_retries"`
	Enabled    bool   `mapstructure:"enabled" yaml:"enabled"`
}

// SpeechProviderCfg configures a text-to-speech provider.
type SpeechProviderCfg struct {
	Type    string `mapstructure:"type" yaml:"type"` // "openai"
	Model   string `mapstructure:"model" yaml:"model"`
	APIKey  string `mapstructure:"api_key" yaml:"api_key"`
	Voice   string `mapstructure:"voice" yaml:"voice"`
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
}

// DefaultsCfg specifies default provider selections.
type DefaultsCfg struct {
	LLMProvider    string `mapstructure:"llm_provider" yaml:"llm_provider"`
	ImageProvider  string `mapstructure:"image_provider" yaml:"image_provider"`
	SpeechProvider string `mapstructure:"speech_provider" yaml:"speech_provider"`
}

// CacheCfg selects and configures the bundle cache backend.
type CacheCfg struct {
	// Backend is "memory" or "redis".
	Backend       string `mapstructure:"backend" yaml:"backend"`
	RedisAddr     string `mapstructure:"redis_addr" yaml:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password" yaml:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db" yaml:"redis_db"`
}

// ServerCfg holds HTTP server settings.
type ServerCfg struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LLMProviders: map[string]LLMProviderCfg{
			"openrouter": {
				Type:    "openrouter",
				Model:   "google/gemini-2.0-flash-001",
				APIKey:  "${OPENROUTER_API_KEY}",
				Enabled: true,
			},
		},
		ImageProviders: map[string]ImageProviderCfg{
			"runware": {
				Type:    "runware",
				Model:   "runware:101@1",
				APIKey:  "${RUNWARE_API_KEY}",
				Enabled: true,
			},
		},
		SpeechProviders: map[string]SpeechProviderCfg{
			"openai": {
				Type:    "openai",
				APIKey:  "${OPENAI_API_KEY}",
				Voice:   "onyx",
				Enabled: true,
			},
		},
		Defaults: DefaultsCfg{
			LLMProvider:    "openrouter",
			ImageProvider:  "runware",
			SpeechProvider: "openai",
		},
		Cache: CacheCfg{
			Backend:   "memory",
			RedisAddr: "localhost:6379",
		},
		Server: ServerCfg{
			Host: "127.0.0.1",
			Port: 8475,
		},
	}
}

// GetLLMProvider returns an LLM provider config by name.
func (c *Config) GetLLMProvider(name string) (LLMProviderCfg, bool) {
	cfg, ok := c.LLMProviders[name]
	return cfg, ok
}

// EnabledLLMProviders returns all enabled LLM providers.
func (c *Config) EnabledLLMProviders() map[string]LLMProviderCfg {
	result := make(map[string]LLMProviderCfg)
	for name, cfg := range c.LLMProviders {
		if cfg.Enabled {
			result[name] = cfg
		}
	}
	return result
}
