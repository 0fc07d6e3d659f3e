package providers

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Registry holds references to LLM clients, image renderers, and speech
// clients. It supports config-driven instantiation, hot-reload, and
// thread-safe access.
type Registry struct {
	mu            sync.RWMutex
	llmClients    map[string]LLMClient
	renderers     map[string]ImageRenderer
	speechClients map[string]SpeechClient
	logger        *slog.Logger
}

// NewRegistry creates a new empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		llmClients:    make(map[string]LLMClient),
		renderers:     make(map[string]ImageRenderer),
		speechClients: make(map[string]SpeechClient),
		logger:        slog.Default(),
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger *slog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

// RegisterLLM registers an LLM client by name.
func (r *Registry) RegisterLLM(name string, client LLMClient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.llmClients[name] = client
	if r.logger != nil {
		r.logger.Info("registered LLM client", "name", name)
	}
}

// RegisterRenderer registers an image renderer by name.
func (r *Registry) RegisterRenderer(name string, renderer ImageRenderer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renderers[name] = renderer
	if r.logger != nil {
		r.logger.Info("registered image renderer", "name", name)
	}
}

// RegisterSpeech registers a speech client by name.
func (r *Registry) RegisterSpeech(name string, client SpeechClient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.speechClients[name] = client
	if r.logger != nil {
		r.logger.Info("registered speech client", "name", name)
	}
}

// GetLLM returns an LLM client by name.
func (r *Registry) GetLLM(name string) (LLMClient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.llmClients[name]
	if !ok {
		return nil, fmt.Errorf("LLM client not found: %s", name)
	}
	return client, nil
}

// GetRenderer returns an image renderer by name.
func (r *Registry) GetRenderer(name string) (ImageRenderer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	renderer, ok := r.renderers[name]
	if !ok {
		return nil, fmt.Errorf("image renderer not found: %s", name)
	}
	return renderer, nil
}

// GetSpeech returns a speech client by name.
func (r *Registry) GetSpeech(name string) (SpeechClient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.speechClients[name]
	if !ok {
		return nil, fmt.Errorf("speech client not found: %s", name)
	}
	return client, nil
}

// DefaultLLM returns the first registered LLM client, preferring openrouter.
func (r *Registry) DefaultLLM() (LLMClient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if client, ok := r.llmClients[OpenRouterName]; ok {
		return client, nil
	}
	for _, client := range r.llmClients {
		return client, nil
	}
	return nil, fmt.Errorf("no LLM clients registered")
}

// DefaultRenderer returns the first registered renderer, preferring runware.
func (r *Registry) DefaultRenderer() (ImageRenderer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if renderer, ok := r.renderers[RunwareName]; ok {
		return renderer, nil
	}
	for _, renderer := range r.renderers {
		return renderer, nil
	}
	return nil, fmt.Errorf("no image renderers registered")
}

// DefaultSpeech returns the first registered speech client, preferring openai.
func (r *Registry) DefaultSpeech() (SpeechClient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if client, ok := r.speechClients[OpenAISpeechName]; ok {
		return client, nil
	}
	for _, client := range r.speechClients {
		return client, nil
	}
	return nil, fmt.Errorf("no speech clients registered")
}

// ListLLM returns all registered LLM client names.
func (r *Registry) ListLLM() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.llmClients))
	for name := range r.llmClients {
		names = append(names, name)
	}
	return names
}

// ListRenderers returns all registered renderer names.
func (r *Registry) ListRenderers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.renderers))
	for name := range r.renderers {
		names = append(names, name)
	}
	return names
}

// ListSpeech returns all registered speech client names.
func (r *Registry) ListSpeech() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.speechClients))
	for name := range r.speechClients {
		names = append(names, name)
	}
	return names
}

// RegistryConfig defines the providers to instantiate from config.
type RegistryConfig struct {
	LLMProviders    map[string]LLMProviderConfig
	ImageProviders  map[string]ImageProviderConfig
	SpeechProviders map[string]SpeechProviderConfig
}

// LLMProviderConfig describes one LLM provider with its resolved API key.
type LLMProviderConfig struct {
	Type       string // "openrouter"
	Model      string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
	Enabled    bool
}

// ImageProviderConfig describes one image provider with its resolved API key.
type ImageProviderConfig struct {
	Type       string // "runware"
	Model      string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
	Enabled    bool
}

// SpeechProviderConfig describes one speech provider with its resolved API key.
type SpeechProviderConfig struct {
	Type    string // "openai"
	Model   string
	APIKey  string
	Voice   string
	Enabled bool
}

// NewRegistryFromConfig creates a registry with providers based on configuration.
// Only enabled providers with valid API keys will be registered.
func NewRegistryFromConfig(cfg RegistryConfig) *Registry {
	r := NewRegistry()
	r.Reload(cfg)
	return r
}

// Reload updates the registry based on new configuration.
// Providers that are no longer configured are unregistered.
func (r *Registry) Reload(cfg RegistryConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	wantLLM := make(map[string]bool)
	for name, provCfg := range cfg.LLMProviders {
		if !provCfg.Enabled || provCfg.APIKey == "" {
			continue
		}
		client := createLLMClient(provCfg)
		if client == nil {
			if r.logger != nil {
				r.logger.Warn("unknown LLM provider type", "name", name, "type", provCfg.Type)
			}
			continue
		}
		wantLLM[name] = true
		r.llmClients[name] = client
	}
	for name := range r.llmClients {
		if !wantLLM[name] && name != MockClientName {
			delete(r.llmClients, name)
		}
	}

	wantImage := make(map[string]bool)
	for name, provCfg := range cfg.ImageProviders {
		if !provCfg.Enabled {
			continue
		}
		renderer := createRenderer(provCfg)
		if renderer == nil {
			if r.logger != nil {
				r.logger.Warn("unknown image provider type", "name", name, "type", provCfg.Type)
			}
			continue
		}
		wantImage[name] = true
		r.renderers[name] = renderer
	}
	for name := range r.renderers {
		if !wantImage[name] && name != MockClientName {
			delete(r.renderers, name)
		}
	}

	wantSpeech := make(map[string]bool)
	for name, provCfg := range cfg.SpeechProviders {
		if !provCfg.Enabled || provCfg.APIKey == "" {
			continue
		}
		client := createSpeechClient(provCfg)
		if client == nil {
			if r.logger != nil {
				r.logger.Warn("unknown speech provider type", "name", name, "type", provCfg.Type)
			}
			continue
		}
		wantSpeech[name] = true
		r.speechClients[name] = client
	}
	for name := range r.speechClients {
		if !wantSpeech[name] {
			delete(r.speechClients, name)
		}
	}
}

func createLLMClient(cfg LLMProviderConfig) LLMClient {
	switch cfg.Type {
	case "openrouter":
		return NewOpenRouterClient(OpenRouterConfig{
			APIKey:       cfg.APIKey,
			DefaultModel: cfg.Model,
			Timeout:      cfg.Timeout,
			MaxRetries:   cfg.MaxRetries,
		})
	default:
		return nil
	}
}

func createRenderer(cfg ImageProviderConfig) ImageRenderer {
	switch cfg.Type {
	case "runware":
		// Runware works without an API key too: every render degrades to a
		// placeholder URL, which keeps development setups functional.
		return NewRunwareClient(RunwareConfig{
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			Timeout:    cfg.Timeout,
			MaxRetries: cfg.MaxRetries,
		})
	default:
		return nil
	}
}

func createSpeechClient(cfg SpeechProviderConfig) SpeechClient {
	switch cfg.Type {
	case "openai":
		return NewOpenAISpeechClient(OpenAISpeechConfig{
			APIKey: cfg.APIKey,
			Model:  cfg.Model,
			Voice:  cfg.Voice,
		})
	default:
		return nil
	}
}
