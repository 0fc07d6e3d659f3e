// Package svcctx provides service context for dependency injection via context.
// This package is separate from server to avoid import cycles with endpoints.
package svcctx

import (
	"context"
	"log/slog"

	"github.com/selahapp/selah/internal/cache"
	"github.com/selahapp/selah/internal/config"
	"github.com/selahapp/selah/internal/content"
	"github.com/selahapp/selah/internal/devotional"
	"github.com/selahapp/selah/internal/providers"
	"github.com/selahapp/selah/internal/verse"
)

// Services holds all core services that flow through context.
// Components extract what they need via the individual extractors.
type Services struct {
	Registry      *providers.Registry
	Orchestrator  *devotional.Orchestrator
	Provider      content.Provider
	Resolver      *verse.Resolver
	CacheStore    cache.Store
	ConfigManager *config.Manager
	Logger        *slog.Logger
}

type servicesKey struct{}

// WithServices returns a new context with services attached.
func WithServices(ctx context.Context, s *Services) context.Context {
	return context.WithValue(ctx, servicesKey{}, s)
}

// ServicesFrom extracts the full Services struct from context.
// Returns nil if not present.
func ServicesFrom(ctx context.Context) *Services {
	s, _ := ctx.Value(servicesKey{}).(*Services)
	return s
}

// RegistryFrom extracts the provider registry from context.
func RegistryFrom(ctx context.Context) *providers.Registry {
	if s := ServicesFrom(ctx); s != nil {
		return s.Registry
	}
	return nil
}

// OrchestratorFrom extracts the devotional orchestrator from context.
func OrchestratorFrom(ctx context.Context) *devotional.Orchestrator {
	if s := ServicesFrom(ctx); s != nil {
		return s.Orchestrator
	}
	return nil
}

// ProviderFrom extracts the content provider from context.
func ProviderFrom(ctx context.Context) content.Provider {
	if s := ServicesFrom(ctx); s != nil {
		return s.Provider
	}
	return nil
}

// ResolverFrom extracts the verse resolver from context.
func ResolverFrom(ctx context.Context) *verse.Resolver {
	if s := ServicesFrom(ctx); s != nil {
		return s.Resolver
	}
	return nil
}

// CacheStoreFrom extracts the bundle cache store from context.
func CacheStoreFrom(ctx context.Context) cache.Store {
	if s := ServicesFrom(ctx); s != nil {
		return s.CacheStore
	}
	return nil
}

// ConfigManagerFrom extracts the config manager from context.
func ConfigManagerFrom(ctx context.Context) *config.Manager {
	if s := ServicesFrom(ctx); s != nil {
		return s.ConfigManager
	}
	return nil
}

// LoggerFrom extracts the logger from context.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if s := ServicesFrom(ctx); s != nil {
		return s.Logger
	}
	return nil
}
