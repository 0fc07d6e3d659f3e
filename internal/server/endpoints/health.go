package endpoints

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/selahapp/selah/internal/api"
	"github.com/selahapp/selah/internal/svcctx"
)

// HealthResponse is the response for health check endpoints.
type HealthResponse struct {
	Status string `json:"status"`
	Cache  string `json:"cache,omitempty"`
}

// HealthEndpoint handles GET /health.
type HealthEndpoint struct{}

func (e *HealthEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/health", e.handler
}

func (e *HealthEndpoint) RequiresInit() bool { return false }

func (e *HealthEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func (e *HealthEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp HealthResponse
			if err := client.Get(cmd.Context(), "/health", &resp); err != nil {
				return err
			}
			fmt.Printf("Status: %s\n", resp.Status)
			return nil
		},
	}
}

// ReadyEndpoint handles GET /ready.
type ReadyEndpoint struct{}

func (e *ReadyEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/ready", e.handler
}

func (e *ReadyEndpoint) RequiresInit() bool { return false }

func (e *ReadyEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Cache: "ok"}

	store := svcctx.CacheStoreFrom(r.Context())
	if store == nil {
		resp.Status = "degraded"
		resp.Cache = "not_initialized"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	if _, err := store.Keys(r.Context()); err != nil {
		resp.Status = "degraded"
		resp.Cache = "unreachable"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (e *ReadyEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "ready",
		Short: "Check server readiness (includes cache backend)",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp HealthResponse
			if err := client.Get(cmd.Context(), "/ready", &resp); err != nil {
				return err
			}
			fmt.Printf("Status: %s\n", resp.Status)
			if resp.Cache != "" {
				fmt.Printf("Cache:  %s\n", resp.Cache)
			}
			return nil
		},
	}
}

// StatusResponse is the detailed status response.
type StatusResponse struct {
	Server    string          `json:"server"`
	Providers ProvidersStatus `json:"providers"`
	Cache     CacheStatus     `json:"cache"`
}

// ProvidersStatus shows registered LLM, image and speech providers.
type ProvidersStatus struct {
	LLM    []string `json:"llm"`
	Image  []string `json:"image"`
	Speech []string `json:"speech"`
}

// CacheStatus shows cache backend and entry count.
type CacheStatus struct {
	Backend string `json:"backend"`
	Entries int    `json:"entries"`
}

// StatusEndpoint handles GET /status.
type StatusEndpoint struct{}

func (e *StatusEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/status", e.handler
}

func (e *StatusEndpoint) RequiresInit() bool { return false }

func (e *StatusEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Server: "running",
	}

	registry := svcctx.RegistryFrom(r.Context())
	if registry != nil {
		resp.Providers.LLM = registry.ListLLM()
		resp.Providers.Image = registry.ListRenderers()
		resp.Providers.Speech = registry.ListSpeech()
	}

	cfgMgr := svcctx.ConfigManagerFrom(r.Context())
	if cfgMgr != nil {
		resp.Cache.Backend = cfgMgr.Get().Cache.Backend
	}
	store := svcctx.CacheStoreFrom(r.Context())
	if store != nil {
		if keys, err := store.Keys(r.Context()); err == nil {
			resp.Cache.Entries = len(keys)
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (e *StatusEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Get detailed server status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp StatusResponse
			if err := client.Get(cmd.Context(), "/status", &resp); err != nil {
				return err
			}
			fmt.Printf("Server: %s\n", resp.Server)
			fmt.Printf("Cache:\n")
			fmt.Printf("  Backend: %s\n", resp.Cache.Backend)
			fmt.Printf("  Entries: %d\n", resp.Cache.Entries)
			fmt.Printf("Providers:\n")
			fmt.Printf("  LLM:    %v\n", resp.Providers.LLM)
			fmt.Printf("  Image:  %v\n", resp.Providers.Image)
			fmt.Printf("  Speech: %v\n", resp.Providers.Speech)
			return nil
		},
	}
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ErrorResponse is a standard error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
