package endpoints

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/selahapp/selah/internal/api"
	"github.com/selahapp/selah/internal/cache"
	"github.com/selahapp/selah/internal/svcctx"
)

// CacheKeysResponse lists keys under the current cache version.
type CacheKeysResponse struct {
	Version string   `json:"version"`
	Keys    []string `json:"keys"`
}

// ListCacheKeysEndpoint handles GET /api/cache.
type ListCacheKeysEndpoint struct{}

func (e *ListCacheKeysEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/cache", e.handler
}

func (e *ListCacheKeysEndpoint) RequiresInit() bool { return true }

func (e *ListCacheKeysEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	store := svcctx.CacheStoreFrom(r.Context())
	if store == nil {
		writeError(w, http.StatusServiceUnavailable, "cache store not available")
		return
	}

	keys, err := store.Keys(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if keys == nil {
		keys = []string{}
	}

	writeJSON(w, http.StatusOK, CacheKeysResponse{Version: cache.Version, Keys: keys})
}

func (e *ListCacheKeysEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "cache-keys",
		Short: "List cached devotional keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp CacheKeysResponse
			if err := client.Get(cmd.Context(), "/api/cache", &resp); err != nil {
				return err
			}
			fmt.Printf("Version: %s\n", resp.Version)
			for _, key := range resp.Keys {
				fmt.Println(key)
			}
			return nil
		},
	}
}

// ClearCacheEndpoint handles DELETE /api/cache.
type ClearCacheEndpoint struct{}

func (e *ClearCacheEndpoint) Route() (string, string, http.HandlerFunc) {
	return "DELETE", "/api/cache", e.handler
}

func (e *ClearCacheEndpoint) RequiresInit() bool { return true }

func (e *ClearCacheEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	store := svcctx.CacheStoreFrom(r.Context())
	if store == nil {
		writeError(w, http.StatusServiceUnavailable, "cache store not available")
		return
	}

	if err := store.Purge(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "purged"})
}

func (e *ClearCacheEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "cache-clear",
		Short: "Purge all cached devotionals for the current version",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			if err := client.Delete(cmd.Context(), "/api/cache"); err != nil {
				return err
			}
			fmt.Println("Cache purged")
			return nil
		},
	}
}
