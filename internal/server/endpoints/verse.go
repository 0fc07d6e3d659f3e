package endpoints

import (
	"encoding/json"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/selahapp/selah/internal/api"
	"github.com/selahapp/selah/internal/svcctx"
	"github.com/selahapp/selah/internal/verse"
)

// ResolveVerseRequest is the request body for POST /api/generate-verse.
type ResolveVerseRequest struct {
	Source string `json:"source"`
}

// ResolveVerseEndpoint handles POST /api/generate-verse. It resolves a
// source (reference, theme, or verse-of-the-day provider) to a verse.
type ResolveVerseEndpoint struct{}

func (e *ResolveVerseEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/generate-verse", e.handler
}

func (e *ResolveVerseEndpoint) RequiresInit() bool { return true }

func (e *ResolveVerseEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req ResolveVerseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Source == "" {
		writeError(w, http.StatusBadRequest, "source is required")
		return
	}

	resolver := svcctx.ResolverFrom(r.Context())
	if resolver == nil {
		writeError(w, http.StatusServiceUnavailable, "verse resolver not available")
		return
	}

	resolution, err := resolver.Resolve(r.Context(), req.Source)
	if err != nil {
		writeError(w, http.StatusBadGateway, "resolving verse: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, resolution)
}

func (e *ResolveVerseEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "verse <source>",
		Short: "Resolve a verse source to its reference and text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resolution verse.Resolution
			if err := client.Post(cmd.Context(), "/api/generate-verse", ResolveVerseRequest{Source: args[0]}, &resolution); err != nil {
				return err
			}
			return api.Output(resolution)
		},
	}
}
