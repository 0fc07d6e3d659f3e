package endpoints

import (
	"encoding/json"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/selahapp/selah/internal/api"
	"github.com/selahapp/selah/internal/providers"
	"github.com/selahapp/selah/internal/svcctx"
)

// GenerateImageRequest is the request body for POST /api/generate-image.
type GenerateImageRequest struct {
	Prompt   string `json:"prompt"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
	AgeRange string `json:"ageRange,omitempty"`
}

// GenerateImageResponse carries the rendered image URL. Placeholder is set
// when rendering failed and a placeholder URL was substituted.
type GenerateImageResponse struct {
	ImageURL    string `json:"imageUrl"`
	Placeholder bool   `json:"placeholder,omitempty"`
	Provider    string `json:"provider,omitempty"`
}

// GenerateImageEndpoint handles POST /api/generate-image.
type GenerateImageEndpoint struct{}

func (e *GenerateImageEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/generate-image", e.handler
}

func (e *GenerateImageEndpoint) RequiresInit() bool { return true }

func (e *GenerateImageEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req GenerateImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Prompt == "" {
		writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}
	if req.Width <= 0 {
		req.Width = 512
	}
	if req.Height <= 0 {
		req.Height = 512
	}

	registry := svcctx.RegistryFrom(r.Context())
	if registry == nil {
		writeError(w, http.StatusServiceUnavailable, "provider registry not available")
		return
	}
	renderer, err := registry.DefaultRenderer()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "no image provider configured")
		return
	}

	result, err := renderer.Render(r.Context(), &providers.ImageRequest{
		Prompt:   req.Prompt,
		Width:    req.Width,
		Height:   req.Height,
		AgeRange: req.AgeRange,
	})
	if err != nil || result == nil || result.URL == "" {
		// Rendering never hard-fails the caller. Hand back a placeholder
		// like every other image path does.
		writeJSON(w, http.StatusOK, GenerateImageResponse{
			ImageURL:    providers.PlaceholderURL(req.Prompt, req.Width, req.Height),
			Placeholder: true,
		})
		return
	}

	writeJSON(w, http.StatusOK, GenerateImageResponse{
		ImageURL:    result.URL,
		Placeholder: result.Placeholder,
		Provider:    result.Provider,
	})
}

func (e *GenerateImageEndpoint) Command(getServerURL func() string) *cobra.Command {
	var width, height int
	var ageRange string
	cmd := &cobra.Command{
		Use:   "image <prompt>",
		Short: "Render an image from a prompt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			req := GenerateImageRequest{Prompt: args[0], Width: width, Height: height, AgeRange: ageRange}
			var resp GenerateImageResponse
			if err := client.Post(cmd.Context(), "/api/generate-image", req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().IntVar(&width, "width", 512, "Image width in pixels")
	cmd.Flags().IntVar(&height, "height", 512, "Image height in pixels")
	cmd.Flags().StringVar(&ageRange, "age", "", "Age range for visual styling")
	return cmd
}
