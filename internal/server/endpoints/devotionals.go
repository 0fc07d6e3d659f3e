package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/selahapp/selah/internal/api"
	"github.com/selahapp/selah/internal/cache"
	"github.com/selahapp/selah/internal/content"
	"github.com/selahapp/selah/internal/devotional"
	"github.com/selahapp/selah/internal/svcctx"
)

// GenerateDevotionalRequest is the request body for POST /api/devotionals.
type GenerateDevotionalRequest struct {
	Source  string          `json:"source"`
	Profile content.Profile `json:"profile"`
}

// GenerateDevotionalEndpoint handles POST /api/devotionals. It streams
// generation progress as newline-delimited JSON events.
type GenerateDevotionalEndpoint struct{}

func (e *GenerateDevotionalEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/devotionals", e.handler
}

func (e *GenerateDevotionalEndpoint) RequiresInit() bool { return true }

func (e *GenerateDevotionalEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req GenerateDevotionalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Source == "" {
		writeError(w, http.StatusBadRequest, "source is required")
		return
	}

	orch := svcctx.OrchestratorFrom(r.Context())
	if orch == nil {
		writeError(w, http.StatusServiceUnavailable, "orchestrator not available")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	enc := json.NewEncoder(w)
	for event := range orch.Generate(r.Context(), req.Source, req.Profile) {
		if err := enc.Encode(event); err != nil {
			return
		}
		flusher.Flush()
	}
}

func (e *GenerateDevotionalEndpoint) Command(getServerURL func() string) *cobra.Command {
	var profile content.Profile
	cmd := &cobra.Command{
		Use:   "generate <source>",
		Short: "Generate a devotional bundle, streaming progress",
		Long: `Generate a devotional bundle for a verse reference, theme, or
verse-of-the-day source, streaming progress events as they happen.

Sources:
  "John 3:16"         direct verse reference
  "Theme:Hope"        theme pseudo-source
  "youversion"        verse of the day`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			req := GenerateDevotionalRequest{Source: args[0], Profile: profile}
			var final *devotional.Event
			err := client.PostStream(cmd.Context(), "/api/devotionals", req, func(line []byte) error {
				var event devotional.Event
				if err := json.Unmarshal(line, &event); err != nil {
					return fmt.Errorf("decoding event: %w", err)
				}
				fmt.Printf("state: %s\n", event.State)
				if event.Error != "" {
					fmt.Printf("error: %s\n", event.Error)
				}
				if event.Bundle != nil {
					final = &event
				}
				return nil
			})
			if err != nil {
				return err
			}
			if final == nil {
				return errors.New("generation produced no bundle")
			}
			return api.Output(final.Bundle)
		},
	}
	cmd.Flags().StringVar(&profile.AgeRange, "age", "adult", "Age range (teens, university, adult, senior)")
	cmd.Flags().StringVar(&profile.Gender, "gender", "", "Gender for personalization")
	cmd.Flags().StringVar(&profile.LifeSituation, "situation", "general", "Life situation (e.g. new-parent, grieving)")
	cmd.Flags().StringVar(&profile.ContentStyle, "style", "casual", "Content style (casual or academic)")
	cmd.Flags().StringVar(&profile.Language, "language", "en", "Output language code")
	return cmd
}

// GetDevotionalEndpoint handles GET /api/devotionals/{key}.
type GetDevotionalEndpoint struct{}

func (e *GetDevotionalEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/devotionals/{key}", e.handler
}

func (e *GetDevotionalEndpoint) RequiresInit() bool { return true }

func (e *GetDevotionalEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if key == "" {
		writeError(w, http.StatusBadRequest, "key is required")
		return
	}

	orch := svcctx.OrchestratorFrom(r.Context())
	if orch == nil {
		writeError(w, http.StatusServiceUnavailable, "orchestrator not available")
		return
	}

	bundle, err := orch.Lookup(r.Context(), key)
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			writeError(w, http.StatusNotFound, "devotional not found: "+key)
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, bundle)
}

func (e *GetDevotionalEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <key>",
		Short: "Fetch a cached devotional bundle by key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var bundle devotional.Bundle
			if err := client.Get(cmd.Context(), "/api/devotionals/"+args[0], &bundle); err != nil {
				return err
			}
			return api.Output(bundle)
		},
	}
}
