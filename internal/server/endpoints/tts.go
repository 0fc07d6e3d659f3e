package endpoints

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/selahapp/selah/internal/api"
	"github.com/selahapp/selah/internal/providers"
	"github.com/selahapp/selah/internal/svcctx"
)

// SpeakRequest is the request body for POST /api/tts.
type SpeakRequest struct {
	Text  string  `json:"text"`
	Voice string  `json:"voice,omitempty"`
	Speed float64 `json:"speed,omitempty"`
}

// SpeakResponse carries synthesized audio as base64 MP3.
type SpeakResponse struct {
	Audio  string `json:"audio"`
	Format string `json:"format"`
	Voice  string `json:"voice"`
}

// SpeakEndpoint handles POST /api/tts.
type SpeakEndpoint struct{}

func (e *SpeakEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/tts", e.handler
}

func (e *SpeakEndpoint) RequiresInit() bool { return true }

func (e *SpeakEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req SpeakRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	registry := svcctx.RegistryFrom(r.Context())
	if registry == nil {
		writeError(w, http.StatusServiceUnavailable, "provider registry not available")
		return
	}
	speech, err := registry.DefaultSpeech()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "no speech provider configured")
		return
	}

	result, err := speech.Synthesize(r.Context(), &providers.SpeechRequest{
		Text:  req.Text,
		Voice: req.Voice,
		Speed: req.Speed,
	})
	if err != nil {
		writeError(w, http.StatusBadGateway, "synthesizing speech: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, SpeakResponse{
		Audio:  base64.StdEncoding.EncodeToString(result.Audio),
		Format: result.Format,
		Voice:  result.Voice,
	})
}

func (e *SpeakEndpoint) Command(getServerURL func() string) *cobra.Command {
	var voice, outPath string
	var speed float64
	cmd := &cobra.Command{
		Use:   "tts <text>",
		Short: "Synthesize speech from text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			req := SpeakRequest{Text: args[0], Voice: voice, Speed: speed}
			var resp SpeakResponse
			if err := client.Post(cmd.Context(), "/api/tts", req, &resp); err != nil {
				return err
			}
			audio, err := base64.StdEncoding.DecodeString(resp.Audio)
			if err != nil {
				return fmt.Errorf("decoding audio: %w", err)
			}
			if err := os.WriteFile(outPath, audio, 0o644); err != nil {
				return fmt.Errorf("writing audio: %w", err)
			}
			fmt.Printf("Wrote %d bytes (%s, voice %s) to %s\n", len(audio), resp.Format, resp.Voice, outPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&voice, "voice", "", "Voice name (provider default when omitted)")
	cmd.Flags().Float64Var(&speed, "speed", 0, "Playback speed multiplier")
	cmd.Flags().StringVar(&outPath, "out", "speech.mp3", "Output file path")
	return cmd
}
