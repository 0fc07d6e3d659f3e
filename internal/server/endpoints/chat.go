package endpoints

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/selahapp/selah/internal/api"
	"github.com/selahapp/selah/internal/content"
	"github.com/selahapp/selah/internal/svcctx"
)

// ChatResponse carries the assistant's reply.
type ChatResponse struct {
	Response string `json:"response"`
}

// ChatEndpoint handles POST /api/chat, the verse discussion assistant.
type ChatEndpoint struct{}

func (e *ChatEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/chat", e.handler
}

func (e *ChatEndpoint) RequiresInit() bool { return true }

func (e *ChatEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req content.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	provider := svcctx.ProviderFrom(r.Context())
	if provider == nil {
		writeError(w, http.StatusServiceUnavailable, "content provider not available")
		return
	}

	reply, err := provider.Chat(r.Context(), &req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{Response: reply})
}

func (e *ChatEndpoint) Command(getServerURL func() string) *cobra.Command {
	var reference, verseText string
	cmd := &cobra.Command{
		Use:   "chat <message>",
		Short: "Ask the verse discussion assistant a question",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			req := content.ChatRequest{
				Message:        args[0],
				VerseReference: reference,
				VerseText:      verseText,
			}
			var resp ChatResponse
			if err := client.Post(cmd.Context(), "/api/chat", req, &resp); err != nil {
				return err
			}
			fmt.Println(resp.Response)
			return nil
		},
	}
	cmd.Flags().StringVar(&reference, "reference", "", "Verse reference for context")
	cmd.Flags().StringVar(&verseText, "text", "", "Verse text for context")
	return cmd
}
