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

// ReflectionResponse carries a generated reflection.
type ReflectionResponse struct {
	Reflection string `json:"reflection"`
}

// reflectorFrom extracts the content provider and narrows it to the
// reflection interface.
func reflectorFrom(r *http.Request) (content.Reflector, bool) {
	reflector, ok := svcctx.ProviderFrom(r.Context()).(content.Reflector)
	return reflector, ok
}

// DeepDiveEndpoint handles POST /api/generate-deep-dive.
type DeepDiveEndpoint struct{}

func (e *DeepDiveEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/generate-deep-dive", e.handler
}

func (e *DeepDiveEndpoint) RequiresInit() bool { return true }

func (e *DeepDiveEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req content.DeepDiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Topic == "" {
		writeError(w, http.StatusBadRequest, "topic is required")
		return
	}

	reflector, ok := reflectorFrom(r)
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "content provider not available")
		return
	}

	reflection, err := reflector.DeepDive(r.Context(), &req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate reflection")
		return
	}

	writeJSON(w, http.StatusOK, ReflectionResponse{Reflection: reflection})
}

func (e *DeepDiveEndpoint) Command(getServerURL func() string) *cobra.Command {
	var reference, verseText, ageRange string
	cmd := &cobra.Command{
		Use:   "deep-dive <topic>",
		Short: "Generate a topic reflection on the verse",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			req := content.DeepDiveRequest{
				Topic:          args[0],
				VerseReference: reference,
				VerseText:      verseText,
				AgeRange:       ageRange,
			}
			var resp ReflectionResponse
			if err := client.Post(cmd.Context(), "/api/generate-deep-dive", req, &resp); err != nil {
				return err
			}
			fmt.Println(resp.Reflection)
			return nil
		},
	}
	cmd.Flags().StringVar(&reference, "reference", "", "Verse reference")
	cmd.Flags().StringVar(&verseText, "text", "", "Verse text")
	cmd.Flags().StringVar(&ageRange, "age", "adult", "Age range")
	return cmd
}

// AutismSupportEndpoint handles POST /api/generate-autism-support.
type AutismSupportEndpoint struct{}

func (e *AutismSupportEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/generate-autism-support", e.handler
}

func (e *AutismSupportEndpoint) RequiresInit() bool { return true }

func (e *AutismSupportEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req content.AutismSupportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.VerseReference == "" {
		writeError(w, http.StatusBadRequest, "verseReference is required")
		return
	}

	reflector, ok := reflectorFrom(r)
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "content provider not available")
		return
	}

	reflection, err := reflector.AutismSupport(r.Context(), &req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate reflection")
		return
	}

	writeJSON(w, http.StatusOK, ReflectionResponse{Reflection: reflection})
}

func (e *AutismSupportEndpoint) Command(getServerURL func() string) *cobra.Command {
	var verseText, ageRange, gender, situation string
	cmd := &cobra.Command{
		Use:   "autism-support <reference>",
		Short: "Generate an autism family reflection on the verse",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			req := content.AutismSupportRequest{
				VerseReference: args[0],
				VerseText:      verseText,
				AgeRange:       ageRange,
				Gender:         gender,
				StageSituation: situation,
			}
			var resp ReflectionResponse
			if err := client.Post(cmd.Context(), "/api/generate-autism-support", req, &resp); err != nil {
				return err
			}
			fmt.Println(resp.Reflection)
			return nil
		},
	}
	cmd.Flags().StringVar(&verseText, "text", "", "Verse text")
	cmd.Flags().StringVar(&ageRange, "age", "", "Age range")
	cmd.Flags().StringVar(&gender, "gender", "", "Reader description")
	cmd.Flags().StringVar(&situation, "situation", "", "Current stage or situation")
	return cmd
}

// VoiceChatEndpoint handles POST /api/voice-chat.
type VoiceChatEndpoint struct{}

func (e *VoiceChatEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/voice-chat", e.handler
}

func (e *VoiceChatEndpoint) RequiresInit() bool { return true }

func (e *VoiceChatEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req content.VoiceChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	reflector, ok := reflectorFrom(r)
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "content provider not available")
		return
	}

	reply, err := reflector.VoiceChat(r.Context(), &req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{Response: reply})
}

func (e *VoiceChatEndpoint) Command(getServerURL func() string) *cobra.Command {
	var reference, name, topic string
	var deepDive bool
	cmd := &cobra.Command{
		Use:   "voice-chat <message>",
		Short: "Ask the voice companion a question",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			req := content.VoiceChatRequest{
				Message:        args[0],
				VerseReference: reference,
				Name:           name,
				DeepDive:       deepDive,
				DeepDiveTopic:  topic,
			}
			var resp ChatResponse
			if err := client.Post(cmd.Context(), "/api/voice-chat", req, &resp); err != nil {
				return err
			}
			fmt.Println(resp.Response)
			return nil
		},
	}
	cmd.Flags().StringVar(&reference, "reference", "", "Verse reference for context")
	cmd.Flags().StringVar(&name, "name", "", "Reader's first name")
	cmd.Flags().BoolVar(&deepDive, "deep-dive", false, "Use the deep-dive companion tone")
	cmd.Flags().StringVar(&topic, "topic", "", "Deep-dive topic (with --deep-dive)")
	return cmd
}
