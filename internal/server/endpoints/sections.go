package endpoints

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/spf13/cobra"

	"github.com/selahapp/selah/internal/api"
	"github.com/selahapp/selah/internal/content"
	"github.com/selahapp/selah/internal/svcctx"
)

// SectionRequest is the request body for the standalone section routes.
type SectionRequest struct {
	VerseReference string          `json:"verseReference"`
	VerseText      string          `json:"verseText"`
	Profile        content.Profile `json:"profile"`
}

// SectionResponse holds the generated section results. Paired routes
// (stories, poetry) return two results in variant order.
type SectionResponse struct {
	Results []*content.SectionResult `json:"results"`
}

// SectionEndpoint serves one standalone generation route. The devotional
// orchestrator drives the same generator; these routes exist for clients
// that want a single section without a full bundle.
type SectionEndpoint struct {
	name  string
	short string
	path  string
	kinds []content.SectionKind
}

func (e *SectionEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", e.path, e.handler
}

func (e *SectionEndpoint) RequiresInit() bool { return true }

func (e *SectionEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req SectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.VerseReference == "" {
		writeError(w, http.StatusBadRequest, "verseReference is required")
		return
	}

	provider := svcctx.ProviderFrom(r.Context())
	if provider == nil {
		writeError(w, http.StatusServiceUnavailable, "content provider not available")
		return
	}

	results := make([]*content.SectionResult, len(e.kinds))
	var wg sync.WaitGroup
	for i, kind := range e.kinds {
		wg.Add(1)
		go func(i int, kind content.SectionKind) {
			defer wg.Done()
			res, err := provider.GenerateSection(r.Context(), &content.Request{
				Kind:           kind,
				VerseReference: req.VerseReference,
				VerseText:      req.VerseText,
				Profile:        req.Profile,
			})
			if err != nil {
				res = &content.SectionResult{Kind: kind, Fallback: true}
			}
			results[i] = res
		}(i, kind)
	}
	wg.Wait()

	writeJSON(w, http.StatusOK, SectionResponse{Results: results})
}

func (e *SectionEndpoint) Command(getServerURL func() string) *cobra.Command {
	var verseText string
	var profile content.Profile
	cmd := &cobra.Command{
		Use:   e.name + " <reference>",
		Short: e.short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			req := SectionRequest{VerseReference: args[0], VerseText: verseText, Profile: profile}
			var resp SectionResponse
			if err := client.Post(cmd.Context(), e.path, req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&verseText, "text", "", "Verse text (resolved server-side when omitted)")
	cmd.Flags().StringVar(&profile.AgeRange, "age", "adult", "Age range (teens, university, adult, senior)")
	cmd.Flags().StringVar(&profile.Gender, "gender", "", "Gender for personalization")
	cmd.Flags().StringVar(&profile.LifeSituation, "situation", "general", "Life situation")
	cmd.Flags().StringVar(&profile.ContentStyle, "style", "casual", "Content style (casual or academic)")
	cmd.Flags().StringVar(&profile.Language, "language", "en", "Output language code")
	return cmd
}

// sectionEndpoints returns the standalone generation routes in the order
// the devotional page renders them.
func sectionEndpoints() []api.Endpoint {
	return []api.Endpoint{
		&SectionEndpoint{
			name:  "interpretation",
			short: "Generate a verse interpretation",
			path:  "/api/generate-interpretation",
			kinds: []content.SectionKind{content.KindInterpretation},
		},
		&SectionEndpoint{
			name:  "context",
			short: "Generate historical and theological context",
			path:  "/api/generate-context",
			kinds: []content.SectionKind{content.KindContext},
		},
		&SectionEndpoint{
			name:  "stories",
			short: "Generate contemporary and historical stories",
			path:  "/api/generate-stories",
			kinds: []content.SectionKind{content.KindStoryContemporary, content.KindStoryHistorical},
		},
		&SectionEndpoint{
			name:  "poetry",
			short: "Generate classic and free verse poems",
			path:  "/api/generate-poetry",
			kinds: []content.SectionKind{content.KindPoemClassic, content.KindPoemFreeVerse},
		},
		&SectionEndpoint{
			name:  "imagery",
			short: "Generate key imagery studies",
			path:  "/api/generate-imagery",
			kinds: []content.SectionKind{content.KindImagery},
		},
		&SectionEndpoint{
			name:  "songs",
			short: "Generate a worship song",
			path:  "/api/generate-songs",
			kinds: []content.SectionKind{content.KindSongs},
		},
	}
}
