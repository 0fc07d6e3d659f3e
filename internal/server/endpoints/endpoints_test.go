package endpoints

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/selahapp/selah/internal/api"
	"github.com/selahapp/selah/internal/cache"
	"github.com/selahapp/selah/internal/content"
	"github.com/selahapp/selah/internal/devotional"
	"github.com/selahapp/selah/internal/providers"
	"github.com/selahapp/selah/internal/svcctx"
	"github.com/selahapp/selah/internal/verse"
)

type stubSpeech struct {
	fail bool
}

func (s *stubSpeech) Name() string { return "stub" }

func (s *stubSpeech) Synthesize(ctx context.Context, req *providers.SpeechRequest) (*providers.SpeechResult, error) {
	if s.fail {
		return nil, context.DeadlineExceeded
	}
	voice := req.Voice
	if voice == "" {
		voice = "onyx"
	}
	return &providers.SpeechResult{
		Audio:    []byte("mp3data"),
		Format:   "mp3",
		Voice:    voice,
		Provider: "stub",
	}, nil
}

// fullMock answers every prompt the generation pipeline can issue.
func fullMock() *providers.MockClient {
	mock := providers.NewMockClient()
	mock.ResponseFunc = func(req *providers.ChatRequest) (string, error) {
		prompt := req.Messages[len(req.Messages)-1].Content
		switch {
		case strings.Contains(prompt, "Bible verse:"):
			return `{"reference":"John 3:16","version":"NIV","text":"For God so loved the world..."}`, nil
		case strings.Contains(prompt, "INTERPRETATION==="):
			return `INTERPRETATION===
The verse turns on a small word: so.
===INTERPRETATION

IMAGE_PROMPT===
Golden dawn over an olive grove
===IMAGE_PROMPT`, nil
		case strings.Contains(prompt, "Deep historical context"):
			return `{"context":{"whoIsSpeaking":"Jesus.","originalListeners":"Nicodemus.","whyTheConversation":"A night visit.","setting":"Jerusalem rooftop.","historicalBackdrop":"Roman occupation.","immediateImpact":"Questions lingered.","longTermImpact":"The most quoted verse."},"contextImagePrompt":"Night rooftop, oil lamps"}`, nil
		case strings.Contains(prompt, "unique story"):
			return `STORY_TITLE===
The Quiet Corner
===STORY_TITLE

STORY_TEXT===
Zoe sat in the back corner of the library during lunch.
===STORY_TEXT

STORY_IMAGE===
A teenager alone in a library
===STORY_IMAGE`, nil
		case strings.Contains(prompt, "poem inspired by"):
			return `TITLE===Measured in Giving===TITLE
TYPE===Sonnet===TYPE
POEM===
The gift was never weighed on merchant scales.
===POEM
IMAGE===Light falling through open hands===IMAGE`, nil
		case strings.Contains(prompt, "Unpack 4 key images"):
			return `{"imagery":[
{"title":"The World","sub":"A measure of the gift.","icon":"landscape","imagePrompt":"Earth from above"},
{"title":"The Only Son","sub":"Echoes of Abraham.","icon":"favorite","imagePrompt":"Single lamp"},
{"title":"Perishing","sub":"A present drift.","icon":"air","imagePrompt":"Leaf in current"},
{"title":"Eternal Life","sub":"About kind, not duration.","icon":"wb_sunny","imagePrompt":"Sunrise over water"}
]}`, nil
		case strings.Contains(prompt, "radio-ready song"):
			return `TITLE===
So Loved
===TITLE

SUBTITLE===
Anthemic Pop-Rock
===SUBTITLE

LYRICS===
CHORUS
So loved, more than we could know
===LYRICS

AUDIO_PROMPT===
anthemic pop-rock, 110 BPM
===AUDIO_PROMPT

IMAGE_PROMPT===
City skyline at night
===IMAGE_PROMPT`, nil
		case strings.Contains(prompt, "in the thick of:"):
			return "Man, some seasons just sit heavy. The verse doesn't ask you to pretend otherwise.", nil
		case strings.Contains(prompt, "autism family lens"):
			return "God is present in the therapy waiting room too, not just the quiet moments.", nil
		}
		return "mock chat reply", nil
	}
	return mock
}

func testServices(t *testing.T) *svcctx.Services {
	t.Helper()

	mock := fullMock()
	renderer := providers.NewMockRenderer()

	registry := providers.NewRegistry()
	registry.RegisterLLM(providers.MockClientName, mock)
	registry.RegisterRenderer(providers.MockClientName, renderer)
	registry.RegisterSpeech("stub", &stubSpeech{})

	provider := content.NewGenerator(mock, "", slog.Default())
	resolver := verse.NewResolver(mock)
	store := cache.NewMemoryStore()
	orch := devotional.NewOrchestrator(provider, renderer, resolver, store, slog.Default())

	return &svcctx.Services{
		Registry:     registry,
		Orchestrator: orch,
		Provider:     provider,
		Resolver:     resolver,
		CacheStore:   store,
		Logger:       slog.Default(),
	}
}

// serve routes a request through a mux so path values resolve, with the
// services attached the way the server middleware does.
func serve(svcs *svcctx.Services, ep api.Endpoint, req *http.Request) *httptest.ResponseRecorder {
	method, path, handler := ep.Route()
	mux := http.NewServeMux()
	mux.HandleFunc(method+" "+path, handler)

	req = req.WithContext(svcctx.WithServices(req.Context(), svcs))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func postJSON(path string, body any) *http.Request {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestHealthEndpoint(t *testing.T) {
	rr := serve(testServices(t), &HealthEndpoint{}, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	var resp HealthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" {
		t.Fatalf("status = %q, want ok", resp.Status)
	}
}

func TestReadyEndpoint(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		rr := serve(testServices(t), &ReadyEndpoint{}, httptest.NewRequest(http.MethodGet, "/ready", nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
		}
	})

	t.Run("no cache store", func(t *testing.T) {
		svcs := testServices(t)
		svcs.CacheStore = nil
		rr := serve(svcs, &ReadyEndpoint{}, httptest.NewRequest(http.MethodGet, "/ready", nil))
		if rr.Code != http.StatusServiceUnavailable {
			t.Fatalf("status = %d, want %d", rr.Code, http.StatusServiceUnavailable)
		}
		var resp HealthResponse
		if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Status != "degraded" {
			t.Fatalf("status = %q, want degraded", resp.Status)
		}
	})
}

func TestStatusEndpoint(t *testing.T) {
	rr := serve(testServices(t), &StatusEndpoint{}, httptest.NewRequest(http.MethodGet, "/status", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	var resp StatusResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Server != "running" {
		t.Fatalf("server = %q, want running", resp.Server)
	}
	if len(resp.Providers.LLM) != 1 || resp.Providers.LLM[0] != providers.MockClientName {
		t.Fatalf("llm providers = %v", resp.Providers.LLM)
	}
	if len(resp.Providers.Speech) != 1 || resp.Providers.Speech[0] != "stub" {
		t.Fatalf("speech providers = %v", resp.Providers.Speech)
	}
}

func TestResolveVerseEndpoint(t *testing.T) {
	svcs := testServices(t)

	t.Run("direct reference", func(t *testing.T) {
		rr := serve(svcs, &ResolveVerseEndpoint{}, postJSON("/api/generate-verse", ResolveVerseRequest{Source: "John 3:16"}))
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
		}
		var resolution verse.Resolution
		if err := json.NewDecoder(rr.Body).Decode(&resolution); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resolution.Verse.Reference != "John 3:16" {
			t.Fatalf("reference = %q", resolution.Verse.Reference)
		}
		if resolution.CacheRef != "John 3:16" {
			t.Fatalf("cache ref = %q", resolution.CacheRef)
		}
	})

	t.Run("missing source", func(t *testing.T) {
		rr := serve(svcs, &ResolveVerseEndpoint{}, postJSON("/api/generate-verse", ResolveVerseRequest{}))
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
		}
	})
}

func TestGenerateImageEndpoint(t *testing.T) {
	svcs := testServices(t)

	t.Run("rendered", func(t *testing.T) {
		rr := serve(svcs, &GenerateImageEndpoint{}, postJSON("/api/generate-image", GenerateImageRequest{Prompt: "sunrise"}))
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
		}
		var resp GenerateImageResponse
		if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.ImageURL == "" || resp.Placeholder {
			t.Fatalf("unexpected response: %+v", resp)
		}
	})

	t.Run("render failure yields placeholder", func(t *testing.T) {
		failing := testServices(t)
		registry := providers.NewRegistry()
		registry.RegisterRenderer(providers.MockClientName, &providers.MockRenderer{ShouldFail: true})
		failing.Registry = registry

		rr := serve(failing, &GenerateImageEndpoint{}, postJSON("/api/generate-image", GenerateImageRequest{Prompt: "sunrise"}))
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
		}
		var resp GenerateImageResponse
		if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !resp.Placeholder {
			t.Fatalf("expected placeholder, got %+v", resp)
		}
		if !strings.Contains(resp.ImageURL, "/placeholder.svg") {
			t.Fatalf("unexpected URL: %q", resp.ImageURL)
		}
	})

	t.Run("missing prompt", func(t *testing.T) {
		rr := serve(svcs, &GenerateImageEndpoint{}, postJSON("/api/generate-image", GenerateImageRequest{}))
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
		}
	})
}

func TestSectionEndpoints(t *testing.T) {
	svcs := testServices(t)

	byName := map[string]*SectionEndpoint{}
	for _, ep := range sectionEndpoints() {
		se := ep.(*SectionEndpoint)
		byName[se.name] = se
	}

	t.Run("interpretation", func(t *testing.T) {
		ep := byName["interpretation"]
		rr := serve(svcs, ep, postJSON(ep.path, SectionRequest{
			VerseReference: "John 3:16",
			VerseText:      "For God so loved the world...",
			Profile:        content.Profile{AgeRange: "adult"},
		}))
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
		}
		var resp SectionResponse
		if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(resp.Results) != 1 {
			t.Fatalf("results = %d, want 1", len(resp.Results))
		}
		if resp.Results[0].Interpretation == nil || !strings.Contains(resp.Results[0].Interpretation.Text, "small word") {
			t.Fatalf("unexpected result: %+v", resp.Results[0])
		}
	})

	t.Run("stories pair ordering", func(t *testing.T) {
		ep := byName["stories"]
		rr := serve(svcs, ep, postJSON(ep.path, SectionRequest{
			VerseReference: "John 3:16",
			Profile:        content.Profile{AgeRange: "teens"},
		}))
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
		}
		var resp SectionResponse
		if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(resp.Results) != 2 {
			t.Fatalf("results = %d, want 2", len(resp.Results))
		}
		if resp.Results[0].Kind != content.KindStoryContemporary || resp.Results[1].Kind != content.KindStoryHistorical {
			t.Fatalf("kinds = %s, %s", resp.Results[0].Kind, resp.Results[1].Kind)
		}
	})

	t.Run("missing reference", func(t *testing.T) {
		ep := byName["songs"]
		rr := serve(svcs, ep, postJSON(ep.path, SectionRequest{}))
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
		}
	})
}

func TestChatEndpoint(t *testing.T) {
	svcs := testServices(t)

	t.Run("reply", func(t *testing.T) {
		rr := serve(svcs, &ChatEndpoint{}, postJSON("/api/chat", content.ChatRequest{
			Message:        "What does this verse mean?",
			VerseReference: "John 3:16",
		}))
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
		}
		var resp ChatResponse
		if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Response != "mock chat reply" {
			t.Fatalf("response = %q", resp.Response)
		}
	})

	t.Run("missing message", func(t *testing.T) {
		rr := serve(svcs, &ChatEndpoint{}, postJSON("/api/chat", content.ChatRequest{}))
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
		}
	})
}

func TestSpeakEndpoint(t *testing.T) {
	svcs := testServices(t)

	rr := serve(svcs, &SpeakEndpoint{}, postJSON("/api/tts", SpeakRequest{Text: "For God so loved the world"}))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	var resp SpeakResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Format != "mp3" {
		t.Fatalf("format = %q", resp.Format)
	}
	audio, err := base64.StdEncoding.DecodeString(resp.Audio)
	if err != nil {
		t.Fatalf("decode audio: %v", err)
	}
	if string(audio) != "mp3data" {
		t.Fatalf("audio = %q", audio)
	}
}

func TestCacheEndpoints(t *testing.T) {
	svcs := testServices(t)
	ctx := context.Background()

	if err := svcs.CacheStore.Put(ctx, "john_3:16_adult_general", []byte(`{}`)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	rr := serve(svcs, &ListCacheKeysEndpoint{}, httptest.NewRequest(http.MethodGet, "/api/cache", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("list status = %d", rr.Code)
	}
	var listResp CacheKeysResponse
	if err := json.NewDecoder(rr.Body).Decode(&listResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if listResp.Version != cache.Version {
		t.Fatalf("version = %q, want %q", listResp.Version, cache.Version)
	}
	if len(listResp.Keys) != 1 || listResp.Keys[0] != "john_3:16_adult_general" {
		t.Fatalf("keys = %v", listResp.Keys)
	}

	rr = serve(svcs, &ClearCacheEndpoint{}, httptest.NewRequest(http.MethodDelete, "/api/cache", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("clear status = %d", rr.Code)
	}

	keys, err := svcs.CacheStore.Keys(ctx)
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	if len(keys) != 0 {
		t.Fatalf("keys after purge = %v", keys)
	}
}

func TestGenerateDevotionalEndpoint(t *testing.T) {
	svcs := testServices(t)

	rr := serve(svcs, &GenerateDevotionalEndpoint{}, postJSON("/api/devotionals", GenerateDevotionalRequest{
		Source:  "John 3:16",
		Profile: content.Profile{AgeRange: "adult", LifeSituation: "general"},
	}))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/x-ndjson" {
		t.Fatalf("content type = %q", ct)
	}

	var events []devotional.Event
	scanner := bufio.NewScanner(rr.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		if len(bytes.TrimSpace(scanner.Bytes())) == 0 {
			continue
		}
		var event devotional.Event
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}

	if len(events) == 0 {
		t.Fatal("no events streamed")
	}
	if events[0].State != devotional.StateResolvingSource {
		t.Fatalf("first state = %s", events[0].State)
	}
	last := events[len(events)-1]
	if last.State != devotional.StateCached {
		t.Fatalf("last state = %s", last.State)
	}
	if last.Key != "john_3:16_adult_general" {
		t.Fatalf("key = %q", last.Key)
	}

	t.Run("lookup after generation", func(t *testing.T) {
		rr := serve(svcs, &GetDevotionalEndpoint{}, httptest.NewRequest(http.MethodGet, "/api/devotionals/john_3:16_adult_general", nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
		}
		var bundle devotional.Bundle
		if err := json.NewDecoder(rr.Body).Decode(&bundle); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !strings.Contains(bundle.Interpretation, "small word") {
			t.Fatalf("interpretation = %q", bundle.Interpretation)
		}
		if len(bundle.Stories) != 2 {
			t.Fatalf("stories = %d", len(bundle.Stories))
		}
	})

	t.Run("lookup unknown key", func(t *testing.T) {
		rr := serve(svcs, &GetDevotionalEndpoint{}, httptest.NewRequest(http.MethodGet, "/api/devotionals/nope", nil))
		if rr.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want %d", rr.Code, http.StatusNotFound)
		}
	})

	t.Run("missing source", func(t *testing.T) {
		rr := serve(svcs, &GenerateDevotionalEndpoint{}, postJSON("/api/devotionals", GenerateDevotionalRequest{}))
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
		}
	})
}

func TestDeepDiveEndpoint(t *testing.T) {
	svcs := testServices(t)

	t.Run("generates a reflection", func(t *testing.T) {
		rr := serve(svcs, &DeepDiveEndpoint{}, postJSON("/api/generate-deep-dive", content.DeepDiveRequest{
			Topic:          "Grieving a Death",
			VerseReference: "John 3:16",
			VerseText:      "For God so loved the world...",
		}))
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
		}
		var resp ReflectionResponse
		if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !strings.Contains(resp.Reflection, "seasons just sit heavy") {
			t.Fatalf("reflection = %q", resp.Reflection)
		}
	})

	t.Run("missing topic", func(t *testing.T) {
		rr := serve(svcs, &DeepDiveEndpoint{}, postJSON("/api/generate-deep-dive", content.DeepDiveRequest{VerseReference: "John 3:16"}))
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
		}
	})
}

func TestAutismSupportEndpoint(t *testing.T) {
	svcs := testServices(t)

	t.Run("generates a reflection", func(t *testing.T) {
		rr := serve(svcs, &AutismSupportEndpoint{}, postJSON("/api/generate-autism-support", content.AutismSupportRequest{
			VerseReference: "Psalm 46:10",
			VerseText:      "Be still, and know that I am God.",
		}))
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
		}
		var resp ReflectionResponse
		if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !strings.Contains(resp.Reflection, "waiting room") {
			t.Fatalf("reflection = %q", resp.Reflection)
		}
	})

	t.Run("missing reference", func(t *testing.T) {
		rr := serve(svcs, &AutismSupportEndpoint{}, postJSON("/api/generate-autism-support", content.AutismSupportRequest{}))
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
		}
	})
}

func TestVoiceChatEndpoint(t *testing.T) {
	svcs := testServices(t)

	t.Run("answers a chat turn", func(t *testing.T) {
		rr := serve(svcs, &VoiceChatEndpoint{}, postJSON("/api/voice-chat", content.VoiceChatRequest{
			Message:        "What does this verse mean?",
			VerseReference: "John 3:16",
		}))
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
		}
		var resp ChatResponse
		if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Response != "mock chat reply" {
			t.Fatalf("response = %q", resp.Response)
		}
	})

	t.Run("missing message", func(t *testing.T) {
		rr := serve(svcs, &VoiceChatEndpoint{}, postJSON("/api/voice-chat", content.VoiceChatRequest{VerseReference: "John 3:16"}))
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
		}
	})
}
