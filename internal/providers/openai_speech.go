package providers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	OpenAISpeechName         = "openai"
	openAISpeechDefaultModel = openai.SpeechModelTTS1HD
	openAISpeechDefaultVoice = "onyx"
)

// OpenAISpeechConfig holds configuration for the OpenAI speech client.
type OpenAISpeechConfig struct {
	APIKey     string
	Model      string  // "tts-1-hd" (default), "tts-1", "gpt-4o-mini-tts"
	Voice      string  // "onyx" (default)
	Speed      float64 // 0.25-4.0
	MaxRetries int
	Timeout    time.Duration
	BaseURL    string       // Optional (tests)
	HTTPClient *http.Client // Optional (tests)
}

// OpenAISpeechClient implements SpeechClient using the official OpenAI SDK.
// It backs the read-aloud feature for devotional sections.
type OpenAISpeechClient struct {
	model  string
	voice  string
	speed  float64
	client openai.Client
}

// NewOpenAISpeechClient creates a new OpenAI speech client.
func NewOpenAISpeechClient(cfg OpenAISpeechConfig) *OpenAISpeechClient {
	if cfg.Model == "" {
		cfg.Model = openAISpeechDefaultModel
	}
	if cfg.Voice == "" {
		cfg.Voice = openAISpeechDefaultVoice
	}
	if cfg.Speed <= 0 {
		cfg.Speed = 1.0
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAISpeechClient{
		model:  cfg.Model,
		voice:  cfg.Voice,
		speed:  cfg.Speed,
		client: openai.NewClient(opts...),
	}
}

// Name returns the client identifier.
func (c *OpenAISpeechClient) Name() string {
	return OpenAISpeechName
}

// Synthesize converts text to MP3 audio via the OpenAI speech API.
func (c *OpenAISpeechClient) Synthesize(ctx context.Context, req *SpeechRequest) (*SpeechResult, error) {
	start := time.Now()

	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, fmt.Errorf("text is required")
	}

	voice := strings.TrimSpace(req.Voice)
	if voice == "" {
		voice = c.voice
	}

	speed := req.Speed
	if speed <= 0 {
		speed = c.speed
	}

	params := openai.AudioSpeechNewParams{
		Input:          text,
		Model:          openai.SpeechModel(c.model),
		Voice:          openai.AudioSpeechNewParamsVoice(voice),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
		Speed:          openai.Float(speed),
	}

	resp, err := c.client.Audio.Speech.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai speech request failed: %w", err)
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed reading openai audio response: %w", err)
	}

	return &SpeechResult{
		Audio:     audio,
		Format:    "mp3",
		Voice:     voice,
		Provider:  OpenAISpeechName,
		TotalTime: time.Since(start),
	}, nil
}

// Verify interface
var _ SpeechClient = (*OpenAISpeechClient)(nil)
