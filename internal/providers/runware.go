package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
)

const (
	RunwareName    = "runware"
	RunwareBaseURL = "https://api.runware.ai/v1"

	runwareDefaultModel = "runware:101@1"
)

// teenStyleSuffix is appended to prompts for teen profiles.
const teenStyleSuffix = ", modern anime style, vibrant colors, expressive characters, clean linework, contemporary anime aesthetic"

// RunwareConfig holds configuration for the Runware image client.
type RunwareConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

// RunwareClient implements ImageRenderer against the Runware REST API.
// Render never fails outright: any error after retries resolves to a
// deterministic placeholder URL, which callers treat as a valid image.
type RunwareClient struct {
	apiKey     string
	baseURL    string
	model      string
	client     *http.Client
	maxRetries int
	retryDelay time.Duration
}

// NewRunwareClient creates a new Runware client.
func NewRunwareClient(cfg RunwareConfig) *RunwareClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = RunwareBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = runwareDefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = time.Second
	}

	return &RunwareClient{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		model:      cfg.Model,
		client:     &http.Client{Timeout: cfg.Timeout},
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
	}
}

// Name returns the renderer identifier.
func (c *RunwareClient) Name() string {
	return RunwareName
}

// Render generates an image for the prompt. On any failure it returns a
// placeholder result, never an error, so a single bad render cannot block
// the section that owns it.
func (c *RunwareClient) Render(ctx context.Context, req *ImageRequest) (*ImageResult, error) {
	start := time.Now()

	if req.Prompt == "" {
		return nil, fmt.Errorf("prompt is required")
	}

	width := req.Width
	if width == 0 {
		width = 1024
	}
	height := req.Height
	if height == 0 {
		height = 1024
	}

	prompt := StyledPrompt(req.Prompt, req.AgeRange)

	if c.apiKey == "" {
		return &ImageResult{
			URL:         PlaceholderURL(req.Prompt, width, height),
			Placeholder: true,
			Provider:    RunwareName,
			TotalTime:   time.Since(start),
		}, nil
	}

	attempts := 0
	imageURL, err := retry.DoWithData(
		func() (string, error) {
			attempts++
			return c.requestImage(ctx, prompt, width, height)
		},
		retry.Context(ctx),
		retry.Attempts(uint(c.maxRetries)),
		retry.Delay(c.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil || imageURL == "" {
		return &ImageResult{
			URL:         PlaceholderURL(req.Prompt, width, height),
			Placeholder: true,
			Provider:    RunwareName,
			TotalTime:   time.Since(start),
			Attempts:    attempts,
		}, nil
	}

	return &ImageResult{
		URL:       imageURL,
		Provider:  RunwareName,
		TotalTime: time.Since(start),
		Attempts:  attempts,
	}, nil
}

// requestImage performs a single imageInference task call.
func (c *RunwareClient) requestImage(ctx context.Context, prompt string, width, height int) (string, error) {
	task := []runwareTask{{
		TaskType:       "imageInference",
		TaskUUID:       uuid.New().String(),
		Model:          c.model,
		PositivePrompt: prompt,
		Width:          width,
		Height:         height,
		NumberResults:  1,
	}}

	body, err := json.Marshal(task)
	if err != nil {
		return "", fmt.Errorf("failed to marshal task: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("runware error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var rw runwareResponse
	if err := json.Unmarshal(respBody, &rw); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(rw.Errors) > 0 {
		return "", fmt.Errorf("runware task error: %s", rw.Errors[0].Message)
	}
	if len(rw.Data) == 0 || rw.Data[0].ImageURL == "" {
		return "", fmt.Errorf("no image in response")
	}

	return rw.Data[0].ImageURL, nil
}

// StyledPrompt applies age-range visual styling to an image prompt.
func StyledPrompt(prompt, ageRange string) string {
	switch strings.ToLower(ageRange) {
	case "teen", "teens":
		return prompt + teenStyleSuffix
	default:
		return prompt
	}
}

// PlaceholderURL builds the deterministic placeholder image URL used
// whenever a render cannot be completed. Callers must treat it as a valid
// terminal result, not a failure requiring retry.
func PlaceholderURL(prompt string, width, height int) string {
	query := prompt
	if len(query) > 100 {
		query = query[:100]
	}
	if query == "" {
		query = "image"
	}
	return fmt.Sprintf("/placeholder.svg?height=%d&width=%d&query=%s", height, width, url.QueryEscape(query))
}

// Runware API types

type runwareTask struct {
	TaskType       string `json:"taskType"`
	TaskUUID       string `json:"taskUUID"`
	Model          string `json:"model"`
	PositivePrompt string `json:"positivePrompt"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	NumberResults  int    `json:"numberResults"`
}

type runwareResponse struct {
	Data []struct {
		TaskType string `json:"taskType"`
		TaskUUID string `json:"taskUUID"`
		ImageURL string `json:"imageURL"`
	} `json:"data"`
	Errors []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// Verify interface
var _ ImageRenderer = (*RunwareClient)(nil)
