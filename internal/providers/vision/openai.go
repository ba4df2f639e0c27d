package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"server/internal/domain"
	"server/internal/infra"
)

const (
	openAIDefaultTimeout = 60 * time.Second
	openAIDefaultModel   = "gpt-4o"

	systemInstruction = "You are a photo analyst for a children's coloring book service. " +
		"Reply with JSON only, no prose and no markdown."

	extractionPrompt = `Analyze the photo and return a JSON object with exactly these fields:
{
  "age_group": "toddler | child | teenager | adult",
  "hair_description": "short description of hair length, texture and style",
  "clothing_style": "short description of visible clothing",
  "pose_expression": "short description of pose and facial expression",
  "main_object": "one phrase naming the main subject of the photo",
  "complexity_hint": "simple | medium | detailed",
  "suggested_elements": ["up to five decorative elements that would suit a coloring page"]
}`
)

// OpenAIOptions controls how the vision client is configured.
type OpenAIOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
	Logger     *infra.Logger
	// OnFallback is invoked when a reply could not be parsed and the canned
	// analysis was substituted. Intended for counters; may be nil.
	OnFallback func(reason string)
}

// OpenAIAnalyzer calls the OpenAI chat completions API with an inline image.
type OpenAIAnalyzer struct {
	apiKey     string
	model      string
	baseURL    string
	client     *http.Client
	logger     *infra.Logger
	onFallback func(reason string)
}

func NewOpenAIAnalyzer(opts OpenAIOptions) (*OpenAIAnalyzer, error) {
	if opts.APIKey == "" {
		return nil, errors.New("openai api key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = openAIDefaultModel
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: openAIDefaultTimeout}
	}
	return &OpenAIAnalyzer{
		apiKey:     opts.APIKey,
		model:      model,
		baseURL:    baseURL,
		client:     client,
		logger:     opts.Logger,
		onFallback: opts.OnFallback,
	}, nil
}

// Model returns the configured model name for cost accounting.
func (a *OpenAIAnalyzer) Model() string {
	return a.model
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Analyze sends the photo to the vision model and parses the structured
// reply. Transport and API errors propagate to the caller (they are
// retryable); malformed replies are absorbed by the fallback analysis.
func (a *OpenAIAnalyzer) Analyze(ctx context.Context, imageBytes []byte) (domain.PhotoAnalysis, Usage, error) {
	if len(imageBytes) == 0 {
		return domain.PhotoAnalysis{}, Usage{}, fmt.Errorf("%w: image bytes are required", domain.ErrValidation)
	}

	payload := chatRequest{
		Model: a.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemInstruction},
			{Role: "user", Content: []contentPart{
				{Type: "text", Text: extractionPrompt},
				{Type: "image_url", ImageURL: &imageURL{
					URL: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(imageBytes),
				}},
			}},
		},
		MaxTokens:      500,
		ResponseFormat: &responseFormat{Type: "json_object"},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return domain.PhotoAnalysis{}, Usage{}, fmt.Errorf("vision: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/chat/completions", &buf)
	if err != nil {
		return domain.PhotoAnalysis{}, Usage{}, fmt.Errorf("vision: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return domain.PhotoAnalysis{}, Usage{}, fmt.Errorf("vision: request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.PhotoAnalysis{}, Usage{}, fmt.Errorf("vision: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return domain.PhotoAnalysis{}, Usage{}, fmt.Errorf("vision: api returned status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var out chatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return domain.PhotoAnalysis{}, Usage{}, fmt.Errorf("vision: decode response: %w", err)
	}
	if out.Error != nil {
		return domain.PhotoAnalysis{}, Usage{}, fmt.Errorf("vision: api error: %s", out.Error.Message)
	}

	usage := Usage{InputTokens: out.Usage.PromptTokens, OutputTokens: out.Usage.CompletionTokens}
	if len(out.Choices) == 0 {
		return a.fallback("empty_choices", ""), usage, nil
	}

	content := StripCodeFences(out.Choices[0].Message.Content)
	var analysis domain.PhotoAnalysis
	if err := json.Unmarshal([]byte(content), &analysis); err != nil {
		return a.fallback("parse_error", content), usage, nil
	}
	if strings.TrimSpace(analysis.MainObject) == "" {
		return a.fallback("missing_main_object", content), usage, nil
	}
	return analysis, usage, nil
}

// fallback logs the raw reply for diagnosis and returns the canned analysis.
func (a *OpenAIAnalyzer) fallback(reason, raw string) domain.PhotoAnalysis {
	if a.logger != nil {
		a.logger.Warn().
			Str("reason", reason).
			Str("raw_content", truncate(raw, 500)).
			Msg("vision: reply failed validation, using fallback analysis")
	}
	if a.onFallback != nil {
		a.onFallback(reason)
	}
	return FallbackAnalysis()
}

// StripCodeFences removes a surrounding markdown code fence from a model
// reply. Providers instructed to return raw JSON still fence it sometimes.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

var _ Analyzer = (*OpenAIAnalyzer)(nil)
