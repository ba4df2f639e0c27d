package imagegen

import (
	"bytes"
	"context"
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
	openAIDefaultTimeout = 120 * time.Second
	openAIDefaultModel   = "dall-e-3"
)

// OpenAIOptions controls how the image client is configured.
type OpenAIOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// OpenAIGenerator calls the OpenAI images API.
type OpenAIGenerator struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	logger  *infra.Logger
}

func NewOpenAIGenerator(opts OpenAIOptions) (*OpenAIGenerator, error) {
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
	return &OpenAIGenerator{
		apiKey:  opts.APIKey,
		model:   model,
		baseURL: baseURL,
		client:  client,
		logger:  opts.Logger,
	}, nil
}

// Model returns the configured model name for cost accounting.
func (g *OpenAIGenerator) Model() string {
	return g.model
}

type imageRequest struct {
	Model   string `json:"model"`
	Prompt  string `json:"prompt"`
	N       int    `json:"n"`
	Size    string `json:"size,omitempty"`
	Quality string `json:"quality,omitempty"`
}

type imageResponse struct {
	Data []struct {
		URL           string `json:"url"`
		RevisedPrompt string `json:"revised_prompt"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Generate requests exactly one image and returns its remote URL.
func (g *OpenAIGenerator) Generate(ctx context.Context, req GenerateRequest) (Result, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return Result{}, fmt.Errorf("%w: prompt is required", domain.ErrValidation)
	}

	payload := imageRequest{
		Model:   g.model,
		Prompt:  req.Prompt,
		N:       1,
		Size:    req.Size,
		Quality: req.Quality,
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return Result{}, fmt.Errorf("imagegen: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/images/generations", &buf)
	if err != nil {
		return Result{}, fmt.Errorf("imagegen: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("%w: imagegen request: %v", domain.ErrGeneration, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("%w: read imagegen response: %v", domain.ErrGeneration, err)
	}
	if resp.StatusCode >= 300 {
		return Result{}, fmt.Errorf("%w: imagegen api returned status %d", domain.ErrGeneration, resp.StatusCode)
	}

	var out imageResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return Result{}, fmt.Errorf("%w: decode imagegen response: %v", domain.ErrGeneration, err)
	}
	if out.Error != nil {
		return Result{}, fmt.Errorf("%w: imagegen api error: %s", domain.ErrGeneration, out.Error.Message)
	}
	if len(out.Data) == 0 || strings.TrimSpace(out.Data[0].URL) == "" {
		return Result{}, fmt.Errorf("%w: imagegen returned no usable image url", domain.ErrGeneration)
	}

	result := Result{
		URL:           out.Data[0].URL,
		RevisedPrompt: out.Data[0].RevisedPrompt,
	}
	if g.logger != nil && result.RevisedPrompt != "" && result.RevisedPrompt != req.Prompt {
		g.logger.Info().
			Str("model", g.model).
			Str("revised_prompt", result.RevisedPrompt).
			Msg("imagegen: provider revised the prompt")
	}
	return result, nil
}

var _ Generator = (*OpenAIGenerator)(nil)
