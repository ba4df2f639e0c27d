// Package imagegen turns a finished prompt into a generated line-art image
// through an external image model.
package imagegen

import "context"

// GenerateRequest describes a normalized request passed to any image provider.
type GenerateRequest struct {
	Prompt  string
	Size    string
	Quality string
}

// Result is one generated image. RevisedPrompt carries the provider's
// substituted prompt when it rewrote ours; it explains divergence between the
// requested and actual output and must be surfaced, never dropped.
type Result struct {
	URL           string
	RevisedPrompt string
}

// Generator is the contract implemented by all image providers.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (Result, error)
}

// SizeForOrientation maps the user-facing orientation to a provider size.
func SizeForOrientation(orientation string) string {
	switch orientation {
	case "portrait":
		return "1024x1792"
	case "landscape":
		return "1792x1024"
	default:
		return "1024x1024"
	}
}
