// Package vision extracts structured photo attributes through an external
// vision model. Replies that fail to parse degrade to a canned fallback
// analysis instead of failing the pipeline.
package vision

import (
	"context"

	"server/internal/domain"
)

// Usage reports the token consumption of one analysis call. Zero when the
// fallback was used.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Analyzer is the contract implemented by vision providers.
type Analyzer interface {
	Analyze(ctx context.Context, imageBytes []byte) (domain.PhotoAnalysis, Usage, error)
}

// FallbackAnalysis returns the canned attribute set used when the vision
// reply cannot be parsed. It is generic on purpose: downstream stages always
// receive a well-typed analysis, and UsingFallback records that it is not a
// real one.
func FallbackAnalysis() domain.PhotoAnalysis {
	return domain.PhotoAnalysis{
		AgeGroup:        "child",
		HairDescription: "short wavy hair",
		ClothingStyle:   "casual t-shirt and pants",
		PoseExpression:  "standing and smiling happily",
		MainObject:      "a cheerful child",
		ComplexityHint:  "medium",
		SuggestedElements: []string{
			"stars",
			"clouds",
			"flowers",
		},
		UsingFallback: true,
	}
}
