package domain

// PhotoAnalysis is the structured attribute set extracted from the uploaded
// photo. UsingFallback marks records produced by the canned fallback rather
// than the vision model; it is surfaced for observability and never persisted
// as a real analysis.
type PhotoAnalysis struct {
	AgeGroup          string   `json:"age_group"`
	HairDescription   string   `json:"hair_description"`
	ClothingStyle     string   `json:"clothing_style"`
	PoseExpression    string   `json:"pose_expression"`
	MainObject        string   `json:"main_object"`
	ComplexityHint    string   `json:"complexity_hint"`
	SuggestedElements []string `json:"suggested_elements"`
	UsingFallback     bool     `json:"using_fallback,omitempty"`
}
