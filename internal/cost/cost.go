package cost

import (
	"fmt"
	"strings"
)

// Pricing is the static per-model price table entry. Token rates are USD per
// million tokens; image rates are a flat USD amount per generated image.
type Pricing struct {
	InputPerMTok  float64
	OutputPerMTok float64
	ImageStandard float64
	ImageHD       float64
}

var priceTable = map[string]Pricing{
	"gpt-4o":      {InputPerMTok: 2.50, OutputPerMTok: 10.00},
	"gpt-4o-mini": {InputPerMTok: 0.15, OutputPerMTok: 0.60},
	"dall-e-3":    {ImageStandard: 0.040, ImageHD: 0.080},
	"gpt-image-1": {ImageStandard: 0.042, ImageHD: 0.167},
}

// Calculation is the immutable cost of one external API call.
type Calculation struct {
	Model     string
	TokenCost float64
	FlatCost  float64
	TotalCost float64
}

// Formatted renders the total as a display string, e.g. "$0.0425".
func (c Calculation) Formatted() string {
	return FormatUSD(c.TotalCost)
}

// FormatUSD renders a dollar amount with sub-cent precision.
func FormatUSD(amount float64) string {
	return fmt.Sprintf("$%.4f", amount)
}

// ForTokens computes the cost of a token-metered call. Unknown models price
// at zero rather than failing: cost accounting must never break a pipeline.
func ForTokens(model string, inputTokens, outputTokens int) Calculation {
	p := priceTable[model]
	tokenCost := float64(inputTokens)/1e6*p.InputPerMTok + float64(outputTokens)/1e6*p.OutputPerMTok
	return Calculation{
		Model:     model,
		TokenCost: tokenCost,
		TotalCost: tokenCost,
	}
}

// ForImage computes the flat cost of one generated image at the given
// quality tier ("standard" or "hd").
func ForImage(model, quality string) Calculation {
	p := priceTable[model]
	flat := p.ImageStandard
	if strings.EqualFold(quality, "hd") {
		flat = p.ImageHD
	}
	return Calculation{
		Model:     model,
		FlatCost:  flat,
		TotalCost: flat,
	}
}

// Ledger accumulates the calculations made while processing a single job. It
// is owned by one worker invocation and is not safe for concurrent use.
type Ledger struct {
	calculations []Calculation
	runningTotal float64
}

func NewLedger() *Ledger {
	return &Ledger{}
}

// Add records a calculation and returns the new running total.
func (l *Ledger) Add(c Calculation) float64 {
	l.calculations = append(l.calculations, c)
	l.runningTotal += c.TotalCost
	return l.runningTotal
}

// Total returns the accumulated cost so far.
func (l *Ledger) Total() float64 {
	return l.runningTotal
}

// Calculations returns the recorded calls in order.
func (l *Ledger) Calculations() []Calculation {
	return l.calculations
}
