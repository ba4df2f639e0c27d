package cost

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestForTokensKnownModel(t *testing.T) {
	t.Parallel()
	c := ForTokens("gpt-4o", 1000, 500)
	// 1000 input at $2.50/MTok plus 500 output at $10.00/MTok.
	if !almostEqual(c.TotalCost, 0.0075) {
		t.Fatalf("TotalCost = %f, want 0.0075", c.TotalCost)
	}
	if c.Formatted() != "$0.0075" {
		t.Fatalf("Formatted = %q, want $0.0075", c.Formatted())
	}
	if c.FlatCost != 0 {
		t.Fatalf("token call must not carry a flat cost, got %f", c.FlatCost)
	}
}

func TestForTokensUnknownModelIsFree(t *testing.T) {
	t.Parallel()
	c := ForTokens("some-future-model", 1_000_000, 1_000_000)
	if c.TotalCost != 0 {
		t.Fatalf("unknown model should price at zero, got %f", c.TotalCost)
	}
}

func TestForImageQualityTiers(t *testing.T) {
	t.Parallel()
	cases := []struct {
		model   string
		quality string
		want    float64
	}{
		{model: "dall-e-3", quality: "standard", want: 0.040},
		{model: "dall-e-3", quality: "hd", want: 0.080},
		{model: "dall-e-3", quality: "HD", want: 0.080},
		{model: "gpt-image-1", quality: "standard", want: 0.042},
		{model: "gpt-image-1", quality: "hd", want: 0.167},
	}
	for _, tc := range cases {
		c := ForImage(tc.model, tc.quality)
		if !almostEqual(c.TotalCost, tc.want) {
			t.Fatalf("ForImage(%q, %q) = %f, want %f", tc.model, tc.quality, c.TotalCost, tc.want)
		}
	}
}

func TestLedgerRunningTotal(t *testing.T) {
	t.Parallel()
	l := NewLedger()

	first := l.Add(ForTokens("gpt-4o", 1000, 500))
	if !almostEqual(first, 0.0075) {
		t.Fatalf("running total after vision call = %f, want 0.0075", first)
	}
	second := l.Add(ForImage("dall-e-3", "standard"))
	if !almostEqual(second, 0.0475) {
		t.Fatalf("running total after image call = %f, want 0.0475", second)
	}
	if !almostEqual(l.Total(), second) {
		t.Fatalf("Total = %f, want %f", l.Total(), second)
	}
	if got := len(l.Calculations()); got != 2 {
		t.Fatalf("recorded %d calculations, want 2", got)
	}
}

func TestFormatUSD(t *testing.T) {
	t.Parallel()
	if got := FormatUSD(0.04); got != "$0.0400" {
		t.Fatalf("FormatUSD = %q, want $0.0400", got)
	}
	if got := FormatUSD(0); got != "$0.0000" {
		t.Fatalf("FormatUSD(0) = %q, want $0.0000", got)
	}
}
