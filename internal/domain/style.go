package domain

import (
	"fmt"
	"strings"
)

// Style enumerates the supported coloring-page art styles. The set is closed:
// ParseStyle rejects anything else, so downstream switches only ever see
// these three values.
type Style string

const (
	StyleClassic Style = "classic"
	StyleGhibli  Style = "ghibli"
	StyleMandala Style = "mandala"
)

// ParseStyle sanitizes free-form user input into a supported style.
func ParseStyle(s string) (Style, error) {
	switch Style(strings.ToLower(strings.TrimSpace(s))) {
	case StyleClassic:
		return StyleClassic, nil
	case StyleGhibli:
		return StyleGhibli, nil
	case StyleMandala:
		return StyleMandala, nil
	default:
		return "", fmt.Errorf("%w: unknown style %q", ErrValidation, s)
	}
}

// Difficulty is the coloring complexity level, 1 (simplest) through 5.
type Difficulty int

const (
	DifficultyMin Difficulty = 1
	DifficultyMax Difficulty = 5
)

// ParseDifficulty validates the level range.
func ParseDifficulty(level int) (Difficulty, error) {
	if level < int(DifficultyMin) || level > int(DifficultyMax) {
		return 0, fmt.Errorf("%w: difficulty must be between %d and %d", ErrValidation, DifficultyMin, DifficultyMax)
	}
	return Difficulty(level), nil
}
