// Package coloring assembles the final generation prompt from the structured
// photo analysis and the user's choices. Building is pure: identical inputs
// always produce the identical string.
package coloring

import (
	"strings"

	"server/internal/domain"
)

const lineArtDirective = "Render as pure black line art on a clean white background: " +
	"crisp closed outlines suitable for coloring, no shading, no gradients, " +
	"no gray fills, no color anywhere."

// StyleClause returns the fixed descriptive clause for a style. The switch is
// exhaustive over the closed enum; adding a style without a clause is a
// compile-time reminder here.
func StyleClause(style domain.Style) string {
	switch style {
	case domain.StyleClassic:
		return "Draw it as a classic coloring book illustration with bold, friendly outlines and simple shapes."
	case domain.StyleGhibli:
		return "Draw it in a whimsical hand-drawn storybook style with soft organic shapes and a gentle sense of wonder."
	case domain.StyleMandala:
		return "Frame the subject with intricate mandala-inspired ornamentation and symmetrical decorative patterns."
	}
	return ""
}

// DifficultyClause returns the fixed complexity clause for a level 1-5.
func DifficultyClause(level domain.Difficulty) string {
	switch level {
	case 1:
		return "Keep it extremely simple: very thick outlines, large open regions, minimal detail, suitable for toddlers."
	case 2:
		return "Keep it simple: thick outlines, big shapes, only a few background details."
	case 3:
		return "Use moderate detail: medium line weight with a balanced mix of large and small regions."
	case 4:
		return "Use rich detail: finer lines, textured areas, and a full background scene."
	case 5:
		return "Use very intricate detail: fine lines, dense patterns, and elaborate background elements for experienced colorists."
	}
	return ""
}

// BuildPrompt deterministically composes the image-generation prompt. It
// embeds the subject description, clothing, pose, the user's scene text, the
// style and difficulty clauses, and the closing line-art directive.
func BuildPrompt(analysis domain.PhotoAnalysis, sceneText string, style domain.Style, difficulty domain.Difficulty) string {
	var b strings.Builder

	b.WriteString("A coloring book page featuring ")
	subject := strings.TrimSpace(analysis.MainObject)
	if subject == "" {
		subject = "a cheerful child"
	}
	b.WriteString(subject)
	if age := strings.TrimSpace(analysis.AgeGroup); age != "" {
		b.WriteString(" (")
		b.WriteString(age)
		b.WriteString(")")
	}
	b.WriteString(".")

	if hair := strings.TrimSpace(analysis.HairDescription); hair != "" {
		b.WriteString(" Hair: ")
		b.WriteString(hair)
		b.WriteString(".")
	}
	if clothing := strings.TrimSpace(analysis.ClothingStyle); clothing != "" {
		b.WriteString(" Clothing: ")
		b.WriteString(clothing)
		b.WriteString(".")
	}
	if pose := strings.TrimSpace(analysis.PoseExpression); pose != "" {
		b.WriteString(" Pose and expression: ")
		b.WriteString(pose)
		b.WriteString(".")
	}

	if scene := strings.TrimSpace(sceneText); scene != "" {
		b.WriteString(" Scene: ")
		b.WriteString(scene)
		b.WriteString(".")
	}

	if len(analysis.SuggestedElements) > 0 {
		b.WriteString(" Include decorative elements such as ")
		b.WriteString(strings.Join(analysis.SuggestedElements, ", "))
		b.WriteString(".")
	}

	b.WriteString(" ")
	b.WriteString(StyleClause(style))
	b.WriteString(" ")
	b.WriteString(DifficultyClause(difficulty))
	b.WriteString(" ")
	b.WriteString(lineArtDirective)

	return b.String()
}
