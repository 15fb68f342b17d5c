// Package recipe holds the prompt construction and generated-text parsing used
// around the recipe text model. Every function here is pure and safe for
// concurrent use.
package recipe

import (
	"strconv"
	"strings"
)

// PromptPrefix marks the start of the ingredient section in every prompt.
const PromptPrefix = "items: "

// AnyCuisine is the sentinel meaning no cuisine constraint.
const AnyCuisine = "any"

// Constraints are the optional limits applied to a prompt. Zero values mean absent.
type Constraints struct {
	Cuisine        string
	Allergies      string
	MaxTimeMinutes int
}

// NormalizeIngredients splits comma separated input into lower-cased, trimmed
// items. Empty entries are dropped; order and duplicates are kept.
func NormalizeIngredients(raw string) []string {
	items := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		item := strings.ToLower(strings.TrimSpace(part))
		if item == "" {
			continue
		}
		items = append(items, item)
	}
	return items
}

// NormalizeAllergies trims and lower-cases the free text allergy field.
func NormalizeAllergies(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// BuildPrompt renders the model input for the given ingredients and constraints.
// Field order is fixed: items, cuisine, avoid, max_time. User text is not
// escaped, so delimiters inside it reach the model unchanged.
func BuildPrompt(ingredients []string, c Constraints) string {
	var b strings.Builder
	b.WriteString(PromptPrefix)
	b.WriteString(strings.Join(ingredients, ", "))

	if c.Cuisine != "" && !strings.EqualFold(c.Cuisine, AnyCuisine) {
		b.WriteString(" | cuisine: ")
		b.WriteString(c.Cuisine)
	}
	if allergies := strings.TrimSpace(c.Allergies); allergies != "" {
		b.WriteString(" | avoid: ")
		b.WriteString(c.Allergies)
	}
	if c.MaxTimeMinutes != 0 {
		b.WriteString(" | max_time: ")
		b.WriteString(strconv.Itoa(c.MaxTimeMinutes))
		b.WriteString(" mins")
	}

	return b.String()
}
