package recipe

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Section markers recognised at the start of a trimmed line.
const (
	TitleMarker       = "title:"
	IngredientsMarker = "ingredients:"
	DirectionsMarker  = "directions:"
)

// StructuredRecipe is a cleaned generation split into its display sections.
type StructuredRecipe struct {
	Title       string   `json:"title"`
	Ingredients []string `json:"ingredients"`
	Directions  []string `json:"directions"`
}

// IsEmpty reports whether no section was found.
func (r StructuredRecipe) IsEmpty() bool {
	return r.Title == "" && len(r.Ingredients) == 0 && len(r.Directions) == 0
}

// ParseSections splits cleaned text into title, ingredients and directions.
// Unknown lines are ignored and a repeated marker overwrites the earlier value.
func ParseSections(text string) StructuredRecipe {
	out := StructuredRecipe{
		Ingredients: []string{},
		Directions:  []string{},
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, TitleMarker):
			out.Title = Capitalize(strings.TrimSpace(strings.TrimPrefix(line, TitleMarker)))
		case strings.HasPrefix(line, IngredientsMarker):
			out.Ingredients = splitItems(strings.TrimPrefix(line, IngredientsMarker))
		case strings.HasPrefix(line, DirectionsMarker):
			out.Directions = splitItems(strings.TrimPrefix(line, DirectionsMarker))
		}
	}

	return out
}

func splitItems(s string) []string {
	parts := strings.Split(s, ItemSeparator)
	items := make([]string, len(parts))
	for i, p := range parts {
		items[i] = Capitalize(strings.TrimSpace(p))
	}
	return items
}

// Capitalize upper-cases the first letter and lower-cases the rest.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

// FormatSections renders a recipe in the console layout used by the CLI.
func FormatSections(r StructuredRecipe) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[TITLE]: %s\n", r.Title)
	b.WriteString("[INGREDIENTS]:\n")
	for i, item := range r.Ingredients {
		fmt.Fprintf(&b, "  - %d: %s\n", i+1, item)
	}
	b.WriteString("[DIRECTIONS]:\n")
	for i, step := range r.Directions {
		fmt.Fprintf(&b, "  - %d: %s\n", i+1, step)
	}
	return b.String()
}
