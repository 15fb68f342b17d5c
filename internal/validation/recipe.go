package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pantrychef/recipegen/internal/recipe"
)

// RecipeValidationConfig sets the bar a generated recipe has to clear.
type RecipeValidationConfig struct {
	RequireTitle      bool
	MinIngredients    int
	MinDirections     int
	MinDirectionWords int
}

// RecipeValidationResult explains how a recipe scored.
type RecipeValidationResult struct {
	IsValid         bool
	QualityScore    int
	HasPlaceholders bool
	Issues          []string
}

func DefaultRecipeValidationConfig() RecipeValidationConfig {
	return RecipeValidationConfig{
		RequireTitle:      true,
		MinIngredients:    2,
		MinDirections:     1,
		MinDirectionWords: 3,
	}
}

var placeholderPattern = regexp.MustCompile(`(?i)^(n/?a|unknown|not specified|none|tbd|todo|x+|\[.*\]|<.*>|\.+|-+)$`)

// DetectPlaceholders reports whether text is empty or a filler value.
func DetectPlaceholders(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return true
	}
	return placeholderPattern.MatchString(trimmed)
}

// ValidateRecipe scores a parsed recipe out of 100. A recipe is valid when it
// has no issues.
func ValidateRecipe(r recipe.StructuredRecipe, cfg RecipeValidationConfig) RecipeValidationResult {
	result := RecipeValidationResult{Issues: []string{}}

	if r.IsEmpty() {
		result.Issues = append(result.Issues, "Recipe has no sections")
		return result
	}

	score := 0

	if DetectPlaceholders(r.Title) {
		if cfg.RequireTitle {
			result.Issues = append(result.Issues, "Missing or placeholder title")
		}
		if strings.TrimSpace(r.Title) != "" {
			result.HasPlaceholders = true
		}
	} else {
		score += 20
	}

	realIngredients := 0
	for _, ing := range r.Ingredients {
		if DetectPlaceholders(ing) {
			result.HasPlaceholders = true
			continue
		}
		realIngredients++
	}
	if realIngredients < cfg.MinIngredients {
		result.Issues = append(result.Issues, fmt.Sprintf("Too few ingredients (%d, need %d)", realIngredients, cfg.MinIngredients))
	}
	score += min(realIngredients*8, 40)

	realDirections := 0
	for _, dir := range r.Directions {
		if DetectPlaceholders(dir) {
			result.HasPlaceholders = true
			continue
		}
		if len(strings.Fields(dir)) < cfg.MinDirectionWords {
			continue
		}
		realDirections++
	}
	if realDirections < cfg.MinDirections {
		result.Issues = append(result.Issues, fmt.Sprintf("Too few instructions (%d, need %d)", realDirections, cfg.MinDirections))
	}
	score += min(realDirections*10, 40)

	if result.HasPlaceholders {
		result.Issues = append(result.Issues, "Recipe contains placeholder values")
		score /= 2
	}

	result.QualityScore = score
	result.IsValid = len(result.Issues) == 0
	return result
}

// CheckRecipe reports whether r is usable under the default rules.
func CheckRecipe(r recipe.StructuredRecipe) bool {
	return ValidateRecipe(r, DefaultRecipeValidationConfig()).IsValid
}
