package validation

import (
	"fmt"

	"github.com/pantrychef/recipegen/internal/errors"
)

const (
	MaxRecipesPerRequest = 5
	MaxIngredients       = 50
	MaxIngredientLength  = 64
)

// ValidateGenerateRequest checks the normalized inputs of a generate call.
func ValidateGenerateRequest(ingredients []string, maxTimeMinutes, count int) error {
	if len(ingredients) == 0 {
		return errors.NewValidationError(
			"at least one ingredient is required",
			"NO_INGREDIENTS",
			"Provide a comma separated list such as \"eggs, milk, flour\".",
		)
	}
	if len(ingredients) > MaxIngredients {
		return errors.NewValidationError(
			fmt.Sprintf("too many ingredients (%d, max %d)", len(ingredients), MaxIngredients),
			"TOO_MANY_INGREDIENTS",
			"Remove some ingredients and try again.",
		)
	}
	for _, ing := range ingredients {
		if len(ing) > MaxIngredientLength {
			return errors.NewValidationError(
				fmt.Sprintf("ingredient %.20q... is too long", ing),
				"INGREDIENT_TOO_LONG",
				"Separate ingredients with commas.",
			)
		}
	}
	if maxTimeMinutes < 0 {
		return errors.NewValidationError(
			"max_time must not be negative",
			"INVALID_MAX_TIME",
			"Use 0 for no time limit.",
		)
	}
	if count < 1 || count > MaxRecipesPerRequest {
		return errors.NewValidationError(
			fmt.Sprintf("count must be between 1 and %d", MaxRecipesPerRequest),
			"INVALID_COUNT",
			"",
		)
	}
	return nil
}
