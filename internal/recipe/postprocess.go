package recipe

import "strings"

// Model vocabulary markers for field and item boundaries.
const (
	SectionToken   = "<section>"
	SeparatorToken = "<sep>"
)

// ItemSeparator replaces SeparatorToken in cleaned text.
const ItemSeparator = "--"

// DefaultSpecialTokens are the T5 tokenizer specials left in decoded output.
var DefaultSpecialTokens = []string{"</s>", "<pad>", "<unk>"}

// Replacement maps a model token to its display form.
type Replacement struct {
	Token string
	Value string
}

// TokenMap is applied in order after special tokens are removed.
var TokenMap = []Replacement{
	{Token: SectionToken, Value: "\n"},
	{Token: SeparatorToken, Value: ItemSeparator},
}

// RemoveSpecialTokens deletes every occurrence of each token from text.
func RemoveSpecialTokens(text string, specialTokens []string) string {
	for _, token := range specialTokens {
		if token == "" {
			continue
		}
		text = strings.ReplaceAll(text, token, "")
	}
	return text
}

// PostprocessText cleans a single decoded model output.
func PostprocessText(text string, specialTokens []string) string {
	text = RemoveSpecialTokens(text, specialTokens)
	for _, r := range TokenMap {
		text = strings.ReplaceAll(text, r.Token, r.Value)
	}
	return text
}

// Postprocess cleans each decoded output. The result has the same length and
// order as texts.
func Postprocess(texts []string, specialTokens []string) []string {
	cleaned := make([]string, len(texts))
	for i, text := range texts {
		cleaned[i] = PostprocessText(text, specialTokens)
	}
	return cleaned
}
