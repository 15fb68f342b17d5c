package ai

import (
	"fmt"
	"strings"
)

const roleSection = `<ROLE>
You are a recipe generator. You receive a short list of ingredients, optionally followed by
constraints, and you invent one practical home-cooking recipe that uses them.
</ROLE>`

const inputFormatSection = `<INPUT_FORMAT>
The user message has this shape:

items: <ingredient>, <ingredient>, ... | cuisine: <cuisine> | avoid: <allergies> | max_time: <minutes> mins

- "items" is always present.
- "cuisine", "avoid" and "max_time" are optional and appear in that order when present,
  each introduced by " | ".
- Never use an ingredient listed after "avoid".
- Keep the total cooking time within "max_time" when it is given.
</INPUT_FORMAT>`

const outputFormatSection = `<OUTPUT_FORMAT>
Answer with a single line and nothing else, using these exact markers:

title: <recipe title> <section> ingredients: <ingredient> <sep> <ingredient> <sep> ... <section> directions: <step> <sep> <step> <sep> ...

Rules:
1. Use "<section>" between the title, ingredients and directions parts.
2. Use "<sep>" between list items. Do not number the items.
3. Ingredients carry their quantity, e.g. "2 cups flour".
4. Do not use markdown, quotes, or JSON.
5. Write everything in lowercase.
</OUTPUT_FORMAT>`

const exampleSection = `<EXAMPLE>
User: items: macaroni, butter, salt, bacon, milk, flour, pepper, cream corn
Assistant: title: macaroni and corn casserole <section> ingredients: 2 cups macaroni <sep> 4 tbsp butter <sep> 1 tsp salt <sep> 6 slices bacon <sep> 2 cups milk <sep> 3 tbsp flour <sep> 1/2 tsp pepper <sep> 1 can cream corn <section> directions: cook macaroni until tender and drain. <sep> fry bacon until crisp, then crumble. <sep> melt butter, stir in flour, salt and pepper. <sep> add milk and cook until thick. <sep> fold in macaroni, corn and bacon and bake 20 minutes at 350f.
</EXAMPLE>`

// BuildRecipeFormatPrompt returns the system prompt that makes a chat model
// answer in the same delimited format as the seq2seq recipe model.
func BuildRecipeFormatPrompt() string {
	return strings.Join([]string{roleSection, inputFormatSection, outputFormatSection, exampleSection}, "\n\n")
}

const detectionRoleSection = `<ROLE>
You identify food ingredients visible in a photo of a fridge, pantry, or kitchen counter.
</ROLE>`

const detectionOutputSection = `<OUTPUT_FORMAT>
Respond with only a JSON object of this shape:

{"ingredients": [{"class_name": "", "confidence": 0.0, "bbox": [x1, y1, x2, y2]}]}

- "class_name" is a lowercase singular noun.
- "confidence" is between 0 and 1.
- "bbox" is the pixel bounding box; use [0, 0, 0, 0] when you cannot locate the item.
- Return an empty list when no food is visible.
</OUTPUT_FORMAT>`

const detectionVocabularySection = `<VOCABULARY>
Prefer these names when they fit: %s.
Other ingredients may be named freely.
</VOCABULARY>`

// BuildIngredientDetectionPrompt returns the vision prompt used by the LLM
// detectors. vocabulary nudges the model toward known class names.
func BuildIngredientDetectionPrompt(vocabulary []string) string {
	var sb strings.Builder
	sb.WriteString(detectionRoleSection)
	sb.WriteString("\n\n")
	sb.WriteString(detectionOutputSection)
	if len(vocabulary) > 0 {
		sb.WriteString("\n\n")
		sb.WriteString(fmt.Sprintf(detectionVocabularySection, strings.Join(vocabulary, ", ")))
	}
	return sb.String()
}
