package detection

import (
	"encoding/json"
	"fmt"
	"strings"
)

// llmDetection is the item shape requested from vision language models.
type llmDetection struct {
	Name       string    `json:"name"`
	ClassName  string    `json:"class_name"`
	Confidence *float64  `json:"confidence"`
	BBox       []float64 `json:"bbox"`
}

// ParseModelAnswer turns a vision model answer into detections. It accepts a
// JSON array of objects, an object with an "ingredients" array, a JSON array of
// strings, or a bare bracketed list such as [egg, milk]. Items without a
// confidence are treated as certain.
func ParseModelAnswer(answer string) ([]Detection, error) {
	text := StripCodeFences(strings.TrimSpace(answer))
	if text == "" {
		return []Detection{}, nil
	}

	var objects []llmDetection
	if err := json.Unmarshal([]byte(text), &objects); err == nil {
		return fromObjects(objects), nil
	}

	var wrapped struct {
		Ingredients []llmDetection `json:"ingredients"`
	}
	if err := json.Unmarshal([]byte(text), &wrapped); err == nil && wrapped.Ingredients != nil {
		return fromObjects(wrapped.Ingredients), nil
	}

	var names []string
	if err := json.Unmarshal([]byte(text), &names); err == nil {
		return fromNames(names), nil
	}

	if strings.HasPrefix(text, "[") && strings.HasSuffix(text, "]") {
		inner := strings.TrimSuffix(strings.TrimPrefix(text, "["), "]")
		var parsed []string
		for _, part := range strings.Split(inner, ",") {
			parsed = append(parsed, strings.Trim(strings.TrimSpace(part), `"'`))
		}
		return fromNames(parsed), nil
	}

	return nil, fmt.Errorf("unrecognised detection answer: %.80q", text)
}

// StripCodeFences removes a surrounding markdown code fence.
func StripCodeFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.Index(s, "\n"); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func fromObjects(items []llmDetection) []Detection {
	out := make([]Detection, 0, len(items))
	for _, item := range items {
		name := item.ClassName
		if name == "" {
			name = item.Name
		}
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		d := Detection{
			ClassID:    ClassID(name),
			ClassName:  name,
			Confidence: 1,
		}
		if item.Confidence != nil {
			d.Confidence = clamp01(*item.Confidence)
		}
		if len(item.BBox) == 4 {
			copy(d.BBox[:], item.BBox)
		}
		out = append(out, d)
	}
	return out
}

func fromNames(names []string) []Detection {
	out := make([]Detection, 0, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" {
			continue
		}
		out = append(out, Detection{ClassID: ClassID(n), ClassName: n, Confidence: 1})
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
