package detection

import (
	"sort"
	"strings"
)

// cocoClasses maps the food and kitchen labels of the COCO vocabulary used by
// the YOLOv8 weights to their class ids.
var cocoClasses = map[string]int{
	"bottle":       39,
	"wine glass":   40,
	"cup":          41,
	"fork":         42,
	"knife":        43,
	"spoon":        44,
	"bowl":         45,
	"banana":       46,
	"apple":        47,
	"sandwich":     48,
	"orange":       49,
	"broccoli":     50,
	"carrot":       51,
	"hot dog":      52,
	"pizza":        53,
	"donut":        54,
	"cake":         55,
	"refrigerator": 72,
}

// UnknownClassID is returned for labels outside the vocabulary.
const UnknownClassID = -1

// ClassID resolves a label to its class id.
func ClassID(name string) int {
	if id, ok := cocoClasses[strings.ToLower(strings.TrimSpace(name))]; ok {
		return id
	}
	return UnknownClassID
}

// Vocabulary returns the known labels in alphabetical order.
func Vocabulary() []string {
	names := make([]string, 0, len(cocoClasses))
	for name := range cocoClasses {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
