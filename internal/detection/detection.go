// Package detection finds ingredients in photos through external vision
// backends and filters their results.
package detection

import "context"

// DefaultMinConfidence is the threshold applied when none is configured.
const DefaultMinConfidence = 0.5

// BoundingBox is x1, y1, x2, y2 in pixel coordinates.
type BoundingBox [4]float64

// Detection is a single recognised ingredient.
type Detection struct {
	ClassID    int         `json:"class_id"`
	ClassName  string      `json:"class_name"`
	Confidence float64     `json:"confidence"`
	BBox       BoundingBox `json:"bbox"`
}

// Detector returns the ingredients visible in an image.
type Detector interface {
	Detect(ctx context.Context, image []byte, mimeType string) ([]Detection, error)
}

// FilterDetections keeps detections whose confidence is at least minConfidence,
// in their original order.
func FilterDetections(detections []Detection, minConfidence float64) []Detection {
	out := make([]Detection, 0, len(detections))
	for _, d := range detections {
		if d.Confidence >= minConfidence {
			out = append(out, d)
		}
	}
	return out
}

// ClassNames returns the class names of detections, in order.
func ClassNames(detections []Detection) []string {
	names := make([]string, len(detections))
	for i, d := range detections {
		names[i] = d.ClassName
	}
	return names
}
