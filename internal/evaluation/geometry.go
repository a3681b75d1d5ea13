package evaluation

import (
	"math"

	"VisionForge/internal/entity"
)

// IoU computes the intersection-over-union of two axis-aligned boxes.
// Disjoint or degenerate boxes (including inverted coordinates) yield
// exactly 0.
func IoU(a, b entity.BoundingBox) float64 {
	x1 := math.Max(a[0], b[0])
	y1 := math.Max(a[1], b[1])
	x2 := math.Min(a[2], b[2])
	y2 := math.Min(a[3], b[3])

	intersection := math.Max(0, x2-x1) * math.Max(0, y2-y1)
	if intersection == 0 {
		return 0.0
	}

	areaA := (a[2] - a[0]) * (a[3] - a[1])
	areaB := (b[2] - b[0]) * (b[3] - b[1])
	union := areaA + areaB - intersection
	if union <= 0 {
		return 0.0
	}

	return intersection / union
}
