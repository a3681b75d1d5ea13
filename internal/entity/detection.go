package entity

// BoundingBox is an axis-aligned box in image-pixel coordinates,
// ordered [x1, y1, x2, y2] with x1 < x2 and y1 < y2.
type BoundingBox [4]float64

// Detection is a single predicted object instance as returned by a
// detector backend. Immutable once recorded.
type Detection struct {
	ClassName  string      `json:"class_name"`
	Confidence float64     `json:"confidence"`
	BBox       BoundingBox `json:"bbox"`
}

// GroundTruthObject is one annotated object instance. Difficult objects
// are excluded from TP/FP counting but still occupy a match slot.
type GroundTruthObject struct {
	ClassName string      `json:"class_name"`
	BBox      BoundingBox `json:"bbox"`
	Difficult bool        `json:"difficult"`
}

// LatencySample is one measured inference duration, tagged with the
// iteration index within a profiling burst.
type LatencySample struct {
	LatencyMS float64 `json:"latency_ms"`
	Iteration int     `json:"iteration"`
}

// FPSSample is one throughput measurement, recorded on the first
// iteration of each inference only. Time is the global inference
// sequence index at recording time.
type FPSSample struct {
	Time      int64   `json:"time"`
	FPS       float64 `json:"fps"`
	LatencyMS float64 `json:"latency_ms"`
}

// LatencyBin is one bucket of the latency histogram.
type LatencyBin struct {
	Bin   string  `json:"bin"`
	Count int     `json:"count"`
	MS    float64 `json:"ms"`
}
