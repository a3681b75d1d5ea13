package analytics

import "VisionForge/internal/entity"

// ModelMetrics is the headline metric block for one model. map_75 keeps
// its historical JSON name but carries mAP@0.5:0.95, which the dashboard
// renders as the "strict" column.
type ModelMetrics struct {
	MAP50          float64 `json:"map_50"`
	MAP75          float64 `json:"map_75"`
	Precision      float64 `json:"precision"`
	Recall         float64 `json:"recall"`
	AvgInferenceMS float64 `json:"avg_inference_ms"`
	FPS            float64 `json:"fps"`
	ParamsMillions float64 `json:"params_millions"`
}

// MetricsResponse maps "run_id" plus one entry per model name.
type MetricsResponse map[string]interface{}

type PerClassResponse struct {
	Model   string           `json:"model"`
	RunID   string           `json:"run_id"`
	Metrics []entity.ClassAP `json:"metrics"`
}
