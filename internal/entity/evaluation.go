package entity

// PRPoint is one point of a per-class precision/recall curve. Confidence
// is the score cutoff at which the point was measured.
type PRPoint struct {
	Precision  float64 `json:"precision"`
	Recall     float64 `json:"recall"`
	Confidence float64 `json:"confidence"`
}

// CurvePoint is the compact two-field PR point served to dashboards.
type CurvePoint struct {
	Recall    float64 `json:"recall"`
	Precision float64 `json:"precision"`
}

// ClassAP pairs a class name with its average precision.
type ClassAP struct {
	Class string  `json:"class"`
	AP    float64 `json:"ap"`
}

// EvaluationResult is the derived evaluation artifact for one model.
// It is always recomputable from the current ImageRecord set and is
// never hand-edited.
type EvaluationResult struct {
	MAP50              float64              `json:"mAP_50"`
	MAP5095            float64              `json:"mAP_50_95"`
	AggregatePrecision float64              `json:"aggregate_precision"`
	AggregateRecall    float64              `json:"aggregate_recall"`
	PerClassAP         map[string]float64   `json:"per_class_ap"`
	PRCurves           map[string][]PRPoint `json:"pr_curves"`
	TotalPredictions   int                  `json:"total_predictions"`
	TotalGroundTruths  int                  `json:"total_ground_truths"`
	IOUThresholdsUsed  []float64            `json:"iou_thresholds_used"`
}
