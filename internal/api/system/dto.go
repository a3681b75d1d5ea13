package system

import "VisionForge/internal/entity"

type HealthResponse struct {
	Status            string          `json:"status"`
	Backends          map[string]bool `json:"backends"`
	InferenceCount    int64           `json:"inference_count"`
	GroundTruthImages int             `json:"ground_truth_images"`
}

// ModelStatusResponse maps model name to its published load state.
type ModelStatusResponse map[string]entity.ModelStatus

const (
	IntegrityVerified       = "VERIFIED"
	IntegrityNeedsInference = "NEEDS_INFERENCE"
	IntegrityFlagged        = "FLAGGED"
)

// IntegrityCheck is one automated validation against static or dummy
// metrics. Value holds a variance for the statistical checks and a
// count for the presence checks.
type IntegrityCheck struct {
	Check  string      `json:"check"`
	Passed bool        `json:"passed"`
	Value  interface{} `json:"value"`
	Detail string      `json:"detail"`
}

type IntegrityResponse struct {
	IntegrityStatus string           `json:"integrity_status"`
	TotalChecks     int              `json:"total_checks"`
	Passed          int              `json:"passed"`
	Failed          int              `json:"failed"`
	Checks          []IntegrityCheck `json:"checks"`
	InferenceCount  int64            `json:"inference_count"`
}

type Component struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Detail string `json:"detail"`
}

type HealthReport struct {
	Components     []Component `json:"components"`
	InferenceCount int64       `json:"inference_count"`
}
