package entity

// ModelStatus mirrors the load state a detector backend publishes while
// it initializes: Initializing, Loading, Ready or Failed, with optional
// per-stage detail (encoder, weights, warmup).
type ModelStatus struct {
	Status string            `json:"status"`
	Stages map[string]string `json:"stages,omitempty"`
}

const (
	ModelStatusInitializing = "Initializing"
	ModelStatusLoading      = "Loading"
	ModelStatusReady        = "Ready"
	ModelStatusFailed       = "Failed"
)
