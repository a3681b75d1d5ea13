package analytics

import "VisionForge/pkg/response"

var (
	ErrUnknownModel = response.NewError(400, "unknown model")
)
