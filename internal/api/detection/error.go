package detection

import "VisionForge/pkg/response"

var (
	ErrInvalidImagePayload  = response.NewError(400, "invalid image payload")
	ErrUnknownModel         = response.NewError(400, "unknown model")
	ErrNoBackendAvailable   = response.NewError(503, "no detection backend available")
	ErrInternalServerError  = response.NewError(500, "internal server error")
	ErrBackendNotResponding = response.NewError(502, "detection backend not responding")
)
