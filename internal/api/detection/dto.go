package detection

import "VisionForge/internal/entity"

const (
	ModelYOLOv5 = "yolov5"
	ModelDETR   = "detr"
	ModelBoth   = "both"
)

// DetectRequest carries one detection job. Threshold fields are pointers
// so an absent field takes the documented default instead of 0.
type DetectRequest struct {
	Image         string   `json:"image" validate:"required"`
	Model         string   `json:"model" validate:"omitempty,oneof=yolov5 detr both"`
	ConfThreshold *float64 `json:"conf_threshold" validate:"omitempty,gte=0,lte=1"`
	IOUThreshold  *float64 `json:"iou_threshold" validate:"omitempty,gte=0,lte=1"`
}

const (
	DefaultConfThreshold = 0.5
	DefaultIOUThreshold  = 0.45
)

type ModelResult struct {
	Detections      []entity.Detection `json:"detections"`
	InferenceTimeMS float64            `json:"inference_time_ms"`
	NumObjects      int                `json:"num_objects"`
	AvgConfidence   float64            `json:"avg_confidence"`
	ImageWithBoxes  string             `json:"image_with_boxes,omitempty"`
}

// DetectResponse maps model name to its result; a model still loading is
// simply absent.
type DetectResponse map[string]ModelResult
