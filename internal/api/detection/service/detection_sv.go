package detectionService

import (
	"VisionForge/internal/api/detection"
	"VisionForge/internal/entity"
	contextPkg "VisionForge/pkg/context"
	"VisionForge/pkg/log"
	"math"
	"sync"
	"time"

	"golang.org/x/net/context"
)

// Profiling burst sizes per model. The first iteration happens inline
// with the request; the remaining runs re-submit the same frame in the
// background so latency statistics settle quickly.
var profilingIterations = map[string]int{
	detection.ModelYOLOv5: 20,
	detection.ModelDETR:   10,
}

const profilingPause = 10 * time.Millisecond

func (s *detectionService) Detect(ctx context.Context, req detection.DetectRequest) (detection.DetectResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	imageBytes, err := s.utils.DecodeBase64Image(req.Image)
	if err != nil {
		s.log.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Warn("Rejecting detect request with undecodable image")
		return nil, detection.ErrInvalidImagePayload
	}

	imageID := s.utils.NewImageID()
	imageHash := s.utils.MD5Hex(imageBytes)
	groundTruths := s.groundTruth.Lookup(imageHash)

	confThreshold := detection.DefaultConfThreshold
	if req.ConfThreshold != nil {
		confThreshold = *req.ConfThreshold
	}
	iouThreshold := detection.DefaultIOUThreshold
	if req.IOUThreshold != nil {
		iouThreshold = *req.IOUThreshold
	}

	models := resolveModels(req.Model)

	s.log.WithFields(log.Fields{
		"request_id":    requestID,
		"image_id":      imageID,
		"image_hash":    imageHash,
		"models":        models,
		"ground_truths": len(groundTruths),
	}).Info("Running detection")

	resp := make(detection.DetectResponse, len(models))
	var completed []string

	for _, model := range models {
		start := time.Now()
		result, err := s.detector.Detect(ctx, model, req.Image, confThreshold, iouThreshold)
		latencyMS := float64(time.Since(start).Microseconds()) / 1000.0
		if err != nil {
			s.log.WithFields(log.Fields{
				"request_id": requestID,
				"model":      model,
				"error":      err.Error(),
			}).Warn("Model backend did not respond, skipping")
			continue
		}

		total := profilingIterations[model]
		if err := s.store.RecordInference(model, imageID, result.Detections, groundTruths, latencyMS, 1, total); err != nil {
			s.log.WithFields(log.Fields{
				"request_id": requestID,
				"model":      model,
				"error":      err.Error(),
			}).Error("Failed to record inference")
			continue
		}

		resp[model] = detection.ModelResult{
			Detections:      result.Detections,
			InferenceTimeMS: roundTo(latencyMS, 2),
			NumObjects:      len(result.Detections),
			AvgConfidence:   avgConfidence(result.Detections),
			ImageWithBoxes:  result.ImageWithBoxes,
		}
		completed = append(completed, model)
	}

	if len(resp) == 0 {
		return nil, detection.ErrNoBackendAvailable
	}

	go s.runProfilingBurst(requestID, imageID, req.Image, confThreshold, iouThreshold, completed)

	return resp, nil
}

// runProfilingBurst re-runs inference for iterations 2..N of each model
// that answered the live request. Detached from the request context: the
// caller already has its response.
func (s *detectionService) runProfilingBurst(requestID, imageID, image string, confThreshold, iouThreshold float64, models []string) {
	var wg sync.WaitGroup
	for _, model := range models {
		wg.Add(1)
		go func(model string) {
			defer wg.Done()
			s.profileModel(requestID, imageID, image, confThreshold, iouThreshold, model)
		}(model)
	}
	wg.Wait()

	s.broadcaster.Broadcast(entity.InferenceCompleteEvent{
		Type:      entity.EventInferenceComplete,
		Count:     s.store.InferenceCount(),
		Models:    models,
		Timestamp: float64(time.Now().UnixMilli()) / 1000.0,
	})
}

func (s *detectionService) profileModel(requestID, imageID, image string, confThreshold, iouThreshold float64, model string) {
	total := profilingIterations[model]

	for iteration := 2; iteration <= total; iteration++ {
		c, cancel := context.WithTimeout(context.Background(), 60*time.Second)

		start := time.Now()
		result, err := s.detector.Detect(c, model, image, confThreshold, iouThreshold)
		latencyMS := float64(time.Since(start).Microseconds()) / 1000.0
		cancel()

		if err != nil {
			s.log.WithFields(log.Fields{
				"request_id": requestID,
				"model":      model,
				"iteration":  iteration,
				"error":      err.Error(),
			}).Warn("Profiling iteration failed, aborting burst")
			return
		}

		// Timing-only record: predictions for the image were stored on
		// iteration 1 and the backend output is deterministic anyway.
		if err := s.store.RecordInference(model, imageID, result.Detections, nil, latencyMS, iteration, total); err != nil {
			s.log.WithFields(log.Fields{
				"request_id": requestID,
				"model":      model,
				"iteration":  iteration,
				"error":      err.Error(),
			}).Error("Failed to record profiling iteration")
			return
		}

		time.Sleep(profilingPause)
	}
}

func resolveModels(requested string) []string {
	switch requested {
	case detection.ModelYOLOv5:
		return []string{detection.ModelYOLOv5}
	case detection.ModelDETR:
		return []string{detection.ModelDETR}
	default:
		return []string{detection.ModelYOLOv5, detection.ModelDETR}
	}
}

func avgConfidence(detections []entity.Detection) float64 {
	if len(detections) == 0 {
		return 0
	}
	sum := 0.0
	for _, d := range detections {
		sum += d.Confidence
	}
	return roundTo(sum/float64(len(detections)), 3)
}

func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
