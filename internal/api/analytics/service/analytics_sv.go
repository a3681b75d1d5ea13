package analyticsService

import (
	"VisionForge/internal/api/analytics"
	"VisionForge/internal/entity"
	"VisionForge/internal/inference"
	contextPkg "VisionForge/pkg/context"
	"VisionForge/pkg/log"
	"errors"
	"math"

	"golang.org/x/net/context"
)

// Parameter counts (millions) for the served model weights. These come
// from the checkpoint metadata and only change when the sidecar swaps
// weights.
var paramsMillions = map[string]float64{
	"yolov5": 7.2,
	"detr":   41.3,
}

func (s *analyticsService) GetMetrics(ctx context.Context) (analytics.MetricsResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	result := analytics.MetricsResponse{"run_id": "latest"}

	for _, model := range s.store.Models() {
		latencies, err := s.store.GetLatencySamples(model)
		if err != nil {
			return nil, mapStoreErr(err)
		}
		fpsHistory, err := s.store.GetFPSHistory(model)
		if err != nil {
			return nil, mapStoreErr(err)
		}

		metrics := analytics.ModelMetrics{
			AvgInferenceMS: roundTo(meanLatency(latencies), 2),
			FPS:            roundTo(meanFPS(fpsHistory), 1),
			ParamsMillions: paramsMillions[model],
		}

		evaluation, err := s.store.GetEvaluation(model)
		if err != nil {
			return nil, mapStoreErr(err)
		}
		if evaluation != nil {
			metrics.MAP50 = evaluation.MAP50
			metrics.MAP75 = evaluation.MAP5095
			metrics.Precision = evaluation.AggregatePrecision
			metrics.Recall = evaluation.AggregateRecall
		}

		result[model] = metrics
	}

	s.log.WithFields(log.Fields{
		"request_id": requestID,
	}).Info("Metrics computed")

	return result, nil
}

func (s *analyticsService) GetPRCurve(ctx context.Context, model string) ([]entity.CurvePoint, error) {
	curve, err := s.store.GetPRCurve(model)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	s.log.WithFields(log.Fields{
		"request_id": contextPkg.GetRequestID(ctx),
		"model":      model,
		"points":     len(curve),
	}).Info("PR curve generated")

	return curve, nil
}

func (s *analyticsService) GetPerClassAP(ctx context.Context, model string) (*analytics.PerClassResponse, error) {
	metrics, err := s.store.GetPerClassAP(model)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	s.log.WithFields(log.Fields{
		"request_id": contextPkg.GetRequestID(ctx),
		"model":      model,
		"classes":    len(metrics),
	}).Info("Per-class AP computed")

	return &analytics.PerClassResponse{
		Model:   model,
		RunID:   "latest",
		Metrics: metrics,
	}, nil
}

func (s *analyticsService) GetStability(ctx context.Context, model string) ([]entity.LatencyBin, error) {
	dist, err := s.store.GetLatencyDistribution(model)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	s.log.WithFields(log.Fields{
		"request_id": contextPkg.GetRequestID(ctx),
		"model":      model,
		"bins":       len(dist),
	}).Info("Latency distribution updated")

	return dist, nil
}

func (s *analyticsService) GetFPSHistory(ctx context.Context, model string) ([]entity.FPSSample, error) {
	history, err := s.store.GetFPSHistory(model)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	s.log.WithFields(log.Fields{
		"request_id": contextPkg.GetRequestID(ctx),
		"model":      model,
		"samples":    len(history),
	}).Info("FPS history fetched")

	return history, nil
}

func mapStoreErr(err error) error {
	if errors.Is(err, inference.ErrUnknownModel) {
		return analytics.ErrUnknownModel
	}
	return err
}

func meanLatency(samples []entity.LatencySample) float64 {
	if len(samples) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range samples {
		sum += s.LatencyMS
	}
	return sum / float64(len(samples))
}

func meanFPS(samples []entity.FPSSample) float64 {
	if len(samples) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range samples {
		sum += s.FPS
	}
	return sum / float64(len(samples))
}

func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
