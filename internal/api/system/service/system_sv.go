package systemService

import (
	"VisionForge/internal/api/system"
	"VisionForge/internal/entity"
	contextPkg "VisionForge/pkg/context"
	"VisionForge/pkg/log"
	"fmt"
	"math"
	"strings"

	"golang.org/x/net/context"
)

const (
	latencyVarianceFloor = 0.001
	fpsVarianceFloor     = 0.01
	minVarianceSamples   = 3
)

func (s *systemService) GetHealth(ctx context.Context) (*system.HealthResponse, error) {
	backends := make(map[string]bool)
	for _, model := range s.store.Models() {
		backends[model] = s.detector.IsConnected(model)
	}

	return &system.HealthResponse{
		Status:            "healthy",
		Backends:          backends,
		InferenceCount:    s.store.InferenceCount(),
		GroundTruthImages: s.groundTruth.Size(),
	}, nil
}

func (s *systemService) GetModelStatus(ctx context.Context) (system.ModelStatusResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	result := make(system.ModelStatusResponse, len(s.store.Models()))
	for _, model := range s.store.Models() {
		status, err := s.modelStatus.GetStatus(ctx, model)
		if err != nil {
			s.log.WithFields(log.Fields{
				"request_id": requestID,
				"model":      model,
				"error":      err.Error(),
			}).Warn("Status sidecar unavailable, falling back to connection state")
			status = connectionFallback(s.detector.IsConnected(model))
		}

		// A backend answering on its socket is serving regardless of
		// what it last published.
		if status.Status == entity.ModelStatusInitializing && s.detector.IsConnected(model) {
			status.Status = entity.ModelStatusReady
		}

		result[model] = status
	}

	return result, nil
}

// CheckIntegrity flags metrics that look static or fabricated. Real
// inference latencies always jitter; identical values across runs mean
// something upstream is replaying a canned response.
func (s *systemService) CheckIntegrity(ctx context.Context) (*system.IntegrityResponse, error) {
	var checks []system.IntegrityCheck

	for _, model := range s.store.Models() {
		latencies, err := s.store.GetLatencySamples(model)
		if err != nil {
			return nil, err
		}
		if len(latencies) >= minVarianceSamples {
			values := make([]float64, len(latencies))
			for i, sample := range latencies {
				values[i] = sample.LatencyMS
			}
			v := variance(values)
			passed := v > latencyVarianceFloor
			checks = append(checks, system.IntegrityCheck{
				Check:  model + "_latency_variance",
				Passed: passed,
				Value:  roundTo(v, 6),
				Detail: varianceDetail(passed, "Real variance detected", "Suspiciously identical latencies"),
			})
		}

		fpsHistory, err := s.store.GetFPSHistory(model)
		if err != nil {
			return nil, err
		}
		if len(fpsHistory) >= minVarianceSamples {
			values := make([]float64, len(fpsHistory))
			for i, sample := range fpsHistory {
				values[i] = sample.FPS
			}
			v := variance(values)
			passed := v > fpsVarianceFloor
			checks = append(checks, system.IntegrityCheck{
				Check:  model + "_fps_variance",
				Passed: passed,
				Value:  roundTo(v, 6),
				Detail: varianceDetail(passed, "Real FPS variance", "Static FPS values detected"),
			})
		}

		images := s.store.ImageCount(model)
		checks = append(checks, system.IntegrityCheck{
			Check:  model + "_has_predictions",
			Passed: images > 0,
			Value:  images,
			Detail: predictionsDetail(images),
		})
	}

	passed := 0
	for _, c := range checks {
		if c.Passed {
			passed++
		}
	}

	status := system.IntegrityFlagged
	switch {
	case passed == len(checks) && len(checks) > 0:
		status = system.IntegrityVerified
	case s.store.InferenceCount() == 0:
		status = system.IntegrityNeedsInference
	}

	return &system.IntegrityResponse{
		IntegrityStatus: status,
		TotalChecks:     len(checks),
		Passed:          passed,
		Failed:          len(checks) - passed,
		Checks:          checks,
		InferenceCount:  s.store.InferenceCount(),
	}, nil
}

func (s *systemService) GetReport(ctx context.Context) (*system.HealthReport, error) {
	var components []system.Component

	var primaryLatencies, primaryCurve int
	var primaryHasEval bool

	for i, model := range s.store.Models() {
		latencies, err := s.store.GetLatencySamples(model)
		if err != nil {
			return nil, err
		}

		status := "Failing"
		detail := "Backend not connected"
		if s.detector.IsConnected(model) {
			status = "Working"
			detail = fmt.Sprintf("Backend connected, %d runs recorded", len(latencies))
		}
		components = append(components, system.Component{
			Name:   strings.ToUpper(model) + " Inference",
			Status: status,
			Detail: detail,
		})

		if i == 0 {
			primaryLatencies = len(latencies)
			evaluation, err := s.store.GetEvaluation(model)
			if err != nil {
				return nil, err
			}
			primaryHasEval = evaluation != nil && len(evaluation.PRCurves) > 0
			curve, err := s.store.GetPRCurve(model)
			if err != nil {
				return nil, err
			}
			primaryCurve = len(curve)
		}
	}

	components = append(components,
		system.Component{
			Name:   "PR Curve",
			Status: reportStatus(primaryHasEval, "Dynamic", "Awaiting Data"),
			Detail: reportStatus(primaryHasEval, fmt.Sprintf("Computed from real detections, %d points", primaryCurve), "Run inference to generate"),
		},
		system.Component{
			Name:   "Stability Analysis",
			Status: reportStatus(primaryLatencies >= minVarianceSamples, "Real", "Insufficient Data"),
			Detail: reportStatus(primaryLatencies >= minVarianceSamples,
				fmt.Sprintf("Based on %d real latency samples", primaryLatencies),
				"Need at least 3 inference runs"),
		},
		system.Component{
			Name:   "Telemetry Stream",
			Status: "Live",
			Detail: fmt.Sprintf("Websocket endpoint active, %d subscribers", s.broadcaster.SubscriberCount()),
		},
		system.Component{
			Name:   "Analytics Engine",
			Status: reportStatus(s.store.InferenceCount() > 0, "Dynamic", "Awaiting Inference"),
			Detail: "All metrics computed from live inference data",
		},
	)

	return &system.HealthReport{
		Components:     components,
		InferenceCount: s.store.InferenceCount(),
	}, nil
}

func connectionFallback(connected bool) entity.ModelStatus {
	if connected {
		return entity.ModelStatus{Status: entity.ModelStatusReady}
	}
	return entity.ModelStatus{Status: entity.ModelStatusLoading}
}

func variance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return sum / float64(len(values))
}

func varianceDetail(passed bool, real, fake string) string {
	if passed {
		return real
	}
	return fake
}

func predictionsDetail(images int) string {
	if images > 0 {
		return fmt.Sprintf("%d inference runs recorded", images)
	}
	return "No inference runs yet"
}

func reportStatus(ok bool, yes, no string) string {
	if ok {
		return yes
	}
	return no
}

func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
