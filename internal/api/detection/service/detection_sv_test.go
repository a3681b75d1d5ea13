package detectionService

import (
	"encoding/base64"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/context"

	"VisionForge/internal/api/detection"
	"VisionForge/internal/entity"
	"VisionForge/internal/evaluation"
	"VisionForge/internal/inference"
	"VisionForge/internal/telemetry"
	"VisionForge/pkg/detector"
	"VisionForge/pkg/utils"
)

type stubDetector struct {
	results map[string]*detector.Result
	err     error
	calls   map[string]int
}

func newStubDetector() *stubDetector {
	return &stubDetector{
		results: make(map[string]*detector.Result),
		calls:   make(map[string]int),
	}
}

func (d *stubDetector) Detect(ctx context.Context, model, image string, conf, iou float64) (*detector.Result, error) {
	d.calls[model]++
	if d.err != nil {
		return nil, d.err
	}
	result, ok := d.results[model]
	if !ok {
		return nil, errors.New("no backend for " + model)
	}
	return result, nil
}

func (d *stubDetector) IsConnected(model string) bool { return d.results[model] != nil }
func (d *stubDetector) Reconnect(model string) error  { return nil }
func (d *stubDetector) Models() []string              { return []string{"yolov5", "detr"} }
func (d *stubDetector) CloseConnections()             {}

type stubLookup struct {
	objects []entity.GroundTruthObject
}

func (l *stubLookup) Lookup(imageHash string) []entity.GroundTruthObject { return l.objects }
func (l *stubLookup) Size() int                                          { return len(l.objects) }

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testImage() string {
	return base64.StdEncoding.EncodeToString([]byte("not a real jpeg, but decodes"))
}

func newTestService(det detector.IDetector, lookup *stubLookup) (IDetectionService, *inference.Store, *telemetry.Broadcaster) {
	logger := quietLogger()
	broadcaster := telemetry.NewBroadcaster(logger)
	store := inference.New(logger, evaluation.NewPipeline(), broadcaster)
	svc := NewDetectionService(logger, det, lookup, store, broadcaster, utils.New())
	return svc, store, broadcaster
}

func TestDetectRejectsInvalidImage(t *testing.T) {
	svc, _, _ := newTestService(newStubDetector(), &stubLookup{})

	_, err := svc.Detect(context.Background(), detection.DetectRequest{Image: "!!!not-base64!!!"})
	assert.ErrorIs(t, err, detection.ErrInvalidImagePayload)
}

func TestDetectNoBackendAvailable(t *testing.T) {
	det := newStubDetector()
	det.err = errors.New("connection refused")
	svc, store, _ := newTestService(det, &stubLookup{})

	_, err := svc.Detect(context.Background(), detection.DetectRequest{Image: testImage()})
	assert.ErrorIs(t, err, detection.ErrNoBackendAvailable)
	assert.Equal(t, int64(0), store.InferenceCount())
}

func TestDetectSingleModel(t *testing.T) {
	det := newStubDetector()
	det.results["yolov5"] = &detector.Result{
		Detections: []entity.Detection{
			{ClassName: "dog", Confidence: 0.9, BBox: entity.BoundingBox{0, 0, 10, 10}},
			{ClassName: "cat", Confidence: 0.7, BBox: entity.BoundingBox{20, 20, 30, 30}},
		},
	}
	svc, store, _ := newTestService(det, &stubLookup{})

	resp, err := svc.Detect(context.Background(), detection.DetectRequest{
		Image: testImage(),
		Model: detection.ModelYOLOv5,
	})
	require.NoError(t, err)

	result, ok := resp["yolov5"]
	require.True(t, ok)
	assert.Equal(t, 2, result.NumObjects)
	assert.InDelta(t, 0.8, result.AvgConfidence, 1e-9)
	assert.Len(t, result.Detections, 2)

	assert.Equal(t, int64(1), store.InferenceCount())
	assert.Equal(t, 1, store.ImageCount("yolov5"))
	assert.Equal(t, 0, store.ImageCount("detr"))
}

func TestDetectPartialBackendFailure(t *testing.T) {
	det := newStubDetector()
	det.results["detr"] = &detector.Result{
		Detections: []entity.Detection{
			{ClassName: "person", Confidence: 0.6, BBox: entity.BoundingBox{0, 0, 5, 5}},
		},
	}
	svc, _, _ := newTestService(det, &stubLookup{})

	resp, err := svc.Detect(context.Background(), detection.DetectRequest{Image: testImage()})
	require.NoError(t, err)

	assert.Contains(t, resp, "detr")
	assert.NotContains(t, resp, "yolov5")
}

func TestDetectRunsProfilingBurst(t *testing.T) {
	det := newStubDetector()
	det.results["detr"] = &detector.Result{
		Detections: []entity.Detection{
			{ClassName: "car", Confidence: 0.8, BBox: entity.BoundingBox{0, 0, 8, 8}},
		},
	}
	svc, store, broadcaster := newTestService(det, &stubLookup{})

	sub := broadcaster.Subscribe()
	defer broadcaster.Unsubscribe(sub)

	_, err := svc.Detect(context.Background(), detection.DetectRequest{
		Image: testImage(),
		Model: detection.ModelDETR,
	})
	require.NoError(t, err)

	deadline := time.After(5 * time.Second)
	for {
		select {
		case event := <-sub.Events():
			if event.Kind() == entity.EventInferenceComplete {
				complete := event.(entity.InferenceCompleteEvent)
				assert.Equal(t, []string{"detr"}, complete.Models)
				assert.Equal(t, int64(1), complete.Count)

				// All 10 iterations landed in the latency history.
				samples, err := store.GetLatencySamples("detr")
				require.NoError(t, err)
				assert.Len(t, samples, profilingIterations["detr"])
				assert.Equal(t, profilingIterations["detr"], det.calls["detr"])
				return
			}
		case <-deadline:
			t.Fatal("inference_complete event never arrived")
		}
	}
}

func TestResolveModels(t *testing.T) {
	assert.Equal(t, []string{"yolov5"}, resolveModels("yolov5"))
	assert.Equal(t, []string{"detr"}, resolveModels("detr"))
	assert.Equal(t, []string{"yolov5", "detr"}, resolveModels("both"))
	assert.Equal(t, []string{"yolov5", "detr"}, resolveModels(""))
}
