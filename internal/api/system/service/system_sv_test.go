package systemService

import (
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/context"

	"VisionForge/internal/api/system"
	"VisionForge/internal/entity"
	"VisionForge/internal/evaluation"
	"VisionForge/internal/inference"
	"VisionForge/internal/telemetry"
	"VisionForge/pkg/detector"
)

type stubDetector struct {
	connected map[string]bool
}

func (d *stubDetector) Detect(ctx context.Context, model, image string, conf, iou float64) (*detector.Result, error) {
	return nil, errors.New("not used")
}
func (d *stubDetector) IsConnected(model string) bool { return d.connected[model] }
func (d *stubDetector) Reconnect(model string) error  { return nil }
func (d *stubDetector) Models() []string              { return []string{"yolov5", "detr"} }
func (d *stubDetector) CloseConnections()             {}

type stubStatus struct {
	statuses map[string]entity.ModelStatus
	err      error
}

func (s *stubStatus) GetStatus(ctx context.Context, model string) (entity.ModelStatus, error) {
	if s.err != nil {
		return entity.ModelStatus{}, s.err
	}
	return s.statuses[model], nil
}

type stubLookup struct {
	size int
}

func (l *stubLookup) Lookup(imageHash string) []entity.GroundTruthObject { return nil }
func (l *stubLookup) Size() int                                          { return l.size }

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type fixture struct {
	svc         ISystemService
	store       *inference.Store
	broadcaster *telemetry.Broadcaster
	detector    *stubDetector
	status      *stubStatus
}

func newFixture() *fixture {
	logger := quietLogger()
	broadcaster := telemetry.NewBroadcaster(logger)
	store := inference.New(logger, evaluation.NewPipeline(), broadcaster)
	det := &stubDetector{connected: map[string]bool{"yolov5": true, "detr": true}}
	status := &stubStatus{statuses: map[string]entity.ModelStatus{
		"yolov5": {Status: entity.ModelStatusReady},
		"detr":   {Status: entity.ModelStatusLoading, Stages: map[string]string{"weights": "downloading"}},
	}}

	return &fixture{
		svc:         NewSystemService(logger, store, broadcaster, det, status, &stubLookup{size: 42}),
		store:       store,
		broadcaster: broadcaster,
		detector:    det,
		status:      status,
	}
}

func recordRun(t *testing.T, store *inference.Store, model string, latencyMS float64, iteration int) {
	t.Helper()
	var detections []entity.Detection
	var groundTruths []entity.GroundTruthObject
	if iteration == 1 {
		detections = []entity.Detection{
			{ClassName: "dog", Confidence: 0.9, BBox: entity.BoundingBox{0, 0, 10, 10}},
		}
		groundTruths = []entity.GroundTruthObject{
			{ClassName: "dog", BBox: entity.BoundingBox{0, 0, 10, 10}},
		}
	}
	require.NoError(t, store.RecordInference(model, "img_1", detections, groundTruths, latencyMS, iteration, 5))
}

func TestGetHealth(t *testing.T) {
	f := newFixture()
	f.detector.connected["detr"] = false

	health, err := f.svc.GetHealth(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "healthy", health.Status)
	assert.True(t, health.Backends["yolov5"])
	assert.False(t, health.Backends["detr"])
	assert.Equal(t, 42, health.GroundTruthImages)
	assert.Equal(t, int64(0), health.InferenceCount)
}

func TestGetModelStatusFromSidecar(t *testing.T) {
	f := newFixture()

	status, err := f.svc.GetModelStatus(context.Background())
	require.NoError(t, err)

	assert.Equal(t, entity.ModelStatusReady, status["yolov5"].Status)
	assert.Equal(t, entity.ModelStatusLoading, status["detr"].Status)
	assert.Equal(t, "downloading", status["detr"].Stages["weights"])
}

func TestGetModelStatusFallsBackToConnection(t *testing.T) {
	f := newFixture()
	f.status.err = errors.New("redis down")
	f.detector.connected["detr"] = false

	status, err := f.svc.GetModelStatus(context.Background())
	require.NoError(t, err)

	assert.Equal(t, entity.ModelStatusReady, status["yolov5"].Status)
	assert.Equal(t, entity.ModelStatusLoading, status["detr"].Status)
}

func TestGetModelStatusConnectedOverridesInitializing(t *testing.T) {
	f := newFixture()
	f.status.statuses["yolov5"] = entity.ModelStatus{Status: entity.ModelStatusInitializing}

	status, err := f.svc.GetModelStatus(context.Background())
	require.NoError(t, err)

	assert.Equal(t, entity.ModelStatusReady, status["yolov5"].Status)
}

func TestIntegrityNeedsInferenceWhenEmpty(t *testing.T) {
	f := newFixture()

	integrity, err := f.svc.CheckIntegrity(context.Background())
	require.NoError(t, err)

	assert.Equal(t, system.IntegrityNeedsInference, integrity.IntegrityStatus)
	// Only the has_predictions checks exist before any runs.
	assert.Equal(t, 2, integrity.TotalChecks)
	assert.Equal(t, 2, integrity.Failed)
}

func TestIntegrityVerifiedWithJitteryLatencies(t *testing.T) {
	f := newFixture()
	latencies := []float64{18.2, 21.7, 19.9, 23.4, 20.1}
	for model := range map[string]bool{"yolov5": true, "detr": true} {
		recordRun(t, f.store, model, latencies[0], 1)
		for i, ms := range latencies[1:] {
			recordRun(t, f.store, model, ms, i+2)
		}
	}

	integrity, err := f.svc.CheckIntegrity(context.Background())
	require.NoError(t, err)

	assert.Equal(t, system.IntegrityVerified, integrity.IntegrityStatus)
	assert.Equal(t, integrity.TotalChecks, integrity.Passed)
	assert.Zero(t, integrity.Failed)
}

func TestIntegrityFlagsConstantLatencies(t *testing.T) {
	f := newFixture()
	recordRun(t, f.store, "yolov5", 20.0, 1)
	for i := 2; i <= 5; i++ {
		recordRun(t, f.store, "yolov5", 20.0, i)
	}

	integrity, err := f.svc.CheckIntegrity(context.Background())
	require.NoError(t, err)

	assert.Equal(t, system.IntegrityFlagged, integrity.IntegrityStatus)

	var latencyCheck *system.IntegrityCheck
	for i := range integrity.Checks {
		if integrity.Checks[i].Check == "yolov5_latency_variance" {
			latencyCheck = &integrity.Checks[i]
		}
	}
	require.NotNil(t, latencyCheck)
	assert.False(t, latencyCheck.Passed)
}

func TestReportComponents(t *testing.T) {
	f := newFixture()
	recordRun(t, f.store, "yolov5", 18.0, 1)
	recordRun(t, f.store, "yolov5", 22.0, 2)
	recordRun(t, f.store, "yolov5", 20.0, 3)

	report, err := f.svc.GetReport(context.Background())
	require.NoError(t, err)

	byName := make(map[string]system.Component)
	for _, c := range report.Components {
		byName[c.Name] = c
	}

	assert.Equal(t, "Working", byName["YOLOV5 Inference"].Status)
	assert.Equal(t, "Working", byName["DETR Inference"].Status)
	assert.Equal(t, "Dynamic", byName["PR Curve"].Status)
	assert.Equal(t, "Real", byName["Stability Analysis"].Status)
	assert.Equal(t, "Live", byName["Telemetry Stream"].Status)
	assert.Equal(t, "Dynamic", byName["Analytics Engine"].Status)
	assert.Equal(t, int64(1), report.InferenceCount)
}

func TestReportAwaitingDataWhenEmpty(t *testing.T) {
	f := newFixture()
	f.detector.connected = map[string]bool{}

	report, err := f.svc.GetReport(context.Background())
	require.NoError(t, err)

	byName := make(map[string]system.Component)
	for _, c := range report.Components {
		byName[c.Name] = c
	}

	assert.Equal(t, "Failing", byName["YOLOV5 Inference"].Status)
	assert.Equal(t, "Awaiting Data", byName["PR Curve"].Status)
	assert.Equal(t, "Insufficient Data", byName["Stability Analysis"].Status)
	assert.Equal(t, "Awaiting Inference", byName["Analytics Engine"].Status)
}
