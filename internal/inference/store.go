package inference

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"VisionForge/internal/entity"
	"VisionForge/internal/evaluation"
	"VisionForge/internal/telemetry"
)

const defaultMaxHistory = 200

// DefaultModels are the model identities tracked out of the box.
var DefaultModels = []string{"yolov5", "detr"}

// DefaultClassNames is the Pascal VOC 2012 class list.
var DefaultClassNames = []string{
	"person", "bird", "cat", "cow", "dog", "horse", "sheep",
	"aeroplane", "bicycle", "boat", "bus", "car", "motorbike", "train",
	"bottle", "chair", "diningtable", "pottedplant", "sofa", "tvmonitor",
}

// ErrUnknownModel is returned for a model the store was not configured
// to track.
var ErrUnknownModel = fmt.Errorf("inference: unknown model")

// modelState is all mutable history for one model. Every mutation runs
// under its mutex as one atomic unit so readers never observe torn
// state.
type modelState struct {
	mu sync.RWMutex

	latency      []entity.LatencySample
	fps          []entity.FPSSample
	predictions  map[string][]entity.Detection
	groundTruths map[string][]entity.GroundTruthObject

	// gen counts accuracy-affecting writes; cache is valid iff
	// cacheGen == gen.
	gen      uint64
	cache    *entity.EvaluationResult
	cacheGen uint64
}

// Store accumulates per-model inference history and serves evaluation
// projections over it. Instances are independent; construct a fresh one
// per test.
type Store struct {
	log         *logrus.Logger
	pipeline    *evaluation.Pipeline
	broadcaster *telemetry.Broadcaster

	maxHistory    int
	classNames    []string
	iouThresholds []float64

	models         map[string]*modelState
	inferenceCount atomic.Int64
}

type StoreOption func(*Store)

// WithMaxHistory bounds the per-model latency and FPS histories.
func WithMaxHistory(n int) StoreOption {
	return func(s *Store) {
		if n > 0 {
			s.maxHistory = n
		}
	}
}

// WithModels replaces the tracked model set.
func WithModels(names ...string) StoreOption {
	return func(s *Store) {
		if len(names) > 0 {
			s.models = make(map[string]*modelState, len(names))
			for _, name := range names {
				s.models[name] = newModelState()
			}
		}
	}
}

// WithClassNames replaces the evaluated class list.
func WithClassNames(names ...string) StoreOption {
	return func(s *Store) {
		if len(names) > 0 {
			s.classNames = names
		}
	}
}

// WithIOUThresholds replaces the thresholds used by GetEvaluation.
func WithIOUThresholds(thresholds ...float64) StoreOption {
	return func(s *Store) {
		if len(thresholds) > 0 {
			s.iouThresholds = thresholds
		}
	}
}

func newModelState() *modelState {
	return &modelState{
		predictions:  make(map[string][]entity.Detection),
		groundTruths: make(map[string][]entity.GroundTruthObject),
	}
}

func New(log *logrus.Logger, pipeline *evaluation.Pipeline, broadcaster *telemetry.Broadcaster, opts ...StoreOption) *Store {
	s := &Store{
		log:           log,
		pipeline:      pipeline,
		broadcaster:   broadcaster,
		maxHistory:    defaultMaxHistory,
		classNames:    DefaultClassNames,
		iouThresholds: []float64{0.5},
		models:        make(map[string]*modelState, len(DefaultModels)),
	}
	for _, name := range DefaultModels {
		s.models[name] = newModelState()
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecordInference appends one inference run or one iteration of a
// profiling burst. The first iteration is the official result: it
// overwrites the model's ImageRecord for the image id, invalidates the
// evaluation cache and bumps the global inference counter. Subsequent
// iterations contribute to the latency distribution only.
func (s *Store) RecordInference(
	model, imageID string,
	detections []entity.Detection,
	groundTruths []entity.GroundTruthObject,
	latencyMS float64,
	iteration, totalIterations int,
) error {
	state, ok := s.models[model]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownModel, model)
	}

	state.mu.Lock()
	state.latency = appendBounded(state.latency, entity.LatencySample{
		LatencyMS: latencyMS,
		Iteration: iteration,
	}, s.maxHistory)

	if iteration == 1 {
		count := s.inferenceCount.Add(1)

		fps := 0.0
		if latencyMS > 0 {
			fps = 1000.0 / latencyMS
		}
		state.fps = appendBounded(state.fps, entity.FPSSample{
			Time:      count,
			FPS:       roundTo(fps, 1),
			LatencyMS: roundTo(latencyMS, 2),
		}, s.maxHistory)

		state.predictions[imageID] = append([]entity.Detection(nil), detections...)
		state.groundTruths[imageID] = append([]entity.GroundTruthObject(nil), groundTruths...)
		state.gen++
	}

	var avgLatency float64
	if iteration > 1 {
		avgLatency = tailMeanLatency(state.latency, iteration)
	}
	state.mu.Unlock()

	s.emitTelemetry(model, iteration, totalIterations, latencyMS, len(detections), avgLatency)
	return nil
}

func (s *Store) emitTelemetry(model string, iteration, total int, latencyMS float64, numDetections int, avgLatency float64) {
	if s.broadcaster == nil {
		return
	}

	if iteration == 1 {
		s.broadcaster.Broadcast(entity.InferenceIterationEvent{
			Type:          entity.EventInferenceIteration,
			Model:         model,
			Iteration:     1,
			Total:         total,
			LatencyMS:     roundTo(latencyMS, 2),
			NumDetections: numDetections,
			Timestamp:     float64(time.Now().UnixMilli()) / 1000.0,
			Log: fmt.Sprintf("[%s] Iteration 1/%d: %d objs, %.1fms",
				strings.ToUpper(model), total, numDetections, latencyMS),
		})
		return
	}

	if iteration%5 == 0 || iteration == total {
		s.broadcaster.Broadcast(entity.ProfilingUpdateEvent{
			Type:       entity.EventProfilingUpdate,
			Model:      model,
			Iteration:  iteration,
			Total:      total,
			AvgLatency: roundTo(avgLatency, 2),
			Log: fmt.Sprintf("[%s] Profiling: %d/%d runs complete...",
				strings.ToUpper(model), iteration, total),
		})
	}
}

// GetEvaluation returns the cached evaluation for the model, recomputing
// it from the accumulated history on a cache miss. A nil result means no
// predictions have been recorded yet. The recomputation runs on a
// snapshot, so concurrent writes merely invalidate it again.
func (s *Store) GetEvaluation(model string) (*entity.EvaluationResult, error) {
	state, ok := s.models[model]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, model)
	}

	state.mu.RLock()
	if state.cache != nil && state.cacheGen == state.gen {
		cached := state.cache
		state.mu.RUnlock()
		return cached, nil
	}
	if len(state.predictions) == 0 {
		state.mu.RUnlock()
		return nil, nil
	}
	gen := state.gen
	preds := make(map[string][]entity.Detection, len(state.predictions))
	for id, p := range state.predictions {
		preds[id] = p
	}
	gts := make(map[string][]entity.GroundTruthObject, len(state.groundTruths))
	for id, g := range state.groundTruths {
		gts[id] = g
	}
	state.mu.RUnlock()

	result := s.pipeline.Evaluate(preds, gts, s.classNames, s.iouThresholds)
	if result == nil {
		s.log.WithFields(logrus.Fields{"model": model}).Error("Evaluation produced no result")
		return nil, nil
	}

	state.mu.Lock()
	state.cache = result
	state.cacheGen = gen
	state.mu.Unlock()

	return result, nil
}

// GetLatencyDistribution bins the model's latency samples into an
// equal-width histogram of at most min(10, n) buckets.
func (s *Store) GetLatencyDistribution(model string) ([]entity.LatencyBin, error) {
	state, ok := s.models[model]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, model)
	}

	state.mu.RLock()
	samples := make([]float64, len(state.latency))
	for i, sample := range state.latency {
		samples[i] = sample.LatencyMS
	}
	state.mu.RUnlock()

	if len(samples) == 0 {
		return []entity.LatencyBin{}, nil
	}

	bins := len(samples)
	if bins > 10 {
		bins = 10
	}
	return histogram(samples, bins), nil
}

// GetFPSHistory returns the model's FPS measurements in recording order.
func (s *Store) GetFPSHistory(model string) ([]entity.FPSSample, error) {
	state, ok := s.models[model]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, model)
	}

	state.mu.RLock()
	defer state.mu.RUnlock()
	return append([]entity.FPSSample{}, state.fps...), nil
}

// GetLatencySamples returns a copy of the model's latency history.
func (s *Store) GetLatencySamples(model string) ([]entity.LatencySample, error) {
	state, ok := s.models[model]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, model)
	}

	state.mu.RLock()
	defer state.mu.RUnlock()
	return append([]entity.LatencySample{}, state.latency...), nil
}

// GetPRCurve pools every class's PR curve, orders it by recall and
// subsamples to at most ~50 points for transport.
func (s *Store) GetPRCurve(model string) ([]entity.CurvePoint, error) {
	result, err := s.GetEvaluation(model)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return []entity.CurvePoint{}, nil
	}

	classes := make([]string, 0, len(result.PRCurves))
	for class := range result.PRCurves {
		classes = append(classes, class)
	}
	sort.Strings(classes)

	var pooled []entity.PRPoint
	for _, class := range classes {
		pooled = append(pooled, result.PRCurves[class]...)
	}
	if len(pooled) == 0 {
		return []entity.CurvePoint{}, nil
	}

	sort.SliceStable(pooled, func(i, j int) bool {
		return pooled[i].Recall < pooled[j].Recall
	})

	step := len(pooled) / 50
	if step < 1 {
		step = 1
	}
	curve := make([]entity.CurvePoint, 0, len(pooled)/step+1)
	for i := 0; i < len(pooled); i += step {
		curve = append(curve, entity.CurvePoint{
			Recall:    roundTo(pooled[i].Recall, 4),
			Precision: roundTo(pooled[i].Precision, 4),
		})
	}
	return curve, nil
}

// GetPerClassAP lists per-class AP in the configured class order.
func (s *Store) GetPerClassAP(model string) ([]entity.ClassAP, error) {
	result, err := s.GetEvaluation(model)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return []entity.ClassAP{}, nil
	}

	out := make([]entity.ClassAP, 0, len(result.PerClassAP))
	for _, class := range s.classNames {
		ap, ok := result.PerClassAP[class]
		if !ok {
			continue
		}
		out = append(out, entity.ClassAP{Class: class, AP: roundTo(ap, 4)})
	}
	return out, nil
}

// InferenceCount reports the number of first-iteration inferences
// recorded across all models.
func (s *Store) InferenceCount() int64 {
	return s.inferenceCount.Load()
}

// Models lists the tracked model names, sorted.
func (s *Store) Models() []string {
	names := make([]string, 0, len(s.models))
	for name := range s.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasModel reports whether the store tracks the model.
func (s *Store) HasModel(model string) bool {
	_, ok := s.models[model]
	return ok
}

// ImageCount reports how many distinct images have official predictions
// recorded for the model.
func (s *Store) ImageCount(model string) int {
	state, ok := s.models[model]
	if !ok {
		return 0
	}
	state.mu.RLock()
	defer state.mu.RUnlock()
	return len(state.predictions)
}

func appendBounded[T any](history []T, sample T, capacity int) []T {
	if len(history) >= capacity {
		n := copy(history, history[len(history)-capacity+1:])
		history = history[:n]
	}
	return append(history, sample)
}

func tailMeanLatency(samples []entity.LatencySample, n int) float64 {
	if n > len(samples) {
		n = len(samples)
	}
	if n == 0 {
		return 0
	}
	sum := 0.0
	for _, sample := range samples[len(samples)-n:] {
		sum += sample.LatencyMS
	}
	return sum / float64(n)
}

func roundTo(v float64, places int) float64 {
	shift := math.Pow(10, float64(places))
	return math.Round(v*shift) / shift
}
