package evaluation

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"VisionForge/internal/entity"
)

// epsilon guards the precision denominator against 0/0.
var epsilon = math.Nextafter(1, 2) - 1

const defaultMaxCurvePoints = 50

// Pipeline runs the full detection evaluation protocol over accumulated
// per-image predictions and ground truths.
type Pipeline struct {
	includeZeroAP  bool
	maxCurvePoints int
}

type PipelineOption func(*Pipeline)

// WithIncludeZeroAP includes classes scoring exactly 0 AP in the mAP
// average. The default excludes them, matching the dashboard's historical
// behavior rather than the strict VOC convention.
func WithIncludeZeroAP(include bool) PipelineOption {
	return func(p *Pipeline) {
		p.includeZeroAP = include
	}
}

// WithMaxCurvePoints caps PR curve subsampling for transport.
func WithMaxCurvePoints(n int) PipelineOption {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxCurvePoints = n
		}
	}
}

func NewPipeline(opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		maxCurvePoints: defaultMaxCurvePoints,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// scoredOutcome pools one prediction's confidence and its match flag
// across images for the global re-sort.
type scoredOutcome struct {
	confidence float64
	tp         bool
}

// Evaluate runs matching and AP computation for every class at every
// requested IoU threshold and derives mAP@0.5, mAP@0.5:0.95, aggregate
// precision/recall and per-class PR curves. The result depends only on
// the inputs; identical inputs produce identical results.
func (p *Pipeline) Evaluate(
	allPredictions map[string][]entity.Detection,
	allGroundTruths map[string][]entity.GroundTruthObject,
	classNames []string,
	iouThresholds []float64,
) *entity.EvaluationResult {
	if len(iouThresholds) == 0 {
		iouThresholds = []float64{0.5}
	}

	imageIDs := unionImageIDs(allPredictions, allGroundTruths)

	type thresholdResult struct {
		mAP        float64
		perClassAP map[string]float64
		prCurves   map[string][]entity.PRPoint
	}

	results := make(map[float64]thresholdResult, len(iouThresholds))
	mAPs := make([]float64, 0, len(iouThresholds))

	for _, iouThresh := range iouThresholds {
		perClassAP := make(map[string]float64, len(classNames))
		prCurves := make(map[string][]entity.PRPoint, len(classNames))

		for _, className := range classNames {
			pooled := make([]scoredOutcome, 0)
			totalGT := 0

			for _, imageID := range imageIDs {
				imgPreds := filterPredictions(allPredictions[imageID], className)
				imgGTs := filterGroundTruths(allGroundTruths[imageID], className)

				outcomes, nGT := Match(imgPreds, imgGTs, iouThresh)
				totalGT += nGT

				for i, outcome := range outcomes {
					if outcome == Ignored {
						continue
					}
					pooled = append(pooled, scoredOutcome{
						confidence: imgPreds[i].Confidence,
						tp:         outcome == TruePositive,
					})
				}
			}

			if totalGT == 0 {
				perClassAP[className] = 0.0
				prCurves[className] = []entity.PRPoint{}
				continue
			}

			// Global re-sort of the pooled list, distinct from the
			// per-image sort used for matching. Stable so ties keep
			// submission order.
			sort.SliceStable(pooled, func(i, j int) bool {
				return pooled[i].confidence > pooled[j].confidence
			})

			precisions := make([]float64, len(pooled))
			recalls := make([]float64, len(pooled))
			tp, fp := 0, 0
			for i, s := range pooled {
				if s.tp {
					tp++
				} else {
					fp++
				}
				precisions[i] = float64(tp) / math.Max(float64(tp+fp), epsilon)
				recalls[i] = float64(tp) / float64(totalGT)
			}

			perClassAP[className] = ComputeAP(precisions, recalls)
			prCurves[className] = subsampleCurve(precisions, recalls, pooled, p.maxCurvePoints)
		}

		mAP := p.meanAP(perClassAP, classNames)
		results[iouThresh] = thresholdResult{mAP: mAP, perClassAP: perClassAP, prCurves: prCurves}
		mAPs = append(mAPs, mAP)
	}

	mAP50 := results[0.5].mAP

	mAP5095 := mAP50
	if len(iouThresholds) > 1 {
		sum := 0.0
		for _, m := range mAPs {
			sum += m
		}
		mAP5095 = sum / float64(len(mAPs))
	}

	aggPrecision, aggRecall := p.aggregatePR(allPredictions, allGroundTruths, classNames, imageIDs)

	totalPreds := 0
	for _, preds := range allPredictions {
		totalPreds += len(preds)
	}
	totalGTs := 0
	for _, gts := range allGroundTruths {
		for _, gt := range gts {
			if !gt.Difficult {
				totalGTs++
			}
		}
	}

	primary := results[0.5]
	if primary.perClassAP == nil {
		primary.perClassAP = map[string]float64{}
		primary.prCurves = map[string][]entity.PRPoint{}
	}

	return &entity.EvaluationResult{
		MAP50:              mAP50,
		MAP5095:            mAP5095,
		AggregatePrecision: roundTo(aggPrecision, 4),
		AggregateRecall:    roundTo(aggRecall, 4),
		PerClassAP:         primary.perClassAP,
		PRCurves:           primary.prCurves,
		TotalPredictions:   totalPreds,
		TotalGroundTruths:  totalGTs,
		IOUThresholdsUsed:  iouThresholds,
	}
}

// meanAP averages per-class AP. Classes with AP exactly 0 are excluded
// unless the pipeline was configured otherwise.
func (p *Pipeline) meanAP(perClassAP map[string]float64, classNames []string) float64 {
	sum := 0.0
	n := 0
	for _, className := range classNames {
		ap := perClassAP[className]
		if ap > 0 || p.includeZeroAP {
			sum += ap
			n++
		}
	}
	if n == 0 {
		return 0.0
	}
	return sum / float64(n)
}

// aggregatePR recomputes micro-averaged precision/recall at threshold 0.5
// from pooled TP/FP counts across every class. This is the dashboard
// headline number and is independent of the per-class mAP.
func (p *Pipeline) aggregatePR(
	allPredictions map[string][]entity.Detection,
	allGroundTruths map[string][]entity.GroundTruthObject,
	classNames []string,
	imageIDs []string,
) (precision, recall float64) {
	totalTP, totalFP, totalGT := 0, 0, 0

	for _, className := range classNames {
		for _, imageID := range imageIDs {
			imgPreds := filterPredictions(allPredictions[imageID], className)
			imgGTs := filterGroundTruths(allGroundTruths[imageID], className)

			outcomes, nGT := Match(imgPreds, imgGTs, 0.5)
			totalGT += nGT
			for _, outcome := range outcomes {
				switch outcome {
				case TruePositive:
					totalTP++
				case FalsePositive:
					totalFP++
				}
			}
		}
	}

	precision = float64(totalTP) / math.Max(1, float64(totalTP+totalFP))
	recall = float64(totalTP) / math.Max(1, float64(totalGT))
	return precision, recall
}

// subsampleCurve compresses a PR curve to at most maxPoints evenly
// strided samples plus the final point.
func subsampleCurve(precisions, recalls []float64, pooled []scoredOutcome, maxPoints int) []entity.PRPoint {
	points := make([]entity.PRPoint, 0, maxPoints+1)
	if len(precisions) == 0 {
		return points
	}

	step := len(precisions) / maxPoints
	if step < 1 {
		step = 1
	}
	for i := 0; i < len(precisions); i += step {
		points = append(points, entity.PRPoint{
			Precision:  precisions[i],
			Recall:     recalls[i],
			Confidence: pooled[i].confidence,
		})
	}

	last := len(precisions) - 1
	points = append(points, entity.PRPoint{
		Precision:  precisions[last],
		Recall:     recalls[last],
		Confidence: pooled[last].confidence,
	})

	return points
}

// unionImageIDs returns the sorted union of image ids present in either
// map, so every evaluation pass visits images in the same order.
func unionImageIDs(
	allPredictions map[string][]entity.Detection,
	allGroundTruths map[string][]entity.GroundTruthObject,
) []string {
	seen := make(map[string]struct{}, len(allPredictions)+len(allGroundTruths))
	for id := range allPredictions {
		seen[id] = struct{}{}
	}
	for id := range allGroundTruths {
		seen[id] = struct{}{}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// filterPredictions selects a class's predictions (case-insensitive) and
// sorts them by confidence descending. The sort is stable so equal
// confidences keep their submission order, and the caller's slice is
// never reordered in place.
func filterPredictions(preds []entity.Detection, className string) []entity.Detection {
	out := make([]entity.Detection, 0, len(preds))
	for _, p := range preds {
		if strings.EqualFold(p.ClassName, className) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confidence > out[j].Confidence
	})
	return out
}

func filterGroundTruths(gts []entity.GroundTruthObject, className string) []entity.GroundTruthObject {
	out := make([]entity.GroundTruthObject, 0, len(gts))
	for _, g := range gts {
		if strings.EqualFold(g.ClassName, className) {
			out = append(out, g)
		}
	}
	return out
}

func roundTo(v float64, places int) float64 {
	shift := math.Pow(10, float64(places))
	return math.Round(v*shift) / shift
}

// String implements fmt.Stringer for debug logging of match outcomes.
func (o MatchOutcome) String() string {
	switch o {
	case TruePositive:
		return "tp"
	case FalsePositive:
		return "fp"
	case Ignored:
		return "ignored"
	default:
		return fmt.Sprintf("MatchOutcome(%d)", int8(o))
	}
}
