package evaluation

import (
	"VisionForge/internal/entity"
)

// MatchOutcome classifies one prediction after greedy matching.
type MatchOutcome int8

const (
	// FalsePositive marks a prediction that matched no ground truth at
	// the requested threshold.
	FalsePositive MatchOutcome = iota
	// TruePositive marks a prediction that consumed a non-difficult
	// ground truth.
	TruePositive
	// Ignored marks a prediction that consumed a difficult ground truth;
	// it counts as neither true nor false positive.
	Ignored
)

// Match greedily assigns predictions to ground truths at the given IoU
// threshold. Predictions must already be sorted by confidence descending;
// Match preserves their order and returns one outcome per prediction.
// A ground truth can be consumed at most once; on equal IoU the earliest
// ground truth wins. The second return value is the number of
// non-difficult ground truths.
func Match(predictions []entity.Detection, groundTruths []entity.GroundTruthObject, iouThreshold float64) ([]MatchOutcome, int) {
	nGT := 0
	for _, gt := range groundTruths {
		if !gt.Difficult {
			nGT++
		}
	}

	matched := make([]bool, len(groundTruths))
	outcomes := make([]MatchOutcome, len(predictions))

	for i, pred := range predictions {
		bestIoU := 0.0
		bestIdx := -1

		for j, gt := range groundTruths {
			if matched[j] {
				continue
			}
			if iou := IoU(pred.BBox, gt.BBox); iou > bestIoU {
				bestIoU = iou
				bestIdx = j
			}
		}

		if bestIdx >= 0 && bestIoU >= iouThreshold {
			matched[bestIdx] = true
			if groundTruths[bestIdx].Difficult {
				outcomes[i] = Ignored
			} else {
				outcomes[i] = TruePositive
			}
		} else {
			outcomes[i] = FalsePositive
		}
	}

	return outcomes, nGT
}
