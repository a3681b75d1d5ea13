package evaluation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"VisionForge/internal/entity"
)

func det(class string, conf float64, box entity.BoundingBox) entity.Detection {
	return entity.Detection{ClassName: class, Confidence: conf, BBox: box}
}

func gt(class string, box entity.BoundingBox, difficult bool) entity.GroundTruthObject {
	return entity.GroundTruthObject{ClassName: class, BBox: box, Difficult: difficult}
}

func TestMatchAtMostOneMatchPerGroundTruth(t *testing.T) {
	box := entity.BoundingBox{0, 0, 10, 10}
	preds := []entity.Detection{
		det("cat", 0.9, box),
		det("cat", 0.8, box),
	}
	gts := []entity.GroundTruthObject{gt("cat", box, false)}

	outcomes, nGT := Match(preds, gts, 0.5)

	assert.Equal(t, 1, nGT)
	assert.Equal(t, []MatchOutcome{TruePositive, FalsePositive}, outcomes)
}

func TestMatchDifficultGroundTruthIgnored(t *testing.T) {
	box := entity.BoundingBox{0, 0, 10, 10}
	preds := []entity.Detection{det("cat", 0.9, box)}
	gts := []entity.GroundTruthObject{gt("cat", box, true)}

	outcomes, nGT := Match(preds, gts, 0.5)

	assert.Equal(t, 0, nGT, "difficult objects excluded from the GT count")
	assert.Equal(t, []MatchOutcome{Ignored}, outcomes)
}

func TestMatchDifficultConsumesSlot(t *testing.T) {
	box := entity.BoundingBox{0, 0, 10, 10}
	preds := []entity.Detection{
		det("cat", 0.9, box),
		det("cat", 0.8, box),
	}
	gts := []entity.GroundTruthObject{gt("cat", box, true)}

	outcomes, _ := Match(preds, gts, 0.5)

	// The second prediction cannot claim the already-consumed slot.
	assert.Equal(t, []MatchOutcome{Ignored, FalsePositive}, outcomes)
}

func TestMatchBelowThresholdIsFalsePositive(t *testing.T) {
	preds := []entity.Detection{det("cat", 0.9, entity.BoundingBox{0, 0, 10, 10})}
	gts := []entity.GroundTruthObject{gt("cat", entity.BoundingBox{9, 9, 19, 19}, false)}

	outcomes, nGT := Match(preds, gts, 0.5)

	assert.Equal(t, 1, nGT)
	assert.Equal(t, []MatchOutcome{FalsePositive}, outcomes)
}

func TestMatchPicksHighestIoU(t *testing.T) {
	preds := []entity.Detection{det("dog", 0.7, entity.BoundingBox{0, 0, 10, 10})}
	gts := []entity.GroundTruthObject{
		gt("dog", entity.BoundingBox{4, 0, 14, 10}, false),
		gt("dog", entity.BoundingBox{1, 0, 11, 10}, false),
	}

	outcomes, _ := Match(preds, gts, 0.5)
	assert.Equal(t, []MatchOutcome{TruePositive}, outcomes)

	// The closer box (index 1) was consumed; a second identical
	// prediction can still claim the looser one if it clears the bar.
	preds = append(preds, det("dog", 0.6, entity.BoundingBox{0, 0, 10, 10}))
	outcomes, _ = Match(preds, gts, 0.3)
	assert.Equal(t, []MatchOutcome{TruePositive, TruePositive}, outcomes)
}

func TestMatchTieBreaksOnFirstGroundTruth(t *testing.T) {
	box := entity.BoundingBox{0, 0, 10, 10}
	preds := []entity.Detection{det("cat", 0.9, box)}
	gts := []entity.GroundTruthObject{
		gt("cat", box, false),
		gt("cat", box, false),
	}

	outcomes, nGT := Match(preds, gts, 0.5)
	assert.Equal(t, 2, nGT)
	assert.Equal(t, []MatchOutcome{TruePositive}, outcomes)

	// Deterministic: repeated runs consume the same slot first.
	for i := 0; i < 10; i++ {
		again, _ := Match(preds, gts, 0.5)
		assert.Equal(t, outcomes, again)
	}
}

func TestMatchEmptyInputs(t *testing.T) {
	outcomes, nGT := Match(nil, nil, 0.5)
	assert.Empty(t, outcomes)
	assert.Zero(t, nGT)

	outcomes, nGT = Match(nil, []entity.GroundTruthObject{gt("cat", entity.BoundingBox{0, 0, 1, 1}, false)}, 0.5)
	assert.Empty(t, outcomes)
	assert.Equal(t, 1, nGT)
}
