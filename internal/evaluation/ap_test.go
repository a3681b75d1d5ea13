package evaluation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeAPPerfectRanking(t *testing.T) {
	precisions := []float64{1, 1, 1}
	recalls := []float64{0.33, 0.67, 1.0}
	assert.InDelta(t, 1.0, ComputeAP(precisions, recalls), 1e-9)
}

func TestComputeAPEmptyInput(t *testing.T) {
	assert.Equal(t, 0.0, ComputeAP(nil, nil))
	assert.Equal(t, 0.0, ComputeAP([]float64{}, []float64{}))
}

func TestComputeAPAllZeroPrecision(t *testing.T) {
	precisions := []float64{0, 0, 0}
	recalls := []float64{0, 0, 0}
	assert.Equal(t, 0.0, ComputeAP(precisions, recalls))
}

func TestComputeAPMismatchedLengths(t *testing.T) {
	assert.Equal(t, 0.0, ComputeAP([]float64{1}, []float64{0.5, 1.0}))
}

func TestComputeAPEnvelopeInterpolation(t *testing.T) {
	// One TP, one FP, one TP over two ground truths:
	// precisions [1, 0.5, 0.667], recalls [0.5, 0.5, 1.0].
	precisions := []float64{1, 0.5, 2.0 / 3.0}
	recalls := []float64{0.5, 0.5, 1.0}

	// Envelope: precision 1 up to recall 0.5, then 2/3 up to 1.0.
	want := 0.5*1.0 + 0.5*(2.0/3.0)
	assert.InDelta(t, want, ComputeAP(precisions, recalls), 1e-9)
}

func TestComputeAPMonotoneEnvelope(t *testing.T) {
	// A precision dip must not reduce area below the later peak.
	precisions := []float64{1.0, 0.2, 0.9}
	recalls := []float64{0.25, 0.5, 1.0}

	want := 0.25*1.0 + 0.25*0.9 + 0.5*0.9
	assert.InDelta(t, want, ComputeAP(precisions, recalls), 1e-9)
}
