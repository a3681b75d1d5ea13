package evaluation

// ComputeAP computes Average Precision from ordered precision/recall
// sequences using all-point interpolation (VOC 2010+ protocol): sentinel
// points are added at recall 0 and 1, the precision envelope is made
// monotonically non-increasing from right to left, and the envelope is
// integrated over every recall change. Empty input yields 0.
func ComputeAP(precisions, recalls []float64) float64 {
	if len(precisions) != len(recalls) {
		return 0.0
	}

	p := make([]float64, 0, len(precisions)+2)
	p = append(p, 0.0)
	p = append(p, precisions...)
	p = append(p, 0.0)

	r := make([]float64, 0, len(recalls)+2)
	r = append(r, 0.0)
	r = append(r, recalls...)
	r = append(r, 1.0)

	for i := len(p) - 2; i >= 0; i-- {
		if p[i+1] > p[i] {
			p[i] = p[i+1]
		}
	}

	ap := 0.0
	for i := 0; i+1 < len(r); i++ {
		if r[i+1] != r[i] {
			ap += (r[i+1] - r[i]) * p[i+1]
		}
	}

	return ap
}
