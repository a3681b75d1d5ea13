package inference

import (
	"fmt"

	"VisionForge/internal/entity"
)

// histogram bins samples into `bins` equal-width buckets spanning
// [min, max]. Values on an interior edge fall into the right bucket; the
// maximum falls into the last. A constant sample set is widened by 0.5
// on each side so the single value still lands in a bucket.
func histogram(samples []float64, bins int) []entity.LatencyBin {
	if len(samples) == 0 || bins <= 0 {
		return []entity.LatencyBin{}
	}

	lo, hi := samples[0], samples[0]
	for _, v := range samples[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if lo == hi {
		lo -= 0.5
		hi += 0.5
	}

	width := (hi - lo) / float64(bins)
	counts := make([]int, bins)
	for _, v := range samples {
		idx := int((v - lo) / width)
		if idx >= bins {
			idx = bins - 1
		}
		if idx < 0 {
			idx = 0
		}
		counts[idx]++
	}

	out := make([]entity.LatencyBin, bins)
	for i := 0; i < bins; i++ {
		left := lo + float64(i)*width
		right := left + width
		out[i] = entity.LatencyBin{
			Bin:   fmt.Sprintf("%.1f-%.1f", left, right),
			Count: counts[i],
			MS:    (left + right) / 2,
		}
	}
	return out
}
