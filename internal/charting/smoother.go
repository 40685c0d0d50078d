package charting

// Smooth applies a centered moving average over series. Windows are
// clamped at the boundaries, so edge points average over fewer neighbors
// instead of zero padding. Series shorter than the window come back
// unchanged. The input is never mutated.
func Smooth(series []float64, window int) []float64 {
	out := make([]float64, len(series))
	copy(out, series)
	if window <= 1 || len(series) < window {
		return out
	}

	half := window / 2
	for i := range series {
		lo := i - half
		if lo < 0 {
			lo = 0
		}
		hi := i + half
		if hi > len(series)-1 {
			hi = len(series) - 1
		}

		var sum float64
		for j := lo; j <= hi; j++ {
			sum += series[j]
		}
		out[i] = sum / float64(hi-lo+1)
	}
	return out
}
