package ptplay

type numeric interface {
	uint8 | int8 | int16 | int
}

func clampMin[T numeric](v, min T) T {
	if v < min {
		return min
	}
	return v
}

func clampMax[T numeric](v, max T) T {
	if v > max {
		return max
	}
	return v
}

func clamp[T numeric](v, min, max T) T {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// calcBufferSamples returns the number of interleaved samples
// a single tick occupies at the given tempo.
//
// The frame count is (rate/tickRate)*125/bpm rounded up to an even number.
func calcBufferSamples(rate, tickRate, bpm int) int {
	frames := (rate / tickRate) * 125 / bpm
	if frames&1 != 0 {
		frames++
	}
	return frames * pcmChannels
}
