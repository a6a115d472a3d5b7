package ptplay

import (
	"encoding/binary"

	"github.com/quasilyte/ptplay/pcm"
)

// fastMixer resamples a voice in runs: the number of frames until the
// next loop boundary is computed up front, so the inner loop only steps
// and interpolates.
type fastMixer struct {
	mixerBase
}

func (m *fastMixer) Mix(voices []*Voice, out []byte) {
	if len(voices) == 0 {
		m.silence(out)
		return
	}

	acc := m.acc[:m.frames(out)]
	clear(acc)
	for _, v := range voices {
		m.mixVoice(v, acc)
	}

	switch m.format {
	case pcm.S8:
		for i, a := range acc {
			s := uint16(uint8(int8(clamp(int(a), -128, 127))))
			binary.LittleEndian.PutUint16(out[i*2:], s|s<<8)
		}
	default:
		for i, a := range acc {
			s := uint32(uint16(int16(clamp(int(a), -32768, 32767))))
			binary.LittleEndian.PutUint32(out[i*4:], s|s<<16)
		}
	}
}

func (m *fastMixer) mixVoice(v *Voice, acc []int32) {
	var p voiceParams
	if !m.prepare(v, &p) {
		return
	}

	// Positions below safeEnd can read sample[x+1] without a bounds check.
	safeEnd := (len(v.Sample) - 1) << Precision

	pos := v.Pos
	for len(acc) != 0 {
		run := len(acc)
		wraps := false
		if p.dx > 0 {
			// pos < end holds here, so k >= 1.
			k := (p.end - pos + p.dx - 1) / p.dx
			if k <= run {
				run = k
				wraps = true
			}
		}

		pos = m.mixRun(acc[:run], v.Sample, pos, p.dx, p.vol, safeEnd)
		acc = acc[run:]

		if wraps {
			if !p.looped {
				v.Period = 0
				break
			}
			pos = p.loop
		}
	}
	v.Pos = pos
}

func (m *fastMixer) mixRun(acc []int32, sample []int8, pos, dx, vol, safeEnd int) int {
	shift := m.shift
	i := 0
	for ; i < len(acc) && pos < safeEnd; i++ {
		x := pos >> Precision
		f := pos & precisionMask
		acc[i] += int32(((int(sample[x])*(precisionOne-f) + int(sample[x+1])*f) * vol) >> shift)
		pos += dx
	}
	// The tail of a sample interpolates towards its last byte.
	for ; i < len(acc); i++ {
		x := pos >> Precision
		f := pos & precisionMask
		s0 := int(sample[x])
		s1 := s0
		if x < len(sample)-1 {
			s1 = int(sample[x+1])
		}
		acc[i] += int32(((s0*(precisionOne-f) + s1*f) * vol) >> shift)
		pos += dx
	}
	return pos
}
