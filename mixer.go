package ptplay

import (
	"encoding/binary"

	"github.com/quasilyte/ptplay/pcm"
)

// Voice is a single sample being resampled into the output.
//
// Pos is a fixed point byte offset with Precision fractional bits.
// Length and LoopStart are in bytes; a looped voice restarts at LoopStart
// once Pos reaches Length. A voice with a zero Period is silent,
// and the mixer sets Period to 0 when a one-shot sample ends.
type Voice struct {
	Sample    []int8
	Pos       int
	Length    int
	LoopStart int
	Looped    bool
	Period    int
	Volume    int
}

// normalize makes the voice geometry safe to mix.
func (v *Voice) normalize() {
	v.Length = clamp(v.Length, 0, len(v.Sample))
	v.LoopStart = clamp(v.LoopStart, 0, v.Length)
	if v.LoopStart >= v.Length {
		v.Looped = false
	}
}

// Mixer adds voices into an interleaved PCM buffer.
//
// Mix overwrites out: the buffer contents on entry do not matter.
// The voices are advanced by len(out) frames.
type Mixer interface {
	Mix(voices []*Voice, out []byte)
}

type MixerConfig struct {
	Kind   MixerKind
	Format pcm.Format

	// VolumeShift is an extra left shift applied to every voice volume.
	VolumeShift int

	// ClockRate is the Amiga clock divided by the output rate.
	// A voice advances by ClockRate/Period bytes per frame.
	ClockRate int

	// MaxFrames is the largest buffer Mix will be called with.
	MaxFrames int
}

// NewMixer returns a mixer of the requested kind.
// All mixers produce bit-identical output for the same input.
func NewMixer(config MixerConfig) Mixer {
	base := mixerBase{
		acc:         make([]int32, config.MaxFrames),
		format:      config.Format,
		volumeShift: config.VolumeShift,
		clockRate:   config.ClockRate,
		shift:       Precision,
	}
	if config.Format == pcm.S8 {
		base.shift = Precision + 6
	}
	if config.Kind == MixerFast {
		return &fastMixer{mixerBase: base}
	}
	return &referenceMixer{mixerBase: base}
}

type mixerBase struct {
	acc         []int32
	format      pcm.Format
	volumeShift int
	clockRate   int

	// shift scales an interpolated sample times volume into the output range.
	shift int
}

// voiceParams holds the values both mixers derive from a voice
// before resampling it.
type voiceParams struct {
	end    int
	loop   int
	looped bool
	dx     int
	vol    int
}

// prepare validates the voice and computes its stepping.
// It returns false if the voice has nothing to play.
func (m *mixerBase) prepare(v *Voice, p *voiceParams) bool {
	if v.Period <= 0 || v.Length <= 0 || v.Length > len(v.Sample) {
		v.Period = 0
		return false
	}
	p.end = v.Length << Precision
	p.loop = v.LoopStart << Precision
	p.looped = v.Looped && v.LoopStart >= 0 && v.LoopStart < v.Length
	p.dx = (m.clockRate << Precision) / v.Period
	p.vol = v.Volume << m.volumeShift
	if v.Pos < 0 {
		v.Pos = 0
	}
	if v.Pos >= p.end {
		if !p.looped {
			v.Period = 0
			return false
		}
		v.Pos = p.loop
	}
	return true
}

func (m *mixerBase) frames(out []byte) int {
	return min(m.format.Frames(len(out)), len(m.acc))
}

func (m *mixerBase) silence(out []byte) {
	clear(out)
}

type referenceMixer struct {
	mixerBase
}

func (m *referenceMixer) Mix(voices []*Voice, out []byte) {
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
			s := byte(int8(clamp(int(a), -128, 127)))
			out[i*2] = s
			out[i*2+1] = s
		}
	default:
		for i, a := range acc {
			s := uint16(int16(clamp(int(a), -32768, 32767)))
			binary.LittleEndian.PutUint16(out[i*4:], s)
			binary.LittleEndian.PutUint16(out[i*4+2:], s)
		}
	}
}

func (m *referenceMixer) mixVoice(v *Voice, acc []int32) {
	var p voiceParams
	if !m.prepare(v, &p) {
		return
	}

	sample := v.Sample
	last := len(sample) - 1
	pos := v.Pos
	for i := range acc {
		x := pos >> Precision
		f := pos & precisionMask
		s0 := int(sample[x])
		s1 := s0
		if x < last {
			s1 = int(sample[x+1])
		}
		acc[i] += int32(((s0*(precisionOne-f) + s1*f) * p.vol) >> m.shift)

		pos += p.dx
		if pos >= p.end {
			if !p.looped {
				v.Period = 0
				break
			}
			pos = p.loop
		}
	}
	v.Pos = pos
}
