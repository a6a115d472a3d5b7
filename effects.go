package ptplay

import (
	"github.com/quasilyte/ptplay/internal/ptdb"
)

// rowEffect applies the effects that run once, when a row is decoded.
func (e *Engine) rowEffect(ch *streamChannel) {
	s := &e.session
	arg := ch.effect.Arg

	switch ch.effect.Op {
	case ptdb.EffectSampleOffset:
		if ch.note != 0 {
			ch.sampleOffset()
		}

	case ptdb.EffectPositionJump:
		target := int(ch.param)
		if target <= s.songPos {
			s.looped = true
		}
		// The jump increments the position, so it lands on the target.
		s.songPos = target - 1
		s.breakRow = 0
		s.posJump = true

	case ptdb.EffectSetVolume:
		ch.volume = clampMax(int(ch.param), maxVolume)

	case ptdb.EffectPatternBreak:
		row := int(ch.param>>4)*10 + int(ch.param&0x0f)
		if row >= 64 {
			row = 0
		}
		s.breakRow = row
		s.posJump = true

	case ptdb.EffectSetSpeed:
		e.setSpeed(int(ch.param))

	case ptdb.EffectFilter:
		// E00 turns the Amiga LED filter on.
		s.filter = arg&1 == 0

	case ptdb.EffectFinePortaUp:
		ch.portaUp(int(arg))
	case ptdb.EffectFinePortaDown:
		ch.portaDown(int(arg))

	case ptdb.EffectGlissando:
		ch.glissando = arg
	case ptdb.EffectVibratoWaveform:
		ch.waveControl = ch.waveControl&0xf0 | arg
	case ptdb.EffectTremoloWaveform:
		ch.waveControl = ch.waveControl&0x0f | arg<<4
	case ptdb.EffectSetFinetune:
		ch.finetune = arg

	case ptdb.EffectPatternLoop:
		e.patternLoop(ch)

	case ptdb.EffectFineVolumeSlideUp:
		ch.volume = clampMax(ch.volume+int(arg), maxVolume)
	case ptdb.EffectFineVolumeSlideDn:
		ch.volume = clampMin(ch.volume-int(arg), 0)

	case ptdb.EffectNoteCut:
		if arg == 0 {
			ch.volume = 0
		}

	case ptdb.EffectPatternDelay:
		if s.patternDelayRun == 0 {
			s.patternDelay = int(arg) + 1
		}
	}
}

// tickEffect applies the continuous effects for ticks 1..speed-1
// (and for the repeated rows of a pattern delay).
func (e *Engine) tickEffect(ch *streamChannel) {
	switch ch.effect.Op {
	case ptdb.EffectArpeggio:
		e.arpeggio(ch)

	case ptdb.EffectPortaUp:
		ch.portaUp(int(ch.param))
		ch.voice.Period = ch.period
	case ptdb.EffectPortaDown:
		ch.portaDown(int(ch.param))
		ch.voice.Period = ch.period

	case ptdb.EffectTonePorta:
		if ch.param != 0 {
			ch.tonePortaSpeed = int(ch.param)
		}
		ch.tonePortamento()

	case ptdb.EffectVibrato:
		if ch.param&0x0f != 0 {
			ch.vibratoDepth = ch.param & 0x0f
		}
		if ch.param&0xf0 != 0 {
			ch.vibratoSpeed = ch.param >> 4
		}
		ch.vibrato()

	case ptdb.EffectTonePortaVolumeSlide:
		ch.tonePortamento()
		ch.volumeSlide()

	case ptdb.EffectVibratoVolumeSlide:
		ch.vibrato()
		ch.volumeSlide()

	case ptdb.EffectTremolo:
		if ch.param&0x0f != 0 {
			ch.tremoloDepth = ch.param & 0x0f
		}
		if ch.param&0xf0 != 0 {
			ch.tremoloSpeed = ch.param >> 4
		}
		ch.tremolo()

	case ptdb.EffectVolumeSlide:
		ch.volumeSlide()

	case ptdb.EffectRetrigger:
		x := int(ch.effect.Arg)
		if e.session.tick == 0 && ch.period != 0 {
			// Tick 0 of a pattern delay repeat already has the note.
			break
		}
		if x != 0 && e.session.tick%x == 0 && ch.inst != nil {
			ch.finetune = ch.inst.finetune
			ch.retrigger()
		}

	case ptdb.EffectNoteCut:
		if e.session.tick == int(ch.effect.Arg) {
			ch.volume = 0
			ch.voice.Volume = 0
			e.release(ch)
		}

	case ptdb.EffectNoteDelay:
		if ch.delayedNote && e.session.tick == int(ch.effect.Arg) {
			ch.delayedNote = false
			ch.retrigger()
			e.active |= 1 << ch.id
			e.emitNote(ch, ch.delayedInst)
		}
	}
}

func (e *Engine) release(ch *streamChannel) {
	e.active &^= 1 << ch.id
}

func (e *Engine) setSpeed(v int) {
	switch {
	case v == 0:
		// F00 is ignored.
	case v < tempoThreshold:
		e.session.speed = v
	default:
		e.session.bpm = v
		e.scheduler.setTempo(v)
	}
}

func (e *Engine) patternLoop(ch *streamChannel) {
	s := &e.session
	x := int(ch.effect.Arg)
	if x == 0 {
		// The row is derived with a 4-channel stride.
		ch.loopRow = (s.cursor * 4) >> 4
		return
	}
	if ch.loopCount == 0 {
		ch.loopCount = x
	} else {
		ch.loopCount--
		if ch.loopCount == 0 {
			return
		}
	}
	s.breakRow = ch.loopRow
	s.loopJump = true
}

func (e *Engine) arpeggio(ch *streamChannel) {
	var x int
	switch e.session.tick % 3 {
	case 0:
		ch.voice.Period = ch.period
		return
	case 1:
		x = int(ch.param >> 4)
	case 2:
		x = int(ch.param & 0x0f)
	}
	note := ptdb.FindNote(ch.finetune, ch.period) + x
	ch.voice.Period = ptdb.NotePeriod(ch.finetune, clampMax(note, ptdb.NumNotes-1))
}

func (ch *streamChannel) portaUp(amount int) {
	ch.period = clampMin(ch.period-amount, ptdb.MinPeriod)
}

func (ch *streamChannel) portaDown(amount int) {
	ch.period = clampMax(ch.period+amount, ptdb.MaxPeriod)
}

// setTonePorta picks the tone portamento target for the row note.
func (ch *streamChannel) setTonePorta() {
	i := ptdb.FindNote(ch.finetune, ch.note)
	if ch.finetune&0x08 != 0 && i > 0 {
		i--
	}
	target := ptdb.NotePeriod(ch.finetune, i)

	ch.tonePortaTarget = target
	switch {
	case ch.period == target:
		ch.tonePortaTarget = 0
		ch.tonePortaUp = false
	case ch.period < target:
		ch.tonePortaUp = true
	default:
		ch.tonePortaUp = false
	}
}

func (ch *streamChannel) tonePortamento() {
	if ch.tonePortaTarget == 0 {
		return
	}
	if ch.tonePortaUp {
		ch.period += ch.tonePortaSpeed
		if ch.period >= ch.tonePortaTarget {
			ch.period = ch.tonePortaTarget
			ch.tonePortaTarget = 0
		}
	} else {
		ch.period -= ch.tonePortaSpeed
		if ch.period <= ch.tonePortaTarget {
			ch.period = ch.tonePortaTarget
			ch.tonePortaTarget = 0
		}
	}

	p := ch.period
	if ch.glissando&0x0f != 0 {
		p = ptdb.NotePeriod(ch.finetune, ptdb.FindNote(ch.finetune, p))
	}
	ch.voice.Period = p
}

// waveValue returns the waveform amplitude at phase p (0..63).
func waveValue(kind, p uint8) int {
	switch kind & 0x03 {
	case 0:
		v := int(ptdb.VibratoTable[p&0x1f])
		if p >= 32 {
			return -v
		}
		return v
	case 1:
		if p >= 32 {
			return 255 - int(p)<<2
		}
		return int(p) << 3
	default:
		return 255
	}
}

func (ch *streamChannel) vibrato() {
	y := waveValue(ch.waveControl, ch.vibratoPos)
	y = (y * int(ch.vibratoDepth)) >> 7
	ch.voice.Period = ch.period + y
	ch.vibratoPos = (ch.vibratoPos + ch.vibratoSpeed) & 0x3f
}

func (ch *streamChannel) tremolo() {
	y := waveValue(ch.waveControl>>4, ch.tremoloPos)
	y = (y * int(ch.tremoloDepth)) >> 6
	ch.voice.Volume = clamp(ch.volume+y, 0, maxVolume)
	ch.tremoloPos = (ch.tremoloPos + ch.tremoloSpeed) & 0x3f
}

func (ch *streamChannel) volumeSlide() {
	if up := int(ch.param >> 4); up != 0 {
		ch.volume = clampMax(ch.volume+up, maxVolume)
	} else {
		ch.volume = clampMin(ch.volume-int(ch.param&0x0f), 0)
	}
	ch.voice.Volume = ch.volume
}

// sampleOffset moves the sample start by param*256 bytes.
// An offset past the sample end leaves a 2-byte tail.
func (ch *streamChannel) sampleOffset() {
	o := int(ch.param) << 8
	v := &ch.voice
	if v.Length > o {
		v.Sample = v.Sample[o:]
		v.Length -= o
	} else {
		v.Length = min(2, len(v.Sample))
	}
	v.normalize()
}
