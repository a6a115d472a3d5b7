package ptplay

import (
	"math/bits"

	"github.com/quasilyte/ptplay/internal/ptdb"
)

// session is the song playback state.
type session struct {
	songPos int
	cursor  int // Row offset inside the current pattern, in cells
	tick    int
	speed   int // Ticks per row
	bpm     int

	// The position of the row being played.
	playPos int
	playRow int

	// Pending jump state; applied at the end of the tick.
	breakRow int
	posJump  bool
	loopJump bool
	looped   bool // A position jump went backwards

	// patternDelay is set by EEx, patternDelayRun counts the repeats.
	patternDelay    int
	patternDelayRun int

	enabled bool
	filter  bool
}

func (s *session) reset() {
	*s = session{
		speed: defaultSpeed,
		tick:  defaultSpeed,
		bpm:   defaultBPM,
	}
}

// tick is the scheduler refill: advance the song by one tick
// and mix it into the vacated buffer.
func (e *Engine) tick() {
	m := e.module
	if m != nil && e.session.enabled {
		e.advance()
	} else {
		e.active &^= moduleChannelsMask
	}

	// The target must be taken after advance: Fxx may have changed the tempo.
	buf := e.scheduler.target()

	voices := e.voices[:0]
	for mask := e.active; mask != 0; mask &= mask - 1 {
		voices = append(voices, &e.channels[bits.TrailingZeros32(mask)].voice)
	}
	e.mixer.Mix(voices, buf)

	// One-shot samples that ended during the mix release their channels.
	for mask := e.active; mask != 0; mask &= mask - 1 {
		i := bits.TrailingZeros32(mask)
		ch := &e.channels[i]
		if ch.voice.Period == 0 {
			ch.period = 0
			e.active &^= 1 << i
		}
	}

	if m != nil && e.session.enabled {
		e.emit(StreamEvent{
			Kind:     EventTick,
			Channel:  -1,
			Position: e.session.playPos,
			value:    tickEventValue(e.session.playRow, e.session.tick),
		})
	}
}

func (e *Engine) advance() {
	s := &e.session
	m := e.module

	s.tick++
	if s.tick < s.speed {
		e.tickEffects()
	} else {
		s.tick = 0
		s.playPos = s.songPos
		s.playRow = s.cursor / m.numChannels
		if s.patternDelayRun != 0 {
			e.tickEffects()
		} else {
			e.decodeRow()
		}

		s.cursor += m.numChannels

		if s.patternDelay != 0 {
			s.patternDelayRun = s.patternDelay
			s.patternDelay = 0
		}
		if s.patternDelayRun != 0 {
			s.patternDelayRun--
			if s.patternDelayRun != 0 {
				s.cursor -= m.numChannels
			}
		}

		if s.loopJump {
			s.loopJump = false
			s.cursor = s.breakRow * m.numChannels
			s.breakRow = 0
		}

		if s.cursor >= m.patternSize {
			s.posJump = true
		}
	}

	if s.posJump {
		s.posJump = false
		s.cursor = s.breakRow * m.numChannels
		s.breakRow = 0
		s.songPos++
		wrapped := s.looped
		s.looped = false
		if s.songPos >= m.songLength {
			s.songPos = 0
			s.cursor = 0
			wrapped = true
		}
		if wrapped {
			e.emit(StreamEvent{Kind: EventSongEnd, Channel: -1, Position: s.songPos})
		}
	}
}

func (e *Engine) decodeRow() {
	s := &e.session
	m := e.module

	notes := m.row(s.songPos, s.cursor)
	for i := range notes {
		ch := &e.channels[i]
		n := &notes[i]
		bit := uint32(1) << i
		e.active &^= bit

		if ch.delayedNote {
			// The delay never fired within the row: the note is dropped.
			ch.period = 0
		}
		e.decodeNote(ch, n)

		if ch.period != 0 && !ch.delayedNote {
			e.active |= bit
		}
	}
}

func (e *Engine) decodeNote(ch *streamChannel, n *patternNote) {
	m := e.module

	ch.note = n.period
	ch.effect = n.effect
	ch.param = n.param
	ch.delayedNote = false

	var inst *instrument
	if n.inst != 0 {
		inst = &m.instruments[n.inst-1]
		ch.volume = inst.volume
	}

	if n.period != 0 {
		switch n.effect.Op {
		case ptdb.EffectTonePorta, ptdb.EffectTonePortaVolumeSlide:
			if inst != nil {
				ch.finetune = inst.finetune
			}
			ch.setTonePorta()
		default:
			e.triggerNote(ch, n, inst)
		}
	}

	e.rowEffect(ch)
	ch.applyFinal()
}

func (e *Engine) triggerNote(ch *streamChannel, n *patternNote, inst *instrument) {
	if inst != nil {
		ch.finetune = inst.finetune
		ch.loadInstrument(inst, 0)
	} else {
		ch.retrigger()
	}
	if n.effect.Op == ptdb.EffectSetFinetune {
		ch.finetune = n.effect.Arg
	}
	if n.effect.Op == ptdb.EffectNoteDelay && n.effect.Arg != 0 {
		ch.delayedNote = true
		ch.delayedInst = n.inst
	}

	if ch.waveControl&0x04 == 0 {
		ch.vibratoPos = 0
	}
	if ch.waveControl&0x40 == 0 {
		ch.tremoloPos = 0
	}

	ch.period = ptdb.NotePeriod(ch.finetune, ptdb.FindNote(0, n.period))
	if ch.inst == nil {
		// Nothing to play: a note without any instrument seen on this channel.
		ch.period = 0
		return
	}

	if !ch.delayedNote {
		e.emitNote(ch, n.inst)
	}
}

// emitNote reports a note that starts sounding on this tick.
func (e *Engine) emitNote(ch *streamChannel, inst uint8) {
	e.emit(StreamEvent{
		Kind:     EventNote,
		Channel:  ch.id,
		Position: e.session.playPos,
		value:    noteEventValue(ch.period, inst, ch.volume),
	})
}

// tickEffects runs the continuous effects of every sounding module channel.
func (e *Engine) tickEffects() {
	for i := 0; i < e.module.numChannels; i++ {
		ch := &e.channels[i]
		if ch.period == 0 {
			continue
		}
		e.tickEffect(ch)
	}
}
