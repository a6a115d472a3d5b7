package ptplay

import (
	"github.com/quasilyte/ptplay/internal/ptdb"
)

type streamChannel struct {
	id int

	// voice is what the mixer reads: finalPeriod, finalVolume and the sample cursor.
	voice Voice

	inst *instrument

	// Row data.
	note   int // The period written in the cell, before the table lookup
	effect ptdb.Effect
	param  uint8

	period   int
	volume   int
	finetune uint8

	// Tone portamento state.
	tonePortaUp     bool
	tonePortaSpeed  int
	tonePortaTarget int

	// Vibrato and tremolo state.
	vibratoSpeed uint8
	vibratoDepth uint8
	vibratoPos   uint8
	tremoloSpeed uint8
	tremoloDepth uint8
	tremoloPos   uint8

	// Low nibble: vibrato waveform, high nibble: tremolo waveform.
	// Bit 2 of each nibble keeps the phase on new notes.
	waveControl uint8
	glissando   uint8

	// Pattern loop state.
	loopRow   int
	loopCount int

	// delayedNote is set while a note delay keeps the channel silent.
	// delayedInst is the cell instrument reported once the note starts.
	delayedNote bool
	delayedInst uint8
}

func (ch *streamChannel) Reset() {
	*ch = streamChannel{id: ch.id}
}

// loadInstrument copies the instrument geometry into the voice.
// The playback position is set to pos (in bytes).
func (ch *streamChannel) loadInstrument(inst *instrument, pos int) {
	ch.inst = inst
	ch.voice.Sample = inst.sample
	ch.voice.Length = inst.length
	ch.voice.LoopStart = inst.loopStart
	ch.voice.Looped = inst.looped
	ch.voice.Pos = pos << Precision
}

// retrigger restarts the current instrument from the beginning.
func (ch *streamChannel) retrigger() {
	if ch.inst == nil {
		return
	}
	ch.loadInstrument(ch.inst, 0)
}

func (ch *streamChannel) applyFinal() {
	ch.voice.Volume = ch.volume
	ch.voice.Period = ch.period
}
