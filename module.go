package ptplay

import (
	"github.com/quasilyte/ptplay/internal/ptdb"
	"github.com/quasilyte/ptplay/modfile"
)

// module is a playback-ready form of modfile.Module.
//
// The compiler resolves everything that can fail up front,
// so the tick code can index these tables without checks.
type module struct {
	name string

	numChannels int
	patternSize int // In cells
	songLength  int
	order       [modfile.OrderTableSize]uint8

	// A zero instrument has no sample data; notes that use it stay silent.
	instruments [modfile.MaxInstruments]instrument

	notes []patternNote
}

type instrument struct {
	id int

	sample    []int8
	length    int
	loopStart int
	looped    bool

	volume   int
	finetune uint8 // Period table row
}

type patternNote struct {
	period int
	inst   uint8 // 1-based, 0 means "no instrument"
	param  uint8
	effect ptdb.Effect
}

// row returns the notes that will be played at the given song position.
func (m *module) row(songPos, cursor int) []patternNote {
	offset := int(m.order[songPos])*m.patternSize + cursor
	return m.notes[offset : offset+m.numChannels]
}
