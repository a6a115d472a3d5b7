// Package modtest builds synthetic MOD files for tests.
package modtest

import (
	"encoding/binary"
)

type Instrument struct {
	Name     string
	Data     []int8
	Finetune int8
	Volume   uint8

	// LoopStart and LoopLength are in bytes; they are stored as words.
	LoopStart  int
	LoopLength int
}

type Cell struct {
	Period uint16
	Sample uint8
	Effect uint8
	Param  uint8
}

// Builder assembles a MOD file.
//
// An empty Signature produces the legacy 15-instrument layout;
// any other value is written at offset 1080 and selects 31 instruments.
type Builder struct {
	Name       string
	Signature  string
	Channels   int
	SongLength int
	TimingByte uint8
	Order      []uint8

	Instruments []Instrument

	patterns map[int][]Cell

	// TruncateSamples drops this many bytes from the end of the file.
	TruncateSamples int
}

func NewBuilder(signature string, channels int) *Builder {
	return &Builder{
		Signature: signature,
		Channels:  channels,
		Order:     []uint8{0},
		patterns:  make(map[int][]Cell),
	}
}

func (b *Builder) numInstruments() int {
	if b.Signature == "" {
		return 15
	}
	return 31
}

func (b *Builder) numPatterns() int {
	n := 0
	for _, v := range b.Order {
		if int(v)+1 > n {
			n = int(v) + 1
		}
	}
	for p := range b.patterns {
		if p+1 > n {
			n = p + 1
		}
	}
	return n
}

// SetCell places a cell into the given pattern position.
func (b *Builder) SetCell(pattern, row, channel int, c Cell) *Builder {
	cells, ok := b.patterns[pattern]
	if !ok {
		cells = make([]Cell, 64*b.Channels)
		b.patterns[pattern] = cells
	}
	cells[row*b.Channels+channel] = c
	return b
}

func (b *Builder) Bytes() []byte {
	numInstruments := b.numInstruments()
	numPatterns := b.numPatterns()

	out := make([]byte, 0, 2048)
	out = appendString(out, b.Name, 20)

	for i := 0; i < numInstruments; i++ {
		var inst Instrument
		if i < len(b.Instruments) {
			inst = b.Instruments[i]
		}
		out = appendString(out, inst.Name, 22)
		out = binary.BigEndian.AppendUint16(out, uint16((len(inst.Data)+1)/2))
		out = append(out, byte(inst.Finetune)&0x0f, inst.Volume)
		out = binary.BigEndian.AppendUint16(out, uint16(inst.LoopStart/2))
		out = binary.BigEndian.AppendUint16(out, uint16(inst.LoopLength/2))
	}

	songLength := b.SongLength
	if songLength == 0 {
		songLength = len(b.Order)
	}
	out = append(out, byte(songLength), b.TimingByte)
	var order [128]byte
	copy(order[:], b.Order)
	out = append(out, order[:]...)
	if b.Signature != "" {
		out = appendString(out, b.Signature, 4)
	}

	for p := 0; p < numPatterns; p++ {
		cells := b.patterns[p]
		for i := 0; i < 64*b.Channels; i++ {
			var c Cell
			if cells != nil {
				c = cells[i]
			}
			out = append(out,
				c.Sample&0xf0|byte(c.Period>>8)&0x0f,
				byte(c.Period),
				c.Sample<<4|c.Effect&0x0f,
				c.Param)
		}
	}

	for i := 0; i < numInstruments && i < len(b.Instruments); i++ {
		data := b.Instruments[i].Data
		for _, v := range data {
			out = append(out, byte(v))
		}
		if len(data)%2 != 0 {
			out = append(out, 0)
		}
	}

	return out[:len(out)-b.TruncateSamples]
}

func appendString(dst []byte, s string, size int) []byte {
	buf := make([]byte, size)
	copy(buf, s)
	return append(dst, buf...)
}
