// Package modfile decodes ProTracker MOD files and their multi-channel variants.
//
// The decoded Module is a raw view of the file contents that is not
// optimized for playback; the player compiles it into its own layout.
package modfile

import (
	"errors"
	"fmt"
	"io"
)

// ErrUnsupportedChannels is reported (wrapped in a *ParseError) when
// the signature describes more channels than the parser is configured to accept.
var ErrUnsupportedChannels = errors.New("unsupported channel count")

const (
	// NumRows is the number of rows in every pattern.
	NumRows = 64

	// CellSize is the encoded pattern cell size in bytes.
	CellSize = 4

	// OrderTableSize is the number of entries in the song order table.
	OrderTableSize = 128

	// MaxChannels is the largest channel count a known signature can describe.
	MaxChannels = 16

	// MaxInstruments is the instrument table size of the 31-instrument format.
	MaxInstruments = 31

	// MinPeriod and MaxPeriod are the bounds of the ProTracker period range (B-3 .. C-1).
	MinPeriod = 113
	MaxPeriod = 856
)

// Module is a parsed MOD file contents.
type Module struct {
	Name string

	// Signature is the 4-byte format tag found at offset 1080 ("M.K.", "8CHN", ...).
	// It's empty for the legacy 15-instrument layout.
	Signature string

	NumChannels    int
	NumInstruments int
	NumPatterns    int

	// SongLength is the number of used entries in PatternOrder.
	SongLength int

	// TimingByte is the byte that follows the song length.
	// It's historically used as a restart position or a CIA timing hint;
	// the player ignores it.
	TimingByte uint8

	// PatternOrder always has OrderTableSize entries;
	// only the first SongLength of them are played.
	PatternOrder []uint8

	// Cells holds all patterns, NumRows*NumChannels cells per pattern.
	// Use Pattern and Row methods to access them.
	Cells []Cell

	Instruments []Instrument
}

// PatternSize reports the number of cells in a single pattern.
func (m *Module) PatternSize() int {
	return NumRows * m.NumChannels
}

// Pattern returns a slice of all cells of the pattern i.
func (m *Module) Pattern(i int) []Cell {
	size := m.PatternSize()
	return m.Cells[i*size : (i+1)*size]
}

// Row returns the cells of a single pattern row, one cell per channel.
func (m *Module) Row(pattern, row int) []Cell {
	cells := m.Pattern(pattern)
	return cells[row*m.NumChannels : (row+1)*m.NumChannels]
}

// Cell is a decoded pattern entry.
//
// Encoded big endian as SSSSPPPP PPPPPPPP ssssCCCC pppppppp
// (sample hi, period, sample lo, command, parameter).
type Cell struct {
	// Period is a 12-bit Amiga period; 0 means "no note".
	Period uint16

	// Sample is a 1-based instrument number; 0 means "keep the current one".
	Sample uint8

	Effect uint8
	Param  uint8
}

// IsEmpty reports whether the cell carries no data at all.
func (c Cell) IsEmpty() bool {
	return c == Cell{}
}

func (c Cell) String() string {
	return fmt.Sprintf("%03x %02d %X%02X", c.Period, c.Sample, c.Effect, c.Param)
}

type Instrument struct {
	Name string

	// Data is the instrument's own copy of the sample bytes.
	// len(Data) == SampleLength.
	Data []int8

	// SampleLength is the stored sample size in bytes.
	SampleLength int

	// Length is the playable size in bytes.
	// For looped samples it ends where the loop ends.
	Length int

	LoopStart  int
	LoopLength int

	Looped bool

	// Volume is the default instrument volume in [0, 64].
	Volume uint8

	// Finetune is a signed pitch bias in [-8, 7].
	Finetune int8
}

// FinetuneIndex returns the finetune as a period table index [0, 15].
// Values 8..15 stand for finetunes -8..-1.
func (inst *Instrument) FinetuneIndex() uint8 {
	return uint8(inst.Finetune) & 0x0f
}

// ParserConfig configures the MOD parser.
type ParserConfig struct {
	// NeedStrings makes the parser decode the module and instrument names.
	// When false, these strings are skipped.
	NeedStrings bool

	// MaxChannels limits the accepted channel count.
	// Modules with more channels are rejected with ErrUnsupportedChannels.
	//
	// A zero value means MaxChannels (16).
	MaxChannels int
}

// Parser decodes MOD files.
// A single parser can be reused, but it's not safe for concurrent use.
type Parser struct {
	impl *parser
}

func NewParser(config ParserConfig) *Parser {
	if config.MaxChannels == 0 {
		config.MaxChannels = MaxChannels
	}
	return &Parser{impl: newParser(config)}
}

// ParseFromBytes decodes MOD file data into a module.
//
// The data slice is not retained and never modified:
// instruments get their own copies of the sample bytes.
//
// A non-nil error is usually a *ParseError object.
func (p *Parser) ParseFromBytes(data []byte) (*Module, error) {
	return p.impl.Parse(data)
}

// Parse reads all of r and decodes it into a module.
func (p *Parser) Parse(r io.Reader) (*Module, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read data: %w", err)
	}
	return p.impl.Parse(data)
}

// Parse is a convenience wrapper around a default-configured parser.
func Parse(r io.Reader) (*Module, error) {
	return NewParser(ParserConfig{}).Parse(r)
}
