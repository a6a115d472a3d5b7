package modfile

import (
	"encoding/binary"
	"fmt"
	"strings"
)

const (
	nameSize             = 20
	instrumentRecordSize = 30
	signatureOffset      = nameSize + MaxInstruments*instrumentRecordSize + 2 + OrderTableSize
	signatureSize        = 4
)

type parser struct {
	// Data holds the MOD file input data bytes.
	data []byte

	// Offset is our current position inside the data.
	offset int

	// Module holds the results of MOD parsing.
	module Module

	config ParserConfig

	// These fields below are needed for better error reporting.
	stage      string
	stageIndex int
}

func newParser(config ParserConfig) *parser {
	return &parser{config: config}
}

func (p *parser) Parse(data []byte) (*Module, error) {
	p.data = data
	p.offset = 0
	p.module = Module{}
	if err := p.parse(); err != nil {
		return nil, err
	}
	m := p.module
	p.data = nil
	return &m, nil
}

func (p *parser) startStage(name string) {
	p.stage = name
	p.stageIndex = -1
}

func (p *parser) formatStage() string {
	var b strings.Builder
	b.Grow(len(p.stage) + 8)
	b.WriteString(p.stage)
	if p.stageIndex >= 0 {
		fmt.Fprintf(&b, "[%d]", p.stageIndex)
	}
	return b.String()
}

func (p *parser) errorf(format string, args ...any) *ParseError {
	text := fmt.Sprintf(format, args...)
	tag := p.formatStage()
	if tag != "" {
		text = tag + ": " + text
	}
	return &ParseError{
		Message: text,
		Offset:  p.offset,
	}
}

func (p *parser) dataBytesRemaining() int {
	return len(p.data) - p.offset
}

func (p *parser) sliceData(l int) []byte {
	return p.data[p.offset : p.offset+l]
}

func (p *parser) skip(l int, what string) {
	if p.dataBytesRemaining() < l {
		panic(p.errorf("unexpected EOF while reading %s", what))
	}
	p.offset += l
}

func (p *parser) read(l int, what string) []byte {
	if p.dataBytesRemaining() < l {
		panic(p.errorf("unexpected EOF while reading %s", what))
	}
	b := p.sliceData(l)
	p.offset += l
	return b
}

func (p *parser) readOptionalString(l int, what string) string {
	if !p.config.NeedStrings {
		p.skip(l, what)
		return ""
	}
	return convertCstring(p.read(l, what))
}

// readWord reads a big endian 16-bit value.
func (p *parser) readWord(what string) uint16 {
	return binary.BigEndian.Uint16(p.read(2, what))
}

func (p *parser) readByte(what string) uint8 {
	if p.dataBytesRemaining() < 1 {
		panic(p.errorf("unexpected EOF while reading %s", what))
	}
	b := p.data[p.offset]
	p.offset++
	return b
}

func (p *parser) parse() (err error) {
	defer func() {
		rv := recover()
		if rv != nil {
			if panicErr, ok := rv.(*ParseError); ok {
				err = panicErr
			} else {
				panic(rv)
			}
		}
	}()

	p.parseModule()

	return err // See the deferred call above
}

func (p *parser) parseModule() {
	p.startStage("header")
	p.detectFormat()
	p.module.Name = p.readOptionalString(nameSize, "module name")

	p.startStage("instrument")
	p.module.Instruments = make([]Instrument, p.module.NumInstruments)
	for i := range p.module.Instruments {
		p.stageIndex = i
		p.parseInstrumentHeader(&p.module.Instruments[i])
	}

	p.startStage("song")
	p.parseSong()

	p.startStage("pattern")
	p.module.Cells = make([]Cell, p.module.NumPatterns*p.module.PatternSize())
	for i := 0; i < p.module.NumPatterns; i++ {
		p.stageIndex = i
		p.parsePattern(p.module.Pattern(i))
	}

	p.startStage("instrument")
	for i := range p.module.Instruments {
		p.stageIndex = i
		p.parseSampleData(&p.module.Instruments[i])
	}
}

// detectFormat inspects the signature without moving the offset.
// Unknown (or absent) signatures select the legacy 15-instrument layout.
func (p *parser) detectFormat() {
	p.module.NumChannels = 4
	p.module.NumInstruments = 15
	if len(p.data) < signatureOffset+signatureSize {
		return
	}
	sig := string(p.data[signatureOffset : signatureOffset+signatureSize])
	numChannels := signatureChannels(sig)
	if numChannels == 0 {
		return
	}
	if numChannels > p.config.MaxChannels {
		e := p.errorf("%d channels requested by %q, at most %d are supported", numChannels, sig, p.config.MaxChannels)
		e.Offset = signatureOffset
		e.cause = ErrUnsupportedChannels
		panic(e)
	}
	p.module.Signature = sig
	p.module.NumChannels = numChannels
	p.module.NumInstruments = MaxInstruments
}

func (p *parser) parseInstrumentHeader(inst *Instrument) {
	inst.Name = p.readOptionalString(22, "instrument name")

	inst.SampleLength = int(p.readWord("sample length")&0x7fff) * 2
	inst.Finetune = decodeFinetune(p.readByte("finetune"))
	inst.Volume = p.readByte("volume")
	if inst.Volume > 64 {
		inst.Volume = 64
	}
	loopStart := int(p.readWord("loop start")) * 2
	loopLength := int(p.readWord("loop length")) * 2

	inst.LoopStart = loopStart
	inst.LoopLength = loopLength
	switch {
	case loopLength <= 2:
		inst.Length = inst.SampleLength
		if inst.LoopStart > inst.Length {
			inst.LoopStart = inst.Length
		}
	case loopStart+loopLength > inst.SampleLength:
		inst.Length = inst.SampleLength
		inst.LoopStart = inst.Length - loopLength
		if inst.LoopStart < 0 {
			inst.LoopStart = 0
		}
		inst.Looped = true
	default:
		inst.Length = loopStart + loopLength
		inst.Looped = true
	}
}

func (p *parser) parseSong() {
	p.module.SongLength = int(p.readByte("song length"))
	if p.module.SongLength == 0 || p.module.SongLength > OrderTableSize {
		panic(p.errorf("invalid song length value: %d", p.module.SongLength))
	}
	p.module.TimingByte = p.readByte("timing byte")

	order := p.read(OrderTableSize, "pattern order table")
	p.module.PatternOrder = make([]uint8, OrderTableSize)
	copy(p.module.PatternOrder, order)

	// Unused order entries may still point to stored patterns,
	// so the whole table is scanned.
	maxPattern := 0
	for _, v := range p.module.PatternOrder {
		if int(v) > maxPattern {
			maxPattern = int(v)
		}
	}
	p.module.NumPatterns = maxPattern + 1

	if p.module.NumInstruments == MaxInstruments {
		p.skip(signatureSize, "signature")
	}

	patternBytes := p.module.NumPatterns * p.module.PatternSize() * CellSize
	if p.dataBytesRemaining() < patternBytes {
		panic(p.errorf("pattern data needs %d bytes for %d patterns, only %d left",
			patternBytes, p.module.NumPatterns, p.dataBytesRemaining()))
	}
}

func (p *parser) parsePattern(dst []Cell) {
	for i := range dst {
		b := p.read(CellSize, "pattern cell")
		period := uint16(b[0])<<8 | uint16(b[1])
		dst[i] = Cell{
			Period: period & 0x0fff,
			Sample: uint8(period>>8)&0xf0 | b[2]>>4,
			Effect: b[2] & 0x0f,
			Param:  b[3],
		}
	}
}

func (p *parser) parseSampleData(inst *Instrument) {
	if inst.SampleLength == 0 {
		return
	}
	raw := p.read(inst.SampleLength, "sample data")
	inst.Data = make([]int8, len(raw))
	// The leading bytes are reserved for the loop word and often hold garbage.
	for i := 4; i < len(raw); i++ {
		inst.Data[i] = int8(raw[i])
	}
}
