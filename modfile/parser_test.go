package modfile_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/quasilyte/ptplay/internal/modtest"
	"github.com/quasilyte/ptplay/modfile"
)

func parse(t *testing.T, data []byte) *modfile.Module {
	t.Helper()
	m, err := modfile.NewParser(modfile.ParserConfig{NeedStrings: true}).ParseFromBytes(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return m
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		signature       string
		channels        int
		wantChannels    int
		wantInstruments int
		wantSignature   string
	}{
		{"M.K.", 4, 4, 31, "M.K."},
		{"M!K!", 4, 4, 31, "M!K!"},
		{"FLT4", 4, 4, 31, "FLT4"},
		{"4CHN", 4, 4, 31, "4CHN"},
		{"6CHN", 6, 6, 31, "6CHN"},
		{"8CHN", 8, 8, 31, "8CHN"},
		{"FLT8", 8, 8, 31, "FLT8"},
		{"10CH", 10, 10, 31, "10CH"},
		{"12CH", 12, 12, 31, "12CH"},
		{"14CH", 14, 14, 31, "14CH"},
		{"16CH", 16, 16, 31, "16CH"},
		{"", 4, 4, 15, ""},
	}

	for _, test := range tests {
		name := test.signature
		if name == "" {
			name = "legacy"
		}
		t.Run(name, func(t *testing.T) {
			b := modtest.NewBuilder(test.signature, test.channels)
			b.Name = "song"
			m := parse(t, b.Bytes())
			if m.NumChannels != test.wantChannels {
				t.Fatalf("channels:\nhave: %d\nwant: %d", m.NumChannels, test.wantChannels)
			}
			if m.NumInstruments != test.wantInstruments {
				t.Fatalf("instruments:\nhave: %d\nwant: %d", m.NumInstruments, test.wantInstruments)
			}
			if m.Signature != test.wantSignature {
				t.Fatalf("signature:\nhave: %q\nwant: %q", m.Signature, test.wantSignature)
			}
			if m.PatternSize() != 64*test.wantChannels {
				t.Fatalf("pattern size:\nhave: %d\nwant: %d", m.PatternSize(), 64*test.wantChannels)
			}
			if m.Name != "song" {
				t.Fatalf("name:\nhave: %q\nwant: %q", m.Name, "song")
			}
		})
	}
}

func TestParseUnknownSignatureFallsBack(t *testing.T) {
	// A legacy module whose pattern data happens to contain "99CH" at offset 1080.
	// The tag is unknown, so the file must still be read as a 15-instrument module.
	b := modtest.NewBuilder("", 4)
	tag := modtest.Cell{Period: 0x939, Sample: 0x34, Effect: 0x3, Param: 0x48}
	b.SetCell(0, 30, 0, tag)
	data := b.Bytes()
	if string(data[1080:1084]) != "99CH" {
		t.Fatalf("test input has %q at offset 1080", data[1080:1084])
	}
	m := parse(t, data)
	if m.NumChannels != 4 || m.NumInstruments != 15 || m.Signature != "" {
		t.Fatalf("have channels=%d instruments=%d signature=%q, want a legacy module",
			m.NumChannels, m.NumInstruments, m.Signature)
	}
	want := modfile.Cell{Period: tag.Period, Sample: tag.Sample, Effect: tag.Effect, Param: tag.Param}
	if diff := cmp.Diff(want, m.Row(0, 30)[0]); diff != "" {
		t.Fatalf("cell mismatch (-want +have):\n%s", diff)
	}
}

func TestParseM_K_Layout(t *testing.T) {
	b := modtest.NewBuilder("M.K.", 4)
	b.Order = []uint8{0, 2, 1}
	b.TimingByte = 0x7f
	b.Instruments = []modtest.Instrument{
		{Name: "kick", Data: make([]int8, 16), Volume: 64, Finetune: -1},
		{Name: "bass", Data: []int8{9, 9, 9, 9, 1, 2, 3, 4, 5, 6}, Volume: 80},
	}
	b.SetCell(2, 63, 3, modtest.Cell{Period: 428, Sample: 17, Effect: 0x0c, Param: 0x20})
	m := parse(t, b.Bytes())

	if m.NumPatterns != 3 {
		t.Fatalf("patterns:\nhave: %d\nwant: 3", m.NumPatterns)
	}
	if m.SongLength != 3 || m.TimingByte != 0x7f {
		t.Fatalf("song: length=%d timing=%#x", m.SongLength, m.TimingByte)
	}
	if len(m.PatternOrder) != modfile.OrderTableSize {
		t.Fatalf("order table size: %d", len(m.PatternOrder))
	}
	if len(m.Instruments) != 31 {
		t.Fatalf("instrument table size: %d", len(m.Instruments))
	}

	wantCell := modfile.Cell{Period: 428, Sample: 17, Effect: 0x0c, Param: 0x20}
	if diff := cmp.Diff(wantCell, m.Row(2, 63)[3]); diff != "" {
		t.Fatalf("cell mismatch (-want +have):\n%s", diff)
	}
	if !m.Row(0, 0)[0].IsEmpty() {
		t.Fatalf("expected an empty cell")
	}

	inst := m.Instruments[1]
	if inst.Name != "bass" || inst.Volume != 64 || inst.SampleLength != 10 {
		t.Fatalf("unexpected instrument: %+v", inst)
	}
	// Leading bytes are zeroed, the rest is copied.
	wantData := []int8{0, 0, 0, 0, 1, 2, 3, 4, 5, 6}
	if diff := cmp.Diff(wantData, inst.Data); diff != "" {
		t.Fatalf("sample data mismatch (-want +have):\n%s", diff)
	}
	if m.Instruments[0].Finetune != -1 || m.Instruments[0].FinetuneIndex() != 15 {
		t.Fatalf("finetune: have %d (index %d)", m.Instruments[0].Finetune, m.Instruments[0].FinetuneIndex())
	}
}

func TestParseLoopPolicy(t *testing.T) {
	tests := []struct {
		name       string
		size       int
		loopStart  int
		loopLength int
		wantLength int
		wantStart  int
		wantLooped bool
	}{
		{"no loop", 100, 0, 2, 100, 0, false},
		{"zero loop length", 100, 40, 0, 100, 40, false},
		{"loop inside", 100, 20, 40, 60, 20, true},
		{"loop till the end", 100, 20, 80, 100, 20, true},
		{"loop overflows", 100, 60, 80, 100, 20, true},
		{"loop longer than sample", 10, 4, 20, 10, 0, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			b := modtest.NewBuilder("M.K.", 4)
			b.Instruments = []modtest.Instrument{
				{Data: make([]int8, test.size), LoopStart: test.loopStart, LoopLength: test.loopLength},
			}
			inst := parse(t, b.Bytes()).Instruments[0]
			if inst.Length != test.wantLength || inst.LoopStart != test.wantStart || inst.Looped != test.wantLooped {
				t.Fatalf("have length=%d start=%d looped=%v\nwant length=%d start=%d looped=%v",
					inst.Length, inst.LoopStart, inst.Looped,
					test.wantLength, test.wantStart, test.wantLooped)
			}
			if inst.Looped && inst.LoopStart+inst.LoopLength > inst.SampleLength && inst.Length != inst.SampleLength {
				t.Fatalf("loop is not clamped to the sample size")
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	valid := func() *modtest.Builder {
		b := modtest.NewBuilder("M.K.", 4)
		b.Instruments = []modtest.Instrument{{Data: make([]int8, 64)}}
		return b
	}

	tests := []struct {
		name    string
		data    func() []byte
		message string
	}{
		{
			name:    "empty",
			data:    func() []byte { return nil },
			message: "header: unexpected EOF while reading module name",
		},
		{
			name:    "truncated header",
			data:    func() []byte { return valid().Bytes()[:300] },
			message: "unexpected EOF",
		},
		{
			name: "truncated patterns",
			data: func() []byte {
				b := valid()
				b.Instruments = nil
				return b.Bytes()[:1084+100]
			},
			message: "song: pattern data needs 1024 bytes",
		},
		{
			name: "truncated sample",
			data: func() []byte {
				b := valid()
				b.TruncateSamples = 1
				return b.Bytes()
			},
			message: "instrument[0]: unexpected EOF while reading sample data",
		},
		{
			name: "zero song length",
			data: func() []byte {
				b := valid()
				b.Order = nil
				return b.Bytes()
			},
			message: "song: invalid song length value: 0",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			p := modfile.NewParser(modfile.ParserConfig{})
			_, err := p.ParseFromBytes(test.data())
			if err == nil {
				t.Fatalf("expected an error")
			}
			var parseErr *modfile.ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("expected a *ParseError, got %T", err)
			}
			if !strings.Contains(err.Error(), test.message) {
				t.Fatalf("error text:\nhave: %q\nwant substring: %q", err.Error(), test.message)
			}
		})
	}
}

func TestParseChannelLimit(t *testing.T) {
	data := modtest.NewBuilder("16CH", 16).Bytes()

	p := modfile.NewParser(modfile.ParserConfig{MaxChannels: 8})
	_, err := p.ParseFromBytes(data)
	if !errors.Is(err, modfile.ErrUnsupportedChannels) {
		t.Fatalf("expected ErrUnsupportedChannels, got %v", err)
	}

	m, err := modfile.Parse(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("default parser: %v", err)
	}
	if m.NumChannels != 16 {
		t.Fatalf("channels:\nhave: %d\nwant: 16", m.NumChannels)
	}
}

func TestParserReuse(t *testing.T) {
	p := modfile.NewParser(modfile.ParserConfig{})
	first, err := p.ParseFromBytes(modtest.NewBuilder("8CHN", 8).Bytes())
	if err != nil {
		t.Fatal(err)
	}
	second, err := p.ParseFromBytes(modtest.NewBuilder("M.K.", 4).Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if first.NumChannels != 8 || second.NumChannels != 4 {
		t.Fatalf("modules share state: %d %d", first.NumChannels, second.NumChannels)
	}
}
