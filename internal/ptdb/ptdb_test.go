package ptdb

import (
	"testing"
)

func TestConvertEffect(t *testing.T) {
	tests := []struct {
		effect uint8
		param  uint8
		want   Effect
	}{
		{0x0, 0x00, Effect{}},
		{0x0, 0x37, Effect{Op: EffectArpeggio, Arg: 0x37}},
		{0x1, 0x05, Effect{Op: EffectPortaUp, Arg: 0x05}},
		{0x3, 0x00, Effect{Op: EffectTonePorta}},
		{0x8, 0x80, Effect{Op: EffectUnsupported, Arg: 0x80}},
		{0x9, 0x10, Effect{Op: EffectSampleOffset, Arg: 0x10}},
		{0xC, 0x50, Effect{Op: EffectSetVolume, Arg: 0x50}},
		{0xF, 0x7d, Effect{Op: EffectSetSpeed, Arg: 0x7d}},
		{0xE, 0x01, Effect{Op: EffectFilter, Arg: 0x1}},
		{0xE, 0x63, Effect{Op: EffectPatternLoop, Arg: 0x3}},
		{0xE, 0x92, Effect{Op: EffectRetrigger, Arg: 0x2}},
		{0xE, 0xD4, Effect{Op: EffectNoteDelay, Arg: 0x4}},
		{0xE, 0xE2, Effect{Op: EffectPatternDelay, Arg: 0x2}},
		{0xE, 0xF0, Effect{Op: EffectUnsupported}},
	}

	for _, test := range tests {
		have := ConvertEffect(test.effect, test.param)
		if have != test.want {
			t.Errorf("ConvertEffect(%X, %02X):\nhave: %v/%d\nwant: %v/%d",
				test.effect, test.param, have.Op, have.Arg, test.want.Op, test.want.Arg)
		}
	}
}

func TestEffectNames(t *testing.T) {
	for op := EffectNone; op < numEffectOps; op++ {
		if op.String() == "" {
			t.Errorf("op %d has no name", op)
		}
	}
	if !EffectNoteCut.IsExtended() || EffectSetSpeed.IsExtended() {
		t.Errorf("IsExtended gives wrong results")
	}
}

func TestFindNote(t *testing.T) {
	tests := []struct {
		finetune uint8
		period   int
		want     int
	}{
		{0, 856, 0},
		{0, 900, 0},
		{0, 857, 0},
		{0, 855, 1},
		{0, 428, 12},
		{0, 214, 24},
		{0, 113, 35},
		{0, 100, 36},
		{8, 907, 0},
		{8, 428, 13},
		{8, 453, 12},
		{7, 108, 35},
	}

	for _, test := range tests {
		if have := FindNote(test.finetune, test.period); have != test.want {
			t.Errorf("FindNote(%d, %d):\nhave: %d\nwant: %d", test.finetune, test.period, have, test.want)
		}
	}
}

func TestNotePeriod(t *testing.T) {
	if have := NotePeriod(0, 12); have != 428 {
		t.Fatalf("C-2 finetune 0: have %d", have)
	}
	if have := NotePeriod(8, 0); have != 907 {
		t.Fatalf("C-1 finetune -8: have %d", have)
	}
	if have := NotePeriod(0, 50); have != 113 {
		t.Fatalf("clamped note: have %d", have)
	}
	if have := NotePeriod(0, -1); have != 856 {
		t.Fatalf("clamped note: have %d", have)
	}

	// Every row is sorted in the descending order.
	for f := range PeriodTable {
		for i := 1; i < NumNotes; i++ {
			if PeriodTable[f][i] > PeriodTable[f][i-1] {
				t.Fatalf("row %d is not sorted at %d", f, i)
			}
		}
	}
}
