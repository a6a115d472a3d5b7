package ptdb

type Effect struct {
	Op  EffectOp
	Arg uint8
}

type EffectOp uint8

const (
	EffectNone EffectOp = iota

	// Encoding: effect=0x0 (with non-zero arg)
	// Arg: two semitone offsets (x, y)
	EffectArpeggio

	// Encoding: effect=0x1
	// Arg: period decrement per tick
	EffectPortaUp

	// Encoding: effect=0x2
	// Arg: period increment per tick
	EffectPortaDown

	// Encoding: effect=0x3
	// Arg: slide speed (0 keeps the previous one)
	EffectTonePorta

	// Encoding: effect=0x4
	// Arg: speed (hi) and depth (lo)
	EffectVibrato

	// Encoding: effect=0x5
	// Arg: volume slide
	EffectTonePortaVolumeSlide

	// Encoding: effect=0x6
	// Arg: volume slide
	EffectVibratoVolumeSlide

	// Encoding: effect=0x7
	// Arg: speed (hi) and depth (lo)
	EffectTremolo

	// Encoding: effect=0x9
	// Arg: offset in 256-byte pages
	EffectSampleOffset

	// Encoding: effect=0xA
	// Arg: slide up (hi) or down (lo)
	EffectVolumeSlide

	// Encoding: effect=0xB
	// Arg: song position
	EffectPositionJump

	// Encoding: effect=0xC
	// Arg: volume level
	EffectSetVolume

	// Encoding: effect=0xD
	// Arg: target row as two decimal digits
	EffectPatternBreak

	// Encoding: effect=0xF
	// Arg: ticks per row (<32) or BPM (>=32)
	EffectSetSpeed

	// Extended commands: effect=0xE, the command is stored in the arg high nibble.
	// For all of them, Arg holds the low nibble.

	EffectFilter             // E0x
	EffectFinePortaUp        // E1x
	EffectFinePortaDown      // E2x
	EffectGlissando          // E3x
	EffectVibratoWaveform    // E4x
	EffectSetFinetune        // E5x
	EffectPatternLoop        // E6x
	EffectTremoloWaveform    // E7x
	EffectRetrigger          // E9x
	EffectFineVolumeSlideUp  // EAx
	EffectFineVolumeSlideDn  // EBx
	EffectNoteCut            // ECx
	EffectNoteDelay          // EDx
	EffectPatternDelay       // EEx
	EffectUnsupported        // E8x, EFx and the effect=0x8
	numEffectOps
)

var extendedEffects = [16]EffectOp{
	0x0: EffectFilter,
	0x1: EffectFinePortaUp,
	0x2: EffectFinePortaDown,
	0x3: EffectGlissando,
	0x4: EffectVibratoWaveform,
	0x5: EffectSetFinetune,
	0x6: EffectPatternLoop,
	0x7: EffectTremoloWaveform,
	0x8: EffectUnsupported,
	0x9: EffectRetrigger,
	0xA: EffectFineVolumeSlideUp,
	0xB: EffectFineVolumeSlideDn,
	0xC: EffectNoteCut,
	0xD: EffectNoteDelay,
	0xE: EffectPatternDelay,
	0xF: EffectUnsupported,
}

var plainEffects = [16]EffectOp{
	0x0: EffectArpeggio,
	0x1: EffectPortaUp,
	0x2: EffectPortaDown,
	0x3: EffectTonePorta,
	0x4: EffectVibrato,
	0x5: EffectTonePortaVolumeSlide,
	0x6: EffectVibratoVolumeSlide,
	0x7: EffectTremolo,
	0x8: EffectUnsupported,
	0x9: EffectSampleOffset,
	0xA: EffectVolumeSlide,
	0xB: EffectPositionJump,
	0xC: EffectSetVolume,
	0xD: EffectPatternBreak,
	0xE: EffectNone, // Handled separately
	0xF: EffectSetSpeed,
}

// ConvertEffect decodes a pattern cell command and parameter.
func ConvertEffect(effect, param uint8) Effect {
	effect &= 0x0f
	switch effect {
	case 0x0:
		if param == 0 {
			return Effect{}
		}
	case 0xE:
		return Effect{Op: extendedEffects[param>>4], Arg: param & 0x0f}
	}
	return Effect{Op: plainEffects[effect], Arg: param}
}

// IsExtended reports whether op is one of the E-commands.
func (op EffectOp) IsExtended() bool {
	return op >= EffectFilter && op <= EffectPatternDelay
}

func (op EffectOp) String() string {
	if op < numEffectOps {
		return effectNames[op]
	}
	return "unknown"
}

var effectNames = [numEffectOps]string{
	EffectNone:                 "none",
	EffectArpeggio:             "arpeggio",
	EffectPortaUp:              "porta up",
	EffectPortaDown:            "porta down",
	EffectTonePorta:            "tone porta",
	EffectVibrato:              "vibrato",
	EffectTonePortaVolumeSlide: "tone porta + volume slide",
	EffectVibratoVolumeSlide:   "vibrato + volume slide",
	EffectTremolo:              "tremolo",
	EffectSampleOffset:         "sample offset",
	EffectVolumeSlide:          "volume slide",
	EffectPositionJump:         "position jump",
	EffectSetVolume:            "set volume",
	EffectPatternBreak:         "pattern break",
	EffectSetSpeed:             "set speed",
	EffectFilter:               "filter",
	EffectFinePortaUp:          "fine porta up",
	EffectFinePortaDown:        "fine porta down",
	EffectGlissando:            "glissando",
	EffectVibratoWaveform:      "vibrato waveform",
	EffectSetFinetune:          "set finetune",
	EffectPatternLoop:          "pattern loop",
	EffectTremoloWaveform:      "tremolo waveform",
	EffectRetrigger:            "retrigger",
	EffectFineVolumeSlideUp:    "fine volume up",
	EffectFineVolumeSlideDn:    "fine volume down",
	EffectNoteCut:              "note cut",
	EffectNoteDelay:            "note delay",
	EffectPatternDelay:         "pattern delay",
	EffectUnsupported:          "unsupported",
}

func (e Effect) AsUint16() uint16 {
	return (uint16(e.Op) << 8) | uint16(e.Arg)
}
