// Package pcm describes the interleaved PCM layouts produced by the mixer.
//
// Every layout is stereo: the mixer is mono and writes the same value
// into the left and right slots of a frame.
package pcm

import (
	"fmt"
	"strings"
)

// Channels is the number of interleaved output channels.
const Channels = 2

// Format selects the sample encoding of an output buffer.
type Format uint8

const (
	// S16 is signed 16-bit little endian PCM.
	// This is what oto, ebiten/audio and most pull devices expect.
	S16 Format = iota

	// S8 is signed 8-bit PCM.
	S8
)

// SampleSize reports the size of a single (mono) sample in bytes.
func (f Format) SampleSize() int {
	if f == S8 {
		return 1
	}
	return 2
}

// FrameSize reports the size of a stereo frame in bytes.
func (f Format) FrameSize() int {
	return f.SampleSize() * Channels
}

// Frames reports how many whole stereo frames fit into n bytes.
func (f Format) Frames(n int) int {
	return n / f.FrameSize()
}

func (f Format) String() string {
	switch f {
	case S16:
		return "s16"
	case S8:
		return "s8"
	default:
		return fmt.Sprintf("Format(%d)", uint8(f))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (f Format) MarshalText() ([]byte, error) {
	switch f {
	case S16, S8:
		return []byte(f.String()), nil
	}
	return nil, fmt.Errorf("unknown PCM format %d", uint8(f))
}

// UnmarshalText implements encoding.TextUnmarshaler.
// Accepted names are "s16" and "s8" (case-insensitive).
func (f *Format) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "s16", "s16le", "":
		*f = S16
	case "s8":
		*f = S8
	default:
		return fmt.Errorf("unknown PCM format %q", text)
	}
	return nil
}
