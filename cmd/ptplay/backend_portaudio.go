//go:build portaudio

package main

import (
	"github.com/quasilyte/ptplay/hal/pahal"
)

func newPortAudio() (backend, error) {
	return pahal.New(), nil
}
