//go:build !portaudio

package main

import (
	"errors"
)

func newPortAudio() (backend, error) {
	return nil, errors.New("ptplay is built without portaudio support (use -tags portaudio)")
}
