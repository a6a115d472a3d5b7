//go:build headless

package otohal

import (
	"github.com/quasilyte/ptplay/hal/pull"
)

// Player is a pull device without an audio output.
// Nothing drains it unless the application reads from it.
type Player struct {
	*pull.Device
}

func New() *Player {
	return &Player{Device: pull.NewDevice()}
}

func (p *Player) Play() {}

func (p *Player) Close() error {
	return p.Device.Close()
}

func toUnsigned(b []byte) {
	for i := range b {
		b[i] ^= 0x80
	}
}
