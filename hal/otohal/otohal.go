//go:build !headless

// Package otohal plays the engine output through oto.
package otohal

import (
	"fmt"
	"io"
	"sync"

	"github.com/ebitengine/oto/v3"

	"github.com/quasilyte/ptplay/hal/pull"
	"github.com/quasilyte/ptplay/internal/log"
	"github.com/quasilyte/ptplay/pcm"
)

// Player is a pull device that is drained by an oto player.
type Player struct {
	*pull.Device

	mu      sync.Mutex
	ctx     *oto.Context
	player  *oto.Player
	started bool
}

func New() *Player {
	return &Player{Device: pull.NewDevice()}
}

// ConfigureOutput creates the oto context.
// oto allows only one context per process, so it can be called once.
func (p *Player) ConfigureOutput(rate int, format pcm.Format) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ctx != nil {
		return 0, fmt.Errorf("oto output is already configured")
	}

	if _, err := p.Device.ConfigureOutput(rate, format); err != nil {
		return 0, err
	}

	op := &oto.NewContextOptions{
		SampleRate:   rate,
		ChannelCount: pcm.Channels,
		Format:       oto.FormatSignedInt16LE,
	}
	var r io.Reader = p.Device
	if format == pcm.S8 {
		op.Format = oto.FormatUnsignedInt8
		r = &unsignedReader{r: p.Device}
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return 0, fmt.Errorf("create oto context: %w", err)
	}
	<-ready

	p.ctx = ctx
	p.player = ctx.NewPlayer(r)
	log.ModHAL.WithFields(log.Fields{"rate": rate, "format": format}).Info("oto output configured")
	return rate, nil
}

// Play starts pulling the data from the device.
func (p *Player) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started && p.player != nil {
		p.player.Play()
		p.started = true
	}
}

func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Device.Close()
	if p.player != nil {
		err := p.player.Close()
		p.player = nil
		p.started = false
		return err
	}
	return nil
}

// unsignedReader converts signed 8-bit PCM to the unsigned form oto expects.
type unsignedReader struct {
	r io.Reader
}

func (u *unsignedReader) Read(b []byte) (int, error) {
	n, err := u.r.Read(b)
	toUnsigned(b[:n])
	return n, err
}

func toUnsigned(b []byte) {
	for i := range b {
		b[i] ^= 0x80
	}
}
