//go:build portaudio

// Package pahal plays the engine output through PortAudio.
//
// The PortAudio callback drains a pull device, so it acts as the
// completion interrupt. Only pcm.S16 output is supported.
package pahal

import (
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/quasilyte/ptplay/hal/pull"
	"github.com/quasilyte/ptplay/internal/log"
	"github.com/quasilyte/ptplay/pcm"
)

type Output struct {
	*pull.Device

	mu     sync.Mutex
	stream *portaudio.Stream
	buf    []byte
}

func New() *Output {
	return &Output{Device: pull.NewDevice()}
}

// ConfigureOutput initializes PortAudio and opens the default output.
// The rate reported back is the one the device was opened with.
func (o *Output) ConfigureOutput(rate int, format pcm.Format) (int, error) {
	if format != pcm.S16 {
		return 0, fmt.Errorf("portaudio output supports only %s", pcm.S16)
	}

	if err := portaudio.Initialize(); err != nil {
		return 0, fmt.Errorf("portaudio init: %w", err)
	}
	api, err := portaudio.DefaultHostApi()
	if err != nil {
		portaudio.Terminate()
		return 0, err
	}

	params := portaudio.HighLatencyParameters(nil, api.DefaultOutputDevice)
	params.Output.Channels = pcm.Channels
	params.SampleRate = float64(rate)
	stream, err := portaudio.OpenStream(params, o.callback)
	if err != nil {
		portaudio.Terminate()
		return 0, fmt.Errorf("open portaudio stream: %w", err)
	}

	realRate := int(params.SampleRate)
	if _, err := o.Device.ConfigureOutput(realRate, format); err != nil {
		stream.Close()
		portaudio.Terminate()
		return 0, err
	}

	o.mu.Lock()
	o.stream = stream
	o.mu.Unlock()
	log.ModHAL.WithField("rate", realRate).Info("portaudio output configured")
	return realRate, nil
}

func (o *Output) Play() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stream != nil {
		if err := o.stream.Start(); err != nil {
			log.ModHAL.WithError(err).Warn("portaudio stream start failed")
		}
	}
}

func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Device.Close()
	if o.stream == nil {
		return nil
	}
	err := o.stream.Close()
	o.stream = nil
	portaudio.Terminate()
	return err
}

func (o *Output) callback(out []int16) {
	n := len(out) * 2
	if cap(o.buf) < n {
		o.buf = make([]byte, n)
	}
	b := o.buf[:n]
	if _, err := o.Device.Read(b); err != nil {
		clear(out)
		return
	}
	for i := range out {
		out[i] = int16(uint16(b[i*2]) | uint16(b[i*2+1])<<8)
	}
}
