package ptplay

import (
	"github.com/quasilyte/ptplay/internal/ptdb"
)

// FXRequest describes a sound that is played outside of the module patterns.
//
// Out of range values are clamped, except for the Channel:
// a request for a channel that is not configured is rejected.
type FXRequest struct {
	// Channel is an FX channel index, starting from 0.
	// The engine has EngineConfig.FXChannels of them.
	Channel int

	// Instrument is a zero-based module instrument index (used by PlayNote).
	Instrument int

	// Volume is in [0, 255].
	Volume int

	// Period is an Amiga period in [113, 856] (used by PlayNote).
	Period int

	// Frequency is a playback rate in Hz (used by PlayFX).
	Frequency int
}

// fxChannel validates the request channel and returns its slot.
func (e *Engine) fxChannel(channel int) (*streamChannel, error) {
	channel = clamp(channel, 0, MaxFXChannels-1)
	if channel >= e.config.FXChannels {
		return nil, ErrChannelOutOfRange
	}
	return &e.channels[MaxModuleChannels+channel], nil
}

func fxVolume(v int) int {
	return clamp(v, 0, 255) * maxVolume / 255
}

// PlayNote plays a loaded module instrument on an FX channel.
// The sample starts from its loop start.
//
// Without a loaded module every instrument is empty and the channel stays silent.
func (e *Engine) PlayNote(req FXRequest) error {
	ch, err := e.fxChannel(req.Channel)
	if err != nil {
		return err
	}

	e.platform.EnterCriticalSection()
	defer e.platform.LeaveCriticalSection()

	inst := &instrument{}
	if e.module != nil {
		inst = &e.module.instruments[clamp(req.Instrument, 0, len(e.module.instruments)-1)]
	}
	ch.Reset()
	ch.loadInstrument(inst, inst.loopStart)
	// The loaded instrument must not outlive a module unload.
	ch.inst = nil
	ch.volume = fxVolume(req.Volume)
	ch.period = clamp(req.Period, ptdb.MinPeriod, ptdb.MaxPeriod)
	e.seatFX(ch)
	return nil
}

// PlayFX plays raw signed 8-bit sample data on an FX channel.
// The sample is played once at the requested frequency.
//
// The engine keeps a reference to sample until the sound ends
// or the channel is reused; the caller must not modify it meanwhile.
func (e *Engine) PlayFX(sample []byte, req FXRequest) error {
	ch, err := e.fxChannel(req.Channel)
	if err != nil {
		return err
	}

	period := e.config.Clock.Constant() / clampMin(req.Frequency, 1)

	e.platform.EnterCriticalSection()
	defer e.platform.LeaveCriticalSection()

	ch.Reset()
	ch.voice.Sample = bytesAsInt8(sample)
	ch.voice.Length = len(sample)
	ch.voice.Pos = 0
	ch.volume = fxVolume(req.Volume)
	ch.period = period
	e.seatFX(ch)
	return nil
}

func (e *Engine) seatFX(ch *streamChannel) {
	ch.voice.normalize()
	ch.applyFinal()
	if ch.period != 0 {
		e.active |= 1 << ch.id
	} else {
		e.active &^= 1 << ch.id
	}
}

// StopFX silences an FX channel.
// The channel index is clamped to the configured FX channels.
func (e *Engine) StopFX(channel int) {
	if e.config.FXChannels == 0 {
		return
	}
	channel = clamp(channel, 0, e.config.FXChannels-1)
	ch := &e.channels[MaxModuleChannels+channel]

	e.platform.EnterCriticalSection()
	e.active &^= 1 << ch.id
	ch.Reset()
	e.platform.LeaveCriticalSection()
}
