package ptplay

import (
	"errors"
	"fmt"

	"github.com/quasilyte/ptplay/internal/log"
	"github.com/quasilyte/ptplay/modfile"
	"github.com/quasilyte/ptplay/pcm"
)

const (
	// MaxModuleChannels is the number of channel slots reserved for modules.
	// FX channels start right after them.
	MaxModuleChannels = modfile.MaxChannels

	// MaxFXChannels is the size of the FX channel address space.
	MaxFXChannels = 16

	MaxChannels = MaxModuleChannels + MaxFXChannels

	// Precision is the number of fractional bits of a Voice position.
	Precision = 8

	precisionOne  = 1 << Precision
	precisionMask = precisionOne - 1

	maxVolume = 64

	palClock  = 3546895
	ntscClock = 3579545

	defaultTickRate   = 50
	defaultFXChannels = 4
	defaultBPM        = 125
	defaultSpeed      = 6

	// minTempoBPM is the slowest tempo; buffers are allocated for it.
	minTempoBPM = 32

	// Fxx values below this set the speed, others set the tempo.
	tempoThreshold = 32

	moduleChannelsMask uint32 = 1<<MaxModuleChannels - 1
)

// ErrChannelOutOfRange is returned by PlayNote and PlayFX when
// the request addresses an FX channel that doesn't exist.
var ErrChannelOutOfRange = errors.New("fx channel is out of range")

// Engine plays a module and ad-hoc sound effects through a Platform.
//
// The engine has no goroutines of its own: all playback happens inside
// the platform completion handler. Control methods are safe to call
// from the foreground while the playback is running.
type Engine struct {
	platform Platform
	config   EngineConfig
	realRate int

	scheduler *scheduler
	mixer     Mixer

	module  *module
	session session

	channels [MaxChannels]streamChannel

	// active has a bit per channel slot that is being mixed.
	active uint32

	// voices is a scratch slice reused by every tick.
	voices []*Voice

	eventHandler func(e StreamEvent)

	closed bool
}

// StreamInfo describes the engine output and the loaded module.
type StreamInfo struct {
	SampleRate int
	Format     pcm.Format

	// BufferBytes is the current size of a single tick buffer.
	// It changes with the tempo.
	BufferBytes int

	// MaxBufferBytes is the capacity of each buffer of the pair.
	MaxBufferBytes int

	BPM   int
	Speed int

	ModuleName  string
	Channels    int
	FXChannels  int
	SongLength  int
	Playing     bool
	MemoryUsage uint

	// Filter reports the Amiga LED filter state set by E0x.
	// The mixer doesn't emulate the filter.
	Filter bool
}

// NewEngine configures the platform output and allocates the buffer pair.
// The playback starts with Start or the first module load.
func NewEngine(p Platform, config EngineConfig) (*Engine, error) {
	config.applyDefaults()
	if err := config.validate(); err != nil {
		return nil, err
	}

	realRate, err := p.ConfigureOutput(config.SampleRate, config.Format)
	if err != nil {
		return nil, fmt.Errorf("configure output: %w", err)
	}
	if realRate < config.TickRate {
		return nil, fmt.Errorf("platform rate %d is too low", realRate)
	}

	sched, err := newScheduler(p, config.Format, realRate, config.TickRate)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		platform:  p,
		config:    config,
		realRate:  realRate,
		scheduler: sched,
		voices:    make([]*Voice, 0, MaxChannels),
	}
	e.mixer = NewMixer(MixerConfig{
		Kind:        config.Mixer,
		Format:      config.Format,
		VolumeShift: config.VolumeShift,
		ClockRate:   config.Clock.Constant() / realRate,
		MaxFrames:   sched.maxFrames(),
	})
	for i := range e.channels {
		e.channels[i].id = i
	}
	e.session.reset()

	log.ModEngine.WithFields(log.Fields{
		"rate":   realRate,
		"format": config.Format,
		"mixer":  config.Mixer,
		"fx":     config.FXChannels,
	}).Info("engine created")

	return e, nil
}

// Start begins the output without a module: only FX channels are heard.
// Loading a module starts the output as well.
func (e *Engine) Start() error {
	if e.closed {
		return errors.New("engine is closed")
	}
	return e.scheduler.start(e.tick)
}

// LoadModule parses a module and starts playing it from the first position.
// The data slice is not retained.
func (e *Engine) LoadModule(data []byte) error {
	p := modfile.NewParser(modfile.ParserConfig{NeedStrings: true, MaxChannels: MaxModuleChannels})
	m, err := p.ParseFromBytes(data)
	if err != nil {
		log.ModLoader.WithError(err).Warn("module parsing failed")
		return fmt.Errorf("load module: %w", err)
	}
	return e.LoadParsedModule(m)
}

// LoadParsedModule is like LoadModule, but the module is already parsed.
//
// The module sample data is shared with m; it must not be modified
// while the engine plays it.
func (e *Engine) LoadParsedModule(m *modfile.Module) error {
	compiled, err := compileModule(m)
	if err != nil {
		return fmt.Errorf("load module: %w", err)
	}

	log.ModLoader.WithFields(log.Fields{
		"name":      compiled.name,
		"channels":  compiled.numChannels,
		"positions": compiled.songLength,
		"patterns":  m.NumPatterns,
	}).Info("module loaded")

	e.platform.EnterCriticalSection()
	e.module = compiled
	e.resetModuleChannels()
	e.session.reset()
	e.session.enabled = true
	e.scheduler.setTempo(e.session.bpm)
	e.platform.LeaveCriticalSection()

	return e.Start()
}

// UnloadModule stops the module playback; FX channels keep playing.
func (e *Engine) UnloadModule() {
	e.platform.EnterCriticalSection()
	e.module = nil
	e.resetModuleChannels()
	e.session.reset()
	e.scheduler.setTempo(e.session.bpm)
	e.platform.LeaveCriticalSection()
}

func (e *Engine) resetModuleChannels() {
	for i := 0; i < MaxModuleChannels; i++ {
		e.channels[i].Reset()
	}
	e.active &^= moduleChannelsMask
}

// Enable resumes the module playback from where it was disabled.
func (e *Engine) Enable() {
	e.platform.EnterCriticalSection()
	e.session.enabled = true
	e.platform.LeaveCriticalSection()
}

// Disable pauses the module playback.
// The module channels are silenced right away, FX channels keep playing.
// Calling Disable on a disabled engine does nothing.
func (e *Engine) Disable() {
	e.platform.EnterCriticalSection()
	e.session.enabled = false
	e.active &^= moduleChannelsMask
	e.platform.LeaveCriticalSection()
}

// Enabled reports whether the module playback is running.
func (e *Engine) Enabled() bool {
	e.platform.EnterCriticalSection()
	defer e.platform.LeaveCriticalSection()
	return e.session.enabled && e.module != nil
}

// SetMasterVolume sets the output volume in [0, 31].
// Values outside of that range are clamped.
//
// The level goes straight to Platform.SetOutputVolume without
// entering a critical section.
func (e *Engine) SetMasterVolume(v int) {
	v = clamp(v, 0, 31)
	e.platform.SetOutputVolume(v * 63 / 31)
}

// SetEventHandler installs an event listener.
// A nil f removes the current one.
//
// f is called from the completion context after every tick is mixed.
func (e *Engine) SetEventHandler(f func(e StreamEvent)) {
	e.platform.EnterCriticalSection()
	e.eventHandler = f
	e.platform.LeaveCriticalSection()
}

// Position returns the current song position and pattern row.
func (e *Engine) Position() (songPos, row int) {
	e.platform.EnterCriticalSection()
	defer e.platform.LeaveCriticalSection()
	return e.session.playPos, e.session.playRow
}

// Info returns the stream-related info.
func (e *Engine) Info() StreamInfo {
	e.platform.EnterCriticalSection()
	defer e.platform.LeaveCriticalSection()

	info := StreamInfo{
		SampleRate:     e.realRate,
		Format:         e.config.Format,
		BufferBytes:    e.scheduler.bufferBytes(),
		MaxBufferBytes: len(e.scheduler.bufs[0]),
		BPM:            e.session.bpm,
		Speed:          e.session.speed,
		FXChannels:     e.config.FXChannels,
		Playing:        e.session.enabled && e.module != nil,
		Filter:         e.session.filter,
	}
	if m := e.module; m != nil {
		info.ModuleName = m.name
		info.Channels = m.numChannels
		info.SongLength = m.songLength
		info.MemoryUsage = moduleSize(m)
	}
	return info
}

// Close stops the output and releases the buffer pair.
// The engine can't be used after that.
func (e *Engine) Close() {
	if e.closed {
		return
	}
	e.closed = true
	e.scheduler.release()
	log.ModEngine.Debugf("engine closed")
}

func (e *Engine) emit(ev StreamEvent) {
	if e.eventHandler != nil {
		e.eventHandler(ev)
	}
}
