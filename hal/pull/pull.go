// Package pull implements a platform for consumers that pull PCM data.
//
// The Device is an io.Reader: every Read drains the committed buffer,
// and once it's drained the completion handlers are called, just like
// a hardware interrupt would do. oto, ebiten/audio and offline renderers
// read from it.
package pull

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/quasilyte/ptplay/internal/log"
	"github.com/quasilyte/ptplay/pcm"
)

const maxHandlers = 4

// MaxOutputLevel is the hardware volume level that leaves the samples as is.
const MaxOutputLevel = 63

// Device implements ptplay.Platform.
//
// The critical section is a mutex that is also held during Read,
// so the completion handlers never run concurrently with the foreground.
type Device struct {
	mu sync.Mutex

	rate   int
	format pcm.Format

	handlers [maxHandlers]func()

	cur   []byte
	off   int
	fresh bool // Set by CommitBuffer, cleared before the handlers run

	stopped bool
	closed  bool

	level atomic.Int32
}

func NewDevice() *Device {
	d := &Device{}
	d.level.Store(MaxOutputLevel)
	return d
}

// ConfigureOutput accepts any rate and format.
func (d *Device) ConfigureOutput(rate int, format pcm.Format) (int, error) {
	switch format {
	case pcm.S16, pcm.S8:
	default:
		return 0, fmt.Errorf("unsupported format %s", format)
	}
	d.mu.Lock()
	d.rate = rate
	d.format = format
	d.mu.Unlock()
	return rate, nil
}

// Rate reports the configured output rate.
func (d *Device) Rate() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rate
}

// Format reports the configured output format.
func (d *Device) Format() pcm.Format {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.format
}

func (d *Device) Allocate(size int) ([]byte, error) {
	return make([]byte, size), nil
}

func (d *Device) Release(buf []byte) {}

func (d *Device) RegisterCompletionHandler(id int, h func()) error {
	if id < 0 || id >= maxHandlers {
		return fmt.Errorf("handler id %d is out of range", id)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.handlers[id] != nil {
		return fmt.Errorf("handler %d is already registered", id)
	}
	d.handlers[id] = h
	d.stopped = false
	return nil
}

func (d *Device) UnregisterCompletionHandler(id int) {
	if id < 0 || id >= maxHandlers {
		return
	}
	d.mu.Lock()
	d.handlers[id] = nil
	d.mu.Unlock()
}

// CommitBuffer is called with the mutex held, either by Read
// (from a completion handler) or inside a critical section.
func (d *Device) CommitBuffer(buf []byte) {
	if level := int(d.level.Load()); level < MaxOutputLevel {
		applyLevel(buf, d.format, level)
	}
	d.cur = buf
	d.off = 0
	d.fresh = true
}

func (d *Device) StopOutput() {
	d.mu.Lock()
	d.stopped = true
	d.cur = nil
	d.off = 0
	d.mu.Unlock()
	log.ModHAL.Debugf("pull device output stopped")
}

func (d *Device) SetOutputVolume(level int) {
	level = max(0, min(level, MaxOutputLevel))
	d.level.Store(int32(level))
}

func (d *Device) EnterCriticalSection() { d.mu.Lock() }
func (d *Device) LeaveCriticalSection() { d.mu.Unlock() }

// Close makes the following Read calls return io.EOF.
func (d *Device) Close() error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	return nil
}

// Read fills p with the committed PCM data.
//
// When nothing is committed, p is filled with silence.
// When the handlers don't commit a new buffer, the last one is repeated.
func (d *Device) Read(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return 0, io.EOF
	}

	n := 0
	for n < len(p) {
		if d.stopped || len(d.cur) == 0 {
			clear(p[n:])
			return len(p), nil
		}
		k := copy(p[n:], d.cur[d.off:])
		n += k
		d.off += k
		if d.off == len(d.cur) {
			d.drained()
		}
	}
	return n, nil
}

func (d *Device) drained() {
	d.fresh = false
	for _, h := range d.handlers {
		if h != nil {
			h()
		}
	}
	if !d.fresh {
		d.off = 0
	}
}

func applyLevel(buf []byte, format pcm.Format, level int) {
	switch format {
	case pcm.S8:
		for i, b := range buf {
			buf[i] = byte(int8(int(int8(b)) * level / MaxOutputLevel))
		}
	default:
		for i := 0; i+1 < len(buf); i += 2 {
			s := int(int16(uint16(buf[i]) | uint16(buf[i+1])<<8))
			v := uint16(int16(s * level / MaxOutputLevel))
			buf[i] = byte(v)
			buf[i+1] = byte(v >> 8)
		}
	}
}
