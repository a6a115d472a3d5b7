// Package simhal is a deterministic platform for tests.
//
// Nothing happens on its own: the test calls Interrupt to simulate
// the device draining the committed buffer.
package simhal

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/quasilyte/ptplay/pcm"
)

var ErrAllocFailed = errors.New("simulated allocation failure")

type Config struct {
	// Rate overrides the rate reported by ConfigureOutput.
	// A zero value means "use the requested rate".
	Rate int

	// FailAlloc makes every Allocate call fail.
	FailAlloc bool

	// KeepCommits makes the platform copy every committed buffer,
	// see Commits.
	KeepCommits bool
}

// Platform implements ptplay.Platform.
type Platform struct {
	config Config

	Rate   int
	Format pcm.Format

	handlers map[int]func()

	committed []byte
	commits   [][]byte
	numCommit int

	depth   int
	pending int

	volume  atomic.Int32
	Stopped bool

	allocated int
	released  int

	// InInterrupt is set while a handler runs.
	InInterrupt bool
}

func New(config Config) *Platform {
	p := &Platform{
		config:   config,
		handlers: make(map[int]func()),
	}
	p.volume.Store(63)
	return p
}

func (p *Platform) ConfigureOutput(rate int, format pcm.Format) (int, error) {
	if p.config.Rate != 0 {
		rate = p.config.Rate
	}
	p.Rate = rate
	p.Format = format
	return rate, nil
}

func (p *Platform) Allocate(size int) ([]byte, error) {
	if p.config.FailAlloc {
		return nil, ErrAllocFailed
	}
	p.allocated++
	return make([]byte, size), nil
}

func (p *Platform) Release(buf []byte) {
	p.released++
}

// Allocations reports the number of live allocations.
func (p *Platform) Allocations() int {
	return p.allocated - p.released
}

func (p *Platform) RegisterCompletionHandler(id int, h func()) error {
	if p.depth != 0 {
		return errors.New("register called inside a critical section")
	}
	if _, ok := p.handlers[id]; ok {
		return fmt.Errorf("handler %d is already registered", id)
	}
	p.handlers[id] = h
	return nil
}

func (p *Platform) UnregisterCompletionHandler(id int) {
	delete(p.handlers, id)
}

func (p *Platform) CommitBuffer(buf []byte) {
	p.committed = buf
	p.numCommit++
	if p.config.KeepCommits {
		p.commits = append(p.commits, append([]byte(nil), buf...))
	}
}

// Committed returns the buffer the device is playing now.
func (p *Platform) Committed() []byte { return p.committed }

// NumCommits reports how many buffers were committed so far.
func (p *Platform) NumCommits() int { return p.numCommit }

// Commits returns the copies of all committed buffers.
// It only works with Config.KeepCommits.
func (p *Platform) Commits() [][]byte { return p.commits }

func (p *Platform) StopOutput() {
	p.Stopped = true
	p.committed = nil
}

func (p *Platform) SetOutputVolume(level int) {
	p.volume.Store(int32(level))
}

// Volume reports the last output level set.
func (p *Platform) Volume() int {
	return int(p.volume.Load())
}

func (p *Platform) EnterCriticalSection() {
	p.depth++
}

func (p *Platform) LeaveCriticalSection() {
	if p.depth == 0 {
		panic("unbalanced LeaveCriticalSection")
	}
	p.depth--
	if p.depth == 0 {
		for p.pending > 0 {
			p.pending--
			p.deliver()
		}
	}
}

// Depth reports the critical section nesting level.
func (p *Platform) Depth() int { return p.depth }

// Interrupt simulates the device draining the committed buffer.
// Inside a critical section the notification is deferred
// until the section is left.
func (p *Platform) Interrupt() {
	if p.depth != 0 {
		p.pending++
		return
	}
	p.deliver()
}

// Run delivers n interrupts.
func (p *Platform) Run(n int) {
	for i := 0; i < n; i++ {
		p.Interrupt()
	}
}

func (p *Platform) deliver() {
	if p.Stopped {
		return
	}
	p.InInterrupt = true
	for _, h := range p.handlers {
		h()
	}
	p.InInterrupt = false
}
