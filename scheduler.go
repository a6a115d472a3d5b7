package ptplay

import (
	"fmt"

	"github.com/quasilyte/ptplay/internal/log"
	"github.com/quasilyte/ptplay/pcm"
)

// scheduler keeps two output buffers in flight.
//
// One buffer is committed to the platform while the other one is
// refilled; every completion swaps their roles. Only the completion
// handler (or foreground code inside a critical section) touches
// the buffers after start.
type scheduler struct {
	platform Platform
	format   pcm.Format

	rate     int
	tickRate int

	mem    []byte
	bufs   [2][]byte
	filled [2]int

	// frame is the buffer that will be committed next.
	frame int

	// samples is the interleaved sample count of a single tick.
	samples int

	refill func()

	started bool
}

func newScheduler(p Platform, format pcm.Format, rate, tickRate int) (*scheduler, error) {
	maxBytes := calcBufferSamples(rate, tickRate, minTempoBPM) * format.SampleSize()
	mem, err := p.Allocate(2 * maxBytes)
	if err != nil {
		return nil, fmt.Errorf("allocate %d bytes of output buffers: %w", 2*maxBytes, err)
	}
	if len(mem) < 2*maxBytes {
		p.Release(mem)
		return nil, fmt.Errorf("platform allocated %d bytes, %d requested", len(mem), 2*maxBytes)
	}

	s := &scheduler{
		platform: p,
		format:   format,
		rate:     rate,
		tickRate: tickRate,
		mem:      mem,
	}
	s.bufs[0] = mem[:maxBytes:maxBytes]
	s.bufs[1] = mem[maxBytes : 2*maxBytes : 2*maxBytes]
	s.setTempo(defaultBPM)

	log.ModStream.Debugf("allocated 2x%d bytes of output buffers", maxBytes)
	return s, nil
}

// maxFrames reports the largest frame count target can return.
func (s *scheduler) maxFrames() int {
	return s.format.Frames(len(s.bufs[0]))
}

// setTempo resizes the tick buffer for the given BPM.
// The new size is picked up by the next refill.
func (s *scheduler) setTempo(bpm int) {
	bpm = max(bpm, minTempoBPM)
	s.samples = calcBufferSamples(s.rate, s.tickRate, bpm)
}

// bufferBytes reports the current tick size in bytes.
func (s *scheduler) bufferBytes() int {
	return s.samples * s.format.SampleSize()
}

// target returns the buffer the next tick should be mixed into.
func (s *scheduler) target() []byte {
	n := s.bufferBytes()
	s.filled[s.frame] = n
	return s.bufs[s.frame][:n]
}

// start commits a silent buffer and arms the completion handler.
func (s *scheduler) start(refill func()) error {
	if s.started {
		return nil
	}
	s.refill = refill
	if err := s.platform.RegisterCompletionHandler(CompletionID, s.onBufferConsumed); err != nil {
		return fmt.Errorf("register completion handler: %w", err)
	}

	s.platform.EnterCriticalSection()
	clear(s.bufs[0])
	clear(s.bufs[1])
	s.filled[0] = s.bufferBytes()
	s.filled[1] = 0
	s.platform.CommitBuffer(s.bufs[0][:s.filled[0]])
	s.frame = 1
	s.started = true
	// The second buffer is ready before the first one drains.
	s.refill()
	s.platform.LeaveCriticalSection()
	return nil
}

// onBufferConsumed runs in the completion context.
func (s *scheduler) onBufferConsumed() {
	s.platform.CommitBuffer(s.bufs[s.frame][:s.filled[s.frame]])
	s.frame ^= 1
	s.refill()
}

func (s *scheduler) stop() {
	if !s.started {
		return
	}
	s.platform.StopOutput()
	s.platform.UnregisterCompletionHandler(CompletionID)
	s.started = false
}

func (s *scheduler) release() {
	s.stop()
	if s.mem != nil {
		s.platform.Release(s.mem)
		s.mem = nil
		s.bufs = [2][]byte{}
	}
}
