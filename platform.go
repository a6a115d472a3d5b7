package ptplay

import (
	"github.com/quasilyte/ptplay/pcm"
)

const pcmChannels = pcm.Channels

// CompletionID identifies the engine's "buffer consumed" handler on a platform.
const CompletionID = 0

// Platform abstracts the audio hardware the engine streams into.
//
// The engine never touches the output device directly: it allocates its
// buffer pair, commits buffers and masks notifications through this interface.
// Implementations live in the hal packages.
//
// Calling contexts:
//   - Allocate, Release, RegisterCompletionHandler and UnregisterCompletionHandler
//     are only called from the foreground, never inside a critical section.
//   - CommitBuffer is called from the completion handler or inside a critical section.
//     It must not block.
//   - SetOutputVolume is called outside of any critical section, possibly while
//     the completion handler runs on another goroutine. Implementations must
//     make it safe against the completion path and must not block.
//
// The completion handler is the only code that runs in "interrupt" context.
// While a critical section is entered, the platform must not invoke it.
type Platform interface {
	// ConfigureOutput prepares the device for the requested rate and format.
	// The returned rate is the one the device really plays at;
	// the engine sizes its buffers and pitch math for that rate.
	ConfigureOutput(rate int, format pcm.Format) (realRate int, err error)

	Allocate(size int) ([]byte, error)
	Release(buf []byte)

	RegisterCompletionHandler(id int, h func()) error
	UnregisterCompletionHandler(id int)

	// CommitBuffer hands buf to the device. The device plays it until
	// it's drained, then calls the completion handler.
	// The engine does not write into buf until the next completion.
	CommitBuffer(buf []byte)

	// StopOutput halts the physical output.
	StopOutput()

	// SetOutputVolume sets the hardware output level in [0, 63].
	// It may race with CommitBuffer, see the calling contexts above.
	SetOutputVolume(level int)

	EnterCriticalSection()
	LeaveCriticalSection()
}
