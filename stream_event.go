package ptplay

// StreamEventKind is an event tag that should be used to differentiate between different event types.
// See StreamEvent docs for more info.
type StreamEventKind int

const (
	// EventUnknown is a sentinel value.
	// You should never receive an event of this kind.
	EventUnknown StreamEventKind = iota

	// EventTick is emitted after every mixed tick of an enabled module.
	//
	// Use StreamEvent.TickEventData to get the event data.
	EventTick

	// EventNote is emitted every time a module channel starts to play a note.
	// Notes played with PlayNote and PlayFX are not reported.
	// A note delayed with EDx is reported on the tick it starts.
	//
	// Use StreamEvent.NoteEventData to get the event data.
	EventNote

	// EventSongEnd is emitted when the song wraps to its first position,
	// either after its last position or with a backwards position jump.
	EventSongEnd
)

func (k StreamEventKind) String() string {
	switch k {
	case EventTick:
		return "tick"
	case EventNote:
		return "note"
	case EventSongEnd:
		return "song-end"
	default:
		return "unknown"
	}
}

// StreamEvent holds a single event data.
// This object is an argument to the Engine.SetEventHandler function.
//
// To handle the event correctly, you must first check its kind.
// For an event of kind EventNote there is a NoteEventData method that
// will return the associated data. For EventTick there is a TickEventData.
//
// Events are delivered from the completion context.
// The handler must not block and must not call Engine methods
// that enter a critical section.
type StreamEvent struct {
	Kind StreamEventKind

	// Channel is an event channel ID.
	// Channel-independent events report -1.
	Channel int

	// Position is the song position (an index into the pattern order table).
	Position int

	value uint64
}

// TickEventData returns the event data if e.Kind=EventTick.
// The return values are: the pattern row and the tick inside that row.
func (e StreamEvent) TickEventData() (row, tick int) {
	return int(e.value & 0xff), int(e.value >> 8)
}

// NoteEventData returns the event data if e.Kind=EventNote.
// The return values are: a period, instrument (1-based, 0 if the cell had no instrument), volume.
func (e StreamEvent) NoteEventData() (period, instrument, vol int) {
	return int(e.value & 0xffff), int((e.value >> 16) & 0xff), int(e.value >> 24)
}

func tickEventValue(row, tick int) uint64 {
	return uint64(row&0xff) | uint64(tick)<<8
}

func noteEventValue(period int, inst uint8, vol int) uint64 {
	return uint64(period&0xffff) | uint64(inst)<<16 | uint64(vol&0xff)<<24
}
