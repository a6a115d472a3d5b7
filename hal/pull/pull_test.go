package pull

import (
	"io"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/quasilyte/ptplay/pcm"
)

func TestReadSilence(t *testing.T) {
	d := NewDevice()
	p := []byte{1, 2, 3, 4}
	n, err := d.Read(p)
	if err != nil || n != len(p) {
		t.Fatalf("Read: n=%d err=%v", n, err)
	}
	if diff := cmp.Diff([]byte{0, 0, 0, 0}, p); diff != "" {
		t.Fatalf("output mismatch (-want +have):\n%s", diff)
	}
}

func TestReadDrainsAndNotifies(t *testing.T) {
	d := NewDevice()
	if _, err := d.ConfigureOutput(8000, pcm.S8); err != nil {
		t.Fatal(err)
	}

	bufs := [][]byte{{1, 2, 3}, {4, 5, 6}}
	next := 1
	calls := 0
	err := d.RegisterCompletionHandler(0, func() {
		calls++
		d.CommitBuffer(bufs[next])
		next ^= 1
	})
	if err != nil {
		t.Fatal(err)
	}

	d.EnterCriticalSection()
	d.CommitBuffer(bufs[0])
	d.LeaveCriticalSection()

	p := make([]byte, 2)
	d.Read(p)
	if calls != 0 {
		t.Fatalf("handler called before the buffer is drained")
	}
	if diff := cmp.Diff([]byte{1, 2}, p); diff != "" {
		t.Fatalf("output mismatch (-want +have):\n%s", diff)
	}

	p = make([]byte, 5)
	d.Read(p)
	if calls != 2 {
		t.Fatalf("have %d handler calls, want 2", calls)
	}
	if diff := cmp.Diff([]byte{3, 4, 5, 6, 1}, p); diff != "" {
		t.Fatalf("output mismatch (-want +have):\n%s", diff)
	}
}

func TestReadRepeatsWithoutCommit(t *testing.T) {
	d := NewDevice()
	d.CommitBuffer([]byte{7, 8})
	p := make([]byte, 5)
	d.Read(p)
	if diff := cmp.Diff([]byte{7, 8, 7, 8, 7}, p); diff != "" {
		t.Fatalf("output mismatch (-want +have):\n%s", diff)
	}
}

func TestOutputLevel(t *testing.T) {
	d := NewDevice()
	d.ConfigureOutput(44100, pcm.S16)
	d.SetOutputVolume(0)
	buf := []byte{0xff, 0x7f, 0x00, 0x80}
	d.CommitBuffer(buf)
	if diff := cmp.Diff([]byte{0, 0, 0, 0}, buf); diff != "" {
		t.Fatalf("output mismatch (-want +have):\n%s", diff)
	}

	d.SetOutputVolume(100)
	buf = []byte{0xff, 0x7f}
	d.CommitBuffer(buf)
	if diff := cmp.Diff([]byte{0xff, 0x7f}, buf); diff != "" {
		t.Fatalf("full level changed the samples (-want +have):\n%s", diff)
	}
}

func TestStopAndClose(t *testing.T) {
	d := NewDevice()
	d.CommitBuffer([]byte{1, 1})
	d.StopOutput()
	p := make([]byte, 2)
	d.Read(p)
	if p[0] != 0 || p[1] != 0 {
		t.Fatalf("stopped device produced %v", p)
	}
	d.Close()
	if _, err := d.Read(p); err != io.EOF {
		t.Fatalf("have %v, want EOF", err)
	}
}

func TestRegisterErrors(t *testing.T) {
	d := NewDevice()
	if err := d.RegisterCompletionHandler(maxHandlers, func() {}); err == nil {
		t.Fatal("expected an out of range error")
	}
	if err := d.RegisterCompletionHandler(0, func() {}); err != nil {
		t.Fatal(err)
	}
	if err := d.RegisterCompletionHandler(0, func() {}); err == nil {
		t.Fatal("expected a duplicate handler error")
	}
	if _, err := d.ConfigureOutput(44100, pcm.Format(9)); err == nil {
		t.Fatal("expected a format error")
	}
}

// SetOutputVolume is called without the critical section,
// while a consumer keeps draining the device.
func TestOutputVolumeWhileReading(t *testing.T) {
	d := NewDevice()
	if _, err := d.ConfigureOutput(8000, pcm.S16); err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, 64)
	err := d.RegisterCompletionHandler(0, func() {
		clear(buf)
		d.CommitBuffer(buf)
	})
	if err != nil {
		t.Fatal(err)
	}
	d.EnterCriticalSection()
	d.CommitBuffer(buf)
	d.LeaveCriticalSection()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		p := make([]byte, 256)
		for i := 0; i < 100; i++ {
			d.Read(p)
		}
	}()
	for level := 0; level <= MaxOutputLevel; level++ {
		d.SetOutputVolume(level)
	}
	wg.Wait()

	if have := d.level.Load(); have != MaxOutputLevel {
		t.Fatalf("have level %d, want %d", have, MaxOutputLevel)
	}
}
