package simhal

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDeferredInterrupts(t *testing.T) {
	p := New(Config{})
	calls := 0
	if err := p.RegisterCompletionHandler(0, func() { calls++ }); err != nil {
		t.Fatal(err)
	}

	p.EnterCriticalSection()
	p.EnterCriticalSection()
	p.Interrupt()
	p.Interrupt()
	p.LeaveCriticalSection()
	if calls != 0 {
		t.Fatalf("interrupt delivered inside a critical section")
	}
	p.LeaveCriticalSection()
	if calls != 2 {
		t.Fatalf("have %d calls, want 2", calls)
	}

	p.Run(3)
	if calls != 5 {
		t.Fatalf("have %d calls, want 5", calls)
	}

	p.UnregisterCompletionHandler(0)
	p.Interrupt()
	if calls != 5 {
		t.Fatalf("unregistered handler was called")
	}
}

func TestCommits(t *testing.T) {
	p := New(Config{KeepCommits: true, Rate: 22050})
	rate, err := p.ConfigureOutput(44100, 0)
	if err != nil {
		t.Fatal(err)
	}
	if rate != 22050 {
		t.Fatalf("have rate %d", rate)
	}

	buf := []byte{1, 2, 3}
	p.CommitBuffer(buf)
	buf[0] = 9
	p.CommitBuffer(buf[:1])

	want := [][]byte{{1, 2, 3}, {9}}
	if diff := cmp.Diff(want, p.Commits()); diff != "" {
		t.Fatalf("commits mismatch (-want +have):\n%s", diff)
	}
	if p.NumCommits() != 2 || len(p.Committed()) != 1 {
		t.Fatalf("bad commit state")
	}
}

func TestAllocFailure(t *testing.T) {
	p := New(Config{FailAlloc: true})
	if _, err := p.Allocate(10); err != ErrAllocFailed {
		t.Fatalf("have %v", err)
	}
}
