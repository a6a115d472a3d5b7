package otohal

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestToUnsigned(t *testing.T) {
	b := []byte{0x00, 0x7f, 0x80, 0xff}
	toUnsigned(b)
	want := []byte{0x80, 0xff, 0x00, 0x7f}
	if diff := cmp.Diff(want, b); diff != "" {
		t.Fatalf("conversion mismatch (-want +have):\n%s", diff)
	}
}
