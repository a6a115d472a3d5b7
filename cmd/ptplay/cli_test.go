package main

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-faster/jx"
	"github.com/google/go-cmp/cmp"

	"github.com/quasilyte/ptplay"
	"github.com/quasilyte/ptplay/hal/pull"
	"github.com/quasilyte/ptplay/internal/modtest"
)

func testModule(t *testing.T) (string, []byte) {
	t.Helper()
	b := modtest.NewBuilder("M.K.", 4)
	b.Name = "cli test"
	b.Instruments = []modtest.Instrument{
		// The parser zeroes the first 4 bytes of every sample.
		{Name: "square", Data: []int8{0, 0, 0, 0, 64, 64, -64, -64}, Volume: 64, LoopStart: 4, LoopLength: 4},
	}
	b.SetCell(0, 0, 0, modtest.Cell{Period: 428, Sample: 1})
	b.SetCell(0, 1, 1, modtest.Cell{Effect: 0xB, Param: 0x00})
	data := b.Bytes()

	path := filepath.Join(t.TempDir(), "test.mod")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path, data
}

func TestParseArgs(t *testing.T) {
	path, _ := testModule(t)

	tests := []struct {
		args []string
		want string
	}{
		{[]string{path}, "play"},
		{[]string{"play", "--loop", path}, "play"},
		{[]string{"info", "--json", path, path}, "info"},
		{[]string{"render", "--seconds", "1", path}, "render"},
		{[]string{"version"}, "version"},
	}
	for _, test := range tests {
		ctx, _, err := parseArgs(test.args)
		if err != nil {
			t.Errorf("parseArgs(%q): %v", test.args, err)
			continue
		}
		if cmd, _, _ := strings.Cut(ctx.Command(), " "); cmd != test.want {
			t.Errorf("parseArgs(%q): have %q command, want %q", test.args, cmd, test.want)
		}
	}

	if _, _, err := parseArgs([]string{"--log", "nosuchmod", "version"}); err == nil {
		t.Errorf("expected an error for unknown log module")
	}
}

func TestEngineConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ptplay.toml")
	err := ptplay.SaveConfigFile(path, ptplay.EngineConfig{
		SampleRate:  48000,
		VolumeShift: 2,
		FXChannels:  8,
	})
	if err != nil {
		t.Fatal(err)
	}

	cli := &CLI{Config: path}
	config, err := cli.engineConfig(Output{Rate: 22050, Mixer: "fast", Boost: -1})
	if err != nil {
		t.Fatal(err)
	}
	want := ptplay.EngineConfig{
		SampleRate:  22050,
		Mixer:       ptplay.MixerFast,
		VolumeShift: 2,
		FXChannels:  8,
	}
	if diff := cmp.Diff(want, config); diff != "" {
		t.Fatalf("config mismatch (-want +have):\n%s", diff)
	}

	if _, err := cli.engineConfig(Output{Format: "u8", Boost: -1}); err == nil {
		t.Fatalf("expected an error for unknown format")
	}
}

func renderTest(t *testing.T, data []byte, seconds float64) (int, []byte) {
	t.Helper()

	dev := pull.NewDevice()
	e, err := ptplay.NewEngine(dev, ptplay.EngineConfig{SampleRate: 8000})
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	var out bytes.Buffer
	w := bufio.NewWriter(&out)
	n, err := render(w, dev, e, data, seconds)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}
	return n, out.Bytes()
}

func TestRenderSeconds(t *testing.T) {
	_, data := testModule(t)
	n, pcm := renderTest(t, data, 0.25)
	// 2000 stereo S16 frames.
	if n != 8000 || len(pcm) != 8000 {
		t.Fatalf("have %d/%d bytes, want 8000", n, len(pcm))
	}
}

func TestRenderUntilSongEnd(t *testing.T) {
	_, data := testModule(t)
	n, pcm := renderTest(t, data, 0)

	// The song ends at the 7th tick, while the second
	// 2504-byte chunk is being read.
	if n != 2*2504 || len(pcm) != n {
		t.Fatalf("have %d/%d bytes, want %d", n, len(pcm), 2*2504)
	}
	// The first tick buffer is the silence committed on start.
	if !bytes.Equal(pcm[:640], make([]byte, 640)) {
		t.Fatalf("expected a silent first tick")
	}
	if bytes.Equal(pcm[640:1280], make([]byte, 640)) {
		t.Fatalf("expected the note in the second tick")
	}
}

func TestInfo(t *testing.T) {
	path, _ := testModule(t)

	var text bytes.Buffer
	if err := runInfo(&text, &Info{Paths: []string{path}}); err != nil {
		t.Fatal(err)
	}
	for _, s := range []string{`"cli test"`, "M.K., 4 channels", `01 "square"`, "loop 4+4"} {
		if !strings.Contains(text.String(), s) {
			t.Errorf("info output has no %q:\n%s", s, text.String())
		}
	}

	var js bytes.Buffer
	if err := runInfo(&js, &Info{Paths: []string{path, path}, JSON: true}); err != nil {
		t.Fatal(err)
	}
	var names []string
	err := jx.DecodeBytes(js.Bytes()).Arr(func(d *jx.Decoder) error {
		return d.Obj(func(d *jx.Decoder, key string) error {
			if key != "name" {
				return d.Skip()
			}
			s, err := d.Str()
			names = append(names, s)
			return err
		})
	})
	if err != nil {
		t.Fatalf("decode %s: %v", js.String(), err)
	}
	if diff := cmp.Diff([]string{"cli test", "cli test"}, names); diff != "" {
		t.Fatalf("names mismatch (-want +have):\n%s", diff)
	}
}

func TestInfoParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.mod")
	if err := os.WriteFile(path, []byte("short"), 0o644); err != nil {
		t.Fatal(err)
	}
	err := runInfo(&bytes.Buffer{}, &Info{Paths: []string{path}})
	if err == nil || !strings.Contains(err.Error(), "bad.mod") {
		t.Fatalf("have %v, want a parse error naming the file", err)
	}
}
