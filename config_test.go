package ptplay

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/quasilyte/ptplay/pcm"
)

func TestDecodeConfig(t *testing.T) {
	config, err := DecodeConfig(`
sample_rate = 22050
format = "s8"
mixer = "fast"
volume_shift = 1
clock = "ntsc"
fx_channels = 8
`)
	if err != nil {
		t.Fatal(err)
	}
	want := EngineConfig{
		SampleRate:  22050,
		Format:      pcm.S8,
		Mixer:       MixerFast,
		VolumeShift: 1,
		Clock:       ClockNTSC,
		FXChannels:  8,
	}
	if diff := cmp.Diff(want, config); diff != "" {
		t.Fatalf("config mismatch (-want +have):\n%s", diff)
	}
}

func TestDecodeConfigErrors(t *testing.T) {
	tests := []struct {
		data string
		want string
	}{
		{`sample_rat = 1`, "unknown config keys: sample_rat"},
		{`mixer = "turbo"`, "unknown mixer"},
		{`clock = "secam"`, "unknown clock"},
		{`format = "f32"`, "f32"},
	}
	for _, test := range tests {
		_, err := DecodeConfig(test.data)
		if err == nil || !strings.Contains(err.Error(), test.want) {
			t.Errorf("DecodeConfig(%q): have %v, want %q", test.data, err, test.want)
		}
	}
}

func TestConfigFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ptplay.toml")
	config := EngineConfig{
		SampleRate: 48000,
		Mixer:      MixerFast,
		TickRate:   60,
		FXChannels: 2,
	}
	if err := SaveConfigFile(path, config); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadConfigFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(config, loaded); diff != "" {
		t.Fatalf("config mismatch (-want +have):\n%s", diff)
	}
}

func TestConfigDefaults(t *testing.T) {
	var config EngineConfig
	config.applyDefaults()
	want := EngineConfig{
		SampleRate: 44100,
		TickRate:   defaultTickRate,
		FXChannels: defaultFXChannels,
	}
	if diff := cmp.Diff(want, config); diff != "" {
		t.Fatalf("defaults mismatch (-want +have):\n%s", diff)
	}
	if err := config.validate(); err != nil {
		t.Fatal(err)
	}
}

func TestClockConstant(t *testing.T) {
	if ClockPAL.Constant() != 3546895 || ClockNTSC.Constant() != 3579545 {
		t.Fatal("wrong clock constants")
	}
}
