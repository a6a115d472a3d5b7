package ptplay

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/quasilyte/ptplay/pcm"
)

// EngineConfig configures the engine output and mixing.
//
// These settings can't be changed after the engine is created.
// A zero value config is valid: every zero field is replaced with its default.
//
// The config can be loaded from a TOML document, see LoadConfigFile.
type EngineConfig struct {
	// SampleRate is the requested output rate.
	// The platform may adjust it; the real rate is reported by Engine.Info.
	//
	// A zero value means 44100.
	SampleRate int `toml:"sample_rate"`

	// Format selects the PCM encoding of the output buffers.
	// A zero value means pcm.S16.
	Format pcm.Format `toml:"format"`

	// Mixer selects the mixing implementation.
	// Both mixers produce bit-identical results.
	// A zero value means MixerReference.
	Mixer MixerKind `toml:"mixer"`

	// VolumeShift amplifies every channel by 2^VolumeShift before clipping.
	// Modules with few channels may sound quiet without it.
	//
	// Allowed values are 0, 1 and 2.
	VolumeShift int `toml:"volume_shift"`

	// TickRate is the number of player ticks per second at 125 BPM.
	// A zero value means 50 (a PAL vertical blank).
	TickRate int `toml:"tick_rate"`

	// Clock is the Amiga clock used to convert periods into sample steps.
	// A zero value means ClockPAL.
	Clock Clock `toml:"clock"`

	// FXChannels is a number of sound effect channels available for
	// PlayNote and PlayFX calls. They are mixed on top of the module channels.
	//
	// A zero value means 4; the max value is MaxFXChannels.
	FXChannels int `toml:"fx_channels"`
}

func (config *EngineConfig) applyDefaults() {
	if config.SampleRate == 0 {
		config.SampleRate = 44100
	}
	if config.TickRate == 0 {
		config.TickRate = defaultTickRate
	}
	if config.FXChannels == 0 {
		config.FXChannels = defaultFXChannels
	}
}

func (config *EngineConfig) validate() error {
	switch {
	case config.SampleRate < config.TickRate:
		return fmt.Errorf("sample rate %d is too low", config.SampleRate)
	case config.TickRate < 0:
		return fmt.Errorf("invalid tick rate %d", config.TickRate)
	case config.VolumeShift < 0 || config.VolumeShift > 2:
		return fmt.Errorf("volume shift %d is out of [0, 2] range", config.VolumeShift)
	case config.FXChannels < 0 || config.FXChannels > MaxFXChannels:
		return fmt.Errorf("fx channel count %d is out of [0, %d] range", config.FXChannels, MaxFXChannels)
	}
	return nil
}

// DecodeConfig parses a TOML document into a config.
// Unknown keys are reported as errors.
func DecodeConfig(data string) (EngineConfig, error) {
	var config EngineConfig
	md, err := toml.Decode(data, &config)
	if err != nil {
		return config, err
	}
	if err := checkUndecoded(md); err != nil {
		return config, err
	}
	return config, nil
}

// LoadConfigFile reads a TOML config from the file system.
func LoadConfigFile(path string) (EngineConfig, error) {
	var config EngineConfig
	md, err := toml.DecodeFile(path, &config)
	if err != nil {
		return config, fmt.Errorf("load config: %w", err)
	}
	if err := checkUndecoded(md); err != nil {
		return config, fmt.Errorf("load config %s: %w", path, err)
	}
	return config, nil
}

// SaveConfigFile writes the config as a TOML document.
func SaveConfigFile(path string, config EngineConfig) error {
	data, err := toml.Marshal(config)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func checkUndecoded(md toml.MetaData) error {
	undecoded := md.Undecoded()
	if len(undecoded) == 0 {
		return nil
	}
	keys := make([]string, len(undecoded))
	for i, k := range undecoded {
		keys[i] = k.String()
	}
	return fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
}

// Clock selects the Amiga master clock.
type Clock uint8

const (
	ClockPAL Clock = iota
	ClockNTSC
)

// Constant returns the clock constant used for period math.
func (c Clock) Constant() int {
	if c == ClockNTSC {
		return ntscClock
	}
	return palClock
}

func (c Clock) String() string {
	if c == ClockNTSC {
		return "ntsc"
	}
	return "pal"
}

func (c Clock) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Clock) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "pal", "":
		*c = ClockPAL
	case "ntsc":
		*c = ClockNTSC
	default:
		return fmt.Errorf("unknown clock %q", text)
	}
	return nil
}

// MixerKind selects the mixer implementation.
type MixerKind uint8

const (
	// MixerReference is a straightforward per-sample mixer.
	MixerReference MixerKind = iota

	// MixerFast mixes runs between loop boundaries without per-sample checks.
	MixerFast
)

func (k MixerKind) String() string {
	if k == MixerFast {
		return "fast"
	}
	return "reference"
}

func (k MixerKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *MixerKind) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "reference", "":
		*k = MixerReference
	case "fast":
		*k = MixerFast
	default:
		return fmt.Errorf("unknown mixer %q", text)
	}
	return nil
}
