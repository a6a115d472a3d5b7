package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/quasilyte/ptplay"
	"github.com/quasilyte/ptplay/hal/pull"
)

/*
periods of the C-2 octave (finetune 0)
C  = 428
C# = 404
D  = 381
D# = 360
E  = 339
F  = 320
F# = 302
G  = 285
G# = 269
A  = 254
A# = 240
B  = 226
*/

// This simple CLI tool plays the specified MOD track using Ebitengine audio player.
// Keys 1-4 play the first module instruments on the FX channels.

func main() {
	flag.Usage = func() {
		fmt.Printf("usage: go run ./cmd/ebitengine-example path/to/music.mod\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if len(flag.Args()) < 1 {
		panic("expected at least 1 command-line argument")
	}
	filename := flag.Args()[0]

	data, err := os.ReadFile(filename)
	if err != nil {
		panic(fmt.Errorf("read MOD file: %v", err))
	}

	// The pull device turns the engine into an io.Reader:
	// the Ebitengine player drains it and the engine refills it.
	sampleRate := 44100
	dev := pull.NewDevice()
	engine, err := ptplay.NewEngine(dev, ptplay.EngineConfig{
		SampleRate:  sampleRate,
		Mixer:       ptplay.MixerFast,
		VolumeShift: 1,
	})
	if err != nil {
		panic(err)
	}
	if err := engine.LoadModule(data); err != nil {
		panic(fmt.Sprintf("loading MOD module: %v", err))
	}
	engine.Disable()

	// Create a sound player using the Ebitengine audio context.
	// You can have multiple players, but only one audio context.
	// See Ebitengine docs to learn more.
	audioContext := audio.NewContext(sampleRate)
	player, err := audioContext.NewPlayer(dev)
	if err != nil {
		panic(err)
	}
	player.Play()

	g := &game{
		engine:   engine,
		player:   player,
		filename: filename,
	}
	if err := ebiten.RunGame(g); err != nil {
		panic(err)
	}
}

type game struct {
	engine *ptplay.Engine
	player *audio.Player

	filename string
	fxIndex  int
}

var instrumentKeys = []ebiten.Key{ebiten.Key1, ebiten.Key2, ebiten.Key3, ebiten.Key4}

func (g *game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		if g.engine.Enabled() {
			g.engine.Disable()
		} else {
			g.engine.Enable()
		}
	}

	for i, k := range instrumentKeys {
		if !inpututil.IsKeyJustPressed(k) {
			continue
		}
		// Round-robin the FX channels so the notes can overlap.
		err := g.engine.PlayNote(ptplay.FXRequest{
			Channel:    g.fxIndex,
			Instrument: i,
			Volume:     255,
			Period:     339,
		})
		if err != nil {
			return err
		}
		g.fxIndex = (g.fxIndex + 1) % g.engine.Info().FXChannels
	}

	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	if !g.engine.Enabled() {
		ebitenutil.DebugPrint(screen, "Paused... press SPACE\nPress 1-4 to play instruments")
		return
	}
	pos, row := g.engine.Position()
	info := g.engine.Info()
	ebitenutil.DebugPrint(screen, fmt.Sprintf("Playing %s (%s)...\nposition %03d/%03d row %02d\nspeed %d bpm %d",
		g.filename, info.ModuleName, pos, info.SongLength, row, info.Speed, info.BPM))
}

func (g *game) Layout(_, _ int) (int, int) {
	return 640, 480
}
