package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"golang.org/x/term"

	"github.com/quasilyte/ptplay"
	"github.com/quasilyte/ptplay/hal/otohal"
	"github.com/quasilyte/ptplay/internal/log"
)

// backend is an audio device that drives the engine.
type backend interface {
	ptplay.Platform
	Play()
	Close() error
}

func newBackend(name string) (backend, error) {
	if name == "portaudio" {
		return newPortAudio()
	}
	return otohal.New(), nil
}

// notePeriod is C-2, the pitch used for the instrument preview keys.
const notePeriod = 428

func runPlay(cli *CLI, cmd *Play) error {
	config, err := cli.engineConfig(cmd.Output)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(cmd.Path)
	if err != nil {
		return err
	}

	out, err := newBackend(cmd.Backend)
	if err != nil {
		return err
	}
	defer out.Close()

	e, err := ptplay.NewEngine(out, config)
	if err != nil {
		return err
	}
	defer e.Close()

	// The handler runs in the completion context, it must not block
	// or call back into the engine.
	events := make(chan ptplay.StreamEvent, 64)
	e.SetEventHandler(func(ev ptplay.StreamEvent) {
		if ev.Kind == ptplay.EventTick {
			if _, tick := ev.TickEventData(); tick != 0 {
				return
			}
		}
		select {
		case events <- ev:
		default:
		}
	})

	volume := cmd.Volume
	fx := 0
	e.SetMasterVolume(volume)
	if err := e.LoadModule(data); err != nil {
		return err
	}
	info := e.Info()
	fmt.Fprintf(os.Stderr, "%s: %q, %d channels, %d positions, %d Hz %s\r\n",
		cmd.Path, info.ModuleName, info.Channels, info.SongLength, info.SampleRate, info.Format)
	out.Play()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	keys := make(chan byte, 16)
	if fd := int(os.Stdin.Fd()); term.IsTerminal(fd) {
		state, err := term.MakeRaw(fd)
		if err != nil {
			return fmt.Errorf("set raw mode: %w", err)
		}
		defer term.Restore(fd, state)
		go readKeys(os.Stdin, keys)
		fmt.Fprintf(os.Stderr, "space: pause, 1-4: preview instrument, +/-: volume, q: quit\r\n")
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev := <-events:
			switch ev.Kind {
			case ptplay.EventSongEnd:
				if !cmd.Loop {
					fmt.Fprint(os.Stderr, "\r\n")
					return nil
				}
			case ptplay.EventTick:
				row, _ := ev.TickEventData()
				fmt.Fprintf(os.Stderr, "\rposition %03d row %02d volume %02d", ev.Position, row, volume)
			}

		case k := <-keys:
			switch k {
			case 'q', 3: // Ctrl+C doesn't raise a signal in raw mode
				fmt.Fprint(os.Stderr, "\r\n")
				return nil
			case ' ':
				if e.Enabled() {
					e.Disable()
				} else {
					e.Enable()
				}
			case '+', '=':
				volume = min(volume+1, 31)
				e.SetMasterVolume(volume)
			case '-':
				volume = max(volume-1, 0)
				e.SetMasterVolume(volume)
			case '1', '2', '3', '4':
				err := e.PlayNote(ptplay.FXRequest{
					Channel:    fx,
					Instrument: int(k - '1'),
					Volume:     255,
					Period:     notePeriod,
				})
				if err != nil {
					log.ModCLI.WithError(err).Warn("note preview failed")
				}
				fx = (fx + 1) % info.FXChannels
			}
		}
	}
}

func readKeys(r io.Reader, keys chan<- byte) {
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if err != nil {
			return
		}
		if n == 1 {
			keys <- buf[0]
		}
	}
}
