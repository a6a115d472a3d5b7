package main

import (
	"bufio"
	"os"

	"github.com/quasilyte/ptplay"
	"github.com/quasilyte/ptplay/hal/pull"
	"github.com/quasilyte/ptplay/internal/log"
)

func runRender(cli *CLI, cmd *Render) error {
	defer cmd.Out.Close()

	config, err := cli.engineConfig(cmd.Output)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(cmd.Path)
	if err != nil {
		return err
	}

	dev := pull.NewDevice()
	defer dev.Close()

	e, err := ptplay.NewEngine(dev, config)
	if err != nil {
		return err
	}
	defer e.Close()

	w := bufio.NewWriter(&cmd.Out)
	n, err := render(w, dev, e, data, cmd.Seconds)
	if err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}

	info := e.Info()
	log.ModCLI.WithFields(log.Fields{
		"bytes":  n,
		"rate":   info.SampleRate,
		"format": info.Format,
	}).Info("render finished")
	return nil
}

// render plays the module into w until the song ends.
// A positive seconds value limits the output length instead.
//
// The device is drained by this goroutine, so the event handler
// runs here as well.
func render(w *bufio.Writer, dev *pull.Device, e *ptplay.Engine, data []byte, seconds float64) (int, error) {
	ended := false
	e.SetEventHandler(func(ev ptplay.StreamEvent) {
		if ev.Kind == ptplay.EventSongEnd {
			ended = true
		}
	})
	defer e.SetEventHandler(nil)

	if err := e.LoadModule(data); err != nil {
		return 0, err
	}

	info := e.Info()
	limit := -1
	if seconds > 0 {
		limit = int(seconds*float64(info.SampleRate)) * info.Format.FrameSize()
	}

	buf := make([]byte, info.MaxBufferBytes)
	written := 0
	for !ended || limit >= 0 {
		if limit >= 0 && written >= limit {
			break
		}
		chunk := buf
		if limit >= 0 {
			chunk = buf[:min(len(buf), limit-written)]
		}
		n, err := dev.Read(chunk)
		if err != nil {
			return written, err
		}
		if _, err := w.Write(chunk[:n]); err != nil {
			return written, err
		}
		written += n
	}
	return written, nil
}
