package main

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/go-faster/jx"
	"golang.org/x/sync/errgroup"

	"github.com/quasilyte/ptplay"
	"github.com/quasilyte/ptplay/modfile"
)

func runInfo(w io.Writer, cmd *Info) error {
	modules, err := parseModules(cmd.Paths)
	if err != nil {
		return err
	}
	if cmd.JSON {
		_, err := w.Write(encodeInfos(cmd.Paths, modules))
		return err
	}
	for i, m := range modules {
		printInfo(w, cmd.Paths[i], m)
	}
	return nil
}

// parseModules parses the files concurrently.
// The result order matches the paths order.
func parseModules(paths []string) ([]*modfile.Module, error) {
	modules := make([]*modfile.Module, len(paths))

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i, path := range paths {
		i, path := i, path // per-iteration copies; go directive is 1.21
		g.Go(func() error {
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			p := modfile.NewParser(modfile.ParserConfig{
				NeedStrings: true,
				MaxChannels: ptplay.MaxModuleChannels,
			})
			m, err := p.ParseFromBytes(data)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			modules[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return modules, nil
}

func printInfo(w io.Writer, path string, m *modfile.Module) {
	sig := m.Signature
	if sig == "" {
		sig = "(15 instruments)"
	}
	fmt.Fprintf(w, "%s\n", path)
	fmt.Fprintf(w, "  name:      %q\n", m.Name)
	fmt.Fprintf(w, "  format:    %s, %d channels\n", sig, m.NumChannels)
	fmt.Fprintf(w, "  song:      %d positions, %d patterns\n", m.SongLength, m.NumPatterns)
	fmt.Fprintf(w, "  instruments:\n")
	for i := range m.Instruments {
		inst := &m.Instruments[i]
		if inst.SampleLength == 0 && inst.Name == "" {
			continue
		}
		loop := ""
		if inst.Looped {
			loop = fmt.Sprintf(" loop %d+%d", inst.LoopStart, inst.LoopLength)
		}
		fmt.Fprintf(w, "    %02d %-22q len %6d vol %2d ft %+d%s\n",
			i+1, inst.Name, inst.SampleLength, inst.Volume, inst.Finetune, loop)
	}
}

func encodeInfos(paths []string, modules []*modfile.Module) []byte {
	var e jx.Encoder
	e.SetIdent(2)
	e.ArrStart()
	for i, m := range modules {
		e.ObjStart()
		e.FieldStart("path")
		e.Str(paths[i])
		e.FieldStart("name")
		e.Str(m.Name)
		e.FieldStart("signature")
		e.Str(m.Signature)
		e.FieldStart("channels")
		e.Int(m.NumChannels)
		e.FieldStart("patterns")
		e.Int(m.NumPatterns)
		e.FieldStart("song_length")
		e.Int(m.SongLength)
		e.FieldStart("order")
		e.ArrStart()
		for _, p := range m.PatternOrder[:m.SongLength] {
			e.Int(int(p))
		}
		e.ArrEnd()
		e.FieldStart("instruments")
		e.ArrStart()
		for j := range m.Instruments {
			encodeInstrument(&e, &m.Instruments[j])
		}
		e.ArrEnd()
		e.ObjEnd()
	}
	e.ArrEnd()
	return append(e.Bytes(), '\n')
}

func encodeInstrument(e *jx.Encoder, inst *modfile.Instrument) {
	e.ObjStart()
	e.FieldStart("name")
	e.Str(inst.Name)
	e.FieldStart("length")
	e.Int(inst.SampleLength)
	e.FieldStart("volume")
	e.Int(int(inst.Volume))
	e.FieldStart("finetune")
	e.Int(int(inst.Finetune))
	e.FieldStart("looped")
	e.Bool(inst.Looped)
	if inst.Looped {
		e.FieldStart("loop_start")
		e.Int(inst.LoopStart)
		e.FieldStart("loop_length")
		e.Int(inst.LoopLength)
	}
	e.ObjEnd()
}
