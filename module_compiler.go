package ptplay

import (
	"fmt"

	"github.com/quasilyte/ptplay/internal/ptdb"
	"github.com/quasilyte/ptplay/modfile"
)

type moduleCompiler struct {
	result module
}

func compileModule(m *modfile.Module) (*module, error) {
	c := &moduleCompiler{}
	if err := c.compile(m); err != nil {
		return nil, err
	}
	return &c.result, nil
}

func (c *moduleCompiler) compile(m *modfile.Module) error {
	if m.NumChannels <= 0 || m.NumChannels > MaxModuleChannels {
		return fmt.Errorf("%w: %d", modfile.ErrUnsupportedChannels, m.NumChannels)
	}
	if m.SongLength <= 0 || m.SongLength > len(m.PatternOrder) {
		return fmt.Errorf("invalid song length %d", m.SongLength)
	}

	c.result.name = m.Name
	c.result.numChannels = m.NumChannels
	c.result.patternSize = m.PatternSize()
	c.result.songLength = m.SongLength
	copy(c.result.order[:], m.PatternOrder)

	if err := c.compileInstruments(m); err != nil {
		return err
	}

	return c.compilePatterns(m)
}

func (c *moduleCompiler) compileInstruments(m *modfile.Module) error {
	if len(m.Instruments) > len(c.result.instruments) {
		return fmt.Errorf("too many instruments: %d", len(m.Instruments))
	}
	for i := range m.Instruments {
		src := &m.Instruments[i]
		dst := &c.result.instruments[i]
		dst.id = i
		if src.Length > len(src.Data) {
			return fmt.Errorf("instrument[%d]: length %d exceeds the sample data size %d", i, src.Length, len(src.Data))
		}
		dst.sample = src.Data
		dst.length = src.Length
		dst.loopStart = clamp(src.LoopStart, 0, src.Length)
		dst.looped = src.Looped && src.Length > 0
		dst.volume = clampMax(int(src.Volume), maxVolume)
		dst.finetune = src.FinetuneIndex()
	}
	for i := len(m.Instruments); i < len(c.result.instruments); i++ {
		c.result.instruments[i].id = i
	}
	return nil
}

func (c *moduleCompiler) compilePatterns(m *modfile.Module) error {
	usedPatterns := 0
	for _, p := range m.PatternOrder {
		usedPatterns = max(usedPatterns, int(p)+1)
	}
	if len(m.Cells) < usedPatterns*c.result.patternSize {
		return fmt.Errorf("pattern order references %d patterns, only %d are stored",
			usedPatterns, len(m.Cells)/c.result.patternSize)
	}

	c.result.notes = make([]patternNote, len(m.Cells))
	for i, cell := range m.Cells {
		inst := cell.Sample
		if int(inst) > len(c.result.instruments) {
			inst = 0
		}
		c.result.notes[i] = patternNote{
			period: int(cell.Period),
			inst:   inst,
			param:  cell.Param,
			effect: ptdb.ConvertEffect(cell.Effect, cell.Param),
		}
	}
	return nil
}
