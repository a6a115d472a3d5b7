package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/quasilyte/ptplay"
	"github.com/quasilyte/ptplay/internal/log"
	"github.com/quasilyte/ptplay/pcm"
)

const version = "0.3.0"

type (
	CLI struct {
		Play    Play    `cmd:"" help:"Play a module through the audio device. (default command)" default:"withargs"`
		Info    Info    `cmd:"" help:"Show module infos."`
		Render  Render  `cmd:"" help:"Render a module into raw PCM."`
		Version Version `cmd:"" help:"Show ptplay version."`

		Log    logModMask `help:"${log_help}" placeholder:"mod0,mod1,..."`
		Config string     `help:"${config_help}" type:"existingfile" placeholder:"FILE"`
	}

	// Output overrides the config file settings; zero values keep them.
	Output struct {
		Rate   int    `name:"rate" help:"Output sample rate."`
		Format string `name:"format" help:"Output PCM format (s16 or s8)."`
		Mixer  string `name:"mixer" help:"Mixer implementation (reference or fast)."`
		Boost  int    `name:"boost" help:"Volume shift applied before clipping (0-2)." default:"-1"`
	}

	Play struct {
		Output `embed:""`

		Path    string `arg:"" name:"/path/to/mod" type:"existingfile"`
		Backend string `name:"backend" help:"${backend_help}" enum:"oto,portaudio" default:"oto"`
		Loop    bool   `name:"loop" help:"Keep playing after the song end."`
		Volume  int    `name:"volume" help:"Master volume (0-31)." default:"31"`
	}

	Info struct {
		Paths []string `arg:"" name:"/path/to/mod" type:"existingfile"`
		JSON  bool     `name:"json" help:"Print infos as JSON."`
	}

	Render struct {
		Output `embed:""`

		Path    string  `arg:"" name:"/path/to/mod" type:"existingfile"`
		Out     outfile `name:"out" short:"o" help:"Write PCM into this file." placeholder:"FILE|stdout" default:"stdout"`
		Seconds float64 `name:"seconds" help:"Stop after this many seconds; 0 stops at the song end."`
	}

	Version struct{}
)

var vars = kong.Vars{
	"log_help":     "Enable debug logging for specified modules.",
	"config_help":  "Load the engine config from a TOML file.",
	"backend_help": "Audio backend. portaudio requires a binary built with the portaudio tag.",
}

func parseArgs(args []string) (*kong.Context, *CLI, error) {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("ptplay"),
		kong.Description("ProTracker module player."),
		kong.UsageOnError(),
		kong.Help(printHelp),
		vars)
	if err != nil {
		return nil, nil, err
	}
	ctx, err := parser.Parse(args)
	if err != nil {
		return nil, nil, err
	}
	return ctx, &cli, nil
}

func printHelp(options kong.HelpOptions, ctx *kong.Context) error {
	if err := kong.DefaultHelpPrinter(options, ctx); err != nil {
		return err
	}
	loggingHelp := `
Log modules:
  The --log flag accepts a comma-separated list of modules.

  Valid log modules are:
%s

  As a special case, the following values are accepted:
    - no                     Only print warnings and errors.
    - all                    Enable all logs.
`
	var strs []string
	for _, m := range log.ModuleNames() {
		strs = append(strs, "    - "+m)
	}
	fmt.Fprintf(ctx.Stdout, loggingHelp, strings.Join(strs, "\n"))
	return nil
}

// engineConfig loads the --config file and applies the command line overrides.
func (cli *CLI) engineConfig(o Output) (ptplay.EngineConfig, error) {
	var config ptplay.EngineConfig
	if cli.Config != "" {
		var err error
		config, err = ptplay.LoadConfigFile(cli.Config)
		if err != nil {
			return config, err
		}
	}
	if o.Rate != 0 {
		config.SampleRate = o.Rate
	}
	if o.Format != "" {
		var f pcm.Format
		if err := f.UnmarshalText([]byte(o.Format)); err != nil {
			return config, err
		}
		config.Format = f
	}
	if o.Mixer != "" {
		var k ptplay.MixerKind
		if err := k.UnmarshalText([]byte(o.Mixer)); err != nil {
			return config, err
		}
		config.Mixer = k
	}
	if o.Boost >= 0 {
		config.VolumeShift = o.Boost
	}
	return config, nil
}

type logModMask log.ModuleMask

// Decode decodes a comma-separated list of module names into a module mask.
//
// Implements kong.MapperValue interface.
func (lm logModMask) Decode(ctx *kong.DecodeContext) error {
	nolog := false
	allLogs := false

	tok := ctx.Scan.Pop()
	for _, v := range strings.Split(tok.Value.(string), ",") {
		switch v {
		case "all":
			allLogs = true
		case "no":
			nolog = true
		default:
			mod, ok := log.ModuleByName(v)
			if !ok {
				return fmt.Errorf("unknown log module %s", v)
			}
			lm |= logModMask(mod.Mask())
		}
	}

	if nolog {
		if allLogs {
			return fmt.Errorf("cannot use 'all' and 'no' together")
		}
		if lm != 0 {
			return fmt.Errorf("cannot combine 'no' with other log modules")
		}
		log.DisableDebugModules(log.ModuleMaskAll)
		return nil
	}

	if allLogs {
		lm = logModMask(log.ModuleMaskAll)
	}

	log.EnableDebugModules(log.ModuleMask(lm))
	return nil
}

type outfile struct {
	w     io.Writer
	name  string
	close func() error
}

// Decode decodes FILE|stdout into a writer.
//
// Implements kong.MapperValue interface.
func (f *outfile) Decode(ctx *kong.DecodeContext) error {
	tok := ctx.Scan.Pop()
	f.name = tok.Value.(string)
	f.close = func() error { return nil }

	switch f.name {
	case "stdout", "-":
		f.w = os.Stdout
	default:
		fd, err := os.Create(f.name)
		if err != nil {
			return err
		}
		f.w = fd
		f.close = fd.Close
	}
	return nil
}

func (f *outfile) String() string              { return f.name }
func (f *outfile) Write(p []byte) (int, error) { return f.w.Write(p) }
func (f *outfile) Close() error                { return f.close() }

func checkf(err error, format string, args ...any) {
	if err == nil {
		return
	}
	fatalf(format+".\n"+err.Error(), args...)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "fatal error:")
	fmt.Fprintf(os.Stderr, "\n\t%s\n", fmt.Sprintf(format, args...))
	os.Exit(1)
}
