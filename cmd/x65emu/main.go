package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/FabianRolfMatthiasNoll/X65Emulator/internal/audioout"
	"github.com/FabianRolfMatthiasNoll/X65Emulator/internal/cart"
	"github.com/FabianRolfMatthiasNoll/X65Emulator/internal/emu"
	"github.com/FabianRolfMatthiasNoll/X65Emulator/internal/frame"
	"github.com/FabianRolfMatthiasNoll/X65Emulator/internal/ppu"
	"github.com/FabianRolfMatthiasNoll/X65Emulator/internal/script"
	"github.com/FabianRolfMatthiasNoll/X65Emulator/internal/ui"
)

// Exit codes.
const (
	exitFile  = 1
	exitAudio = 2
	exitVideo = 3
)

type CLIFlags struct {
	ROMPath string
	Scale   int
	Title   string
	Trace   bool
	SaveRAM bool // persist battery RAM next to the cartridge (.sav)
	Config  string

	// machine
	Seed      int64
	WallClock bool
	Cycles    int

	// headless
	Headless bool
	Frames   int
	PNGOut   string
	Expect   string // expected framebuffer CRC32 hex (e.g., "1a2b3c4d")
	WAVOut   string
	Play     bool
	Script   string

	StatsView bool
}

func parseFlags() CLIFlags {
	var f CLIFlags
	flag.IntVar(&f.Scale, "scale", 0, "window scale (0 keeps the saved setting)")
	flag.StringVar(&f.Title, "title", "", "window title")
	flag.BoolVar(&f.Trace, "trace", false, "CPU trace log")
	flag.BoolVar(&f.SaveRAM, "save", true, "persist battery RAM to <cartridge>.sav on exit and load on start")
	flag.StringVar(&f.Config, "config", defaultConfigPath(), "settings file (JSON)")

	flag.Int64Var(&f.Seed, "seed", -1, "power-on fill seed; negative picks one from the clock")
	flag.BoolVar(&f.WallClock, "wallclock", false, "run the CPU for 16ms of host time per frame instead of a fixed budget")
	flag.IntVar(&f.Cycles, "cycles", emu.Defaults().CyclesPerFrame, "CPU bus accesses per frame")

	// headless options
	flag.BoolVar(&f.Headless, "headless", false, "run without a window")
	flag.IntVar(&f.Frames, "frames", 300, "frames to run in headless mode")
	flag.StringVar(&f.PNGOut, "outpng", "", "write last framebuffer to PNG at path")
	flag.StringVar(&f.Expect, "expect", "", "assert framebuffer CRC32 (hex)")
	flag.StringVar(&f.WAVOut, "wav", "", "record audio to a WAV file in headless mode")
	flag.BoolVar(&f.Play, "play", false, "play audio in headless mode (paces frames to 60 Hz)")
	flag.StringVar(&f.Script, "script", "", "Lua automation script for headless mode")

	flag.BoolVar(&f.StatsView, "statsview", false, "serve runtime stats on "+statsAddr)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <cartridge.x65>\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()
	f.ROMPath = flag.Arg(0)
	return f
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "x65emu.json"
	}
	return filepath.Join(dir, "x65emu", "settings.json")
}

// exitError carries the process exit code for a failure.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func fail(code int, err error) error { return &exitError{code, err} }

func runHeadless(m *emu.Machine, f CLIFlags) error {
	frames := f.Frames
	if frames <= 0 {
		frames = 1
	}
	if f.WAVOut != "" && f.Play {
		return fail(exitAudio, errors.New("-wav and -play both consume the audio stream; pick one"))
	}

	var rec *audioout.WAVRecorder
	if f.WAVOut != "" {
		r, err := audioout.NewWAVRecorder(f.WAVOut, m.SampleRate())
		if err != nil {
			return fail(exitAudio, err)
		}
		rec = r
	}
	var pace <-chan time.Time
	if f.Play {
		p, err := audioout.NewOtoPlayer(m.SampleRate())
		if err != nil {
			return fail(exitAudio, fmt.Errorf("audio: %w", err))
		}
		p.SetupPlayer(m)
		p.Start()
		m.AddAudioOutput(p)
		t := time.NewTicker(time.Second / 60)
		defer t.Stop()
		pace = t.C
	}

	var eng *script.Engine
	if f.Script != "" {
		e, err := script.Load(f.Script, m)
		if err != nil {
			return fail(exitFile, err)
		}
		defer e.Close()
		eng = e
	}

	start := time.Now()
	rate := m.SampleRate()
	ran := 0
	for ran < frames {
		if eng != nil {
			if err := eng.Frame(); err != nil {
				return err
			}
			if eng.Stopped() {
				break
			}
		}
		m.StepFrame()
		ran++
		if rec != nil {
			// spread the remainder so every second has exactly rate frames
			n := rate*ran/60 - rate*(ran-1)/60
			if err := rec.Record(m, n); err != nil {
				return fail(exitAudio, err)
			}
		}
		if pace != nil {
			<-pace
		}
	}
	dur := time.Since(start)
	if rec != nil {
		if err := rec.Close(); err != nil {
			return fail(exitAudio, err)
		}
		log.Printf("wrote %s", f.WAVOut)
	}

	fb := m.Framebuffer()
	crc := frame.Checksum(fb)
	log.Printf("headless: frames=%d elapsed=%s fps=%.2f fb_crc32=%08x",
		ran, dur.Truncate(time.Millisecond), float64(ran)/dur.Seconds(), crc)

	if f.PNGOut != "" {
		if err := frame.WritePNG(f.PNGOut, fb, ppu.Width, ppu.Height, 1); err != nil {
			return fail(exitFile, err)
		}
		log.Printf("wrote %s", f.PNGOut)
	}
	if f.Expect != "" {
		return frame.MatchChecksum(crc, f.Expect)
	}
	return nil
}

func saveBattery(m *emu.Machine, path string) {
	if path == "" {
		return
	}
	if data, ok := m.SaveBattery(); ok {
		if err := cart.WriteSave(path, data); err != nil {
			log.Printf("%v", err)
			return
		}
		log.Printf("wrote %s", path)
	}
}

func run() error {
	f := parseFlags()
	if f.ROMPath == "" && f.Headless {
		flag.Usage()
		return fail(exitFile, errors.New("no cartridge given"))
	}
	if f.StatsView {
		launchStatsView()
	}

	cfg := emu.Defaults()
	cfg.Seed = f.Seed
	cfg.WallClock = f.WallClock
	cfg.CyclesPerFrame = f.Cycles
	cfg.Trace = f.Trace
	m := emu.New(cfg)
	defer m.Close()

	if f.ROMPath == "" {
		// no cartridge yet: show the diagnostic until one is picked from the menu
		_ = m.LoadCartridge(cart.Diagnostic())
		m.Poke(cart.ErrorCodeAddr, 0)
	} else {
		err := m.LoadROMFromFile(f.ROMPath)
		var pe *cart.ParseError
		switch {
		case errors.As(err, &pe):
			log.Printf("cartridge %s: %v", f.ROMPath, err)
		case err != nil:
			return fail(exitFile, err)
		}
	}

	// Battery RAM: load .sav if present
	var savPath string
	if f.SaveRAM && f.ROMPath != "" {
		savPath = cart.SavePath(f.ROMPath)
		if data, err := cart.LoadSave(savPath); err == nil {
			if m.LoadBattery(data) {
				log.Printf("loaded save RAM: %s", savPath)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			log.Printf("%v", err)
		}
	}

	if f.Headless {
		err := runHeadless(m, f)
		saveBattery(m, savPath)
		return err
	}

	uiCfg, err := ui.LoadSettings(f.Config)
	if err != nil {
		log.Printf("%v", err)
	}
	if f.Scale > 0 {
		uiCfg.Scale = f.Scale
	}
	if f.Title != "" {
		uiCfg.Title = f.Title
	}
	if f.Script != "" || f.WAVOut != "" || f.Play {
		log.Printf("-script, -wav and -play apply to -headless runs only")
	}
	app := ui.NewApp(uiCfg, f.Config, m)
	if err := app.Run(); err != nil {
		return fail(exitVideo, err)
	}
	app.SaveSettings()
	// the menu may have switched cartridges
	if f.SaveRAM && m.ROMPath() != "" {
		saveBattery(m, cart.SavePath(m.ROMPath()))
	}
	return nil
}

func main() {
	if err := run(); err != nil {
		code := exitFile
		var ee *exitError
		if errors.As(err, &ee) {
			code = ee.code
		}
		log.Print(err)
		os.Exit(code)
	}
}
