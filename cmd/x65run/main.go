package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"regexp"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/FabianRolfMatthiasNoll/X65Emulator/internal/apu"
	"github.com/FabianRolfMatthiasNoll/X65Emulator/internal/bus"
	"github.com/FabianRolfMatthiasNoll/X65Emulator/internal/cart"
	"github.com/FabianRolfMatthiasNoll/X65Emulator/internal/cpu"
	"github.com/FabianRolfMatthiasNoll/X65Emulator/internal/ppu"
)

// debugSink prints the debug registers to out and keeps a copy for
// pattern detection. Words are highlighted on a terminal.
type debugSink struct {
	out   io.Writer
	color bool
	buf   bytes.Buffer
}

func (d *debugSink) DebugByte(b byte) {
	d.buf.WriteByte(b)
	d.out.Write([]byte{b})
}

func (d *debugSink) DebugWord(w uint16) {
	s := fmt.Sprintf("$%04X", w)
	d.buf.WriteString(s)
	if d.color {
		s = "\x1b[36m" + s + "\x1b[0m"
	}
	io.WriteString(d.out, s)
}

// outputWatch tells when the debug output has grown since the last look.
type outputWatch struct {
	sink *debugSink
	seen int
}

func (w *outputWatch) changed() bool {
	n := w.sink.buf.Len()
	if n == w.seen {
		return false
	}
	w.seen = n
	return true
}

// stepper runs the CPU one instruction at a time and formats what ran.
type stepper struct {
	p       *cpu.CPU
	pending cpu.Trace
	traced  bool
}

func newStepper(p *cpu.CPU, trace bool) *stepper {
	s := &stepper{p: p}
	if trace {
		p.SetTracer(func(t cpu.Trace) {
			s.pending = t
			s.traced = true
		})
	}
	return s
}

// step returns the bus accesses made and the trace line. The line is
// empty when nothing executed because the CPU is halted or waiting.
func (s *stepper) step() (int, string) {
	s.traced = false
	cyc := s.p.Step()
	if !s.traced {
		return cyc, ""
	}
	return cyc, traceLine(s.pending, cyc)
}

func traceLine(t cpu.Trace, cyc int) string {
	r := t.Regs
	return fmt.Sprintf("PC=%04X OP=%02X %-3s %-5s cyc=%d A=%04X B=%04X X=%04X Y=%04X S=%04X L=%04X P=%02X",
		t.PC, t.Opcode, t.Op, t.Mode, cyc, r.A, r.B, r.X, r.Y, r.S, r.L, r.P)
}

func main() {
	steps := flag.Int("steps", 5_000_000, "max CPU steps to run")
	trace := flag.Bool("trace", false, "print every instruction")
	untilHalt := flag.Bool("until-halt", false, "stop when the CPU executes JAM")
	until := flag.String("until", "", "stop when debug output contains this substring (case-insensitive)")
	auto := flag.Bool("auto", false, "auto-detect 'Passed' or 'Failed N tests' in debug output and exit with code 0/1")
	timeout := flag.Duration("timeout", 0, "optional wall-clock timeout (e.g. 30s, 2m); 0 disables")
	traceOnFail := flag.Bool("traceOnFail", false, "when -auto detects failure, print a recent trace window (slows down)")
	traceWindow := flag.Int("traceWindow", 200, "number of recent instructions to include in 'traceOnFail' dump")
	flag.Parse()

	romPath := flag.Arg(0)
	if romPath == "" {
		log.Fatal("usage: x65run [flags] <cartridge.x65>")
	}
	data, err := os.ReadFile(romPath)
	if err != nil {
		log.Fatalf("read cartridge: %v", err)
	}
	c, err := cart.Parse(data)
	if err != nil {
		log.Fatalf("parse cartridge: %v", err)
	}

	b := bus.New()
	b.LoadROM(c.PRG)
	b.SetSaveEnabled(c.SaveRAM)
	video := ppu.New()
	video.LoadCharacters(c.Characters())
	b.Attach(video, apu.New(0))
	sink := &debugSink{out: os.Stdout, color: term.IsTerminal(int(os.Stdout.Fd()))}
	b.SetDebugSink(sink)

	p := cpu.New(b)
	p.PowerOn(func() byte { return 0 })
	p.Reset()

	run := newStepper(p, *trace || *traceOnFail)
	watch := &outputWatch{sink: sink}

	start := time.Now()
	var deadline time.Time
	if *timeout > 0 {
		deadline = start.Add(*timeout)
	}
	failRe := regexp.MustCompile(`(?i)failed\s+(\d+)\s+tests?`)

	ring := make([]string, max(*traceWindow, 1))
	ringIdx, ringFill := 0, 0
	done := func(i, cycles int) {
		fmt.Printf("\nDone: steps=%d cycles~=%d elapsed=%s\n", i, cycles, time.Since(start).Truncate(time.Millisecond))
	}

	var cycles int
	for i := 0; i < *steps; i++ {
		cyc, line := run.step()
		cycles += cyc
		if line != "" {
			if *trace {
				fmt.Println(line)
			}
			ring[ringIdx] = line
			ringIdx = (ringIdx + 1) % len(ring)
			ringFill = min(ringFill+1, len(ring))
		}
		if *untilHalt && p.Halted() {
			fmt.Printf("\nCPU halted at %04X.\n", p.I-1)
			done(i+1, cycles)
			return
		}
		grew := watch.changed()
		if *auto && grew {
			s := sink.buf.String()
			if strings.Contains(strings.ToLower(s), "passed") {
				fmt.Printf("\nDetected PASS in debug output.\n")
				done(i+1, cycles)
				os.Exit(0)
			}
			if m := failRe.FindStringSubmatch(s); m != nil {
				fmt.Printf("\nDetected %s in debug output.\n", m[0])
				if *traceOnFail && ringFill > 0 {
					fmt.Printf("\n--- recent trace (last %d instructions) ---\n", ringFill)
					first := (ringIdx - ringFill + len(ring)) % len(ring)
					for j := 0; j < ringFill; j++ {
						fmt.Println(ring[(first+j)%len(ring)])
					}
					fmt.Printf("--- end trace ---\n")
				}
				done(i+1, cycles)
				os.Exit(1)
			}
		} else if !*auto && *until != "" && grew {
			if strings.Contains(strings.ToLower(sink.buf.String()), strings.ToLower(*until)) {
				fmt.Printf("\nDetected '%s' in debug output.\n", *until)
				done(i+1, cycles)
				return
			}
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			fmt.Printf("\nTimeout after %s.\n", time.Since(start).Truncate(time.Millisecond))
			done(i+1, cycles)
			os.Exit(2)
		}
	}
	done(*steps, cycles)
}
