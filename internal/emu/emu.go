package emu

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"os"
	"time"

	"github.com/FabianRolfMatthiasNoll/X65Emulator/internal/apu"
	"github.com/FabianRolfMatthiasNoll/X65Emulator/internal/bus"
	"github.com/FabianRolfMatthiasNoll/X65Emulator/internal/cart"
	"github.com/FabianRolfMatthiasNoll/X65Emulator/internal/cpu"
	"github.com/FabianRolfMatthiasNoll/X65Emulator/internal/ppu"
)

type Buttons struct {
	Up, Down, Left, Right bool
	A, B, X, Y            bool
	L, R                  bool
	Start, Select         bool
}

// Mask converts the button set into the pad register layout.
func (b Buttons) Mask() uint16 {
	var mask uint16
	set := func(on bool, bit uint16) {
		if on {
			mask |= bit
		}
	}
	set(b.Down, bus.PadDown)
	set(b.Up, bus.PadUp)
	set(b.Right, bus.PadRight)
	set(b.Left, bus.PadLeft)
	set(b.Y, bus.PadY)
	set(b.X, bus.PadX)
	set(b.B, bus.PadB)
	set(b.A, bus.PadA)
	set(b.R, bus.PadR)
	set(b.L, bus.PadL)
	set(b.Start, bus.PadStart)
	set(b.Select, bus.PadSelect)
	return mask
}

// Machine owns the processor, bus, video and audio units and drives them
// one frame at a time. Everything except the audio pull methods must be
// called from a single goroutine.
type Machine struct {
	cfg Config

	bus *bus.Bus
	cpu *cpu.CPU
	ppu *ppu.PPU
	apu *apu.APU

	cart    *cart.Cartridge
	romPath string
	frames  uint64

	rng    *rand.Rand
	audio  []io.Closer
	closed bool
}

func New(cfg Config) *Machine {
	cfg = cfg.normalized()
	m := &Machine{
		cfg: cfg,
		bus: bus.New(),
		ppu: ppu.New(),
		apu: apu.New(cfg.SampleRate),
	}
	m.bus.Attach(m.ppu, m.apu)
	m.cpu = cpu.New(m.bus)
	seed := cfg.Seed
	if seed < 0 {
		seed = time.Now().UnixNano()
	}
	m.rng = rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9E3779B97F4A7C15))
	if cfg.Trace {
		m.cpu.SetTracer(func(t cpu.Trace) {
			log.Printf("cpu: %04X %02X %-3s %-5s A=%04X B=%04X X=%04X Y=%04X S=%04X P=%02X",
				t.PC, t.Opcode, t.Op, t.Mode, t.Regs.A, t.Regs.B, t.Regs.X, t.Regs.Y, t.Regs.S, t.Regs.P)
		})
	}
	return m
}

// LoadCartridge installs a cartridge image and power-cycles. An image
// that fails to parse is replaced by the diagnostic cartridge showing
// the error code; the parse error is still returned.
func (m *Machine) LoadCartridge(data []byte) error {
	c, err := cart.Parse(data)
	if err != nil {
		var pe *cart.ParseError
		if !errors.As(err, &pe) {
			return err
		}
		log.Printf("emu: %v, starting diagnostic cartridge", err)
		diag, derr := cart.Parse(cart.Diagnostic())
		if derr != nil {
			return fmt.Errorf("diagnostic cartridge: %w", derr)
		}
		m.install(diag)
		m.PowerCycle()
		m.bus.Write(cart.ErrorCodeAddr, byte(pe.Code))
		return err
	}
	m.install(c)
	m.PowerCycle()
	return nil
}

func (m *Machine) install(c *cart.Cartridge) {
	m.cart = c
	m.bus.LoadROM(c.PRG)
	m.bus.SetSaveEnabled(c.SaveRAM)
	m.apu.LoadWaves(c.Waves)
	m.ppu.LoadCharacters(c.Characters())
}

// LoadROMFromFile replaces the current cartridge with an image from disk.
// Parse errors leave the diagnostic cartridge running and are returned
// as *cart.ParseError.
func (m *Machine) LoadROMFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("load cartridge: %w", err)
	}
	m.romPath = path
	return m.LoadCartridge(data)
}

// ROMPath returns the currently loaded cartridge file path, if any.
func (m *Machine) ROMPath() string { return m.romPath }

// Cartridge returns the installed cartridge, nil before the first load.
func (m *Machine) Cartridge() *cart.Cartridge { return m.cart }

// PowerCycle fills work RAM and the accumulators from the seeded fill
// policy, clears video memory, silences audio and resets the processor.
func (m *Machine) PowerCycle() {
	fill := func() byte { return byte(m.rng.Uint32()) }
	m.bus.FillRAM(fill)
	m.bus.ResetBanks()
	m.ppu.Power()
	m.apu.Reset()
	m.cpu.PowerOn(fill)
	m.cpu.Reset()
	m.frames = 0
}

// Reset reloads the reset vector only; memory is untouched.
func (m *Machine) Reset() { m.cpu.Reset() }

// StepFrame runs the processor for one frame budget, renders the frame
// and raises the frame-end interrupt if the video unit asks for it.
func (m *Machine) StepFrame() {
	if m.cfg.WallClock {
		deadline := time.Now().Add(m.cfg.FrameBudget)
		for time.Now().Before(deadline) {
			for i := 0; i < 256; i++ {
				m.cpu.Step()
			}
		}
	} else {
		for acc := 0; acc < m.cfg.CyclesPerFrame; {
			acc += m.cpu.Step()
		}
	}
	m.ppu.Render(m.bus)
	if m.ppu.NMIEnabled() {
		m.cpu.NMI()
	}
	m.frames++
}

// Step executes a single instruction without rendering.
func (m *Machine) Step() int { return m.cpu.Step() }

func (m *Machine) Frames() uint64 { return m.frames }

// Framebuffer returns the RGBA output of the last rendered frame.
func (m *Machine) Framebuffer() []byte { return m.ppu.Framebuffer() }

func (m *Machine) CPU() *cpu.CPU { return m.cpu }
func (m *Machine) PPU() *ppu.PPU { return m.ppu }

// SetDebugSink connects a receiver for the debug output registers.
func (m *Machine) SetDebugSink(s bus.DebugSink) { m.bus.SetDebugSink(s) }

// SetPad latches the button mask of pad n (0 or 1).
func (m *Machine) SetPad(n int, mask uint16) { m.bus.SetPad(n, mask) }

// SetButtons latches pad 1 from a button set.
func (m *Machine) SetButtons(b Buttons) { m.bus.SetPad(0, b.Mask()) }

// Peek reads through the bus, with the same side effects a program
// would see.
func (m *Machine) Peek(addr uint16) byte { return m.bus.Read(addr) }

func (m *Machine) Poke(addr uint16, v byte) { m.bus.Write(addr, v) }

// SaveBattery returns the save RAM when the cartridge has one.
func (m *Machine) SaveBattery() ([]byte, bool) {
	if m.cart == nil || !m.cart.SaveRAM {
		return nil, false
	}
	return m.bus.SaveRAM(), true
}

// LoadBattery restores save RAM; data must be exactly 64 KiB.
func (m *Machine) LoadBattery(data []byte) bool {
	if m.cart == nil || !m.cart.SaveRAM {
		return false
	}
	return m.bus.LoadRAM(data)
}

// --- audio ---

func (m *Machine) SampleRate() int { return m.apu.SampleRate() }

// NextSample and Fill may be called from the audio goroutine.
func (m *Machine) NextSample() (left, right uint16) { return m.apu.NextSample() }

func (m *Machine) Fill(buf []uint16) int { return m.apu.Fill(buf) }

// AddAudioOutput registers a consumer to be closed by Close.
func (m *Machine) AddAudioOutput(c io.Closer) { m.audio = append(m.audio, c) }

// Close stops audio consumers first, then silences the channels.
func (m *Machine) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	var errs []error
	for _, c := range m.audio {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	m.audio = nil
	m.apu.Reset()
	return errors.Join(errs...)
}

// --- Save/Load state ---
type machineState struct {
	Bus    []byte
	CPU    []byte
	PPU    []byte
	APU    []byte
	Frames uint64
}

func (m *Machine) SaveState() []byte {
	var buf bytes.Buffer
	_ = gob.NewEncoder(&buf).Encode(machineState{
		Bus:    m.bus.SaveState(),
		CPU:    m.cpu.SaveState(),
		PPU:    m.ppu.SaveState(),
		APU:    m.apu.SaveState(),
		Frames: m.frames,
	})
	return buf.Bytes()
}

// LoadState restores a state from SaveState. If any part fails to load,
// the machine is rolled back to the state it had before the call.
func (m *Machine) LoadState(data []byte) error {
	var s machineState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	prev := m.SaveState()
	if err := m.loadParts(s); err != nil {
		var old machineState
		_ = gob.NewDecoder(bytes.NewReader(prev)).Decode(&old)
		_ = m.loadParts(old)
		return err
	}
	return nil
}

func (m *Machine) loadParts(s machineState) error {
	for _, part := range []struct {
		name string
		load func([]byte) error
		data []byte
	}{
		{"bus", m.bus.LoadState, s.Bus},
		{"cpu", m.cpu.LoadState, s.CPU},
		{"ppu", m.ppu.LoadState, s.PPU},
		{"apu", m.apu.LoadState, s.APU},
	} {
		if err := part.load(part.data); err != nil {
			return fmt.Errorf("load state %s: %w", part.name, err)
		}
	}
	m.frames = s.Frames
	return nil
}

func (m *Machine) SaveStateToFile(path string) error {
	return os.WriteFile(path, m.SaveState(), 0644)
}

func (m *Machine) LoadStateFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return m.LoadState(data)
}
