package emu

import (
	"bytes"
	"encoding/gob"
	"errors"
	"path/filepath"
	"testing"

	"github.com/FabianRolfMatthiasNoll/X65Emulator/internal/cart"
	"github.com/FabianRolfMatthiasNoll/X65Emulator/internal/ppu"
)

const nmiHandler = 0x8800

// buildCart assembles a one-bank cartridge: code at 0x8000, nmi at
// nmiHandler, reset and NMI vectors pointing at them.
func buildCart(code, nmi []byte, saveRAM bool) []byte {
	prg := make([]byte, cart.PRGUnit)
	copy(prg, code)
	copy(prg[nmiHandler-0x8000:], nmi)
	prg[0xFFC], prg[0xFFD] = 0x00, 0x80
	prg[0xFFE], prg[0xFFF] = byte(nmiHandler&0xFF), byte(nmiHandler>>8)
	return cart.Build(prg, nil, nil, saveRAM)
}

// spin is "BRA to self".
var spin = []byte{0xCF, 0xFE}

func newMachine(t *testing.T, image []byte) *Machine {
	t.Helper()
	m := New(Defaults())
	if err := m.LoadCartridge(image); err != nil {
		t.Fatalf("LoadCartridge: %v", err)
	}
	return m
}

func TestResetVectorStartsProgram(t *testing.T) {
	prg := make([]byte, cart.PRGUnit)
	prg[0x10] = 0x61 // LTA #16
	prg[0x11], prg[0x12] = 0x34, 0x12
	prg[0x13] = 0x03 // JAM
	prg[0xFFC], prg[0xFFD] = 0x10, 0x80
	m := newMachine(t, cart.Build(prg, nil, nil, false))
	if got := m.CPU().I; got != 0x8010 {
		t.Fatalf("I after power cycle got %04X want 8010", got)
	}
	m.Step()
	if got := m.CPU().A; got != 0x1234 {
		t.Fatalf("A got %04X want 1234", got)
	}
}

func TestFrameEndInterrupt(t *testing.T) {
	code := []byte{
		0x71, 0x80, //       LTA #80
		0xE6, 0x02, 0x40, // STD 4002: NMI enable
	}
	code = append(code, spin...)
	nmi := []byte{
		0xAA, 0x10, 0x00, // INC 0010
		0x40,             // RTI
	}
	m := newMachine(t, buildCart(code, nmi, false))
	m.Poke(0x0010, 0)
	for i := 0; i < 3; i++ {
		m.StepFrame()
	}
	// the third interrupt is taken but its handler runs next frame
	if got := m.Peek(0x0010); got != 2 {
		t.Fatalf("handler count got %d want 2", got)
	}
	if m.Frames() != 3 {
		t.Fatalf("frames got %d want 3", m.Frames())
	}
}

func TestNoInterruptWhenDisabled(t *testing.T) {
	nmi := []byte{0xAA, 0x10, 0x00, 0x40}
	m := newMachine(t, buildCart(spin, nmi, false))
	m.Poke(0x0010, 0)
	m.StepFrame()
	m.StepFrame()
	if got := m.Peek(0x0010); got != 0 {
		t.Fatalf("handler ran %d times with NMI disabled", got)
	}
}

func TestPowerOnFillIsSeeded(t *testing.T) {
	image := buildCart(spin, nil, false)
	load := func(seed int64) *Machine {
		cfg := Defaults()
		cfg.Seed = seed
		m := New(cfg)
		if err := m.LoadCartridge(image); err != nil {
			t.Fatalf("LoadCartridge: %v", err)
		}
		return m
	}
	a, b, c := load(7), load(7), load(8)
	same, diff := true, false
	for addr := uint16(0); addr < 0x100; addr++ {
		if a.Peek(addr) != b.Peek(addr) {
			same = false
		}
		if a.Peek(addr) != c.Peek(addr) {
			diff = true
		}
	}
	if !same {
		t.Fatalf("equal seeds produced different RAM")
	}
	if !diff {
		t.Fatalf("different seeds produced identical RAM")
	}
	if a.CPU().A != b.CPU().A {
		t.Fatalf("accumulator fill differs for equal seeds")
	}
}

func TestDiagnosticShowsErrorCode(t *testing.T) {
	m := New(Defaults())
	err := m.LoadCartridge([]byte("x65"))
	if !errors.Is(err, cart.ErrTooSmall) {
		t.Fatalf("LoadCartridge got %v want ErrTooSmall", err)
	}
	if got := m.Peek(cart.ErrorCodeAddr); got != 10 {
		t.Fatalf("error code in RAM got %d want 10", got)
	}
	m.StepFrame()

	room := &m.PPU().Layer(0).Rooms[0]
	want := "ERROR 10"
	for i := 0; i < len(want); i++ {
		if got := room[14*40+16+i].Lo; got != want[i] {
			t.Fatalf("tile %d got %q want %q", i, got, want[i])
		}
	}
	// top-left pixel of the first 'E' is lit
	fb := m.Framebuffer()
	o := (14*8*ppu.Width + 16*8) * 4
	if fb[o] != 0xFF || fb[o+3] != 0xFF {
		t.Fatalf("E pixel got % X want white", fb[o:o+4])
	}
	if fb[0] != 0 || fb[3] != 0xFF {
		t.Fatalf("background got % X want opaque black", fb[0:4])
	}
}

func TestSaveStateRoundTrip(t *testing.T) {
	code := []byte{0x42}            // INX
	code = append(code, 0xCF, 0xFD) // BRA back to INX
	m := newMachine(t, buildCart(code, nil, false))
	m.Poke(0x0200, 0x5A)
	m.StepFrame()
	snap := m.SaveState()
	regs := m.CPU().State()

	m.Poke(0x0200, 0x00)
	m.StepFrame()
	if err := m.LoadState(snap); err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if got := m.Peek(0x0200); got != 0x5A {
		t.Fatalf("RAM after load got %02X want 5A", got)
	}
	if got := m.CPU().State(); got != regs {
		t.Fatalf("registers after load got %+v want %+v", got, regs)
	}
	if m.Frames() != 1 {
		t.Fatalf("frames after load got %d want 1", m.Frames())
	}

	path := filepath.Join(t.TempDir(), "state.bin")
	if err := m.SaveStateToFile(path); err != nil {
		t.Fatalf("SaveStateToFile: %v", err)
	}
	if err := m.LoadStateFromFile(path); err != nil {
		t.Fatalf("LoadStateFromFile: %v", err)
	}
	if err := m.LoadState([]byte("garbage")); err == nil {
		t.Fatalf("LoadState accepted garbage")
	}
}

func TestFailedLoadStateLeavesMachineAlone(t *testing.T) {
	code := []byte{0x42}            // INX
	code = append(code, 0xCF, 0xFD) // BRA back to INX
	m := newMachine(t, buildCart(code, nil, false))
	m.Poke(0x0200, 0x11)
	m.StepFrame()
	var s machineState
	if err := gob.NewDecoder(bytes.NewReader(m.SaveState())).Decode(&s); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	s.PPU = []byte("not a video state")
	var bad bytes.Buffer
	if err := gob.NewEncoder(&bad).Encode(s); err != nil {
		t.Fatalf("encode state: %v", err)
	}

	m.Poke(0x0200, 0x22)
	m.StepFrame()
	regs := m.CPU().State()
	if err := m.LoadState(bad.Bytes()); err == nil {
		t.Fatalf("LoadState accepted a broken video part")
	}
	if got := m.Peek(0x0200); got != 0x22 {
		t.Fatalf("RAM after failed load got %02X want 22", got)
	}
	if got := m.CPU().State(); got != regs {
		t.Fatalf("registers after failed load got %+v want %+v", got, regs)
	}
	if m.Frames() != 2 {
		t.Fatalf("frames after failed load got %d want 2", m.Frames())
	}
}

func TestBattery(t *testing.T) {
	m := newMachine(t, buildCart(spin, nil, true))
	m.Poke(0x6000, 0x42)
	data, ok := m.SaveBattery()
	if !ok || data[0] != 0x42 {
		t.Fatalf("SaveBattery got ok=%v first=%02X", ok, data[0])
	}
	data[1] = 0x24
	if !m.LoadBattery(data) || m.Peek(0x6001) != 0x24 {
		t.Fatalf("LoadBattery did not restore save RAM")
	}
	if m.LoadBattery(data[:10]) {
		t.Fatalf("LoadBattery accepted short data")
	}

	plain := newMachine(t, buildCart(spin, nil, false))
	if _, ok := plain.SaveBattery(); ok {
		t.Fatalf("cartridge without save RAM reported a battery")
	}
}

func TestButtonsMask(t *testing.T) {
	b := Buttons{Up: true, A: true, Start: true}
	if got := b.Mask(); got != 0x002|0x080|0x400 {
		t.Fatalf("mask got %03X want 482", got)
	}
	m := newMachine(t, buildCart(spin, nil, false))
	m.SetButtons(b)
	if lo, hi := m.Peek(0x401E), m.Peek(0x401F); lo != 0x82 || hi != 0x04 {
		t.Fatalf("pad 1 registers got %02X %02X", lo, hi)
	}
}

type closer struct {
	closed *[]string
	name   string
}

func (c closer) Close() error { *c.closed = append(*c.closed, c.name); return nil }

func TestCloseStopsAudioOutputs(t *testing.T) {
	m := newMachine(t, buildCart(spin, nil, false))
	var closed []string
	m.AddAudioOutput(closer{&closed, "a"})
	m.AddAudioOutput(closer{&closed, "b"})
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if len(closed) != 2 || closed[0] != "a" || closed[1] != "b" {
		t.Fatalf("closed got %v", closed)
	}
}
