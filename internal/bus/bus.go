package bus

import (
	"bytes"
	"encoding/gob"
)

// Memory sizes.
const (
	RAMSize  = 0x4000
	ROMSize  = 0x100000
	SaveSize = 0x10000
)

// Register addresses handled by the bus itself. Everything else in
// 0x4000–0x4FFF is forwarded to the video unit.
const (
	RegBank0     = 0x4010 // 0x4010–0x4017: one per 4 KiB ROM window
	RegSaveBank  = 0x4018
	RegDebugByte = 0x4019
	RegDebugLo   = 0x401A
	RegDebugHi   = 0x401B
	RegPad2Lo    = 0x401C
	RegPad2Hi    = 0x401D
	RegPad1Lo    = 0x401E
	RegPad1Hi    = 0x401F
)

// Pad bits as seen by cartridge programs.
const (
	PadDown   uint16 = 0x001
	PadUp     uint16 = 0x002
	PadRight  uint16 = 0x004
	PadLeft   uint16 = 0x008
	PadY      uint16 = 0x010
	PadX      uint16 = 0x020
	PadB      uint16 = 0x040
	PadA      uint16 = 0x080
	PadR      uint16 = 0x100
	PadL      uint16 = 0x200
	PadStart  uint16 = 0x400
	PadSelect uint16 = 0x800
)

// VideoPort is the register side of the video unit.
type VideoPort interface {
	WriteRegister(reg uint16, v byte)
	ReadRegister(reg uint16) byte
}

// AudioPort is the register side of the audio unit.
type AudioPort interface {
	WriteRegister(reg uint16, v byte)
}

// DebugSink receives diagnostic output written by cartridge programs.
type DebugSink interface {
	DebugByte(b byte)
	DebugWord(w uint16)
}

// Bus decodes the 16-bit address space into work RAM, banked ROM, banked
// save RAM and device registers. It does not own the video or audio unit.
type Bus struct {
	ram [RAMSize]byte
	rom [ROMSize]byte
	sav [SaveSize]byte

	banks [8]byte
	sbank byte

	saveEnabled bool

	pads    [2]uint16
	debugLo byte

	video VideoPort
	audio AudioPort
	sink  DebugSink
}

func New() *Bus {
	return &Bus{}
}

// Attach wires the device register ports. Either may be nil.
func (b *Bus) Attach(v VideoPort, a AudioPort) {
	b.video = v
	b.audio = a
}

// SetDebugSink connects a receiver for the debug registers; nil drops output.
func (b *Bus) SetDebugSink(s DebugSink) { b.sink = s }

// LoadROM copies program data into ROM starting at offset 0 and clears the rest.
func (b *Bus) LoadROM(prg []byte) {
	b.rom = [ROMSize]byte{}
	copy(b.rom[:], prg)
}

// SetSaveEnabled controls whether writes to 0x6000–0x7FFF reach save RAM.
func (b *Bus) SetSaveEnabled(on bool) { b.saveEnabled = on }

func (b *Bus) SaveEnabled() bool { return b.saveEnabled }

// FillRAM overwrites work RAM using fn, used for the power-on fill policy.
func (b *Bus) FillRAM(fn func() byte) {
	for i := range b.ram {
		b.ram[i] = fn()
	}
}

// ResetBanks points every ROM window and the save window at bank 0.
func (b *Bus) ResetBanks() {
	b.banks = [8]byte{}
	b.sbank = 0
}

// SetPad latches the button mask for pad n (0 or 1).
func (b *Bus) SetPad(n int, mask uint16) {
	if n < 0 || n > 1 {
		return
	}
	b.pads[n] = mask & 0x0FFF
}

func (b *Bus) Write(addr uint16, v byte) {
	switch {
	case addr < 0x4000:
		b.ram[addr] = v
	case addr < 0x5000:
		b.writeRegister(addr, v)
	case addr < 0x6000:
		if b.audio != nil {
			b.audio.WriteRegister(addr&0x0FFF, v)
		}
	case addr < 0x8000:
		if b.saveEnabled {
			b.sav[b.saveOffset(addr)] = v
		}
	default:
		// ROM
	}
}

func (b *Bus) Read(addr uint16) byte {
	switch {
	case addr < 0x4000:
		return b.ram[addr]
	case addr < 0x5000:
		return b.readRegister(addr)
	case addr < 0x6000:
		return 0
	case addr < 0x8000:
		return b.sav[b.saveOffset(addr)]
	default:
		return b.rom[b.romOffset(addr)]
	}
}

func (b *Bus) romOffset(addr uint16) int {
	return int(b.banks[(addr>>12)&7])<<12 | int(addr&0x0FFF)
}

func (b *Bus) saveOffset(addr uint16) int {
	return int(b.sbank)<<13 | int(addr&0x1FFF)
}

func (b *Bus) writeRegister(addr uint16, v byte) {
	switch {
	case addr >= RegBank0 && addr < RegBank0+8:
		b.banks[addr-RegBank0] = v
	case addr == RegSaveBank:
		b.sbank = v & 0x7
	case addr == RegDebugByte:
		if b.sink != nil {
			b.sink.DebugByte(v)
		}
	case addr == RegDebugLo:
		b.debugLo = v
	case addr == RegDebugHi:
		if b.sink != nil {
			b.sink.DebugWord(uint16(v)<<8 | uint16(b.debugLo))
		}
	case addr < 0x4010:
		if b.video != nil {
			b.video.WriteRegister(addr&0x000F, v)
		}
	}
}

func (b *Bus) readRegister(addr uint16) byte {
	switch addr {
	case 0x4000, 0x4001:
		if b.video != nil {
			return b.video.ReadRegister(addr & 0x000F)
		}
	case RegPad1Lo:
		return byte(b.pads[0])
	case RegPad1Hi:
		return byte(b.pads[0] >> 8)
	case RegPad2Lo:
		return byte(b.pads[1])
	case RegPad2Hi:
		return byte(b.pads[1] >> 8)
	}
	return 0
}

// Bank returns the bank register for ROM window i (0..7).
func (b *Bus) Bank(i int) byte { return b.banks[i&7] }

// SaveBank returns the save-RAM bank register.
func (b *Bus) SaveBank() byte { return b.sbank }

// SaveRAM returns a copy of the 64 KiB battery RAM.
func (b *Bus) SaveRAM() []byte {
	out := make([]byte, SaveSize)
	copy(out, b.sav[:])
	return out
}

// LoadRAM replaces battery RAM; data must be exactly SaveSize bytes.
func (b *Bus) LoadRAM(data []byte) bool {
	if len(data) != SaveSize {
		return false
	}
	copy(b.sav[:], data)
	return true
}

// --- Save/Load state ---
type busState struct {
	RAM         []byte
	SAV         []byte
	Banks       [8]byte
	SBank       byte
	SaveEnabled bool
	Pads        [2]uint16
	DebugLo     byte
}

// SaveState serializes RAM, save RAM and bank registers. ROM is not included.
func (b *Bus) SaveState() []byte {
	s := busState{
		RAM:         append([]byte(nil), b.ram[:]...),
		SAV:         append([]byte(nil), b.sav[:]...),
		Banks:       b.banks,
		SBank:       b.sbank,
		SaveEnabled: b.saveEnabled,
		Pads:        b.pads,
		DebugLo:     b.debugLo,
	}
	var buf bytes.Buffer
	_ = gob.NewEncoder(&buf).Encode(s)
	return buf.Bytes()
}

func (b *Bus) LoadState(data []byte) error {
	var s busState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return err
	}
	copy(b.ram[:], s.RAM)
	copy(b.sav[:], s.SAV)
	b.banks = s.Banks
	b.sbank = s.SBank
	b.saveEnabled = s.SaveEnabled
	b.pads = s.Pads
	b.debugLo = s.DebugLo
	return nil
}
