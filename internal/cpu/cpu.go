package cpu

import (
	"bytes"
	"encoding/gob"
)

// Memory is the processor's only view of the outside world.
type Memory interface {
	Read(addr uint16) byte
	Write(addr uint16, v byte)
}

// Status bits.
const (
	FlagC byte = 1 << 0
	FlagZ byte = 1 << 1
	FlagI byte = 1 << 2
	FlagF byte = 1 << 3
	FlagV byte = 1 << 6
	FlagN byte = 1 << 7
)

// Interrupt vectors.
const (
	VectorIRQ   = 0xFFFA
	VectorReset = 0xFFFC
	VectorNMI   = 0xFFFE
)

// StackTop is the highest stack address; the stack grows down towards L.
const StackTop = 0x1FFF

// Registers is a copy of the programmer-visible state.
type Registers struct {
	A, B    uint16
	X, Y    uint16
	S, L    uint16
	I       uint16
	P       byte
	Halted  bool
	Waiting bool
}

// Trace describes an instruction about to execute.
type Trace struct {
	PC     uint16
	Opcode byte
	Op     Op
	Mode   Mode
	Regs   Registers
}

// CPU is the x65 processor. It reaches memory only through Memory.
type CPU struct {
	A, B uint16
	X, Y uint16
	S    uint16 // 13-bit stack pointer in [L, 0x1FFF]
	L    uint16 // stack limit
	I    uint16
	P    byte

	halted  bool
	waiting bool

	mem    Memory
	cycles int
	tracer func(Trace)
}

func New(mem Memory) *CPU {
	return &CPU{mem: mem, S: StackTop}
}

// SetTracer installs fn to be called before every executed instruction.
func (c *CPU) SetTracer(fn func(Trace)) { c.tracer = fn }

func (c *CPU) Halted() bool  { return c.halted }
func (c *CPU) Waiting() bool { return c.waiting }

// PowerOn puts the registers into their power-up state. The accumulators
// come from fill to mimic uninitialized hardware; the caller decides
// whether that is random or fixed. It does not load the reset vector.
func (c *CPU) PowerOn(fill func() byte) {
	lo, hi := fill(), fill()
	c.A = uint16(hi)<<8 | uint16(lo)
	lo, hi = fill(), fill()
	c.B = uint16(hi)<<8 | uint16(lo)
	c.X, c.Y = 0, 0
	c.S, c.L = StackTop, 0
	c.I, c.P = 0, 0
	c.halted, c.waiting = false, false
}

// Reset loads I from the reset vector and leaves the halted state.
func (c *CPU) Reset() {
	c.I = c.read16(VectorReset)
	c.halted = false
}

// NMI services the frame-end interrupt. It cannot be masked.
func (c *CPU) NMI() {
	c.push16(c.I)
	c.push8(c.P)
	c.I = c.read16(VectorNMI)
	c.waiting = false
}

// IRQ services the maskable interrupt; ignored while FlagI is set.
func (c *CPU) IRQ() {
	if c.P&FlagI != 0 {
		return
	}
	c.push16(c.I)
	c.push8(c.P)
	c.I = c.read16(VectorIRQ)
	c.waiting = false
}

// Step executes one instruction and returns the number of bus accesses it
// made. A halted or waiting processor does nothing and costs 1.
func (c *CPU) Step() int {
	if c.halted || c.waiting {
		return 1
	}
	c.cycles = 0
	pc := c.I
	opcode := c.fetch8()
	op, mode := Decode(opcode)
	if c.tracer != nil {
		c.tracer(Trace{PC: pc, Opcode: opcode, Op: op, Mode: mode, Regs: c.State()})
	}
	handlers[op](c, mode)
	return c.cycles
}

// State returns a copy of the registers.
func (c *CPU) State() Registers {
	return Registers{
		A: c.A, B: c.B, X: c.X, Y: c.Y,
		S: c.S, L: c.L, I: c.I, P: c.P,
		Halted: c.halted, Waiting: c.waiting,
	}
}

// SetState restores registers previously returned by State.
func (c *CPU) SetState(r Registers) {
	c.A, c.B, c.X, c.Y = r.A, r.B, r.X, r.Y
	c.S, c.L, c.I, c.P = r.S, r.L, r.I, r.P
	c.halted, c.waiting = r.Halted, r.Waiting
}

func (c *CPU) SaveState() []byte {
	var buf bytes.Buffer
	_ = gob.NewEncoder(&buf).Encode(c.State())
	return buf.Bytes()
}

func (c *CPU) LoadState(data []byte) error {
	var r Registers
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&r); err != nil {
		return err
	}
	c.SetState(r)
	return nil
}

// --- memory access ---

func (c *CPU) read8(addr uint16) byte {
	c.cycles++
	return c.mem.Read(addr)
}

func (c *CPU) write8(addr uint16, v byte) {
	c.cycles++
	c.mem.Write(addr, v)
}

func (c *CPU) read16(addr uint16) uint16 {
	lo := uint16(c.read8(addr))
	hi := uint16(c.read8(addr + 1))
	return lo | hi<<8
}

func (c *CPU) write16(addr uint16, v uint16) {
	c.write8(addr, byte(v))
	c.write8(addr+1, byte(v>>8))
}

func (c *CPU) fetch8() byte {
	b := c.read8(c.I)
	c.I++
	return b
}

func (c *CPU) fetch16() uint16 {
	lo := uint16(c.fetch8())
	hi := uint16(c.fetch8())
	return lo | hi<<8
}

// relative resolves a signed displacement against I as it was before the
// displacement byte was fetched.
func (c *CPU) relative() uint16 {
	base := c.I
	off := int8(c.fetch8())
	return base + uint16(off)
}

// --- flags ---

func (c *CPU) setFlag(f byte, on bool) {
	if on {
		c.P |= f
	} else {
		c.P &^= f
	}
}

func (c *CPU) flag(f byte) bool { return c.P&f != 0 }

func (c *CPU) update16(v uint16) {
	c.setFlag(FlagN, v&0x8000 != 0)
	c.setFlag(FlagZ, v == 0)
}

func (c *CPU) update8(v byte) {
	c.setFlag(FlagN, v&0x80 != 0)
	c.setFlag(FlagZ, v == 0)
}

// --- stack ---

func (c *CPU) stackDown() {
	if c.S <= c.L {
		c.S = StackTop
		return
	}
	c.S--
}

func (c *CPU) stackUp() {
	c.S++
	if c.S > StackTop {
		c.S = c.L
	}
}

func (c *CPU) push8(v byte) {
	c.write8(c.S, v)
	c.stackDown()
}

func (c *CPU) push16(v uint16) {
	c.push8(byte(v))
	c.push8(byte(v >> 8))
}

func (c *CPU) pull8() byte {
	c.stackUp()
	return c.read8(c.S)
}

func (c *CPU) pull16() uint16 {
	hi := uint16(c.pull8())
	lo := uint16(c.pull8())
	return lo | hi<<8
}

// --- operand decode ---

func (c *CPU) readWord(m Mode) uint16 {
	switch m {
	case ModeAcc:
		return c.A
	case ModeBuf:
		return c.B
	case ModeImm8:
		return uint16(c.fetch8())
	case ModeImm16:
		return c.fetch16()
	case ModeRel:
		return c.relative()
	case ModeAbs:
		return c.read16(c.fetch16())
	case ModeAbsX:
		return c.read16(c.fetch16() + c.X)
	case ModeAbsY:
		return c.read16(c.fetch16() + c.Y)
	case ModeZP:
		return c.read16(uint16(c.fetch8()))
	case ModeZPX:
		return c.read16(uint16(c.fetch8()) + c.X)
	case ModeZPY:
		return c.read16(uint16(c.fetch8()) + c.Y)
	case ModeInd:
		return c.X
	}
	return 0
}

// readByte has no 16-bit immediate, relative or indirect form; those
// modes yield 0 without consuming operand bytes.
func (c *CPU) readByte(m Mode) byte {
	switch m {
	case ModeAcc:
		return byte(c.A)
	case ModeBuf:
		return byte(c.B)
	case ModeImm8:
		return c.fetch8()
	case ModeAbs:
		return c.read8(c.fetch16())
	case ModeAbsX:
		return c.read8(c.fetch16() + c.X)
	case ModeAbsY:
		return c.read8(c.fetch16() + c.Y)
	case ModeZP:
		return c.read8(uint16(c.fetch8()))
	case ModeZPX:
		return c.read8(uint16(c.fetch8()) + c.X)
	case ModeZPY:
		return c.read8(uint16(c.fetch8()) + c.Y)
	}
	return 0
}

func (c *CPU) address(m Mode) uint16 {
	switch m {
	case ModeRel:
		return c.relative()
	case ModeAbs:
		return c.fetch16()
	case ModeAbsX:
		return c.fetch16() + c.X
	case ModeAbsY:
		return c.fetch16() + c.Y
	case ModeZP:
		return uint16(c.fetch8())
	case ModeZPX:
		return uint16(c.fetch8()) + c.X
	case ModeZPY:
		return uint16(c.fetch8()) + c.Y
	case ModeInd:
		return c.X
	}
	return 0
}
