package ppu

import (
	"bytes"
	"encoding/gob"
)

// Screen and character generator geometry.
const (
	Width  = 320
	Height = 240

	CharWidth  = 16384 // 2048 characters of 8x8 laid out side by side
	CharHeight = 8

	RoomCols  = 40
	RoomRows  = 30
	RoomTiles = RoomCols * RoomRows // 1200
	Sprites   = 128
)

// Register offsets as seen from the bus (address & 0xF).
const (
	RegData    = 0x0 // 0x0 and 0x1
	RegControl = 0x2
	RegRoom    = 0x3
	RegVAddr   = 0x4 // 0x4 and 0x5
	RegSAddr   = 0x6 // 0x6 and 0x7
	RegScroll  = 0x8 // 0x8..0xF, two per axis
)

// Control bits.
const (
	CtrlNMI        = 0x80
	CtrlSprites    = 0x40
	CtrlLayer1     = 0x20
	CtrlLayer2     = 0x10
	CtrlSpriteHigh = 0x04
	CtrlStepMask   = 0x03
)

// Cursor step modes selected by the low control bits.
const (
	StepRight = iota // +1 tile
	StepLeft         // -1 tile
	StepDown         // +40 tiles
	StepUp           // -40 tiles
)

// Color is one palette entry; each channel is a 4-bit value times 0x11.
type Color struct{ R, G, B, A byte }

// Tile is a two-byte tilemap record.
type Tile struct{ Lo, Hi byte }

// Char is the 10-bit character index.
func (t Tile) Char() uint16 { return uint16(t.Lo) | uint16(t.Hi&3)<<8 }

// Palette is the palette index in the high nibble.
func (t Tile) Palette() byte { return t.Hi >> 4 }

// Sprite is one 6-byte sprite attribute record.
type Sprite struct {
	Lo, Hi   byte // character low, then priority/palette/character high
	XLo, XHi byte
	YLo, YHi byte
}

func (s Sprite) Char() uint16   { return uint16(s.Lo) | uint16(s.Hi&3)<<8 }
func (s Sprite) Priority() byte { return (s.Hi >> 2) & 3 }
func (s Sprite) Palette() byte  { return s.Hi >> 4 }
func (s Sprite) X() int         { return int(int16(uint16(s.XLo) | uint16(s.XHi)<<8)) }
func (s Sprite) Y() int         { return int(int16(uint16(s.YLo) | uint16(s.YHi)<<8)) }

// Layer is a 2x2 grid of rooms plus scroll and room-select state.
type Layer struct {
	Rooms   [4][RoomTiles]Tile
	ScrollX uint16
	ScrollY uint16
	RoomX   bool
	RoomY   bool
}

// DMASource is the bus read path used for the per-frame sprite fetch.
type DMASource interface {
	Read(addr uint16) byte
}

// PPU is the video unit: palettes, two tile layers, the sprite table,
// the character generator and the compositor.
type PPU struct {
	palettes [16][16]Color
	layers   [2]Layer
	sprites  [Sprites]Sprite
	chars    []byte // CharWidth*CharHeight palette indices

	vaddr uint16 // cursor
	saddr uint16 // sprite table base on the bus

	control byte

	fb      []byte // RGBA Width*Height
	scratch []byte // per-step accumulator, RGBA
}

func New() *PPU {
	return &PPU{
		chars:   make([]byte, CharWidth*CharHeight),
		fb:      make([]byte, Width*Height*4),
		scratch: make([]byte, Width*Height*4),
	}
}

// Power clears palettes, tilemaps and sprites. Registers, the cursor and
// the character generator are left alone.
func (p *PPU) Power() {
	p.palettes = [16][16]Color{}
	for l := range p.layers {
		p.layers[l].Rooms = [4][RoomTiles]Tile{}
	}
	p.sprites = [Sprites]Sprite{}
}

// LoadCharacters replaces the character generator with decoded pixels
// (CharWidth*CharHeight palette indices, row-major). Short input is
// zero-padded.
func (p *PPU) LoadCharacters(pix []byte) {
	clear(p.chars)
	copy(p.chars, pix)
}

// Framebuffer returns the RGBA frame produced by the last Render.
func (p *PPU) Framebuffer() []byte { return p.fb }

// NMIEnabled reports whether the frame-end interrupt should be raised.
func (p *PPU) NMIEnabled() bool { return p.control&CtrlNMI != 0 }

func (p *PPU) Control() byte  { return p.control }
func (p *PPU) Cursor() uint16 { return p.vaddr }

// Palette returns color c of palette n.
func (p *PPU) Palette(n, c int) Color { return p.palettes[n&15][c&15] }

// Layer returns a pointer to background layer n (0 or 1).
func (p *PPU) Layer(n int) *Layer { return &p.layers[n&1] }

// Sprite returns sprite i of the table.
func (p *PPU) Sprite(i int) Sprite { return p.sprites[i&(Sprites-1)] }

// WriteRegister handles a write to register reg (0x0..0xF).
func (p *PPU) WriteRegister(reg uint16, v byte) {
	switch reg & 0xF {
	case 0x0, 0x1:
		p.writeData(v)
	case RegControl:
		p.control = v
	case RegRoom:
		p.layers[0].RoomY = v&0x8 != 0
		p.layers[0].RoomX = v&0x4 != 0
		p.layers[1].RoomY = v&0x2 != 0
		p.layers[1].RoomX = v&0x1 != 0
	case 0x4, 0x5:
		p.vaddr = shiftIn(p.vaddr, v)
	case 0x6, 0x7:
		p.saddr = shiftIn(p.saddr, v)
	case 0x8, 0x9:
		p.layers[0].ScrollX = shiftIn(p.layers[0].ScrollX, v)
	case 0xA, 0xB:
		p.layers[0].ScrollY = shiftIn(p.layers[0].ScrollY, v)
	case 0xC, 0xD:
		p.layers[1].ScrollX = shiftIn(p.layers[1].ScrollX, v)
	case 0xE, 0xF:
		p.layers[1].ScrollY = shiftIn(p.layers[1].ScrollY, v)
	}
}

// ReadRegister only answers the data port; every other register reads 0.
func (p *PPU) ReadRegister(reg uint16) byte {
	if reg&0xF > 0x1 {
		return 0
	}
	return p.readData()
}

// 16-bit ports take two byte writes, low byte first: each write shifts
// the previous value down and puts the new byte on top.
func shiftIn(cur uint16, v byte) uint16 {
	return cur>>8 | uint16(v)<<8
}

func (p *PPU) writeData(v byte) {
	addr := p.vaddr
	if addr >= 0x8000 {
		p.step()
		if t := p.tile(addr); t != nil {
			if addr&0x4000 != 0 {
				t.Hi = v
			} else {
				t.Lo = v
			}
		}
		return
	}
	p.vaddr++
	if addr < 0x200 {
		c := &p.palettes[(addr>>5)&15][(addr>>1)&15]
		if addr&1 != 0 {
			c.B = (v >> 4) * 0x11
			c.A = (v & 15) * 0x11
		} else {
			c.R = (v >> 4) * 0x11
			c.G = (v & 15) * 0x11
		}
	}
}

func (p *PPU) readData() byte {
	addr := p.vaddr
	if addr >= 0x8000 {
		p.step()
		if t := p.tile(addr); t != nil {
			if addr&0x4000 != 0 {
				return t.Hi
			}
			return t.Lo
		}
		return 0
	}
	p.vaddr++
	return 0
}

// tile resolves a tilemap address: bit 14 picks the byte plane, bit 13
// the layer, bits 12-11 the room and the low 11 bits the room offset.
// Offsets past the room are ignored.
func (p *PPU) tile(addr uint16) *Tile {
	off := addr & 0x7FF
	if off >= RoomTiles {
		return nil
	}
	block := (addr >> 11) & 0xF
	return &p.layers[(block>>2)&1].Rooms[block&3][off]
}

// step advances the cursor by the current step mode. The room and
// plane bits are preserved; the offset wraps modulo 1200.
func (p *PPU) step() {
	addr := p.vaddr
	base := addr & 0xF800
	off := int(addr & 0x7FF)
	switch p.control & CtrlStepMask {
	case StepRight:
		p.vaddr = base + uint16(mod(off+1, RoomTiles))
	case StepLeft:
		p.vaddr = base + uint16(mod(off-1, RoomTiles))
	case StepDown:
		if off == 0x4AF {
			p.vaddr = base
			return
		}
		p.vaddr = base + uint16(mod(off+RoomCols, RoomTiles))
		if addr > p.vaddr {
			p.vaddr++
		}
	case StepUp:
		if off == 0 {
			p.vaddr = base | 0x4AF
			return
		}
		p.vaddr = base + uint16(mod(off-RoomCols, RoomTiles))
		if addr < p.vaddr {
			p.vaddr--
		}
	}
}

func mod(a, b int) int {
	a %= b
	if a < 0 {
		a += b
	}
	return a
}

// DMA copies the sprite table from the bus. The three 256-byte planes at
// the base address hold X, Y and character/attribute pairs.
func (p *PPU) DMA(src DMASource) {
	for i := range p.sprites {
		s := &p.sprites[i]
		o := p.saddr + uint16(i*2)
		s.XLo = src.Read(o)
		s.XHi = src.Read(o + 1)
		s.YLo = src.Read(o + 0x100)
		s.YHi = src.Read(o + 0x101)
		s.Lo = src.Read(o + 0x200)
		s.Hi = src.Read(o + 0x201)
	}
}

// --- Save/Load state ---
type ppuState struct {
	Palettes [16][16]Color
	Layers   [2]Layer
	Sprites  [Sprites]Sprite
	VAddr    uint16
	SAddr    uint16
	Control  byte
}

// SaveState serializes video memory and registers. The character
// generator comes from the cartridge and is not included.
func (p *PPU) SaveState() []byte {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	s := ppuState{
		Palettes: p.palettes, Layers: p.layers, Sprites: p.sprites,
		VAddr: p.vaddr, SAddr: p.saddr, Control: p.control,
	}
	_ = enc.Encode(s)
	return buf.Bytes()
}

func (p *PPU) LoadState(data []byte) error {
	var s ppuState
	dec := gob.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&s); err != nil {
		return err
	}
	p.palettes = s.Palettes
	p.layers = s.Layers
	p.sprites = s.Sprites
	p.vaddr, p.saddr, p.control = s.VAddr, s.SAddr, s.Control
	return nil
}
