package ppu

import "testing"

func setCursor(p *PPU, addr uint16) {
	p.WriteRegister(0x4, byte(addr))
	p.WriteRegister(0x5, byte(addr>>8))
}

// setColor writes one palette entry through the data port using 4-bit channels.
func setColor(p *PPU, pal, c int, r, g, b, a byte) {
	setCursor(p, uint16(pal*16+c)*2)
	p.WriteRegister(RegData, r<<4|g)
	p.WriteRegister(RegData, b<<4|a)
}

func pixel(p *PPU, x, y int) Color {
	o := (y*Width + x) * 4
	fb := p.Framebuffer()
	return Color{fb[o], fb[o+1], fb[o+2], fb[o+3]}
}

type busMem map[uint16]byte

func (m busMem) Read(addr uint16) byte { return m[addr] }

type countingMem struct {
	busMem
	reads int
}

func (m *countingMem) Read(addr uint16) byte {
	m.reads++
	return m.busMem[addr]
}

func TestAddressPortShiftsIn(t *testing.T) {
	p := New()
	p.WriteRegister(0x4, 0x34)
	p.WriteRegister(0x5, 0x92)
	if p.Cursor() != 0x9234 {
		t.Fatalf("cursor got %04X want 9234", p.Cursor())
	}
	p.WriteRegister(0x8, 0x01)
	p.WriteRegister(0x9, 0x02)
	if l := p.Layer(0); l.ScrollX != 0x0201 {
		t.Fatalf("scroll got %04X want 0201", l.ScrollX)
	}
}

func TestCursorStepRightWraps(t *testing.T) {
	p := New()
	setCursor(p, 0x8000)
	const n = RoomTiles + 5
	for k := 0; k < n; k++ {
		p.WriteRegister(RegData, byte(k))
	}
	room := &p.Layer(0).Rooms[0]
	for k := 0; k < RoomTiles; k++ {
		want := byte(k)
		if k < n-RoomTiles {
			want = byte(k + RoomTiles)
		}
		if room[k].Lo != want {
			t.Fatalf("offset %d got %02X want %02X", k, room[k].Lo, want)
		}
	}
	if p.Cursor() != 0x8005 {
		t.Fatalf("cursor got %04X want 8005", p.Cursor())
	}
}

func TestCursorStepModes(t *testing.T) {
	cases := []struct {
		name  string
		mode  byte
		start uint16
		want  uint16
	}{
		{"left from 0", StepLeft, 0x8000, 0x8000 + 1199},
		{"down", StepDown, 0x8000, 0x8000 + 40},
		{"down wrap exception", StepDown, 0x8000 | 0x4AF, 0x8000},
		{"down wraps to next column", StepDown, 0x8000 + 1160, 0x8000 + 1},
		{"up", StepUp, 0x8000 + 40, 0x8000},
		{"up wrap exception", StepUp, 0x8000, 0x8000 | 0x4AF},
		{"up wraps to previous column", StepUp, 0x8000 + 5, 0x8000 + 1164},
		{"room bits kept", StepRight, 0xD800 + 1199, 0xD800},
	}
	for _, tc := range cases {
		p := New()
		p.WriteRegister(RegControl, tc.mode)
		setCursor(p, tc.start)
		p.WriteRegister(RegData, 0xAB)
		if p.Cursor() != tc.want {
			t.Fatalf("%s: cursor got %04X want %04X", tc.name, p.Cursor(), tc.want)
		}
	}
}

func TestCursorReadSteps(t *testing.T) {
	p := New()
	p.Layer(1).Rooms[2][7].Hi = 0x5C
	// plane high, layer 1, room 2, offset 7
	setCursor(p, 0x8000|0x4000|0x2000|2<<11|7)
	if v := p.ReadRegister(RegData); v != 0x5C {
		t.Fatalf("read got %02X want 5C", v)
	}
	if p.Cursor()&0x7FF != 8 {
		t.Fatalf("cursor offset got %d want 8", p.Cursor()&0x7FF)
	}
}

func TestOffsetsPastRoomIgnored(t *testing.T) {
	p := New()
	setCursor(p, 0x8000+1300)
	p.WriteRegister(RegData, 0xFF)
	for r := range p.Layer(0).Rooms {
		for i, tl := range p.Layer(0).Rooms[r] {
			if tl != (Tile{}) {
				t.Fatalf("room %d tile %d modified", r, i)
			}
		}
	}
	setCursor(p, 0x8000+1300)
	if v := p.ReadRegister(RegData); v != 0 {
		t.Fatalf("read past room got %02X want 0", v)
	}
}

func TestPaletteNibblePacking(t *testing.T) {
	p := New()
	setColor(p, 3, 5, 0x1, 0x2, 0x3, 0x4)
	want := Color{0x11, 0x22, 0x33, 0x44}
	if got := p.Palette(3, 5); got != want {
		t.Fatalf("palette got %+v want %+v", got, want)
	}
	if p.Cursor() != (3*16+5)*2+2 {
		t.Fatalf("cursor got %04X want %04X", p.Cursor(), (3*16+5)*2+2)
	}
	if v := p.ReadRegister(RegData); v != 0 {
		t.Fatalf("palette read got %02X want 0", v)
	}
}

func TestSpriteDMAPlanes(t *testing.T) {
	mem := &countingMem{busMem: busMem{}}
	base := uint16(0x0300)
	i := uint16(9)
	mem.busMem[base+i*2] = 0xFC // X = -4
	mem.busMem[base+i*2+1] = 0xFF
	mem.busMem[base+0x100+i*2] = 0x10 // Y = 0x110
	mem.busMem[base+0x101+i*2] = 0x01
	mem.busMem[base+0x200+i*2] = 0x42
	mem.busMem[base+0x201+i*2] = 0xA6 // palette A, priority 1, char hi 2

	p := New()
	p.WriteRegister(0x6, byte(base))
	p.WriteRegister(0x7, byte(base>>8))
	p.DMA(mem)

	if mem.reads != Sprites*6 {
		t.Fatalf("bus reads got %d want %d", mem.reads, Sprites*6)
	}
	s := p.Sprite(9)
	if s.X() != -4 || s.Y() != 0x110 || s.Char() != 0x242 || s.Palette() != 0xA || s.Priority() != 1 {
		t.Fatalf("sprite got x=%d y=%d ch=%03X pal=%X pr=%d", s.X(), s.Y(), s.Char(), s.Palette(), s.Priority())
	}
}

func TestRenderClearsToFirstColor(t *testing.T) {
	p := New()
	setColor(p, 0, 0, 0x1, 0x2, 0x3, 0xF)
	p.Render(nil)
	want := Color{0x11, 0x22, 0x33, 0xFF}
	for _, xy := range [][2]int{{0, 0}, {319, 239}, {100, 50}} {
		if got := pixel(p, xy[0], xy[1]); got != want {
			t.Fatalf("pixel %v got %+v want %+v", xy, got, want)
		}
	}
}

func TestRenderPriorityOrder(t *testing.T) {
	p := New()
	setColor(p, 1, 0, 0xF, 0, 0, 0xF) // red: layer 1
	setColor(p, 2, 0, 0, 0xF, 0, 0xF) // green
	setColor(p, 3, 0, 0, 0, 0xF, 0xF) // blue
	for i := range p.Layer(0).Rooms[0] {
		p.Layer(0).Rooms[0][i].Hi = 0x10
	}

	mem := busMem{}
	const base = 0x0200
	mem[base+0x201] = 0x20 // sprite 0: green, priority 0, at 0,0
	mem[base+2] = 16       // sprite 1: blue, priority 1, at 16,0
	mem[base+0x203] = 0x34
	mem[base+10] = 32 // sprite 5: green, priority 2, at 32,0
	mem[base+0x20B] = 0x28

	p.WriteRegister(0x6, byte(base&0xFF))
	p.WriteRegister(0x7, byte(base>>8))
	p.WriteRegister(RegControl, CtrlSprites|CtrlLayer1)
	p.Render(mem)

	red := Color{0xFF, 0, 0, 0xFF}
	green := Color{0, 0xFF, 0, 0xFF}
	blue := Color{0, 0, 0xFF, 0xFF}
	if got := pixel(p, 0, 0); got != red {
		t.Fatalf("priority 0 sprite should be under layer 1: got %+v", got)
	}
	if got := pixel(p, 16, 0); got != blue {
		t.Fatalf("priority 1 sprite got %+v want blue", got)
	}
	if got := pixel(p, 32, 7); got != green {
		t.Fatalf("priority 2 sprite got %+v want green", got)
	}
	if got := pixel(p, 40, 0); got != red {
		t.Fatalf("background got %+v want red", got)
	}
}

func TestRenderAlphaBlend(t *testing.T) {
	p := New()
	setColor(p, 0, 0, 0, 0, 0, 0xF)     // opaque black
	setColor(p, 1, 0, 0xF, 0xF, 0xF, 8) // half white
	for i := range p.Layer(0).Rooms[0] {
		p.Layer(0).Rooms[0][i].Hi = 0x10
	}
	p.WriteRegister(RegControl, CtrlLayer1)
	p.Render(nil)
	want := Color{0x88, 0x88, 0x88, 0xFF}
	if got := pixel(p, 10, 10); got != want {
		t.Fatalf("blend got %+v want %+v", got, want)
	}
}

func TestRenderRoomSelectAndScroll(t *testing.T) {
	p := New()
	setColor(p, 2, 0, 0, 0xF, 0, 0xF)
	// tile 0 of room 1 (right half of the world), high plane
	setCursor(p, 0x8000|0x4000|1<<11)
	p.WriteRegister(RegData, 0x20)

	p.WriteRegister(RegRoom, 0x04)
	p.WriteRegister(RegControl, CtrlLayer1)
	p.WriteRegister(0x8, byte(330&0xFF))
	p.WriteRegister(0x9, byte(330>>8))
	p.Render(nil)

	if got := p.Layer(0).ScrollX; got != 10 {
		t.Fatalf("scroll after render got %d want 10", got)
	}
	// world x = 320 + 10, so tile 0 of room 1 starts 10 pixels left of the screen
	green := Color{0, 0xFF, 0, 0xFF}
	if got := pixel(p, 0, 0); got == green {
		t.Fatalf("pixel 0,0 should be past the selected tile")
	}
	p.Layer(0).ScrollX = 0
	p.Render(nil)
	for x := 0; x < 8; x++ {
		if got := pixel(p, x, 0); got != green {
			t.Fatalf("pixel %d,0 got %+v want green", x, got)
		}
	}
}

func TestRenderUsesCharacterGenerator(t *testing.T) {
	p := New()
	setColor(p, 4, 3, 0xF, 0xF, 0, 0xF)
	chars := make([]byte, CharWidth*CharHeight)
	// character 0x401, row 2, column 5
	chars[2*CharWidth+0x401*8+5] = 3
	p.LoadCharacters(chars)

	mem := busMem{0x0000: 100, 0x0100: 50, 0x0200: 0x01, 0x0201: 0x40}
	p.WriteRegister(RegControl, CtrlSprites|CtrlSpriteHigh)
	p.Render(mem)
	if got := pixel(p, 105, 52); got != (Color{0xFF, 0xFF, 0, 0xFF}) {
		t.Fatalf("sprite pixel got %+v want yellow", got)
	}
}

func TestPowerClearsVideoMemory(t *testing.T) {
	p := New()
	setColor(p, 7, 7, 1, 1, 1, 1)
	p.Layer(1).Rooms[3][100] = Tile{1, 2}
	p.DMA(busMem{0x0000: 5})
	p.Power()
	if p.Palette(7, 7) != (Color{}) || p.Layer(1).Rooms[3][100] != (Tile{}) || p.Sprite(0) != (Sprite{}) {
		t.Fatalf("power did not clear video memory")
	}
}

func TestStateRoundTrip(t *testing.T) {
	p := New()
	setColor(p, 2, 9, 1, 2, 3, 4)
	p.WriteRegister(RegControl, 0xC2)
	setCursor(p, 0x8123)
	p.Layer(0).Rooms[1][5] = Tile{9, 8}

	q := New()
	if err := q.LoadState(p.SaveState()); err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if q.Palette(2, 9) != p.Palette(2, 9) || q.Control() != 0xC2 || q.Cursor() != 0x8123 || q.Layer(0).Rooms[1][5] != (Tile{9, 8}) {
		t.Fatalf("state mismatch after round trip")
	}
}
