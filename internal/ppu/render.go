package ppu

// Render produces one frame. When sprites are enabled the sprite table is
// first fetched from src through the bus. The frame is cleared to palette
// 0 color 0, then composited in priority order:
//
//	sprites(0) -> layer 1 -> sprites(1) -> layer 2 -> sprites(2)
//
// Each step draws into a scratch surface that is blended onto the frame
// with source-over alpha. The scratch surface is not cleared between
// steps, so a disabled layer leaves earlier pixels in place.
func (p *PPU) Render(src DMASource) {
	spritesOn := p.control&CtrlSprites != 0
	if spritesOn && src != nil {
		p.DMA(src)
	}

	var sorted [3][]int
	for i := range p.sprites {
		pr := p.sprites[i].Priority()
		if pr > 2 {
			pr = 2
		}
		sorted[pr] = append(sorted[pr], i)
	}

	for l := range p.layers {
		p.layers[l].ScrollX %= Width
		p.layers[l].ScrollY %= Height
	}

	bg := p.palettes[0][0]
	for i := 0; i < len(p.fb); i += 4 {
		p.fb[i], p.fb[i+1], p.fb[i+2], p.fb[i+3] = bg.R, bg.G, bg.B, bg.A
	}
	clear(p.scratch)

	if spritesOn {
		p.drawSprites(sorted[0])
		p.composite()
	}
	if p.control&CtrlLayer1 != 0 {
		p.drawLayer(&p.layers[0])
		p.composite()
	}
	if spritesOn {
		p.drawSprites(sorted[1])
		p.composite()
	}
	if p.control&CtrlLayer2 != 0 {
		p.drawLayer(&p.layers[1])
		p.composite()
	}
	if spritesOn {
		p.drawSprites(sorted[2])
		p.composite()
	}
}

// drawLayer maps scroll and room select into the 80x60 tile world and
// draws the 41x31 tiles that cover the screen.
func (p *PPU) drawLayer(l *Layer) {
	sx := int(l.ScrollX)
	sy := int(l.ScrollY)
	if l.RoomX {
		sx += Width
	}
	if l.RoomY {
		sy += Height
	}
	for y := 0; y < RoomRows+1; y++ {
		for x := 0; x < RoomCols+1; x++ {
			tx := (x + sx>>3) % (RoomCols * 2)
			ty := (y + sy>>3) % (RoomRows * 2)
			t := l.Rooms[room(tx, ty)][(ty%RoomRows)*RoomCols+tx%RoomCols]
			p.drawChar(int(t.Char()), t.Palette(), x<<3-sx&7, y<<3-sy&7)
		}
	}
}

func room(tx, ty int) int {
	r := 0
	if tx >= RoomCols {
		r |= 1
	}
	if ty >= RoomRows {
		r |= 2
	}
	return r
}

func (p *PPU) drawSprites(idx []int) {
	high := 0
	if p.control&CtrlSpriteHigh != 0 {
		high = 0x400
	}
	for _, i := range idx {
		s := p.sprites[i]
		p.drawChar(int(s.Char())|high, s.Palette(), s.X(), s.Y())
	}
}

// drawChar copies one 8x8 character into the scratch surface, alpha
// included, clipped to the screen.
func (p *PPU) drawChar(ch int, pal byte, dx, dy int) {
	colors := &p.palettes[pal&15]
	srcX := (ch & 0x7FF) << 3
	for y := 0; y < 8; y++ {
		py := dy + y
		if py < 0 || py >= Height {
			continue
		}
		row := p.chars[y*CharWidth+srcX : y*CharWidth+srcX+8]
		for x := 0; x < 8; x++ {
			px := dx + x
			if px < 0 || px >= Width {
				continue
			}
			c := colors[row[x]&15]
			o := (py*Width + px) * 4
			p.scratch[o], p.scratch[o+1], p.scratch[o+2], p.scratch[o+3] = c.R, c.G, c.B, c.A
		}
	}
}

// composite blends the scratch surface over the frame.
func (p *PPU) composite() {
	for i := 0; i < len(p.fb); i += 4 {
		a := uint32(p.scratch[i+3])
		switch a {
		case 0:
			continue
		case 0xFF:
			copy(p.fb[i:i+4], p.scratch[i:i+4])
			continue
		}
		inv := 0xFF - a
		for c := 0; c < 3; c++ {
			p.fb[i+c] = byte((uint32(p.scratch[i+c])*a + uint32(p.fb[i+c])*inv) / 0xFF)
		}
		p.fb[i+3] = byte(a + uint32(p.fb[i+3])*inv/0xFF)
	}
}
