package cart

// ErrorCodeAddr is the work RAM byte the diagnostic cartridge reports.
const ErrorCodeAddr = 0x3F00

// opcodes used by the diagnostic program
const (
	opCLF   = 0x47
	opSEI   = 0x37
	opCLC   = 0x07
	opLTA8  = 0x71 // LTA #imm8
	opLTB8  = 0x91 // LTB #imm8
	opLTDa  = 0xE5 // LTD abs
	opSTDa  = 0xE6 // STD abs
	opADC8  = 0x12 // ADC #imm8
	opDIV   = 0xC0
	opMOD   = 0xE0
	opBRA   = 0xCF
	opRTI   = 0x40
	regData = 0x4000
	regCtrl = 0x4002
	regVLo  = 0x4004
	regVHi  = 0x4005
)

type program []byte

func (p *program) emit(b ...byte) { *p = append(*p, b...) }

func (p *program) storeImm(addr uint16, v byte) {
	p.emit(opLTA8, v)
	p.emit(opSTDa, byte(addr), byte(addr>>8))
}

func (p *program) putChar(c byte) { p.storeImm(regData, c) }

// putDigit writes the decimal digit (code / div) % 10 of the byte at
// ErrorCodeAddr. B must hold 10.
func (p *program) putDigit(tens bool) {
	p.emit(opLTA8, 0)
	p.emit(opLTDa, ErrorCodeAddr&0xFF, ErrorCodeAddr>>8)
	if tens {
		p.emit(opDIV)
	}
	p.emit(opMOD)
	p.emit(opCLC)
	p.emit(opADC8, '0')
	p.emit(opSTDa, regData&0xFF, regData>>8)
}

// Diagnostic returns a cartridge image whose program prints "ERROR nn"
// in the middle of the screen, nn being the byte at ErrorCodeAddr.
func Diagnostic() []byte {
	var p program
	p.emit(opCLF, opSEI)

	// palette 0: color 0 opaque black, color 1 opaque white
	p.storeImm(regVLo, 0x00)
	p.storeImm(regVHi, 0x00)
	p.putChar(0x00)
	p.putChar(0x0F)
	p.putChar(0xFF)
	p.putChar(0xFF)

	// step right, layers off while drawing
	p.storeImm(regCtrl, 0x00)

	// layer 1, room 0, row 14, column 16
	const at = 0x8000 + 14*40 + 16
	p.storeImm(regVLo, at&0xFF)
	p.storeImm(regVHi, at>>8)
	for _, c := range []byte("ERROR ") {
		p.putChar(c)
	}
	p.emit(opLTB8, 10)
	p.putDigit(true)
	p.putDigit(false)

	p.storeImm(regCtrl, 0x20)
	p.emit(opBRA, 0xFE)

	rti := uint16(0x8000 + len(p))
	p.emit(opRTI)

	prg := make([]byte, PRGUnit)
	copy(prg, p)
	// vectors in the last window, which also maps bank 0
	putWord(prg, 0xFFA, rti) // IRQ
	putWord(prg, 0xFFC, 0x8000)
	putWord(prg, 0xFFE, rti) // NMI

	return Build(prg, nil, EncodeCHR(fontSheet(), fontChars), false)
}

func putWord(b []byte, off int, v uint16) {
	b[off] = byte(v)
	b[off+1] = byte(v >> 8)
}

// fontChars covers ASCII up to 'Z'.
const fontChars = 'Z' + 1

// 5x7 glyphs, bit 7 is the leftmost pixel.
var glyphs = map[byte][7]byte{
	'0': {0x70, 0x88, 0x98, 0xA8, 0xC8, 0x88, 0x70},
	'1': {0x20, 0x60, 0x20, 0x20, 0x20, 0x20, 0x70},
	'2': {0x70, 0x88, 0x08, 0x10, 0x20, 0x40, 0xF8},
	'3': {0xF8, 0x10, 0x20, 0x10, 0x08, 0x88, 0x70},
	'4': {0x10, 0x30, 0x50, 0x90, 0xF8, 0x10, 0x10},
	'5': {0xF8, 0x80, 0xF0, 0x08, 0x08, 0x88, 0x70},
	'6': {0x30, 0x40, 0x80, 0xF0, 0x88, 0x88, 0x70},
	'7': {0xF8, 0x08, 0x10, 0x20, 0x40, 0x40, 0x40},
	'8': {0x70, 0x88, 0x88, 0x70, 0x88, 0x88, 0x70},
	'9': {0x70, 0x88, 0x88, 0x78, 0x08, 0x10, 0x60},
	'E': {0xF8, 0x80, 0x80, 0xF0, 0x80, 0x80, 0xF8},
	'O': {0x70, 0x88, 0x88, 0x88, 0x88, 0x88, 0x70},
	'R': {0xF0, 0x88, 0x88, 0xF0, 0xA0, 0x90, 0x88},
	'?': {0x70, 0x88, 0x08, 0x10, 0x20, 0x00, 0x20},
}

// fontSheet draws the glyphs into a decoded character surface using
// palette color 1; the character index is the ASCII code.
func fontSheet() []byte {
	pix := make([]byte, CharSheetWidth*CharSheetHeight)
	for c, rows := range glyphs {
		for y, bits := range rows {
			for x := 0; x < 8; x++ {
				if bits&(0x80>>x) != 0 {
					pix[y*CharSheetWidth+int(c)*8+x] = 1
				}
			}
		}
	}
	return pix
}
