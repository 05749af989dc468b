package cart

// Character generator geometry: 2048 characters of 8x8 side by side.
const (
	CharSheetWidth  = 16384
	CharSheetHeight = 8
)

// DecodeCHR unpacks CHR bytes into a CharSheetWidth x CharSheetHeight
// surface of palette indices. Each 32-byte block is one character; each
// byte holds two horizontal pixels, high nibble first.
func DecodeCHR(chr []byte) []byte {
	pix := make([]byte, CharSheetWidth*CharSheetHeight)
	for t, d := range chr {
		if t >= MaxCHRBytes {
			break
		}
		x := (t&3)<<1 + (t>>5)<<3
		y := (t >> 2) & 7
		pix[y*CharSheetWidth+x] = d >> 4
		pix[y*CharSheetWidth+x+1] = d & 15
	}
	return pix
}

// EncodeCHR packs the first n characters of a decoded surface.
func EncodeCHR(pix []byte, n int) []byte {
	chr := make([]byte, n*32)
	for t := range chr {
		x := (t&3)<<1 + (t>>5)<<3
		y := (t >> 2) & 7
		o := y*CharSheetWidth + x
		chr[t] = pix[o]<<4 | pix[o+1]&15
	}
	return chr
}
