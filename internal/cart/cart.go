package cart

import "fmt"

// ParseError is a cartridge validation failure. Code is the number the
// diagnostic cartridge displays.
type ParseError struct {
	Code int
	Msg  string
}

func (e *ParseError) Error() string { return fmt.Sprintf("cart: %s (code %d)", e.Msg, e.Code) }

var (
	ErrTooSmall     = &ParseError{10, "file is too small"}
	ErrPRGTooLarge  = &ParseError{11, "PRG ROM too large"}
	ErrWaveTooLarge = &ParseError{12, "wave data too large"}
	ErrPRGMissing   = &ParseError{13, "PRG ROM segment is missing"}
	ErrCHRUnaligned = &ParseError{14, "CHR ROM contains unfinished data"}
	ErrCHRTooLarge  = &ParseError{15, "CHR ROM too large"}
	ErrSignature    = &ParseError{16, "invalid signature"}
	ErrWaveMissing  = &ParseError{17, "wave segment is missing"}
)

// Cartridge is a parsed cartridge image. The slices alias the input.
type Cartridge struct {
	Header
	PRG   []byte
	Waves []byte
	CHR   []byte // packed 4-bit pixels
}

// Parse validates a cartridge image and splits it into segments.
func Parse(data []byte) (*Cartridge, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	body := data[HeaderSize:]
	prgEnd := h.PRGBytes()
	waveEnd := prgEnd + h.WaveBytes()
	switch {
	case len(body) < prgEnd:
		return nil, ErrPRGMissing
	case len(body) < waveEnd:
		return nil, ErrWaveMissing
	}
	chr := body[waveEnd:]
	if len(chr)%32 != 0 {
		return nil, ErrCHRUnaligned
	}
	if len(chr) > MaxCHRBytes {
		return nil, ErrCHRTooLarge
	}
	return &Cartridge{
		Header: *h,
		PRG:    body[:prgEnd],
		Waves:  body[prgEnd:waveEnd],
		CHR:    chr,
	}, nil
}

// Characters decodes the CHR segment into character generator pixels.
func (c *Cartridge) Characters() []byte { return DecodeCHR(c.CHR) }

// Build assembles a cartridge image. PRG and wave data are padded to whole
// units; chr is used as is.
func Build(prg, waves, chr []byte, saveRAM bool) []byte {
	h := Header{
		PRGUnits:  uint16((len(prg) + PRGUnit - 1) / PRGUnit),
		WaveUnits: byte((len(waves) + WaveUnit - 1) / WaveUnit),
		SaveRAM:   saveRAM,
	}
	out := h.encode()
	out = append(out, pad(prg, h.PRGBytes())...)
	out = append(out, pad(waves, h.WaveBytes())...)
	return append(out, chr...)
}

func pad(b []byte, n int) []byte {
	out := make([]byte, n)
	copy(out, b)
	return out
}
