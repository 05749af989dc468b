package cart

import "encoding/binary"

const (
	HeaderSize = 0x10
	PRGUnit    = 0x1000 // bytes per PRG size unit
	WaveUnit   = 0x100  // bytes per wave size unit

	MaxPRGUnits  = 0x100
	MaxWaveUnits = 0x80
	MaxCHRBytes  = 0x10000
)

var signature = [4]byte{'x', '6', '5', 0}

// Header is the fixed 16-byte cartridge header.
type Header struct {
	PRGUnits  uint16 // bytes 4-5, little-endian
	WaveUnits byte   // byte 6
	SaveRAM   bool   // byte 7
}

func (h Header) PRGBytes() int  { return int(h.PRGUnits) * PRGUnit }
func (h Header) WaveBytes() int { return int(h.WaveUnits) * WaveUnit }

// ParseHeader validates size, signature and segment limits.
func ParseHeader(data []byte) (*Header, error) {
	if len(data) < HeaderSize {
		return nil, ErrTooSmall
	}
	if [4]byte(data[0:4]) != signature {
		return nil, ErrSignature
	}
	h := &Header{
		PRGUnits:  binary.LittleEndian.Uint16(data[4:6]),
		WaveUnits: data[6],
		SaveRAM:   data[7] != 0,
	}
	if h.PRGUnits > MaxPRGUnits {
		return nil, ErrPRGTooLarge
	}
	if h.WaveUnits > MaxWaveUnits {
		return nil, ErrWaveTooLarge
	}
	return h, nil
}

func (h Header) encode() []byte {
	b := make([]byte, HeaderSize)
	copy(b, signature[:])
	binary.LittleEndian.PutUint16(b[4:6], h.PRGUnits)
	b[6] = h.WaveUnits
	if h.SaveRAM {
		b[7] = 1
	}
	return b
}
