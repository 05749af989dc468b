// Package audioout moves mixed audio unit samples to host outputs: a PCM
// byte stream, a real-time oto player and a WAV recorder.
package audioout

import (
	"encoding/binary"
	"sync/atomic"
)

// Source produces interleaved left/right samples in the audio unit's
// unsigned 16-bit mix format.
type Source interface {
	Fill(buf []uint16) int
}

// ToPCM converts an unsigned mix value to signed 16-bit PCM.
func ToPCM(v uint16) int16 { return int16(int32(v) - 0x8000) }

// Stream is an io.Reader of signed 16-bit little-endian stereo frames
// pulled from a Source. Partial frames at the end of p are zero-filled.
// Read belongs to the audio goroutine; SetMuted may be called from any.
type Stream struct {
	src Source

	buf   []uint16
	muted atomic.Bool
}

func NewStream(src Source) *Stream { return &Stream{src: src} }

// SetMuted makes Read return silence without advancing the source.
func (s *Stream) SetMuted(on bool) { s.muted.Store(on) }

func (s *Stream) Read(p []byte) (int, error) {
	frames := len(p) / 4
	if s.muted.Load() || frames == 0 {
		clear(p)
		return len(p), nil
	}
	if cap(s.buf) < frames*2 {
		s.buf = make([]uint16, frames*2)
	}
	buf := s.buf[:frames*2]
	s.src.Fill(buf)
	for i, v := range buf {
		binary.LittleEndian.PutUint16(p[i*2:], uint16(ToPCM(v)))
	}
	clear(p[frames*4:])
	return len(p), nil
}
