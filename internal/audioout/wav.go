package audioout

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAVRecorder writes pulled samples to a 16-bit stereo PCM WAV file. The
// header sizes are finalized on Close.
type WAVRecorder struct {
	f    *os.File
	enc  *wav.Encoder
	buf  *audio.IntBuffer
	mix  []uint16
	rate int
}

func NewWAVRecorder(path string, sampleRate int) (*WAVRecorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("wav: %w", err)
	}
	return &WAVRecorder{
		f:   f,
		enc: wav.NewEncoder(f, sampleRate, 16, 2, 1),
		buf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: 2, SampleRate: sampleRate},
			SourceBitDepth: 16,
		},
		rate: sampleRate,
	}, nil
}

// Record pulls the given number of stereo frames from src and appends them.
func (w *WAVRecorder) Record(src Source, frames int) error {
	if cap(w.mix) < frames*2 {
		w.mix = make([]uint16, frames*2)
	}
	mix := w.mix[:frames*2]
	src.Fill(mix)
	return w.Write(mix)
}

// Write appends interleaved left/right mix samples.
func (w *WAVRecorder) Write(mix []uint16) error {
	data := w.buf.Data[:0]
	for _, v := range mix {
		data = append(data, int(ToPCM(v)))
	}
	w.buf.Data = data
	if err := w.enc.Write(w.buf); err != nil {
		return fmt.Errorf("wav: %w", err)
	}
	return nil
}

func (w *WAVRecorder) SampleRate() int { return w.rate }

func (w *WAVRecorder) Close() error {
	if err := w.enc.Close(); err != nil {
		w.f.Close()
		return fmt.Errorf("wav: %w", err)
	}
	return w.f.Close()
}
