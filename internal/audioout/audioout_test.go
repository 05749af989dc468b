package audioout

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/wav"
)

// rampSource yields an increasing counter on the left and its
// complement on the right.
type rampSource struct{ n uint16 }

func (r *rampSource) Fill(buf []uint16) int {
	for i := 0; i+1 < len(buf); i += 2 {
		buf[i], buf[i+1] = r.n, ^r.n
		r.n++
	}
	return len(buf) / 2
}

func TestToPCM(t *testing.T) {
	cases := []struct {
		in   uint16
		want int16
	}{
		{0x0000, -32768},
		{0x8000, 0},
		{0xFFFF, 32767},
		{0x8001, 1},
	}
	for _, c := range cases {
		if got := ToPCM(c.in); got != c.want {
			t.Fatalf("ToPCM(%04X) got %d want %d", c.in, got, c.want)
		}
	}
}

func TestStreamReadsFrames(t *testing.T) {
	s := NewStream(&rampSource{n: 0x8000})
	p := make([]byte, 10) // two frames plus a partial
	if n, err := s.Read(p); n != 10 || err != nil {
		t.Fatalf("Read got %d, %v", n, err)
	}
	want := []int16{0, ToPCM(0x7FFF), 1, ToPCM(0x7FFE)}
	for i, w := range want {
		if got := int16(binary.LittleEndian.Uint16(p[i*2:])); got != w {
			t.Fatalf("sample %d got %d want %d", i, got, w)
		}
	}
	if p[8] != 0 || p[9] != 0 {
		t.Fatalf("partial frame not zeroed: % X", p[8:])
	}
}

func TestStreamMuted(t *testing.T) {
	src := &rampSource{n: 5}
	s := NewStream(src)
	s.SetMuted(true)
	p := []byte{1, 2, 3, 4}
	s.Read(p)
	if p[0]|p[1]|p[2]|p[3] != 0 || src.n != 5 {
		t.Fatalf("muted read got % X, source advanced to %d", p, src.n)
	}
}

// muteOnFill mutes its stream from inside Fill, as a UI toggle racing
// the audio callback would.
type muteOnFill struct{ s *Stream }

func (m *muteOnFill) Fill(buf []uint16) int {
	m.s.SetMuted(true)
	clear(buf)
	return len(buf) / 2
}

func TestSetMutedDuringRead(t *testing.T) {
	src := &muteOnFill{}
	s := NewStream(src)
	src.s = s
	done := make(chan struct{})
	go func() {
		s.Read(make([]byte, 8))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Read blocked while SetMuted was called")
	}
	p := []byte{1, 2, 3, 4}
	s.Read(p)
	if p[0]|p[1]|p[2]|p[3] != 0 {
		t.Fatalf("read after mute got % X", p)
	}
}

func TestWAVRecorder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	w, err := NewWAVRecorder(path, 22050)
	if err != nil {
		t.Fatalf("NewWAVRecorder: %v", err)
	}
	src := &rampSource{n: 0x8000}
	if err := w.Record(src, 100); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := w.Record(src, 50); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		t.Fatalf("not a valid wav file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("FullPCMBuffer: %v", err)
	}
	if dec.SampleRate != 22050 || dec.NumChans != 2 || dec.BitDepth != 16 {
		t.Fatalf("format got %d Hz %d ch %d bit", dec.SampleRate, dec.NumChans, dec.BitDepth)
	}
	if len(buf.Data) != 300 {
		t.Fatalf("samples got %d want 300", len(buf.Data))
	}
	if buf.Data[0] != 0 || buf.Data[2] != 1 || buf.Data[299] != int(ToPCM(^uint16(0x8000+149))) {
		t.Fatalf("sample values got %d %d %d", buf.Data[0], buf.Data[2], buf.Data[299])
	}
}
