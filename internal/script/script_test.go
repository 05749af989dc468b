package script

import (
	"os"
	"path/filepath"
	"testing"
)

type fakeHost struct {
	mem    [0x10000]byte
	pads   [2]uint16
	frames uint64
}

func (h *fakeHost) Peek(addr uint16) byte     { return h.mem[addr] }
func (h *fakeHost) Poke(addr uint16, v byte)  { h.mem[addr] = v }
func (h *fakeHost) SetPad(n int, mask uint16) { h.pads[n] = mask }
func (h *fakeHost) Frames() uint64            { return h.frames }

func TestPeekPoke(t *testing.T) {
	h := &fakeHost{}
	h.mem[0x10] = 41
	e := New(h)
	defer e.Close()
	if err := e.DoString(`poke(0x20, peek(0x10) + 1)`); err != nil {
		t.Fatalf("DoString: %v", err)
	}
	if h.mem[0x20] != 42 {
		t.Fatalf("mem[20] got %d want 42", h.mem[0x20])
	}
}

func TestPadNumbering(t *testing.T) {
	h := &fakeHost{}
	e := New(h)
	defer e.Close()
	if err := e.DoString(`pad(2, 0x480)`); err != nil {
		t.Fatalf("DoString: %v", err)
	}
	if h.pads[1] != 0x480 || h.pads[0] != 0 {
		t.Fatalf("pads got %03X/%03X", h.pads[0], h.pads[1])
	}
	if err := e.DoString(`pad(3, 1)`); err == nil {
		t.Fatalf("pad 3 accepted")
	}
}

func TestOnFrameAndStop(t *testing.T) {
	h := &fakeHost{}
	path := filepath.Join(t.TempDir(), "auto.lua")
	src := `
on_frame(function(n)
  poke(0x100, n)
  if n >= 3 then stop() end
end)
`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	e, err := Load(path, h)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer e.Close()
	for h.frames = 1; !e.Stopped(); h.frames++ {
		if err := e.Frame(); err != nil {
			t.Fatalf("Frame: %v", err)
		}
		if h.frames > 10 {
			t.Fatalf("script never stopped")
		}
	}
	if h.mem[0x100] != 3 {
		t.Fatalf("last frame seen got %d want 3", h.mem[0x100])
	}
}

func TestFrameErrorsPropagate(t *testing.T) {
	e := New(&fakeHost{})
	defer e.Close()
	if err := e.DoString(`on_frame(function() error("boom") end)`); err != nil {
		t.Fatal(err)
	}
	if err := e.Frame(); err == nil {
		t.Fatalf("handler error was swallowed")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "none.lua"), &fakeHost{}); err == nil {
		t.Fatalf("missing script loaded")
	}
}
