package frame

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func checker(w, h int) []byte {
	pix := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			o := (y*w + x) * 4
			if (x+y)&1 == 0 {
				pix[o], pix[o+1], pix[o+2] = 0xFF, 0xFF, 0xFF
			}
			pix[o+3] = 0xFF
		}
	}
	return pix
}

func TestScaleNearestNeighbour(t *testing.T) {
	img := Scale(Image(checker(2, 2), 2, 2), 3)
	if b := img.Bounds(); b.Dx() != 6 || b.Dy() != 6 {
		t.Fatalf("bounds got %v want 6x6", b)
	}
	for y := 0; y < 6; y++ {
		for x := 0; x < 6; x++ {
			want := uint8(0)
			if (x/3+y/3)&1 == 0 {
				want = 0xFF
			}
			if got := img.RGBAAt(x, y).R; got != want {
				t.Fatalf("pixel (%d,%d) got %02X want %02X", x, y, got, want)
			}
		}
	}
}

func TestWritePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.png")
	if err := WritePNG(path, checker(4, 3), 4, 3, 2); err != nil {
		t.Fatalf("WritePNG: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 8 || b.Dy() != 6 {
		t.Fatalf("bounds got %v want 8x6", b)
	}
}

func TestMatchChecksum(t *testing.T) {
	sum := Checksum([]byte("x65"))
	hex := fmt.Sprintf("%08x", sum)
	for _, in := range []string{hex, "0x" + hex, " 0X" + strings.ToUpper(hex)} {
		if err := MatchChecksum(sum, in); err != nil {
			t.Fatalf("MatchChecksum(%q): %v", in, err)
		}
	}
	if MatchChecksum(sum, "00000000") == nil && sum != 0 {
		t.Fatalf("wrong checksum matched")
	}
}
