// Package frame turns video unit framebuffers into images, PNG files and
// checksums.
package frame

import (
	"fmt"
	"hash/crc32"
	"image"
	"image/png"
	"os"
	"strings"

	"golang.org/x/image/draw"
)

// Image copies an RGBA framebuffer of w x h pixels into an image.
func Image(pix []byte, w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	copy(img.Pix, pix)
	return img
}

// Scale returns src enlarged by an integer factor with nearest-neighbour
// sampling. Factors below 2 return src unchanged.
func Scale(src *image.RGBA, factor int) *image.RGBA {
	if factor < 2 {
		return src
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

// WritePNG encodes the framebuffer, scaled by factor, to path.
func WritePNG(path string, pix []byte, w, h, factor int) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("write png: %w", cerr)
		}
	}()
	return png.Encode(f, Scale(Image(pix, w, h), factor))
}

// Checksum is the CRC32 (IEEE) of the raw framebuffer bytes.
func Checksum(pix []byte) uint32 { return crc32.ChecksumIEEE(pix) }

// MatchChecksum compares a checksum with an expected hex string; a 0x
// prefix and either case are accepted.
func MatchChecksum(sum uint32, want string) error {
	w := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(want)), "0x")
	if got := fmt.Sprintf("%08x", sum); got != w {
		return fmt.Errorf("checksum mismatch: got %s, want %s", got, w)
	}
	return nil
}
