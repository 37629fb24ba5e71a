package cache

import (
	"fmt"
	"image"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Key identifies one analyzed content state. Two different file contents
// under the same path never share a key because the modification time is
// part of it. Images with no backing file fall back to a content hash.
type Key string

// KeyForFile builds a key from a path and its modification time.
func KeyForFile(path string, modTime time.Time) Key {
	return Key(fmt.Sprintf("file:%s@%d", path, modTime.UnixNano()))
}

// KeyForImage builds a content-hash key for a pathless image by hashing the
// raw pixel bytes. Falls back to re-sampling through the generic interface
// when the decoded representation does not expose its backing buffer.
func KeyForImage(img image.Image) Key {
	d := xxhash.New()
	switch pix := img.(type) {
	case *image.RGBA:
		_, _ = d.Write(pix.Pix)
	case *image.NRGBA:
		_, _ = d.Write(pix.Pix)
	case *image.Gray:
		_, _ = d.Write(pix.Pix)
	case *image.YCbCr:
		_, _ = d.Write(pix.Y)
		_, _ = d.Write(pix.Cb)
		_, _ = d.Write(pix.Cr)
	default:
		bounds := img.Bounds()
		var buf [8]byte
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				r, g, b, a := img.At(x, y).RGBA()
				buf[0], buf[1] = byte(r>>8), byte(r)
				buf[2], buf[3] = byte(g>>8), byte(g)
				buf[4], buf[5] = byte(b>>8), byte(b)
				buf[6], buf[7] = byte(a>>8), byte(a)
				_, _ = d.Write(buf[:])
			}
		}
	}
	return Key(fmt.Sprintf("content:%016x", d.Sum64()))
}
