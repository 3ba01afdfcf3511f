package resource

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/anthonynsimon/bild/clone"
	"github.com/anthonynsimon/bild/transform"
	"github.com/richinsley/twinscreen/gpu"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Image is decoded pixel data ready for upload, bottom row first.
type Image struct {
	Width, Height int
	Format        gpu.PixelFormat
	Pix           []byte
}

// Decoder turns an encoded byte stream into an Image.
type Decoder interface {
	Decode(r io.Reader) (*Image, error)
}

// ImageDecoder handles png, jpeg, gif, bmp, tiff and webp. Output is RGBA
// flipped vertically so row 0 is the bottom of the picture, as GL expects.
type ImageDecoder struct{}

func (ImageDecoder) Decode(r io.Reader) (*Image, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("%s image has no pixels", format)
	}
	rgba := transform.FlipV(clone.AsRGBA(img))
	return &Image{
		Width:  b.Dx(),
		Height: b.Dy(),
		Format: gpu.RGBA,
		Pix:    tightPix(rgba),
	}, nil
}

// tightPix drops any row padding so rows are exactly Width*4 bytes.
func tightPix(img *image.RGBA) []byte {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if img.Stride == w*4 {
		return img.Pix[:w*h*4]
	}
	out := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		copy(out[y*w*4:(y+1)*w*4], img.Pix[y*img.Stride:])
	}
	return out
}
