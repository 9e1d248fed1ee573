// Package texture loads color images draped over the terrain.
package texture

import (
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/aukilabs/go-tooling/pkg/errors"
	_ "github.com/ftrvxmtrx/tga"
	_ "golang.org/x/image/bmp"
)

const ErrTypeDecode = "texture_decode"

// LoadTexture reads a TGA, PNG, JPEG or BMP file and returns an NRGBA image.
func LoadTexture(path string) (*image.NRGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New("opening texture failed").
			WithTag("path", path).
			Wrap(err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.New("decoding texture failed").
			WithType(ErrTypeDecode).
			WithTag("path", path).
			Wrap(err)
	}
	return ToNRGBA(img), nil
}

// ToNRGBA converts any image to NRGBA with its bounds moved to the origin.
func ToNRGBA(src image.Image) *image.NRGBA {
	b := src.Bounds()
	if n, ok := src.(*image.NRGBA); ok && b.Min == (image.Point{}) {
		return n
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}
