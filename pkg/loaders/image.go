package loaders

import (
	"fmt"
	"image"
	_ "image/jpeg" // JPEG decoder
	_ "image/png"  // PNG decoder
	"io"
	"os"

	_ "golang.org/x/image/bmp"  // BMP decoder
	_ "golang.org/x/image/tiff" // TIFF decoder
)

// ImageData is a decoded image with 8-bit RGB pixels, row 0 at the top.
// It satisfies material.PixelSource.
type ImageData struct {
	W      int
	H      int
	Pixels [][3]uint8 // Row-major
	Format string     // Decoder that produced it: png, jpeg, bmp or tiff
}

// Width returns the image width in pixels
func (d *ImageData) Width() int { return d.W }

// Height returns the image height in pixels
func (d *ImageData) Height() int { return d.H }

// PixelAt returns the pixel at (x, y)
func (d *ImageData) PixelAt(x, y int) (uint8, uint8, uint8) {
	p := d.Pixels[y*d.W+x]
	return p[0], p[1], p[2]
}

// LoadImage loads a PNG, JPEG, BMP or TIFF image file
func LoadImage(filename string) (*ImageData, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}
	defer file.Close()

	data, err := DecodeImage(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return data, nil
}

// DecodeImage decodes any registered image format, detected from the header
func DecodeImage(r io.Reader) (*ImageData, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("failed to decode image: empty %s image", format)
	}
	pixels := make([][3]uint8, width*height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			// RGBA returns 16-bit channels; keep the high byte
			pixels[y*width+x] = [3]uint8{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)}
		}
	}

	return &ImageData{
		W:      width,
		H:      height,
		Pixels: pixels,
		Format: format,
	}, nil
}
