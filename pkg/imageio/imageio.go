// Package imageio converts rendered color buffers to images and writes them
// in the format named by the output file's extension.
package imageio

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/df07/go-recursive-raytracer/pkg/core"
)

// ErrUnsupportedFormat is returned for output extensions with no encoder
var ErrUnsupportedFormat = errors.New("unsupported image format")

// ChannelByte converts an encoded channel to a byte: round(255.99*c) clamped to [0,255]
func ChannelByte(c float64) uint8 {
	if math.IsNaN(c) {
		return 0
	}
	return uint8(max(0, min(255, math.Round(255.99*c))))
}

// ToRGBA converts a row-major, top-row-first color buffer into an opaque image
func ToRGBA(pixels []core.Color, width, height int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 || len(pixels) != width*height {
		return nil, fmt.Errorf("pixel buffer of %d colors does not match %dx%d", len(pixels), width, height)
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := pixels[y*width+x]
			img.SetRGBA(x, y, color.RGBA{
				R: ChannelByte(c.R),
				G: ChannelByte(c.G),
				B: ChannelByte(c.B),
				A: 255,
			})
		}
	}
	return img, nil
}

// FormatFromPath returns the encoder name for a file extension
func FormatFromPath(path string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png":
		return "png", nil
	case ".jpg", ".jpeg":
		return "jpeg", nil
	case ".bmp":
		return "bmp", nil
	case ".tif", ".tiff":
		return "tiff", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// Encode writes img to w in the named format
func Encode(w io.Writer, img image.Image, format string) error {
	switch format {
	case "png":
		return png.Encode(w, img)
	case "jpeg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 95})
	case "bmp":
		return bmp.Encode(w, img)
	case "tiff":
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// Save writes img to path, creating parent directories as needed
func Save(path string, img image.Image) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := Encode(file, img, format); err != nil {
		file.Close()
		return fmt.Errorf("failed to encode %s: %w", format, err)
	}
	return file.Close()
}

// SavePixels converts a color buffer and saves it
func SavePixels(path string, pixels []core.Color, width, height int) error {
	img, err := ToRGBA(pixels, width, height)
	if err != nil {
		return err
	}
	return Save(path, img)
}
