package watermark

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// ErrImageDecode is returned when a source image cannot be read or decoded.
var ErrImageDecode = errors.New("image decode failed")

// SupportedExtensions are the file extensions accepted into a session.
// Matching is case-insensitive.
var SupportedExtensions = []string{".png", ".jpg", ".jpeg", ".bmp", ".tif", ".tiff", ".xpm"}

// SupportedExtension reports whether path has one of SupportedExtensions.
func SupportedExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range SupportedExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// EncodeOptions control how images are written.
type EncodeOptions struct {
	JPEGQuality int
	// Background replaces transparency for formats without alpha.
	Background color.NRGBA
}

// DefaultEncodeOptions keeps JPEG output at full quality on white.
func DefaultEncodeOptions() EncodeOptions {
	return EncodeOptions{JPEGQuality: 100, Background: color.NRGBA{255, 255, 255, 255}}
}

// Open decodes the image at path. Any failure wraps ErrImageDecode.
func Open(path string) (image.Image, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrImageDecode, path, err)
	}
	return img, nil
}

// FormatFor picks the output format from the file extension.
func FormatFor(path string) (imaging.Format, error) {
	return imaging.FormatFromFilename(path)
}

// Encode writes img to w. JPEG output is flattened onto opts.Background.
func Encode(w io.Writer, img image.Image, format imaging.Format, opts EncodeOptions) error {
	switch format {
	case imaging.JPEG:
		quality := opts.JPEGQuality
		if quality <= 0 || quality > 100 {
			quality = 100
		}
		return jpeg.Encode(w, flattenToRGB(img, opts.Background), &jpeg.Options{Quality: quality})
	case imaging.PNG:
		return png.Encode(w, img)
	default:
		return imaging.Encode(w, img, format)
	}
}

// SaveImage writes img to path, creating parent directories and replacing
// any existing file.
func SaveImage(img image.Image, path string, opts EncodeOptions) error {
	format, err := FormatFor(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(out, img, format, opts); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func flattenToRGB(img image.Image, bg color.NRGBA) image.Image {
	if bg.A == 0 {
		bg = color.NRGBA{255, 255, 255, 255}
	}
	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, &image.Uniform{C: bg}, image.Point{}, draw.Src)
	draw.Draw(rgba, bounds, img, bounds.Min, draw.Over)
	return rgba
}
