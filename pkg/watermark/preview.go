package watermark

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// PreviewTransform maps between a letterboxed preview and the original image.
// It is rebuilt every time the preview is drawn.
type PreviewTransform struct {
	// Scale is original width divided by displayed width.
	Scale float64
	// Offset is the letterbox padding inside the preview box.
	Offset image.Point
	// Size is the displayed image size.
	Size image.Point
}

// Fit scales an imgW x imgH image into a boxW x boxH area keeping its aspect
// ratio and centering it.
func Fit(imgW, imgH, boxW, boxH int) PreviewTransform {
	if imgW <= 0 || imgH <= 0 || boxW <= 0 || boxH <= 0 {
		return PreviewTransform{Scale: 1}
	}
	ratio := math.Min(float64(boxW)/float64(imgW), float64(boxH)/float64(imgH))
	dw := max(1, int(math.Round(float64(imgW)*ratio)))
	dh := max(1, int(math.Round(float64(imgH)*ratio)))
	return PreviewTransform{
		Scale:  float64(imgW) / float64(dw),
		Offset: image.Pt((boxW-dw)/2, (boxH-dh)/2),
		Size:   image.Pt(dw, dh),
	}
}

// ToImage converts a pointer position in the preview box to image pixels.
// ok is false when the pointer is outside the displayed image.
func (t PreviewTransform) ToImage(p image.Point) (image.Point, bool) {
	local := p.Sub(t.Offset)
	if !local.In(image.Rectangle{Max: t.Size}) {
		return image.Point{}, false
	}
	return image.Pt(int(float64(local.X)*t.Scale), int(float64(local.Y)*t.Scale)), true
}

// ToPreview converts an image pixel position to preview box coordinates.
func (t PreviewTransform) ToPreview(p image.Point) image.Point {
	scale := t.Scale
	if scale == 0 {
		scale = 1
	}
	return image.Pt(int(math.Round(float64(p.X)/scale)), int(math.Round(float64(p.Y)/scale))).Add(t.Offset)
}

// RenderPreview letterboxes img into a boxW x boxH canvas filled with bg.
func RenderPreview(img image.Image, boxW, boxH int, bg color.Color) (*image.NRGBA, PreviewTransform) {
	b := img.Bounds()
	t := Fit(b.Dx(), b.Dy(), boxW, boxH)
	canvas := imaging.New(max(boxW, 1), max(boxH, 1), bg)
	if t.Size.X == 0 || t.Size.Y == 0 {
		return canvas, t
	}
	scaled := imaging.Resize(img, t.Size.X, t.Size.Y, imaging.Lanczos)
	return imaging.Paste(canvas, scaled, t.Offset), t
}
