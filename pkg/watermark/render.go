package watermark

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"
)

// Render returns a copy of src with spec.Text drawn at the baseline origin.
// src is never modified. When spec.Rotation is non-zero the text block is
// rotated clockwise about (origin.X+width/2, origin.Y-height/2).
func Render(src image.Image, spec Spec, face font.Face, origin image.Point) *image.NRGBA {
	out := imaging.Clone(src)
	if spec.Text == "" || face == nil {
		return out
	}
	m := Measure(face, spec.Text)
	if m.Empty() {
		return out
	}
	col := withOpacity(spec.Color, spec.Opacity)
	if col.A == 0 {
		return out
	}

	layer := textLayer(face, spec.Text, m, col)
	topLeft := image.Pt(origin.X, origin.Y-m.Ascent)

	rotation := NormalizeRotation(spec.Rotation)
	if rotation == 0 {
		pasteWithAlpha(out, layer, topLeft.X, topLeft.Y)
		return out
	}

	pivotX := float64(origin.X) + float64(m.Width)/2
	pivotY := float64(origin.Y) - float64(m.Height())/2
	sin, cos := math.Sincos(float64(rotation) * math.Pi / 180)
	tx := float64(topLeft.X) - pivotX
	ty := float64(topLeft.Y) - pivotY
	s2d := f64.Aff3{
		cos, -sin, cos*tx - sin*ty + pivotX,
		sin, cos, sin*tx + cos*ty + pivotY,
	}
	xdraw.ApproxBiLinear.Transform(out, s2d, layer, layer.Bounds(), xdraw.Over, nil)
	return out
}

// textLayer draws text on a transparent canvas exactly the size of its box,
// baseline at m.Ascent.
func textLayer(face font.Face, text string, m Metrics, col color.NRGBA) *image.NRGBA {
	canvas := image.NewNRGBA(image.Rect(0, 0, m.Width, m.Height()))
	d := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(col),
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.I(0),
			Y: fixed.I(m.Ascent),
		},
	}
	d.DrawString(text)
	return canvas
}

func withOpacity(c color.NRGBA, opacity float64) color.NRGBA {
	opacity = math.Max(0, math.Min(1, opacity))
	c.A = uint8(math.Round(float64(c.A) * opacity))
	return c
}

func pasteWithAlpha(dst *image.NRGBA, src image.Image, x, y int) {
	r := image.Rect(x, y, x+src.Bounds().Dx(), y+src.Bounds().Dy())
	draw.Draw(dst, r, src, src.Bounds().Min, draw.Over)
}
