package watermark

import (
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
)

func TestFitLetterbox(t *testing.T) {
	tr := Fit(800, 400, 600, 400)
	assert.Equal(t, image.Pt(600, 300), tr.Size)
	assert.Equal(t, image.Pt(0, 50), tr.Offset)
	assert.InDelta(t, 800.0/600.0, tr.Scale, 1e-9)

	tr = Fit(300, 600, 600, 400)
	assert.Equal(t, image.Pt(200, 400), tr.Size)
	assert.Equal(t, image.Pt(200, 0), tr.Offset)
	assert.InDelta(t, 1.5, tr.Scale, 1e-9)
}

func TestFitDegenerate(t *testing.T) {
	assert.Equal(t, PreviewTransform{Scale: 1}, Fit(0, 10, 100, 100))
	assert.Equal(t, PreviewTransform{Scale: 1}, Fit(10, 10, 0, 100))
}

func TestPreviewTransformToImage(t *testing.T) {
	tr := Fit(800, 400, 600, 400)

	p, ok := tr.ToImage(image.Pt(300, 200))
	assert.True(t, ok)
	assert.Equal(t, image.Pt(400, 200), p)

	p, ok = tr.ToImage(image.Pt(0, 50))
	assert.True(t, ok)
	assert.Equal(t, image.Pt(0, 0), p)

	_, ok = tr.ToImage(image.Pt(10, 20))
	assert.False(t, ok, "letterbox padding is not part of the image")
	_, ok = tr.ToImage(image.Pt(300, 350))
	assert.False(t, ok)
}

func TestPreviewTransformToPreview(t *testing.T) {
	tr := Fit(800, 400, 600, 400)
	assert.Equal(t, image.Pt(300, 200), tr.ToPreview(image.Pt(400, 200)))
	back, ok := tr.ToImage(tr.ToPreview(image.Pt(600, 120)))
	assert.True(t, ok)
	assert.InDelta(t, 600, back.X, 2)
	assert.InDelta(t, 120, back.Y, 2)
}

func TestRenderPreview(t *testing.T) {
	src := imaging.New(800, 400, color.NRGBA{255, 0, 0, 255})
	out, tr := RenderPreview(src, 600, 400, color.Black)
	assert.Equal(t, image.Rect(0, 0, 600, 400), out.Bounds())
	assert.Equal(t, image.Pt(0, 50), tr.Offset)
	assert.Equal(t, color.NRGBA{0, 0, 0, 255}, out.NRGBAAt(10, 10))
	assert.Equal(t, color.NRGBA{255, 0, 0, 255}, out.NRGBAAt(300, 200))
}
