package watermark

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSpec(text string) Spec {
	spec := DefaultSpec()
	spec.Text = text
	spec.Font = FontSpec{Family: "Go", PointSize: 24}
	spec.Opacity = 1
	return spec
}

func renderFixture(t *testing.T, text string, rotation int) (*image.NRGBA, *image.NRGBA, Metrics, image.Point) {
	t.Helper()
	face, err := goFontFace(FontSpec{Family: "Go", PointSize: 24})
	require.NoError(t, err)
	src := imaging.New(200, 100, color.NRGBA{0, 0, 0, 255})
	spec := testSpec(text)
	spec.Rotation = rotation
	m := Measure(face, text)
	origin := ComputeOrigin(200, 100, m, Preset{Anchor: Center})
	return src, Render(src, spec, face, origin), m, origin
}

func changedPixels(a, b *image.NRGBA) []image.Point {
	var out []image.Point
	bounds := a.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if a.NRGBAAt(x, y) != b.NRGBAAt(x, y) {
				out = append(out, image.Pt(x, y))
			}
		}
	}
	return out
}

func TestRenderEmptyTextIsCopy(t *testing.T) {
	face, err := goFontFace(FontSpec{Family: "Go", PointSize: 24})
	require.NoError(t, err)
	src := imaging.New(64, 32, color.NRGBA{10, 20, 30, 255})

	out := Render(src, testSpec(""), face, image.Pt(5, 20))
	assert.Equal(t, src.Pix, out.Pix)
	assert.NotSame(t, src, out)
}

func TestRenderDoesNotMutateSource(t *testing.T) {
	src, out, _, _ := renderFixture(t, "HHH", 0)
	before := imaging.New(200, 100, color.NRGBA{0, 0, 0, 255})
	assert.Equal(t, before.Pix, src.Pix)
	assert.NotEmpty(t, changedPixels(src, out))
}

func TestRenderStaysInTextBox(t *testing.T) {
	src, out, m, origin := renderFixture(t, "HHH", 0)
	box := m.Bounds(origin)
	changed := changedPixels(src, out)
	require.NotEmpty(t, changed)
	for _, p := range changed {
		assert.True(t, p.In(box), "pixel %v outside text box %v", p, box)
	}
}

func TestRenderIdempotent(t *testing.T) {
	for _, rot := range []int{0, 45, 180} {
		_, a, _, _ := renderFixture(t, "Sample", rot)
		_, b, _, _ := renderFixture(t, "Sample", rot)
		assert.Equal(t, a.Pix, b.Pix, "rotation %d", rot)
	}
}

func TestRenderRotationAboutTextCenter(t *testing.T) {
	src, straight, m, origin := renderFixture(t, "HHH", 0)
	_, rotated, _, _ := renderFixture(t, "HHH", 90)
	assert.NotEqual(t, straight.Pix, rotated.Pix)

	pivotX := float64(origin.X) + float64(m.Width)/2
	pivotY := float64(origin.Y) - float64(m.Height())/2
	radius := math.Hypot(float64(m.Width), float64(m.Height()))/2 + 2
	changed := changedPixels(src, rotated)
	require.NotEmpty(t, changed)
	for _, p := range changed {
		d := math.Hypot(float64(p.X)+0.5-pivotX, float64(p.Y)+0.5-pivotY)
		assert.LessOrEqual(t, d, radius, "pixel %v too far from pivot", p)
	}
}

func TestRenderOpacity(t *testing.T) {
	face, err := goFontFace(FontSpec{Family: "Go", PointSize: 24})
	require.NoError(t, err)
	src := imaging.New(200, 100, color.NRGBA{0, 0, 0, 255})
	m := Measure(face, "HHH")
	origin := ComputeOrigin(200, 100, m, Preset{Anchor: Center})

	spec := testSpec("HHH")
	spec.Opacity = 0
	assert.Equal(t, src.Pix, Render(src, spec, face, origin).Pix)

	brightest := func(img *image.NRGBA) uint8 {
		var hi uint8
		for i := 0; i < len(img.Pix); i += 4 {
			if img.Pix[i] > hi {
				hi = img.Pix[i]
			}
		}
		return hi
	}
	spec.Opacity = 1
	full := brightest(Render(src, spec, face, origin))
	spec.Opacity = 0.5
	half := brightest(Render(src, spec, face, origin))
	assert.Equal(t, uint8(255), full)
	assert.InDelta(t, 128, int(half), 2)
}

func TestWithOpacity(t *testing.T) {
	c := color.NRGBA{255, 255, 255, 200}
	assert.Equal(t, uint8(100), withOpacity(c, 0.5).A)
	assert.Equal(t, uint8(200), withOpacity(c, 1).A)
	assert.Equal(t, uint8(0), withOpacity(c, 0).A)
	assert.Equal(t, uint8(200), withOpacity(c, 3).A)
}
