package watermark

import (
	"bytes"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupportedExtension(t *testing.T) {
	for _, ok := range []string{"a.png", "b.JPG", "c.jpeg", "d.Bmp", "e.tiff", "f.tif", "g.xpm"} {
		assert.True(t, SupportedExtension(ok), ok)
	}
	for _, no := range []string{"a.txt", "b", "c.gif", "png"} {
		assert.False(t, SupportedExtension(no), no)
	}
}

func TestOpenDecodeError(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "broken.png")
	require.NoError(t, os.WriteFile(bad, []byte("not an image"), 0o644))

	_, err := Open(bad)
	assert.ErrorIs(t, err, ErrImageDecode)

	_, err = Open(filepath.Join(dir, "missing.jpg"))
	assert.ErrorIs(t, err, ErrImageDecode)
}

func TestSaveImageRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := imaging.New(31, 17, color.NRGBA{1, 2, 3, 255})
	for _, name := range []string{"out.png", "out.jpg", "out.bmp", "out.tiff", "nested/dir/out.png"} {
		path := filepath.Join(dir, name)
		require.NoError(t, SaveImage(src, path, DefaultEncodeOptions()), name)
		img, err := Open(path)
		require.NoError(t, err, name)
		assert.Equal(t, 31, img.Bounds().Dx(), name)
		assert.Equal(t, 17, img.Bounds().Dy(), name)
	}
	assert.Error(t, SaveImage(src, filepath.Join(dir, "out.xyz"), DefaultEncodeOptions()))
}

func TestEncodeJPEGFlattensAlpha(t *testing.T) {
	src := imaging.New(8, 8, color.NRGBA{0, 0, 0, 0})
	var buf bytes.Buffer
	opts := EncodeOptions{JPEGQuality: 100, Background: color.NRGBA{255, 255, 255, 255}}
	require.NoError(t, Encode(&buf, src, imaging.JPEG, opts))

	img, err := imaging.Decode(&buf)
	require.NoError(t, err)
	r, g, b, _ := img.At(4, 4).RGBA()
	assert.Greater(t, r>>8, uint32(250))
	assert.Greater(t, g>>8, uint32(250))
	assert.Greater(t, b>>8, uint32(250))
}
