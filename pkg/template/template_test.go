package template

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lz-wang/photo-watermark/pkg/session"
	"github.com/lz-wang/photo-watermark/pkg/watermark"
)

func TestRoundTrip(t *testing.T) {
	out := session.OutputConfig{Folder: "/tmp/out dir", Prefix: "wm_", Suffix: "_final"}
	base := watermark.DefaultSpec()

	var specs []watermark.Spec
	for _, a := range watermark.Anchors() {
		s := base
		s.Placement = watermark.Preset{Anchor: a}
		specs = append(specs, s)
	}
	manual := base
	manual.Placement = watermark.Manual{Origin: image.Pt(-12, 345)}
	specs = append(specs, manual)

	styled := base
	styled.Text = "© 2024 写真 #1; tag=x"
	styled.Font = watermark.FontSpec{Family: "DejaVu Sans", PointSize: 48, Bold: true, Italic: true}
	styled.Color = color.NRGBA{0x12, 0x34, 0x56, 0x80}
	styled.Opacity = 0
	styled.Rotation = 270
	specs = append(specs, styled)

	opaque := base
	opaque.Opacity = 1
	opaque.Text = ""
	specs = append(specs, opaque)

	for _, text := range []string{
		`C:\photos\`,
		`"""`,
		`"quoted"`,
		"'single'",
		"two\nlines\r\n",
		"back`tick` and ``` fence",
		"%(watermark_font)s",
		"  padded  ",
		`trailing \`,
	} {
		s := base
		s.Text = text
		specs = append(specs, s)
	}

	for _, spec := range specs {
		data, err := Save(spec, out)
		require.NoError(t, err)

		got, err := Load(data)
		require.NoError(t, err, string(data))
		assert.Equal(t, spec, got.Spec, string(data))
		assert.Equal(t, out, got.Output)
	}

	awkward := session.OutputConfig{Folder: `C:\out\`, Prefix: " p", Suffix: `"""`}
	data, err := Save(base, awkward)
	require.NoError(t, err)
	got, err := Load(data)
	require.NoError(t, err, string(data))
	assert.Equal(t, awkward, got.Output)
	assert.Equal(t, base, got.Spec)
}

func TestLoadHandWritten(t *testing.T) {
	data := []byte(`[General]
watermark_text = Hello # world
output_folder = C:\out\
file_naming_prefix = "p_"
file_naming_suffix = "not closed
`)
	got, err := Load(data)
	require.NoError(t, err)
	assert.Equal(t, "Hello # world", got.Spec.Text)
	assert.Equal(t, `C:\out\`, got.Output.Folder)
	assert.Equal(t, "p_", got.Output.Prefix)
	assert.Equal(t, `"not closed`, got.Output.Suffix)
}

func TestLoadEmptyGivesDefaults(t *testing.T) {
	got, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, Defaults(), got)
	assert.Equal(t, watermark.Preset{Anchor: watermark.Center}, got.Spec.Placement)
	assert.Equal(t, 0.5, got.Spec.Opacity)
}

func TestLoadMissingKeys(t *testing.T) {
	got, err := Load([]byte("[General]\nwatermark_text = Hello\nfile_naming_prefix = p_\n"))
	require.NoError(t, err)

	want := Defaults()
	want.Spec.Text = "Hello"
	want.Output.Prefix = "p_"
	assert.Equal(t, want, got)
}

func TestLoadCorruptValuesFallBack(t *testing.T) {
	data := []byte(`[General]
watermark_text = Kept
watermark_position = somewhere
watermark_opacity = 7
watermark_color = #12345g
file_naming_suffix = _s
`)
	got, err := Load(data)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrParse)
	assert.Contains(t, err.Error(), KeyPosition)
	assert.Contains(t, err.Error(), KeyOpacity)
	assert.Contains(t, err.Error(), KeyColor)

	assert.Equal(t, "Kept", got.Spec.Text)
	assert.Equal(t, "_s", got.Output.Suffix)
	assert.Equal(t, watermark.Preset{Anchor: watermark.Center}, got.Spec.Placement)
	assert.Equal(t, 0.5, got.Spec.Opacity)
	assert.Equal(t, watermark.DefaultSpec().Color, got.Spec.Color)
}

func TestLoadManualWithBadCoordinate(t *testing.T) {
	data := []byte("[General]\nwatermark_position_mode = manual\nwatermark_pos_x = 40\nwatermark_pos_y = abc\n")
	got, err := Load(data)
	assert.ErrorIs(t, err, ErrParse)
	assert.Equal(t, watermark.Manual{Origin: image.Pt(40, 0)}, got.Spec.Placement)
}

func TestLoadUnknownModeIsPreset(t *testing.T) {
	data := []byte("[General]\nwatermark_position_mode = floating\nwatermark_position = top-left\n")
	got, err := Load(data)
	assert.ErrorIs(t, err, ErrParse)
	assert.Equal(t, watermark.Preset{Anchor: watermark.TopLeft}, got.Spec.Placement)
}

func TestLoadDefaultSection(t *testing.T) {
	got, err := Load([]byte("watermark_text = No header\nwatermark_rotation = 450\n"))
	require.NoError(t, err)
	assert.Equal(t, "No header", got.Spec.Text)
	assert.Equal(t, 90, got.Spec.Rotation)
}

func TestLoadPresetIgnoresCoordinates(t *testing.T) {
	data := []byte("[General]\nwatermark_position_mode = preset\nwatermark_position = bottom-left\nwatermark_pos_x = 99\nwatermark_pos_y = 99\n")
	got, err := Load(data)
	require.NoError(t, err)
	assert.Equal(t, watermark.Preset{Anchor: watermark.BottomLeft}, got.Spec.Placement)
}

func TestSaveFileLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "last.ini")
	spec := watermark.DefaultSpec()
	spec.Text = "Saved"
	spec.Placement = watermark.Manual{Origin: image.Pt(5, 6)}
	out := session.OutputConfig{Folder: "out"}

	require.NoError(t, SaveFile(path, spec, out))
	got, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, spec, got.Spec)
	assert.Equal(t, out, got.Output)
}

func TestLoadFileMissing(t *testing.T) {
	got, err := LoadFile(filepath.Join(t.TempDir(), "absent.ini"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.Equal(t, Defaults(), got)
}
