// Package template stores watermark settings and output naming in a flat
// INI file, for "save template" / "load template" and for restoring the
// last used settings.
package template

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/lz-wang/photo-watermark/pkg/session"
	"github.com/lz-wang/photo-watermark/pkg/watermark"
)

// Section holds every key; keys found in the default section are read too.
const Section = "General"

const (
	KeyText         = "watermark_text"
	KeyFont         = "watermark_font"
	KeyColor        = "watermark_color"
	KeyOpacity      = "watermark_opacity"
	KeyPosition     = "watermark_position"
	KeyPositionMode = "watermark_position_mode"
	KeyPosX         = "watermark_pos_x"
	KeyPosY         = "watermark_pos_y"
	KeyRotation     = "watermark_rotation"
	KeyOutputFolder = "output_folder"
	KeyPrefix       = "file_naming_prefix"
	KeySuffix       = "file_naming_suffix"
)

// ErrParse marks template content that could not be read. Load still
// returns usable settings alongside it.
var ErrParse = errors.New("template parse error")

// Template is the persisted part of a session.
type Template struct {
	Spec   watermark.Spec
	Output session.OutputConfig
}

// Defaults is what Load yields for an empty template.
func Defaults() Template {
	return Template{Spec: watermark.DefaultSpec()}
}

// Save serialises spec and out.
func Save(spec watermark.Spec, out session.OutputConfig) ([]byte, error) {
	f := ini.Empty(loadOptions)
	sec := f.Section(Section)

	anchor := watermark.Center
	var pos image.Point
	mode := watermark.ModeOf(spec.Placement)
	switch p := spec.Placement.(type) {
	case watermark.Preset:
		anchor = p.Anchor
	case watermark.Manual:
		pos = p.Origin
	}

	values := []struct{ key, val string }{
		{KeyText, quote(spec.Text)},
		{KeyFont, quote(spec.Font.String())},
		{KeyColor, watermark.FormatHexColor(spec.Color)},
		{KeyOpacity, strconv.FormatFloat(spec.Opacity, 'g', -1, 64)},
		{KeyPosition, anchor.String()},
		{KeyPositionMode, string(mode)},
		{KeyPosX, strconv.Itoa(pos.X)},
		{KeyPosY, strconv.Itoa(pos.Y)},
		{KeyRotation, strconv.Itoa(spec.Rotation)},
		{KeyOutputFolder, quote(out.Folder)},
		{KeyPrefix, quote(out.Prefix)},
		{KeySuffix, quote(out.Suffix)},
	}
	for _, v := range values {
		if _, err := sec.NewKey(v.key, v.val); err != nil {
			return nil, fmt.Errorf("writing %s: %w", v.key, err)
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Load reads a template. Missing keys take their default; a corrupt value
// also takes its default and is reported in the returned error, which wraps
// ErrParse. The returned Template is always complete.
func Load(data []byte) (Template, error) {
	t := Defaults()
	f, err := ini.LoadSources(loadOptions, data)
	if err != nil {
		return t, fmt.Errorf("%w: %v", ErrParse, err)
	}
	r := reader{file: f}

	if v, ok := r.get(KeyText); ok {
		t.Spec.Text = v
	}
	if v, ok := r.get(KeyFont); ok {
		if fs, err := watermark.ParseFontSpec(v); err == nil {
			t.Spec.Font = fs
		} else {
			r.fail(KeyFont, err)
		}
	}
	if v, ok := r.get(KeyColor); ok {
		if c, err := watermark.ParseHexColor(v); err == nil {
			t.Spec.Color = c
		} else {
			r.fail(KeyColor, err)
		}
	}
	if v, ok := r.get(KeyOpacity); ok {
		o, err := strconv.ParseFloat(v, 64)
		switch {
		case err != nil:
			r.fail(KeyOpacity, err)
		case o < 0 || o > 1:
			r.fail(KeyOpacity, fmt.Errorf("%v outside [0,1]", o))
		default:
			t.Spec.Opacity = o
		}
	}
	if v, ok := r.get(KeyRotation); ok {
		if deg, err := strconv.Atoi(v); err == nil {
			t.Spec.Rotation = watermark.NormalizeRotation(deg)
		} else {
			r.fail(KeyRotation, err)
		}
	}

	anchor := watermark.Center
	if v, ok := r.get(KeyPosition); ok {
		if a, err := watermark.ParseAnchor(v); err == nil {
			anchor = a
		} else {
			r.fail(KeyPosition, err)
		}
	}
	mode := watermark.ModePreset
	if v, ok := r.get(KeyPositionMode); ok {
		switch watermark.Mode(v) {
		case watermark.ModePreset, watermark.ModeManual:
			mode = watermark.Mode(v)
		default:
			r.fail(KeyPositionMode, fmt.Errorf("unknown mode %q", v))
		}
	}
	if mode == watermark.ModeManual {
		t.Spec.Placement = watermark.Manual{Origin: image.Pt(r.intOr(KeyPosX, 0), r.intOr(KeyPosY, 0))}
	} else {
		t.Spec.Placement = watermark.Preset{Anchor: anchor}
	}

	if v, ok := r.get(KeyOutputFolder); ok {
		t.Output.Folder = v
	}
	if v, ok := r.get(KeyPrefix); ok {
		t.Output.Prefix = v
	}
	if v, ok := r.get(KeySuffix); ok {
		t.Output.Suffix = v
	}

	if len(r.errs) > 0 {
		return t, fmt.Errorf("%w: %w", ErrParse, errors.Join(r.errs...))
	}
	return t, nil
}

// SaveFile writes the template to path, creating parent directories.
func SaveFile(path string, spec watermark.Spec, out session.OutputConfig) error {
	data, err := Save(spec, out)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadFile reads the template at path. A missing file yields Defaults and an
// error satisfying errors.Is(err, os.ErrNotExist).
func LoadFile(path string) (Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Defaults(), err
	}
	return Load(data)
}

// loadOptions read values verbatim: no inline comments, no continuation
// lines and no quote stripping, so quoted values reach unquote intact.
var loadOptions = ini.LoadOptions{
	IgnoreInlineComment:     true,
	IgnoreContinuation:      true,
	PreserveSurroundedQuote: true,
}

// quote turns free text into a single INI-safe token: a Go quoted string
// with backticks escaped as well, so it never spans lines, ends in a
// backslash or opens a multi-line block.
func quote(s string) string {
	return strings.ReplaceAll(strconv.Quote(s), "`", `\x60`)
}

// unquote reverses quote. Unquoted or hand-edited values come back as is.
func unquote(v string) string {
	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		if s, err := strconv.Unquote(v); err == nil {
			return s
		}
	}
	return v
}

type reader struct {
	file *ini.File
	errs []error
}

func (r *reader) get(key string) (string, bool) {
	for _, name := range []string{Section, ini.DefaultSection} {
		sec, err := r.file.GetSection(name)
		if err != nil || !sec.HasKey(key) {
			continue
		}
		return unquote(sec.Key(key).Value()), true
	}
	return "", false
}

func (r *reader) intOr(key string, def int) int {
	v, ok := r.get(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail(key, err)
		return def
	}
	return n
}

func (r *reader) fail(key string, err error) {
	r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
}
