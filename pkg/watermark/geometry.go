package watermark

import (
	"fmt"
	"image"
	"strings"

	"golang.org/x/image/font"
)

// Margin is the distance in pixels kept between a preset-anchored watermark
// and the image edges.
const Margin = 10

// Anchor is one of the nine canvas-relative preset positions.
type Anchor int

const (
	TopLeft Anchor = iota
	TopCenter
	TopRight
	MiddleLeft
	Center
	MiddleRight
	BottomLeft
	BottomCenter
	BottomRight
)

var anchorNames = [...]string{
	TopLeft:      "top-left",
	TopCenter:    "top-center",
	TopRight:     "top-right",
	MiddleLeft:   "middle-left",
	Center:       "center",
	MiddleRight:  "middle-right",
	BottomLeft:   "bottom-left",
	BottomCenter: "bottom-center",
	BottomRight:  "bottom-right",
}

// Anchors lists every preset anchor in grid order.
func Anchors() []Anchor {
	return []Anchor{TopLeft, TopCenter, TopRight, MiddleLeft, Center, MiddleRight, BottomLeft, BottomCenter, BottomRight}
}

func (a Anchor) String() string {
	if a < TopLeft || a > BottomRight {
		return fmt.Sprintf("anchor(%d)", int(a))
	}
	return anchorNames[a]
}

// ParseAnchor accepts the kebab-case anchor names ("bottom-right", "center", ...).
func ParseAnchor(s string) (Anchor, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.ReplaceAll(key, "_", "-")
	for i, name := range anchorNames {
		if name == key {
			return Anchor(i), nil
		}
	}
	return Center, fmt.Errorf("unknown anchor %q", s)
}

// Placement selects how the watermark origin is obtained. It is either a
// Preset or a Manual value.
type Placement interface {
	placement()
}

// Preset positions the watermark relative to the canvas edges.
type Preset struct {
	Anchor Anchor
}

// Manual places the text baseline origin at a fixed pixel position.
type Manual struct {
	Origin image.Point
}

func (Preset) placement() {}
func (Manual) placement() {}

// Mode names the active Placement variant.
type Mode string

const (
	ModePreset Mode = "preset"
	ModeManual Mode = "manual"
)

// ModeOf reports which variant p is. A nil placement counts as preset.
func ModeOf(p Placement) Mode {
	if _, ok := p.(Manual); ok {
		return ModeManual
	}
	return ModePreset
}

// Metrics are the pixel dimensions of a rendered text string.
type Metrics struct {
	Width   int
	Ascent  int
	Descent int
}

// Height is ascent plus descent.
func (m Metrics) Height() int {
	return m.Ascent + m.Descent
}

// Empty reports whether nothing would be drawn.
func (m Metrics) Empty() bool {
	return m.Width <= 0 || m.Height() <= 0
}

// Bounds returns the text box for a baseline origin.
func (m Metrics) Bounds(origin image.Point) image.Rectangle {
	return image.Rect(origin.X, origin.Y-m.Ascent, origin.X+m.Width, origin.Y+m.Descent)
}

// Measure returns the advance width and line metrics of text set in face.
// Empty text measures as zero.
func Measure(face font.Face, text string) Metrics {
	if text == "" || face == nil {
		return Metrics{}
	}
	fm := face.Metrics()
	return Metrics{
		Width:   font.MeasureString(face, text).Ceil(),
		Ascent:  fm.Ascent.Ceil(),
		Descent: fm.Descent.Ceil(),
	}
}

// ComputeOrigin returns the baseline-left point at which text with metrics m
// is drawn on a w x h canvas. Manual placements are returned unchanged;
// presets are not clamped, so text wider than the canvas yields a negative x.
func ComputeOrigin(w, h int, m Metrics, p Placement) image.Point {
	if manual, ok := p.(Manual); ok {
		return manual.Origin
	}
	anchor := Center
	if preset, ok := p.(Preset); ok {
		anchor = preset.Anchor
	}

	left := Margin
	center := floorDiv(w-m.Width, 2)
	right := w - m.Width - Margin
	top := m.Ascent + Margin
	middle := floorDiv(h+m.Height(), 2) - m.Descent
	bottom := h - m.Descent - Margin

	switch anchor {
	case TopLeft:
		return image.Pt(left, top)
	case TopCenter:
		return image.Pt(center, top)
	case TopRight:
		return image.Pt(right, top)
	case MiddleLeft:
		return image.Pt(left, middle)
	case MiddleRight:
		return image.Pt(right, middle)
	case BottomLeft:
		return image.Pt(left, bottom)
	case BottomCenter:
		return image.Pt(center, bottom)
	case BottomRight:
		return image.Pt(right, bottom)
	default:
		return image.Pt(center, middle)
	}
}

// ClampOrigin keeps the text box of m fully inside a w x h canvas.
func ClampOrigin(p image.Point, w, h int, m Metrics) image.Point {
	return image.Pt(
		clampInt(p.X, 0, w-m.Width),
		clampInt(p.Y, m.Ascent, h-m.Descent),
	)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// clampInt prefers lo when the range is empty.
func clampInt(v, lo, hi int) int {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}
