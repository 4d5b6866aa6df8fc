package main

import (
	"errors"
	"fmt"
	"image"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lz-wang/photo-watermark/pkg/session"
	"github.com/lz-wang/photo-watermark/pkg/watermark"
)

// specFlags override the loaded settings. Only flags given on the command
// line are applied.
type specFlags struct {
	template string
	text     string
	font     string
	size     int
	bold     bool
	italic   bool
	color    string
	opacity  float64
	rotation int
	anchor   string
	mode     string
	x, y     int
	out      string
	prefix   string
	suffix   string
}

func (f *specFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.template, "template", "t", "", "load settings from this template instead of the last used ones")
	fl.StringVar(&f.text, "text", "", "watermark text; {date} expands to the photo capture date")
	fl.StringVar(&f.font, "font", "", "font family name or .ttf/.otf path")
	fl.IntVar(&f.size, "size", 0, "font size in points")
	fl.BoolVar(&f.bold, "bold", false, "bold text")
	fl.BoolVar(&f.italic, "italic", false, "italic text")
	fl.StringVar(&f.color, "color", "", "text color as #rrggbb or #rrggbbaa")
	fl.Float64Var(&f.opacity, "opacity", 0, "opacity 0..1")
	fl.IntVar(&f.rotation, "rotation", 0, "clockwise rotation in degrees")
	fl.StringVar(&f.anchor, "anchor", "", "preset position: "+anchorList())
	fl.StringVar(&f.mode, "mode", "", "placement mode: preset or manual")
	fl.IntVar(&f.x, "x", 0, "manual x of the text baseline origin")
	fl.IntVar(&f.y, "y", 0, "manual y of the text baseline origin")
	fl.StringVarP(&f.out, "out", "o", "", "output folder")
	fl.StringVar(&f.prefix, "prefix", "", "output file name prefix")
	fl.StringVar(&f.suffix, "suffix", "", "output file name suffix")
}

// applyStyle sets everything except placement, which may need a layout first.
func (f *specFlags) applyStyle(cmd *cobra.Command, s *session.Session) error {
	fl := cmd.Flags()
	if fl.Changed("text") {
		s.Spec.Text = f.text
	}
	if fl.Changed("font") {
		if strings.TrimSpace(f.font) == "" {
			return errors.New("--font must not be empty")
		}
		s.Spec.Font.Family = f.font
	}
	if fl.Changed("size") {
		if f.size <= 0 {
			return fmt.Errorf("invalid --size %d", f.size)
		}
		s.Spec.Font.PointSize = f.size
	}
	if fl.Changed("bold") {
		s.Spec.Font.Bold = f.bold
	}
	if fl.Changed("italic") {
		s.Spec.Font.Italic = f.italic
	}
	if fl.Changed("color") {
		c, err := watermark.ParseHexColor(f.color)
		if err != nil {
			return fmt.Errorf("invalid --color: %w", err)
		}
		s.Spec.Color = c
	}
	if fl.Changed("opacity") {
		if f.opacity < 0 || f.opacity > 1 {
			return fmt.Errorf("invalid --opacity %v: must be between 0 and 1", f.opacity)
		}
		s.Spec.Opacity = f.opacity
	}
	if fl.Changed("rotation") {
		s.Spec.Rotation = watermark.NormalizeRotation(f.rotation)
	}
	if fl.Changed("out") {
		s.Output.Folder = f.out
	}
	if fl.Changed("prefix") {
		s.Output.Prefix = f.prefix
	}
	if fl.Changed("suffix") {
		s.Output.Suffix = f.suffix
	}
	if fl.Changed("anchor") {
		a, err := watermark.ParseAnchor(f.anchor)
		if err != nil {
			return fmt.Errorf("invalid --anchor: %w", err)
		}
		s.SetAnchor(a)
	}
	return nil
}

// wantsManual reports whether the placement flags ask for manual mode.
func (f *specFlags) wantsManual(cmd *cobra.Command) (bool, error) {
	fl := cmd.Flags()
	if fl.Changed("x") || fl.Changed("y") {
		return true, nil
	}
	if !fl.Changed("mode") {
		return false, nil
	}
	switch watermark.Mode(strings.ToLower(f.mode)) {
	case watermark.ModeManual:
		return true, nil
	case watermark.ModePreset:
		return false, nil
	}
	return false, fmt.Errorf("invalid --mode %q: expected preset or manual", f.mode)
}

// applyPlacement switches mode and applies --x/--y. Call after the session
// has been laid out on an image when switching to manual.
func (f *specFlags) applyPlacement(cmd *cobra.Command, s *session.Session) error {
	manual, err := f.wantsManual(cmd)
	if err != nil {
		return err
	}
	fl := cmd.Flags()
	if manual {
		s.SetPlacementMode(watermark.ModeManual)
		origin := s.Spec.Placement.(watermark.Manual).Origin
		if fl.Changed("x") {
			origin.X = f.x
		}
		if fl.Changed("y") {
			origin.Y = f.y
		}
		s.Spec.Placement = watermark.Manual{Origin: origin}
	} else if fl.Changed("mode") {
		s.SetPlacementMode(watermark.ModePreset)
	}
	return nil
}

func anchorList() string {
	names := make([]string, 0, 9)
	for _, a := range watermark.Anchors() {
		names = append(names, a.String())
	}
	return strings.Join(names, "|")
}

// parsePoint reads "x,y".
func parsePoint(raw string) (image.Point, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return image.Point{}, errors.New("expected format x,y")
	}
	vals := [2]int{}
	for i := 0; i < 2; i++ {
		p := strings.TrimSpace(parts[i])
		v, err := strconv.Atoi(p)
		if err != nil {
			return image.Point{}, fmt.Errorf("invalid coordinate: %q", p)
		}
		vals[i] = v
	}
	return image.Pt(vals[0], vals[1]), nil
}

// parseDrag reads "x1,y1:x2,y2[:x3,y3...]", a press followed by moves.
func parseDrag(raw string) ([]image.Point, error) {
	parts := strings.Split(raw, ":")
	if len(parts) < 2 {
		return nil, errors.New("expected format x1,y1:x2,y2")
	}
	pts := make([]image.Point, 0, len(parts))
	for _, p := range parts {
		pt, err := parsePoint(p)
		if err != nil {
			return nil, err
		}
		pts = append(pts, pt)
	}
	return pts, nil
}
