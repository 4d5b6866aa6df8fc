package watermark

import (
	"errors"
	"fmt"
	"image/color"
)

// DefaultText is shown until the user types their own watermark.
const DefaultText = "Your watermark"

// Spec is the watermark configuration shared by every image of a session.
type Spec struct {
	Text      string
	Font      FontSpec
	Color     color.NRGBA
	Opacity   float64
	Rotation  int
	Placement Placement
}

// DefaultSpec returns the settings used when nothing has been saved yet.
func DefaultSpec() Spec {
	return Spec{
		Text:      DefaultText,
		Font:      FontSpec{Family: "Arial", PointSize: 30},
		Color:     color.NRGBA{R: 255, G: 255, B: 255, A: 255},
		Opacity:   0.5,
		Rotation:  0,
		Placement: Preset{Anchor: Center},
	}
}

// Validate checks the ranges Render relies on.
func (s Spec) Validate() error {
	if s.Font.PointSize <= 0 {
		return fmt.Errorf("font size must be positive, got %d", s.Font.PointSize)
	}
	if s.Opacity < 0 || s.Opacity > 1 {
		return errors.New("opacity must be between 0 and 1")
	}
	if s.Rotation < 0 || s.Rotation >= 360 {
		return fmt.Errorf("rotation must be in [0,360), got %d", s.Rotation)
	}
	if s.Placement == nil {
		return errors.New("placement must be set")
	}
	return nil
}

// NormalizeRotation maps any angle in degrees into [0,360).
func NormalizeRotation(deg int) int {
	deg %= 360
	if deg < 0 {
		deg += 360
	}
	return deg
}
