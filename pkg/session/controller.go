package session

import (
	"image"

	"github.com/lz-wang/photo-watermark/pkg/watermark"
)

// Canvas describes the current image and watermark text as laid out for the
// last redraw.
type Canvas struct {
	Size    image.Point
	Metrics watermark.Metrics
}

type dragState struct {
	active bool
	anchor image.Point
}

// Dragging reports whether a drag gesture is in progress.
func (s *Session) Dragging() bool {
	return s.drag.active
}

// Press starts a drag when pt (image pixels) hits the watermark text box.
// Only manual placement can be dragged.
func (s *Session) Press(c Canvas, pt image.Point) bool {
	manual, ok := s.Spec.Placement.(watermark.Manual)
	if !ok || c.Metrics.Empty() {
		return false
	}
	if !pt.In(c.Metrics.Bounds(manual.Origin)) {
		return false
	}
	s.drag = dragState{active: true, anchor: pt.Sub(manual.Origin)}
	return true
}

// Move drags the watermark so that the grabbed point follows pt, keeping the
// whole text box on the canvas. It reports whether a redraw is needed.
func (s *Session) Move(c Canvas, pt image.Point) bool {
	if !s.drag.active {
		return false
	}
	if _, ok := s.Spec.Placement.(watermark.Manual); !ok {
		s.drag = dragState{}
		return false
	}
	origin := watermark.ClampOrigin(pt.Sub(s.drag.anchor), c.Size.X, c.Size.Y, c.Metrics)
	s.Spec.Placement = watermark.Manual{Origin: origin}
	s.lastOrigin = origin
	return true
}

// Release ends the drag. When one was active the current image is marked
// modified and true is returned.
func (s *Session) Release() bool {
	if !s.drag.active {
		return false
	}
	s.drag = dragState{}
	if img, ok := s.Current(); ok {
		s.MarkModified(img.Path)
	}
	return true
}
