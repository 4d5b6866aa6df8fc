// Package session holds the images, watermark settings and output
// configuration of one watermarking session, and implements drag placement
// and batch export on top of it.
package session

import (
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/lz-wang/photo-watermark/pkg/watermark"
)

var (
	// ErrUnsupportedFormat is returned when adding a file whose extension is
	// not an image format.
	ErrUnsupportedFormat = errors.New("unsupported image format")
	// ErrDuplicate is returned when a path is already in the session.
	ErrDuplicate = errors.New("image already in session")
)

const displayNameLimit = 20

// SourceImage is an image file added to the session.
type SourceImage struct {
	Path        string
	DisplayName string
}

// OutputConfig says where and under which names exported images are written.
type OutputConfig struct {
	Folder string
	Prefix string
	Suffix string
}

// FileName builds prefix + base + suffix + ext for a source path.
func (o OutputConfig) FileName(source string) string {
	base := filepath.Base(source)
	ext := filepath.Ext(base)
	return o.Prefix + base[:len(base)-len(ext)] + o.Suffix + ext
}

// Session owns an ordered, duplicate-free image list and the watermark
// settings applied to all of them. It is not safe for concurrent use.
type Session struct {
	Spec   watermark.Spec
	Output OutputConfig

	images   []SourceImage
	index    map[string]int
	modified map[string]bool
	current  int

	lastOrigin image.Point
	lastAnchor watermark.Anchor

	drag dragState
	log  zerolog.Logger
}

// New creates an empty session with the given settings.
func New(spec watermark.Spec, out OutputConfig, log zerolog.Logger) *Session {
	s := &Session{
		Spec:       spec,
		Output:     out,
		index:      make(map[string]int),
		modified:   make(map[string]bool),
		current:    -1,
		lastAnchor: watermark.Center,
		log:        log,
	}
	switch p := spec.Placement.(type) {
	case watermark.Preset:
		s.lastAnchor = p.Anchor
	case watermark.Manual:
		s.lastOrigin = p.Origin
	}
	return s
}

// AddFile appends one image. The first image added becomes the current one.
func (s *Session) AddFile(path string) (SourceImage, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return SourceImage{}, err
	}
	if !watermark.SupportedExtension(abs) {
		return SourceImage{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if _, ok := s.index[abs]; ok {
		return SourceImage{}, fmt.Errorf("%w: %s", ErrDuplicate, path)
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return SourceImage{}, err
	}
	if fi.IsDir() {
		return SourceImage{}, fmt.Errorf("%s is a directory", path)
	}
	img := SourceImage{Path: abs, DisplayName: displayName(abs)}
	s.index[abs] = len(s.images)
	s.images = append(s.images, img)
	if s.current < 0 {
		s.current = 0
	}
	return img, nil
}

// AddFolder recursively adds every supported image below dir in lexical
// order and returns how many were new.
func (s *Session) AddFolder(dir string) (int, error) {
	fi, err := os.Stat(dir)
	if err != nil {
		return 0, err
	}
	if !fi.IsDir() {
		return 0, fmt.Errorf("%s is not a directory", dir)
	}
	added := 0
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			s.log.Warn().Err(err).Str("path", path).Msg("skipping unreadable entry")
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !watermark.SupportedExtension(path) {
			return nil
		}
		if _, err := s.AddFile(path); err != nil {
			if errors.Is(err, ErrDuplicate) {
				return nil
			}
			s.log.Warn().Err(err).Str("path", path).Msg("skipping file")
			return nil
		}
		added++
		return nil
	})
	return added, err
}

// Remove drops an image from the session. It reports whether the path was present.
func (s *Session) Remove(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	i, ok := s.index[abs]
	if !ok {
		return false
	}
	s.images = append(s.images[:i], s.images[i+1:]...)
	delete(s.index, abs)
	delete(s.modified, abs)
	for j := i; j < len(s.images); j++ {
		s.index[s.images[j].Path] = j
	}
	switch {
	case len(s.images) == 0:
		s.current = -1
	case s.current > i || s.current >= len(s.images):
		s.current--
	}
	s.drag = dragState{}
	return true
}

// Images returns the session images in insertion order.
func (s *Session) Images() []SourceImage {
	out := make([]SourceImage, len(s.images))
	copy(out, s.images)
	return out
}

// Len is the number of images.
func (s *Session) Len() int {
	return len(s.images)
}

// Select makes the i-th image current.
func (s *Session) Select(i int) error {
	if i < 0 || i >= len(s.images) {
		return fmt.Errorf("image index %d out of range [0,%d)", i, len(s.images))
	}
	s.current = i
	s.drag = dragState{}
	return nil
}

// Current returns the selected image, if any.
func (s *Session) Current() (SourceImage, bool) {
	if s.current < 0 || s.current >= len(s.images) {
		return SourceImage{}, false
	}
	return s.images[s.current], true
}

// MarkModified flags path as edited since the settings were last applied.
func (s *Session) MarkModified(path string) {
	if abs, err := filepath.Abs(path); err == nil {
		if _, ok := s.index[abs]; ok {
			s.modified[abs] = true
		}
	}
}

// IsModified reports the flag set by MarkModified.
func (s *Session) IsModified(path string) bool {
	abs, err := filepath.Abs(path)
	return err == nil && s.modified[abs]
}

// ClearModified resets every modified flag.
func (s *Session) ClearModified() {
	s.modified = make(map[string]bool)
}

// Layout computes the origin of the watermark on a w x h canvas and
// remembers it, so a later switch to manual mode starts from there.
func (s *Session) Layout(w, h int, m watermark.Metrics) image.Point {
	origin := watermark.ComputeOrigin(w, h, m, s.Spec.Placement)
	s.lastOrigin = origin
	return origin
}

// SetPlacementMode switches between preset and manual placement. Going to
// manual keeps the last laid-out origin; going back to preset restores the
// anchor in use before the switch.
func (s *Session) SetPlacementMode(mode watermark.Mode) {
	if watermark.ModeOf(s.Spec.Placement) == mode {
		return
	}
	s.drag = dragState{}
	switch mode {
	case watermark.ModeManual:
		if p, ok := s.Spec.Placement.(watermark.Preset); ok {
			s.lastAnchor = p.Anchor
		}
		s.Spec.Placement = watermark.Manual{Origin: s.lastOrigin}
	default:
		s.Spec.Placement = watermark.Preset{Anchor: s.lastAnchor}
	}
}

// SetAnchor selects a preset anchor and switches to preset mode.
func (s *Session) SetAnchor(a watermark.Anchor) {
	s.lastAnchor = a
	s.drag = dragState{}
	s.Spec.Placement = watermark.Preset{Anchor: a}
}

func displayName(path string) string {
	name := []rune(filepath.Base(path))
	if len(name) > displayNameLimit {
		return string(name[:displayNameLimit]) + "..."
	}
	return string(name)
}
