package watermark

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// FontSpec describes the typeface used for the watermark text.
type FontSpec struct {
	Family    string
	PointSize int
	Bold      bool
	Italic    bool
}

func (f FontSpec) String() string {
	parts := []string{f.Family, fmt.Sprint(f.PointSize)}
	if f.Bold {
		parts = append(parts, "bold")
	}
	if f.Italic {
		parts = append(parts, "italic")
	}
	return strings.Join(parts, ",")
}

// ParseFontSpec reads the "Family,Size[,bold][,italic]" form produced by String.
func ParseFontSpec(s string) (FontSpec, error) {
	parts := strings.Split(s, ",")
	if len(parts) < 2 {
		return FontSpec{}, fmt.Errorf("invalid font %q: expected family,size", s)
	}
	fs := FontSpec{Family: strings.TrimSpace(parts[0])}
	if fs.Family == "" {
		return FontSpec{}, fmt.Errorf("invalid font %q: empty family", s)
	}
	if _, err := fmt.Sscanf(strings.TrimSpace(parts[1]), "%d", &fs.PointSize); err != nil || fs.PointSize <= 0 {
		return FontSpec{}, fmt.Errorf("invalid font size in %q", s)
	}
	for _, flag := range parts[2:] {
		switch strings.ToLower(strings.TrimSpace(flag)) {
		case "bold":
			fs.Bold = true
		case "italic":
			fs.Italic = true
		case "":
		default:
			return FontSpec{}, fmt.Errorf("unknown font style %q", flag)
		}
	}
	return fs, nil
}

// DefaultFontDirs are searched after any caller supplied directories.
var DefaultFontDirs = []string{
	".",
	"/Library/Fonts",
	"/System/Library/Fonts/Supplemental",
	"C:\\Windows\\Fonts",
	"/usr/share/fonts/truetype/msttcorefonts",
	"/usr/share/fonts/truetype/dejavu",
	"/usr/share/fonts/TTF",
}

// FontLoader resolves FontSpecs to faces and caches the result. A family that
// cannot be found falls back to the matching Go font.
type FontLoader struct {
	dirs []string
	log  zerolog.Logger

	mu    sync.Mutex
	faces map[FontSpec]font.Face
}

// NewFontLoader searches dirs before DefaultFontDirs.
func NewFontLoader(dirs []string, log zerolog.Logger) *FontLoader {
	all := make([]string, 0, len(dirs)+len(DefaultFontDirs))
	all = append(all, dirs...)
	all = append(all, DefaultFontDirs...)
	return &FontLoader{dirs: all, log: log, faces: make(map[FontSpec]font.Face)}
}

// Face returns a face for fs, loading it on first use.
func (l *FontLoader) Face(fs FontSpec) (font.Face, error) {
	if fs.PointSize <= 0 {
		return nil, errors.New("font point size must be positive")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if face, ok := l.faces[fs]; ok {
		return face, nil
	}
	face, err := l.load(fs)
	if err != nil {
		return nil, err
	}
	l.faces[fs] = face
	return face, nil
}

func (l *FontLoader) load(fs FontSpec) (font.Face, error) {
	family := strings.TrimSpace(fs.Family)
	if isFontFile(family) {
		face, err := loadFontFace(family, fs.PointSize)
		if err == nil {
			return face, nil
		}
		l.log.Warn().Err(err).Str("font", family).Msg("failed to load font file, falling back to Go font")
		return goFontFace(fs)
	}
	if strings.EqualFold(family, "go") || strings.EqualFold(family, "go mono") {
		return goFontFace(fs)
	}
	if family != "" {
		if path := firstExistingFontPath(l.candidates(fs)); path != "" {
			face, err := loadFontFace(path, fs.PointSize)
			if err == nil {
				l.log.Debug().Str("family", family).Str("path", path).Msg("resolved font")
				return face, nil
			}
			l.log.Warn().Err(err).Str("path", path).Msg("failed to load font, falling back to Go font")
		} else {
			l.log.Debug().Str("family", family).Msg("font family not found, using Go font")
		}
	}
	return goFontFace(fs)
}

func (l *FontLoader) candidates(fs FontSpec) []string {
	styles := []string{""}
	switch {
	case fs.Bold && fs.Italic:
		styles = []string{" Bold Italic", "bi", "z"}
	case fs.Bold:
		styles = []string{" Bold", "bd", "b"}
	case fs.Italic:
		styles = []string{" Italic", "i"}
	}
	family := strings.TrimSpace(fs.Family)
	names := []string{family, strings.ToLower(family), strings.ReplaceAll(family, " ", "")}
	var out []string
	for _, dir := range l.dirs {
		for _, name := range names {
			for _, style := range styles {
				for _, ext := range []string{".ttf", ".otf"} {
					out = append(out, filepath.Join(dir, name+style+ext))
				}
			}
		}
	}
	return out
}

func isFontFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".ttf", ".otf":
		return true
	}
	return false
}

func loadFontFace(path string, size int) (font.Face, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("font path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return newFace(data, size)
}

func goFontFace(fs FontSpec) (font.Face, error) {
	data := goregular.TTF
	switch {
	case strings.EqualFold(strings.TrimSpace(fs.Family), "go mono"):
		data = gomono.TTF
	case fs.Bold && fs.Italic:
		data = gobolditalic.TTF
	case fs.Bold:
		data = gobold.TTF
	case fs.Italic:
		data = goitalic.TTF
	}
	return newFace(data, fs.PointSize)
}

func newFace(data []byte, size int) (font.Face, error) {
	fnt, err := opentype.Parse(data)
	if err != nil {
		return nil, err
	}
	return opentype.NewFace(fnt, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

func firstExistingFontPath(candidates []string) string {
	for _, p := range candidates {
		if p == "" {
			continue
		}
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			return p
		}
	}
	return ""
}
