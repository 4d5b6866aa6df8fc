package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/image/font"

	"github.com/lz-wang/photo-watermark/pkg/watermark"
)

// Failure reasons recorded in a Report.
const (
	ReasonDecode = "decode-error"
	ReasonWrite  = "write-error"
)

// ErrOutputFolderInvalid is returned before any file is written when the
// destination folder is unset, missing, not a directory or not writable.
var ErrOutputFolderInvalid = errors.New("output folder invalid")

// Failure describes one image that could not be exported.
type Failure struct {
	Path   string
	Reason string
	Err    error
}

// Report summarises an export run.
type Report struct {
	Succeeded int
	Failed    []Failure
	Written   []string
}

// ProgressFunc is called after each image. err is nil on success.
type ProgressFunc func(done, total int, img SourceImage, err error)

// ExporterOptions configures an Exporter.
type ExporterOptions struct {
	Fonts    *watermark.FontLoader
	Encode   watermark.EncodeOptions
	Progress ProgressFunc
	Log      zerolog.Logger
}

// Exporter renders every session image with the session settings and writes
// the results to the output folder.
type Exporter struct {
	fonts    *watermark.FontLoader
	encode   watermark.EncodeOptions
	progress ProgressFunc
	log      zerolog.Logger
}

// NewExporter creates an Exporter. A nil font loader gets a default one.
func NewExporter(opts ExporterOptions) *Exporter {
	fonts := opts.Fonts
	if fonts == nil {
		fonts = watermark.NewFontLoader(nil, opts.Log)
	}
	return &Exporter{
		fonts:    fonts,
		encode:   opts.Encode,
		progress: opts.Progress,
		log:      opts.Log,
	}
}

// ExportAll processes the images in session order. Per-image failures are
// collected in the report and do not stop the run; files already written
// are kept. Cancellation is checked between images.
func (e *Exporter) ExportAll(ctx context.Context, s *Session) (Report, error) {
	var report Report
	face, err := e.prepare(s)
	if err != nil {
		return report, err
	}

	folder := s.Output.Folder
	images := s.Images()
	e.log.Info().Int("images", len(images)).Str("folder", folder).Msg("export started")
	for i, img := range images {
		if err := ctx.Err(); err != nil {
			e.log.Warn().Int("done", i).Msg("export cancelled")
			return report, err
		}
		written, reason, err := e.exportOne(img, s.Spec, face, s.Output)
		if err != nil {
			report.Failed = append(report.Failed, Failure{Path: img.Path, Reason: reason, Err: err})
			e.log.Warn().Err(err).Str("path", img.Path).Str("reason", reason).Msg("image skipped")
		} else {
			report.Succeeded++
			report.Written = append(report.Written, written)
			e.log.Debug().Str("path", img.Path).Str("output", written).Msg("image exported")
		}
		if e.progress != nil {
			e.progress(i+1, len(images), img, err)
		}
	}
	e.log.Info().Int("succeeded", report.Succeeded).Int("failed", len(report.Failed)).Msg("export finished")
	return report, nil
}

// ExportFile adds path to the session and exports that image alone. It
// fails with ErrDuplicate when the path is already part of the session.
func (e *Exporter) ExportFile(ctx context.Context, s *Session, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	face, err := e.prepare(s)
	if err != nil {
		return "", err
	}
	img, err := s.AddFile(path)
	if err != nil {
		return "", err
	}
	written, reason, err := e.exportOne(img, s.Spec, face, s.Output)
	if err != nil {
		return "", fmt.Errorf("%s: %w", reason, err)
	}
	e.log.Debug().Str("path", img.Path).Str("output", written).Msg("image exported")
	return written, nil
}

// prepare checks everything that would make every image fail.
func (e *Exporter) prepare(s *Session) (font.Face, error) {
	if err := checkOutputFolder(s.Output.Folder); err != nil {
		return nil, err
	}
	if err := s.Spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid watermark settings: %w", err)
	}
	face, err := e.fonts.Face(s.Spec.Font)
	if err != nil {
		return nil, fmt.Errorf("loading font %s: %w", s.Spec.Font, err)
	}
	return face, nil
}

func (e *Exporter) exportOne(img SourceImage, spec watermark.Spec, face font.Face, out OutputConfig) (string, string, error) {
	src, err := watermark.Open(img.Path)
	if err != nil {
		return "", ReasonDecode, err
	}
	name := out.FileName(img.Path)

	spec.Text = watermark.ExpandText(spec.Text, img.Path)
	if spec.Text == "" {
		data, err := os.ReadFile(img.Path)
		if err != nil {
			return "", ReasonDecode, fmt.Errorf("%w: %v", watermark.ErrImageDecode, err)
		}
		path, err := writeUnique(out.Folder, name, func(w io.Writer) error {
			_, err := w.Write(data)
			return err
		})
		if err != nil {
			return "", ReasonWrite, err
		}
		return path, "", nil
	}

	format, err := watermark.FormatFor(name)
	if err != nil {
		return "", ReasonWrite, err
	}
	b := src.Bounds()
	m := watermark.Measure(face, spec.Text)
	origin := watermark.ComputeOrigin(b.Dx(), b.Dy(), m, spec.Placement)
	marked := watermark.Render(src, spec, face, origin)

	path, err := writeUnique(out.Folder, name, func(w io.Writer) error {
		return watermark.Encode(w, marked, format, e.encode)
	})
	if err != nil {
		return "", ReasonWrite, err
	}
	return path, "", nil
}

// NumberedName inserts "(n)" before the extension; n == 0 returns name.
func NumberedName(name string, n int) string {
	if n == 0 {
		return name
	}
	ext := filepath.Ext(name)
	return fmt.Sprintf("%s(%d)%s", strings.TrimSuffix(name, ext), n, ext)
}

// NextFreeName returns the first NumberedName that does not exist in dir.
func NextFreeName(dir, name string) string {
	for n := 0; ; n++ {
		candidate := NumberedName(name, n)
		if _, err := os.Lstat(filepath.Join(dir, candidate)); errors.Is(err, fs.ErrNotExist) {
			return candidate
		}
	}
}

// writeUnique creates the first free numbered variant of name in dir with
// O_EXCL, so an existing file is never overwritten. A failed write removes
// the partial file.
func writeUnique(dir, name string, write func(io.Writer) error) (string, error) {
	for n := 0; ; n++ {
		path := filepath.Join(dir, NumberedName(name, n))
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", err
		}
		if err := write(f); err != nil {
			f.Close()
			os.Remove(path)
			return "", err
		}
		if err := f.Close(); err != nil {
			os.Remove(path)
			return "", err
		}
		return path, nil
	}
}

func checkOutputFolder(folder string) error {
	if strings.TrimSpace(folder) == "" {
		return fmt.Errorf("%w: no output folder selected", ErrOutputFolderInvalid)
	}
	fi, err := os.Stat(folder)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOutputFolderInvalid, err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrOutputFolderInvalid, folder)
	}
	probe, err := os.CreateTemp(folder, ".watermark-probe-*")
	if err != nil {
		return fmt.Errorf("%w: %s is not writable: %v", ErrOutputFolderInvalid, folder, err)
	}
	probe.Close()
	os.Remove(probe.Name())
	return nil
}
