package main

import (
	"errors"
	"image"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/lz-wang/photo-watermark/internal/config"
	"github.com/lz-wang/photo-watermark/internal/logging"
	"github.com/lz-wang/photo-watermark/pkg/session"
	"github.com/lz-wang/photo-watermark/pkg/template"
	"github.com/lz-wang/photo-watermark/pkg/watermark"
)

type app struct {
	configFile string
	cfg        *config.Config
	log        zerolog.Logger
	fonts      *watermark.FontLoader
}

func newRootCmd() *cobra.Command {
	a := &app{log: zerolog.Nop()}
	cmd := &cobra.Command{
		Use:   "watermark",
		Short: "Place text watermarks on batches of photos",
		Long: `watermark renders a text watermark onto photos and exports them in batch.

Settings (text, font, color, opacity, rotation, position and output naming)
are kept between runs and can be saved to or loaded from INI templates.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			cfg, err := config.Load(a.configFile)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.log = logging.New(cfg.Logging.Level, cfg.Logging.Format, cmd.ErrOrStderr())
			a.fonts = watermark.NewFontLoader(cfg.FontDirs, logging.Component(a.log, "fonts"))
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&a.configFile, "config", "", "path to config file (default: ./watermark.yaml)")

	cmd.AddCommand(newExportCmd(a))
	cmd.AddCommand(newPreviewCmd(a))
	cmd.AddCommand(newTemplateCmd(a))
	cmd.AddCommand(newWatchCmd(a))
	return cmd
}

// baseTemplate returns the template named by path, or the last used settings
// when path is empty.
func (a *app) baseTemplate(path string) (template.Template, error) {
	if path != "" {
		t, err := template.LoadFile(path)
		if err != nil && !errors.Is(err, template.ErrParse) {
			return t, err
		}
		a.logTemplateIssues(path, err)
		return t, nil
	}
	t, err := template.LoadFile(a.cfg.StateFile)
	if errors.Is(err, fs.ErrNotExist) {
		a.log.Debug().Str("path", a.cfg.StateFile).Msg("no saved settings, using defaults")
		return template.Defaults(), nil
	}
	if err != nil && !errors.Is(err, template.ErrParse) {
		a.log.Warn().Err(err).Str("path", a.cfg.StateFile).Msg("cannot read saved settings, using defaults")
		return template.Defaults(), nil
	}
	a.logTemplateIssues(a.cfg.StateFile, err)
	return t, nil
}

func (a *app) logTemplateIssues(path string, err error) {
	if err != nil {
		a.log.Debug().Err(err).Str("path", path).Msg("template fields replaced by defaults")
	}
}

// saveState remembers the session settings for the next run.
func (a *app) saveState(s *session.Session) {
	if err := template.SaveFile(a.cfg.StateFile, s.Spec, s.Output); err != nil {
		a.log.Warn().Err(err).Str("path", a.cfg.StateFile).Msg("failed to save settings")
	}
}

// layoutCurrent positions the watermark on the current image so that a
// following switch to manual mode starts from the preset position.
func (a *app) layoutCurrent(s *session.Session) (session.Canvas, image.Image, error) {
	cur, ok := s.Current()
	if !ok {
		return session.Canvas{}, nil, errors.New("no image selected")
	}
	img, err := watermark.Open(cur.Path)
	if err != nil {
		return session.Canvas{}, nil, err
	}
	face, err := a.fonts.Face(s.Spec.Font)
	if err != nil {
		return session.Canvas{}, nil, err
	}
	text := watermark.ExpandText(s.Spec.Text, cur.Path)
	c := session.Canvas{
		Size:    img.Bounds().Size(),
		Metrics: watermark.Measure(face, text),
	}
	s.Layout(c.Size.X, c.Size.Y, c.Metrics)
	return c, img, nil
}
