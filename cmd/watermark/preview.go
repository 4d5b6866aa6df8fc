package main

import (
	"fmt"
	"image"
	"image/color"

	"github.com/spf13/cobra"

	"github.com/lz-wang/photo-watermark/internal/logging"
	"github.com/lz-wang/photo-watermark/pkg/session"
	"github.com/lz-wang/photo-watermark/pkg/watermark"
)

func newPreviewCmd(a *app) *cobra.Command {
	var (
		f       specFlags
		output  string
		drag    string
		width   int
		height  int
		persist bool
	)
	cmd := &cobra.Command{
		Use:   "preview <image>",
		Short: "Render a letterboxed preview of one watermarked image",
		Long: `Renders the image with the current settings scaled into a preview box and
writes it as PNG.

--drag simulates a pointer gesture in preview coordinates: the first point is
the press, the following points are moves. Dragging only works in manual mode;
a preset position is converted to manual first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if width <= 0 {
				width = a.cfg.Preview.Width
			}
			if height <= 0 {
				height = a.cfg.Preview.Height
			}
			base, err := a.baseTemplate(f.template)
			if err != nil {
				return err
			}
			s := session.New(base.Spec, base.Output, logging.Component(a.log, "session"))
			if _, err := s.AddFile(args[0]); err != nil {
				return err
			}
			if err := f.applyStyle(cmd, s); err != nil {
				return err
			}
			canvas, img, err := a.layoutCurrent(s)
			if err != nil {
				return err
			}
			if err := f.applyPlacement(cmd, s); err != nil {
				return err
			}

			_, t := watermark.RenderPreview(img, width, height, color.Black)
			if drag != "" {
				pts, err := parseDrag(drag)
				if err != nil {
					return fmt.Errorf("invalid --drag: %w", err)
				}
				s.SetPlacementMode(watermark.ModeManual)
				if err := gesture(s, canvas, t, pts); err != nil {
					return err
				}
			}

			face, err := a.fonts.Face(s.Spec.Font)
			if err != nil {
				return err
			}
			cur, _ := s.Current()
			spec := s.Spec
			spec.Text = watermark.ExpandText(spec.Text, cur.Path)
			origin := s.Layout(canvas.Size.X, canvas.Size.Y, canvas.Metrics)
			marked := watermark.Render(img, spec, face, origin)
			preview, _ := watermark.RenderPreview(marked, width, height, color.Black)
			if err := watermark.SaveImage(preview, output, watermark.DefaultEncodeOptions()); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "mode=%s origin=%d,%d modified=%t\n",
				watermark.ModeOf(s.Spec.Placement), origin.X, origin.Y, s.IsModified(cur.Path))
			if persist {
				a.saveState(s)
			}
			return nil
		},
	}
	f.register(cmd)
	fl := cmd.Flags()
	fl.StringVar(&output, "preview-out", "preview.png", "where to write the preview image")
	fl.StringVar(&drag, "drag", "", "pointer gesture in preview coordinates: x1,y1:x2,y2[:...]")
	fl.IntVar(&width, "width", 0, "preview box width (default from config)")
	fl.IntVar(&height, "height", 0, "preview box height (default from config)")
	fl.BoolVar(&persist, "save", false, "remember the resulting settings for the next run")
	return cmd
}

// gesture replays a press at pts[0] and moves to the remaining points.
func gesture(s *session.Session, c session.Canvas, t watermark.PreviewTransform, pts []image.Point) error {
	press, ok := t.ToImage(pts[0])
	if !ok {
		return fmt.Errorf("press at %v is outside the image", pts[0])
	}
	if !s.Press(c, press) {
		return fmt.Errorf("press at %v does not hit the watermark", pts[0])
	}
	for _, p := range pts[1:] {
		if pt, ok := t.ToImage(p); ok {
			s.Move(c, pt)
		}
	}
	s.Release()
	return nil
}
