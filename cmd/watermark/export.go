package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lz-wang/photo-watermark/internal/logging"
	"github.com/lz-wang/photo-watermark/pkg/session"
)

func newExportCmd(a *app) *cobra.Command {
	var f specFlags
	cmd := &cobra.Command{
		Use:   "export [files or folders...]",
		Short: "Watermark images and write them to the output folder",
		Long: `Adds the given files, and every image found below the given folders, to a
session and exports them with the current watermark settings.

Existing files in the output folder are never overwritten: a colliding name
gets "(1)", "(2)", ... before its extension.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := a.baseTemplate(f.template)
			if err != nil {
				return err
			}
			s := session.New(base.Spec, base.Output, logging.Component(a.log, "session"))
			if err := addPaths(s, args); err != nil {
				return err
			}
			if s.Len() == 0 {
				return errors.New("no images to process")
			}
			if err := f.applyStyle(cmd, s); err != nil {
				return err
			}
			if manual, err := f.wantsManual(cmd); err != nil {
				return err
			} else if manual {
				if _, _, err := a.layoutCurrent(s); err != nil {
					a.log.Debug().Err(err).Msg("cannot lay out first image before switching to manual")
				}
			}
			if err := f.applyPlacement(cmd, s); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			st := newStatusStyles(out)
			exporter := session.NewExporter(session.ExporterOptions{
				Fonts:  a.fonts,
				Encode: a.cfg.EncodeOptions(),
				Log:    logging.Component(a.log, "export"),
				Progress: func(done, total int, img session.SourceImage, err error) {
					status := st.ok.Render("ok")
					if err != nil {
						status = st.fail.Render(err.Error())
					}
					fmt.Fprintf(out, "[%d/%d] %s: %s\n", done, total, img.DisplayName, status)
				},
			})
			report, err := exporter.ExportAll(cmd.Context(), s)
			// a run rejected up front, e.g. for a bad --out, is not remembered
			if err == nil || cmd.Context().Err() != nil {
				a.saveState(s)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%d image(s) exported to %s\n", report.Succeeded, s.Output.Folder)
			for _, fail := range report.Failed {
				fmt.Fprintf(out, "  %s %s (%s): %v\n", st.fail.Render("failed"), fail.Path, fail.Reason, fail.Err)
			}
			if len(report.Failed) > 0 {
				return fmt.Errorf("%d image(s) failed", len(report.Failed))
			}
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func addPaths(s *session.Session, paths []string) error {
	for _, p := range paths {
		fi, err := os.Stat(p)
		if err != nil {
			return err
		}
		if fi.IsDir() {
			if _, err := s.AddFolder(p); err != nil {
				return fmt.Errorf("adding folder %s: %w", p, err)
			}
			continue
		}
		if _, err := s.AddFile(p); err != nil && !errors.Is(err, session.ErrDuplicate) {
			return err
		}
	}
	return nil
}
