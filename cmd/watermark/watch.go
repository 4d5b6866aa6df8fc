package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lz-wang/photo-watermark/internal/logging"
	"github.com/lz-wang/photo-watermark/pkg/session"
)

func newWatchCmd(a *app) *cobra.Command {
	var f specFlags
	cmd := &cobra.Command{
		Use:   "watch <folder>",
		Short: "Watermark images as they appear in a folder",
		Long: `Watches a folder, including subfolders created later, and exports every new
image with the current settings until interrupted. Images already in the
folder when watching starts are left alone; use export for those.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := a.baseTemplate(f.template)
			if err != nil {
				return err
			}
			s := session.New(base.Spec, base.Output, logging.Component(a.log, "session"))
			if err := f.applyStyle(cmd, s); err != nil {
				return err
			}
			if err := f.applyPlacement(cmd, s); err != nil {
				return err
			}

			st := newStatusStyles(cmd.OutOrStdout())
			out := cmd.OutOrStdout()
			exporter := session.NewExporter(session.ExporterOptions{
				Fonts:  a.fonts,
				Encode: a.cfg.EncodeOptions(),
				Log:    logging.Component(a.log, "export"),
			})
			w := session.NewWatcher(exporter, s, args[0], session.WatchOptions{
				Log: a.log,
				Exported: func(src, dst string, err error) {
					if err != nil {
						fmt.Fprintf(out, "%s %s: %v\n", st.fail.Render("failed"), src, err)
						return
					}
					fmt.Fprintf(out, "%s %s -> %s\n", st.ok.Render("ok"), src, dst)
				},
			})
			err = w.Run(cmd.Context())
			if errors.Is(err, context.Canceled) {
				a.saveState(s)
				processed, failed := w.Stats()
				fmt.Fprintf(out, "%s, %s\n",
					st.ok.Render(fmt.Sprintf("%d exported", processed)),
					st.failCount(failed))
				return nil
			}
			return err
		},
	}
	f.register(cmd)
	return cmd
}
