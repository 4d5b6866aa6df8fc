package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lz-wang/photo-watermark/internal/logging"
	"github.com/lz-wang/photo-watermark/pkg/session"
	"github.com/lz-wang/photo-watermark/pkg/template"
	"github.com/lz-wang/photo-watermark/pkg/watermark"
)

func newTemplateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Save and inspect watermark templates",
	}
	cmd.AddCommand(newTemplateSaveCmd(a))
	cmd.AddCommand(newTemplateShowCmd(a))
	return cmd
}

func newTemplateSaveCmd(a *app) *cobra.Command {
	var f specFlags
	cmd := &cobra.Command{
		Use:   "save <file.ini>",
		Short: "Write the current settings, with flag overrides, to a template",
		Args:  cobra.ExactArgs(1),
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
			if err := template.SaveFile(args[0], s.Spec, s.Output); err != nil {
				return err
			}
			a.log.Info().Str("path", args[0]).Msg("template saved")
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func newTemplateShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show [file.ini]",
		Short: "Print a template, or the last used settings",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfg.StateFile
			if len(args) == 1 {
				path = args[0]
			}
			t, err := template.LoadFile(path)
			if err != nil && !errors.Is(err, template.ErrParse) {
				return err
			}
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
			}
			printTemplate(cmd, t)
			return nil
		},
	}
}

func printTemplate(cmd *cobra.Command, t template.Template) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	defer w.Flush()
	spec := t.Spec
	fmt.Fprintf(w, "text\t%q\n", spec.Text)
	fmt.Fprintf(w, "font\t%s\n", spec.Font)
	fmt.Fprintf(w, "color\t%s\n", watermark.FormatHexColor(spec.Color))
	fmt.Fprintf(w, "opacity\t%g\n", spec.Opacity)
	fmt.Fprintf(w, "rotation\t%d\n", spec.Rotation)
	switch p := spec.Placement.(type) {
	case watermark.Preset:
		fmt.Fprintf(w, "placement\tpreset %s\n", p.Anchor)
	case watermark.Manual:
		fmt.Fprintf(w, "placement\tmanual %d,%d\n", p.Origin.X, p.Origin.Y)
	}
	fmt.Fprintf(w, "output folder\t%s\n", t.Output.Folder)
	fmt.Fprintf(w, "file names\t%s\n", t.Output.FileName("photo.jpg"))
}
