package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/dgallion1/gspan/internal/render"
	"github.com/dgallion1/gspan/internal/source"
	"github.com/dgallion1/gspan/internal/transcript"
)

type parseFunc func(*source.Source) (*transcript.Document, error)

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var output string
	var stdinName string
	var title string

	cmd := &cobra.Command{
		Use:   "render [file|-]",
		Short: "Render an HTML preview of a parsed transcript",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := ctx.worker(nil)
			if err != nil {
				return err
			}
			src, err := loadInput(cmd, w, args, stdinName)
			if err != nil {
				return err
			}
			doc, err := w.Parse(src)
			if err != nil {
				return err
			}
			if title == "" {
				title = src.Title
			}
			r := render.New()
			return writeOutput(cmd, output, func(out io.Writer) error {
				return r.Render(out, title, doc)
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write HTML to this file instead of stdout")
	cmd.Flags().StringVar(&stdinName, "filename", "stdin.html", "Filename used to pick the loader for stdin")
	cmd.Flags().StringVar(&title, "title", "", "Page title (defaults to the document title)")
	return cmd
}
