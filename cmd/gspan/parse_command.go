package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newParseCommand(ctx *commandContext) *cobra.Command {
	var output string
	var stdinName string
	var strict bool

	cmd := &cobra.Command{
		Use:   "parse [file|-]",
		Short: "Parse a transcript into JSON",
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
			if err := writeOutput(cmd, output, func(out io.Writer) error {
				return doc.WriteJSON(out)
			}); err != nil {
				return err
			}
			if strict && len(doc.Diagnostics) > 0 {
				return fmt.Errorf("%d parse diagnostics; first: %s", len(doc.Diagnostics), doc.Diagnostics[0])
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write JSON to this file instead of stdout")
	cmd.Flags().StringVar(&stdinName, "filename", "stdin.html", "Filename used to pick the loader for stdin")
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when the parse produced diagnostics")
	return cmd
}
