package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/dgallion1/gspan/internal/source"
)

func newFetchCommand(ctx *commandContext) *cobra.Command {
	var output string
	var parse bool

	cmd := &cobra.Command{
		Use:   "fetch <doc-id>",
		Short: "Download an exported document, optionally parsing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := ctx.worker(nil)
			if err != nil {
				return err
			}
			data, err := w.Fetch(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !parse {
				return writeOutput(cmd, output, func(out io.Writer) error {
					_, err := out.Write(data)
					return err
				})
			}

			src, err := w.Load(data, args[0]+".html")
			if err != nil {
				return err
			}
			return parseAndWrite(cmd, w.Parse, src, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this file instead of stdout")
	cmd.Flags().BoolVar(&parse, "parse", false, "Parse the document and write JSON")
	return cmd
}

func parseAndWrite(cmd *cobra.Command, parse parseFunc, src *source.Source, output string) error {
	doc, err := parse(src)
	if err != nil {
		return err
	}
	return writeOutput(cmd, output, func(out io.Writer) error {
		return doc.WriteJSON(out)
	})
}
