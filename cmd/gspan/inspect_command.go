package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/gspan/internal/transcript"
)

func newInspectCommand(ctx *commandContext) *cobra.Command {
	var stdinName string
	var plain bool

	cmd := &cobra.Command{
		Use:   "inspect [file|-]",
		Short: "Summarize the records of a transcript as a table",
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

			out := cmd.OutOrStdout()
			usePlain := plain || !isTerminal(out)
			if !usePlain {
				fmt.Fprintf(out, "%s  status=%s records=%d annotations=%d\n",
					src.Title, doc.Status, len(doc.Contents), doc.Count(transcript.TypeAnnotation))
			}
			fmt.Fprintln(out, renderTable(
				[]string{"#", "Type", "Who", "Published", "Text"},
				recordRows(doc),
				[]columnAlignment{alignRight},
				usePlain,
			))
			for _, d := range doc.Diagnostics {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", d)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&stdinName, "filename", "stdin.html", "Filename used to pick the loader for stdin")
	cmd.Flags().BoolVar(&plain, "plain", false, "Write CSV even on a terminal")
	return cmd
}

func recordRows(doc *transcript.Document) [][]string {
	rows := make([][]string, 0, len(doc.Contents))
	for i, rec := range doc.Contents {
		row := []string{strconv.Itoa(i + 1), string(rec.Kind()), "", "", ""}
		switch rec := rec.(type) {
		case *transcript.AnnotationRecord:
			if rec.Metadata.Author != nil {
				row[2] = rec.Metadata.Author.Name()
			}
			row[3] = strconv.FormatBool(rec.Metadata.IsPublished())
			row[4] = preview(rec.Contents)
			if !rec.Terminated {
				row[4] += " (unterminated)"
			}
		case *transcript.TranscriptRecord:
			switch c := rec.Context.(type) {
			case transcript.SpeakerContext:
				row[2] = c.Speaker
				if c.Timestamp != nil {
					row[2] += " [" + *c.Timestamp + "]"
				}
				row[4] = preview(c.TranscriptText)
			case transcript.SoundbiteContext:
				row[4] = preview(c.Soundbite)
			case transcript.TextContext:
				row[4] = preview(c.Text)
			default:
				row[4] = "(no context)"
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	const limit = 72
	if r := []rune(s); len(r) > limit {
		return string(r[:limit-3]) + "..."
	}
	return s
}
