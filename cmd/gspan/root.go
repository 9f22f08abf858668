package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var flags globalFlags
	ctx := newCommandContext(&flags)

	rootCmd := &cobra.Command{
		Use:           "gspan",
		Short:         "Parse live transcripts and their annotations",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := ctx.ensureConfig(cmd)
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.config, "config", "c", "", "Configuration file path (TOML)")
	pf.StringVar(&flags.authors, "authors", "", "Author directory file (YAML or JSON)")
	pf.StringVar(&flags.speakers, "speakers", "", "Speaker class table (YAML)")
	pf.BoolVar(&flags.flat, "flat", false, "Collapse newlines in markdown output")
	pf.StringVar(&flags.defaultAuthor, "default-author", "", "Author substituted when a lookup misses")
	pf.StringVar(&flags.endedLabel, "ended-label", "", "Status for documents that are not live (ended or after)")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "Log debug output to stderr")

	rootCmd.AddCommand(newParseCommand(ctx))
	rootCmd.AddCommand(newFetchCommand(ctx))
	rootCmd.AddCommand(newRenderCommand(ctx))
	rootCmd.AddCommand(newInspectCommand(ctx))
	rootCmd.AddCommand(newServeCommand(ctx))

	return rootCmd
}
