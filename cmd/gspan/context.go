package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/dgallion1/gspan/internal/config"
	"github.com/dgallion1/gspan/internal/export"
	"github.com/dgallion1/gspan/internal/pipeline"
	"github.com/dgallion1/gspan/internal/source"
	"github.com/dgallion1/gspan/internal/transcript"
)

type globalFlags struct {
	config        string
	authors       string
	speakers      string
	flat          bool
	defaultAuthor string
	endedLabel    string
	verbose       bool
}

type commandContext struct {
	flags *globalFlags

	configOnce sync.Once
	config     config.Config
	configErr  error
	log        *slog.Logger
}

func newCommandContext(flags *globalFlags) *commandContext {
	return &commandContext{flags: flags}
}

// ensureConfig loads the config file, then the environment, then flags.
func (c *commandContext) ensureConfig(cmd *cobra.Command) (config.Config, error) {
	c.configOnce.Do(func() {
		cfg, err := config.LoadFile(strings.TrimSpace(c.flags.config))
		if err != nil {
			c.configErr = err
			return
		}
		f := cmd.Flags()
		if f.Changed("authors") {
			cfg.AuthorsFile = c.flags.authors
		}
		if f.Changed("speakers") {
			cfg.SpeakersFile = c.flags.speakers
		}
		if f.Changed("flat") {
			cfg.FlatMarkdown = c.flags.flat
		}
		if f.Changed("default-author") {
			cfg.DefaultAuthor = c.flags.defaultAuthor
		}
		if f.Changed("ended-label") {
			cfg.EndedLabel = c.flags.endedLabel
		}
		if err := cfg.Validate(); err != nil {
			c.configErr = fmt.Errorf("invalid configuration: %w", err)
			return
		}
		c.config = cfg

		level := slog.LevelWarn
		if c.flags.verbose {
			level = slog.LevelDebug
		}
		c.log = slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	})
	return c.config, c.configErr
}

func (c *commandContext) logger() *slog.Logger {
	if c.log == nil {
		return slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return c.log
}

// serverLogger is the long-running logger for serve: Info by default, Debug
// with --verbose.
func (c *commandContext) serverLogger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if c.flags.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

func (c *commandContext) exportClient() *export.Client {
	return export.NewClient(c.config.ExportURLTemplate, c.config.ExportToken, c.config.FetchTimeout)
}

// worker builds a pipeline worker for one-shot CLI use.
func (c *commandContext) worker(stats *pipeline.ParseStats) (*pipeline.Worker, error) {
	parser, err := c.parser()
	if err != nil {
		return nil, err
	}
	return pipeline.NewWorker(c.exportClient(), parser, pipeline.SourceOptions(c.config), stats, c.logger()), nil
}

func (c *commandContext) parser() (*transcript.Parser, error) {
	return pipeline.NewParser(c.config, c.logger())
}

// loadInput reads a file argument, or stdin for "-" or no argument. Stdin is
// treated as HTML unless --filename names another type.
func loadInput(cmd *cobra.Command, w *pipeline.Worker, args []string, stdinName string) (*source.Source, error) {
	var data []byte
	var filename string
	var err error
	if len(args) == 0 || args[0] == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
		filename = stdinName
	} else {
		data, err = os.ReadFile(args[0])
		filename = filepath.Base(args[0])
	}
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return w.Load(data, filename)
}

// writeOutput runs write against the -o file, or stdout when unset.
func writeOutput(cmd *cobra.Command, path string, write func(io.Writer) error) error {
	if path == "" || path == "-" {
		return write(cmd.OutOrStdout())
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
