package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/dgallion1/gspan/internal/authors"
	"github.com/dgallion1/gspan/internal/config"
	"github.com/dgallion1/gspan/internal/markdown"
	"github.com/dgallion1/gspan/internal/source"
	"github.com/dgallion1/gspan/internal/transcript"
)

// NewParser builds a transcript parser from configuration, loading the author
// directory and speaker class table when their files are set.
func NewParser(cfg config.Config, log *slog.Logger) (*transcript.Parser, error) {
	opts := transcript.Options{
		Mode:        markdown.Block,
		EndedStatus: transcript.Status(cfg.EndedLabel),
		Logger:      log,
	}
	if cfg.FlatMarkdown {
		opts.Mode = markdown.Flat
	}
	if cfg.AuthorsFile != "" {
		entries, err := authors.Load(cfg.AuthorsFile)
		if err != nil {
			return nil, fmt.Errorf("load authors: %w", err)
		}
		opts.Authors = authors.NewDirectory(entries, cfg.DefaultAuthor)
		log.Info("loaded author directory", "path", cfg.AuthorsFile, "authors", opts.Authors.Len())
	}
	if cfg.SpeakersFile != "" {
		classes, err := transcript.LoadSpeakerClasses(cfg.SpeakersFile)
		if err != nil {
			return nil, err
		}
		opts.SpeakerClasses = classes
	}
	return transcript.New(opts), nil
}

// SourceOptions returns the loader options for cfg.
func SourceOptions(cfg config.Config) source.Options {
	return source.Options{
		Sanitize:             cfg.SanitizeHTML,
		PDFFallbackPdftotext: cfg.PDFFallbackPdftotext,
	}
}
