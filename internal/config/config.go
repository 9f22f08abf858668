package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Parsing
	AuthorsFile   string
	SpeakersFile  string
	DefaultAuthor string
	FlatMarkdown  bool
	EndedLabel    string

	// Sources
	SanitizeHTML         bool
	PDFFallbackPdftotext bool

	// Export fetch
	ExportURLTemplate string
	ExportToken       string
	FetchTimeout      time.Duration

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL time.Duration
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Port:                 "8090",
		DefaultAuthor:        "POLITICO",
		EndedLabel:           "ended",
		SanitizeHTML:         false,
		PDFFallbackPdftotext: true,
		FetchTimeout:         30 * time.Second,
		WorkerCount:          4,
		MaxQueueSize:         100,
		MaxUploadBytes:       52428800, // 50MB
		JobTTL:               1 * time.Hour,
	}
}

// Load returns the defaults overridden by environment variables.
func Load() Config {
	cfg := Default()
	cfg.applyEnv()
	cfg.normalize()
	return cfg
}

// LoadFile layers a TOML file between the defaults and the environment. A
// missing file is not an error.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("open config: %w", err)
		default:
			defer f.Close()
			var fc fileConfig
			if err := toml.NewDecoder(f).Decode(&fc); err != nil {
				return Config{}, fmt.Errorf("parse config: %w", err)
			}
			if err := fc.apply(&cfg); err != nil {
				return Config{}, err
			}
		}
	}
	cfg.applyEnv()
	cfg.normalize()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Port = envOr("PORT", c.Port)
	c.APIKey = envOr("GSPAN_API_KEY", c.APIKey)

	c.AuthorsFile = envOr("GSPAN_AUTHORS_FILE", c.AuthorsFile)
	c.SpeakersFile = envOr("GSPAN_SPEAKERS_FILE", c.SpeakersFile)
	c.DefaultAuthor = envOr("GSPAN_DEFAULT_AUTHOR", c.DefaultAuthor)
	c.FlatMarkdown = envBool("GSPAN_FLAT_MARKDOWN", c.FlatMarkdown)
	c.EndedLabel = envOr("GSPAN_ENDED_LABEL", c.EndedLabel)

	c.SanitizeHTML = envBool("GSPAN_SANITIZE_HTML", c.SanitizeHTML)
	c.PDFFallbackPdftotext = envBool("PDF_FALLBACK_PDFTOTEXT", c.PDFFallbackPdftotext)

	c.ExportURLTemplate = envOr("EXPORT_URL_TEMPLATE", c.ExportURLTemplate)
	c.ExportToken = envOr("EXPORT_TOKEN", c.ExportToken)
	c.FetchTimeout = envDuration("FETCH_TIMEOUT", c.FetchTimeout)

	c.WorkerCount = envInt("WORKER_COUNT", c.WorkerCount)
	c.MaxQueueSize = envInt("MAX_QUEUE_SIZE", c.MaxQueueSize)
	c.MaxUploadBytes = envInt64("MAX_UPLOAD_BYTES", c.MaxUploadBytes)
	c.JobTTL = envDuration("JOB_TTL", c.JobTTL)
}

func (c *Config) normalize() {
	def := Default()
	if c.WorkerCount <= 0 {
		c.WorkerCount = def.WorkerCount
	}
	if c.MaxQueueSize <= 0 {
		c.MaxQueueSize = def.MaxQueueSize
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = def.MaxUploadBytes
	}
	if c.JobTTL <= 0 {
		c.JobTTL = def.JobTTL
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = def.FetchTimeout
	}
	if c.DefaultAuthor == "" {
		c.DefaultAuthor = def.DefaultAuthor
	}
	if c.EndedLabel == "" {
		c.EndedLabel = def.EndedLabel
	}
}

func (c Config) Validate() error {
	switch c.EndedLabel {
	case "ended", "after":
	default:
		return fmt.Errorf("ended_label must be %q or %q, got %q", "ended", "after", c.EndedLabel)
	}
	return nil
}

// ValidateServe additionally checks what the HTTP API needs.
func (c Config) ValidateServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.APIKey == "" {
		return fmt.Errorf("GSPAN_API_KEY is required")
	}
	return nil
}

// fileConfig mirrors Config for TOML decoding. Unset keys keep the defaults.
type fileConfig struct {
	Port                 string `toml:"port"`
	APIKey               string `toml:"api_key"`
	AuthorsFile          string `toml:"authors_file"`
	SpeakersFile         string `toml:"speakers_file"`
	DefaultAuthor        string `toml:"default_author"`
	FlatMarkdown         *bool  `toml:"flat_markdown"`
	EndedLabel           string `toml:"ended_label"`
	SanitizeHTML         *bool  `toml:"sanitize_html"`
	PDFFallbackPdftotext *bool  `toml:"pdf_fallback_pdftotext"`
	ExportURLTemplate    string `toml:"export_url_template"`
	ExportToken          string `toml:"export_token"`
	FetchTimeout         string `toml:"fetch_timeout"`
	WorkerCount          int    `toml:"worker_count"`
	MaxQueueSize         int    `toml:"max_queue_size"`
	MaxUploadBytes       int64  `toml:"max_upload_bytes"`
	JobTTL               string `toml:"job_ttl"`
}

func (fc fileConfig) apply(c *Config) error {
	setString(&c.Port, fc.Port)
	setString(&c.APIKey, fc.APIKey)
	setString(&c.AuthorsFile, fc.AuthorsFile)
	setString(&c.SpeakersFile, fc.SpeakersFile)
	setString(&c.DefaultAuthor, fc.DefaultAuthor)
	setString(&c.EndedLabel, fc.EndedLabel)
	setString(&c.ExportURLTemplate, fc.ExportURLTemplate)
	setString(&c.ExportToken, fc.ExportToken)

	if fc.FlatMarkdown != nil {
		c.FlatMarkdown = *fc.FlatMarkdown
	}
	if fc.SanitizeHTML != nil {
		c.SanitizeHTML = *fc.SanitizeHTML
	}
	if fc.PDFFallbackPdftotext != nil {
		c.PDFFallbackPdftotext = *fc.PDFFallbackPdftotext
	}
	if fc.WorkerCount > 0 {
		c.WorkerCount = fc.WorkerCount
	}
	if fc.MaxQueueSize > 0 {
		c.MaxQueueSize = fc.MaxQueueSize
	}
	if fc.MaxUploadBytes > 0 {
		c.MaxUploadBytes = fc.MaxUploadBytes
	}

	if fc.FetchTimeout != "" {
		d, err := time.ParseDuration(fc.FetchTimeout)
		if err != nil {
			return fmt.Errorf("parse config: fetch_timeout: %w", err)
		}
		c.FetchTimeout = d
	}
	if fc.JobTTL != "" {
		d, err := time.ParseDuration(fc.JobTTL)
		if err != nil {
			return fmt.Errorf("parse config: job_ttl: %w", err)
		}
		c.JobTTL = d
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
