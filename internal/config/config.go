package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Transcription configures the speech recognition provider.
type Transcription struct {
	Provider             string `toml:"provider"` // google, gemini, openai
	Language             string `toml:"language"`
	Model                string `toml:"model"`
	APIKey               string `toml:"api_key"`
	CredentialsFile      string `toml:"credentials_file"`
	Encoding             string `toml:"encoding"`
	AutomaticPunctuation bool   `toml:"automatic_punctuation"`
	Prompt               string `toml:"prompt"`
	// ChunkMinutes splits audio for providers with a per-request limit.
	ChunkMinutes int `toml:"chunk_minutes"`
	Concurrency  int `toml:"concurrency"`
}

// Audio configures extraction of the audio track. Zero values mean
// "use what ffprobe reports for the source".
type Audio struct {
	Format     string `toml:"format"`
	SampleRate int    `toml:"sample_rate"`
	Channels   int    `toml:"channels"`
	Bitrate    string `toml:"bitrate"`
}

// Subtitles configures segmentation and output files.
type Subtitles struct {
	BinSeconds   float64 `toml:"bin_seconds"`
	Format       string  `toml:"format"`
	Suffix       string  `toml:"suffix"`
	OutputDir    string  `toml:"output_dir"`
	MaxLineChars int     `toml:"max_line_chars"`
	SaveResponse bool    `toml:"save_response"`
}

// Storage configures where audio is uploaded before recognition.
type Storage struct {
	Bucket  string `toml:"bucket"`
	Prefix  string `toml:"prefix"`
	Cleanup bool   `toml:"cleanup"`
}

// Catalog configures the relational source of work items.
type Catalog struct {
	Driver    string `toml:"driver"` // pgx or sqlite
	DSN       string `toml:"dsn"`
	Query     string `toml:"query"`
	LectureID int64  `toml:"lecture_id"`
	BaseURL   string `toml:"base_url"`
}

// Workflow configures the batch driver.
type Workflow struct {
	WorkDir      string `toml:"work_dir"`
	Concurrency  int    `toml:"concurrency"`
	KeepMedia    bool   `toml:"keep_media"`
	FetchTimeout int    `toml:"fetch_timeout"` // seconds, 0 = none
}

// Logging configures log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for lecsub.
type Config struct {
	Transcription Transcription `toml:"transcription"`
	Audio         Audio         `toml:"audio"`
	Subtitles     Subtitles     `toml:"subtitles"`
	Storage       Storage       `toml:"storage"`
	Catalog       Catalog       `toml:"catalog"`
	Workflow      Workflow      `toml:"workflow"`
	Logging       Logging       `toml:"logging"`
}

// SampleConfig returns the annotated sample configuration file.
func SampleConfig() string {
	return sampleConfig
}

// DefaultConfigPath returns the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/lecsub/config.toml")
}

// LoadOptions adjusts how Load builds the configuration.
type LoadOptions struct {
	// Override runs after the file is decoded and before normalization,
	// so command-line flags take precedence over the file.
	Override func(*Config)
	// SkipValidation is for commands that only read a subset of settings.
	SkipValidation bool
}

// Load reads the configuration at path (or the default location when path
// is empty), applies environment overrides, and validates the result. A
// missing file is not an error; defaults are used instead.
func Load(path string) (*Config, string, bool, error) {
	return LoadWith(path, LoadOptions{})
}

// LoadWith is Load with flag overrides and optional validation.
func LoadWith(path string, opts LoadOptions) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if opts.Override != nil {
		opts.Override(&cfg)
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if !opts.SkipValidation {
		if err := cfg.Validate(); err != nil {
			return nil, "", false, err
		}
	}

	return &cfg, resolvedPath, exists, nil
}

// BinDuration returns the configured cue window.
func (c *Config) BinDuration() time.Duration {
	return time.Duration(c.Subtitles.BinSeconds * float64(time.Second))
}

// ChunkDuration returns the configured chunk length, or zero when disabled.
func (c *Config) ChunkDuration() time.Duration {
	if c.Transcription.ChunkMinutes <= 0 {
		return 0
	}
	return time.Duration(c.Transcription.ChunkMinutes) * time.Minute
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return "", false, err
		}
		projectPath, err := filepath.Abs("lecsub.toml")
		if err != nil {
			return "", false, err
		}
		if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
			return projectPath, true, nil
		}
		path = defaultPath
	}

	expanded, err := expandPath(path)
	if err != nil {
		return "", false, err
	}
	if _, err := os.Stat(expanded); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return expanded, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	return expanded, true, nil
}

func expandPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return filepath.Clean(path), nil
}
