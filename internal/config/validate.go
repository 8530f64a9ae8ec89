package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateAudio(); err != nil {
		return err
	}
	if err := c.validateSubtitles(); err != nil {
		return err
	}
	if err := c.validateCatalog(); err != nil {
		return err
	}
	if c.Workflow.Concurrency < 1 {
		return errors.New("workflow.concurrency must be at least 1")
	}
	if c.Workflow.FetchTimeout < 0 {
		return errors.New("workflow.fetch_timeout must not be negative")
	}
	return nil
}

func (c *Config) validateTranscription() error {
	t := c.Transcription
	switch t.Provider {
	case "google":
		switch t.Encoding {
		case "LINEAR16", "FLAC", "MP3":
		default:
			return fmt.Errorf("transcription.encoding: unsupported value %q", t.Encoding)
		}
	case "gemini", "openai":
		if strings.TrimSpace(t.APIKey) == "" {
			return fmt.Errorf("transcription.api_key is required for provider %q (or set %s)",
				t.Provider, apiKeyEnv(t.Provider))
		}
	default:
		return fmt.Errorf("transcription.provider: unsupported value %q (use google, gemini, or openai)", t.Provider)
	}
	if strings.TrimSpace(t.Language) == "" {
		return errors.New("transcription.language must be set")
	}
	if t.Concurrency < 1 {
		return errors.New("transcription.concurrency must be at least 1")
	}
	return nil
}

func (c *Config) validateAudio() error {
	switch c.Audio.Format {
	case "wav", "flac", "mp3":
	default:
		return fmt.Errorf("audio.format: unsupported value %q (use wav, flac, or mp3)", c.Audio.Format)
	}
	if c.Audio.SampleRate < 0 {
		return errors.New("audio.sample_rate must not be negative")
	}
	if c.Audio.Channels < 0 || c.Audio.Channels > 8 {
		return errors.New("audio.channels must be between 0 and 8")
	}
	return nil
}

func (c *Config) validateSubtitles() error {
	if c.Subtitles.BinSeconds <= 0 {
		return fmt.Errorf("subtitles.bin_seconds must be positive, got %v", c.Subtitles.BinSeconds)
	}
	switch c.Subtitles.Format {
	case "srt", "vtt", "ass":
	default:
		return fmt.Errorf("subtitles.format: unsupported value %q (use srt, vtt, or ass)", c.Subtitles.Format)
	}
	if c.Subtitles.MaxLineChars < 0 {
		return errors.New("subtitles.max_line_chars must not be negative")
	}
	return nil
}

func (c *Config) validateCatalog() error {
	switch c.Catalog.Driver {
	case "pgx", "sqlite":
	default:
		return fmt.Errorf("catalog.driver: unsupported value %q (use pgx or sqlite)", c.Catalog.Driver)
	}
	return nil
}

func apiKeyEnv(provider string) string {
	if provider == "openai" {
		return "OPENAI_API_KEY"
	}
	return "GEMINI_API_KEY"
}
