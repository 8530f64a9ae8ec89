package config

import (
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.Transcription.Provider = strings.ToLower(strings.TrimSpace(c.Transcription.Provider))
	c.Audio.Format = strings.ToLower(strings.TrimSpace(c.Audio.Format))
	c.Subtitles.Format = strings.ToLower(strings.TrimSpace(c.Subtitles.Format))
	c.Catalog.Driver = strings.ToLower(strings.TrimSpace(c.Catalog.Driver))
	c.Transcription.Encoding = strings.ToUpper(strings.TrimSpace(c.Transcription.Encoding))

	c.applyEnv()
	c.applyProviderDefaults()

	var err error
	if c.Subtitles.OutputDir, err = expandPath(c.Subtitles.OutputDir); err != nil {
		return err
	}
	if c.Workflow.WorkDir, err = expandPath(c.Workflow.WorkDir); err != nil {
		return err
	}
	if c.Transcription.CredentialsFile, err = expandPath(c.Transcription.CredentialsFile); err != nil {
		return err
	}
	if c.Subtitles.OutputDir == "" {
		c.Subtitles.OutputDir = defaultOutputDir
	}
	if strings.TrimSpace(c.Catalog.Query) == "" {
		c.Catalog.Query = DefaultCatalogQuery
	}
	c.Storage.Prefix = strings.Trim(c.Storage.Prefix, "/")
	return nil
}

func (c *Config) applyEnv() {
	if c.Transcription.APIKey == "" {
		switch c.Transcription.Provider {
		case "gemini":
			c.Transcription.APIKey = os.Getenv("GEMINI_API_KEY")
		case "openai":
			c.Transcription.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	}
	if c.Transcription.CredentialsFile == "" {
		c.Transcription.CredentialsFile = os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
	}
	if c.Catalog.DSN == "" {
		c.Catalog.DSN = os.Getenv("LECSUB_DATABASE_URL")
	}
}

func (c *Config) applyProviderDefaults() {
	switch c.Transcription.Provider {
	case "google":
		if c.Transcription.Model == "" {
			c.Transcription.Model = defaultGoogleModel
		}
		if c.Transcription.Encoding == "" {
			c.Transcription.Encoding = encodingForFormat(c.Audio.Format)
		}
	case "gemini":
		if c.Transcription.Model == "" {
			c.Transcription.Model = defaultGeminiModel
		}
		if c.Transcription.ChunkMinutes == 0 {
			c.Transcription.ChunkMinutes = defaultGeminiChunks
		}
	case "openai":
		if c.Transcription.Model == "" {
			c.Transcription.Model = defaultOpenAIModel
		}
		if c.Transcription.ChunkMinutes == 0 {
			c.Transcription.ChunkMinutes = defaultOpenAIChunks
		}
	}
}

func encodingForFormat(format string) string {
	switch format {
	case "flac":
		return "FLAC"
	case "mp3":
		return "MP3"
	default:
		return "LINEAR16"
	}
}
