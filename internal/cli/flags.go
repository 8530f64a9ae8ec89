package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mgpai22/lecsub/internal/config"
)

// addPipelineFlags registers the flags shared by commands that run the
// pipeline. Each one overrides the matching config file setting.
func addPipelineFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("provider", "p", "", "Recognition provider (google, gemini, openai)")
	f.StringP("language", "l", "", "Language code of the lecture audio (e.g., tr-TR)")
	f.StringP("api-key", "k", "", "API key for gemini/openai (or set GEMINI_API_KEY / OPENAI_API_KEY)")
	f.String("model", "", "Recognition model")
	f.String("credentials", "", "Google service account JSON (or set GOOGLE_APPLICATION_CREDENTIALS)")
	f.String("bucket", "", "GCS bucket for audio uploads (google provider)")
	f.StringP("format", "f", "", "Output subtitle format (srt, vtt, ass)")
	f.StringP("output-dir", "o", "", "Directory for subtitle files")
	f.String("suffix", "", "Suffix appended to subtitle file names")
	f.Float64P("bin", "b", 0, "Maximum cue window in seconds")
	f.Int("max-line-chars", -1, "Wrap cue text into two lines above this width (0 = off)")
	f.IntP("chunk-minutes", "d", 0, "Split audio into chunks of this many minutes (negative = never)")
	f.Int("chunk-concurrency", 0, "Parallel recognition workers for chunks")
	f.IntP("jobs", "j", 0, "Items processed in parallel")
	f.Bool("save-response", false, "Write the recognition response JSON next to each subtitle")
	f.Bool("keep-media", false, "Keep downloaded media and extracted audio")
}

// flagOverrides copies explicitly set flags into the configuration.
func flagOverrides(cmd *cobra.Command) func(*config.Config) {
	return func(c *config.Config) {
		f := cmd.Flags()
		setString(f, "provider", &c.Transcription.Provider)
		setString(f, "language", &c.Transcription.Language)
		setString(f, "api-key", &c.Transcription.APIKey)
		setString(f, "model", &c.Transcription.Model)
		setString(f, "credentials", &c.Transcription.CredentialsFile)
		setString(f, "bucket", &c.Storage.Bucket)
		setString(f, "format", &c.Subtitles.Format)
		setString(f, "output-dir", &c.Subtitles.OutputDir)
		setString(f, "suffix", &c.Subtitles.Suffix)
		setInt(f, "max-line-chars", &c.Subtitles.MaxLineChars)
		setInt(f, "chunk-minutes", &c.Transcription.ChunkMinutes)
		setInt(f, "chunk-concurrency", &c.Transcription.Concurrency)
		setInt(f, "jobs", &c.Workflow.Concurrency)
		setBool(f, "save-response", &c.Subtitles.SaveResponse)
		setBool(f, "keep-media", &c.Workflow.KeepMedia)
		if changed(f, "bin") {
			c.Subtitles.BinSeconds, _ = f.GetFloat64("bin")
		}
		if changed(f, "driver") {
			c.Catalog.Driver, _ = f.GetString("driver")
		}
		if changed(f, "dsn") {
			c.Catalog.DSN, _ = f.GetString("dsn")
		}
		if changed(f, "lecture") {
			c.Catalog.LectureID, _ = f.GetInt64("lecture")
		}
		if changed(f, "base-url") {
			c.Catalog.BaseURL, _ = f.GetString("base-url")
		}
	}
}

func changed(f *pflag.FlagSet, name string) bool {
	flag := f.Lookup(name)
	return flag != nil && flag.Changed
}

func setString(f *pflag.FlagSet, name string, dst *string) {
	if changed(f, name) {
		*dst, _ = f.GetString(name)
	}
}

func setInt(f *pflag.FlagSet, name string, dst *int) {
	if changed(f, name) {
		*dst, _ = f.GetInt(name)
	}
}

func setBool(f *pflag.FlagSet, name string, dst *bool) {
	if changed(f, name) {
		*dst, _ = f.GetBool(name)
	}
}
