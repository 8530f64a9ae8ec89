package config

const (
	defaultProvider     = "google"
	defaultLanguage     = "tr-TR"
	defaultAudioFormat  = "wav"
	defaultBinSeconds   = 3.0
	defaultFormat       = "srt"
	defaultSuffix       = "_subtitle"
	defaultOutputDir    = "."
	defaultStoragePath  = "audios"
	defaultCatalogDrv   = "pgx"
	defaultConcurrency  = 3
	defaultLogFormat    = "console"
	defaultLogLevel     = "info"
	defaultGeminiModel  = "gemini-2.5-flash"
	defaultOpenAIModel  = "whisper-1"
	defaultGoogleModel  = "default"
	defaultGeminiChunks = 1
	defaultOpenAIChunks = 10
)

// DefaultCatalogQuery lists the subjects of one lecture in chapter order.
// $1 is the lecture id.
const DefaultCatalogQuery = `SELECT ls.t_name, vf.raw_full_path
FROM content.lecture AS l
INNER JOIN content.lecture_chapter AS lc ON lc.fk_lecture_id = l.pk_lecture_id
INNER JOIN content.lecture_subject AS ls ON ls.fk_lecture_chapter_id = lc.pk_lecture_chapter_id
INNER JOIN asset.video_file AS vf ON vf.pk_video_file_guid = ls.fk_video_file_guid
WHERE l.pk_lecture_id = $1
ORDER BY lc.list_order, ls.list_order`

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Transcription: Transcription{
			Provider:             defaultProvider,
			Language:             defaultLanguage,
			AutomaticPunctuation: true,
			Concurrency:          defaultConcurrency,
		},
		Audio: Audio{
			Format: defaultAudioFormat,
		},
		Subtitles: Subtitles{
			BinSeconds: defaultBinSeconds,
			Format:     defaultFormat,
			Suffix:     defaultSuffix,
			OutputDir:  defaultOutputDir,
		},
		Storage: Storage{
			Prefix: defaultStoragePath,
		},
		Catalog: Catalog{
			Driver: defaultCatalogDrv,
			Query:  DefaultCatalogQuery,
		},
		Workflow: Workflow{
			Concurrency: 1,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
