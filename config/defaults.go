package config

// Backend names.
const (
	BackendBadger   = "badger"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
	BackendSupabase = "supabase"
)

const (
	defaultWorkDir           = "work"
	defaultDataDir           = "~/.local/share/scribe"
	defaultNamespace         = "yt"
	defaultProcessingVersion = "v0.1.0"
	defaultCaptionLangs      = "en.*"
	defaultMongoDatabase     = "scribe"
	defaultBucket            = "videos"
)

// Default returns the configuration used when no file or environment
// override is present.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir: defaultWorkDir,
			DataDir: defaultDataDir,
		},
		Pipeline: Pipeline{
			Namespace:         defaultNamespace,
			ProcessingVersion: defaultProcessingVersion,
			CaptionLangs:      defaultCaptionLangs,
		},
		Tools: Tools{
			YTDLP:   "yt-dlp",
			FFmpeg:  "ffmpeg",
			FFprobe: "ffprobe",
		},
		Metadata: Metadata{
			Backend:  BackendBadger,
			Database: defaultMongoDatabase,
		},
		Blobs: Blobs{
			Backend: BackendBadger,
			Bucket:  defaultBucket,
		},
		ASR: ASR{
			Enabled:  true,
			Model:    "small",
			Language: "en",
			Device:   "cpu",
		},
		Embedding: Embedding{
			Host:         "http://localhost:11434/v1",
			Model:        "embeddinggemma",
			Token:        "none",
			ChunkSize:    1000,
			ChunkOverlap: 150,
		},
		Batch: Batch{
			Concurrency:       1,
			MaxAttempts:       1,
			RetryDelaySeconds: 2,
			RecordFailures:    true,
		},
		Logging: Logging{
			Level: "info",
		},
	}
}
