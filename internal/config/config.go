// Package config loads the service's environment-variable configuration
// directly with os.Getenv, with no config-loading library in between.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is every environment-tunable setting the service reads at startup.
type Config struct {
	Port string

	MaxConcurrentAnalysisTasks int
	AnalysisQueueMaxSize       int
	AnalysisTaskTimeout        time.Duration

	ChapterSubconcurrency    int
	ChapterRetryMax          int
	ChapterBackoffInitialSec int
	ChapterBackoffMaxSec     int

	LMVendorAPIKey   string
	PreferredModel   string
	ElevenLabsAPIKey string

	SubtitleServiceURL   string
	FileUploadServiceURL string

	AuthBearerTokens []string

	ArtifactRoot string
	TrashRoot    string
	TTSCacheRoot string

	MaxTextFileSize   int64
	MaxBinaryFileSize int64

	DerivedVisualWorkers int
	DerivedTTSWorkers    int
	DerivedQueueSize     int
	ProcessedSetPath     string

	TTSDefaultVoice    string
	TTSDefaultLanguage string
	TTSChunkMaxChars   int
	TTSTextMaxChars    int

	OTLPEndpoint string

	LogLevel string
}

// Load reads Config from the process environment, applying the documented
// default for anything unset.
func Load() Config {
	return Config{
		Port: getString("PORT", "8080"),

		MaxConcurrentAnalysisTasks: getInt("MAX_CONCURRENT_ANALYSIS_TASKS", 3),
		AnalysisQueueMaxSize:       getInt("ANALYSIS_QUEUE_MAX_SIZE", 100),
		AnalysisTaskTimeout:        getSeconds("ANALYSIS_TASK_TIMEOUT", time.Hour),

		ChapterSubconcurrency:    getInt("CHAPTER_SUBCONCURRENCY", 3),
		ChapterRetryMax:          getInt("CHAPTER_RETRY_MAX", 3),
		ChapterBackoffInitialSec: getInt("CHAPTER_BACKOFF_INITIAL_SEC", 2),
		ChapterBackoffMaxSec:     getInt("CHAPTER_BACKOFF_MAX_SEC", 60),

		LMVendorAPIKey:   getString("LM_VENDOR_API_KEY", ""),
		PreferredModel:   getString("PREFERRED_MODEL", "claude-sonnet-4-6"),
		ElevenLabsAPIKey: getString("ELEVENLABS_API_KEY", ""),

		SubtitleServiceURL:   getString("SUBTITLE_SERVICE_URL", ""),
		FileUploadServiceURL: getString("FILE_UPLOAD_SERVICE_URL", ""),

		AuthBearerTokens: getList("AUTH_BEARER_TOKENS"),

		ArtifactRoot: getString("ARTIFACT_ROOT", "./data/artifacts"),
		TrashRoot:    getString("TRASH_ROOT", "./data/trash"),
		TTSCacheRoot: getString("TTS_CACHE_ROOT", "./data/tts-cache"),

		MaxTextFileSize:   getInt64("MAX_TEXT_FILE_SIZE", 10<<20),
		MaxBinaryFileSize: getInt64("MAX_BINARY_FILE_SIZE", 50<<20),

		DerivedVisualWorkers: getInt("DERIVED_VISUAL_WORKERS", 2),
		DerivedTTSWorkers:    getInt("DERIVED_TTS_WORKERS", 2),
		DerivedQueueSize:     getInt("DERIVED_QUEUE_SIZE", 50),
		ProcessedSetPath:     getString("DERIVED_PROCESSED_SET_PATH", "./data/derived/processed.json"),

		TTSDefaultVoice:    getString("TTS_DEFAULT_VOICE", "21m00Tcm4TlvDq8ikWAM"),
		TTSDefaultLanguage: getString("TTS_DEFAULT_LANGUAGE", "zh"),
		TTSChunkMaxChars:   getInt("TTS_CHUNK_MAX_CHARS", 1200),
		TTSTextMaxChars:    getInt("TTS_TEXT_MAX_CHARS", 20000),

		OTLPEndpoint: getString("OTEL_EXPORTER_OTLP_ENDPOINT", ""),

		LogLevel: getString("LOG_LEVEL", "info"),
	}
}

func getString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func getSeconds(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return time.Duration(secs) * time.Second
}

func getList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, tok := range strings.Split(v, ",") {
		if tok = strings.TrimSpace(tok); tok != "" {
			out = append(out, tok)
		}
	}
	return out
}
