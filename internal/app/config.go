package app

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr  string
	LogLevel  string
	LogFormat string
	StaticDir string

	TempDir          string
	FFmpegPath       string
	VideoCodec       string
	AudioCodec       string
	FFmpegPreset     string
	AudioBitrate     string
	MaxMerges        int
	ResolverTimeout  time.Duration
	InfoCacheTTL     time.Duration
	InfoCacheDisable bool
	RedisURL         string

	RateLimitMax         int
	RateLimitWindow      time.Duration
	DownloadLimitMax     int
	DownloadLimitWindow  time.Duration
	GlobalRPS            float64
	GlobalBurst          int
	CORSAllowedOrigins   []string
	TrustedProxies       []string
	OTELExporterEndpoint string
	ShutdownGracePeriod  time.Duration
}

// LoadDotEnv loads variables from path into the environment without
// overriding ones already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

func LoadConfig() Config {
	return Config{
		HTTPAddr:  getEnv("HTTP_ADDR", ":5000"),
		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "text")),
		StaticDir: getEnv("STATIC_DIR", ""),

		TempDir:          getEnv("TEMP_DIR", filepath.Join(os.TempDir(), "ytdl-merge")),
		FFmpegPath:       getEnv("FFMPEG_PATH", "ffmpeg"),
		VideoCodec:       getEnv("FFMPEG_VIDEO_CODEC", "libx264"),
		AudioCodec:       getEnv("FFMPEG_AUDIO_CODEC", "aac"),
		FFmpegPreset:     getEnv("FFMPEG_PRESET", "veryfast"),
		AudioBitrate:     getEnv("FFMPEG_AUDIO_BITRATE", "192k"),
		MaxMerges:        getEnvInt("MAX_CONCURRENT_MERGES", 2),
		ResolverTimeout:  time.Duration(getEnvInt("RESOLVER_TIMEOUT_SECONDS", 20)) * time.Second,
		InfoCacheTTL:     time.Duration(getEnvInt("METADATA_CACHE_TTL_MINUTES", 10)) * time.Minute,
		InfoCacheDisable: getEnvBool("METADATA_CACHE_DISABLED", false),
		RedisURL:         getEnv("REDIS_URL", ""),

		RateLimitMax:         getEnvInt("RATE_LIMIT_MAX", 100),
		RateLimitWindow:      time.Duration(getEnvInt("RATE_LIMIT_WINDOW_MINUTES", 15)) * time.Minute,
		DownloadLimitMax:     getEnvInt("DOWNLOAD_LIMIT_MAX", 10),
		DownloadLimitWindow:  time.Duration(getEnvInt("DOWNLOAD_LIMIT_WINDOW_MINUTES", 60)) * time.Minute,
		GlobalRPS:            getEnvFloat("GLOBAL_RPS", 50),
		GlobalBurst:          getEnvInt("GLOBAL_BURST", 100),
		CORSAllowedOrigins:   parseCSV(getEnv("CORS_ALLOWED_ORIGINS", "")),
		TrustedProxies:       parseCSV(getEnv("TRUSTED_PROXIES", "")),
		OTELExporterEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		ShutdownGracePeriod:  time.Duration(getEnvInt("SHUTDOWN_GRACE_SECONDS", 10)) * time.Second,
	}
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

// parseCSV splits a comma separated list; "*" or an empty value yields nil.
func parseCSV(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "*" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if value := strings.TrimSpace(part); value != "" {
			out = append(out, value)
		}
	}
	return out
}
