package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all server settings in correct types
type Config struct {
	Port              string
	PublicBaseURL     string
	DownloadDir       string
	TempDir           string
	MaxConcurrentJobs int
	QueueWait         time.Duration
	CleanupAfter      time.Duration
	FetcherBin        string
	TranscoderBin     string
	OutputFormat      string
	StorageBackend    string
	S3Bucket          string
	S3Region          string
	S3PublicURL       string
}

// Load: The only way to get config in the app
func Load() *Config {
	cfg := &Config{
		Port:              getEnv("PORT", ":8080"),
		PublicBaseURL:     strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		DownloadDir:       getEnv("DOWNLOAD_DIR", "downloads"),
		TempDir:           getEnv("TEMP_DIR", "temp"),
		MaxConcurrentJobs: getEnvAsInt("MAX_CONCURRENT_JOBS", 3),
		QueueWait:         time.Duration(getEnvAsInt("JOB_QUEUE_WAIT_SECONDS", 10)) * time.Second,
		CleanupAfter:      time.Duration(getEnvAsInt("CLEAN_UP_AFTER_MINUTES", 15)) * time.Minute,
		FetcherBin:        getEnv("FETCHER_BIN", "yt-dlp"),
		TranscoderBin:     getEnv("TRANSCODER_BIN", "ffmpeg"),
		OutputFormat:      getEnv("OUTPUT_FORMAT", "mp4"),
		StorageBackend:    getEnv("STORAGE_BACKEND", "filesystem"),
		S3Bucket:          getEnv("S3_BUCKET", ""),
		S3Region:          getEnv("S3_REGION", "us-east-1"),
		S3PublicURL:       strings.TrimRight(getEnv("S3_PUBLIC_URL", ""), "/"),
	}

	validate(cfg)

	return cfg
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	str := getEnv(key, "")
	if val, err := strconv.Atoi(str); err == nil {
		return val
	}
	return fallback
}

// validate ensures the server won't crash due to misconfiguration
func validate(cfg *Config) {
	if cfg.MaxConcurrentJobs < 1 {
		log.Println("⚠️ Warning: MAX_CONCURRENT_JOBS must be at least 1. Resetting to 3.")
		cfg.MaxConcurrentJobs = 3
	}
	if cfg.StorageBackend != "filesystem" && cfg.StorageBackend != "s3" {
		log.Printf("⚠️ Warning: unknown STORAGE_BACKEND %q. Falling back to filesystem.", cfg.StorageBackend)
		cfg.StorageBackend = "filesystem"
	}
	if cfg.StorageBackend == "s3" && cfg.S3Bucket == "" {
		log.Println("⚠️ Warning: STORAGE_BACKEND=s3 requires S3_BUCKET. Falling back to filesystem.")
		cfg.StorageBackend = "filesystem"
	}
	if cfg.OutputFormat == "" {
		cfg.OutputFormat = "mp4"
	}
	if _, err := os.Stat(cfg.DownloadDir); os.IsNotExist(err) {
		log.Printf("📂 Notice: Creating missing download directory: %s\n", cfg.DownloadDir)
		os.MkdirAll(cfg.DownloadDir, 0755)
	}
}
