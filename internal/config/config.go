// Package config handles platform configuration
package config

import "os"

type Config struct {
	HTTPAddr      string
	OutputDir     string
	CaptureSource string // "camera" or "screen"
	CaptureDevice string // camera device hint, backend-specific
	LogLevel      string
}

func Load() *Config {
	return &Config{
		HTTPAddr:      getEnv("HTTP_ADDR", ":8000"),
		OutputDir:     getEnv("OUTPUT_DIR", defaultOutputDir()),
		CaptureSource: getEnv("CAPTURE_SOURCE", "camera"),
		CaptureDevice: getEnv("CAPTURE_DEVICE", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
	}
}

func defaultOutputDir() string {
	cache, err := os.UserCacheDir()
	if err != nil {
		return "."
	}
	return cache + "/motionsnap"
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
