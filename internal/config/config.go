package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/blacktop/postcraft/internal/logutil"
)

const (
	envPrefix        = "POSTCRAFT_PROMPT_PREFIX"
	envPresets       = "POSTCRAFT_PRESETS"
	envPreset        = "POSTCRAFT_PRESET"
	envRedisURL      = "POSTCRAFT_REDIS_URL"
	envDefaultImage  = "POSTCRAFT_DEFAULT_IMAGE"
	envBrand         = "POSTCRAFT_BRAND"
	envBrandLogo     = "POSTCRAFT_BRAND_LOGO"
	envCandidates    = "POSTCRAFT_CANDIDATES"
	envOutDir        = "POSTCRAFT_OUT_DIR"
	envTextProvider  = "POSTCRAFT_TEXT_PROVIDER"
	envImageProvider = "POSTCRAFT_IMAGE_PROVIDER"
	envTargets       = "POSTCRAFT_TARGETS"
)

// Config holds the session-wide settings. Provider credentials are read by
// each provider package on its own.
type Config struct {
	Prefix        string
	PresetsPath   string
	Preset        string
	RedisURL      string
	DefaultImage  string
	Brand         string
	BrandLogo     string
	Candidates    int
	OutDir        string
	TextProvider  string
	ImageProvider string
	Targets       []string
}

// Load reads an optional .env file and then the POSTCRAFT_* environment.
// Callers validate once flag overrides have been applied.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logutil.Debugf("no .env file loaded: %v", err)
	}

	cfg := &Config{
		Prefix:        getEnv(envPrefix, ">"),
		PresetsPath:   getEnv(envPresets, "presets.yaml"),
		Preset:        getEnv(envPreset, ""),
		RedisURL:      getEnv(envRedisURL, ""),
		DefaultImage:  getEnv(envDefaultImage, "default_img.jpg"),
		Brand:         getEnv(envBrand, "postcraft"),
		BrandLogo:     getEnv(envBrandLogo, ""),
		Candidates:    getEnvAsInt(envCandidates, 3),
		OutDir:        getEnv(envOutDir, "."),
		TextProvider:  getEnv(envTextProvider, "openai"),
		ImageProvider: getEnv(envImageProvider, "openai"),
		Targets:       getEnvAsList(envTargets, []string{"twitter", "mastodon", "bluesky"}),
	}

	return cfg, nil
}

// Validate rejects settings the session cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Prefix) == "" {
		return errors.New("prompt prefix must not be empty")
	}
	if c.Candidates < 1 {
		return errors.New("candidates must be at least 1")
	}
	if c.OutDir == "" {
		return errors.New("output directory must not be empty")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		logutil.Warnf("ignoring %s=%q: not an integer", key, raw)
		return defaultValue
	}
	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
