// Package config reads runtime settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/shouni/go-utils/envutil"

	"github.com/nickhildebrandt/memegen/internal/caption"
	"github.com/nickhildebrandt/memegen/internal/fonts"
	"github.com/nickhildebrandt/memegen/internal/template"
)

const (
	DefaultOutputDir   = "memes"
	DefaultFontsDir    = "fonts"
	DefaultListenAddr  = ":5000"
	DefaultHTTPTimeout = 30 * time.Second
)

// Config holds settings shared by every command. Flags override these after Load.
type Config struct {
	OutputDir        string
	FontsDir         string
	FontPath         string
	FontURL          string
	GeminiAPIKey     string
	GeminiModel      string
	ImgflipEndpoint  string
	ListenAddr       string
	HTTPTimeout      time.Duration
	TemplateCacheTTL time.Duration
}

// Load reads the MEMEGEN_*, GEMINI_* and IMGFLIP_* variables, applying defaults for unset ones.
func Load() (*Config, error) {
	cfg := &Config{
		OutputDir:       envutil.GetEnv("MEMEGEN_OUTPUT_DIR", DefaultOutputDir),
		FontsDir:        envutil.GetEnv("MEMEGEN_FONTS_DIR", DefaultFontsDir),
		FontPath:        envutil.GetEnv("MEMEGEN_FONT", ""),
		FontURL:         envutil.GetEnv("MEMEGEN_FONT_URL", fonts.DefaultURL),
		GeminiAPIKey:    envutil.GetEnv("GEMINI_API_KEY", ""),
		GeminiModel:     envutil.GetEnv("GEMINI_MODEL", caption.DefaultGeminiModel),
		ImgflipEndpoint: envutil.GetEnv("IMGFLIP_ENDPOINT", template.DefaultEndpoint),
		ListenAddr:      envutil.GetEnv("MEMEGEN_LISTEN_ADDR", DefaultListenAddr),
	}

	var err error
	cfg.HTTPTimeout, err = duration("MEMEGEN_HTTP_TIMEOUT", DefaultHTTPTimeout)
	if err != nil {
		return nil, err
	}
	cfg.TemplateCacheTTL, err = duration("MEMEGEN_TEMPLATE_CACHE_TTL", template.DefaultCacheTTL)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func duration(key string, def time.Duration) (time.Duration, error) {
	raw := envutil.GetEnv(key, "")
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("config: %s must be positive, got %s", key, raw)
	}
	return d, nil
}
