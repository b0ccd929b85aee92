package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/mcuadros/go-defaults"
)

type Config struct {
	Addr        string `toml:"addr" default:":8080"`
	MetricsAddr string `toml:"metrics_addr" default:":9091"`

	Log LogConfig `toml:"log"`
	OCR OCRConfig `toml:"ocr"`
}

type LogConfig struct {
	Level string `toml:"level" default:"info"`
	// File enables rotating file output in addition to stdout.
	File string `toml:"file"`
}

type OCRConfig struct {
	URL            string `toml:"url" default:"https://api.ocr.space/parse/image"`
	APIKey         string `toml:"api_key"`
	TimeoutSeconds int    `toml:"timeout_seconds" default:"30"`
	MaxConcurrent  int    `toml:"max_concurrent" default:"3"`
}

// Load builds the configuration: struct defaults, then the optional TOML
// file, then environment overrides. The API key is only ever taken from
// the file or OCRSPACE_API_KEY; it has no default.
func Load(path string) (Config, error) {
	var cfg Config
	defaults.SetDefaults(&cfg)

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Addr, "ADDR")
	setString(&cfg.MetricsAddr, "METRICS_ADDR")
	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.Log.File, "LOG_FILE")
	setString(&cfg.OCR.APIKey, "OCRSPACE_API_KEY")
	setString(&cfg.OCR.URL, "OCRSPACE_URL")
	setInt(&cfg.OCR.TimeoutSeconds, "OCR_TIMEOUT_SECONDS")
	setInt(&cfg.OCR.MaxConcurrent, "OCR_MAX_CONCURRENT")
}

// Validate catches what cannot be defaulted.
func (c Config) Validate() error {
	if c.OCR.APIKey == "" {
		return errors.New("OCRSPACE_API_KEY missing: set the env var or ocr.api_key in the config file")
	}
	if c.OCR.TimeoutSeconds <= 0 {
		return errors.New("ocr.timeout_seconds must be positive")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
