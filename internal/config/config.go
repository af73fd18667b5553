// Package config загружает конфигурацию: значения по умолчанию из структуры,
// поверх — config.yaml (если найден), поверх — переменные окружения с
// префиксом BT_ (BT_HTTP_PORT, BT_STORAGE_DSN и т.д.).
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths — пути поиска файла конфигурации в порядке приоритета.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/better-together/config.yaml",
}

// EnvPrefix — префикс переменных окружения.
const EnvPrefix = "BT_"

type HTTPConfig struct {
	Port         int      `koanf:"port"`
	CORSOrigins  []string `koanf:"cors_origins"`
	RateLimitRPS int      `koanf:"rate_limit_rps"`
}

type StorageConfig struct {
	// Driver: postgres или inmemory.
	Driver string `koanf:"driver"`
	DSN    string `koanf:"dsn"`
}

type FeedConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
	// CandidateWindow ограничивает число кандидатов, загружаемых
	// для ранжируемых лент за один запрос.
	CandidateWindow int `koanf:"candidate_window"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json или console
}

type Config struct {
	HTTP    HTTPConfig    `koanf:"http"`
	Storage StorageConfig `koanf:"storage"`
	Feed    FeedConfig    `koanf:"feed"`
	Log     LogConfig     `koanf:"log"`
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Port:         8080,
			CORSOrigins:  []string{"*"},
			RateLimitRPS: 100,
		},
		Storage: StorageConfig{
			Driver: "inmemory",
			DSN:    "",
		},
		Feed: FeedConfig{
			DefaultPageSize: 20,
			MaxPageSize:     100,
			CandidateWindow: 500,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load собирает конфигурацию. Пустой path включает поиск по DefaultConfigPaths;
// отсутствие файла не является ошибкой.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		for _, p := range DefaultConfigPaths {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// BT_HTTP_PORT -> http.port, BT_STORAGE_DSN -> storage.dsn
	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".", 1)
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Storage.Driver != "postgres" && c.Storage.Driver != "inmemory" {
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.Driver == "postgres" && c.Storage.DSN == "" {
		return fmt.Errorf("storage.dsn must be set for postgres driver")
	}
	if c.Feed.DefaultPageSize <= 0 || c.Feed.MaxPageSize < c.Feed.DefaultPageSize {
		return fmt.Errorf("invalid feed page size limits")
	}
	if c.Feed.CandidateWindow < c.Feed.MaxPageSize {
		return fmt.Errorf("feed.candidate_window must be at least feed.max_page_size")
	}
	return nil
}
