package app

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/studynotes-backend/internal/platform/envutil"
	"github.com/yungbote/studynotes-backend/internal/platform/logger"
)

const ConfigPathEnv = "STUDYNOTES_CONFIG"

type StoreConfig struct {
	Mode        string `yaml:"mode"`
	SQLitePath  string `yaml:"sqlite_path"`
	PostgresDSN string `yaml:"postgres_dsn"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
	Channel  string `yaml:"channel"`
}

type OtelConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type OpenAIConfig struct {
	APIKey         string `yaml:"api_key"`
	BaseURL        string `yaml:"base_url"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxRetries     int    `yaml:"max_retries"`
	// Temperature is a number, blank for the default, or "off".
	Temperature string `yaml:"temperature"`
}

// Config is read from an optional YAML file, then overridden by environment variables.
type Config struct {
	LogMode       string        `yaml:"log_mode"`
	Environment   string        `yaml:"environment"`
	ServiceName   string        `yaml:"service_name"`
	Port          int           `yaml:"port"`
	SplashDelayMS int           `yaml:"splash_delay_ms"`
	CORSOrigins   []string      `yaml:"cors_origins"`
	Store         StoreConfig   `yaml:"store"`
	Redis         RedisConfig   `yaml:"redis"`
	Otel          OtelConfig    `yaml:"otel"`
	Metrics       MetricsConfig `yaml:"metrics"`
	OpenAI        OpenAIConfig  `yaml:"openai"`
}

func DefaultConfig() Config {
	return Config{
		LogMode:     "development",
		Environment: "local",
		ServiceName: "studynotes",
		Port:        8080,
		Store: StoreConfig{
			Mode:       StoreModeSQLite,
			SQLitePath: "studynotes.db",
		},
		Redis: RedisConfig{
			Prefix:  "studynotes:",
			Channel: "studynotes:sse",
		},
		Metrics: MetricsConfig{Enabled: true},
		OpenAI: OpenAIConfig{
			BaseURL:        "https://api.openai.com",
			Model:          "gpt-4o-mini",
			TimeoutSeconds: 120,
			MaxRetries:     3,
		},
	}
}

// LoadConfig layers defaults, the YAML file at path (or $STUDYNOTES_CONFIG) and the
// environment. A missing explicit file is an error.
func LoadConfig(path string, log *logger.Logger) (Config, error) {
	cfg := DefaultConfig()
	if strings.TrimSpace(path) == "" {
		path = os.Getenv(ConfigPathEnv)
	}
	if path = strings.TrimSpace(path); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
		if log != nil {
			log.Info("Loaded config file", "path", path)
		}
	}
	applyEnv(&cfg, log)
	return cfg, nil
}

func applyEnv(cfg *Config, log *logger.Logger) {
	cfg.LogMode = envutil.String("LOG_MODE", cfg.LogMode, log)
	cfg.Environment = envutil.String("APP_ENV", cfg.Environment, log)
	cfg.ServiceName = envutil.String("OTEL_SERVICE_NAME", cfg.ServiceName, log)
	cfg.Port = envutil.Int("PORT", cfg.Port, log)
	cfg.SplashDelayMS = envutil.Int("SPLASH_DELAY_MS", cfg.SplashDelayMS, log)
	cfg.CORSOrigins = envutil.List("CORS_ORIGINS", cfg.CORSOrigins)

	cfg.Store.Mode = strings.ToLower(envutil.String("STORE_MODE", cfg.Store.Mode, log))
	cfg.Store.SQLitePath = envutil.String("SQLITE_PATH", cfg.Store.SQLitePath, log)
	cfg.Store.PostgresDSN = envutil.String("POSTGRES_DSN", cfg.Store.PostgresDSN, nil)

	cfg.Redis.Addr = envutil.String("REDIS_ADDR", cfg.Redis.Addr, log)
	cfg.Redis.Password = envutil.String("REDIS_PASSWORD", cfg.Redis.Password, nil)
	cfg.Redis.DB = envutil.Int("REDIS_DB", cfg.Redis.DB, log)
	cfg.Redis.Prefix = envutil.String("REDIS_PREFIX", cfg.Redis.Prefix, log)
	cfg.Redis.Channel = envutil.String("REDIS_CHANNEL", cfg.Redis.Channel, log)

	cfg.Otel.Enabled = envutil.Bool("OTEL_ENABLED", cfg.Otel.Enabled)
	cfg.Otel.Endpoint = envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Otel.Endpoint, log)

	cfg.Metrics.Enabled = envutil.Bool("METRICS_ENABLED", cfg.Metrics.Enabled)

	cfg.OpenAI.APIKey = envutil.String("OPENAI_API_KEY", cfg.OpenAI.APIKey, nil)
	cfg.OpenAI.BaseURL = envutil.String("OPENAI_BASE_URL", cfg.OpenAI.BaseURL, log)
	cfg.OpenAI.Model = envutil.String("OPENAI_MODEL", cfg.OpenAI.Model, log)
	cfg.OpenAI.TimeoutSeconds = envutil.Int("OPENAI_TIMEOUT_SECONDS", cfg.OpenAI.TimeoutSeconds, log)
	cfg.OpenAI.MaxRetries = envutil.Int("OPENAI_MAX_RETRIES", cfg.OpenAI.MaxRetries, log)
	cfg.OpenAI.Temperature = envutil.String("OPENAI_TEMPERATURE", cfg.OpenAI.Temperature, log)
}

func (c Config) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}
