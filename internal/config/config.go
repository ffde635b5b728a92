package config

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"reflect"
	"strings"
	"sync"
	"time"
	"unicode"

	"catalog-admin/internal/logger"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	AppName  string `env:"APP_NAME" envDefault:"catalog-admin"`
	AppPort  string `env:"APP_PORT" envDefault:"3000"`
	Env      string `env:"ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	CatalogAPIURL       string `env:"CATALOG_API_URL" envDefault:"http://localhost:3001"`
	CatalogAPITimeoutMs int64  `env:"CATALOG_API_TIMEOUT_MS" envDefault:"0"`

	RemoteLogHttpURI       string `env:"REMOTE_LOG_HTTP_URI"`
	RemoteTraceRpcURI      string `env:"REMOTE_TRACE_RPC_URI"`
	TraceStdout            bool   `env:"TRACE_STDOUT" envDefault:"false"`
	RemoteProfilingHttpURI string `env:"REMOTE_PROFILING_HTTP_URI"`
}

// SafeConfig is the subset of Config that is fine to log.
type SafeConfig struct {
	AppName                string `json:"app_name"`
	AppPort                string `json:"app_port"`
	Env                    string `json:"env"`
	LogLevel               string `json:"log_level"`
	CatalogAPIURL          string `json:"catalog_api_url"`
	CatalogAPITimeoutMs    int64  `json:"catalog_api_timeout_ms"`
	RemoteTraceRpcURI      string `json:"remote_trace_rpc_uri"`
	TraceStdout            bool   `json:"trace_stdout"`
	RemoteProfilingHttpURI string `json:"remote_profiling_http_uri"`
}

func (c *Config) ToSafeConfig() SafeConfig {
	return SafeConfig{
		AppName:                c.AppName,
		AppPort:                c.AppPort,
		Env:                    c.Env,
		LogLevel:               c.LogLevel,
		CatalogAPIURL:          c.CatalogAPIURL,
		CatalogAPITimeoutMs:    c.CatalogAPITimeoutMs,
		RemoteTraceRpcURI:      c.RemoteTraceRpcURI,
		TraceStdout:            c.TraceStdout,
		RemoteProfilingHttpURI: c.RemoteProfilingHttpURI,
	}
}

// CatalogAPITimeout is zero when the backend client should not time out on its own.
func (c *Config) CatalogAPITimeout() time.Duration {
	return time.Duration(c.CatalogAPITimeoutMs) * time.Millisecond
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load parses the environment. It does not read .env; Instance does.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	u, err := url.ParseRequestURI(c.CatalogAPIURL)
	if err != nil {
		return fmt.Errorf("CATALOG_API_URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("CATALOG_API_URL: unsupported scheme %q", u.Scheme)
	}
	if c.CatalogAPITimeoutMs < 0 {
		return fmt.Errorf("CATALOG_API_TIMEOUT_MS: must not be negative")
	}
	if c.AppPort == "" {
		return fmt.Errorf("APP_PORT: must not be empty")
	}
	return nil
}

var (
	configInstance *Config
	configOnce     sync.Once
)

// Instance loads the configuration once, exiting the process when it is invalid.
func Instance() *Config {
	configOnce.Do(func() {
		ctx := context.Background()

		if err := godotenv.Load(); err != nil {
			logger.Warn(ctx, "No .env file found, using system environment variables")
		}

		cfg, err := Load()
		if err != nil {
			logger.Error(ctx, "Invalid configuration", logger.Err(err))
			os.Exit(1)
		}
		logger.SetLevel(cfg.LogLevel)

		if cfg.RemoteLogHttpURI == "" {
			logger.Warn(ctx, "Missing REMOTE_LOG_HTTP_URI will skip sending log")
		}
		if cfg.RemoteTraceRpcURI == "" && !cfg.TraceStdout {
			logger.Warn(ctx, "Missing REMOTE_TRACE_RPC_URI will skip exporting traces")
		}
		if cfg.RemoteProfilingHttpURI == "" {
			logger.Warn(ctx, "Missing REMOTE_PROFILING_HTTP_URI will skip sending profiling")
		}

		logger.Info(ctx, "Configuration loaded successfully", StructAttrs("data", cfg.ToSafeConfig())...)
		configInstance = cfg
	})

	return configInstance
}

// StructAttrs("data", cfg) -> []slog.Attr{slog.String("data.app_port", "3000"), ...}
func StructAttrs(prefix string, s any) []slog.Attr {
	v := reflect.ValueOf(s)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	t := v.Type()

	attrs := make([]slog.Attr, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		key := prefix + "." + jsonKey(t.Field(i))
		f := v.Field(i)
		switch f.Kind() {
		case reflect.String:
			attrs = append(attrs, slog.String(key, f.String()))
		case reflect.Int, reflect.Int32, reflect.Int64:
			attrs = append(attrs, slog.Int64(key, f.Int()))
		case reflect.Bool:
			attrs = append(attrs, slog.Bool(key, f.Bool()))
		default:
			attrs = append(attrs, slog.Any(key, f.Interface()))
		}
	}
	return attrs
}

func jsonKey(f reflect.StructField) string {
	if tag := f.Tag.Get("json"); tag != "" {
		return strings.Split(tag, ",")[0]
	}
	return toSnake(f.Name)
}

func toSnake(s string) string {
	var out strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 && s[i-1] != '_' {
				out.WriteRune('_')
			}
			out.WriteRune(unicode.ToLower(r))
			continue
		}
		out.WriteRune(r)
	}
	return out.String()
}
