package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	TokenStoreFile  = "file"
	TokenStoreRedis = "redis"
)

// ClientConfig configures the chatdesk client.
type ClientConfig struct {
	API      APIConfig     `yaml:"api"`
	Realtime FeedConfig    `yaml:"realtime"`
	Session  SessionConfig `yaml:"session"`
	Redis    RedisConfig   `yaml:"redis"`
	Logger   LoggerConfig  `yaml:"logger"`
	Store    StoreConfig   `yaml:"store"`
}

// APIConfig points the transport at the backend.
type APIConfig struct {
	BaseURL        string        `yaml:"base_url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// FeedConfig configures the realtime channel.
type FeedConfig struct {
	URL          string        `yaml:"url"`
	ReconnectMin time.Duration `yaml:"reconnect_min"`
	ReconnectMax time.Duration `yaml:"reconnect_max"`
	Disabled     bool          `yaml:"disabled"`
}

// SessionConfig selects where the bearer token is persisted.
type SessionConfig struct {
	Store string `yaml:"store"`
	File  string `yaml:"file"`
	Key   string `yaml:"key"`
}

// StoreConfig tunes the chat state store.
type StoreConfig struct {
	// PollInterval re-fetches requests and notifications; zero disables polling.
	PollInterval time.Duration `yaml:"poll_interval"`
}

// LoadClient reads the optional YAML file at path (CHATDESK_CONFIG or
// ~/.chatdesk/config.yaml when empty), then applies environment overrides.
func LoadClient(path string) (*ClientConfig, error) {
	_ = godotenv.Load()

	cfg := defaultClientConfig()

	if path == "" {
		path = getEnv("CHATDESK_CONFIG", filepath.Join(homeDir(), "config.yaml"))
	}
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	applyClientEnv(cfg)

	if cfg.API.BaseURL == "" {
		return nil, errors.New("CHATDESK_API_URL must not be empty")
	}
	if cfg.Session.Store != TokenStoreFile && cfg.Session.Store != TokenStoreRedis {
		return nil, fmt.Errorf("invalid CHATDESK_TOKEN_STORE %q", cfg.Session.Store)
	}
	return cfg, nil
}

func defaultClientConfig() *ClientConfig {
	home := homeDir()
	return &ClientConfig{
		API: APIConfig{
			BaseURL:        "http://localhost:8080",
			RequestTimeout: 15 * time.Second,
		},
		Realtime: FeedConfig{
			URL:          "ws://localhost:8080/ws",
			ReconnectMin: 500 * time.Millisecond,
			ReconnectMax: 30 * time.Second,
		},
		Session: SessionConfig{
			Store: TokenStoreFile,
			File:  filepath.Join(home, "session.json"),
			Key:   "chatdesk:token",
		},
		Redis: RedisConfig{
			Addr: "127.0.0.1:6379",
		},
		Logger: LoggerConfig{
			Level:      "info",
			OutputPath: filepath.Join(home, "chatdesk.log"),
		},
		Store: StoreConfig{
			PollInterval: 30 * time.Second,
		},
	}
}

func applyClientEnv(cfg *ClientConfig) {
	cfg.API.BaseURL = getEnv("CHATDESK_API_URL", cfg.API.BaseURL)
	cfg.API.RequestTimeout = getEnvAsDuration("CHATDESK_REQUEST_TIMEOUT", cfg.API.RequestTimeout)

	cfg.Realtime.URL = getEnv("CHATDESK_REALTIME_URL", cfg.Realtime.URL)
	cfg.Realtime.ReconnectMin = getEnvAsDuration("CHATDESK_RECONNECT_MIN", cfg.Realtime.ReconnectMin)
	cfg.Realtime.ReconnectMax = getEnvAsDuration("CHATDESK_RECONNECT_MAX", cfg.Realtime.ReconnectMax)
	cfg.Realtime.Disabled = getEnvAsBool("CHATDESK_REALTIME_DISABLED", cfg.Realtime.Disabled)

	cfg.Session.Store = getEnv("CHATDESK_TOKEN_STORE", cfg.Session.Store)
	cfg.Session.File = getEnv("CHATDESK_TOKEN_FILE", cfg.Session.File)
	cfg.Session.Key = getEnv("CHATDESK_TOKEN_KEY", cfg.Session.Key)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	if db, err := strconv.Atoi(os.Getenv("REDIS_DB")); err == nil {
		cfg.Redis.DB = db
	}

	cfg.Logger.Level = getEnv("LOG_LEVEL", cfg.Logger.Level)
	cfg.Logger.Format = getEnv("LOG_FORMAT", cfg.Logger.Format)
	cfg.Logger.OutputPath = getEnv("LOG_FILE", cfg.Logger.OutputPath)

	cfg.Store.PollInterval = getEnvAsDuration("CHATDESK_POLL_INTERVAL", cfg.Store.PollInterval)
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".chatdesk"
	}
	return filepath.Join(home, ".chatdesk")
}
