package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/park285/arcadescore-live/internal/scores"
)

type AppConfig struct {
	APIBaseURL string
	PushWSURL  string

	RoomID string
	UserID string

	PageHTTPS  bool
	ListenAddr string

	XSessionID string

	RedisURL  string
	ExportDir string

	DateFormat       string
	SettingsDebounce time.Duration

	PushMaxReconnect   int
	PushReconnectDelay time.Duration
}

// LoadDotEnv loads variables from a .env file if present. Variables that
// are already set win.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

func Load() (*AppConfig, error) {
	envFile := strings.TrimSpace(os.Getenv("ENV_FILE"))
	if envFile == "" {
		envFile = ".env"
	}
	if err := LoadDotEnv(envFile); err != nil {
		return nil, err
	}

	cfg := &AppConfig{
		ListenAddr:         ":8090",
		ExportDir:          "exports",
		DateFormat:         scores.DefaultDateFormat,
		SettingsDebounce:   500 * time.Millisecond,
		PushMaxReconnect:   5,
		PushReconnectDelay: time.Second,
	}

	cfg.APIBaseURL = strings.TrimRight(strings.TrimSpace(os.Getenv("API_BASE_URL")), "/")
	cfg.PushWSURL = strings.TrimSpace(os.Getenv("PUSH_WS_URL"))
	cfg.RoomID = strings.TrimSpace(os.Getenv("ROOM_ID"))
	cfg.UserID = strings.TrimSpace(os.Getenv("USER_ID"))
	cfg.XSessionID = strings.TrimSpace(os.Getenv("X_SESSION_ID"))
	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))

	if v := strings.TrimSpace(os.Getenv("PAGE_HTTPS")); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			cfg.PageHTTPS = b
		}
	}
	if v := strings.TrimSpace(os.Getenv("LISTEN_ADDR")); v != "" {
		cfg.ListenAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("EXPORT_DIR")); v != "" {
		cfg.ExportDir = v
	}
	if v := strings.TrimSpace(os.Getenv("DATE_FORMAT")); v != "" && scores.SupportedFormat(v) {
		cfg.DateFormat = v
	}
	if v := strings.TrimSpace(os.Getenv("SETTINGS_DEBOUNCE_MS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SettingsDebounce = time.Duration(n) * time.Millisecond
		}
	}
	if v := strings.TrimSpace(os.Getenv("PUSH_MAX_RECONNECT")); v != "" {
		// 0 disables reconnects
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.PushMaxReconnect = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("PUSH_RECONNECT_DELAY_MS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.PushReconnectDelay = time.Duration(n) * time.Millisecond
		}
	}

	if cfg.APIBaseURL == "" {
		return nil, errors.New("API_BASE_URL is required")
	}
	if cfg.PushWSURL == "" {
		return nil, errors.New("PUSH_WS_URL is required")
	}
	if cfg.RoomID == "" {
		return nil, errors.New("ROOM_ID is required")
	}
	if cfg.UserID == "" {
		return nil, errors.New("USER_ID is required")
	}

	return cfg, nil
}

// Headers are forwarded on every REST request and the push handshake.
func (c *AppConfig) Headers() map[string]string {
	h := map[string]string{"X-User-Id": c.UserID}
	if c.XSessionID != "" {
		h["X-Session-Id"] = c.XSessionID
	}
	return h
}
