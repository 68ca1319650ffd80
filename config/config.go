package config

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strconv"
)

// AppConfig holds environment driven configuration values for the board.
type AppConfig struct {
	AppPort        string   `json:"AppPort"`
	DatabasePath   string   `json:"DatabasePath"`
	StorageRoot    string   `json:"StorageRoot"`
	PageSize       int      `json:"PageSize"`
	TitleMaxLen    int      `json:"TitleMaxLen"`
	MessageMaxLen  int      `json:"MessageMaxLen"`
	PreviewMaxLen  int      `json:"PreviewMaxLen"`
	MaxUploadBytes int64    `json:"MaxUploadBytes"`
	AllowedOrigins []string `json:"AllowedOrigins"`
	// Gin framework configuration
	GinMode string `json:"GinMode"`
	// Logging configuration
	LogLevel      string `json:"LogLevel"`
	LogPath       string `json:"LogPath"`
	LogMaxSizeMB  int    `json:"LogMaxSizeMB"`
	LogMaxBackups int    `json:"LogMaxBackups"`
	LogMaxAgeDays int    `json:"LogMaxAgeDays"`
	LogCompress   bool   `json:"LogCompress"`
}

var cfg AppConfig
var loaded bool

// Load loads the application configuration. It should be called once during boot.
// Precedence: config/config.json -> defaults -> environment variable overrides.
func Load() AppConfig {
	if loaded {
		return cfg
	}

	_ = loadJSONConfig(filepath.Join("config", "config.json"), &cfg)
	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	loaded = true
	return cfg
}

// Get returns the cached configuration, loading it if necessary.
func Get() AppConfig {
	if !loaded {
		return Load()
	}
	return cfg
}

// Reset clears the cached configuration so the next Load starts fresh. Test helper.
func Reset() {
	cfg = AppConfig{}
	loaded = false
}

// loadJSONConfig reads the JSON file into out if present. A missing file is not
// an error; invalid JSON is.
func loadJSONConfig(path string, out *AppConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	return json.NewDecoder(f).Decode(out)
}

// applyDefaults sets sane defaults for zero-value fields.
func applyDefaults(c *AppConfig) {
	if c.AppPort == "" {
		c.AppPort = "8080"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "my_database.db"
	}
	if c.StorageRoot == "" {
		c.StorageRoot = "static"
	}
	if c.PageSize == 0 {
		c.PageSize = 30
	}
	if c.TitleMaxLen == 0 {
		c.TitleMaxLen = 20
	}
	if c.MessageMaxLen == 0 {
		c.MessageMaxLen = 40000
	}
	if c.PreviewMaxLen == 0 {
		c.PreviewMaxLen = 2700
	}
	if c.MaxUploadBytes == 0 {
		c.MaxUploadBytes = 20 * 1024 * 1024
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.GinMode == "" {
		c.GinMode = "release"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogMaxSizeMB == 0 {
		c.LogMaxSizeMB = 100
	}
	if c.LogMaxBackups == 0 {
		c.LogMaxBackups = 3
	}
	if c.LogMaxAgeDays == 0 {
		c.LogMaxAgeDays = 7
	}
}

// applyEnvOverrides maps known environment variables onto config values when present.
func applyEnvOverrides(c *AppConfig) {
	if v := os.Getenv("APP_PORT"); v != "" {
		c.AppPort = v
	}
	if v := os.Getenv("DATABASE_PATH"); v != "" {
		c.DatabasePath = v
	}
	if v := os.Getenv("STORAGE_ROOT"); v != "" {
		c.StorageRoot = v
	}
	if v := os.Getenv("PAGE_SIZE"); v != "" {
		c.PageSize = mustParseInt(v)
	}
	if v := os.Getenv("TITLE_MAX_LEN"); v != "" {
		c.TitleMaxLen = mustParseInt(v)
	}
	if v := os.Getenv("MESSAGE_MAX_LEN"); v != "" {
		c.MessageMaxLen = mustParseInt(v)
	}
	if v := os.Getenv("PREVIEW_MAX_LEN"); v != "" {
		c.PreviewMaxLen = mustParseInt(v)
	}
	if v := os.Getenv("MAX_UPLOAD_BYTES"); v != "" {
		c.MaxUploadBytes = int64(mustParseInt(v))
	}
	if v := os.Getenv("GIN_MODE"); v != "" {
		c.GinMode = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("LOG_PATH"); v != "" {
		c.LogPath = v
	}
	if v := os.Getenv("LOG_MAX_SIZE_MB"); v != "" {
		c.LogMaxSizeMB = mustParseInt(v)
	}
	if v := os.Getenv("LOG_MAX_BACKUPS"); v != "" {
		c.LogMaxBackups = mustParseInt(v)
	}
	if v := os.Getenv("LOG_MAX_AGE_DAYS"); v != "" {
		c.LogMaxAgeDays = mustParseInt(v)
	}
	if v := os.Getenv("LOG_COMPRESS"); v != "" {
		c.LogCompress = v == "true"
	}
}

func mustParseInt(val string) int {
	i, err := strconv.Atoi(val)
	if err != nil {
		log.Fatalf("invalid integer value %s: %v", val, err)
	}
	return i
}
