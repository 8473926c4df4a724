package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dshills/reflex-emulator/internal/config/loader"
)

// Storage backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config is the emulator's bootstrap configuration.
type Config struct {
	Log     LogConfig     `json:"log"`
	Storage StorageConfig `json:"storage"`
	Redis   RedisConfig   `json:"redis"`
	Events  EventsConfig  `json:"events"`
	Watch   WatchConfig   `json:"watch"`
}

// LogConfig configures the logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level"`
	// Format is one of text, json, logfmt.
	Format string `json:"format"`
	// Prefix is printed before every message.
	Prefix string `json:"prefix"`
	// Timestamp enables timestamps on every line.
	Timestamp bool `json:"timestamp"`
}

// StorageConfig selects the durable backend.
type StorageConfig struct {
	// Backend is one of memory, file, sqlite, redis.
	Backend string `json:"backend"`
	// Path is the backup file (file) or database file (sqlite).
	Path string `json:"path"`
	// Key is the durable key of the settings record.
	Key string `json:"key"`
}

// RedisConfig configures the redis backend and event publisher.
type RedisConfig struct {
	URL    string `json:"url"`
	Prefix string `json:"prefix"`
}

// EventsConfig configures outbound settings-updated events.
type EventsConfig struct {
	// Enabled turns on publishing to Redis.
	Enabled bool `json:"enabled"`
	// Channel is the Redis Pub/Sub channel.
	Channel string `json:"channel"`
	// Buffer is the number of events queued before dropping.
	Buffer int `json:"buffer"`
}

// WatchConfig configures the backup file watcher.
type WatchConfig struct {
	// DebounceMs coalesces bursts of file events.
	DebounceMs int `json:"debounceMs"`
}

// Debounce returns the debounce interval as a duration.
func (w WatchConfig) Debounce() time.Duration {
	return time.Duration(w.DebounceMs) * time.Millisecond
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			Prefix: "emulator",
		},
		Storage: StorageConfig{
			Backend: BackendFile,
			Path:    DefaultStoragePath(),
			Key:     "Emulator Settings",
		},
		Redis: RedisConfig{
			URL:    "redis://localhost:6379/0",
			Prefix: "reflex:emulator:",
		},
		Events: EventsConfig{
			Channel: "reflex:emulator:settings",
			Buffer:  64,
		},
		Watch: WatchConfig{
			DebounceMs: 200,
		},
	}
}

// DefaultStoragePath returns the backup file location under the user
// config directory, falling back to the working directory.
func DefaultStoragePath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return "emulator-settings.json"
	}
	return filepath.Join(dir, "reflex-emulator", "settings.json")
}

// LoadOption configures Load.
type LoadOption func(*loadOptions)

type loadOptions struct {
	file      string
	fs        loader.FileSystem
	env       loader.Loader
	envSet    bool
	logger    *log.Logger
	overrides map[string]any
}

// WithFile reads path as the file layer. The file must exist.
func WithFile(path string) LoadOption {
	return func(o *loadOptions) {
		o.file = path
	}
}

// WithFS reads the config file through fsys.
func WithFS(fsys loader.FileSystem) LoadOption {
	return func(o *loadOptions) {
		o.fs = fsys
	}
}

// WithEnv replaces the environment layer. Pass nil to skip it.
func WithEnv(l loader.Loader) LoadOption {
	return func(o *loadOptions) {
		o.env = l
		o.envSet = true
	}
}

// WithLogger sets the logger that reports skipped environment variables.
func WithLogger(logger *log.Logger) LoadOption {
	return func(o *loadOptions) {
		o.logger = logger
	}
}

// WithOverrides adds a final layer, typically built from command-line flags.
func WithOverrides(m map[string]any) LoadOption {
	return func(o *loadOptions) {
		o.overrides = m
	}
}

// Load assembles the configuration from defaults, file, environment and
// overrides, then validates it.
//
// The default environment layer reads REFLEX_EMU_ variables typed against
// the defaults. Variables naming no configuration key are skipped with a
// warning.
func Load(opts ...LoadOption) (Config, error) {
	o := loadOptions{fs: loader.OSFS{}}
	for _, opt := range opts {
		opt(&o)
	}

	base, err := toMap(Default())
	if err != nil {
		return Config{}, err
	}
	if !o.envSet {
		o.env = loader.NewEnvLoader(loader.DefaultEnvPrefix,
			loader.WithTemplate(loader.Clone(base)),
			loader.WithEnvLogger(o.logger),
		)
	}
	layers := []map[string]any{base}

	if o.file != "" {
		fileLayer, err := loader.NewFileLoaderWithFS(o.fs, o.file).Load()
		if err != nil {
			return Config{}, err
		}
		if fileLayer == nil {
			return Config{}, fmt.Errorf("%w: %s", ErrFileNotFound, o.file)
		}
		layers = append(layers, fileLayer)
	}

	if o.env != nil {
		envLayer, err := o.env.Load()
		if err != nil {
			return Config{}, fmt.Errorf("loading environment: %w", err)
		}
		layers = append(layers, envLayer)
	}

	layers = append(layers, o.overrides)

	cfg, err := fromMap(loader.Merge(layers...))
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func toMap(cfg Config) (map[string]any, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func fromMap(m map[string]any) (Config, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return Config{}, fmt.Errorf("encoding merged config: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	return cfg, nil
}

// Validate checks the configuration for unusable values.
func (c Config) Validate() error {
	switch c.Storage.Backend {
	case BackendMemory, BackendRedis:
	case BackendFile, BackendSQLite:
		if strings.TrimSpace(c.Storage.Path) == "" {
			return &ValidationError{Path: "storage.path", Message: "required for " + c.Storage.Backend, Value: c.Storage.Path}
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Storage.Backend)
	}

	if c.Storage.Key == "" {
		return &ValidationError{Path: "storage.key", Message: "must not be empty", Value: c.Storage.Key}
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error", "fatal":
	default:
		return &ValidationError{Path: "log.level", Message: "unknown level", Value: c.Log.Level}
	}

	switch strings.ToLower(c.Log.Format) {
	case "text", "json", "logfmt":
	default:
		return &ValidationError{Path: "log.format", Message: "unknown format", Value: c.Log.Format}
	}

	if c.Events.Buffer < 1 {
		return &ValidationError{Path: "events.buffer", Message: "must be positive", Value: c.Events.Buffer}
	}
	if c.Watch.DebounceMs < 0 {
		return &ValidationError{Path: "watch.debounceMs", Message: "must not be negative", Value: c.Watch.DebounceMs}
	}
	if (c.Storage.Backend == BackendRedis || c.Events.Enabled) && c.Redis.URL == "" {
		return &ValidationError{Path: "redis.url", Message: "required for redis", Value: c.Redis.URL}
	}
	return nil
}
