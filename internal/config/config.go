// Package config resolves the settings shared by the formflow commands.
//
// Values are layered in this order, later layers winning: built-in defaults,
// an optional YAML file, FORMFLOW_* environment variables, command-line flags.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/formflow/internal/logging"
	"github.com/aretw0/formflow/pkg/persistence/middleware"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "FORMFLOW_"

// EnvConfigFile names the YAML file to load when no path is given.
const EnvConfigFile = EnvPrefix + "CONFIG"

// Loader kinds.
const (
	LoaderLoam = "loam"
	LoaderFile = "file"
)

// Store drivers.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
)

// Config holds every setting of a formflow process.
type Config struct {
	Dir      string         `yaml:"dir" mapstructure:"dir"`
	Loader   string         `yaml:"loader" mapstructure:"loader"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
	HTTP     HTTPConfig     `yaml:"http" mapstructure:"http"`
	Reaper   ReaperConfig   `yaml:"reaper" mapstructure:"reaper"`
	Dispatch DispatchConfig `yaml:"dispatch" mapstructure:"dispatch"`
}

// StoreConfig selects where submissions and counters live.
type StoreConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"`
	// Path is the session directory for the file driver and the DSN for sqlite.
	Path  string      `yaml:"path" mapstructure:"path"`
	Redis RedisConfig `yaml:"redis" mapstructure:"redis"`
	// EncryptionKey is a base64 AES-256 key sealing collected answers at rest.
	EncryptionKey string `yaml:"encryptionKey" mapstructure:"encryptionKey"`
	// Mask lists patterns of variable names stored as "***".
	Mask []string `yaml:"mask" mapstructure:"mask"`
}

// RedisConfig configures the redis driver.
type RedisConfig struct {
	Addr     string        `yaml:"addr" mapstructure:"addr"`
	Password string        `yaml:"password" mapstructure:"password"`
	DB       int           `yaml:"db" mapstructure:"db"`
	Prefix   string        `yaml:"prefix" mapstructure:"prefix"`
	TTL      time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

type HTTPConfig struct {
	Port string `yaml:"port" mapstructure:"port"`
}

// ReaperConfig controls abandonment of idle submissions.
type ReaperConfig struct {
	Enabled     bool          `yaml:"enabled" mapstructure:"enabled"`
	IdleTimeout time.Duration `yaml:"idleTimeout" mapstructure:"idleTimeout"`
	Schedule    string        `yaml:"schedule" mapstructure:"schedule"`
}

// DispatchConfig controls post-completion actions.
type DispatchConfig struct {
	Workers int           `yaml:"workers" mapstructure:"workers"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// Commands is the allow-list file for command actions.
	Commands string `yaml:"commands" mapstructure:"commands"`
}

// Default returns the settings used when nothing else is configured.
func Default() *Config {
	return &Config{
		Dir:    ".",
		Loader: LoaderLoam,
		Store: StoreConfig{
			Driver: StoreMemory,
			Redis:  RedisConfig{Addr: "localhost:6379", Prefix: "formflow:"},
		},
		Log:      LogConfig{Level: "info", Format: string(logging.FormatText)},
		HTTP:     HTTPConfig{Port: "8080"},
		Reaper:   ReaperConfig{Enabled: true, IdleTimeout: 24 * time.Hour, Schedule: "@every 15m"},
		Dispatch: DispatchConfig{Workers: 2, Timeout: 30 * time.Second},
	}
}

// Load builds a Config from defaults, the YAML file at path and the process
// environment. An empty path falls back to $FORMFLOW_CONFIG; if that is unset
// too, no file is read.
func Load(path string) (*Config, error) {
	return LoadWithEnv(path, os.LookupEnv)
}

// LoadWithEnv is Load with an explicit environment lookup.
func LoadWithEnv(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	if path == "" {
		path, _ = lookup(EnvConfigFile)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %q: %w", path, err)
		}
	}

	if err := applyEnv(cfg, lookup); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envKeys maps each environment variable to its dotted config path.
var envKeys = map[string]string{
	"DIR":             "dir",
	"LOADER":          "loader",
	"STORE":           "store.driver",
	"STORE_PATH":      "store.path",
	"REDIS_ADDR":      "store.redis.addr",
	"REDIS_PASSWORD":  "store.redis.password",
	"REDIS_DB":        "store.redis.db",
	"REDIS_PREFIX":    "store.redis.prefix",
	"REDIS_TTL":       "store.redis.ttl",
	"LOG_LEVEL":       "log.level",
	"LOG_FORMAT":      "log.format",
	"PORT":            "http.port",
	"REAPER_ENABLED":  "reaper.enabled",
	"REAPER_IDLE":     "reaper.idleTimeout",
	"REAPER_SCHEDULE": "reaper.schedule",
	"WORKERS":         "dispatch.workers",
	"WEBHOOK_TIMEOUT": "dispatch.timeout",
	"COMMANDS":        "dispatch.commands",
	"ENCRYPTION_KEY":  "store.encryptionKey",
	"MASK":            "store.mask",
}

// applyEnv overlays FORMFLOW_* variables onto cfg. Values arrive as strings
// and are weakly decoded into the typed fields.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	overlay := map[string]any{}
	for suffix, path := range envKeys {
		val, ok := lookup(EnvPrefix + suffix)
		if !ok {
			continue
		}
		setPath(overlay, strings.Split(path, "."), val)
	}
	if len(overlay) == 0 {
		return nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(overlay); err != nil {
		return fmt.Errorf("invalid %s environment: %w", EnvPrefix+"*", err)
	}
	return nil
}

func setPath(m map[string]any, path []string, val string) {
	for _, key := range path[:len(path)-1] {
		next, ok := m[key].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[key] = next
		}
		m = next
	}
	m[path[len(path)-1]] = val
}

// Validate reports settings no component can act on.
func (c *Config) Validate() error {
	var errs []error
	switch c.Loader {
	case LoaderLoam, LoaderFile:
	default:
		errs = append(errs, fmt.Errorf("unknown loader %q (want loam or file)", c.Loader))
	}
	switch c.Store.Driver {
	case StoreMemory, StoreFile, StoreRedis, StoreSQLite:
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q (want memory, file, redis or sqlite)", c.Store.Driver))
	}
	if c.Store.Driver == StoreRedis && c.Store.Redis.Addr == "" {
		errs = append(errs, errors.New("redis store requires an address"))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch logging.Format(c.Log.Format) {
	case logging.FormatText, logging.FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q (want text or json)", c.Log.Format))
	}
	if c.Store.EncryptionKey != "" {
		if _, err := middleware.DecodeKey(c.Store.EncryptionKey); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Dispatch.Workers < 1 {
		errs = append(errs, fmt.Errorf("dispatch workers must be positive, got %d", c.Dispatch.Workers))
	}
	return errors.Join(errs...)
}

// SessionDir returns where the file store keeps submissions.
func (c *Config) SessionDir() string {
	if c.Store.Path != "" {
		return c.Store.Path
	}
	return filepath.Join(c.Dir, ".formflow", "sessions")
}

// SQLiteDSN returns the database used by the sqlite driver.
func (c *Config) SQLiteDSN() string {
	if c.Store.Path != "" {
		return c.Store.Path
	}
	return filepath.Join(c.Dir, ".formflow", "formflow.db")
}

// CommandsPath returns the allow-list file for command actions.
func (c *Config) CommandsPath() string {
	if c.Dispatch.Commands != "" {
		return c.Dispatch.Commands
	}
	return filepath.Join(c.Dir, ".formflow", "commands.yaml")
}

// Logger builds the process logger from the log settings.
func (c *Config) Logger() *slog.Logger {
	level, _ := logging.ParseLevel(c.Log.Level)
	return logging.New(level, logging.Format(c.Log.Format))
}
