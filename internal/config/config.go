package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dshills/quire/internal/config/loader"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "QUIRE_"

// Layer names reported by Source.
const (
	LayerDefaults = "defaults"
	LayerFile     = "file"
	LayerEnv      = "env"
)

// Option configures a Config.
type Option func(*Config)

// WithFile sets the configuration file. Its extension selects the format.
func WithFile(path string) Option {
	return func(c *Config) {
		c.path = path
	}
}

// WithFileSystem replaces the file system used to read the file.
func WithFileSystem(fs loader.FileSystem) Option {
	return func(c *Config) {
		c.fs = fs
	}
}

// WithEnv enables or disables the environment layer.
func WithEnv(enable bool) Option {
	return func(c *Config) {
		c.useEnv = enable
	}
}

// WithEnviron replaces the environment source.
func WithEnviron(environ func() []string) Option {
	return func(c *Config) {
		c.environ = environ
	}
}

// WithOverrides adds settings applied above every other layer.
func WithOverrides(values map[string]any) Option {
	return func(c *Config) {
		for path, v := range values {
			loader.SetByPath(c.overrides, path, v)
		}
	}
}

type layer struct {
	name string
	data map[string]any
}

// Config is the layered configuration. Later layers override earlier ones:
// defaults, then the file, then the environment, then overrides.
type Config struct {
	mu sync.RWMutex

	path      string
	fs        loader.FileSystem
	useEnv    bool
	environ   func() []string
	overrides map[string]any

	layers []layer
	merged map[string]any

	configErrors map[string]error
}

// New creates a configuration holding only the defaults. Call Load to
// read the file and environment.
func New(opts ...Option) *Config {
	c := &Config{
		fs:        loader.DefaultFS(),
		useEnv:    true,
		environ:   os.Environ,
		overrides: make(map[string]any),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.setLayers([]layer{{name: LayerDefaults, data: defaultConfig()}})
	return c
}

// Load reads every layer and replaces the current configuration.
func (c *Config) Load(ctx context.Context) error {
	layers := []layer{{name: LayerDefaults, data: defaultConfig()}}

	if c.path != "" {
		if err := ctx.Err(); err != nil {
			return err
		}
		l, err := loader.ForPath(c.fs, c.path)
		if err != nil {
			return err
		}
		var data map[string]any
		if tl, ok := l.(*loader.TOMLLoader); ok {
			data, err = tl.LoadWithIncludes(c.path, 8)
		} else {
			data, err = l.Load()
		}
		if err != nil {
			return fmt.Errorf("loading %s: %w", c.path, err)
		}
		if data != nil {
			layers = append(layers, layer{name: LayerFile, data: data})
		}
	}

	if c.useEnv {
		data, err := loader.NewEnvLoader(EnvPrefix).WithEnviron(c.environ).Load()
		if err != nil {
			return fmt.Errorf("loading environment: %w", err)
		}
		if len(data) > 0 {
			layers = append(layers, layer{name: LayerEnv, data: data})
		}
	}

	if len(c.overrides) > 0 {
		layers = append(layers, layer{name: "overrides", data: loader.Clone(c.overrides)})
	}

	c.setLayers(layers)
	c.ClearConfigErrors()
	return nil
}

func (c *Config) setLayers(layers []layer) {
	merged := make(map[string]any)
	for _, l := range layers {
		merged = loader.DeepMerge(merged, l.data)
	}
	c.mu.Lock()
	c.layers = layers
	c.merged = merged
	c.mu.Unlock()
}

// Path returns the configuration file path, if any.
func (c *Config) Path() string {
	return c.path
}

// Get returns the value at the given path from the merged configuration.
func (c *Config) Get(path string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return loader.GetByPath(c.merged, path)
}

// Source returns the name of the highest layer that sets path.
func (c *Config) Source(path string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i := len(c.layers) - 1; i >= 0; i-- {
		if _, ok := loader.GetByPath(c.layers[i].data, path); ok {
			return c.layers[i].name
		}
	}
	return ""
}

// Set stores a value in the override layer and merges it immediately.
func (c *Config) Set(path string, value any) error {
	if path == "" || strings.HasPrefix(path, ".") || strings.HasSuffix(path, ".") || strings.Contains(path, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	c.mu.Lock()
	loader.SetByPath(c.overrides, path, value)
	layers := c.layers
	if n := len(layers); n > 0 && layers[n-1].name == "overrides" {
		layers = layers[:n-1]
	}
	layers = append(layers, layer{name: "overrides", data: loader.Clone(c.overrides)})
	c.mu.Unlock()
	c.setLayers(layers)
	return nil
}

// Merged returns a copy of the merged configuration.
func (c *Config) Merged() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return loader.Clone(c.merged)
}

// GetString returns a string value at the given path.
func (c *Config) GetString(path string) (string, error) {
	v, ok := c.Get(path)
	if !ok {
		return "", ErrSettingNotFound
	}
	s, ok := v.(string)
	if !ok {
		return "", &TypeError{Path: path, Expected: "string", Actual: typeName(v)}
	}
	return s, nil
}

// GetInt returns an integer value at the given path.
func (c *Config) GetInt(path string) (int, error) {
	v, ok := c.Get(path)
	if !ok {
		return 0, ErrSettingNotFound
	}
	switch val := v.(type) {
	case int:
		return val, nil
	case int64:
		return int(val), nil
	case uint64:
		return int(val), nil
	case float64:
		if val != float64(int(val)) {
			return 0, &TypeError{Path: path, Expected: "int", Actual: "float"}
		}
		return int(val), nil
	default:
		return 0, &TypeError{Path: path, Expected: "int", Actual: typeName(v)}
	}
}

// GetBool returns a boolean value at the given path.
func (c *Config) GetBool(path string) (bool, error) {
	v, ok := c.Get(path)
	if !ok {
		return false, ErrSettingNotFound
	}
	b, ok := v.(bool)
	if !ok {
		return false, &TypeError{Path: path, Expected: "bool", Actual: typeName(v)}
	}
	return b, nil
}

// GetDuration returns a duration at the given path. Strings are parsed
// with time.ParseDuration; integers are taken as milliseconds.
func (c *Config) GetDuration(path string) (time.Duration, error) {
	v, ok := c.Get(path)
	if !ok {
		return 0, ErrSettingNotFound
	}
	switch val := v.(type) {
	case string:
		d, err := time.ParseDuration(val)
		if err != nil {
			return 0, &TypeError{Path: path, Expected: "duration", Actual: fmt.Sprintf("%q", val)}
		}
		return d, nil
	case int64:
		return time.Duration(val) * time.Millisecond, nil
	case int:
		return time.Duration(val) * time.Millisecond, nil
	default:
		return 0, &TypeError{Path: path, Expected: "duration", Actual: typeName(v)}
	}
}

// GetStringSlice returns a string slice at the given path. A single
// string is returned as a one-element slice.
func (c *Config) GetStringSlice(path string) ([]string, error) {
	v, ok := c.Get(path)
	if !ok {
		return nil, ErrSettingNotFound
	}
	switch val := v.(type) {
	case string:
		return []string{val}, nil
	case []string:
		return append([]string(nil), val...), nil
	case []any:
		result := make([]string, len(val))
		for i, item := range val {
			s, ok := item.(string)
			if !ok {
				return nil, &TypeError{Path: path, Expected: "[]string", Actual: "[]" + typeName(item)}
			}
			result[i] = s
		}
		return result, nil
	default:
		return nil, &TypeError{Path: path, Expected: "[]string", Actual: typeName(v)}
	}
}

// DefaultPath returns the user configuration file, preferring TOML over
// YAML. It returns the TOML path when neither exists.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	base := filepath.Join(dir, "quire")
	for _, name := range []string{"config.toml", "config.yaml", "config.yml"} {
		p := filepath.Join(base, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return filepath.Join(base, "config.toml")
}

func defaultConfig() map[string]any {
	return map[string]any{
		"logging": map[string]any{
			"level":  "info",
			"prefix": "",
		},
		"history": map[string]any{
			"max_entries": int64(DefaultMaxEntries),
		},
		"dispatcher": map[string]any{
			"recover_panics": true,
			"max_depth":      int64(32),
			"metrics":        false,
			"queue_size":     int64(100),
		},
		"script": map[string]any{
			"paths":      []any{},
			"timeout":    "2s",
			"call_limit": int64(100000),
		},
	}
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "bool"
	case int, int64, uint64:
		return "int"
	case float64:
		return "float"
	case []any, []string:
		return "array"
	case map[string]any:
		return "table"
	default:
		return fmt.Sprintf("%T", v)
	}
}
