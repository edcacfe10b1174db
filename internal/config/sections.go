package config

import (
	"fmt"
	"time"

	"github.com/dshills/quire/internal/schema"
)

// DefaultMaxEntries is the default undo history bound.
const DefaultMaxEntries = 1000

// Section accessor methods return snapshot structs. A setting of the wrong
// type falls back to its default and is recorded in ConfigErrors.

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	// Level is one of debug, info, warn or error.
	Level  string
	Prefix string
}

// HistoryConfig holds undo history settings.
type HistoryConfig struct {
	MaxEntries int
}

// DispatcherConfig holds command dispatch settings.
type DispatcherConfig struct {
	RecoverPanics bool
	// MaxDepth bounds nested dispatches. Zero means no limit.
	MaxDepth  int
	Metrics   bool
	QueueSize int
}

// ScriptConfig holds Lua command script settings.
type ScriptConfig struct {
	// Paths lists script files or directories of *.lua files.
	Paths     []string
	Timeout   time.Duration
	CallLimit int
}

// Logging returns the logging settings.
func (c *Config) Logging() LoggingConfig {
	return LoggingConfig{
		Level:  c.getStringOr("logging.level", "info"),
		Prefix: c.getStringOr("logging.prefix", ""),
	}
}

// History returns the undo history settings.
func (c *Config) History() HistoryConfig {
	return HistoryConfig{
		MaxEntries: c.getIntOr("history.max_entries", DefaultMaxEntries),
	}
}

// Dispatcher returns the dispatch settings.
func (c *Config) Dispatcher() DispatcherConfig {
	return DispatcherConfig{
		RecoverPanics: c.getBoolOr("dispatcher.recover_panics", true),
		MaxDepth:      c.getIntOr("dispatcher.max_depth", 32),
		Metrics:       c.getBoolOr("dispatcher.metrics", false),
		QueueSize:     c.getIntOr("dispatcher.queue_size", 100),
	}
}

// Script returns the script settings.
func (c *Config) Script() ScriptConfig {
	return ScriptConfig{
		Paths:     c.getStringSliceOr("script.paths", nil),
		Timeout:   c.getDurationOr("script.timeout", 2*time.Second),
		CallLimit: c.getIntOr("script.call_limit", 100000),
	}
}

// Kinds returns the node kind definitions under "kinds". Each entry is a
// table with a name and optional tags and flags.
func (c *Config) Kinds() ([]schema.Definition, error) {
	v, ok := c.Get("kinds")
	if !ok {
		return nil, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, &TypeError{Path: "kinds", Expected: "array", Actual: typeName(v)}
	}
	defs := make([]schema.Definition, 0, len(list))
	for i, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, &TypeError{Path: fmt.Sprintf("kinds[%d]", i), Expected: "table", Actual: typeName(item)}
		}
		def, err := kindDefinition(i, m)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func kindDefinition(i int, m map[string]any) (schema.Definition, error) {
	var def schema.Definition
	path := func(key string) string { return fmt.Sprintf("kinds[%d].%s", i, key) }

	name, ok := m["name"].(string)
	if !ok {
		return def, &TypeError{Path: path("name"), Expected: "string", Actual: typeName(m["name"])}
	}
	def.Name = name

	switch tags := m["tags"].(type) {
	case nil:
	case string:
		def.Tags = []string{tags}
	case []any:
		for _, t := range tags {
			s, ok := t.(string)
			if !ok {
				return def, &TypeError{Path: path("tags"), Expected: "[]string", Actual: "[]" + typeName(t)}
			}
			def.Tags = append(def.Tags, s)
		}
	default:
		return def, &TypeError{Path: path("tags"), Expected: "[]string", Actual: typeName(tags)}
	}

	flags := []struct {
		key string
		dst *bool
	}{
		{"container", &def.Container},
		{"atomic", &def.Atomic},
		{"tangible", &def.Tangible},
		{"breakable", &def.Breakable},
		{"may_contain_containers", &def.MayContainContainers},
	}
	for _, f := range flags {
		v, present := m[f.key]
		if !present {
			continue
		}
		b, ok := v.(bool)
		if !ok {
			return def, &TypeError{Path: path(f.key), Expected: "bool", Actual: typeName(v)}
		}
		*f.dst = b
	}
	return def, nil
}

// Validate reads every section and reports the settings that could not
// be used.
func (c *Config) Validate() error {
	c.Logging()
	c.History()
	c.Dispatcher()
	c.Script()
	if _, err := c.Kinds(); err != nil {
		c.recordConfigError("kinds", err)
	}
	if errs := c.ConfigErrors(); len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

func (c *Config) getStringOr(path string, defaultValue string) string {
	v, err := c.GetString(path)
	if err != nil {
		if err != ErrSettingNotFound {
			c.recordConfigError(path, err)
		}
		return defaultValue
	}
	return v
}

func (c *Config) getIntOr(path string, defaultValue int) int {
	v, err := c.GetInt(path)
	if err != nil {
		if err != ErrSettingNotFound {
			c.recordConfigError(path, err)
		}
		return defaultValue
	}
	return v
}

func (c *Config) getBoolOr(path string, defaultValue bool) bool {
	v, err := c.GetBool(path)
	if err != nil {
		if err != ErrSettingNotFound {
			c.recordConfigError(path, err)
		}
		return defaultValue
	}
	return v
}

func (c *Config) getDurationOr(path string, defaultValue time.Duration) time.Duration {
	v, err := c.GetDuration(path)
	if err != nil {
		if err != ErrSettingNotFound {
			c.recordConfigError(path, err)
		}
		return defaultValue
	}
	return v
}

func (c *Config) getStringSliceOr(path string, defaultValue []string) []string {
	v, err := c.GetStringSlice(path)
	if err != nil {
		if err != ErrSettingNotFound {
			c.recordConfigError(path, err)
		}
		return append([]string(nil), defaultValue...)
	}
	return v
}

// recordConfigError keeps the first error seen for each path.
func (c *Config) recordConfigError(path string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.configErrors == nil {
		c.configErrors = make(map[string]error)
	}
	if _, exists := c.configErrors[path]; !exists {
		c.configErrors[path] = err
	}
}

// ConfigErrors returns the errors recorded by section accessors.
func (c *Config) ConfigErrors() map[string]error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.configErrors == nil {
		return nil
	}
	result := make(map[string]error, len(c.configErrors))
	for k, v := range c.configErrors {
		result[k] = v
	}
	return result
}

// ClearConfigErrors clears any stored configuration errors.
func (c *Config) ClearConfigErrors() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.configErrors = nil
}
