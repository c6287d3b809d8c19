// Package appconfig holds the configuration of one test application instance. Every
// instance builds its own Config; nothing is shared at package level.
package appconfig

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/webcontract/web-contract-tests/servicedef"

	"gopkg.in/yaml.v3"
)

// Config is a set of named values of arbitrary type.
type Config struct {
	values map[string]any
}

func New() *Config {
	return &Config{values: make(map[string]any)}
}

// FromEnvironment creates a Config from the variables of the current process that have the
// given prefix.
func FromEnvironment(prefix string) *Config {
	c := New()
	c.LoadPrefixedEnv(prefix, os.Environ())
	return c
}

// LoadPrefixedEnv loads every KEY=VALUE entry whose key starts with prefix, using the rest
// of the key as the name. A value that is valid JSON is stored decoded (as a bool, int,
// float64, string, []any or map[string]any); anything else is stored as the raw string.
func (c *Config) LoadPrefixedEnv(prefix string, environ []string) {
	keys := make([]string, 0)
	entries := make(map[string]string)
	for _, entry := range environ {
		key, value, ok := strings.Cut(entry, "=")
		if !ok || !strings.HasPrefix(key, prefix) || len(key) == len(prefix) {
			continue
		}
		name := strings.TrimPrefix(key, prefix)
		if _, seen := entries[name]; !seen {
			keys = append(keys, name)
		}
		entries[name] = value
	}
	sort.Strings(keys)
	for _, name := range keys {
		c.values[name] = decodeValue(entries[name])
	}
}

func decodeValue(raw string) any {
	data := []byte(raw)
	if !json.Valid(data) {
		return raw
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return raw
	}
	return normalizeNumbers(v)
}

func normalizeNumbers(v any) any {
	switch v := v.(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
		if f, err := v.Float64(); err == nil {
			return f
		}
		return v.String()
	case []any:
		for i := range v {
			v[i] = normalizeNumbers(v[i])
		}
		return v
	case map[string]any:
		for k := range v {
			v[k] = normalizeNumbers(v[k])
		}
		return v
	default:
		return v
	}
}

// LoadJSONFile loads the top-level properties of a JSON object file.
func (c *Config) LoadJSONFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	m := make(map[string]any)
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("malformed JSON in %s: %w", path, err)
	}
	c.merge(m)
	return nil
}

// LoadYAMLFile loads the top-level properties of a YAML mapping file.
func (c *Config) LoadYAMLFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	m := make(map[string]any)
	if err := yaml.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("malformed YAML in %s: %w", path, err)
	}
	c.merge(m)
	return nil
}

// LoadFile loads a JSON or YAML file, chosen by its extension.
func (c *Config) LoadFile(path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return c.LoadJSONFile(path)
	case ".yaml", ".yml":
		return c.LoadYAMLFile(path)
	default:
		return fmt.Errorf("unsupported config file type: %s", path)
	}
}

// LoadObject loads the fields of a struct, named by their yaml tags. Only upper-case names
// are taken, so a struct can carry helper fields that are not settings.
func (c *Config) LoadObject(obj any) error {
	data, err := yaml.Marshal(obj)
	if err != nil {
		return err
	}
	m := make(map[string]any)
	if err := yaml.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("%T is not a mapping: %w", obj, err)
	}
	for k, v := range m {
		if k == strings.ToUpper(k) {
			c.values[k] = v
		}
	}
	return nil
}

// Merge copies every value of other into c, replacing values with the same name.
func (c *Config) Merge(other *Config) {
	c.merge(other.values)
}

func (c *Config) merge(m map[string]any) {
	for k, v := range m {
		c.values[k] = v
	}
}

func (c *Config) Set(key string, value any) {
	c.values[key] = value
}

func (c *Config) Get(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Keys returns the names of all values in sorted order.
func (c *Config) Keys() []string {
	ret := make([]string, 0, len(c.values))
	for k := range c.values {
		ret = append(ret, k)
	}
	sort.Strings(ret)
	return ret
}

// String returns the value as a string if it is one, or defaultValue otherwise.
func (c *Config) String(key, defaultValue string) string {
	if s, ok := c.values[key].(string); ok {
		return s
	}
	return defaultValue
}

// StringList returns the value if it is a list of strings. An empty list is a valid value
// and is distinguished from a missing one by the second return value.
func (c *Config) StringList(key string) ([]string, bool) {
	switch v := c.values[key].(type) {
	case []string:
		return v, true
	case []any:
		ret := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			ret = append(ret, s)
		}
		return ret, true
	default:
		return nil, false
	}
}

// Debug reports whether debug mode is enabled by the servicedef.ConfigDebug value.
func (c *Config) Debug() bool {
	switch v := c.values[servicedef.ConfigDebug].(type) {
	case bool:
		return v
	case string:
		return DebugFlag(v)
	case int:
		return v != 0
	default:
		return false
	}
}

// DebugFlag interprets a debug setting the way the environment variable is documented:
// empty, "0", "false" and "no" (in any case) are false, anything else is true.
func DebugFlag(value string) bool {
	switch strings.ToLower(value) {
	case "", "0", "false", "no":
		return false
	default:
		return true
	}
}
