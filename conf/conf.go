// Package conf implements the flat key/value configuration store used by
// the plume hosts.
//
// The file format is one `key = value` pair per line. Blank lines and
// lines starting with # or ; are skipped. Values may be wrapped in single
// or double quotes; the quotes are stripped. Everything is stored as a
// string and parsed on read by the typed accessors.
package conf

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Config is an in-memory configuration store. Keys keep insertion order
// for stable serialization. Not safe for concurrent use.
type Config struct {
	entries map[string]string
	order   []string
}

// New creates a store populated with the host defaults.
func New() *Config {
	c := &Config{entries: make(map[string]string)}
	c.Set("system.name", "plume")
	c.Set("system.version", "0.1.0")
	c.Set("system.log_level", "info")
	c.Set("system.log_file", "")
	c.Set("repl.prompt", "% ")
	c.Set("repl.continuation", "> ")
	return c
}

// Set stores a value under key, converting it to a string: booleans
// become "true"/"false", integers their decimal form, everything else
// goes through fmt.
func (c *Config) Set(key string, value any) {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case bool:
		s = strconv.FormatBool(v)
	case int:
		s = strconv.Itoa(v)
	case int64:
		s = strconv.FormatInt(v, 10)
	default:
		s = fmt.Sprintf("%v", v)
	}
	if _, ok := c.entries[key]; !ok {
		c.order = append(c.order, key)
	}
	c.entries[key] = s
}

// Has reports whether key is present.
func (c *Config) Has(key string) bool {
	_, ok := c.entries[key]
	return ok
}

// Keys returns all keys, sorted.
func (c *Config) Keys() []string {
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Str returns the value for key, or def when absent.
func (c *Config) Str(key, def string) string {
	if v, ok := c.entries[key]; ok {
		return v
	}
	return def
}

// Int returns the value for key parsed as an integer, or def when the
// key is absent or the value does not parse.
func (c *Config) Int(key string, def int) int {
	v, ok := c.entries[key]
	if !ok {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return n
}

// Bool returns the value for key parsed as a boolean, or def when the
// key is absent or the value is not a recognized spelling. Recognized:
// true/yes/on/1 and false/no/off/0, case-insensitive.
func (c *Config) Bool(key string, def bool) bool {
	v, ok := c.entries[key]
	if !ok {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "yes", "on", "1":
		return true
	case "false", "no", "off", "0":
		return false
	}
	return def
}

// Load reads a configuration file into the store, overwriting existing
// keys. Malformed lines are collected into the returned error; the
// well-formed ones still load.
func (c *Config) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var errs []error
	scanner := bufio.NewScanner(f)
	for line := 1; scanner.Scan(); line++ {
		if err := c.parseLine(scanner.Text()); err != nil {
			errs = append(errs, fmt.Errorf("%s:%d: %w", path, line, err))
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return errors.Join(errs...)
}

func (c *Config) parseLine(raw string) error {
	line := strings.TrimSpace(raw)
	if line == "" || line[0] == '#' || line[0] == ';' {
		return nil
	}
	key, value, found := strings.Cut(line, "=")
	if !found {
		return errors.New("missing '='")
	}
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)
	if key == "" {
		return errors.New("empty key")
	}
	c.Set(key, unquote(value))
	return nil
}

// unquote strips one level of matching single or double quotes.
func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// Save writes the store to a file in insertion order. Values that would
// not survive a round trip bare (empty, padded, or starting with a quote
// or comment byte) are double-quoted.
func (c *Config) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "# plume configuration\n\n")
	for _, key := range c.order {
		fmt.Fprintf(w, "%s = %s\n", key, quoteValue(c.entries[key]))
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func quoteValue(v string) string {
	if v == "" || v != strings.TrimSpace(v) || v[0] == '"' || v[0] == '\'' || v[0] == '#' || v[0] == ';' {
		return `"` + v + `"`
	}
	return v
}
