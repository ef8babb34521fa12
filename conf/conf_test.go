package conf

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

func TestDefaults(t *testing.T) {
	c := New()
	if got := c.Str("system.name", ""); got != "plume" {
		t.Errorf("system.name: expected %q, got %q", "plume", got)
	}
	if got := c.Str("system.version", ""); got != "0.1.0" {
		t.Errorf("system.version: expected %q, got %q", "0.1.0", got)
	}
	if got := c.Str("repl.prompt", ""); got != "% " {
		t.Errorf("repl.prompt: expected %q, got %q", "% ", got)
	}
	if !c.Has("system.log_level") {
		t.Error("system.log_level should be present by default")
	}
	if c.Has("no.such.key") {
		t.Error("Has reported a key that was never set")
	}
}

func TestSetConversions(t *testing.T) {
	c := New()
	c.Set("flag", true)
	c.Set("count", 42)
	c.Set("big", int64(1)<<40)
	c.Set("ratio", 1.5)

	if got := c.Str("flag", ""); got != "true" {
		t.Errorf("bool value: expected %q, got %q", "true", got)
	}
	if got := c.Str("count", ""); got != "42" {
		t.Errorf("int value: expected %q, got %q", "42", got)
	}
	if got := c.Str("big", ""); got != "1099511627776" {
		t.Errorf("int64 value: expected %q, got %q", "1099511627776", got)
	}
	if got := c.Str("ratio", ""); got != "1.5" {
		t.Errorf("float value: expected %q, got %q", "1.5", got)
	}
}

func TestTypedAccessors(t *testing.T) {
	c := New()

	c.Set("port", "8080")
	if got := c.Int("port", 0); got != 8080 {
		t.Errorf("Int: expected 8080, got %d", got)
	}
	c.Set("padded", "  12  ")
	if got := c.Int("padded", 0); got != 12 {
		t.Errorf("Int with padding: expected 12, got %d", got)
	}
	c.Set("notnum", "eleventy")
	if got := c.Int("notnum", 7); got != 7 {
		t.Errorf("Int on a non-number should fall back to the default, got %d", got)
	}
	if got := c.Int("absent", 9); got != 9 {
		t.Errorf("Int on an absent key should fall back to the default, got %d", got)
	}
	if got := c.Str("absent", "fallback"); got != "fallback" {
		t.Errorf("Str on an absent key: expected %q, got %q", "fallback", got)
	}

	truthy := []string{"true", "yes", "on", "1", "TRUE", "Yes", " on "}
	for _, v := range truthy {
		c.Set("b", v)
		if !c.Bool("b", false) {
			t.Errorf("Bool(%q) should be true", v)
		}
	}
	falsy := []string{"false", "no", "off", "0", "OFF", "No"}
	for _, v := range falsy {
		c.Set("b", v)
		if c.Bool("b", true) {
			t.Errorf("Bool(%q) should be false", v)
		}
	}
	c.Set("b", "maybe")
	if !c.Bool("b", true) || c.Bool("b", false) {
		t.Error("Bool on an unrecognized spelling should fall back to the default")
	}
	if !c.Bool("absent", true) {
		t.Error("Bool on an absent key should fall back to the default")
	}
}

func TestKeysSorted(t *testing.T) {
	c := New()
	c.Set("zz.last", "1")
	c.Set("aa.first", "1")
	keys := c.Keys()
	if !sort.StringsAreSorted(keys) {
		t.Errorf("Keys should be sorted, got %v", keys)
	}
	if keys[0] != "aa.first" {
		t.Errorf("expected aa.first to sort first, got %q", keys[0])
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plume.conf")
	content := strings.Join([]string{
		"# a comment",
		"; another comment",
		"",
		"system.name = renamed",
		`quoted = "hello world"`,
		"single = 'one two'",
		"spaced   =   trimmed",
		"keep.eq = a=b",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	c := New()
	if err := c.Load(path); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := c.Str("system.name", ""); got != "renamed" {
		t.Errorf("loaded key should overwrite the default, got %q", got)
	}
	if got := c.Str("quoted", ""); got != "hello world" {
		t.Errorf("double quotes should be stripped, got %q", got)
	}
	if got := c.Str("single", ""); got != "one two" {
		t.Errorf("single quotes should be stripped, got %q", got)
	}
	if got := c.Str("spaced", ""); got != "trimmed" {
		t.Errorf("padding should be trimmed, got %q", got)
	}
	if got := c.Str("keep.eq", ""); got != "a=b" {
		t.Errorf("only the first '=' splits, got %q", got)
	}
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.conf")
	content := "good = 1\nno equals here\n = novalue\nalso.good = 2\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	c := New()
	err := c.Load(path)
	if err == nil {
		t.Fatal("expected an error for the malformed lines")
	}
	msg := err.Error()
	if !strings.Contains(msg, ":2:") || !strings.Contains(msg, "missing '='") {
		t.Errorf("error should name line 2: %q", msg)
	}
	if !strings.Contains(msg, ":3:") || !strings.Contains(msg, "empty key") {
		t.Errorf("error should name line 3: %q", msg)
	}
	// well-formed lines still load
	if got := c.Int("good", 0); got != 1 {
		t.Errorf("good key lost: expected 1, got %d", got)
	}
	if got := c.Str("also.good", ""); got != "2" {
		t.Errorf("key after the bad lines lost, got %q", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	c := New()
	if err := c.Load(filepath.Join(t.TempDir(), "absent.conf")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	c := New()
	c.Set("empty", "")
	c.Set("padded", "  sides  ")
	c.Set("hash", "#literal")
	c.Set("quotish", `'inner'`)
	c.Set("plain", "value")

	path := filepath.Join(t.TempDir(), "out.conf")
	if err := c.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !strings.HasPrefix(string(data), "# plume configuration\n") {
		t.Error("saved file should start with the header comment")
	}

	fresh := New()
	if err := fresh.Load(path); err != nil {
		t.Fatalf("Load of the saved file failed: %v", err)
	}
	for _, key := range c.Keys() {
		want := c.Str(key, "?")
		if got := fresh.Str(key, "!"); got != want {
			t.Errorf("key %q: expected %q after round trip, got %q", key, want, got)
		}
	}
}

func TestSaveNoDuplicates(t *testing.T) {
	c := New()
	c.Set("dup", "first")
	c.Set("dup", "second")

	path := filepath.Join(t.TempDir(), "dup.conf")
	if err := c.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if n := strings.Count(string(data), "dup = "); n != 1 {
		t.Errorf("overwritten key should serialize once, found %d lines", n)
	}
	if !strings.Contains(string(data), "dup = second") {
		t.Error("the last value should win")
	}
}
