package plume

import (
	"fmt"
	"strconv"
	"strings"
)

// Value is the result of a successful evaluation, with typed accessors
// over the underlying string. The interpreter core is string-only; the
// accessors parse on demand and never cache.
type Value interface {
	// String returns the string representation of the value.
	String() string

	// Int parses the value as a decimal integer.
	Int() (int64, error)

	// Bool parses the value as a boolean. Accepted spellings are "1",
	// "true", "yes", "on" and their negatives, in the usual casings.
	Bool() (bool, error)

	// List splits the value into list elements. Elements are separated
	// by whitespace; braces and double quotes group an element.
	List() ([]Value, error)

	// IsNil reports whether the value is empty.
	IsNil() bool
}

// NewValue wraps a script string in a Value. Hosts use it to apply the
// typed accessors to command arguments, which arrive as plain strings.
//
//	pairs, err := plume.NewValue(args[1]).List()
func NewValue(s string) Value {
	return stringValue(s)
}

// List joins elements into a single list string, bracing any element
// containing list metacharacters. The result round-trips through
// [Value.List].
func List(items ...string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = quote(item)
	}
	return strings.Join(quoted, " ")
}

// stringValue is the Value implementation returned by Eval and Call.
type stringValue string

func (v stringValue) String() string {
	return string(v)
}

func (v stringValue) Int() (int64, error) {
	return strconv.ParseInt(string(v), 10, 64)
}

func (v stringValue) Bool() (bool, error) {
	switch string(v) {
	case "1", "true", "True", "TRUE", "yes", "Yes", "YES", "on", "On", "ON":
		return true, nil
	case "0", "false", "False", "FALSE", "no", "No", "NO", "off", "Off", "OFF":
		return false, nil
	}
	return false, fmt.Errorf("expected boolean but got %q", string(v))
}

func (v stringValue) List() ([]Value, error) {
	items, err := parseList(string(v))
	if err != nil {
		return nil, err
	}
	result := make([]Value, len(items))
	for i, item := range items {
		result[i] = stringValue(item)
	}
	return result, nil
}

func (v stringValue) IsNil() bool {
	return string(v) == ""
}

// parseList splits a list string into elements. A braced element keeps
// everything up to the matching close brace; a quoted element keeps
// everything up to the closing quote, with backslash escaping the next
// byte; a bare element runs to the next whitespace.
func parseList(s string) ([]string, error) {
	var items []string
	pos := 0
	for pos < len(s) {
		for pos < len(s) && (s[pos] == ' ' || s[pos] == '\t' || s[pos] == '\n') {
			pos++
		}
		if pos >= len(s) {
			break
		}
		var elem string
		switch s[pos] {
		case '{':
			depth := 1
			start := pos + 1
			pos++
			for pos < len(s) && depth > 0 {
				if s[pos] == '{' {
					depth++
				} else if s[pos] == '}' {
					depth--
				}
				pos++
			}
			if depth != 0 {
				return nil, fmt.Errorf("unmatched brace in list")
			}
			elem = s[start : pos-1]
		case '"':
			start := pos + 1
			pos++
			for pos < len(s) && s[pos] != '"' {
				if s[pos] == '\\' && pos+1 < len(s) {
					pos++
				}
				pos++
			}
			if pos >= len(s) {
				return nil, fmt.Errorf("unmatched quote in list")
			}
			elem = s[start:pos]
			pos++ // closing quote
		default:
			start := pos
			for pos < len(s) && s[pos] != ' ' && s[pos] != '\t' && s[pos] != '\n' {
				pos++
			}
			elem = s[start:pos]
		}
		items = append(items, elem)
	}
	return items, nil
}
