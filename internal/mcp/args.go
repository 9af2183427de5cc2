package mcp

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/kyrylo/fast-method-source/internal/navigation"
)

// toolArgs wraps the arguments of one tool call.
type toolArgs map[string]interface{}

// file returns the required file argument.
func (a toolArgs) file() (string, error) {
	return a.str("file", true)
}

// str returns a string argument. A required argument must be present and
// non-empty.
func (a toolArgs) str(key string, required bool) (string, error) {
	val, ok := a[key]
	if !ok {
		if required {
			return "", fmt.Errorf("%s parameter is required", key)
		}
		return "", nil
	}
	s, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string", key)
	}
	if required && s == "" {
		return "", fmt.Errorf("%s cannot be empty", key)
	}
	return s, nil
}

// line returns the 1-based anchor line. JSON numbers arrive as float64;
// fractional and non-positive values are rejected.
func (a toolArgs) line() (int, error) {
	f, ok := a["line"].(float64)
	if !ok || f < 1 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, errors.New("line must be a positive integer")
	}
	return int(f), nil
}

// flag returns a boolean argument, or def when it is absent or not a bool.
func (a toolArgs) flag(key string, def bool) bool {
	if b, ok := a[key].(bool); ok {
		return b
	}
	return def
}

// kinds returns the callable kinds to keep. Nil means every kind.
func (a toolArgs) kinds() ([]string, error) {
	val, ok := a["kinds"]
	if !ok {
		return nil, nil
	}
	arr, ok := val.([]interface{})
	if !ok {
		return nil, fmt.Errorf("kinds must be an array of strings")
	}

	kinds := make([]string, 0, len(arr))
	for _, item := range arr {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("kinds must be an array of strings")
		}
		if !slices.Contains(navigation.Kinds, navigation.Kind(s)) {
			return nil, fmt.Errorf("unknown kind %q", s)
		}
		kinds = append(kinds, s)
	}
	return kinds, nil
}
