package execctx

import (
	"fmt"
	"strconv"
)

// Args holds named command arguments.
type Args map[string]any

// Has reports whether key is set.
func (a Args) Has(key string) bool {
	_, ok := a[key]
	return ok
}

// String returns the string value of key, or "" when absent.
func (a Args) String(key string) string {
	switch v := a[key].(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// Int returns the integer value of key. Numeric strings are parsed.
func (a Args) Int(key string) int {
	switch n := a[key].(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case string:
		i, _ := strconv.Atoi(n)
		return i
	}
	return 0
}

// Bool returns the boolean value of key. "true" and "1" count as true.
func (a Args) Bool(key string) bool {
	switch b := a[key].(type) {
	case bool:
		return b
	case string:
		v, _ := strconv.ParseBool(b)
		return v
	}
	return false
}

// Require returns the string value of key, or ErrMissingArg.
func (a Args) Require(key string) (string, error) {
	if !a.Has(key) {
		return "", fmt.Errorf("%w: %s", ErrMissingArg, key)
	}
	return a.String(key), nil
}

// Clone returns a shallow copy.
func (a Args) Clone() Args {
	if a == nil {
		return nil
	}
	out := make(Args, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}
