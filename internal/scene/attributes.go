// Attribute string grammar shared by every descriptor decoder
package scene

import (
	"log/slog"
	"strconv"
	"strings"
)

// Attributes holds the key=value pairs of a single descriptor string.
type Attributes map[string]string

// ParseAttributes splits a comma separated "key=value" descriptor into a map.
// Example: "lat=39.65,lng=-105.02,alt=550.2".
// Segments without '=' are logged and skipped; values are split on the first '='.
func ParseAttributes(s string) Attributes {
	trimmed := strings.TrimRight(strings.TrimSpace(s), ";,")
	attrs := Attributes{}
	if strings.TrimSpace(trimmed) == "" {
		return attrs
	}
	for _, part := range strings.Split(trimmed, ",") {
		part = strings.TrimSpace(part)
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			if part != "" {
				slog.Warn("ignoring attribute without '='", "segment", part)
			}
			continue
		}
		attrs[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return attrs
}

// Has reports whether key is present.
func (a Attributes) Has(key string) bool {
	_, ok := a[key]
	return ok
}

// Float64 returns the value of key as a float, or def when missing or malformed.
func (a Attributes) Float64(key string, def float64) float64 {
	v, ok := a[key]
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		slog.Warn("malformed number, using default", "key", key, "value", v, "default", def)
		return def
	}
	return f
}

// Int64 returns the value of key as an int64, or def when missing or malformed.
func (a Attributes) Int64(key string, def int64) int64 {
	v, ok := a[key]
	if !ok {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		slog.Warn("malformed integer, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

// Int returns the value of key as an int, or def when missing or malformed.
func (a Attributes) Int(key string, def int) int {
	return int(a.Int64(key, int64(def)))
}

// String returns the raw value of key, or def when missing.
func (a Attributes) String(key, def string) string {
	if v, ok := a[key]; ok {
		return v
	}
	return def
}
