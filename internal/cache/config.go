package cache

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidSpec is returned for cache specifications that cannot be parsed
var ErrInvalidSpec = errors.New("invalid cache spec")

// Config bounds the cache. Zero values mean unbounded.
type Config struct {
	// MaximumSize is the number of accounts held before the least recently
	// used one is dropped
	MaximumSize int

	// ExpireAfterWrite drops an account this long after it was last put
	ExpireAfterWrite time.Duration
}

// ParseSpec reads a comma separated key=value specification, for example
// "maximumSize=500,expireAfterWrite=30m". Durations accept Go syntax plus a
// "d" suffix for days. An empty spec yields an unbounded cache.
func ParseSpec(spec string) (Config, error) {
	var cfg Config

	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return Config{}, fmt.Errorf("%w: %q is not key=value", ErrInvalidSpec, part)
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)

		switch key {
		case "maximumSize":
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 {
				return Config{}, fmt.Errorf("%w: maximumSize %q", ErrInvalidSpec, value)
			}
			cfg.MaximumSize = n
		case "expireAfterWrite":
			d, err := parseDuration(value)
			if err != nil || d < 0 {
				return Config{}, fmt.Errorf("%w: expireAfterWrite %q", ErrInvalidSpec, value)
			}
			cfg.ExpireAfterWrite = d
		default:
			return Config{}, fmt.Errorf("%w: unknown key %q", ErrInvalidSpec, key)
		}
	}

	return cfg, nil
}

func parseDuration(s string) (time.Duration, error) {
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, err
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}
