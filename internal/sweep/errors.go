package sweep

import (
	"errors"
	"fmt"
)

// ErrConfiguration is the sentinel wrapped by every ConfigError.
var ErrConfiguration = errors.New("invalid sweep configuration")

// ConfigError describes an inconsistency in a sweep configuration.
type ConfigError struct {
	Key    string // Offending parameter name, empty if not key specific
	Group  int    // Group index, -1 for defaults or global problems
	Reason string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	switch {
	case e.Key == "" && e.Group < 0:
		return fmt.Sprintf("%v: %s", ErrConfiguration, e.Reason)
	case e.Group < 0:
		return fmt.Sprintf("%v: key %q: %s", ErrConfiguration, e.Key, e.Reason)
	default:
		return fmt.Sprintf("%v: group %d: key %q: %s", ErrConfiguration, e.Group, e.Key, e.Reason)
	}
}

// Unwrap allows errors.Is(err, ErrConfiguration).
func (e *ConfigError) Unwrap() error {
	return ErrConfiguration
}

func configErr(group int, key, format string, args ...any) *ConfigError {
	return &ConfigError{Key: key, Group: group, Reason: fmt.Sprintf(format, args...)}
}
