package config

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "queue.store_file")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError
	errors = append(errors, c.validateQueue()...)
	errors = append(errors, c.validateGenerate()...)
	errors = append(errors, c.validateLogging()...)
	return errors
}

func (c *Config) validateQueue() []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(c.Queue.WorkDir) == "" {
		errors = append(errors, ValidationError{
			Field:   "queue.work_dir",
			Value:   c.Queue.WorkDir,
			Message: "must not be empty",
		})
	}

	files := []struct {
		field string
		value string
	}{
		{"queue.store_file", c.Queue.StoreFile},
		{"queue.tracker_file", c.Queue.TrackerFile},
		{"queue.progress_file", c.Queue.ProgressFile},
		{"queue.translog_file", c.Queue.TransLogFile},
	}
	seen := make(map[string]string, len(files))
	for _, f := range files {
		if strings.TrimSpace(f.value) == "" {
			errors = append(errors, ValidationError{
				Field:   f.field,
				Value:   f.value,
				Message: "must not be empty",
			})
			continue
		}
		// Each file is locked independently, so two roles must not share one.
		key := filepath.Clean(f.value)
		if other, ok := seen[key]; ok {
			errors = append(errors, ValidationError{
				Field:   f.field,
				Value:   f.value,
				Message: fmt.Sprintf("must differ from %s", other),
			})
			continue
		}
		seen[key] = f.field
	}

	return errors
}

func (c *Config) validateGenerate() []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(c.Generate.SweepFile) == "" {
		errors = append(errors, ValidationError{
			Field:   "generate.sweep_file",
			Value:   c.Generate.SweepFile,
			Message: "must not be empty",
		})
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	if c.Logging.MaxSizeMB <= 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be positive",
		})
	}

	const maxLogSizeMB = 1000 // 1GB
	if c.Logging.MaxSizeMB > maxLogSizeMB {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: fmt.Sprintf("exceeds maximum of %dMB", maxLogSizeMB),
		})
	}

	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}
