package config

import (
	"strings"
	"testing"
)

func TestValidationError_Error(t *testing.T) {
	err := ValidationError{
		Field:   "test.field",
		Value:   123,
		Message: "must be greater than zero",
	}

	expected := "test.field: must be greater than zero (got: 123)"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestValidationErrors_Error(t *testing.T) {
	t.Run("empty errors", func(t *testing.T) {
		var errs ValidationErrors
		if errs.Error() != "" {
			t.Errorf("Error() for empty = %q, want empty string", errs.Error())
		}
	})

	t.Run("single error", func(t *testing.T) {
		errs := ValidationErrors{
			{Field: "test.field", Value: 123, Message: "is invalid"},
		}
		expected := "test.field: is invalid (got: 123)"
		if errs.Error() != expected {
			t.Errorf("Error() = %q, want %q", errs.Error(), expected)
		}
	})

	t.Run("multiple errors", func(t *testing.T) {
		errs := ValidationErrors{
			{Field: "a", Value: 1, Message: "bad"},
			{Field: "b", Value: 2, Message: "worse"},
		}
		got := errs.Error()
		if !strings.HasPrefix(got, "2 validation errors:") {
			t.Errorf("Error() = %q", got)
		}
		if !strings.Contains(got, "1. a: bad") || !strings.Contains(got, "2. b: worse") {
			t.Errorf("Error() missing entries: %q", got)
		}
	})
}

func TestConfig_Validate_DefaultConfig(t *testing.T) {
	if errs := Default().Validate(); len(errs) != 0 {
		t.Errorf("Default config has validation errors: %v", errs)
	}
}

func hasField(errs []ValidationError, field string) bool {
	for _, e := range errs {
		if e.Field == field {
			return true
		}
	}
	return false
}

func TestConfig_Validate_Queue(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"empty work dir", func(c *Config) { c.Queue.WorkDir = " " }, "queue.work_dir"},
		{"empty store file", func(c *Config) { c.Queue.StoreFile = "" }, "queue.store_file"},
		{"empty tracker file", func(c *Config) { c.Queue.TrackerFile = "" }, "queue.tracker_file"},
		{"empty progress file", func(c *Config) { c.Queue.ProgressFile = "" }, "queue.progress_file"},
		{"empty translog file", func(c *Config) { c.Queue.TransLogFile = "" }, "queue.translog_file"},
		{"tracker shares store file", func(c *Config) { c.Queue.TrackerFile = "./tasks.dat" }, "queue.tracker_file"},
		{"translog shares progress file", func(c *Config) { c.Queue.TransLogFile = "progress.bin" }, "queue.translog_file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			if errs := cfg.Validate(); !hasField(errs, tt.field) {
				t.Errorf("Validate() = %v, want error on %s", errs, tt.field)
			}
		})
	}
}

func TestConfig_Validate_Generate(t *testing.T) {
	cfg := Default()
	cfg.Generate.SweepFile = ""
	if errs := cfg.Validate(); !hasField(errs, "generate.sweep_file") {
		t.Errorf("Validate() = %v, want error on generate.sweep_file", errs)
	}
}

func TestConfig_Validate_Logging(t *testing.T) {
	tests := []struct {
		name     string
		modify   func(*Config)
		field    string
		hasError bool
	}{
		{"valid debug level", func(c *Config) { c.Logging.Level = "debug" }, "logging.level", false},
		{"empty level", func(c *Config) { c.Logging.Level = "" }, "logging.level", false},
		{"unknown level", func(c *Config) { c.Logging.Level = "trace" }, "logging.level", true},
		{"uppercase level", func(c *Config) { c.Logging.Level = "INFO" }, "logging.level", true},
		{"zero size", func(c *Config) { c.Logging.MaxSizeMB = 0 }, "logging.max_size_mb", true},
		{"huge size", func(c *Config) { c.Logging.MaxSizeMB = 5000 }, "logging.max_size_mb", true},
		{"negative backups", func(c *Config) { c.Logging.MaxBackups = -1 }, "logging.max_backups", true},
		{"zero backups", func(c *Config) { c.Logging.MaxBackups = 0 }, "logging.max_backups", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			if got := hasField(cfg.Validate(), tt.field); got != tt.hasError {
				t.Errorf("hasError(%s) = %v, want %v", tt.field, got, tt.hasError)
			}
		})
	}
}
