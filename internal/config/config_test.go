package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Queue.WorkDir != ".sweepq" {
		t.Errorf("Queue.WorkDir = %q, want %q", cfg.Queue.WorkDir, ".sweepq")
	}
	if cfg.Queue.StoreFile != "tasks.dat" {
		t.Errorf("Queue.StoreFile = %q, want %q", cfg.Queue.StoreFile, "tasks.dat")
	}
	if cfg.Queue.TrackerFile != "tasks.don" {
		t.Errorf("Queue.TrackerFile = %q, want %q", cfg.Queue.TrackerFile, "tasks.don")
	}
	if cfg.Generate.SweepFile != "sweep.yaml" {
		t.Errorf("Generate.SweepFile = %q, want %q", cfg.Generate.SweepFile, "sweep.yaml")
	}
	if cfg.Generate.ShuffleSeed != 0x5eed {
		t.Errorf("Generate.ShuffleSeed = %#x, want 0x5eed", cfg.Generate.ShuffleSeed)
	}
	if !cfg.Generate.Warnings {
		t.Error("Generate.Warnings should default to true")
	}
	if !cfg.Logging.Enabled || cfg.Logging.Level != "info" {
		t.Errorf("Logging = %+v, want enabled at info", cfg.Logging)
	}
}

func TestQueueConfig_Paths(t *testing.T) {
	q := QueueConfig{
		WorkDir:      "/work",
		StoreFile:    "tasks.dat",
		TrackerFile:  "/elsewhere/tasks.don",
		ProgressFile: "progress.bin",
		TransLogFile: "logs/tasks.txt",
	}
	paths := q.Paths()

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"store", paths.Store, "/work/tasks.dat"},
		{"tracker absolute", paths.Tracker, "/elsewhere/tasks.don"},
		{"progress", paths.Progress, "/work/progress.bin"},
		{"translog nested", paths.TransLog, "/work/logs/tasks.txt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestConfigDir(t *testing.T) {
	t.Run("with XDG_CONFIG_HOME", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/custom/config")
		if got := ConfigDir(); got != "/custom/config/sweepq" {
			t.Errorf("ConfigDir() = %q, want %q", got, "/custom/config/sweepq")
		}
	})

	t.Run("without XDG_CONFIG_HOME", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")
		home, _ := os.UserHomeDir()
		want := filepath.Join(home, ".config", "sweepq")
		if got := ConfigDir(); got != want {
			t.Errorf("ConfigDir() = %q, want %q", got, want)
		}
	})
}

func TestConfigFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	if got := ConfigFile(); got != "/custom/config/sweepq/config.yaml" {
		t.Errorf("ConfigFile() = %q", got)
	}
}

func TestGet(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	SetDefaults()

	cfg := Get()
	if cfg == nil {
		t.Fatal("Get() returned nil")
	}
	if cfg.Queue.WorkDir != ".sweepq" {
		t.Errorf("Get().Queue.WorkDir = %q, want %q", cfg.Queue.WorkDir, ".sweepq")
	}
}

func TestLoad(t *testing.T) {
	t.Run("overrides from viper", func(t *testing.T) {
		viper.Reset()
		t.Cleanup(viper.Reset)
		SetDefaults()
		viper.Set("queue.work_dir", "/data/q")
		viper.Set("generate.shuffle_seed", 42)

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Queue.WorkDir != "/data/q" {
			t.Errorf("WorkDir = %q", cfg.Queue.WorkDir)
		}
		if cfg.Generate.ShuffleSeed != 42 {
			t.Errorf("ShuffleSeed = %d", cfg.Generate.ShuffleSeed)
		}
	})

	t.Run("invalid values fail validation", func(t *testing.T) {
		viper.Reset()
		t.Cleanup(viper.Reset)
		SetDefaults()
		viper.Set("logging.level", "chatty")

		_, err := Load()
		if err == nil {
			t.Fatal("expected validation error")
		}
		if _, ok := err.(ValidationErrors); !ok {
			t.Errorf("error type = %T, want ValidationErrors", err)
		}
	})

	t.Run("Get falls back to defaults", func(t *testing.T) {
		viper.Reset()
		t.Cleanup(viper.Reset)
		SetDefaults()
		viper.Set("logging.max_size_mb", -1)

		if got := Get().Logging.MaxSizeMB; got != 10 {
			t.Errorf("MaxSizeMB = %d, want default 10", got)
		}
	})
}
