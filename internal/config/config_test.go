package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg == nil {
		t.Fatal("Default() returned nil")
	}

	if cfg.Judge.Binary != "codex" {
		t.Errorf("Judge.Binary = %q, want %q", cfg.Judge.Binary, "codex")
	}
	if cfg.Judge.MinVersion != "0.29.0" {
		t.Errorf("Judge.MinVersion = %q, want %q", cfg.Judge.MinVersion, "0.29.0")
	}
	if cfg.Judge.ValidationTimeout != 5 {
		t.Errorf("Judge.ValidationTimeout = %d, want 5", cfg.Judge.ValidationTimeout)
	}

	if cfg.Process.MaxConcurrent != 3 {
		t.Errorf("Process.MaxConcurrent = %d, want 3", cfg.Process.MaxConcurrent)
	}
	if cfg.Process.QueueTimeoutSeconds != 300 {
		t.Errorf("Process.QueueTimeoutSeconds = %d, want 300", cfg.Process.QueueTimeoutSeconds)
	}
	if cfg.Process.CleanupTimeoutSeconds != 5 {
		t.Errorf("Process.CleanupTimeoutSeconds = %d, want 5", cfg.Process.CleanupTimeoutSeconds)
	}

	if cfg.Queue.Capacity != 50 {
		t.Errorf("Queue.Capacity = %d, want 50", cfg.Queue.Capacity)
	}
	if cfg.Queue.MaxConcurrent != 3 {
		t.Errorf("Queue.MaxConcurrent = %d, want 3", cfg.Queue.MaxConcurrent)
	}
	if cfg.Queue.MaxRetries != 2 {
		t.Errorf("Queue.MaxRetries = %d, want 2", cfg.Queue.MaxRetries)
	}
	if cfg.Queue.TickIntervalMs != 100 {
		t.Errorf("Queue.TickIntervalMs = %d, want 100", cfg.Queue.TickIntervalMs)
	}

	if cfg.Cache.Capacity != 500 {
		t.Errorf("Cache.Capacity = %d, want 500", cfg.Cache.Capacity)
	}
	if cfg.Cache.TTLMinutes != 60 {
		t.Errorf("Cache.TTLMinutes = %d, want 60", cfg.Cache.TTLMinutes)
	}

	if cfg.Progress.ThresholdSeconds != 5 {
		t.Errorf("Progress.ThresholdSeconds = %v, want 5", cfg.Progress.ThresholdSeconds)
	}
	if cfg.Progress.TickIntervalMs != 1000 {
		t.Errorf("Progress.TickIntervalMs = %d, want 1000", cfg.Progress.TickIntervalMs)
	}

	if cfg.Session.MaxSessionAgeHours != 24 {
		t.Errorf("Session.MaxSessionAgeHours = %d, want 24", cfg.Session.MaxSessionAgeHours)
	}
	if cfg.Session.SweepIntervalHours != 1 {
		t.Errorf("Session.SweepIntervalHours = %d, want 1", cfg.Session.SweepIntervalHours)
	}

	if cfg.Engine.TimeoutSeconds != 30 {
		t.Errorf("Engine.TimeoutSeconds = %d, want 30", cfg.Engine.TimeoutSeconds)
	}
	if cfg.Engine.MaxRetries != 2 {
		t.Errorf("Engine.MaxRetries = %d, want 2", cfg.Engine.MaxRetries)
	}
}

func TestProcessConfig_Durations(t *testing.T) {
	cfg := Default()

	if got := cfg.Process.QueueTimeout(); got != 300*time.Second {
		t.Errorf("QueueTimeout() = %v, want 300s", got)
	}
	if got := cfg.Process.InvocationTimeout(); got != 5*time.Second {
		t.Errorf("InvocationTimeout() = %v, want 5s", got)
	}
	if got := cfg.Process.CleanupTimeout(); got != 5*time.Second {
		t.Errorf("CleanupTimeout() = %v, want 5s", got)
	}
}

func TestQueueConfig_Durations(t *testing.T) {
	cfg := Default()

	if got := cfg.Queue.TickInterval(); got != 100*time.Millisecond {
		t.Errorf("TickInterval() = %v, want 100ms", got)
	}
	if got := cfg.Queue.JobTimeout(); got != 30*time.Second {
		t.Errorf("JobTimeout() = %v, want 30s", got)
	}
}

func TestCacheConfig_TTL(t *testing.T) {
	cfg := Default()
	if got := cfg.Cache.TTL(); got != time.Hour {
		t.Errorf("TTL() = %v, want 1h", got)
	}
}

func TestProgressConfig_Durations(t *testing.T) {
	cfg := Default()
	if got := cfg.Progress.Threshold(); got != 5*time.Second {
		t.Errorf("Threshold() = %v, want 5s", got)
	}
	if got := cfg.Progress.TickInterval(); got != time.Second {
		t.Errorf("TickInterval() = %v, want 1s", got)
	}
}

func TestSessionConfig_Durations(t *testing.T) {
	cfg := Default()
	if got := cfg.Session.MaxSessionAge(); got != 24*time.Hour {
		t.Errorf("MaxSessionAge() = %v, want 24h", got)
	}
	if got := cfg.Session.SweepInterval(); got != time.Hour {
		t.Errorf("SweepInterval() = %v, want 1h", got)
	}
}

func TestEngineConfig_Timeout(t *testing.T) {
	cfg := Default()
	if got := cfg.Engine.Timeout(); got != 30*time.Second {
		t.Errorf("Timeout() = %v, want 30s", got)
	}
}

func TestValidJudgeBinaries(t *testing.T) {
	if !IsValidJudgeBinary("codex") {
		t.Error("IsValidJudgeBinary(\"codex\") = false, want true")
	}
	if IsValidJudgeBinary("not-a-judge") {
		t.Error("IsValidJudgeBinary(\"not-a-judge\") = true, want false")
	}
}

func TestConfigDir(t *testing.T) {
	t.Run("with XDG_CONFIG_HOME", func(t *testing.T) {
		original := os.Getenv("XDG_CONFIG_HOME")
		defer func() { _ = os.Setenv("XDG_CONFIG_HOME", original) }()

		_ = os.Setenv("XDG_CONFIG_HOME", "/custom/config")
		result := ConfigDir()
		expected := "/custom/config/codeauditor"
		if result != expected {
			t.Errorf("ConfigDir() = %q, want %q", result, expected)
		}
	})

	t.Run("without XDG_CONFIG_HOME", func(t *testing.T) {
		original := os.Getenv("XDG_CONFIG_HOME")
		defer func() { _ = os.Setenv("XDG_CONFIG_HOME", original) }()

		_ = os.Setenv("XDG_CONFIG_HOME", "")
		result := ConfigDir()

		home, _ := os.UserHomeDir()
		expected := filepath.Join(home, ".config", "codeauditor")
		if result != expected {
			t.Errorf("ConfigDir() = %q, want %q", result, expected)
		}
	})
}

func TestConfigFile(t *testing.T) {
	original := os.Getenv("XDG_CONFIG_HOME")
	defer func() { _ = os.Setenv("XDG_CONFIG_HOME", original) }()

	_ = os.Setenv("XDG_CONFIG_HOME", "/custom/config")
	result := ConfigFile()
	expected := "/custom/config/codeauditor/config.yaml"
	if result != expected {
		t.Errorf("ConfigFile() = %q, want %q", result, expected)
	}
}

func TestGet(t *testing.T) {
	SetDefaults()

	cfg := Get()
	if cfg == nil {
		t.Fatal("Get() returned nil")
	}

	if cfg.Judge.Binary != "codex" {
		t.Errorf("Get().Judge.Binary = %q, want %q", cfg.Judge.Binary, "codex")
	}
	if cfg.Queue.Capacity != 50 {
		t.Errorf("Get().Queue.Capacity = %d, want 50", cfg.Queue.Capacity)
	}
}

func TestLoad_OverridesDefault(t *testing.T) {
	viper.Reset()
	SetDefaults()
	viper.Set("process.max_concurrent", 8)
	viper.Set("queue.capacity", 200)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Process.MaxConcurrent != 8 {
		t.Errorf("Process.MaxConcurrent = %d, want 8", cfg.Process.MaxConcurrent)
	}
	if cfg.Queue.Capacity != 200 {
		t.Errorf("Queue.Capacity = %d, want 200", cfg.Queue.Capacity)
	}

	viper.Reset()
}
