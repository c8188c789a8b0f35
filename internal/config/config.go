// Package config loads and validates codeauditor's configuration: the judge
// binary's identity and search paths, process and queue concurrency limits,
// cache sizing, progress-reporting cadence, session persistence layout, and
// engine-level retry policy.
package config

import (
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration object, unmarshaled from YAML via viper
// with mapstructure tags matching the on-disk dotted-key layout.
type Config struct {
	Judge    JudgeConfig    `mapstructure:"judge"`
	Process  ProcessConfig  `mapstructure:"process"`
	Queue    QueueConfig    `mapstructure:"queue"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Progress ProgressConfig `mapstructure:"progress"`
	Session  SessionConfig  `mapstructure:"session"`
	Engine   EngineConfig   `mapstructure:"engine"`
}

// JudgeConfig controls how the judge binary is located and validated.
type JudgeConfig struct {
	Binary            string   `mapstructure:"binary"`
	SearchPaths       []string `mapstructure:"search_paths"`
	ExecutableGlobs   []string `mapstructure:"executable_globs"`
	MinVersion        string   `mapstructure:"min_version"`
	ValidationTimeout int      `mapstructure:"validation_timeout_seconds"`
	ConfigDirEnvVar   string   `mapstructure:"config_dir_env_var"`
}

// ProcessConfig bounds how many judge child processes may run concurrently
// and how they are torn down.
type ProcessConfig struct {
	MaxConcurrent            int `mapstructure:"max_concurrent"`
	QueueTimeoutSeconds      int `mapstructure:"queue_timeout_seconds"`
	InvocationTimeoutSeconds int `mapstructure:"invocation_timeout_seconds"`
	CleanupTimeoutSeconds    int `mapstructure:"cleanup_timeout_seconds"`
}

// QueueTimeout returns the configured enqueue wait timeout as a Duration.
func (c ProcessConfig) QueueTimeout() time.Duration {
	return time.Duration(c.QueueTimeoutSeconds) * time.Second
}

// InvocationTimeout returns the configured hard invocation timeout.
func (c ProcessConfig) InvocationTimeout() time.Duration {
	return time.Duration(c.InvocationTimeoutSeconds) * time.Second
}

// CleanupTimeout returns the grace period between SIGTERM and SIGKILL.
func (c ProcessConfig) CleanupTimeout() time.Duration {
	return time.Duration(c.CleanupTimeoutSeconds) * time.Second
}

// QueueConfig controls the priority-ordered audit queue (C8).
type QueueConfig struct {
	Capacity          int `mapstructure:"capacity"`
	MaxConcurrent     int `mapstructure:"max_concurrent"`
	MaxRetries        int `mapstructure:"max_retries"`
	TickIntervalMs    int `mapstructure:"tick_interval_ms"`
	JobTimeoutSeconds int `mapstructure:"job_timeout_seconds"`
}

// TickInterval returns the scheduler's poll interval as a Duration.
func (c QueueConfig) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMs) * time.Millisecond
}

// JobTimeout returns the per-job hard timeout as a Duration.
func (c QueueConfig) JobTimeout() time.Duration {
	return time.Duration(c.JobTimeoutSeconds) * time.Second
}

// CacheConfig controls the audit fingerprint cache (C6).
type CacheConfig struct {
	Capacity   int `mapstructure:"capacity"`
	TTLMinutes int `mapstructure:"ttl_minutes"`
}

// TTL returns the cache entry lifetime as a Duration.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

// ProgressConfig controls when and how often progress updates are emitted
// for long-running audits (C7).
type ProgressConfig struct {
	ThresholdSeconds float64 `mapstructure:"threshold_seconds"`
	TickIntervalMs   int     `mapstructure:"tick_interval_ms"`
}

// Threshold returns the activation delay before progress tracking starts.
func (c ProgressConfig) Threshold() time.Duration {
	return time.Duration(c.ThresholdSeconds * float64(time.Second))
}

// TickInterval returns the periodic emitter's cadence.
func (c ProgressConfig) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMs) * time.Millisecond
}

// SessionConfig controls where and how long audit session state persists
// (C10).
type SessionConfig struct {
	StateDir           string `mapstructure:"state_dir"`
	MaxSessionAgeHours int    `mapstructure:"max_session_age_hours"`
	SweepIntervalHours int    `mapstructure:"sweep_interval_hours"`
	Compact            bool   `mapstructure:"compact"`
}

// MaxSessionAge returns the retention window as a Duration.
func (c SessionConfig) MaxSessionAge() time.Duration {
	return time.Duration(c.MaxSessionAgeHours) * time.Hour
}

// SweepInterval returns the cleanup sweep cadence as a Duration.
func (c SessionConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalHours) * time.Hour
}

// EngineConfig controls audit-level scheduling and retry policy (C9).
type EngineConfig struct {
	TimeoutSeconds  int `mapstructure:"timeout_seconds"`
	MaxRetries      int `mapstructure:"max_retries"`
	DefaultPriority int `mapstructure:"default_priority"`
}

// Timeout returns the per-audit engine-level deadline as a Duration.
func (c EngineConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Default returns a Config populated with every default value, matching
// what SetDefaults registers with viper.
func Default() *Config {
	return &Config{
		Judge: JudgeConfig{
			Binary:            "codex",
			SearchPaths:       []string{},
			ExecutableGlobs:   []string{"codex-*"},
			MinVersion:        "0.29.0",
			ValidationTimeout: 5,
			ConfigDirEnvVar:   "CODEX_CONFIG_DIR",
		},
		Process: ProcessConfig{
			MaxConcurrent:            3,
			QueueTimeoutSeconds:      300,
			InvocationTimeoutSeconds: 5,
			CleanupTimeoutSeconds:    5,
		},
		Queue: QueueConfig{
			Capacity:          50,
			MaxConcurrent:     3,
			MaxRetries:        2,
			TickIntervalMs:    100,
			JobTimeoutSeconds: 30,
		},
		Cache: CacheConfig{
			Capacity:   500,
			TTLMinutes: 60,
		},
		Progress: ProgressConfig{
			ThresholdSeconds: 5,
			TickIntervalMs:   1000,
		},
		Session: SessionConfig{
			StateDir:           ".codeauditor-state",
			MaxSessionAgeHours: 24,
			SweepIntervalHours: 1,
			Compact:            false,
		},
		Engine: EngineConfig{
			TimeoutSeconds:  30,
			MaxRetries:      2,
			DefaultPriority: 0,
		},
	}
}

// SetDefaults registers every configuration field's default with viper so
// values are available even when no config file exists.
func SetDefaults() {
	d := Default()

	viper.SetDefault("judge.binary", d.Judge.Binary)
	viper.SetDefault("judge.search_paths", d.Judge.SearchPaths)
	viper.SetDefault("judge.executable_globs", d.Judge.ExecutableGlobs)
	viper.SetDefault("judge.min_version", d.Judge.MinVersion)
	viper.SetDefault("judge.validation_timeout_seconds", d.Judge.ValidationTimeout)
	viper.SetDefault("judge.config_dir_env_var", d.Judge.ConfigDirEnvVar)

	viper.SetDefault("process.max_concurrent", d.Process.MaxConcurrent)
	viper.SetDefault("process.queue_timeout_seconds", d.Process.QueueTimeoutSeconds)
	viper.SetDefault("process.invocation_timeout_seconds", d.Process.InvocationTimeoutSeconds)
	viper.SetDefault("process.cleanup_timeout_seconds", d.Process.CleanupTimeoutSeconds)

	viper.SetDefault("queue.capacity", d.Queue.Capacity)
	viper.SetDefault("queue.max_concurrent", d.Queue.MaxConcurrent)
	viper.SetDefault("queue.max_retries", d.Queue.MaxRetries)
	viper.SetDefault("queue.tick_interval_ms", d.Queue.TickIntervalMs)
	viper.SetDefault("queue.job_timeout_seconds", d.Queue.JobTimeoutSeconds)

	viper.SetDefault("cache.capacity", d.Cache.Capacity)
	viper.SetDefault("cache.ttl_minutes", d.Cache.TTLMinutes)

	viper.SetDefault("progress.threshold_seconds", d.Progress.ThresholdSeconds)
	viper.SetDefault("progress.tick_interval_ms", d.Progress.TickIntervalMs)

	viper.SetDefault("session.state_dir", d.Session.StateDir)
	viper.SetDefault("session.max_session_age_hours", d.Session.MaxSessionAgeHours)
	viper.SetDefault("session.sweep_interval_hours", d.Session.SweepIntervalHours)
	viper.SetDefault("session.compact", d.Session.Compact)

	viper.SetDefault("engine.timeout_seconds", d.Engine.TimeoutSeconds)
	viper.SetDefault("engine.max_retries", d.Engine.MaxRetries)
	viper.SetDefault("engine.default_priority", d.Engine.DefaultPriority)
}

// Load unmarshals the currently bound viper instance into a Config.
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Get loads the current configuration, falling back to Default() if
// unmarshaling fails rather than leaving callers with a zero-value Config.
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// ConfigDir returns the directory codeauditor's config file lives in,
// honoring $XDG_CONFIG_HOME before falling back to ~/.config/codeauditor.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "codeauditor")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".codeauditor"
	}
	return filepath.Join(home, ".config", "codeauditor")
}

// ConfigFile returns the full path to codeauditor's config file.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// ValidJudgeBinaries lists judge executables known to this build. The
// configured binary is not restricted to this list; it exists to populate
// shell completion and help text.
func ValidJudgeBinaries() []string {
	return []string{"codex"}
}

// IsValidJudgeBinary reports whether binary is a recognized judge name.
func IsValidJudgeBinary(binary string) bool {
	return slices.Contains(ValidJudgeBinaries(), binary)
}
