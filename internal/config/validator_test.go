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
			{Field: "field1", Value: "bad", Message: "is invalid"},
			{Field: "field2", Value: -1, Message: "must be positive"},
		}
		result := errs.Error()
		if !strings.Contains(result, "2 validation errors") {
			t.Errorf("Error() should mention 2 errors: %s", result)
		}
		if !strings.Contains(result, "field1") || !strings.Contains(result, "field2") {
			t.Errorf("Error() should mention both fields: %s", result)
		}
	})
}

func TestConfig_Validate_DefaultConfig(t *testing.T) {
	cfg := Default()
	errs := cfg.Validate()
	if len(errs) != 0 {
		t.Errorf("Default config should be valid, got %d errors: %v", len(errs), errs)
	}
}

func TestConfig_Validate_Judge(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		hasError bool
	}{
		{"valid binary", func(c *Config) {}, false},
		{"empty binary", func(c *Config) { c.Judge.Binary = "" }, true},
		{"zero validation timeout", func(c *Config) { c.Judge.ValidationTimeout = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			errs := cfg.validateJudge()
			if (len(errs) > 0) != tt.hasError {
				t.Errorf("validateJudge() errors = %v, hasError = %v", errs, tt.hasError)
			}
		})
	}
}

func TestConfig_Validate_Process(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		hasError bool
	}{
		{"valid", func(c *Config) {}, false},
		{"zero max concurrent", func(c *Config) { c.Process.MaxConcurrent = 0 }, true},
		{"max concurrent too high", func(c *Config) { c.Process.MaxConcurrent = 1000 }, true},
		{"negative queue timeout", func(c *Config) { c.Process.QueueTimeoutSeconds = -1 }, true},
		{"zero cleanup timeout", func(c *Config) { c.Process.CleanupTimeoutSeconds = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			errs := cfg.validateProcess()
			if (len(errs) > 0) != tt.hasError {
				t.Errorf("validateProcess() errors = %v, hasError = %v", errs, tt.hasError)
			}
		})
	}
}

func TestConfig_Validate_Queue(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		hasError bool
	}{
		{"valid", func(c *Config) {}, false},
		{"zero capacity", func(c *Config) { c.Queue.Capacity = 0 }, true},
		{"negative retries", func(c *Config) { c.Queue.MaxRetries = -1 }, true},
		{"zero tick interval", func(c *Config) { c.Queue.TickIntervalMs = 0 }, true},
		{"zero job timeout", func(c *Config) { c.Queue.JobTimeoutSeconds = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			errs := cfg.validateQueue()
			if (len(errs) > 0) != tt.hasError {
				t.Errorf("validateQueue() errors = %v, hasError = %v", errs, tt.hasError)
			}
		})
	}
}

func TestConfig_Validate_Cache(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		hasError bool
	}{
		{"valid", func(c *Config) {}, false},
		{"zero capacity allowed", func(c *Config) { c.Cache.Capacity = 0 }, false},
		{"negative capacity", func(c *Config) { c.Cache.Capacity = -1 }, true},
		{"negative ttl", func(c *Config) { c.Cache.TTLMinutes = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			errs := cfg.validateCache()
			if (len(errs) > 0) != tt.hasError {
				t.Errorf("validateCache() errors = %v, hasError = %v", errs, tt.hasError)
			}
		})
	}
}

func TestConfig_Validate_Progress(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		hasError bool
	}{
		{"valid", func(c *Config) {}, false},
		{"negative threshold", func(c *Config) { c.Progress.ThresholdSeconds = -1 }, true},
		{"zero tick interval", func(c *Config) { c.Progress.TickIntervalMs = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			errs := cfg.validateProgress()
			if (len(errs) > 0) != tt.hasError {
				t.Errorf("validateProgress() errors = %v, hasError = %v", errs, tt.hasError)
			}
		})
	}
}

func TestConfig_Validate_Session(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		hasError bool
	}{
		{"valid", func(c *Config) {}, false},
		{"empty state dir", func(c *Config) { c.Session.StateDir = "" }, true},
		{"zero max age allowed", func(c *Config) { c.Session.MaxSessionAgeHours = 0 }, false},
		{"negative max age", func(c *Config) { c.Session.MaxSessionAgeHours = -1 }, true},
		{"zero sweep interval", func(c *Config) { c.Session.SweepIntervalHours = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			errs := cfg.validateSession()
			if (len(errs) > 0) != tt.hasError {
				t.Errorf("validateSession() errors = %v, hasError = %v", errs, tt.hasError)
			}
		})
	}
}

func TestConfig_Validate_Engine(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		hasError bool
	}{
		{"valid", func(c *Config) {}, false},
		{"zero timeout", func(c *Config) { c.Engine.TimeoutSeconds = 0 }, true},
		{"negative retries", func(c *Config) { c.Engine.MaxRetries = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			errs := cfg.validateEngine()
			if (len(errs) > 0) != tt.hasError {
				t.Errorf("validateEngine() errors = %v, hasError = %v", errs, tt.hasError)
			}
		})
	}
}
