package config

import (
	"strings"
	"testing"

	"httpredirect/internal/errors"
)

// TestValidate_ErrorMessages verifies that Validate returns actionable
// error messages with hints.
func TestValidate_ErrorMessages(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantSub string // substring expected in error
	}{
		{
			name:    "missing destination has hint",
			mutate:  func(c *Config) { c.Destination = "" },
			wantSub: "hint:",
		},
		{
			name:    "scheme has hint",
			mutate:  func(c *Config) { c.Destination = "https://x" },
			wantSub: "hint: responses always use http://",
		},
		{
			name:    "port value shown",
			mutate:  func(c *Config) { c.Port = 99999 },
			wantSub: "--port=99999",
		},
		{
			name:    "zero cache",
			mutate:  func(c *Config) { c.CacheCapacity = 0 },
			wantSub: "cache capacity cannot be zero",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(&c)
			err := c.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q should contain %q", err.Error(), tt.wantSub)
			}
		})
	}
}

// TestValidate_ConfigErrorType verifies callers can inspect the field.
func TestValidate_ConfigErrorType(t *testing.T) {
	c := validConfig()
	c.MaxConns = -1
	var ce *errors.ConfigError
	if !errors.As(c.Validate(), &ce) {
		t.Fatal("expected *errors.ConfigError")
	}
	if ce.Field != "max-conns" {
		t.Errorf("Field = %q, want max-conns", ce.Field)
	}
}
