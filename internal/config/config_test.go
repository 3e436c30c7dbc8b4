package config

import (
	"errors"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	withDefaults := func(mod func(*Config)) Config {
		c := Default()
		mod(&c)
		return c
	}

	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{
			name:    "defaults are valid",
			config:  Default(),
			wantErr: nil,
		},
		{
			name:    "empty input file returns ErrInputFileEmpty",
			config:  withDefaults(func(c *Config) { c.InputFile = "" }),
			wantErr: ErrInputFileEmpty,
		},
		{
			name:    "empty backup file returns ErrBackupFileEmpty",
			config:  withDefaults(func(c *Config) { c.BackupFile = "" }),
			wantErr: ErrBackupFileEmpty,
		},
		{
			name:    "empty marker returns ErrMarkerEmpty",
			config:  withDefaults(func(c *Config) { c.Marker = "" }),
			wantErr: ErrMarkerEmpty,
		},
		{
			name:    "unknown log level returns ErrLogLevelUnknown",
			config:  withDefaults(func(c *Config) { c.LogLevel = "verbose" }),
			wantErr: ErrLogLevelUnknown,
		},
		{
			name:    "unknown log format returns ErrLogFormatUnknown",
			config:  withDefaults(func(c *Config) { c.LogFormat = "xml" }),
			wantErr: ErrLogFormatUnknown,
		},
		{
			name:    "archive with empty data dir is valid at config level",
			config:  withDefaults(func(c *Config) { c.Archive = true }),
			wantErr: nil,
		},
		{
			name:    "multi-character marker is valid",
			config:  withDefaults(func(c *Config) { c.Marker = "[]" }),
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected nil error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error %v, got nil", tt.wantErr)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}
