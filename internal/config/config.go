// Package config defines the settings of the tally command and their
// validation rules.
package config

import (
	"errors"
	"fmt"
)

// Config holds file locations and presentation settings for a tally run.
type Config struct {
	InputFile  string `json:"input_file" yaml:"input_file" mapstructure:"input_file"`
	BackupFile string `json:"backup_file" yaml:"backup_file" mapstructure:"backup_file"`
	Marker     string `json:"marker" yaml:"marker" mapstructure:"marker"`
	LogLevel   string `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
	LogFormat  string `json:"log_format" yaml:"log_format" mapstructure:"log_format"`
	Archive    bool   `json:"archive" yaml:"archive" mapstructure:"archive"`
	DataDir    string `json:"data_dir" yaml:"data_dir,omitempty" mapstructure:"data_dir"`
}

// Defaults.
const (
	DefaultInputFile  = "input.txt"
	DefaultBackupFile = "frequency.dat"
	DefaultMarker     = "*"
	DefaultLogLevel   = "warn"
	DefaultLogFormat  = "text"
)

// Config validation errors.
var (
	ErrInputFileEmpty   = errors.New("input file must not be empty")
	ErrBackupFileEmpty  = errors.New("backup file must not be empty")
	ErrMarkerEmpty      = errors.New("histogram marker must not be empty")
	ErrLogLevelUnknown  = errors.New("unknown log level")
	ErrLogFormatUnknown = errors.New("unknown log format")
)

var knownLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var knownLogFormats = map[string]bool{
	"text": true,
	"json": true,
}

// Default returns a Config populated with the default values.
func Default() Config {
	return Config{
		InputFile:  DefaultInputFile,
		BackupFile: DefaultBackupFile,
		Marker:     DefaultMarker,
		LogLevel:   DefaultLogLevel,
		LogFormat:  DefaultLogFormat,
	}
}

// Validate checks that the Config is usable. It returns one of the sentinel
// errors of this package on failure.
func (c Config) Validate() error {
	if c.InputFile == "" {
		return ErrInputFileEmpty
	}
	if c.BackupFile == "" {
		return ErrBackupFileEmpty
	}
	if c.Marker == "" {
		return ErrMarkerEmpty
	}
	if !knownLogLevels[c.LogLevel] {
		return fmt.Errorf("%w %q (want debug, info, warn or error)", ErrLogLevelUnknown, c.LogLevel)
	}
	if !knownLogFormats[c.LogFormat] {
		return fmt.Errorf("%w %q (want text or json)", ErrLogFormatUnknown, c.LogFormat)
	}
	return nil
}
