// Config loading for the tally CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/tally/internal/config"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	envPrefix = "TALLY"

	// Config keys as they appear in config.yaml.
	cfgKeyInputFile  = "input_file"
	cfgKeyBackupFile = "backup_file"
	cfgKeyMarker     = "marker"
	cfgKeyLogLevel   = "log_level"
	cfgKeyLogFormat  = "log_format"
	cfgKeyArchive    = "archive"
	cfgKeyDataDir    = "data_dir"
)

// flagKeys maps config keys to the flags that override them.
var flagKeys = map[string]string{
	cfgKeyInputFile:  "input",
	cfgKeyBackupFile: "backup",
	cfgKeyMarker:     "marker",
	cfgKeyLogLevel:   "log-level",
	cfgKeyLogFormat:  "log-format",
	cfgKeyArchive:    "archive",
}

// loadConfig reads config.yaml from configDir using Viper and layers the
// TALLY_* environment and the command's flags over it. Precedence is
// flag > env > config.yaml > default. A missing config.yaml is not an error.
//
// data_dir is read from config.yaml only; its flag and env overrides are
// applied by paths.ResolveDataDir.
func loadConfig(cmd *cobra.Command, configDir string) (config.Config, error) {
	def := config.Default()

	v := viper.New()
	v.SetDefault(cfgKeyInputFile, def.InputFile)
	v.SetDefault(cfgKeyBackupFile, def.BackupFile)
	v.SetDefault(cfgKeyMarker, def.Marker)
	v.SetDefault(cfgKeyLogLevel, def.LogLevel)
	v.SetDefault(cfgKeyLogFormat, def.LogFormat)
	v.SetDefault(cfgKeyArchive, def.Archive)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	v.SetEnvPrefix(envPrefix)
	for key, name := range flagKeys {
		if err := v.BindEnv(key); err != nil {
			return config.Config{}, fmt.Errorf("bind env %s: %w", key, err)
		}
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return config.Config{}, fmt.Errorf("bind flag --%s: %w", name, err)
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return config.Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	return config.Config{
		InputFile:  v.GetString(cfgKeyInputFile),
		BackupFile: v.GetString(cfgKeyBackupFile),
		Marker:     v.GetString(cfgKeyMarker),
		LogLevel:   v.GetString(cfgKeyLogLevel),
		LogFormat:  v.GetString(cfgKeyLogFormat),
		Archive:    v.GetBool(cfgKeyArchive),
		DataDir:    v.GetString(cfgKeyDataDir),
	}, nil
}
