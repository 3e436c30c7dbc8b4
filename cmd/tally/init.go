package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/tally/internal/config"
	"github.com/mesh-intelligence/tally/internal/paths"
)

const configHeader = "# tally configuration\n# Flags and TALLY_* environment variables override these values.\n\n"

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default config.yaml",
		Long: `Create the configuration directory and write config.yaml with default
values. An existing config.yaml is left untouched.`,
		Args: cobra.NoArgs,
		RunE: a.runInit,
	}
}

func (a *app) runInit(cmd *cobra.Command, args []string) error {
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return &exitError{code: exitSysError, err: fmt.Errorf("resolve config dir: %w", err)}
	}

	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return &exitError{code: exitSysError, err: fmt.Errorf("create config directory: %w", err)}
	}

	path := filepath.Join(configDir, configFileExt)
	written, err := writeConfigIfMissing(path, config.Default())
	if err != nil {
		return &exitError{code: exitSysError, err: fmt.Errorf("write config: %w", err)}
	}

	if written {
		fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", path)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Configuration already exists at %s\n", path)
	}
	return nil
}

// writeConfigIfMissing creates path with cfg encoded as YAML if the file does
// not exist. It reports whether it wrote the file.
func writeConfigIfMissing(path string, cfg config.Config) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat config file: %w", err)
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, append([]byte(configHeader), data...), 0o644); err != nil {
		return false, err
	}
	return true, nil
}
