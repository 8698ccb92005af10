package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/aretw0/emlapp/pkg/adapters/fs"
)

// ConfigFileName is the base name of the optional config file.
const ConfigFileName = "emlapp"

// conf holds the merged settings for the running command. Keys are flag
// names. Precedence: flags, EMLAPP_* environment, config file, defaults.
var conf = viper.New()

// loadConfig reads the config file and binds the flags of cmd.
func loadConfig(cmd *cobra.Command, path string) error {
	v := viper.New()
	v.SetDefault("system-dir", fs.DefaultSystemDir)
	v.SetDefault("docker", "docker")

	v.SetEnvPrefix("EMLAPP")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName(ConfigFileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "emlapp"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Name == "config" || f.Name == "help" {
			return
		}
		if err := v.BindPFlag(f.Name, f); err != nil && bindErr == nil {
			bindErr = err
		}
	})
	if bindErr != nil {
		return bindErr
	}

	if used := v.ConfigFileUsed(); used != "" {
		logger.Debug("loaded config", "file", used)
	}
	conf = v
	return nil
}
