package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	Scenario   string
	Journal    string
	MetricsOut string
	LogLevel   string
	LogFile    string
}

// Load merges defaults, MOJITO_* environment variables, the config file and
// flags into Config. Without cfgFile a ./mojito.yaml is read if present.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("MOJITO")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("log-level", "info")
	v.SetDefault("log-file", "")
	v.SetDefault("journal", "")
	v.SetDefault("metrics-out", "")
	v.SetDefault("scenario", "")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("mojito")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return Config{
		Scenario:   v.GetString("scenario"),
		Journal:    v.GetString("journal"),
		MetricsOut: v.GetString("metrics-out"),
		LogLevel:   v.GetString("log-level"),
		LogFile:    v.GetString("log-file"),
	}, nil
}
