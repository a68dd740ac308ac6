package config

import (
	"errors"
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Config holds everything a run needs. Values resolve in order: built-in
// defaults, config file, MEISAI_* environment variables, command-line
// flags.
type Config struct {
	DSN     string `mapstructure:"dsn"`
	Table   string `mapstructure:"table"`
	Service string `mapstructure:"service"`
	Dir     string `mapstructure:"dir"`
	Listen  string `mapstructure:"listen"`
}

// Build loads configuration. cfgFile may be empty, in which case
// config.yaml in the working directory is used when present. flags may be
// nil for callers without a flag set.
func Build(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	_ = gotenv.Load() // .env is optional

	v := viper.New()
	v.SetDefault("dsn", "root@tcp(localhost:3306)/meisai?parseTime=true")
	v.SetDefault("table", "credit_histories")
	v.SetDefault("service", "vpass")
	v.SetDefault("dir", "data")
	v.SetDefault("listen", "0.0.0.0:3000")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("meisai")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("error binding flags: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}
	return &cfg, nil
}
