// Command colexpr evaluates filter and projection expressions over Arrow and
// Parquet files, inspects inputs and serves the Flight exchange service.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hugr-lab/colexpr"
	"github.com/hugr-lab/colexpr/plan"
)

// settings is the merged configuration of flags, COLEXPR_* environment
// variables and the optional colexpr.yaml file.
type settings struct {
	LogLevel      string `mapstructure:"log-level"`
	CacheCapacity int    `mapstructure:"cache-capacity"`
	Concurrency   int    `mapstructure:"concurrency"`
	Width         string `mapstructure:"width"`
	Codec         string `mapstructure:"codec"`
	Addr          string `mapstructure:"addr"`
	Token         string `mapstructure:"token"`
	MaxMessage    int    `mapstructure:"max-message-size"`
}

var configFile string

var rootCmd = &cobra.Command{
	Use:           "colexpr",
	Short:         "Compiled filter and projection over Arrow batches",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file (default ./colexpr.yaml)")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.Int("cache-capacity", 64, "number of compiled plans kept for reuse, 0 disables the cache")
	flags.Int("concurrency", 0, "batches evaluated at once, 0 uses GOMAXPROCS")
	flags.String("width", "int32", "selection vector width: int16, int32, uint32")
	flags.String("codec", "none", "output compression: none, zstd, lz4")

	rootCmd.AddCommand(newEvalCmd(), newInspectCmd(), newServeCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadSettings merges the flags of cmd with the environment and config file.
// Flags set on the command line win over the environment, which wins over the file.
func loadSettings(cmd *cobra.Command) (settings, error) {
	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("colexpr")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return settings{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	v.SetEnvPrefix("COLEXPR")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return settings{}, err
	}

	var s settings
	if err := v.Unmarshal(&s); err != nil {
		return settings{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return s, nil
}

func newLogger(level string) (*slog.Logger, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})), nil
}

// newEngine builds an engine from s.
func newEngine(s settings) (*colexpr.Engine, error) {
	logger, err := newLogger(s.LogLevel)
	if err != nil {
		return nil, err
	}
	width, err := plan.ParseWidth(s.Width)
	if err != nil {
		return nil, err
	}
	return colexpr.NewEngine(colexpr.Config{
		Logger:         logger,
		CacheCapacity:  s.CacheCapacity,
		SelectionWidth: width,
		Concurrency:    s.Concurrency,
	})
}
