package cmd

import (
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/restomenu/menucache"
)

var rootCmd = &cobra.Command{
	Use:   "menucache",
	Short: "Bounded on-disk cache for menu imagery",
	Long:  "CLI for preloading, inspecting and maintaining the local menu image cache.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ~/.config/menucache/config.yaml)")
	rootCmd.PersistentFlags().String("cache-dir", "", "cache directory (default: ~/.cache/menucache)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (trace|debug|info|warn|error)")
	rootCmd.PersistentFlags().Int64("size-limit", menucache.DefaultSizeLimit, "disk usage ceiling in bytes")
	rootCmd.PersistentFlags().Int("concurrency", menucache.DefaultConcurrency, "parallel downloads")
	rootCmd.PersistentFlags().Int("jpeg-quality", menucache.DefaultJPEGQuality, "JPEG quality for opaque images")

	viper.BindPFlag("cache_dir", rootCmd.PersistentFlags().Lookup("cache-dir"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("size_limit", rootCmd.PersistentFlags().Lookup("size-limit"))
	viper.BindPFlag("concurrency", rootCmd.PersistentFlags().Lookup("concurrency"))
	viper.BindPFlag("jpeg_quality", rootCmd.PersistentFlags().Lookup("jpeg-quality"))
}

func initConfig() {
	if cfg := rootCmd.PersistentFlags().Lookup("config").Value.String(); cfg != "" {
		viper.SetConfigFile(cfg)
	} else {
		viper.AddConfigPath(configDir())
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("MENUCACHE")
	viper.AutomaticEnv()
	viper.SetDefault("cache_dir", defaultCacheDir())
	viper.SetDefault("batch_size", 5)

	viper.ReadInConfig()
}

func configDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "menucache")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "menucache")
	}
	return ".menucache"
}

func defaultCacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "menucache")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".cache", "menucache")
	}
	return ".menucache"
}

func newLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(viper.GetString("log_level"))
	if err != nil {
		level = zerolog.InfoLevel
	}
	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}

func openCache() (*menucache.Cache, error) {
	return menucache.Open(viper.GetString("cache_dir"),
		menucache.WithSizeLimit(viper.GetInt64("size_limit")),
		menucache.WithConcurrency(viper.GetInt("concurrency")),
		menucache.WithJPEGQuality(viper.GetInt("jpeg_quality")),
		menucache.WithLogger(newLogger()),
	)
}
