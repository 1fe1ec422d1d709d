package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	currency "github.com/malusev998/rate-sync"
)

const (
	defaultConfigFile      = "./config.yml"
	defaultCredentialsFile = "./config.txt"
)

type (
	// ServiceFactory builds the synchronisation service from loaded settings.
	// The returned closer releases the record store.
	ServiceFactory func(ctx context.Context, v *viper.Viper, logger *slog.Logger, registerer prometheus.Registerer) (currency.Service, io.Closer, error)

	Config struct {
		Ctx        context.Context
		NewService ServiceFactory
		Registry   *prometheus.Registry

		viper   *viper.Viper
		logger  *slog.Logger
		service currency.Service
		closer  io.Closer
	}
)

// credentialKeys maps keys of the credentials file to configuration keys.
var credentialKeys = map[string]string{
	"NOTION_TOKEN": "notion.token",
	"DATABASE_ID":  "notion.database",
}

func Execute(config *Config) error {
	return newRootCommand(config).ExecuteContext(config.Ctx)
}

func newRootCommand(config *Config) *cobra.Command {
	var (
		debug           bool
		configFile      string
		credentialsFile string
	)

	if config.Ctx == nil {
		config.Ctx = context.Background()
	}

	if config.Registry == nil {
		config.Registry = prometheus.NewRegistry()
	}

	config.viper = viper.New()

	rootCmd := &cobra.Command{
		Use:          "rate-sync",
		Short:        "Synchronises inverse exchange rates into a record store",
		Version:      "v2.0.0",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Debug flag")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", defaultConfigFile, "Path to config file")
	rootCmd.PersistentFlags().StringVar(&credentialsFile, "credentials", defaultCredentialsFile, "Path to key=value credentials file")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		v := config.viper

		if err := loadConfig(v, configFile, cmd.Flags().Changed("config")); err != nil {
			return err
		}

		if err := loadCredentials(v, credentialsFile, cmd.Flags().Changed("credentials")); err != nil {
			return err
		}

		if debug {
			v.Set("log.level", "debug")
		}

		config.logger = newLogger(cmd.ErrOrStderr(), v.GetString("log.level"), v.GetString("log.format"))

		service, closer, err := config.NewService(config.Ctx, v, config.logger, config.Registry)

		if err != nil {
			return err
		}

		config.service = service
		config.closer = closer

		return nil
	}

	rootCmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if config.closer == nil {
			return nil
		}

		return config.closer.Close()
	}

	rootCmd.AddCommand(fetch(config))

	return rootCmd
}

func loadConfig(v *viper.Viper, path string, required bool) error {
	setDefaults(v)
	v.SetEnvPrefix("RATE_SYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		return nil
	}

	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return nil
		}

		return fmt.Errorf("error while reading in the config file: %w", err)
	}

	return nil
}

func loadCredentials(v *viper.Viper, path string, required bool) error {
	if path == "" {
		return nil
	}

	values, err := godotenv.Read(path)

	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return nil
		}

		return fmt.Errorf("error while reading credentials: %w", err)
	}

	for key, value := range values {
		if mapped, ok := credentialKeys[key]; ok {
			v.Set(mapped, value)
			continue
		}

		v.Set(strings.ToLower(key), value)
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("base", currency.BaseCurrency)
	v.SetDefault("fetcher.provider", "exchangerateapi")
	v.SetDefault("storage", "notion")
	v.SetDefault("http.timeout", "0s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

func newLogger(w io.Writer, level, format string) *slog.Logger {
	var lvl slog.Level

	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}

	options := &slog.HandlerOptions{Level: lvl}

	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, options))
	}

	return slog.New(slog.NewTextHandler(w, options))
}
