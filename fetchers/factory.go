package fetchers

import (
	"log/slog"
	"net/http"

	currency "github.com/malusev998/rate-sync"
)

type (
	BaseConfig struct {
		URL    string
		Client *http.Client
		Logger *slog.Logger
	}
	ExchangeRateAPIConfig struct {
		BaseConfig
	}
	ExchangeRatesAPIConfig struct {
		BaseConfig
		APIKey string
	}
)

func NewRateFetcher(provider currency.Provider, config interface{}) currency.Fetcher {
	switch provider {
	case currency.ExchangeRateAPIProvider:
		c := config.(ExchangeRateAPIConfig)

		return ExchangeRateAPIFetcher{
			URL:    c.URL,
			Client: c.Client,
			Logger: c.Logger,
		}
	case currency.ExchangeRatesAPIProvider:
		c := config.(ExchangeRatesAPIConfig)

		return ExchangeRatesAPIFetcher{
			URL:    c.URL,
			APIKey: c.APIKey,
			Client: c.Client,
			Logger: c.Logger,
		}
	}

	return nil
}

func clientOrDefault(client *http.Client) *http.Client {
	if client == nil {
		return &http.Client{}
	}

	return client
}

func loggerOrDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}

	return logger
}
