package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/spf13/viper"

	currency "github.com/malusev998/rate-sync"
	"github.com/malusev998/rate-sync/fetchers"
	"github.com/malusev998/rate-sync/storage"
)

type Config struct {
	Base          string
	Fetcher       currency.Provider
	FetcherConfig interface{}
	Storage       storage.Provider
	StorageConfig interface{}
}

var ErrMissingCredentials = errors.New("missing notion credentials")

func getConfig(ctx context.Context, v *viper.Viper, logger *slog.Logger) (*Config, error) {
	fetcher, err := currency.ConvertToProviderFromString(v.GetString("fetcher.provider"))

	if err != nil {
		return nil, err
	}

	st, err := storage.ConvertToProviderFromString(v.GetString("storage"))

	if err != nil {
		return nil, err
	}

	client := &http.Client{Timeout: v.GetDuration("http.timeout")}
	fetcherBaseConfig := fetchers.BaseConfig{
		URL:    v.GetString("fetcher.url"),
		Client: client,
		Logger: logger,
	}

	config := &Config{
		Base:    strings.ToUpper(v.GetString("base")),
		Fetcher: fetcher,
		Storage: st,
	}

	switch fetcher {
	case currency.ExchangeRatesAPIProvider:
		config.FetcherConfig = fetchers.ExchangeRatesAPIConfig{
			BaseConfig: fetcherBaseConfig,
			APIKey:     v.GetString("fetcher.apikey"),
		}
	default:
		config.FetcherConfig = fetchers.ExchangeRateAPIConfig{BaseConfig: fetcherBaseConfig}
	}

	storageBaseConfig := storage.BaseConfig{
		Ctx:     ctx,
		Migrate: v.GetBool("migrate"),
	}

	switch st {
	case storage.Notion:
		token := v.GetString("notion.token")
		database := v.GetString("notion.database")

		if token == "" || database == "" {
			return nil, fmt.Errorf("%w: NOTION_TOKEN and DATABASE_ID are required", ErrMissingCredentials)
		}

		config.StorageConfig = storage.NotionConfig{
			URL:        v.GetString("notion.url"),
			Version:    v.GetString("notion.version"),
			Token:      token,
			DatabaseID: database,
			Properties: storage.NotionProperties{
				Pair:     v.GetString("notion.properties.pair"),
				Currency: v.GetString("notion.properties.currency"),
				Rate:     v.GetString("notion.properties.rate"),
				Source:   v.GetString("notion.properties.source"),
				Status:   v.GetString("notion.properties.status"),
			},
			Client: client,
		}
	case storage.MySQL:
		mysqlConfig := v.GetStringMapString("databases.mysql")
		config.StorageConfig = storage.MySQLConfig{
			BaseConfig:       storageBaseConfig,
			ConnectionString: storage.MySQLDSN(mysqlConfig["user"], mysqlConfig["password"], mysqlConfig["addr"], mysqlConfig["db"]),
			TableName:        mysqlConfig["table"],
		}
	case storage.MongoDB:
		mongodbConfig := v.GetStringMapString("databases.mongodb")
		config.StorageConfig = storage.MongoDBConfig{
			BaseConfig:       storageBaseConfig,
			ConnectionString: mongodbConfig["uri"],
			Database:         mongodbConfig["database"],
			Collection:       mongodbConfig["collection"],
		}
	}

	return config, nil
}
