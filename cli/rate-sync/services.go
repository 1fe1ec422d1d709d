package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"

	currency "github.com/malusev998/rate-sync"
	"github.com/malusev998/rate-sync/fetchers"
	"github.com/malusev998/rate-sync/metrics"
	"github.com/malusev998/rate-sync/services"
	"github.com/malusev998/rate-sync/storage"
)

func createStorage(config *Config) (currency.RecordStore, error) {
	return storage.NewStorage(config.Storage, config.StorageConfig)
}

func newService(ctx context.Context, v *viper.Viper, logger *slog.Logger, registerer prometheus.Registerer) (currency.Service, io.Closer, error) {
	config, err := getConfig(ctx, v, logger)

	if err != nil {
		return nil, nil, err
	}

	st, err := createStorage(config)

	if err != nil {
		return nil, nil, err
	}

	logger.Debug("record store ready", slog.String("storage", st.GetStorageProviderName()))

	service := services.Service{
		Fetcher:    fetchers.NewRateFetcher(config.Fetcher, config.FetcherConfig),
		Reconciler: services.NewReconciler(st, logger),
		Pairs:      currency.DefaultPairs,
		Base:       config.Base,
		Logger:     logger,
		Metrics:    metrics.NewRunMetrics(registerer),
	}

	return service, st, nil
}
