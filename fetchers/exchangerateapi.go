package fetchers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	currency "github.com/malusev998/rate-sync"
)

// ExchangeRateAPIFetcher reads rates from exchangerate-api.com, where the
// base currency is the last path segment.
type ExchangeRateAPIFetcher struct {
	URL    string
	Client *http.Client
	Logger *slog.Logger
}

func (e ExchangeRateAPIFetcher) Fetch(ctx context.Context, base string) (currency.Rates, error) {
	url := e.URL

	if url == "" {
		url = ExchangeRateAPIURL
	}

	logger := loggerOrDefault(e.Logger).With(slog.String("base", base))
	logger.Info("fetching exchange rates")

	req, err := getData(ctx, strings.TrimRight(url, "/")+"/"+base)

	if err != nil {
		return nil, err
	}

	return fetchRates(clientOrDefault(e.Client), logger, req)
}
