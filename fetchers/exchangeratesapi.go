package fetchers

import (
	"context"
	"log/slog"
	"net/http"

	currency "github.com/malusev998/rate-sync"
)

// ExchangeRatesAPIFetcher reads rates from exchangeratesapi.io, where the
// base currency is passed as a query parameter.
type ExchangeRatesAPIFetcher struct {
	URL    string
	APIKey string
	Client *http.Client
	Logger *slog.Logger
}

func (e ExchangeRatesAPIFetcher) Fetch(ctx context.Context, base string) (currency.Rates, error) {
	url := e.URL

	if url == "" {
		url = ExchangeRatesAPIURL
	}

	logger := loggerOrDefault(e.Logger).With(slog.String("base", base))
	logger.Info("fetching exchange rates")

	req, err := getData(ctx, url)

	if err != nil {
		return nil, err
	}

	q := req.URL.Query()
	q.Add("base", base)

	if e.APIKey != "" {
		q.Add("access_key", e.APIKey)
	}

	req.URL.RawQuery = q.Encode()

	return fetchRates(clientOrDefault(e.Client), logger, req)
}
