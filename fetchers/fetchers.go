package fetchers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"

	currency "github.com/malusev998/rate-sync"
)

const (
	ExchangeRateAPIURL  = "https://api.exchangerate-api.com/v4/latest"
	ExchangeRatesAPIURL = "https://api.exchangeratesapi.io/latest"
)

type exchangeRateAPIResponse struct {
	Base  string                     `json:"base,omitempty"`
	Rates map[string]json.RawMessage `json:"rates,omitempty"`
	Date  string                     `json:"date,omitempty"`
}

var (
	ErrClient     = errors.New("client error")
	ErrServer     = errors.New("server error")
	ErrUnknown    = errors.New("unknown error")
	ErrEmptyRates = errors.New("response does not contain any rates")
)

func getData(ctx context.Context, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)

	if err != nil {
		return nil, err
	}

	req.Header.Add("Accept", "application/json")

	return req, nil
}

func handleHTTPStatusCodeError(res *http.Response) error {
	if res.StatusCode == http.StatusOK {
		return nil
	}

	switch {
	case res.StatusCode == http.StatusBadRequest:
		return ErrClient
	case res.StatusCode >= http.StatusInternalServerError:
		return ErrServer
	default:
		return ErrUnknown
	}
}

func fetchRates(client *http.Client, logger *slog.Logger, req *http.Request) (currency.Rates, error) {
	res, err := client.Do(req)

	if err != nil {
		return nil, err
	}

	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)

	if err != nil {
		return nil, err
	}

	logger.Info("rate API responded", slog.Int("status", res.StatusCode))

	if err := handleHTTPStatusCodeError(res); err != nil {
		return nil, fmt.Errorf("%w: status %d: %s", err, res.StatusCode, body)
	}

	var data exchangeRateAPIResponse

	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("decoding rates: %w", err)
	}

	if len(data.Rates) == 0 {
		return nil, ErrEmptyRates
	}

	logger.Info("rates fetched", slog.Int("currencies", len(data.Rates)))

	return toRates(logger, data.Rates), nil
}

// toRates keeps every currency the API listed. Values that are not JSON
// numbers become NaN so they fail at inversion instead of failing the fetch.
func toRates(logger *slog.Logger, raw map[string]json.RawMessage) currency.Rates {
	rates := make(currency.Rates, len(raw))

	for code, value := range raw {
		var rate *float64

		if err := json.Unmarshal(value, &rate); err != nil || rate == nil {
			logger.Warn("rate is not a number", slog.String("currency", code), slog.String("value", string(value)))
			rates[code] = math.NaN()

			continue
		}

		rates[code] = *rate
	}

	return rates
}
