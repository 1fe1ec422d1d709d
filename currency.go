package currency

import "context"

const BaseCurrency = "CNY"

type (
	// Rates maps an ISO currency code to its rate against the base currency.
	// NaN marks a listed currency whose value was not a number.
	Rates map[string]float64

	Fetcher interface {
		Fetch(ctx context.Context, base string) (Rates, error)
	}
)
