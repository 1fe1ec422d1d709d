package currency

import (
	"fmt"
	"strings"
)

type Provider string

const (
	ExchangeRateAPIProvider  Provider = "ExchangeRateAPI"
	ExchangeRatesAPIProvider Provider = "ExchangeRatesAPI"
	EmptyProvider            Provider = ""
)

func ConvertToProviderFromString(str string) (Provider, error) {
	switch strings.ToLower(str) {
	case "exchangerateapi", "exchangerate-api":
		return ExchangeRateAPIProvider, nil
	case "exchangeratesapi":
		return ExchangeRatesAPIProvider, nil
	}

	return EmptyProvider, fmt.Errorf("value %s is not valid Provider", str)
}

// Set, String and Type let a Provider be bound directly as a command line flag.
func (p *Provider) Set(str string) error {
	provider, err := ConvertToProviderFromString(str)

	if err != nil {
		return err
	}

	*p = provider

	return nil
}

func (p Provider) String() string {
	return string(p)
}

func (p Provider) Type() string {
	return "provider"
}
